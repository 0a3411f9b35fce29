package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bloomhouse-api/apperrors"
	"github.com/kendall-kelly/bloomhouse-api/config"
	"github.com/kendall-kelly/bloomhouse-api/middleware"
	"github.com/kendall-kelly/bloomhouse-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(t *testing.T, err error) (int, map[string]interface{}) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/orders", nil)
	respondError(c, err)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w.Code, response["error"].(map[string]interface{})
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
		checkDetails   func(t *testing.T, details interface{})
	}{
		{
			name:           "Validation",
			err:            apperrors.NewValidationError("items[0].quantity", "must be at least 1"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
			checkDetails: func(t *testing.T, details interface{}) {
				assert.Equal(t, "items[0].quantity", details.(map[string]interface{})["field"])
			},
		},
		{
			name:           "Item unavailable",
			err:            &apperrors.ItemUnavailableError{FlowerID: 3},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "ITEM_UNAVAILABLE",
			checkDetails: func(t *testing.T, details interface{}) {
				assert.Equal(t, float64(3), details.(map[string]interface{})["flower_id"])
			},
		},
		{
			name:           "Insufficient stock",
			err:            &apperrors.InsufficientStockError{FlowerID: 7, Available: 10, Requested: 20},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INSUFFICIENT_STOCK",
			checkDetails: func(t *testing.T, details interface{}) {
				d := details.(map[string]interface{})
				assert.Equal(t, float64(7), d["flower_id"])
				assert.Equal(t, float64(10), d["available"])
				assert.Equal(t, float64(20), d["requested"])
			},
		},
		{
			name:           "Wrapped insufficient stock",
			err:            fmt.Errorf("reserve: %w", &apperrors.InsufficientStockError{FlowerID: 7, Available: 1, Requested: 2}),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INSUFFICIENT_STOCK",
		},
		{
			name:           "Negative stock",
			err:            &apperrors.NegativeStockError{FlowerID: 1, Current: 2, Delta: -3},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "NEGATIVE_STOCK",
		},
		{
			name:           "Profile resolution",
			err:            &apperrors.ProfileResolutionError{Message: "no email"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "PROFILE_RESOLUTION_ERROR",
		},
		{
			name:           "Not found",
			err:            apperrors.NewNotFound("order", 12),
			expectedStatus: http.StatusNotFound,
			expectedCode:   "NOT_FOUND",
			checkDetails: func(t *testing.T, details interface{}) {
				assert.Equal(t, "order", details.(map[string]interface{})["resource"])
			},
		},
		{
			name:           "Upload error keeps its code",
			err:            &utils.FileUploadError{Code: "FILE_TOO_LARGE", Message: "too big"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "FILE_TOO_LARGE",
		},
		{
			name:           "Auth error",
			err:            &middleware.AuthError{Code: "MISSING_CLAIMS", Message: "no claims"},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "MISSING_CLAIMS",
		},
		{
			name:           "Transient failure is retryable",
			err:            &apperrors.TransientError{Err: errors.New("database is locked")},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "TRANSIENT_FAILURE",
		},
		{
			name:           "Anything else is internal",
			err:            errors.New("disk I/O error"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "INTERNAL_ERROR",
			checkDetails: func(t *testing.T, details interface{}) {
				assert.Equal(t, "disk I/O error", details)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, errorData := respond(t, tt.err)

			assert.Equal(t, tt.expectedStatus, status)
			assert.Equal(t, tt.expectedCode, errorData["code"])
			assert.NotEmpty(t, errorData["message"])
			if tt.checkDetails != nil {
				tt.checkDetails(t, errorData["details"])
			}
		})
	}
}

func TestRespondError_TransientIsMarkedRetryable(t *testing.T) {
	_, errorData := respond(t, &apperrors.TransientError{Err: errors.New("deadlock")})
	assert.Equal(t, true, errorData["retryable"])
}

func TestRespondError_HidesInternalDetailsInProduction(t *testing.T) {
	cfg := config.Default()
	cfg.GoEnv = "production"
	config.SetConfig(cfg)
	t.Cleanup(func() { config.SetConfig(nil) })

	status, errorData := respond(t, errors.New("pq: relation \"orders\" does not exist"))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", errorData["code"])
	assert.NotContains(t, errorData, "details")
}

func TestParseIDParam(t *testing.T) {
	tests := []struct {
		raw      string
		expected uint
		ok       bool
	}{
		{raw: "42", expected: 42, ok: true},
		{raw: "0", ok: false},
		{raw: "-1", ok: false},
		{raw: "abc", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Params = gin.Params{{Key: "id", Value: tt.raw}}

			id, ok := parseIDParam(c, "id")

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, id)
			if !ok {
				assert.Equal(t, http.StatusBadRequest, w.Code)
			}
		})
	}
}
