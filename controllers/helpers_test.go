package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bloomhouse-api/config"
	"github.com/kendall-kelly/bloomhouse-api/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

// setupControllerDB points the controllers at a fresh test database
func setupControllerDB(t *testing.T) *gorm.DB {
	t.Helper()

	db := testutil.NewTestDB(t)
	config.SetDB(db)
	config.SetConfig(config.Default())
	t.Cleanup(func() {
		config.SetDB(nil)
		config.SetConfig(nil)
	})
	return db
}

// doJSON sends body (when non-nil) as JSON and decodes the response envelope
func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "body: %s", w.Body.String())
	return w, response
}

// assertErrorCode checks the failure envelope carries code
func assertErrorCode(t *testing.T, response map[string]interface{}, code string) {
	t.Helper()

	assert.Equal(t, false, response["success"])
	errorData, ok := response["error"].(map[string]interface{})
	require.True(t, ok, "response has no error object: %v", response)
	assert.Equal(t, code, errorData["code"])
}

// assertDecimal compares a JSON decimal string with want
func assertDecimal(t *testing.T, want string, got interface{}) {
	t.Helper()

	s, ok := got.(string)
	require.True(t, ok, "expected a decimal string, got %T", got)
	assert.True(t, decimal.RequireFromString(want).Equal(decimal.RequireFromString(s)), "want %s, got %s", want, s)
}
