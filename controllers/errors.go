package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bloomhouse-api/apperrors"
	"github.com/kendall-kelly/bloomhouse-api/config"
	"github.com/kendall-kelly/bloomhouse-api/middleware"
	"github.com/kendall-kelly/bloomhouse-api/utils"
	"go.uber.org/zap"
)

// maxPageSize caps the limit query parameter of list endpoints
const maxPageSize = 100

// respondError writes err in the API error envelope. Errors outside the known
// taxonomy are logged here and reported as INTERNAL_ERROR.
func respondError(c *gin.Context, err error) {
	var (
		validation   *apperrors.ValidationError
		unavailable  *apperrors.ItemUnavailableError
		insufficient *apperrors.InsufficientStockError
		negative     *apperrors.NegativeStockError
		profile      *apperrors.ProfileResolutionError
		notFound     *apperrors.NotFoundError
		transient    *apperrors.TransientError
		authErr      *middleware.AuthError
		uploadErr    *utils.FileUploadError
	)

	switch {
	case errors.As(err, &validation):
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", validation.Error(), gin.H{"field": validation.Field})
	case errors.As(err, &unavailable):
		errorJSON(c, http.StatusBadRequest, "ITEM_UNAVAILABLE", unavailable.Error(), gin.H{"flower_id": unavailable.FlowerID})
	case errors.As(err, &insufficient):
		errorJSON(c, http.StatusBadRequest, "INSUFFICIENT_STOCK", insufficient.Error(), gin.H{
			"flower_id": insufficient.FlowerID,
			"available": insufficient.Available,
			"requested": insufficient.Requested,
		})
	case errors.As(err, &negative):
		errorJSON(c, http.StatusBadRequest, "NEGATIVE_STOCK", negative.Error(), gin.H{
			"flower_id": negative.FlowerID,
			"current":   negative.Current,
			"delta":     negative.Delta,
		})
	case errors.As(err, &profile):
		errorJSON(c, http.StatusBadRequest, "PROFILE_RESOLUTION_ERROR", profile.Error(), nil)
	case errors.As(err, &notFound):
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", notFound.Error(), gin.H{"resource": notFound.Resource})
	case errors.As(err, &uploadErr):
		errorJSON(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message, nil)
	case errors.As(err, &authErr):
		errorJSON(c, http.StatusUnauthorized, authErr.Code, authErr.Message, nil)
	case errors.As(err, &transient):
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":      "TRANSIENT_FAILURE",
				"message":   "The request could not be completed right now, please retry",
				"retryable": true,
			},
		})
	default:
		config.L().Error("internal error",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		var details any
		if !config.GetConfig().IsProduction() {
			details = err.Error()
		}
		errorJSON(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred", details)
	}
}

func errorJSON(c *gin.Context, status int, code, message string, details any) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if details != nil {
		body["details"] = details
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   body,
	})
}

// respondBindingError reports a request body or query string that failed to bind
func respondBindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// parseIDParam reads a positive numeric path parameter
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid " + name + " format",
			},
		})
		return 0, false
	}
	return uint(id), true
}

// PageQuery is the paging part of list query strings
type PageQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// normalize fills in the configured default page size
func (p *PageQuery) normalize() {
	if p.Limit <= 0 {
		p.Limit = config.GetConfig().DefaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
}

func pageMeta(p PageQuery, total int64) gin.H {
	return gin.H{
		"limit":  p.Limit,
		"offset": p.Offset,
		"total":  total,
	}
}
