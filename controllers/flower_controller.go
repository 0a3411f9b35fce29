package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bloomhouse-api/apperrors"
	"github.com/kendall-kelly/bloomhouse-api/config"
	"github.com/kendall-kelly/bloomhouse-api/models"
	"github.com/kendall-kelly/bloomhouse-api/repositories"
	"github.com/kendall-kelly/bloomhouse-api/services"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FlowerQuery holds the catalog filters accepted by the list endpoints
type FlowerQuery struct {
	Name            string `form:"name"`
	Category        string `form:"category"`
	MinPrice        string `form:"min_price"`
	MaxPrice        string `form:"max_price"`
	IncludeInactive bool   `form:"include_inactive"`
	PageQuery
}

// CreateFlowerRequest represents the request body for adding a flower to the catalog
type CreateFlowerRequest struct {
	Name          string          `json:"name" binding:"required"`
	Description   string          `json:"description"`
	Category      string          `json:"category" binding:"required"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	StockQuantity int             `json:"stock_quantity" binding:"min=0"`
}

// UpdateFlowerRequest represents a partial update of a flower. Stock changes go
// through the restock endpoint.
type UpdateFlowerRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	Active      *bool            `json:"active"`
}

// RestockRequest adjusts stock by a signed delta
type RestockRequest struct {
	Delta *int `json:"delta" binding:"required"`
}

// ListFlowers handles GET /api/v1/flowers - the public, active-only catalog
func ListFlowers(c *gin.Context) {
	listFlowers(c, false)
}

// ListFlowersForStaff handles GET /api/v1/staff/flowers - honours include_inactive
func ListFlowersForStaff(c *gin.Context) {
	listFlowers(c, true)
}

func listFlowers(c *gin.Context, staff bool) {
	var q FlowerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindingError(c, err)
		return
	}
	q.normalize()

	filter := repositories.FlowerFilter{
		Name:            strings.TrimSpace(q.Name),
		Category:        strings.TrimSpace(q.Category),
		IncludeInactive: staff && q.IncludeInactive,
		Limit:           q.Limit,
		Offset:          q.Offset,
	}
	var err error
	if filter.MinPrice, err = parseOptionalPrice("min_price", q.MinPrice); err != nil {
		respondError(c, err)
		return
	}
	if filter.MaxPrice, err = parseOptionalPrice("max_price", q.MaxPrice); err != nil {
		respondError(c, err)
		return
	}

	flowers, total, err := repo().Flowers.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	for i := range flowers {
		attachImageURL(c, &flowers[i])
	}
	if flowers == nil {
		flowers = []models.Flower{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    flowers,
		"meta":    pageMeta(q.PageQuery, total),
	})
}

// GetFlower handles GET /api/v1/flowers/:id - active flowers only
func GetFlower(c *gin.Context) {
	getFlower(c, false)
}

// GetFlowerForStaff handles GET /api/v1/staff/flowers/:id - inactive flowers included
func GetFlowerForStaff(c *gin.Context) {
	getFlower(c, true)
}

func getFlower(c *gin.Context, includeInactive bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	flower, err := repo().Flowers.FindByID(c.Request.Context(), id, includeInactive)
	if err != nil {
		respondError(c, err)
		return
	}
	if flower == nil {
		respondError(c, apperrors.NewNotFound("flower", id))
		return
	}
	attachImageURL(c, flower)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    flower,
	})
}

// CreateFlower handles POST /api/v1/flowers (staff only)
func CreateFlower(c *gin.Context) {
	var req CreateFlowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	name := strings.TrimSpace(req.Name)
	category := strings.TrimSpace(req.Category)
	if name == "" {
		respondError(c, apperrors.NewValidationError("name", "is required"))
		return
	}
	if category == "" {
		respondError(c, apperrors.NewValidationError("category", "is required"))
		return
	}
	if err := validatePrice("unit_price", req.UnitPrice); err != nil {
		respondError(c, err)
		return
	}

	flower := &models.Flower{
		Name:          name,
		Description:   strings.TrimSpace(req.Description),
		Category:      category,
		UnitPrice:     req.UnitPrice,
		StockQuantity: req.StockQuantity,
		Active:        true,
	}
	if err := repo().Flowers.Create(c.Request.Context(), flower); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    flower,
	})
}

// UpdateFlower handles PUT /api/v1/flowers/:id (staff only)
func UpdateFlower(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateFlowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	updates := make(map[string]any)
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			respondError(c, apperrors.NewValidationError("name", "must not be blank"))
			return
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			respondError(c, apperrors.NewValidationError("category", "must not be blank"))
			return
		}
		updates["category"] = category
	}
	if req.UnitPrice != nil {
		if err := validatePrice("unit_price", *req.UnitPrice); err != nil {
			respondError(c, err)
			return
		}
		updates["unit_price"] = *req.UnitPrice
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	ctx := c.Request.Context()
	flowers := repo().Flowers
	if len(updates) > 0 {
		if err := flowers.UpdateFields(ctx, id, updates); err != nil {
			respondError(c, err)
			return
		}
	}

	flower, err := flowers.FindByID(ctx, id, true)
	if err != nil {
		respondError(c, err)
		return
	}
	if flower == nil {
		respondError(c, apperrors.NewNotFound("flower", id))
		return
	}
	attachImageURL(c, flower)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    flower,
	})
}

// DeactivateFlower handles DELETE /api/v1/flowers/:id (staff only). Flowers are
// referenced by historical orders, so they are deactivated rather than removed.
func DeactivateFlower(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := repo().Flowers.Deactivate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Flower deactivated",
	})
}

// RestockFlower handles POST /api/v1/flowers/:id/restock (staff only)
func RestockFlower(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}
	if *req.Delta == 0 {
		respondError(c, apperrors.NewValidationError("delta", "must not be zero"))
		return
	}

	flower, err := repo().Flowers.AdjustStock(c.Request.Context(), id, *req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	config.L().Info("stock adjusted",
		zap.Uint("flower_id", id),
		zap.Int("delta", *req.Delta),
		zap.Int("stock_quantity", flower.StockQuantity),
	)
	attachImageURL(c, flower)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    flower,
	})
}

// UploadFlowerImage handles POST /api/v1/flowers/:id/image (staff only). The
// multipart field "image" must hold a PNG; a previous image is deleted.
func UploadFlowerImage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	images := services.GetImageService()
	if images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "IMAGE_STORAGE_UNAVAILABLE",
				"message": "Image storage is not configured",
			},
		})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "An image file is required in the 'image' field",
			},
		})
		return
	}

	ctx := c.Request.Context()
	flowers := repo().Flowers
	flower, err := flowers.FindByID(ctx, id, true)
	if err != nil {
		respondError(c, err)
		return
	}
	if flower == nil {
		respondError(c, apperrors.NewNotFound("flower", id))
		return
	}

	key, err := images.UploadFlowerImage(ctx, id, fileHeader)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := flowers.SetImageKey(ctx, id, key); err != nil {
		if delErr := images.DeleteImage(ctx, key); delErr != nil {
			config.L().Warn("failed to delete orphaned flower image",
				zap.Uint("flower_id", id),
				zap.String("key", key),
				zap.Error(delErr),
			)
		}
		respondError(c, err)
		return
	}

	if flower.ImageS3Key != nil && *flower.ImageS3Key != key {
		if err := images.DeleteImage(ctx, *flower.ImageS3Key); err != nil {
			config.L().Warn("failed to delete replaced flower image",
				zap.Uint("flower_id", id),
				zap.String("key", *flower.ImageS3Key),
				zap.Error(err),
			)
		}
	}
	flower.ImageS3Key = &key
	attachImageURL(c, flower)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    flower,
	})
}

// attachImageURL fills the presigned image URL when the flower has an image and
// image storage is configured
func attachImageURL(c *gin.Context, flower *models.Flower) {
	images := services.GetImageService()
	if images == nil || flower.ImageS3Key == nil || *flower.ImageS3Key == "" {
		return
	}

	url, err := images.GetImageURL(c.Request.Context(), *flower.ImageS3Key)
	if err != nil {
		config.L().Warn("failed to presign flower image", zap.Uint("flower_id", flower.ID), zap.Error(err))
		return
	}
	flower.ImageURL = &url
}

func validatePrice(field string, price decimal.Decimal) error {
	if !price.IsPositive() {
		return apperrors.NewValidationError(field, "must be greater than zero")
	}
	if !price.Equal(price.Round(2)) {
		return apperrors.NewValidationError(field, "must have at most two decimal places")
	}
	return nil
}

func parseOptionalPrice(field, raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil || price.IsNegative() {
		return nil, apperrors.NewValidationError(field, "must be a non-negative decimal number")
	}
	return &price, nil
}

