package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bloomhouse-api/apperrors"
	"github.com/kendall-kelly/bloomhouse-api/models"
	"github.com/kendall-kelly/bloomhouse-api/repositories"
)

// CustomerQuery holds the staff customer list parameters
type CustomerQuery struct {
	IncludeInactive bool `form:"include_inactive"`
	PageQuery
}

// CreateCustomerRequest represents the request body for a staff-created profile
type CreateCustomerRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// UpdateCustomerRequest represents a partial profile update
type UpdateCustomerRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
}

// GetMyCustomerProfile handles GET /api/v1/customers/me. Profiles are created by
// the first order, so a customer who never ordered gets 404.
func GetMyCustomerProfile(c *gin.Context) {
	principal, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if principal.Email == "" {
		respondError(c, &apperrors.ProfileResolutionError{Message: "authenticated user has no email address"})
		return
	}

	profile, err := repo().Customers.FindByEmail(c.Request.Context(), principal.Email, false)
	if err != nil {
		respondError(c, err)
		return
	}
	if profile == nil {
		respondError(c, apperrors.NewNotFound("customer", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    profile,
	})
}

// UpdateMyCustomerProfile handles PUT /api/v1/customers/me. The profile is created
// (or reactivated) when needed; the email always comes from the identity provider.
func UpdateMyCustomerProfile(c *gin.Context) {
	principal, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if principal.Email == "" {
		respondError(c, &apperrors.ProfileResolutionError{Message: "authenticated user has no email address"})
		return
	}

	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}
	if req.Email != nil {
		respondError(c, apperrors.NewValidationError("email", "is managed by your login and cannot be changed here"))
		return
	}
	updates, err := customerUpdates(req)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	var profile *models.CustomerProfile
	err = repo().WithTx(ctx, func(tx *repositories.Repository) error {
		found, _, err := tx.Customers.FindOrCreateByEmail(ctx, principal.Email, repositories.CustomerDefaults{Name: principal.Name})
		if err != nil {
			return err
		}
		if !found.Active {
			if err := tx.Customers.Reactivate(ctx, found); err != nil {
				return err
			}
		}
		if len(updates) > 0 {
			if err := tx.Customers.UpdateFields(ctx, found.ID, updates); err != nil {
				return err
			}
		}
		profile, err = tx.Customers.FindByID(ctx, found.ID, false)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    profile,
	})
}

// ListCustomers handles GET /api/v1/customers (staff only)
func ListCustomers(c *gin.Context) {
	var q CustomerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindingError(c, err)
		return
	}
	q.normalize()

	customers, total, err := repo().Customers.List(c.Request.Context(), q.Limit, q.Offset, q.IncludeInactive)
	if err != nil {
		respondError(c, err)
		return
	}
	if customers == nil {
		customers = []models.CustomerProfile{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    customers,
		"meta":    pageMeta(q.PageQuery, total),
	})
}

// CreateCustomer handles POST /api/v1/customers (staff only). Reusing the email of
// a deactivated profile reactivates it with the submitted details.
func CreateCustomer(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	email := strings.TrimSpace(req.Email)
	defaults := repositories.CustomerDefaults{
		Name:    strings.TrimSpace(req.Name),
		Address: strings.TrimSpace(req.Address),
		Phone:   strings.TrimSpace(req.Phone),
	}

	ctx := c.Request.Context()
	var (
		profile *models.CustomerProfile
		status  = http.StatusCreated
	)
	err := repo().WithTx(ctx, func(tx *repositories.Repository) error {
		found, created, err := tx.Customers.FindOrCreateByEmail(ctx, email, defaults)
		if err != nil {
			return err
		}
		profile = found
		if created {
			return nil
		}
		if found.Active {
			return errCustomerExists
		}

		status = http.StatusOK
		updates := map[string]any{"active": true}
		if defaults.Name != "" {
			updates["name"] = defaults.Name
		}
		if defaults.Address != "" {
			updates["address"] = defaults.Address
		}
		if defaults.Phone != "" {
			updates["phone"] = defaults.Phone
		}
		if err := tx.Customers.UpdateFields(ctx, found.ID, updates); err != nil {
			return err
		}
		profile, err = tx.Customers.FindByID(ctx, found.ID, false)
		return err
	})
	if errors.Is(err, errCustomerExists) {
		respondCustomerConflict(c)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(status, gin.H{
		"success": true,
		"data":    profile,
	})
}

// GetCustomer handles GET /api/v1/customers/:id (staff only)
func GetCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	profile, err := repo().Customers.FindByID(c.Request.Context(), id, true)
	if err != nil {
		respondError(c, err)
		return
	}
	if profile == nil {
		respondError(c, apperrors.NewNotFound("customer", id))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    profile,
	})
}

// UpdateCustomer handles PUT /api/v1/customers/:id (staff only)
func UpdateCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}
	updates, err := customerUpdates(req)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	customers := repo().Customers
	if len(updates) > 0 {
		if err := customers.UpdateFields(ctx, id, updates); err != nil {
			if apperrors.IsUniqueViolation(err) {
				respondCustomerConflict(c)
				return
			}
			respondError(c, err)
			return
		}
	}

	profile, err := customers.FindByID(ctx, id, true)
	if err != nil {
		respondError(c, err)
		return
	}
	if profile == nil {
		respondError(c, apperrors.NewNotFound("customer", id))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    profile,
	})
}

// DeactivateCustomer handles DELETE /api/v1/customers/:id (staff only). Orders keep
// referencing the profile, so it is deactivated rather than removed.
func DeactivateCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := repo().Customers.Deactivate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Customer deactivated",
	})
}

var errCustomerExists = errors.New("customer already exists")

func respondCustomerConflict(c *gin.Context) {
	c.JSON(http.StatusConflict, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "CUSTOMER_EXISTS",
			"message": "A customer with this email already exists",
		},
	})
}

func customerUpdates(req UpdateCustomerRequest) (map[string]any, error) {
	updates := make(map[string]any)
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name", "must not be blank")
		}
		updates["name"] = name
	}
	if req.Email != nil {
		updates["email"] = strings.TrimSpace(*req.Email)
	}
	if req.Address != nil {
		updates["address"] = strings.TrimSpace(*req.Address)
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}
	return updates, nil
}
