package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bloomhouse-api/apperrors"
	"github.com/kendall-kelly/bloomhouse-api/models"
	"github.com/kendall-kelly/bloomhouse-api/repositories"
	"github.com/kendall-kelly/bloomhouse-api/services"
)

// StaffOrderRequest is an order entered by staff on behalf of a customer
type StaffOrderRequest struct {
	CustomerID uint `json:"customer_id" binding:"required"`
	services.PlaceOrderInput
}

// OrderQuery holds the staff order list filters
type OrderQuery struct {
	Status     string `form:"status"`
	CustomerID uint   `form:"customer_id"`
	PageQuery
}

// UpdateOrderStatusRequest represents the request body for changing an order's status
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PlaceOrder handles POST /api/v1/orders - a customer orders for themselves
func PlaceOrder(c *gin.Context) {
	principal, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req services.PlaceOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	order, err := orderService().PlaceOrder(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// CreateOrderForCustomer handles POST /api/v1/staff/orders (staff only)
func CreateOrderForCustomer(c *gin.Context) {
	var req StaffOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	order, err := orderService().PlaceOrderForCustomer(c.Request.Context(), req.CustomerID, req.PlaceOrderInput)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// GetOrder handles GET /api/v1/orders/:id. Customers only see their own orders;
// anyone else's order is reported as not found.
func GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	principal, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	r := repo()
	order, err := r.Orders.FindByID(ctx, id, true)
	if err != nil {
		respondError(c, err)
		return
	}
	if order == nil {
		respondError(c, apperrors.NewNotFound("order", id))
		return
	}

	if !principal.IsStaff() {
		owner, err := ownProfile(c, r, principal)
		if err != nil {
			respondError(c, err)
			return
		}
		if owner == nil || owner.ID != order.CustomerID {
			respondError(c, apperrors.NewNotFound("order", id))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// ListMyOrders handles GET /api/v1/orders/mine - newest first
func ListMyOrders(c *gin.Context) {
	principal, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}

	r := repo()
	owner, err := ownProfile(c, r, principal)
	if err != nil {
		respondError(c, err)
		return
	}

	orders := []models.Order{}
	if owner != nil {
		found, err := r.Orders.FindByCustomer(c.Request.Context(), owner.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		if found != nil {
			orders = found
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// ListOrders handles GET /api/v1/orders (staff only)
func ListOrders(c *gin.Context) {
	var q OrderQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindingError(c, err)
		return
	}
	q.normalize()

	filter := repositories.OrderListFilter{
		Status: strings.ToLower(strings.TrimSpace(q.Status)),
		Limit:  q.Limit,
		Offset: q.Offset,
	}
	if filter.Status != "" && !models.ValidOrderStatus(filter.Status) {
		respondError(c, apperrors.NewValidationError("status", "unknown order status"))
		return
	}
	if q.CustomerID != 0 {
		filter.CustomerID = &q.CustomerID
	}

	orders, total, err := repo().Orders.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
		"meta":    pageMeta(q.PageQuery, total),
	})
}

// UpdateOrderStatus handles PATCH /api/v1/orders/:id/status (staff only)
func UpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	ctx := c.Request.Context()
	orders := repo().Orders
	if err := orders.UpdateStatus(ctx, id, strings.ToLower(strings.TrimSpace(req.Status))); err != nil {
		respondError(c, err)
		return
	}

	order, err := orders.FindByID(ctx, id, true)
	if err != nil {
		respondError(c, err)
		return
	}
	if order == nil {
		respondError(c, apperrors.NewNotFound("order", id))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// DeleteOrder handles DELETE /api/v1/orders/:id (staff only). The order and its
// items are removed; stock is not returned.
func DeleteOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := repo().Orders.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order deleted",
	})
}

// ownProfile finds the principal's customer profile, inactive ones included.
// A principal without an email has no profile.
func ownProfile(c *gin.Context, r *repositories.Repository, principal models.Principal) (*models.CustomerProfile, error) {
	if principal.Email == "" {
		return nil, nil
	}
	return r.Customers.FindByEmail(c.Request.Context(), principal.Email, true)
}
