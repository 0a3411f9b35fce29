package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bloomhouse-api/controllers"
	"github.com/kendall-kelly/bloomhouse-api/middleware"
	"github.com/kendall-kelly/bloomhouse-api/models"
)

// Register mounts the catalog, customer and order endpoints on v1. auth must
// authenticate the request and leave validated claims in the context; the role
// checks run after it.
func Register(v1 *gin.RouterGroup, auth gin.HandlerFunc) {
	staffOnly := middleware.RequireRole(models.RoleStaff, models.RoleAdmin)
	customerOnly := middleware.RequireRole(models.RoleCustomer)

	// Public catalog
	v1.GET("/flowers", controllers.ListFlowers)
	v1.GET("/flowers/:id", controllers.GetFlower)

	authed := v1.Group("", auth)

	customer := authed.Group("", customerOnly)
	{
		customer.POST("/orders", controllers.PlaceOrder)
		customer.GET("/orders/mine", controllers.ListMyOrders)
		customer.GET("/customers/me", controllers.GetMyCustomerProfile)
		customer.PUT("/customers/me", controllers.UpdateMyCustomerProfile)
	}

	// Ownership is checked by the handler
	authed.GET("/orders/:id", controllers.GetOrder)

	staff := authed.Group("", staffOnly)
	{
		staff.GET("/staff/flowers", controllers.ListFlowersForStaff)
		staff.GET("/staff/flowers/:id", controllers.GetFlowerForStaff)
		staff.POST("/flowers", controllers.CreateFlower)
		staff.PUT("/flowers/:id", controllers.UpdateFlower)
		staff.DELETE("/flowers/:id", controllers.DeactivateFlower)
		staff.POST("/flowers/:id/restock", controllers.RestockFlower)
		staff.POST("/flowers/:id/image", controllers.UploadFlowerImage)

		staff.GET("/customers", controllers.ListCustomers)
		staff.POST("/customers", controllers.CreateCustomer)
		staff.GET("/customers/:id", controllers.GetCustomer)
		staff.PUT("/customers/:id", controllers.UpdateCustomer)
		staff.DELETE("/customers/:id", controllers.DeactivateCustomer)

		staff.GET("/orders", controllers.ListOrders)
		staff.POST("/staff/orders", controllers.CreateOrderForCustomer)
		staff.PATCH("/orders/:id/status", controllers.UpdateOrderStatus)
		staff.DELETE("/orders/:id", controllers.DeleteOrder)
	}
}
