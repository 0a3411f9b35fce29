package testutil

import (
	"net/http"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bloomhouse-api/middleware"
	"github.com/kendall-kelly/bloomhouse-api/models"
)

// MockValidatedClaims creates validated claims for principal. A staff or admin role is
// carried in the roles claim; customers carry none.
func MockValidatedClaims(principal models.Principal, issuer string) *validator.ValidatedClaims {
	var roles []string
	if principal.Role != "" && principal.Role != models.RoleCustomer {
		roles = []string{principal.Role}
	}

	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: principal.ID,
		},
		CustomClaims: &middleware.CustomClaims{
			Email: principal.Email,
			Name:  principal.Name,
			Roles: roles,
		},
	}
}

// SetMockAuthContext sets up an authenticated context the way EnsureValidToken does
func SetMockAuthContext(c *gin.Context, principal models.Principal) {
	c.Set("user_id", principal.ID)
	c.Set("validated_claims", MockValidatedClaims(principal, "https://test.auth0.com/"))
	c.Set("access_token", "mock-token")
}

// MockAuthMiddleware authenticates every request as principal
func MockAuthMiddleware(principal models.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		SetMockAuthContext(c, principal)
		c.Next()
	}
}

// Customer returns a customer principal for email
func Customer(email string) models.Principal {
	return models.Principal{ID: "auth0|" + email, Email: email, Role: models.RoleCustomer}
}

// Staff returns a staff principal
func Staff() models.Principal {
	return models.Principal{ID: "auth0|staff", Email: "staff@bloomhouse.test", Name: "Shop Staff", Role: models.RoleStaff}
}

// Admin returns an admin principal
func Admin() models.Principal {
	return models.Principal{ID: "auth0|admin", Email: "admin@bloomhouse.test", Name: "Shop Admin", Role: models.RoleAdmin}
}

// CreateTestContext creates a test Gin context
func CreateTestContext() (*gin.Context, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	c, engine := gin.CreateTestContext(nil)
	return c, engine
}

// PrincipalHeader names the request header HeaderAuthMiddleware reads
const PrincipalHeader = "X-Test-Principal"

// HeaderAuthMiddleware authenticates each request as the principal keyed by the
// PrincipalHeader value. Unknown or missing keys are rejected with 401, the way
// EnsureValidToken rejects a missing token.
func HeaderAuthMiddleware(principals map[string]models.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principals[c.GetHeader(PrincipalHeader)]
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Failed to validate JWT.",
				},
			})
			return
		}
		SetMockAuthContext(c, principal)
		c.Next()
	}
}
