package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bloomhouse-api/config"
	"github.com/kendall-kelly/bloomhouse-api/models"
	"go.uber.org/zap"
)

// CustomClaims contains custom data we want from the token. Email, name and roles
// are namespaced claims added to access tokens by the Auth0 login action.
type CustomClaims struct {
	Email string   `json:"https://bloomhouse-api/email"`
	Name  string   `json:"https://bloomhouse-api/name"`
	Roles []string `json:"https://bloomhouse-api/roles"`
}

// Validate does nothing for this example, but we need
// it to satisfy validator.CustomClaims interface.
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// Role returns the most privileged role granted to the token, customer when none is
func (c CustomClaims) Role() string {
	role := models.RoleCustomer
	for _, r := range c.Roles {
		switch strings.ToLower(strings.TrimSpace(r)) {
		case models.RoleAdmin:
			return models.RoleAdmin
		case models.RoleStaff:
			role = models.RoleStaff
		}
	}
	return role
}

// EnsureValidToken is a middleware that will check the validity of our JWT.
func EnsureValidToken(cfg *config.Config) gin.HandlerFunc {
	logger := config.L().Named("auth")

	issuerURL, err := url.Parse("https://" + cfg.Auth0Domain + "/")
	if err != nil {
		logger.Fatal("failed to parse the issuer url", zap.Error(err))
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{cfg.Auth0Audience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		logger.Fatal("failed to set up the jwt validator", zap.Error(err))
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Info("rejected token", zap.String("path", r.URL.Path), zap.Error(err))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		if _, writeErr := w.Write([]byte(`{"success":false,"error":{"code":"INVALID_TOKEN","message":"Failed to validate JWT."}}`)); writeErr != nil {
			logger.Warn("failed to write error response", zap.Error(writeErr))
		}
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(c *gin.Context) {
		validated := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			validated = true
			token := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)

			c.Set("user_id", token.RegisteredClaims.Subject)
			c.Set("validated_claims", token)
			if raw, err := jwtmiddleware.AuthHeaderTokenExtractor(r); err == nil {
				c.Set("access_token", raw)
			}

			c.Request = r
			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)

		// The error handler already wrote the 401; stop the rest of the chain
		if !validated {
			c.Abort()
		}
	}
}

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}

	userIDStr, ok := userID.(string)
	if !ok {
		return "", &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a string"}
	}

	return userIDStr, nil
}

// GetAccessToken returns the raw bearer token of the current request
func GetAccessToken(c *gin.Context) (string, error) {
	token, exists := c.Get("access_token")
	if !exists {
		return "", &AuthError{Code: "MISSING_TOKEN", Message: "Access token not found in context"}
	}

	tokenStr, ok := token.(string)
	if !ok || tokenStr == "" {
		return "", &AuthError{Code: "INVALID_TOKEN", Message: "Access token is not a string"}
	}

	return tokenStr, nil
}

// GetClaims extracts the validated JWT claims from the Gin context
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	claims, exists := c.Get("validated_claims")
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}

	return validatedClaims, nil
}

// GetPrincipal builds the authenticated principal from the validated claims.
// Email and name may be empty when the access token does not carry them.
func GetPrincipal(c *gin.Context) (models.Principal, error) {
	claims, err := GetClaims(c)
	if err != nil {
		return models.Principal{}, err
	}

	principal := models.Principal{
		ID:   claims.RegisteredClaims.Subject,
		Role: models.RoleCustomer,
	}
	if custom, ok := claims.CustomClaims.(*CustomClaims); ok && custom != nil {
		principal.Email = strings.TrimSpace(custom.Email)
		principal.Name = strings.TrimSpace(custom.Name)
		principal.Role = custom.Role()
	}
	if principal.ID == "" {
		return models.Principal{}, &AuthError{Code: "MISSING_USER_ID", Message: "Token has no subject"}
	}

	return principal, nil
}

// RequireRole lets the request through only when the principal holds one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := GetPrincipal(c)
		if err != nil {
			abortMissingClaims(c)
			return
		}

		for _, role := range roles {
			if principal.Role == role {
				c.Next()
				return
			}
		}

		abortForbidden(c, "INSUFFICIENT_ROLE")
	}
}

func abortMissingClaims(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "MISSING_CLAIMS",
			"message": "Could not retrieve token claims",
		},
	})
}

func abortForbidden(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": "Insufficient permissions to access this resource",
		},
	})
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
