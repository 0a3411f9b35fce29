package controllers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bloomhouse-api/config"
	"github.com/kendall-kelly/bloomhouse-api/middleware"
	"github.com/kendall-kelly/bloomhouse-api/models"
	"github.com/kendall-kelly/bloomhouse-api/repositories"
	"github.com/kendall-kelly/bloomhouse-api/services"
	"go.uber.org/zap"
)

// lookupUserInfo resolves profile details the access token does not carry
var lookupUserInfo = func(ctx context.Context, accessToken string) (*services.Auth0UserInfo, error) {
	return services.NewAuth0Service(config.GetConfig()).GetUserInfo(ctx, accessToken)
}

// currentPrincipal returns the authenticated principal, filling a missing email
// from Auth0's /userinfo. A failed lookup leaves the email empty.
func currentPrincipal(c *gin.Context) (models.Principal, error) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		return principal, err
	}
	if principal.Email != "" {
		return principal, nil
	}

	token, err := middleware.GetAccessToken(c)
	if err != nil {
		return principal, nil
	}

	info, err := lookupUserInfo(c.Request.Context(), token)
	if err != nil {
		config.L().Warn("userinfo lookup failed",
			zap.String("principal_id", principal.ID),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		return principal, nil
	}

	principal.Email = info.Email
	if principal.Name == "" {
		principal.Name = info.Name
	}
	return principal, nil
}

func repo() *repositories.Repository {
	return repositories.New(config.GetDB())
}

func orderService() *services.OrderService {
	return services.NewOrderService(repo(), config.L(), config.GetConfig())
}
