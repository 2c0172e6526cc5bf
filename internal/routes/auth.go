package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fieldops/internal/controllers"
	"fieldops/internal/services"
	"fieldops/pkg/logger"
	"fieldops/pkg/middleware"
)

func runAuthRouter(api *echo.Group, authMW *middleware.AuthMiddleware, authService services.AuthServiceInterface, log *zap.Logger) {
	ctrl := controllers.NewAuthController(authService, logger.Named(log, "auth"))

	api.POST("/login", ctrl.Login)
	api.POST("/refresh", ctrl.Refresh)
	api.GET("/profile", ctrl.Profile, authMW.Auth)
}
