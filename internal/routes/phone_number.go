package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fieldops/internal/controllers"
	"fieldops/internal/services"
	"fieldops/pkg/logger"
	"fieldops/pkg/middleware"
)

func runPhoneNumberRouter(
	api *echo.Group,
	authMW *middleware.AuthMiddleware,
	phoneService services.PhoneNumberServiceInterface,
	sessionService services.SessionServiceInterface,
	log *zap.Logger,
) {
	ctrl := controllers.NewPhoneNumberController(phoneService, sessionService, logger.Named(log, "phone_numbers"))

	numbers := api.Group("/phone-numbers", authMW.Auth)
	numbers.GET("", ctrl.GetPhoneNumbers)
	numbers.GET("/:id", ctrl.FindPhoneNumber)
	numbers.POST("", ctrl.CreatePhoneNumber)
	numbers.POST("/range", ctrl.CreatePhoneNumberRange)
	numbers.POST("/bind", ctrl.BindPhoneNumbers)
	numbers.POST("/:id/unbind", ctrl.UnbindPhoneNumber)
	numbers.POST("/:id/reserve", ctrl.ReservePhoneNumber)
	numbers.POST("/:id/release", ctrl.ReleasePhoneNumber)
	numbers.POST("/release-expired", ctrl.ReleaseExpiredReservations)
}
