package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fieldops/internal/controllers"
	"fieldops/internal/services"
	"fieldops/pkg/logger"
	"fieldops/pkg/middleware"
)

func runShiftCityRouter(
	api *echo.Group,
	authMW *middleware.AuthMiddleware,
	shiftCityService services.ShiftCityServiceInterface,
	sessionService services.SessionServiceInterface,
	log *zap.Logger,
) {
	ctrl := controllers.NewShiftCityController(shiftCityService, sessionService, logger.Named(log, "shift_cities"))

	pools := api.Group("/shift-cities", authMW.Auth)
	pools.GET("", ctrl.GetPools)
	pools.GET("/by-city/:cityId", ctrl.GetByCity)
	pools.PUT("/:shiftId/cities", ctrl.UpdateCities)
	pools.POST("/:id/vacancies", ctrl.AdjustVacancies)
	pools.GET("/:id/vacancies", ctrl.GetVacancies)
	pools.GET("/:id/free-vacancies", ctrl.GetFreeVacancies)
	pools.GET("/:shiftId/:cityId/eligibility", ctrl.CheckEligibility)
}
