package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fieldops/internal/controllers"
	"fieldops/internal/services"
	"fieldops/pkg/logger"
	"fieldops/pkg/middleware"
)

func runReportRouter(
	api *echo.Group,
	authMW *middleware.AuthMiddleware,
	reportService services.ReportServiceInterface,
	sessionService services.SessionServiceInterface,
	log *zap.Logger,
) {
	ctrl := controllers.NewReportController(reportService, sessionService, logger.Named(log, "reports"))

	reports := api.Group("/reports", authMW.Auth)
	reports.GET("/schedule", ctrl.ScheduleReport)
}
