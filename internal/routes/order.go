package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fieldops/internal/controllers"
	"fieldops/internal/services"
	"fieldops/pkg/logger"
	"fieldops/pkg/middleware"
)

func runOrderRouter(
	api *echo.Group,
	authMW *middleware.AuthMiddleware,
	orderService services.OrderServiceInterface,
	sessionService services.SessionServiceInterface,
	log *zap.Logger,
) {
	ctrl := controllers.NewOrderController(orderService, sessionService, logger.Named(log, "orders"))

	orders := api.Group("/orders", authMW.Auth)
	orders.GET("", ctrl.GetOrders)
	orders.GET("/:id", ctrl.FindOrder)
	orders.POST("", ctrl.CreateOrder)
	orders.PUT("/:id", ctrl.UpdateOrder)
	orders.POST("/:id/close", ctrl.CloseOrder)
	orders.POST("/:id/cancel", ctrl.CancelOrder)
	orders.POST("/:id/reschedule", ctrl.RescheduleOrder)
	orders.GET("/:id/reschedules", ctrl.GetReschedules)
}
