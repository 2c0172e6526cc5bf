package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fieldops/internal/dto"
	"fieldops/internal/services"
	"fieldops/pkg/api"
	"fieldops/pkg/utils"
)

type OrderController struct {
	orderService   services.OrderServiceInterface
	sessionService services.SessionServiceInterface
	logger         *zap.Logger
}

func NewOrderController(
	orderService services.OrderServiceInterface,
	sessionService services.SessionServiceInterface,
	logger *zap.Logger,
) *OrderController {
	return &OrderController{
		orderService:   orderService,
		sessionService: sessionService,
		logger:         logger,
	}
}

func (c *OrderController) GetOrders(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	list, total, err := c.orderService.GetAll(reqCtx, filter)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessList(ctx, "orders listed", list, total, filter.Page, filter.Limit)
}

func (c *OrderController) FindOrder(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	order, err := c.orderService.Find(ctx.Request().Context(), id)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "order found", order)
}

func (c *OrderController) CreateOrder(ctx echo.Context) error {
	var payload dto.CreateOrderDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	session, err := actorSession(ctx, c.sessionService)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	created, err := c.orderService.Create(ctx.Request().Context(), session, payload)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusCreated, "order scheduled", created)
}

func (c *OrderController) UpdateOrder(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	var payload dto.UpdateOrderDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	session, err := actorSession(ctx, c.sessionService)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	updated, err := c.orderService.Update(ctx.Request().Context(), session, id, payload)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "order updated", updated)
}

func (c *OrderController) CloseOrder(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	var payload dto.CloseOrderDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	session, err := actorSession(ctx, c.sessionService)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	if err := c.orderService.Close(ctx.Request().Context(), session, id, payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne[any](ctx, http.StatusOK, "order closed", nil)
}

func (c *OrderController) CancelOrder(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	var payload dto.CancelOrderDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	session, err := actorSession(ctx, c.sessionService)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	if err := c.orderService.Cancel(ctx.Request().Context(), session, id, payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne[any](ctx, http.StatusOK, "order canceled", nil)
}

func (c *OrderController) RescheduleOrder(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	var payload dto.RescheduleOrderDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	session, err := actorSession(ctx, c.sessionService)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	moved, err := c.orderService.Reschedule(ctx.Request().Context(), session, id, payload)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "order rescheduled", moved)
}

func (c *OrderController) GetReschedules(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	records, err := c.orderService.ListReschedules(ctx.Request().Context(), id)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "reschedule history listed", records)
}
