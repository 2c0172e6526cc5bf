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

type PhoneNumberController struct {
	phoneService   services.PhoneNumberServiceInterface
	sessionService services.SessionServiceInterface
	logger         *zap.Logger
}

func NewPhoneNumberController(
	phoneService services.PhoneNumberServiceInterface,
	sessionService services.SessionServiceInterface,
	logger *zap.Logger,
) *PhoneNumberController {
	return &PhoneNumberController{
		phoneService:   phoneService,
		sessionService: sessionService,
		logger:         logger,
	}
}

func (c *PhoneNumberController) GetPhoneNumbers(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	list, total, err := c.phoneService.GetAll(reqCtx, filter)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessList(ctx, "phone numbers listed", list, total, filter.Page, filter.Limit)
}

func (c *PhoneNumberController) FindPhoneNumber(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	number, err := c.phoneService.Find(ctx.Request().Context(), id)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "phone number found", number)
}

func (c *PhoneNumberController) CreatePhoneNumber(ctx echo.Context) error {
	var payload dto.CreatePhoneNumberDTO
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

	created, err := c.phoneService.Create(ctx.Request().Context(), session, payload)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusCreated, "phone number created", created)
}

func (c *PhoneNumberController) CreatePhoneNumberRange(ctx echo.Context) error {
	var payload dto.CreatePhoneNumberRangeDTO
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

	created, err := c.phoneService.CreateRange(ctx.Request().Context(), session, payload)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusCreated, "phone number range created", created)
}

func (c *PhoneNumberController) BindPhoneNumbers(ctx echo.Context) error {
	var payload dto.BindPhoneNumbersDTO
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

	bound, err := c.phoneService.Bind(ctx.Request().Context(), session, payload)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "phone numbers bound", bound)
}

func (c *PhoneNumberController) UnbindPhoneNumber(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	session, err := actorSession(ctx, c.sessionService)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	number, err := c.phoneService.Unbind(ctx.Request().Context(), session, id)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "phone number unbound", number)
}

func (c *PhoneNumberController) ReservePhoneNumber(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	var payload dto.ReservePhoneNumberDTO
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

	number, err := c.phoneService.Reserve(ctx.Request().Context(), session, id, payload)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "phone number reserved", number)
}

func (c *PhoneNumberController) ReleasePhoneNumber(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	session, err := actorSession(ctx, c.sessionService)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	number, err := c.phoneService.Release(ctx.Request().Context(), session, id)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "phone number released", number)
}

func (c *PhoneNumberController) ReleaseExpiredReservations(ctx echo.Context) error {
	session, err := actorSession(ctx, c.sessionService)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	out, err := c.phoneService.ReleaseExpired(ctx.Request().Context(), session)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "expired reservations released", out)
}
