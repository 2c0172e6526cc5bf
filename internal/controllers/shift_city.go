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

type ShiftCityController struct {
	shiftCityService services.ShiftCityServiceInterface
	sessionService   services.SessionServiceInterface
	logger           *zap.Logger
}

func NewShiftCityController(
	shiftCityService services.ShiftCityServiceInterface,
	sessionService services.SessionServiceInterface,
	logger *zap.Logger,
) *ShiftCityController {
	return &ShiftCityController{
		shiftCityService: shiftCityService,
		sessionService:   sessionService,
		logger:           logger,
	}
}

func (c *ShiftCityController) GetPools(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	list, total, err := c.shiftCityService.GetAll(reqCtx, filter)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessList(ctx, "shift city pools listed", list, total, filter.Page, filter.Limit)
}

// GetByCity lists the city's pools with remaining capacity on the date
// in the ?date= query, defaulting to today.
func (c *ShiftCityController) GetByCity(ctx echo.Context) error {
	cityID, err := parseIDParam(ctx, "cityId")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	date, err := dateQuery(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	pools, err := c.shiftCityService.GetByCityOnDate(ctx.Request().Context(), cityID, date)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "shift pools for city listed", pools)
}

func (c *ShiftCityController) UpdateCities(ctx echo.Context) error {
	shiftID, err := parseIDParam(ctx, "shiftId")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	var payload dto.UpdateCitiesDTO
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

	if err := c.shiftCityService.UpdateCities(ctx.Request().Context(), session, shiftID, payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne[any](ctx, http.StatusOK, "shift capacity updated", nil)
}

func (c *ShiftCityController) AdjustVacancies(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	var payload dto.AdjustVacanciesDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	session, err := actorSession(ctx, c.sessionService)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	pool, err := c.shiftCityService.AdjustVacancies(ctx.Request().Context(), session, id, payload)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "vacancies adjusted", pool)
}

func (c *ShiftCityController) GetVacancies(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	date, err := dateQuery(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	out, err := c.shiftCityService.GetVacancies(ctx.Request().Context(), id, date)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "vacancies computed", out)
}

func (c *ShiftCityController) GetFreeVacancies(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	date, err := dateQuery(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	out, err := c.shiftCityService.GetFreeVacancies(ctx.Request().Context(), id, date)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "free dates listed", out)
}

// CheckEligibility is a read-only preflight of the schedule gate.
func (c *ShiftCityController) CheckEligibility(ctx echo.Context) error {
	shiftID, err := parseIDParam(ctx, "shiftId")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	cityID, err := parseIDParam(ctx, "cityId")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	date, err := dateQuery(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	rural := ctx.QueryParam("rural") == "true"

	session, err := actorSession(ctx, c.sessionService)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	out, err := c.shiftCityService.CheckEligibility(ctx.Request().Context(), session, shiftID, cityID, date, rural)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "eligibility computed", out)
}
