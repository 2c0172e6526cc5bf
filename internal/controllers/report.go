package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fieldops/internal/services"
	"fieldops/pkg/api"
)

type ReportController struct {
	reportService  services.ReportServiceInterface
	sessionService services.SessionServiceInterface
	logger         *zap.Logger
}

func NewReportController(
	reportService services.ReportServiceInterface,
	sessionService services.SessionServiceInterface,
	logger *zap.Logger,
) *ReportController {
	return &ReportController{
		reportService:  reportService,
		sessionService: sessionService,
		logger:         logger,
	}
}

// ScheduleReport streams the day's schedule as an XLSX attachment.
func (c *ReportController) ScheduleReport(ctx echo.Context) error {
	date, err := dateQuery(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	session, err := actorSession(ctx, c.sessionService)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	workbook, filename, err := c.reportService.ScheduleForDate(ctx.Request().Context(), session, date)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	ctx.Response().Header().Set(echo.HeaderContentType,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().WriteHeader(http.StatusOK)

	if err := workbook.Write(ctx.Response().Writer); err != nil {
		c.logger.Error("failed to stream schedule report", zap.Error(err))
		return err
	}
	return nil
}
