package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"fieldops/internal/authz"
	"fieldops/internal/services"
	apperrors "fieldops/pkg/errors"
	"fieldops/pkg/utils"
)

// actorSession resolves the authenticated actor's capability set from
// the identity the auth middleware stashed in the request context.
func actorSession(c echo.Context, sessions services.SessionServiceInterface) (authz.Session, error) {
	reqCtx := c.Request().Context()

	userID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return authz.Session{}, err
	}
	roleID, err := utils.GetRoleIDFromCtx(reqCtx)
	if err != nil {
		return authz.Session{}, err
	}
	return sessions.BuildSession(reqCtx, userID, roleID)
}

func parseIDParam(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewHttpError(http.StatusBadRequest, "invalid id", err)
	}
	return id, nil
}

// dateQuery reads the ?date= query parameter, defaulting to today.
func dateQuery(c echo.Context) (time.Time, error) {
	raw := c.QueryParam("date")
	if raw == "" {
		return utils.Today(), nil
	}
	return utils.ParseDate(raw)
}
