package utils

import (
	"context"

	"fieldops/pkg/contextkeys"
	apperrors "fieldops/pkg/errors"
)

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok || userID == 0 {
		return 0, apperrors.ErrUserIDNotFoundInContext
	}
	return userID, nil
}

func GetRoleIDFromCtx(ctx context.Context) (uint64, error) {
	roleID, ok := ctx.Value(contextkeys.RoleIDKey).(uint64)
	if !ok || roleID == 0 {
		return 0, apperrors.ErrUserIDNotFoundInContext
	}
	return roleID, nil
}
