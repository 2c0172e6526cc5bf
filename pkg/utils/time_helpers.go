package utils

import (
	"time"

	apperrors "fieldops/pkg/errors"
	"fieldops/pkg/types"
)

// ParseDate parses a yyyy-MM-dd wire date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(types.DateFormat, value)
	if err != nil {
		return time.Time{}, apperrors.NewGuardRefusal("invalid date %q, expected yyyy-MM-dd", value)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(types.DateFormat)
}

// Today truncates now to the calendar date.
func Today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDate compares calendar dates ignoring the time component.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
