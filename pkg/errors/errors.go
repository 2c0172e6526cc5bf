package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// JWT and tokens
	ErrInvalidSigningMethod = errors.New("invalid token signing method")
	ErrInvalidToken         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token has expired")
	ErrTokenIsNotAccess     = errors.New("token is not an access token")
	ErrTokenIsNotRefresh    = errors.New("token is not a refresh token")

	// Authorization
	ErrEmptyAuthHeader    = errors.New("authorization header is missing")
	ErrInvalidAuthHeader  = errors.New("authorization header has invalid format")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("access denied")

	// Context
	ErrUserIDNotFoundInContext = errors.New("UserID not found in request context")
	ErrInvalidUserID           = errors.New("invalid UserID")

	// Common
	ErrNotFound   = errors.New("record not found")
	ErrBadRequest = errors.New("invalid request")
)

// HttpError carries the HTTP status alongside the user-facing message.
// The wrapped cause stays out of the response body.
type HttpError struct {
	Code    int
	Message string
	Err     error
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err}
}

// NewGuardRefusal marks a precondition that failed locally, before any
// store call. Always recoverable by the user.
func NewGuardRefusal(format string, args ...interface{}) *HttpError {
	return &HttpError{Code: http.StatusUnprocessableEntity, Message: fmt.Sprintf(format, args...)}
}

// NewPermissionRefusal marks a missing capability.
func NewPermissionRefusal(format string, args ...interface{}) *HttpError {
	return &HttpError{Code: http.StatusForbidden, Message: fmt.Sprintf(format, args...)}
}

// NewConflict marks a constraint the store enforced on its own
// (duplicate number, order already closed by another actor).
func NewConflict(format string, args ...interface{}) *HttpError {
	return &HttpError{Code: http.StatusConflict, Message: fmt.Sprintf(format, args...)}
}

func IsGuardRefusal(err error) bool {
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr.Code == http.StatusUnprocessableEntity || httpErr.Code == http.StatusForbidden
	}
	return false
}

func IsConflict(err error) bool {
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr.Code == http.StatusConflict
	}
	return false
}
