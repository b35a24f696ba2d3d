package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared by every layer of the service.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
)

// AppError is an error that knows how it should be rendered over HTTP.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// AlreadyExists creates a 409 error.
func AlreadyExists(resource, field, value string) *AppError {
	return &AppError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s with %s %q already exists", resource, field, value),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error. The message is shown to the caller, so
// it must not say why authentication failed.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// Internal creates a 500 error. The wrapped cause is logged, never rendered.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Unavailable creates a 503 error.
func Unavailable(message string) *AppError {
	return &AppError{
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     ErrServiceUnavail,
	}
}

// From classifies err. AppErrors anywhere in the chain are returned as is;
// bare sentinels get their default code and a generic message, and anything
// else becomes Internal so the cause is never rendered.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return &AppError{Code: "NOT_FOUND", Message: "resource not found", Status: http.StatusNotFound, Err: err}
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return &AppError{Code: "ALREADY_EXISTS", Message: "resource already exists", Status: http.StatusConflict, Err: err}
	case errors.Is(err, ErrInvalidInput):
		return &AppError{Code: "INVALID_INPUT", Message: err.Error(), Status: http.StatusBadRequest, Err: err}
	case errors.Is(err, ErrUnauthorized):
		return &AppError{Code: "UNAUTHORIZED", Message: "not authenticated", Status: http.StatusUnauthorized, Err: err}
	case errors.Is(err, ErrForbidden):
		return &AppError{Code: "FORBIDDEN", Message: "insufficient permissions", Status: http.StatusForbidden, Err: err}
	case errors.Is(err, ErrServiceUnavail):
		return &AppError{Code: "SERVICE_UNAVAILABLE", Message: "service unavailable", Status: http.StatusServiceUnavailable, Err: err}
	default:
		return Internal(err)
	}
}

// HTTPStatus returns the HTTP status code for err.
func HTTPStatus(err error) int {
	return From(err).Status
}
