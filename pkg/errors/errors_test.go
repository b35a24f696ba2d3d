package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorString(t *testing.T) {
	withCause := &AppError{Code: "INTERNAL_ERROR", Message: "boom", Err: fmt.Errorf("db down")}
	assert.Equal(t, "INTERNAL_ERROR: boom: db down", withCause.Error())

	bare := &AppError{Code: "NOT_FOUND", Message: "skill not found"}
	assert.Equal(t, "NOT_FOUND: skill not found", bare.Error())
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		status   int
		code     string
		sentinel error
	}{
		{"not found", NotFound("skill", "7"), http.StatusNotFound, "NOT_FOUND", ErrNotFound},
		{"already exists", AlreadyExists("user", "email", "a@x.com"), http.StatusConflict, "ALREADY_EXISTS", ErrAlreadyExists},
		{"invalid input", InvalidInput("bad"), http.StatusBadRequest, "INVALID_INPUT", ErrInvalidInput},
		{"unauthorized", Unauthorized("not authenticated"), http.StatusUnauthorized, "UNAUTHORIZED", ErrUnauthorized},
		{"forbidden", Forbidden("admin only"), http.StatusForbidden, "FORBIDDEN", ErrForbidden},
		{"unavailable", Unavailable("later"), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", ErrServiceUnavail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.True(t, errors.Is(tt.err, tt.sentinel))
		})
	}
}

func TestAlreadyExists_MessageQuotesValue(t *testing.T) {
	err := AlreadyExists("user", "email", "a@x.com")
	assert.Equal(t, `user with email "a@x.com" already exists`, err.Message)
}

func TestInternal_HidesCause(t *testing.T) {
	cause := fmt.Errorf("password for db is hunter2")
	err := Internal(cause)
	assert.Equal(t, "an internal error occurred", err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", Forbidden("x"), http.StatusForbidden},
		{"wrapped app error", fmt.Errorf("guard: %w", Unauthorized("x")), http.StatusUnauthorized},
		{"not found sentinel", fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound},
		{"conflict sentinel", ErrConflict, http.StatusConflict},
		{"invalid input sentinel", ErrInvalidInput, http.StatusBadRequest},
		{"unavailable sentinel", ErrServiceUnavail, http.StatusServiceUnavailable},
		{"unknown", errors.New("mystery"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestFrom(t *testing.T) {
	t.Run("app error kept", func(t *testing.T) {
		orig := Forbidden("admins only")
		assert.Same(t, orig, From(fmt.Errorf("guard: %w", orig)))
	})

	t.Run("sentinel gets generic message", func(t *testing.T) {
		got := From(fmt.Errorf("get skill 7: %w", ErrNotFound))
		assert.Equal(t, "NOT_FOUND", got.Code)
		assert.Equal(t, "resource not found", got.Message)
		assert.ErrorIs(t, got, ErrNotFound)
	})

	t.Run("unknown error hidden", func(t *testing.T) {
		got := From(errors.New("dial tcp 10.0.0.3:5432: refused"))
		assert.Equal(t, http.StatusInternalServerError, got.Status)
		assert.Equal(t, "an internal error occurred", got.Message)
	})
}
