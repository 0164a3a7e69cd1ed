package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"domain", NewConflict("email already in use", nil), CodeConflict, http.StatusConflict},
		{"wrapped domain", fmt.Errorf("create: %w", NewNotFound("staff", nil)), CodeNotFound, http.StatusNotFound},
		{"fiber", fiber.NewError(http.StatusMethodNotAllowed, "nope"), "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed},
		{"fiber unknown", fiber.NewError(http.StatusTeapot, "tea"), CodeInternal, http.StatusTeapot},
		{"no rows", fmt.Errorf("get: %w", pgx.ErrNoRows), CodeNotFound, http.StatusNotFound},
		{"deadline", context.DeadlineExceeded, CodeTimeout, http.StatusGatewayTimeout},
		{"other", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToDomainError(tc.err)
			assert.Equal(t, tc.code, got.Code)
			assert.Equal(t, tc.status, got.HTTPStatus)
		})
	}
	assert.Nil(t, ToDomainError(nil))
	assert.NoError(t, MapError(nil))
}

func TestBodyHidesCause(t *testing.T) {
	err := NewInternalError(errors.New("dial tcp: refused")).(*DomainError)
	assert.Equal(t, Body{Error: BodyError{Code: CodeInternal, Message: "internal server error"}}, err.Body())
	assert.Contains(t, err.Error(), "dial tcp")
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFound("staff", nil)))
	assert.True(t, IsNotFound(pgx.ErrNoRows))
	assert.False(t, IsNotFound(NewConflict("dup", nil)))
	assert.False(t, IsNotFound(errors.New("x")))
}
