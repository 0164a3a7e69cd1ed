// Package errorutil carries the error type every layer of the staff service
// returns, and its JSON rendering.
package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// Error codes shared with clients of the HTTP API.
const (
	CodeValidation  = "VALIDATION_FAILED"
	CodeBadRequest  = "BAD_REQUEST"
	CodeNotFound    = "NOT_FOUND"
	CodeConflict    = "CONFLICT"
	CodeUnauth      = "UNAUTHORIZED"
	CodeForbidden   = "FORBIDDEN"
	CodeTimeout     = "TIMEOUT"
	CodeUnavailable = "DEPENDENCY_UNAVAILABLE"
	CodeInternal    = "INTERNAL_ERROR"
)

// DomainError is an error with an API code and an HTTP status attached.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

// Body is the rendered form: {"error":{"code","message","details"}}.
type Body struct {
	Error BodyError `json:"error"`
}

type BodyError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Body renders e for the wire. Wrapped causes are never exposed.
func (e *DomainError) Body() Body {
	return Body{Error: BodyError{Code: e.Code, Message: e.Message, Details: e.Details}}
}

func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	return NewDomainError(CodeNotFound, resource+" not found", http.StatusNotFound, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauth, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewUnavailable reports a dependency (database, cache, identity provider) that could not be reached.
func NewUnavailable(dependency string, err error) error {
	e := NewDomainError(CodeUnavailable, dependency+" unavailable", http.StatusServiceUnavailable, nil)
	e.Err = err
	return e
}

func NewInternalError(err error) error {
	e := NewDomainError(CodeInternal, "internal server error", http.StatusInternalServerError, nil)
	e.Err = err
	return e
}

// IsNotFound reports whether err is a NOT_FOUND error or a missing row.
func IsNotFound(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == CodeNotFound
	}
	return errors.Is(err, pgx.ErrNoRows)
}

// ToDomainError classifies err. Unknown errors become INTERNAL_ERROR.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fromStatus(fiberErr.Code, fiberErr.Message)
	case errors.Is(err, pgx.ErrNoRows):
		return NewNotFound("resource", nil).(*DomainError)
	case errors.Is(err, context.DeadlineExceeded):
		e := NewDomainError(CodeTimeout, "request timed out", http.StatusGatewayTimeout, nil)
		e.Err = err
		return e
	}
	return NewInternalError(err).(*DomainError)
}

// MapError is ToDomainError for callers that return a plain error.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

var statusCodes = map[int]string{
	http.StatusBadRequest:         CodeBadRequest,
	http.StatusUnauthorized:       CodeUnauth,
	http.StatusForbidden:          CodeForbidden,
	http.StatusNotFound:           CodeNotFound,
	http.StatusMethodNotAllowed:   "METHOD_NOT_ALLOWED",
	http.StatusConflict:           CodeConflict,
	http.StatusRequestTimeout:     CodeTimeout,
	http.StatusServiceUnavailable: CodeUnavailable,
}

func fromStatus(status int, message string) *DomainError {
	code, ok := statusCodes[status]
	if !ok {
		code = CodeInternal
	}
	return NewDomainError(code, message, status, nil)
}
