package staffclient

import (
	"errors"
	"fmt"
)

// TransportError means no response reached the client: dial, DNS, timeout
// or cancellation.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("staffclient: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response that is neither a 404 nor a rejected payload.
type ServerError struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("staffclient: %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("staffclient: %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// NotFoundError is returned for 404 responses.
type NotFoundError struct {
	Op      string
	ID      int64
	Message string
}

func (e *NotFoundError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("staffclient: %s: staff %d not found", e.Op, e.ID)
	}
	return fmt.Sprintf("staffclient: %s: not found", e.Op)
}

// ValidationError means the store rejected the payload (400, 409 or 422).
// Fields holds per-field messages when the service reports them.
type ValidationError struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
	Fields     map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("staffclient: %s: rejected (%d): %s", e.Op, e.StatusCode, e.Message)
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
