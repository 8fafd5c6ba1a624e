// ABOUTME: Error taxonomy for remote operations (transport, service, validation)
// ABOUTME: Adapters wrap failures in *Error so callers can classify with errors.Is

package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport marks network-level failures.
	ErrTransport = errors.New("transport error")

	// ErrService marks requests the service rejected or could not answer.
	ErrService = errors.New("service error")

	// ErrValidation marks input rejected before any network attempt.
	ErrValidation = errors.New("validation error")
)

// Error is a classified failure from a Source operation.
type Error struct {
	Kind error  // ErrTransport or ErrService
	Op   string // "fetch", "send"
	Code int    // service error code, 0 if none
	Err  error
}

// Error implements error.
func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: %v (code %d): %v", e.Op, e.Kind, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// TransportError wraps err as a transport failure of op.
func TransportError(op string, err error) *Error {
	return &Error{Kind: ErrTransport, Op: op, Err: err}
}

// ServiceError wraps err as a service failure of op with the service's code.
func ServiceError(op string, code int, err error) *Error {
	return &Error{Kind: ErrService, Op: op, Code: code, Err: err}
}

// KindOf returns a short label for logging: "transport", "service",
// "validation" or "unknown".
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrService):
		return "service"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "unknown"
	}
}
