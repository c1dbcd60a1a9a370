// Package apperr defines the error taxonomy shared by all domain components.
// Domain code returns these errors up the stack; the HTTP boundary maps each
// kind to a status code and a safe message exactly once.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for boundary mapping and retry decisions.
type Kind string

const (
	// KindValidation marks malformed or missing input fields.
	KindValidation Kind = "validation"
	// KindConflict marks uniqueness violations.
	KindConflict Kind = "conflict"
	// KindNotFound marks an absent referenced entity.
	KindNotFound Kind = "not_found"
	// KindAuth marks bad credentials or expired/stale/malformed tokens.
	KindAuth Kind = "auth"
	// KindForbidden marks an authenticated caller lacking capability or scope.
	KindForbidden Kind = "forbidden"
	// KindState marks an illegal lifecycle transition.
	KindState Kind = "state"
	// KindTransient marks persistence unavailability. The only retryable kind.
	KindTransient Kind = "transient"
)

// Error carries a kind, a caller-safe message and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind with a caller-safe message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with formatting.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a kinded error. The cause is never shown to
// callers; only Message crosses the boundary.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain. Unclassified errors report
// an empty kind and are treated as internal at the boundary.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// SafeMessage returns the message safe to show to the caller. Unclassified
// errors get a generic message so internals never leak.
func SafeMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// HTTPStatus maps an error kind to its HTTP status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindState:
		return http.StatusConflict
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
