// Package apperr defines the error kinds surfaced by the booking engine and the HTTP layer.
package apperr

import "errors"

// Error kinds. Match with errors.Is; an *Error unwraps to its Kind.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrProvisioning = errors.New("provisioning failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
)

// Error carries a kind, a localized message safe to show to users, and an optional cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// InvalidInput returns a user-correctable error.
func InvalidInput(msg string) *Error { return newError(ErrInvalidInput, msg, nil) }

// NotFound returns an error for a missing or foreign resource.
func NotFound(msg string) *Error { return newError(ErrNotFound, msg, nil) }

// Conflict returns an error for a violated exclusivity rule.
func Conflict(msg string) *Error { return newError(ErrConflict, msg, nil) }

// Unauthorized returns an authentication failure.
func Unauthorized(msg string) *Error { return newError(ErrUnauthorized, msg, nil) }

// Provisioning wraps a meeting-provider failure.
func Provisioning(msg string, cause error) *Error { return newError(ErrProvisioning, msg, cause) }

// Internal wraps an unexpected failure.
func Internal(msg string, cause error) *Error { return newError(ErrInternal, msg, cause) }

// Message returns the user-visible message of err, or fallback when err carries none.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}

// KindOf returns the kind of err, ErrInternal when it has none.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) && e.Kind != nil {
		return e.Kind
	}
	for _, k := range []error{ErrInvalidInput, ErrNotFound, ErrConflict, ErrProvisioning, ErrUnauthorized} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}
