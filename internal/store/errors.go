package store

import (
	"fmt"
	"net/http"
)

// Error is a store-level failure that already knows how it should be
// reported over HTTP. Handlers map it straight to a status code.
type Error struct {
	Code    int    // HTTP status code
	Message string // user-facing message
	Err     error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPCode returns the status code this error maps to.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a copy of the error with a different user-facing
// message. The original sentinel is left untouched so errors.Is keeps
// working against it.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{
		Code:    e.Code,
		Message: msg,
		Err:     e.Err,
	}
}

// WithCause returns a copy of the error wrapping err as its cause.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Sentinel errors the stores return. Callers compare with errors.Is and
// attach detail via WithMessage or WithCause.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "resource not found",
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "resource already exists",
	}

	ErrInvalidInput = &Error{
		Code:    http.StatusBadRequest,
		Message: "invalid input",
	}

	ErrUnauthorized = &Error{
		Code:    http.StatusUnauthorized,
		Message: "unauthorized",
	}

	ErrForbidden = &Error{
		Code:    http.StatusForbidden,
		Message: "forbidden",
	}
)
