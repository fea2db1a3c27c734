// Package gameerr provides the coded error taxonomy used by game operations.
// Every code belongs to one Kind; the dispatcher turns codes into result codes.
package gameerr

import (
	"errors"
	"fmt"
)

// Error is a domain error with a machine-readable code.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable description
	Cause   error  // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf extracts the code from err. Non-domain errors are CodeInternal; nil is "".
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// KindOf classifies err.
func KindOf(err error) Kind {
	return CodeOf(err).Kind()
}

// NotFound is shorthand for the lookup-failure codes.
func NotFound(code Code, id any) *Error {
	return New(code, "%v not found", id)
}

// Unauthorized builds a permission failure naming the predicate that denied it.
func Unauthorized(predicate string) *Error {
	return &Error{Code: CodeUnauthorized, Message: "not permitted (" + predicate + ")"}
}

// Invalid builds an input validation failure.
func Invalid(format string, args ...any) *Error {
	return New(CodeInvalidInput, format, args...)
}

// Unimplemented marks an action that is deliberately not available.
func Unimplemented(what string) *Error {
	return New(CodeUnimplemented, "%s is not available", what)
}
