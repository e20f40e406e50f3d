package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryDefinition  Category = "definition"
	CategoryStructural  Category = "structural"
	CategoryInvariant   Category = "invariant"
	CategoryHost        Category = "host"
	CategoryPersistence Category = "persistence"
	CategoryConfig      Category = "config"
)

// Error is a coded error with a category and an optional wrapped cause.
type Error struct {
	// Code is a unique error identifier (e.g., "E101").
	Code string

	// Category is the error type (definition, structural, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is the instance-specific explanation.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Code == "" {
		return false
	}
	return t.Code == e.Code
}

// WithDetail adds an instance-specific explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// WithDetailf is WithDetail with formatting.
func (e *Error) WithDetailf(format string, args ...any) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
	}
}

// Newf creates a new Error with a formatted message (no code).
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an Error with the given code.
// Errors that already are *Error are returned unchanged.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if stderrors.As(err, &ce) {
		return ce
	}
	return New(code).Wrap(err)
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) string {
	var ce *Error
	if stderrors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
