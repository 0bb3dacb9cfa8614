// Package errors provides error handling utilities.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeUnknownFeature indicates a feature selector without a fee entry.
	// This is a catalog configuration defect, never defaulted to zero.
	TypeUnknownFeature Type = "UNKNOWN_FEATURE"

	// TypeInvalidScenario indicates a malformed scenario definition
	TypeInvalidScenario Type = "INVALID_SCENARIO"

	// TypeTemplateShape indicates the baseline template is missing an expected step
	TypeTemplateShape Type = "TEMPLATE_SHAPE"

	// TypeInput indicates an input validation error
	TypeInput Type = "INPUT_ERROR"

	// TypeParsing indicates a parsing error
	TypeParsing Type = "PARSING_ERROR"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeInvariant indicates a synthesized invariant did not hold
	TypeInvariant Type = "INVARIANT_VIOLATION"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"

	// TypeNotFound indicates a resource not found error
	TypeNotFound Type = "NOT_FOUND"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same type, so that
// errors.Is(err, errors.New(TypeTemplateShape, "")) matches any template error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// IsType checks if an error, or any error it wraps, is of a specific type.
// Joined errors match when any of their members matches.
func IsType(err error, t Type) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok && e.Type == t {
		return true
	}
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			if IsType(inner, t) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return IsType(x.Unwrap(), t)
	}
	return false
}

// TypeOf returns the type of the outermost *Error in the chain, or TypeInternal.
func TypeOf(err error) Type {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return TypeInternal
}

// UnknownFeature creates an unknown feature error for a selector
func UnknownFeature(selector string) *Error {
	return Newf(TypeUnknownFeature, "no fee entry for feature %q", selector).
		WithContext("selector", selector)
}

// InvalidScenario creates an invalid scenario error
func InvalidScenario(message string) *Error {
	return New(TypeInvalidScenario, message)
}

// TemplateShape creates a template shape error naming the missing step
func TemplateShape(step string) *Error {
	return Newf(TypeTemplateShape, "baseline template has no step named %q", step).
		WithContext("step", step)
}

// Parsing creates a parsing error
func Parsing(message string, cause error) *Error {
	return Wrap(TypeParsing, message, cause)
}

// Config creates a configuration error
func Config(message string, cause error) *Error {
	return Wrap(TypeConfig, message, cause)
}

// NotFound creates a not found error
func NotFound(resourceType, identifier string) *Error {
	return Newf(TypeNotFound, "%s not found: %s", resourceType, identifier)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
