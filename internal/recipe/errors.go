package recipe

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a resolution failure.
type ErrorCode string

const (
	// ErrCodeConfiguration indicates the resolver is missing required configuration (the API key).
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"
	// ErrCodeValidation indicates malformed request input.
	ErrCodeValidation ErrorCode = "VALIDATION"
	// ErrCodeNetwork indicates a transport, HTTP or decoding failure talking to the recipe API.
	ErrCodeNetwork ErrorCode = "NETWORK"
	// ErrCodeNotFound indicates the search returned nothing usable.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInternal indicates an unexpected failure inside the resolver.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

var (
	// ErrInvalidLaziness is the cause of a laziness value that cannot be read as an integer.
	ErrInvalidLaziness = errors.New("laziness must be an integer")
	// ErrNoIngredients is the cause of a request without any ingredient.
	ErrNoIngredients = errors.New("at least one ingredient is required")
)

// Error is a classified resolution failure.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func wrapError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// InvalidLazinessError reports a laziness value that could not be coerced to an integer.
func InvalidLazinessError(value any) *Error {
	return wrapError(ErrCodeValidation, fmt.Sprintf("invalid laziness %v", value), ErrInvalidLaziness)
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// asError converts any error into an *Error, classifying unknown ones as internal.
func asError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return wrapError(ErrCodeInternal, "unexpected error", err)
}
