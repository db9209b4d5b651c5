package protocol

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a protocol error
type ErrorType int

const (
	// ErrTypeField indicates a field access past the end of a buffer or of the wrong type
	ErrTypeField ErrorType = iota
	// ErrTypeUnknownMessage indicates no definition matches a name or command
	ErrTypeUnknownMessage
	// ErrTypeFraming indicates the byte stream did not start with a usable message
	ErrTypeFraming
	// ErrTypeDefinition indicates a malformed message definition record
	ErrTypeDefinition
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeField:
		return "Field Error"
	case ErrTypeUnknownMessage:
		return "Unknown Message Type"
	case ErrTypeFraming:
		return "Framing Error"
	case ErrTypeDefinition:
		return "Definition Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is returned by every fallible operation in this package.
// All of them are recoverable: the worst outcome is a dropped message.
type Error struct {
	Type    ErrorType // Category of error
	Message string    // Human-readable error message
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(t ErrorType, format string, args ...any) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

func fieldError(format string, args ...any) *Error {
	return newError(ErrTypeField, format, args...)
}

func unknownMessageError(format string, args ...any) *Error {
	return newError(ErrTypeUnknownMessage, format, args...)
}

func framingError(format string, args ...any) *Error {
	return newError(ErrTypeFraming, format, args...)
}

func definitionError(name string, format string, args ...any) *Error {
	return &Error{
		Type:    ErrTypeDefinition,
		Message: fmt.Sprintf("message %q: %s", name, fmt.Sprintf(format, args...)),
	}
}

// errorType reports the type of err if it is (or wraps) an *Error
func errorType(err error) (ErrorType, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Type, true
	}
	return 0, false
}

// IsFieldError reports whether err is a field bounds or type error
func IsFieldError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeField
}

// IsUnknownMessageError reports whether err means no definition matched
func IsUnknownMessageError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeUnknownMessage
}

// IsFramingError reports whether err is a recoverable stream framing error
func IsFramingError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeFraming
}

// IsDefinitionError reports whether err came from a malformed definition record
func IsDefinitionError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeDefinition
}
