// Package errors provides structured error types for stackplan.
//
// Construction failures are always fatal and surface immediately, so every
// error that crosses a package boundary carries a machine-readable [Code]:
//   - INVALID_*: configuration or input validation failures
//   - MISSING_FIELD / UNKNOWN_CONNECTOR: malformed circuit data
//   - INSUFFICIENT_BLOCKS / OUTLINE_OVERFLOW: construction cannot be satisfied
//   - NOT_FOUND / FILE_NOT_FOUND: missing resources
//   - INTERNAL_ERROR: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownConnector, "net %d references %q", i, name)
//	if errors.Is(err, errors.ErrCodeUnknownConnector) {
//	    // Handle bad netlist
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFileNotFound, origErr, "open %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidName   Code = "INVALID_NAME"

	// Circuit data errors
	ErrCodeMissingField     Code = "MISSING_FIELD"
	ErrCodeUnknownConnector Code = "UNKNOWN_CONNECTOR"
	ErrCodeDuplicateName    Code = "DUPLICATE_NAME"

	// Construction errors
	ErrCodeInsufficientBlocks Code = "INSUFFICIENT_BLOCKS"
	ErrCodeOutlineOverflow    Code = "OUTLINE_OVERFLOW"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code;
// the outermost *Error wins.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps an error code onto an HTTP status for API responses.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidConfig, ErrCodeInvalidName,
		ErrCodeMissingField, ErrCodeUnknownConnector, ErrCodeDuplicateName,
		ErrCodeInsufficientBlocks, ErrCodeOutlineOverflow:
		return 400
	case ErrCodeNotFound, ErrCodeFileNotFound:
		return 404
	default:
		return 500
	}
}
