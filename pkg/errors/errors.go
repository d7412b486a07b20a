// Package errors provides structured error types for buildgen.
//
// Every failure that aborts a generation run carries a machine-readable
// [Code] so that the CLI, the HTTP API, and library callers can react to
// it without parsing messages.
//
// # Error Codes
//
// Codes are grouped by the stage that raises them:
//   - Expression engine: UNKNOWN_PARAMETER, CIRCULAR_REFERENCE,
//     UNSUPPORTED_OPERATION, TYPE_COERCION, DIVISION_BY_ZERO
//   - Section assembly: NO_MATCHING_BLOCK, INVALID_GRID_SETTINGS,
//     UNSUPPORTED_ALGORITHM
//   - Input: INVALID_INPUT, INVALID_CONFIG, INVALID_FORMAT, NOT_FOUND
//   - Infrastructure: NETWORK_ERROR, INTERNAL_ERROR
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownParameter, "parameter %q is not defined", name)
//	if errors.Is(err, errors.ErrCodeUnknownParameter) {
//	    // Handle missing parameter
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidConfig, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Expression engine errors
	ErrCodeUnknownParameter     Code = "UNKNOWN_PARAMETER"
	ErrCodeCircularReference    Code = "CIRCULAR_REFERENCE"
	ErrCodeUnsupportedOperation Code = "UNSUPPORTED_OPERATION"
	ErrCodeTypeCoercion         Code = "TYPE_COERCION"
	ErrCodeDivisionByZero       Code = "DIVISION_BY_ZERO"

	// Section assembly errors
	ErrCodeNoMatchingBlock      Code = "NO_MATCHING_BLOCK"
	ErrCodeInvalidGridSettings  Code = "INVALID_GRID_SETTINGS"
	ErrCodeUnsupportedAlgorithm Code = "UNSUPPORTED_ALGORITHM"

	// Input errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeNotFound      Code = "NOT_FOUND"

	// Infrastructure errors
	ErrCodeNetwork  Code = "NETWORK_ERROR"
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
// It unwraps the error chain looking for the first *Error and compares its code.
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

// HTTPStatus maps an error to the status code the API responds with.
// Configuration and expression failures are the client's fault; anything
// without a code is treated as an internal error.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidInput, ErrCodeInvalidConfig, ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case ErrCodeUnknownParameter, ErrCodeCircularReference, ErrCodeUnsupportedOperation,
		ErrCodeTypeCoercion, ErrCodeDivisionByZero, ErrCodeNoMatchingBlock,
		ErrCodeInvalidGridSettings, ErrCodeUnsupportedAlgorithm:
		return http.StatusUnprocessableEntity
	case ErrCodeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
