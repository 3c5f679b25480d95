// Package errors provides structured error types for gauzecut.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the search loop
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes map to the failure classes of the simulation pipeline:
//   - LOAD_ERROR: pattern file missing, unreadable or structurally invalid
//   - GEOMETRY_ERROR: degenerate shape (zero area, duplicate corners)
//   - EMPTY_BOUNDARY: segmentation produced no segments
//   - SIMULATION_DIVERGED: physics produced non-finite particle positions
//
// LOAD_ERROR and GEOMETRY_ERROR are fatal before any simulation starts.
// SIMULATION_DIVERGED is local to the trial that produced it.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeLoad, "pattern %s: corners missing", path)
//	if errors.Is(err, errors.ErrCodeLoad) {
//	    // abort the run
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeLoad, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeLoad         Code = "LOAD_ERROR"
	ErrCodeGeometry     Code = "GEOMETRY_ERROR"

	// Search errors
	ErrCodeEmptyBoundary Code = "EMPTY_BOUNDARY"
	ErrCodeDiverged      Code = "SIMULATION_DIVERGED"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"

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
// It unwraps the error chain looking for an *Error or *GeometryError with a
// matching code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error carries no code.
func GetCode(err error) Code {
	var ge *GeometryError
	if errors.As(err, &ge) {
		return ErrCodeGeometry
	}
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

// GeometryError reports a degenerate target shape together with the corner
// indices that caused it.
type GeometryError struct {
	Reason  string
	Corners []int
}

// Error implements the error interface.
func (e *GeometryError) Error() string {
	if len(e.Corners) > 0 {
		return fmt.Sprintf("%s: %s (corners %v)", ErrCodeGeometry, e.Reason, e.Corners)
	}
	return fmt.Sprintf("%s: %s", ErrCodeGeometry, e.Reason)
}

// Code returns the error code for this error type.
func (e *GeometryError) Code() Code {
	return ErrCodeGeometry
}
