// Package errors defines the coded error taxonomy used by the mesh generator.
//
// Every stage returns an *Error carrying one of the codes below so the CLI
// can decide whether a run must abort (structural problems, bad input) or a
// problem was already handled locally (degenerate geometry).
//
//	err := errors.New(errors.ErrCodeStructural, "hill %d drains into itself", id)
//	if errors.Is(err, errors.ErrCodeStructural) {
//	    // abort before writing any output
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error category.
type Code string

const (
	// ErrCodeStructural marks a watershed whose hill hierarchy or cell graph is
	// not a tree rooted at the outlet. Fatal for the run.
	ErrCodeStructural Code = "STRUCTURAL"
	// ErrCodeDegenerateGeometry marks a segment whose start and downstream
	// start coincide. The segment is skipped and counted.
	ErrCodeDegenerateGeometry Code = "DEGENERATE_GEOMETRY"
	// ErrCodeInvalidInput marks malformed watershed or raster files.
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	// ErrCodeInvalidConfig marks configuration values that fail validation.
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	// ErrCodeIO marks failures reading inputs or writing outputs.
	ErrCodeIO Code = "IO_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

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

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an Error wrapping cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether any *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the code of the first *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// ExitCode maps an error to a process exit status.
func ExitCode(err error) int {
	switch GetCode(err) {
	case "":
		return 1
	case ErrCodeInvalidConfig, ErrCodeInvalidInput:
		return 2
	case ErrCodeStructural:
		return 3
	default:
		return 1
	}
}
