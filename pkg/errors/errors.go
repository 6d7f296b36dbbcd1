// Package errors provides structured error types for bpmnlayout.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP service and the library
//   - Machine-readable error codes for programmatic handling
//   - Precise reporting of the diagram element that made a layout fail
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND_*: Resource not found
//   - Layout codes: fatal failures of the auto-layout of one process
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "unknown orientation: %s", name)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Layout failures carry the offending element id
//	var le *errors.LayoutError
//	if stderrors.As(err, &le) {
//	    fmt.Println("malformed element:", le.ElementID)
//	}
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
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidModel  Code = "INVALID_MODEL"
	ErrCodeInvalidID     Code = "INVALID_ID"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Layout errors. All of them abort the layout of the current process.
	ErrCodeUnresolvedAttachment Code = "UNRESOLVED_ATTACHMENT"
	ErrCodeLaneConflict         Code = "LANE_CONFLICT"
	ErrCodeBoundaryIntersection Code = "BOUNDARY_INTERSECTION"
	ErrCodeDanglingFlow         Code = "DANGLING_FLOW"
	ErrCodeDepthExceeded        Code = "DEPTH_EXCEEDED"
	ErrCodeInvalidRanking       Code = "INVALID_RANKING"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// LayoutError is a fatal layout failure tied to one diagram element or
// sequence flow. ProcessID is filled in by the layouter once the failure
// has propagated to the top-level process being laid out.
type LayoutError struct {
	Code      Code
	ElementID string
	ProcessID string
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *LayoutError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.ElementID != "" && e.ProcessID != "":
		msg += fmt.Sprintf(" (element %q, process %q)", e.ElementID, e.ProcessID)
	case e.ElementID != "":
		msg += fmt.Sprintf(" (element %q)", e.ElementID)
	case e.ProcessID != "":
		msg += fmt.Sprintf(" (process %q)", e.ProcessID)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *LayoutError) Unwrap() error {
	return e.Cause
}

// Layout creates a LayoutError for the element with the given id.
func Layout(code Code, elementID, format string, args ...any) *LayoutError {
	return &LayoutError{
		Code:      code,
		ElementID: elementID,
		Message:   fmt.Sprintf(format, args...),
	}
}

// AsLayout returns the first *LayoutError in the chain of err.
func AsLayout(err error) (*LayoutError, bool) {
	var le *LayoutError
	ok := errors.As(err, &le)
	return le, ok
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or *LayoutError with a
// matching code.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the chain holds neither an *Error nor a *LayoutError.
func GetCode(err error) Code {
	var le *LayoutError
	if errors.As(err, &le) {
		return le.Code
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// ElementID returns the id of the element a layout failure refers to,
// or "" when err carries no element.
func ElementID(err error) string {
	var le *LayoutError
	if errors.As(err, &le) {
		return le.ElementID
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error and *LayoutError types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var le *LayoutError
	if errors.As(err, &le) {
		if le.ElementID != "" {
			return fmt.Sprintf("%s (element %q)", le.Message, le.ElementID)
		}
		return le.Message
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
