// Package errors provides structured error types for the designer application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation and constraint failures
//   - *_VIOLATION: Geometric constraint rejections (recoverable by clamping)
//   - NOT_FOUND_*: Resource not found
//   - INTERNAL_*: Unexpected internal errors
//
// # Rejections vs. Failures
//
// Geometric and hierarchy violations (INVALID_HIERARCHY, BOUNDARY_VIOLATION,
// SIBLING_COLLISION) are expected outcomes of user actions: the engine
// recovers by clamping or returning the snapshot unchanged, and the error
// carries enough detail for the caller to render feedback. NODE_NOT_FOUND is
// different: a mutation referencing an unknown id indicates a state-sync bug
// in the caller, so it is surfaced as a hard failure rather than absorbed.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidHierarchy, "reparent %s under %s would create a cycle", child, parent)
//	if errors.Is(err, errors.ErrCodeInvalidHierarchy) {
//	    // Handle rejection
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "decode diagram %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Hierarchy and geometry rejections
	ErrCodeInvalidHierarchy Code = "INVALID_HIERARCHY"
	ErrCodeBoundary         Code = "BOUNDARY_VIOLATION"
	ErrCodeCollision        Code = "SIBLING_COLLISION"
	ErrCodeInvalidSelection Code = "INVALID_SELECTION"
	ErrCodeInvalidGeometry  Code = "INVALID_GEOMETRY"

	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidAlgorithm Code = "INVALID_ALGORITHM"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidSettings  Code = "INVALID_SETTINGS"

	// Resource not found errors
	ErrCodeNodeNotFound    Code = "NODE_NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

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

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
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

// IsRejection reports whether err is a recoverable engine rejection, as
// opposed to a contract violation or internal failure. Callers use this to
// decide between rendering feedback and failing loudly.
func IsRejection(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidHierarchy, ErrCodeBoundary, ErrCodeCollision, ErrCodeInvalidSelection:
		return true
	}
	return false
}
