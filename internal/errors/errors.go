// Package errors provides standardized domain errors with codes for the EchoMap API.
//
// Usage:
//
//	// In services - return typed errors
//	if req.TrackID == "" {
//	    return errors.MissingField("trackId")
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrInvalidCoordinates) {
//	    response.BadRequest(w, "lat/lng required", logger)
//	    return
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code. Codes are the wire-level
// error identifiers returned in {"error": "<code>"} bodies.
type Code string

// Error codes used throughout the application.
const (
	CodeMissingField        Code = "missing_field"
	CodeInvalidCoordinates  Code = "invalid_coordinates"
	CodeValidation          Code = "validation"
	CodeNotFound            Code = "not_found"
	CodeUnauthorized        Code = "unauthorized"
	CodeQueryFailed         Code = "query_failed"
	CodeStorage             Code = "storage_error"
	CodeUpstreamUnavailable Code = "upstream_unavailable"
	CodeInternal            Code = "server_error"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeMissingField, CodeInvalidCoordinates, CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional underlying cause.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrMissingField        = &Error{Code: CodeMissingField, Message: "required field missing"}
	ErrInvalidCoordinates  = &Error{Code: CodeInvalidCoordinates, Message: "lat/lng required"}
	ErrValidation          = &Error{Code: CodeValidation, Message: "validation error"}
	ErrNotFound            = &Error{Code: CodeNotFound, Message: "not found"}
	ErrUnauthorized        = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrQueryFailed         = &Error{Code: CodeQueryFailed, Message: "query failed"}
	ErrStorage             = &Error{Code: CodeStorage, Message: "storage error"}
	ErrUpstreamUnavailable = &Error{Code: CodeUpstreamUnavailable, Message: "upstream unavailable"}
	ErrInternal            = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// MissingField creates an error for a required write field that is absent.
func MissingField(field string) *Error {
	return &Error{Code: CodeMissingField, Message: fmt.Sprintf("%s is required", field)}
}

// InvalidCoordinates creates an invalid coordinates error.
func InvalidCoordinates(msg string) *Error {
	return &Error{Code: CodeInvalidCoordinates, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// QueryFailed wraps a storage engine failure during an aggregation query.
func QueryFailed(err error) *Error {
	return &Error{Code: CodeQueryFailed, Message: "query failed", cause: err}
}

// Storage wraps a storage engine failure during a write.
func Storage(err error) *Error {
	return &Error{Code: CodeStorage, Message: "storage error", cause: err}
}

// Upstream wraps a failure from an external provider (catalog, weather, LLM).
func Upstream(provider string, err error) *Error {
	return &Error{
		Code:    CodeUpstreamUnavailable,
		Message: fmt.Sprintf("%s unavailable", provider),
		cause:   err,
	}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}
