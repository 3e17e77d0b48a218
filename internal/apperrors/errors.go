// Package apperrors defines the structured errors exchanged between the
// workflow services. Every cross-service error carries a machine-readable
// code and a human message; HTTP status codes exist only at the outermost
// transport boundary.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes used across the workflow services.
const (
	CodeValidation   = "validation_error"
	CodeNotFound     = "not_found"
	CodeOutOfOrder   = "out_of_order_decision"
	CodeDownstream   = "downstream_error"
	CodeInternal     = "internal_error"
)

// Error is a structured service error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// New creates an error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// InvalidInput reports a validation failure on a named field.
func InvalidInput(field, message string) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf("%s: %s", field, message)}
}

// NotFound reports a missing resource.
func NotFound(resource, id string) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", resource, id)}
}

// OutOfOrder reports a decision that violates approval sequencing.
func OutOfOrder(message string) *Error {
	return &Error{Code: CodeOutOfOrder, Message: message}
}

// Downstream reports a failed cross-service call.
func Downstream(err error, message string) *Error {
	return &Error{Code: CodeDownstream, Message: message, cause: err}
}

// From extracts a structured error from err, or wraps it as internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{Code: CodeInternal, Message: err.Error(), cause: err}
}

// Code returns the structured code of err, or internal_error.
func Code(err error) string {
	return From(err).Code
}

// HTTPStatus maps an error code to a transport-level status code.
// The mapping is deliberately confined to the HTTP boundary.
func HTTPStatus(code string) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeOutOfOrder:
		return http.StatusConflict
	case CodeDownstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
