// Package domainerrors provides coded errors that travel from services to the
// transport layer. Stores return sentinel errors (pkg/platform/sentinel);
// services translate those facts into coded errors; the HTTP layer maps codes
// to status codes without inspecting messages.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for transport mapping and retry semantics.
type Code string

const (
	// CodeBadRequest marks malformed requests (unparseable body, bad query).
	CodeBadRequest Code = "bad_request"
	// CodeInvalidInput marks well-formed requests whose content violates a
	// domain rule (empty name, duplicate item name, unknown member id).
	CodeInvalidInput Code = "invalid_input"
	// CodeInvariantViolation marks attempts to put an aggregate into an
	// illegal state. Surfaces as a client error.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeUnauthorized marks missing or invalid credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks authenticated principals lacking membership or the
	// administrative capability.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks unknown list or item identifiers.
	CodeNotFound Code = "not_found"
	// CodeConflict marks concurrent-modification conflicts.
	CodeConflict Code = "conflict"
	// CodeInternal marks unexpected failures. Never caused by client input.
	CodeInternal Code = "internal"
)

// Error carries a code alongside a human-readable message and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is / errors.As.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// MessageOf extracts the user-facing message from err. Uncoded errors yield a
// generic message so internals never leak to clients.
func MessageOf(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
