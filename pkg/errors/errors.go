package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies failures surfaced by the data API, the LLM
// collaborator, and the session layer.
type ErrorType string

const (
	ErrorTypeNotFound            ErrorType = "not_found"
	ErrorTypeUnresolved          ErrorType = "unresolved"
	ErrorTypeUnauthorized        ErrorType = "unauthorized"
	ErrorTypeRateLimited         ErrorType = "rate_limited"
	ErrorTypeBudgetExceeded      ErrorType = "budget_exceeded"
	ErrorTypeMalformedResponse   ErrorType = "malformed_response"
	ErrorTypeExportTargetMissing ErrorType = "export_target_missing"
	ErrorTypeNetwork             ErrorType = "network"
	ErrorTypeServerError         ErrorType = "server_error"
	ErrorTypeUnknown             ErrorType = "unknown"
)

// Error carries an error class plus the upstream HTTP status when one
// applies (Code is 0 for failures that never reached the wire).
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// New builds a typed error without an HTTP status.
func New(t ErrorType, msg string) *Error {
	return &Error{Type: t, Message: msg}
}

// Newf builds a typed error with a formatted message.
func Newf(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// TypeOf extracts the ErrorType from err, unwrapping as needed.
// Non-typed errors report ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether err carries the given type.
func Is(err error, t ErrorType) bool {
	return TypeOf(err) == t
}

// IsRetryable checks if an error type should be retried.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimited, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}
