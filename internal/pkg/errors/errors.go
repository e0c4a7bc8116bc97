// Package errors provides standardized API error types.
package errors

import (
	"fmt"
	"net/http"
)

// APIError represents a standardized API error response.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"error"`
	StatusCode int    `json:"-"`
	Details    any    `json:"details,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"` // seconds, rate-limit errors only
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// WithMessage returns a copy of the error with a custom message.
func (e *APIError) WithMessage(message string) *APIError {
	return &APIError{
		Code:       e.Code,
		Message:    message,
		StatusCode: e.StatusCode,
		Details:    e.Details,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *APIError) WithDetails(details any) *APIError {
	return &APIError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Details:    details,
	}
}

// Standard error definitions
var (
	// ErrUnauthorized is returned when a session token is missing, forged, or
	// expired. The message deliberately does not distinguish which check failed.
	ErrUnauthorized = &APIError{
		Code:       "unauthorized",
		Message:    "Unauthorized",
		StatusCode: http.StatusUnauthorized,
	}

	// ErrBadRequest is returned when the request is malformed.
	ErrBadRequest = &APIError{
		Code:       "bad_request",
		Message:    "Invalid request body",
		StatusCode: http.StatusBadRequest,
	}

	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = &APIError{
		Code:       "not_found",
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}

	// ErrInternal is returned for unexpected server errors.
	ErrInternal = &APIError{
		Code:       "internal_error",
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
	}

	// One-time code errors distinguish invalid/used/expired for user guidance:
	// the stakes are a self-service retry, not session forgery.

	// ErrCodeInvalid is returned when a submitted code does not match any
	// live one-time code.
	ErrCodeInvalid = &APIError{
		Code:       "code_invalid",
		Message:    "Invalid authentication code",
		StatusCode: http.StatusUnauthorized,
	}

	// ErrCodeUsed is returned when a code record is flagged used. Codes are
	// normally deleted on first use, so this branch only fires for records
	// written by older deployments that flagged instead of deleting.
	ErrCodeUsed = &APIError{
		Code:       "code_used",
		Message:    "Code has already been used",
		StatusCode: http.StatusUnauthorized,
	}

	// ErrCodeExpired is returned when a code is past its expiry at
	// verification time.
	ErrCodeExpired = &APIError{
		Code:       "code_expired",
		Message:    "Code has expired",
		StatusCode: http.StatusUnauthorized,
	}

	// ErrCodeFormat is returned when the normalized code is not exactly the
	// expected length.
	ErrCodeFormat = &APIError{
		Code:       "code_format",
		Message:    "Invalid authentication code format",
		StatusCode: http.StatusBadRequest,
	}
)

// NewValidationError creates a validation error for a specific field.
func NewValidationError(field, message string) *APIError {
	return &APIError{
		Code:       "validation_error",
		Message:    fmt.Sprintf("Validation failed: %s", message),
		StatusCode: http.StatusBadRequest,
		Details: map[string]string{
			"field": field,
			"error": message,
		},
	}
}

// NewMissingFieldsError creates the 400 returned when required fields are
// absent, enumerating them.
func NewMissingFieldsError(required ...string) *APIError {
	return &APIError{
		Code:       "missing_fields",
		Message:    "Missing required fields",
		StatusCode: http.StatusBadRequest,
		Details:    map[string]any{"required": required},
	}
}

// NewNotFoundError creates a not found error for a specific resource type.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "not_found",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

// NewRateLimitError creates a 429 with a caller-facing retry hint.
func NewRateLimitError(message string, retryAfter int) *APIError {
	return &APIError{
		Code:       "rate_limited",
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
		RetryAfter: retryAfter,
	}
}

// NewConfigurationError creates a 500 for missing deployment configuration.
func NewConfigurationError(message string) *APIError {
	return &APIError{
		Code:       "configuration_error",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewUpstreamError wraps a store or mail-sender failure. Detail is only
// attached when the development flag is set.
func NewUpstreamError(message string, cause error, development bool) *APIError {
	e := &APIError{
		Code:       "upstream_error",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
	if development && cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// IsAPIError checks if an error is an APIError.
func IsAPIError(err error) bool {
	_, ok := err.(*APIError)
	return ok
}

// AsAPIError converts an error to an APIError if possible.
// Returns ErrInternal if the error is not an APIError.
func AsAPIError(err error) *APIError {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr
	}
	return ErrInternal
}
