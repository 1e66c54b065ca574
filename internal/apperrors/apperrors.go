// Package apperrors implements the error taxonomy: sentinel categories
// plus a CodedError wrapper carrying the fields the HTTP boundary needs
// to build the JSON error envelope. Components return wrapped errors;
// only internal/httpapi inspects them to pick a status code.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error category, never a Go type name.
type Code string

const (
	CodeValidation         Code = "validation"
	CodeNotFound           Code = "not_found"
	CodeAuthFailed         Code = "auth_failed"
	CodePermissionDenied   Code = "permission_denied"
	CodeRateLimit          Code = "rate_limit"
	CodeProviderAuth       Code = "provider_auth_failed"
	CodeProviderQuota      Code = "provider_quota_exceeded"
	CodeModelNotFound      Code = "model_not_found"
	CodeInvalidRequest     Code = "invalid_request"
	CodeNetwork            Code = "network_error"
	CodeTimeout            Code = "timeout"
	CodeServiceUnavailable Code = "service_unavailable"
	CodeAllProvidersFailed Code = "all_providers_failed"
	CodeDimensionMismatch  Code = "dimension_mismatch"
	CodeShapeError         Code = "shape_error"
	CodeCorruptArtifact    Code = "corrupt_artifact"
	CodeInternal           Code = "internal_error"
)

var statusByCode = map[Code]int{
	CodeValidation:         http.StatusUnprocessableEntity,
	CodeNotFound:           http.StatusNotFound,
	CodeAuthFailed:         http.StatusUnauthorized,
	CodePermissionDenied:   http.StatusForbidden,
	CodeRateLimit:          http.StatusTooManyRequests,
	CodeProviderAuth:       http.StatusBadGateway,
	CodeProviderQuota:      http.StatusTooManyRequests,
	CodeModelNotFound:      http.StatusBadGateway,
	CodeInvalidRequest:     http.StatusBadRequest,
	CodeNetwork:            http.StatusBadGateway,
	CodeTimeout:            http.StatusGatewayTimeout,
	CodeServiceUnavailable: http.StatusServiceUnavailable,
	CodeAllProvidersFailed: http.StatusBadGateway,
	CodeDimensionMismatch:  http.StatusInternalServerError,
	CodeShapeError:         http.StatusInternalServerError,
	CodeCorruptArtifact:    http.StatusInternalServerError,
	CodeInternal:           http.StatusInternalServerError,
}

// CodedError is the wrapper every component boundary should produce for
// errors that need to survive to the HTTP layer with their category
// intact. Wrap lower-level errors with fmt.Errorf("...: %w", err) below
// a CodedError; errors.As still finds the CodedError through the chain.
type CodedError struct {
	Code       Code
	Message    string
	RetryAfter int // seconds, 0 if not applicable
	Details    map[string]any
	cause      error
}

func (e *CodedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *CodedError) Unwrap() error { return e.cause }

// HTTPStatus returns the status code this code maps to, defaulting to 500.
func (e *CodedError) HTTPStatus() int {
	if status, ok := statusByCode[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// New builds a CodedError with no wrapped cause.
func New(code Code, message string) *CodedError {
	return &CodedError{Code: code, Message: message}
}

// Wrap builds a CodedError that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *CodedError {
	return &CodedError{Code: code, Message: message, cause: cause}
}

// WithRetryAfter sets RetryAfter and returns the same error for chaining.
func (e *CodedError) WithRetryAfter(seconds int) *CodedError {
	e.RetryAfter = seconds
	return e
}

// WithDetails sets Details and returns the same error for chaining.
func (e *CodedError) WithDetails(details map[string]any) *CodedError {
	e.Details = details
	return e
}

// As extracts a *CodedError from err's chain, if present.
func As(err error) (*CodedError, bool) {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// StatusCode returns the HTTP status for any error, falling back to 500
// when err carries no CodedError in its chain.
func StatusCode(err error) int {
	if ce, ok := As(err); ok {
		return ce.HTTPStatus()
	}
	return http.StatusInternalServerError
}
