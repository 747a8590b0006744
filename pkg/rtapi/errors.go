package rtapi

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode classifies failures surfaced by the request pipeline.
type ErrorCode string

// Pipeline error codes.
const (
	// ErrorCodeCircuitOpen means the circuit breaker rejected the call
	// before any network attempt.
	ErrorCodeCircuitOpen ErrorCode = "CIRCUIT_OPEN"

	// ErrorCodeRateLimited means admission control rejected the call
	// before any network attempt.
	ErrorCodeRateLimited ErrorCode = "RATE_LIMIT_EXCEEDED"

	// ErrorCodeHTTP means the transport succeeded but the backend
	// returned a non-2xx status.
	ErrorCodeHTTP ErrorCode = "HTTP_ERROR"

	// ErrorCodeNetwork means the transport itself failed, for example a
	// refused connection or a DNS error.
	ErrorCodeNetwork ErrorCode = "NETWORK_ERROR"

	// ErrorCodeTimeout means the per-call timeout elapsed before a
	// response arrived.
	ErrorCodeTimeout ErrorCode = "TIMEOUT"
)

// Static errors that can be wrapped with context.
var (
	ErrCircuitOpen         = errors.New("circuit breaker is open")
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrCacheKeyNotFound    = errors.New("key not found")
	ErrCacheEntryExpired   = errors.New("entry expired")
	ErrConfigRequired      = errors.New("config is required")
	ErrAPIEndpointRequired = errors.New("API endpoint is required")
	ErrNoTokenURL          = errors.New("no token URL found in API info response")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrNoMoreItems         = errors.New("no more items")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrDeviceNotFound      = errors.New("device not found")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
	ErrTokenFieldsReadOnly = errors.New("token fields cannot be managed via config command")
	ErrNoAPIEndpointInUse  = errors.New("no API endpoint configured; run 'rtapi login' first")
)

// Error is the typed error returned by the request pipeline. Callers
// branch on Code and StatusCode, never on the message text.
type Error struct {
	// Code classifies the failure.
	Code ErrorCode
	// Message is a human readable description.
	Message string
	// StatusCode carries the HTTP status for HTTP_ERROR and
	// RATE_LIMIT_EXCEEDED failures, zero otherwise.
	StatusCode int
	// Request points back at the originating descriptor when available.
	Request *Request
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status: %d)", e.Code, e.Message, e.StatusCode)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches one of the package sentinels, so
// callers can use errors.Is(err, rtapi.ErrCircuitOpen) without digging
// into the wrapped cause.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrCircuitOpen:
		return e.Code == ErrorCodeCircuitOpen
	case ErrRateLimited:
		return e.Code == ErrorCodeRateLimited
	default:
		return false
	}
}

// APIError is a single error object in a backend error response.
type APIError struct {
	Code    string `json:"code"    yaml:"code"`
	Message string `json:"message" yaml:"message"`
	Field   string `json:"field,omitempty" yaml:"field,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ResponseError represents the error payload returned by the API.
type ResponseError struct {
	Errors []APIError `json:"errors"`
}

// Error implements the error interface for ResponseError.
func (e *ResponseError) Error() string {
	if len(e.Errors) == 0 {
		return "unknown error"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	return fmt.Sprintf("multiple errors: %v", e.Errors)
}

// FirstError returns the first error or nil.
func (e *ResponseError) FirstError() *APIError {
	if len(e.Errors) > 0 {
		return &e.Errors[0]
	}

	return nil
}

// ParseResponseError parses an error response body from JSON.
func ParseResponseError(data []byte) (*ResponseError, error) {
	var errResp ResponseError

	err := json.Unmarshal(data, &errResp)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal response error: %w", err)
	}

	return &errResp, nil
}

// IsCircuitOpen checks if the error is a circuit breaker rejection.
func IsCircuitOpen(err error) bool {
	return hasCode(err, ErrorCodeCircuitOpen)
}

// IsRateLimited checks if the error is an admission control rejection.
func IsRateLimited(err error) bool {
	return hasCode(err, ErrorCodeRateLimited)
}

// IsTimeout checks if the error is a per-call timeout.
func IsTimeout(err error) bool {
	return hasCode(err, ErrorCodeTimeout)
}

// IsNotFound checks if the error is an HTTP 404.
func IsNotFound(err error) bool {
	return hasStatus(err, 404)
}

// IsUnauthorized checks if the error is an HTTP 401.
func IsUnauthorized(err error) bool {
	return hasStatus(err, 401)
}

// IsForbidden checks if the error is an HTTP 403.
func IsForbidden(err error) bool {
	return hasStatus(err, 403)
}

func hasCode(err error, code ErrorCode) bool {
	apiErr := &Error{}
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}

	return false
}

func hasStatus(err error, status int) bool {
	apiErr := &Error{}
	if errors.As(err, &apiErr) {
		return apiErr.Code == ErrorCodeHTTP && apiErr.StatusCode == status
	}

	return false
}
