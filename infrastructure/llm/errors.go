package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/veridial/veridial/internal/ports"
)

// Common provider errors.
var (
	// ErrEmptyAPIKey indicates a required API key was not provided.
	ErrEmptyAPIKey = errors.New("API key cannot be empty")

	// ErrEmptyResponse indicates the provider returned no content.
	ErrEmptyResponse = errors.New("empty response from API")
)

// ErrorType classifies a provider error for retry decisions.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeAuthentication
	ErrorTypeRateLimit
	ErrorTypeBadRequest
	ErrorTypeNotFound
	ErrorTypeServerError
	ErrorTypeNetwork
	ErrorTypeTimeout
)

var errorTypeNames = map[ErrorType]string{
	ErrorTypeAuthentication: "authentication",
	ErrorTypeRateLimit:      "rate_limit",
	ErrorTypeBadRequest:     "bad_request",
	ErrorTypeNotFound:       "not_found",
	ErrorTypeServerError:    "server_error",
	ErrorTypeNetwork:        "network",
	ErrorTypeTimeout:        "timeout",
}

// ProviderError normalizes provider-specific failures into one shape so
// middleware and callers can reason about them uniformly.
type ProviderError struct {
	// Type classifies the failure.
	Type ErrorType

	// Provider names the provider that produced the error.
	Provider string

	// StatusCode is the HTTP status, when one applies.
	StatusCode int

	// Message is the provider's error message.
	Message string

	// WrappedError is the original error.
	WrappedError error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	s := fmt.Sprintf("%s error", e.Provider)
	if e.StatusCode > 0 {
		s += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if name, ok := errorTypeNames[e.Type]; ok {
		s += fmt.Sprintf(" [%s]", name)
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	return s
}

// Unwrap returns the original error for errors.Is and errors.As.
func (e *ProviderError) Unwrap() error { return e.WrappedError }

// IsRetryable reports whether retrying this request could succeed.
// Authentication and request shape problems never benefit from a retry.
func (e *ProviderError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// Is makes errors.Is(err, ports.ErrRateLimited) and friends work on
// provider errors, so callers outside this package can key on the ports
// sentinels without knowing about ErrorType.
func (e *ProviderError) Is(target error) bool {
	s := e.sentinel()
	return s != nil && target == s
}

// sentinel maps the error type onto the ports package sentinel the rest
// of the system keys on.
func (e *ProviderError) sentinel() error {
	switch e.Type {
	case ErrorTypeRateLimit:
		return ports.ErrRateLimited
	case ErrorTypeServerError, ErrorTypeNetwork:
		return ports.ErrServiceUnavailable
	case ErrorTypeTimeout:
		return ports.ErrTimeout
	default:
		return nil
	}
}

// classifyStatus maps an HTTP status code onto an error type.
func classifyStatus(code int) ErrorType {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrorTypeAuthentication
	case code == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case code == http.StatusNotFound:
		return ErrorTypeNotFound
	case code == http.StatusRequestTimeout:
		return ErrorTypeTimeout
	case code >= 500:
		return ErrorTypeServerError
	case code >= 400:
		return ErrorTypeBadRequest
	default:
		return ErrorTypeUnknown
	}
}

// newProviderError builds a ProviderError from an HTTP-shaped failure.
func newProviderError(provider string, statusCode int, message string, err error) *ProviderError {
	errType := classifyStatus(statusCode)
	if errType == ErrorTypeUnknown && errors.Is(err, context.DeadlineExceeded) {
		errType = ErrorTypeTimeout
	}
	return &ProviderError{
		Type:         errType,
		Provider:     provider,
		StatusCode:   statusCode,
		Message:      message,
		WrappedError: err,
	}
}

// IsRetryableError reports whether err is worth retrying. Unclassified
// errors are retried on the assumption they are transient; classified
// errors defer to their type.
func IsRetryableError(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.IsRetryable()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
