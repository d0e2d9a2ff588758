package ports

import (
	"errors"
	"fmt"
)

// Common infrastructure errors for external service interactions.
var (
	// ErrRateLimited indicates that the service rate limited the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrServiceUnavailable indicates the external service is unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidResponse indicates the service returned a response that
	// could not be parsed into the expected structure.
	ErrInvalidResponse = errors.New("invalid response")
)

// LLMError represents a failure from an LLM-backed operation, carrying the
// model and operation for diagnostics. The extractor records these before
// degrading to its deterministic fallback; they never reach the caller of
// the controller.
type LLMError struct {
	// Model is the identifier of the model involved.
	Model string

	// Operation names the operation that failed, e.g. "extract_entities".
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for LLMError.
func (e *LLMError) Error() string {
	return fmt.Sprintf("LLM error: model=%s, operation=%s, err=%v", e.Model, e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *LLMError) Unwrap() error { return e.Err }

// IsRetryable reports whether the failure is transient.
func (e *LLMError) IsRetryable() bool {
	return errors.Is(e.Err, ErrRateLimited) ||
		errors.Is(e.Err, ErrServiceUnavailable) ||
		errors.Is(e.Err, ErrTimeout)
}

// NewLLMError creates an LLMError with the given details.
func NewLLMError(model, operation string, err error) *LLMError {
	return &LLMError{Model: model, Operation: operation, Err: err}
}
