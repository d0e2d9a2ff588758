// Package ports defines the interfaces that form the contract between the
// conversation controller and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"
	"time"
)

// FieldSchema maps a field name to a natural-language description of what
// to extract, e.g. "dob" -> "date of birth in YYYY-MM-DD format".
type FieldSchema map[string]string

// Field names shared between the controller's schemas and the extractor
// implementations.
const (
	FieldDOB              = "dob"
	FieldSSNLast4         = "ssn_last4"
	FieldStreet           = "street"
	FieldUnit             = "unit"
	FieldCity             = "city"
	FieldState            = "state"
	FieldZipCode          = "zip_code"
	FieldEmail            = "email"
	FieldMonthlyIncome    = "monthly_income"
	FieldTenureMonths     = "job_tenure_months"
	FieldEmploymentStatus = "employment_status"
)

// EntityExtractor is the external collaborator the controller depends on
// for natural-language understanding. Implementations must never fail
// upward: extraction problems degrade to an empty result and confirmation
// problems degrade to false, because the controller treats both as "ask
// again" rather than as errors.
type EntityExtractor interface {
	// ExtractEntities pulls structured field values out of free text.
	// The returned map contains only the schema fields that were found;
	// a field the caller did not supply is simply absent.
	ExtractEntities(ctx context.Context, text string, schema FieldSchema) map[string]string

	// Confirm classifies a free-text reply to a yes/no question.
	// Ambiguous or unclassifiable replies return false.
	Confirm(ctx context.Context, text string) bool
}

// LLMClient is the provider-agnostic interface for language model calls.
// Implementations handle authentication, request formatting, and response
// parsing for a specific provider.
type LLMClient interface {
	// Complete sends a completion request and returns the generated text.
	// The options map carries provider-specific settings such as
	// "temperature" (float64) and "max_tokens" (int).
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// CompleteWithUsage is Complete plus input and output token counts,
	// for callers that track usage.
	CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error)

	// EstimateTokens returns an approximate token count for the text.
	EstimateTokens(text string) (int, error)

	// GetModel returns the model identifier used by this client.
	GetModel() string
}

// MetricsCollector abstracts operational metrics collection so the
// controller and LLM middleware do not depend on a concrete backend.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
