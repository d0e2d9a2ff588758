// Package extract implements the entity extraction and confirmation
// collaborator the conversation controller depends on. The primary
// implementation delegates to a language model; every failure path
// degrades to the deterministic RuleExtractor so nothing in this package
// ever fails upward into the controller.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/veridial/veridial/internal/affirm"
	"github.com/veridial/veridial/internal/ports"
)

// Defaults for LLM extraction requests. Extraction wants deterministic
// output, so the temperature is pinned to zero.
const (
	DefaultExtractionMaxTokens   = 256
	DefaultExtractionTemperature = 0.0
)

// Config holds the tunables for the LLM extractor.
type Config struct {
	// Temperature for extraction requests (0.0-1.0).
	Temperature float64 `yaml:"temperature" validate:"min=0.0,max=1.0"`

	// MaxTokens limits the extraction response length.
	MaxTokens int `yaml:"max_tokens" validate:"required,min=50,max=2000"`
}

// DefaultConfig returns the production extraction configuration.
func DefaultConfig() Config {
	return Config{
		Temperature: DefaultExtractionTemperature,
		MaxTokens:   DefaultExtractionMaxTokens,
	}
}

// LLMExtractor extracts structured field values and yes/no classifications
// from caller utterances using a language model, falling back to rule
// based extraction on any provider or parsing failure.
// It is stateless and safe for concurrent use.
type LLMExtractor struct {
	client   ports.LLMClient
	fallback ports.EntityExtractor
	metrics  ports.MetricsCollector
	config   Config
	validate *validator.Validate
	tracer   trace.Tracer
}

var _ ports.EntityExtractor = (*LLMExtractor)(nil)

// NewLLMExtractor creates an extractor backed by the given LLM client.
// The metrics collector may be nil.
func NewLLMExtractor(client ports.LLMClient, metrics ports.MetricsCollector, config Config) (*LLMExtractor, error) {
	if client == nil {
		return nil, fmt.Errorf("extractor: LLM client cannot be nil")
	}

	v := validator.New()
	if err := v.Struct(config); err != nil {
		return nil, fmt.Errorf("extractor: configuration validation failed: %w", err)
	}

	return &LLMExtractor{
		client:   client,
		fallback: NewRuleExtractor(),
		metrics:  metrics,
		config:   config,
		validate: v,
		tracer:   otel.Tracer("entity-extractor"),
	}, nil
}

// ExtractEntities asks the model to pull the schema's fields out of the
// utterance as a JSON object. Provider errors, unparseable responses,
// and empty results all degrade to the rule extractor; the controller
// only ever sees a field map.
func (e *LLMExtractor) ExtractEntities(ctx context.Context, text string, schema ports.FieldSchema) map[string]string {
	ctx, span := e.tracer.Start(ctx, "LLMExtractor.ExtractEntities",
		trace.WithAttributes(
			attribute.Int("extract.schema_fields", len(schema)),
			attribute.Int("extract.text_length", len(text)),
		),
	)
	defer span.End()

	start := time.Now()

	prompt := e.buildExtractionPrompt(text, schema)
	options := map[string]any{
		"temperature": e.config.Temperature,
		"max_tokens":  e.config.MaxTokens,
	}

	response, _, _, err := e.client.CompleteWithUsage(ctx, prompt, options)
	if err != nil {
		e.degrade(span, "extract_entities", err)
		return e.fallback.ExtractEntities(ctx, text, schema)
	}

	found, err := e.parseExtractionResponse(response, schema)
	if err != nil {
		e.degrade(span, "extract_entities", err)
		return e.fallback.ExtractEntities(ctx, text, schema)
	}

	e.record("extract_entities", "success", time.Since(start))
	span.SetAttributes(attribute.Int("extract.fields_found", len(found)))
	return found
}

// Confirm asks the model to classify the reply as YES or NO. Anything
// that is not a clean classification degrades to keyword matching, whose
// ambiguous default is false.
func (e *LLMExtractor) Confirm(ctx context.Context, text string) bool {
	ctx, span := e.tracer.Start(ctx, "LLMExtractor.Confirm")
	defer span.End()

	start := time.Now()

	prompt := fmt.Sprintf(
		"Classify the following reply to a yes/no question.\n\nReply: %s\n\nRespond with exactly one word: YES or NO.",
		sanitize(text),
	)
	options := map[string]any{
		"temperature": e.config.Temperature,
		"max_tokens":  8,
	}

	response, err := e.client.Complete(ctx, prompt, options)
	if err != nil {
		e.degrade(span, "confirm", err)
		return affirm.IsAffirmative(text)
	}

	switch strings.ToUpper(strings.TrimSpace(response)) {
	case "YES":
		e.record("confirm", "success", time.Since(start))
		return true
	case "NO":
		e.record("confirm", "success", time.Since(start))
		return false
	default:
		e.degrade(span, "confirm", fmt.Errorf("%w: unexpected classification %q", ports.ErrInvalidResponse, response))
		return affirm.IsAffirmative(text)
	}
}

// buildExtractionPrompt lists the schema fields with their descriptions
// and pins the response format. The utterance is fenced to keep caller
// content from being read as instructions.
func (e *LLMExtractor) buildExtractionPrompt(text string, schema ports.FieldSchema) string {
	fields := make([]string, 0, len(schema))
	for name := range schema {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString("Extract the following fields from the caller's statement.\n\nFields:\n")
	for _, name := range fields {
		fmt.Fprintf(&b, "- %s: %s\n", name, schema[name])
	}
	b.WriteString("\nCaller's statement:\n")
	b.WriteString(sanitize(text))
	b.WriteString("\n\nRespond with a single JSON object mapping each field name to its value as a string. Omit fields the caller did not state. Respond with JSON only, no other text.")
	return b.String()
}

// parseExtractionResponse pulls the JSON object out of the response and
// keeps the string values for requested fields.
func (e *LLMExtractor) parseExtractionResponse(response string, schema ports.FieldSchema) (map[string]string, error) {
	jsonStr := extractJSON(response)
	if jsonStr == "" {
		return nil, fmt.Errorf("%w: no JSON object in response (len: %d)", ports.ErrInvalidResponse, len(response))
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrInvalidResponse, err)
	}

	found := make(map[string]string)
	for name, value := range raw {
		if _, wanted := schema[name]; !wanted {
			continue
		}
		switch v := value.(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				found[name] = trimmed
			}
		case float64:
			found[name] = trimFloat(v)
		case bool, nil:
			// Not a field value; skip.
		default:
			// Nested objects are not part of the schema contract.
		}
	}
	return found, nil
}

// degrade records a fallback transition; the error never propagates.
func (e *LLMExtractor) degrade(span trace.Span, operation string, err error) {
	llmErr := ports.NewLLMError(e.client.GetModel(), operation, err)
	span.RecordError(llmErr)
	span.SetAttributes(attribute.Bool("extract.degraded", true))
	if e.metrics != nil {
		e.metrics.RecordCounter("extractor_fallbacks_total", 1, map[string]string{
			"operation": operation,
			"model":     e.client.GetModel(),
		})
	}
}

func (e *LLMExtractor) record(operation, status string, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordLatency(operation, elapsed, map[string]string{
		"component": "extractor",
		"status":    status,
	})
}

// sanitize fences caller content so it cannot break out of its section
// of the prompt.
func sanitize(text string) string {
	text = strings.ReplaceAll(text, "```", "'''")
	return "```\n" + text + "\n```"
}

// trimFloat renders a JSON number without a spurious trailing ".000000".
func trimFloat(v float64) string {
	s := fmt.Sprintf("%f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// extractJSON locates a JSON object inside a response that may wrap it
// in markdown fences or surrounding prose.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if idx := strings.Index(response, "```json"); idx != -1 {
		rest := response[idx+7:]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
	}

	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	for i := start; i < len(response); i++ {
		switch response[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return response[start : i+1]
			}
		}
	}
	return ""
}
