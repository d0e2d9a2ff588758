// Package llm provides the language model client behind the entity
// extractor. It abstracts multiple providers (OpenAI, Anthropic, Google)
// behind one interface and layers cross-cutting concerns such as retries,
// timeouts, rate limiting, metrics, and tracing through a middleware
// chain, so the extraction code never deals with provider specifics.
//
// Basic usage:
//
//	client, err := llm.NewClient("openai", llm.ClientConfig{
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	    Model:  "gpt-4o-mini",
//	})
//	response, err := client.Complete(ctx, prompt, nil)
//
// With middleware:
//
//	client, err := llm.NewClient("anthropic", llm.ClientConfig{
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	    Middleware: []llm.Middleware{
//	        llm.RetryMiddleware(3, 200*time.Millisecond, 5*time.Second),
//	        llm.RateLimitMiddleware(10, 20),
//	        llm.MetricsMiddleware(collector),
//	    },
//	})
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/veridial/veridial/internal/ports"
)

// CoreLLM is the minimal surface a provider must implement. Middleware
// wraps this interface, so every cross-cutting concern composes over any
// provider.
type CoreLLM interface {
	// DoRequest sends a prompt and returns the response text plus input
	// and output token counts. The opts map carries request settings
	// such as "temperature" (float64) and "max_tokens" (int).
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (response string, tokensIn, tokensOut int, err error)

	// GetModel returns the configured model name.
	GetModel() string

	// SetModel switches the model for subsequent requests.
	SetModel(model string)
}

// Middleware wraps a CoreLLM to add behavior around requests.
type Middleware func(CoreLLM) CoreLLM

// TokenEstimator approximates token counts when the provider does not
// report usage.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// ClientConfig configures a provider client.
type ClientConfig struct {
	// APIKey authenticates with the provider.
	APIKey string

	// Model selects the model; empty means the provider's default.
	Model string

	// BaseURL overrides the provider endpoint. Empty uses the default.
	BaseURL string

	// Timeout caps each request. Zero means no timeout middleware.
	Timeout time.Duration

	// TokenEstimator supplies token estimates for EstimateTokens and as
	// a usage fallback. Nil selects the character heuristic.
	TokenEstimator TokenEstimator

	// Middleware is applied outermost-first around the provider.
	Middleware []Middleware
}

// Client implements ports.LLMClient over a middleware-wrapped provider.
type Client struct {
	core      CoreLLM
	estimator TokenEstimator
}

var _ ports.LLMClient = (*Client)(nil)

// NewClient builds a client for the named provider. The provider must
// have been registered through RegisterProviderFactory; the built-in
// providers register themselves at init.
func NewClient(provider string, config ClientConfig) (*Client, error) {
	factory, ok := lookupProviderFactory(provider)
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("create %s provider: %w", provider, err)
	}

	middleware := config.Middleware
	if config.Timeout > 0 {
		middleware = append([]Middleware{TimeoutMiddleware(config.Timeout)}, middleware...)
	}

	estimator := config.TokenEstimator
	if estimator == nil {
		estimator = CharacterEstimator{}
	}

	return &Client{core: Chain(core, middleware...), estimator: estimator}, nil
}

// Chain wraps core with the given middleware so the first listed
// middleware is the outermost layer.
func Chain(core CoreLLM, middleware ...Middleware) CoreLLM {
	for i := len(middleware) - 1; i >= 0; i-- {
		core = middleware[i](core)
	}
	return core
}

// Complete sends a completion request and returns the generated text.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := c.core.DoRequest(ctx, prompt, options)
	return response, err
}

// CompleteWithUsage is Complete plus input and output token counts.
func (c *Client) CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error) {
	return c.core.DoRequest(ctx, prompt, options)
}

// EstimateTokens approximates the token count for the text.
func (c *Client) EstimateTokens(text string) (int, error) {
	return c.estimator.EstimateTokens(text), nil
}

// GetModel returns the underlying provider's model name.
func (c *Client) GetModel() string { return c.core.GetModel() }

// SetModel switches the underlying provider's model.
func (c *Client) SetModel(model string) { c.core.SetModel(model) }
