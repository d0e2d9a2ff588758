// Package testutils provides deterministic test doubles shared across
// packages.
package testutils

import (
	"context"
	"strings"
	"sync"

	"github.com/veridial/veridial/internal/ports"
)

// MockLLMClient implements ports.LLMClient with deterministic responses
// selected by substring matching on the prompt. It records every prompt
// it receives and is safe for concurrent use.
type MockLLMClient struct {
	mu        sync.Mutex
	model     string
	responses []MockResponse
	err       error
	prompts   []string
}

// MockResponse maps a prompt substring to a canned response.
type MockResponse struct {
	// Pattern selects this response when the prompt contains it.
	// An empty pattern matches any prompt and acts as the default.
	Pattern string

	// Response is the text returned for matching prompts.
	Response string

	// TokensUsed is reported as the output token count.
	TokensUsed int
}

// NewMockLLMClient creates a mock with the given scripted responses.
// Responses are checked in order, so list specific patterns before the
// default.
func NewMockLLMClient(model string, responses ...MockResponse) *MockLLMClient {
	return &MockLLMClient{model: model, responses: responses}
}

// FailWith makes every subsequent request return err.
func (m *MockLLMClient) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Prompts returns the prompts received so far.
func (m *MockLLMClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Complete returns the first scripted response whose pattern the prompt
// contains.
func (m *MockLLMClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := m.CompleteWithUsage(ctx, prompt, options)
	return response, err
}

// CompleteWithUsage is Complete plus token counts.
func (m *MockLLMClient) CompleteWithUsage(ctx context.Context, prompt string, _ map[string]any) (string, int, int, error) {
	if ctx.Err() != nil {
		return "", 0, 0, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", 0, 0, m.err
	}

	for _, r := range m.responses {
		if r.Pattern == "" || strings.Contains(prompt, r.Pattern) {
			tokensIn := len(prompt) / 4
			return r.Response, tokensIn, r.TokensUsed, nil
		}
	}
	return "", 0, 0, ports.ErrInvalidResponse
}

// EstimateTokens approximates one token per four characters.
func (m *MockLLMClient) EstimateTokens(text string) (int, error) {
	return len(text) / 4, nil
}

// GetModel returns the mock model identifier.
func (m *MockLLMClient) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

var _ ports.LLMClient = (*MockLLMClient)(nil)
