package llm

import (
	"context"
	"sync"
)

// MockCoreLLM is a scriptable CoreLLM for tests. Responses are returned
// in order; once the script is exhausted the last entry repeats. It is
// safe for concurrent use.
type MockCoreLLM struct {
	mu        sync.Mutex
	model     string
	responses []MockResponse
	calls     int
	prompts   []string
}

// MockResponse is one scripted turn.
type MockResponse struct {
	Response  string
	TokensIn  int
	TokensOut int
	Err       error
}

// NewMockCoreLLM creates a mock that plays back the given responses.
func NewMockCoreLLM(model string, responses ...MockResponse) *MockCoreLLM {
	return &MockCoreLLM{model: model, responses: responses}
}

func (m *MockCoreLLM) DoRequest(_ context.Context, prompt string, _ map[string]any) (string, int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, prompt)
	idx := m.calls
	m.calls++
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	if idx < 0 {
		return "", 0, 0, nil
	}

	r := m.responses[idx]
	return r.Response, r.TokensIn, r.TokensOut, r.Err
}

// Calls returns how many requests the mock has served.
func (m *MockCoreLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Prompts returns the prompts received so far.
func (m *MockCoreLLM) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

func (m *MockCoreLLM) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

func (m *MockCoreLLM) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = model
}
