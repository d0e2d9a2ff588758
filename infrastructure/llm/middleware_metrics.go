package llm

import (
	"context"
	"time"

	"github.com/veridial/veridial/internal/ports"
)

// metricsLLM reports request latency, outcomes, and token usage.
type metricsLLM struct {
	next      CoreLLM
	collector ports.MetricsCollector
}

// MetricsMiddleware records per-request latency, success and error
// counters, and token usage through the given collector.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &metricsLLM{next: next, collector: collector}
	}
}

func (m *metricsLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	start := time.Now()
	response, tokensIn, tokensOut, err := m.next.DoRequest(ctx, prompt, opts)

	labels := map[string]string{"model": m.next.GetModel()}
	m.collector.RecordLatency("llm_request", time.Since(start), labels)

	if err != nil {
		m.collector.RecordCounter("llm_requests_failed_total", 1, labels)
		return response, tokensIn, tokensOut, err
	}

	m.collector.RecordCounter("llm_requests_total", 1, labels)
	m.collector.RecordHistogram("llm_tokens_input", float64(tokensIn), labels)
	m.collector.RecordHistogram("llm_tokens_output", float64(tokensOut), labels)

	return response, tokensIn, tokensOut, nil
}

func (m *metricsLLM) GetModel() string { return m.next.GetModel() }

func (m *metricsLLM) SetModel(model string) { m.next.SetModel(model) }
