package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridial/veridial/internal/ports"
)

func TestRetryMiddleware_RecoversFromTransientFailure(t *testing.T) {
	transient := &ProviderError{Type: ErrorTypeServerError, Provider: "mock"}
	core := NewMockCoreLLM("m",
		MockResponse{Err: transient},
		MockResponse{Err: transient},
		MockResponse{Response: "ok"},
	)
	client := Chain(core, RetryMiddleware(3, time.Millisecond, 10*time.Millisecond))

	resp, _, _, err := client.DoRequest(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Equal(t, 3, core.Calls())
}

func TestRetryMiddleware_GivesUpAfterMaxRetries(t *testing.T) {
	transient := &ProviderError{Type: ErrorTypeRateLimit, Provider: "mock"}
	core := NewMockCoreLLM("m", MockResponse{Err: transient})
	client := Chain(core, RetryMiddleware(2, time.Millisecond, 10*time.Millisecond))

	_, _, _, err := client.DoRequest(context.Background(), "p", nil)
	require.Error(t, err)
	assert.ErrorAs(t, err, new(*ProviderError))
	assert.Equal(t, 3, core.Calls())
}

func TestRetryMiddleware_DoesNotRetryAuthErrors(t *testing.T) {
	authErr := &ProviderError{Type: ErrorTypeAuthentication, Provider: "mock"}
	core := NewMockCoreLLM("m", MockResponse{Err: authErr})
	client := Chain(core, RetryMiddleware(5, time.Millisecond, 10*time.Millisecond))

	_, _, _, err := client.DoRequest(context.Background(), "p", nil)
	require.Error(t, err)
	assert.Equal(t, 1, core.Calls())
}

func TestTimeoutMiddleware_SetsDeadline(t *testing.T) {
	var sawDeadline bool
	core := observerLLM{fn: func(ctx context.Context) {
		_, sawDeadline = ctx.Deadline()
	}}
	client := Chain(core, TimeoutMiddleware(time.Second))

	_, _, _, err := client.DoRequest(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.True(t, sawDeadline)
}

type observerLLM struct {
	fn func(ctx context.Context)
}

func (o observerLLM) DoRequest(ctx context.Context, _ string, _ map[string]any) (string, int, int, error) {
	o.fn(ctx)
	return "ok", 1, 1, nil
}

func (o observerLLM) GetModel() string { return "observer" }
func (observerLLM) SetModel(string)    {}

func TestRateLimitMiddleware_PacesRequests(t *testing.T) {
	core := NewMockCoreLLM("m", MockResponse{Response: "ok"})
	// 1 request per second with burst 1: the second call must wait.
	client := Chain(core, RateLimitMiddleware(1, 1))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, _, err := client.DoRequest(ctx, "first", nil)
	require.NoError(t, err)

	_, _, _, err = client.DoRequest(ctx, "second", nil)
	assert.Error(t, err)
	assert.Equal(t, 1, core.Calls())
}

func TestBudgetMiddleware(t *testing.T) {
	core := NewMockCoreLLM("m", MockResponse{Response: "ok", TokensIn: 30, TokensOut: 30})

	t.Run("call limit", func(t *testing.T) {
		client := Chain(core, BudgetMiddleware(0, 2))
		for i := 0; i < 2; i++ {
			_, _, _, err := client.DoRequest(context.Background(), "p", nil)
			require.NoError(t, err)
		}
		_, _, _, err := client.DoRequest(context.Background(), "p", nil)
		assert.ErrorIs(t, err, ErrBudgetExceeded)
	})

	t.Run("token limit", func(t *testing.T) {
		client := Chain(core, BudgetMiddleware(100, 0))
		// First two requests consume 120 tokens; the third is refused.
		for i := 0; i < 2; i++ {
			_, _, _, err := client.DoRequest(context.Background(), "p", nil)
			require.NoError(t, err)
		}
		_, _, _, err := client.DoRequest(context.Background(), "p", nil)
		assert.ErrorIs(t, err, ErrBudgetExceeded)
	})
}

// recordingCollector captures metric calls for assertions.
type recordingCollector struct {
	counters   map[string]float64
	histograms map[string]float64
	latencies  []string
}

func newRecordingCollector() *recordingCollector {
	return &recordingCollector{
		counters:   make(map[string]float64),
		histograms: make(map[string]float64),
	}
}

func (r *recordingCollector) RecordLatency(op string, _ time.Duration, _ map[string]string) {
	r.latencies = append(r.latencies, op)
}

func (r *recordingCollector) RecordCounter(metric string, value float64, _ map[string]string) {
	r.counters[metric] += value
}

func (r *recordingCollector) RecordGauge(string, float64, map[string]string) {}

func (r *recordingCollector) RecordHistogram(metric string, value float64, _ map[string]string) {
	r.histograms[metric] += value
}

func TestMetricsMiddleware_RecordsUsage(t *testing.T) {
	collector := newRecordingCollector()
	core := NewMockCoreLLM("m", MockResponse{Response: "ok", TokensIn: 120, TokensOut: 40})
	client := Chain(core, MetricsMiddleware(collector))

	_, _, _, err := client.DoRequest(context.Background(), "p", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"llm_request"}, collector.latencies)
	assert.Equal(t, 1.0, collector.counters["llm_requests_total"])
	assert.Equal(t, 120.0, collector.histograms["llm_tokens_input"])
	assert.Equal(t, 40.0, collector.histograms["llm_tokens_output"])
}

func TestMetricsMiddleware_CountsFailures(t *testing.T) {
	collector := newRecordingCollector()
	core := NewMockCoreLLM("m", MockResponse{Err: &ProviderError{Type: ErrorTypeServerError, Provider: "mock"}})
	client := Chain(core, MetricsMiddleware(collector))

	_, _, _, err := client.DoRequest(context.Background(), "p", nil)
	require.Error(t, err)

	assert.Equal(t, 1.0, collector.counters["llm_requests_failed_total"])
	assert.Empty(t, collector.histograms)
}

func TestProviderError(t *testing.T) {
	err := newProviderError("openai", 429, "slow down", nil)
	assert.Equal(t, ErrorTypeRateLimit, err.Type)
	assert.True(t, err.IsRetryable())
	assert.Contains(t, err.Error(), "openai")
	assert.Contains(t, err.Error(), "HTTP 429")
	assert.Contains(t, err.Error(), "rate_limit")

	assert.ErrorIs(t, err, ports.ErrRateLimited)

	auth := newProviderError("google", 401, "bad key", nil)
	assert.Equal(t, ErrorTypeAuthentication, auth.Type)
	assert.False(t, auth.IsRetryable())

	server := newProviderError("anthropic", 503, "overloaded", nil)
	assert.Equal(t, ErrorTypeServerError, server.Type)
	assert.True(t, server.IsRetryable())
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(context.Canceled))
	assert.False(t, IsRetryableError(context.DeadlineExceeded))
	assert.True(t, IsRetryableError(assert.AnError))
	assert.False(t, IsRetryableError(&ProviderError{Type: ErrorTypeBadRequest}))
	assert.True(t, IsRetryableError(&ProviderError{Type: ErrorTypeNetwork}))
}
