package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridial/veridial/internal/ports"
)

// A single shared instance: the collector registers into the default
// Prometheus registry, and a second registration would panic.
var testMetrics *PrometheusMetrics

func init() {
	testMetrics = NewPrometheusMetrics()
}

func TestNewPrometheusMetrics(t *testing.T) {
	pm := testMetrics
	require.NotNil(t, pm)
	assert.NotNil(t, pm.latency)
	assert.NotNil(t, pm.counters)
	assert.NotNil(t, pm.gauges)
	assert.NotNil(t, pm.histograms)
	assert.NotNil(t, pm.tokens)

	var _ ports.MetricsCollector = pm
}

func TestPrometheusMetrics_RecordCounter(t *testing.T) {
	pm := testMetrics

	labels := map[string]string{"handler": "collect_dob", "outcome": "completed"}
	pm.RecordCounter("session_turns_total", 1, labels)
	pm.RecordCounter("session_turns_total", 2, labels)

	child := pm.counters.WithLabelValues("session_turns_total", "collect_dob", "completed", "", "")
	assert.Equal(t, 3.0, testutil.ToFloat64(child))
}

func TestPrometheusMetrics_RecordLatency(t *testing.T) {
	pm := testMetrics

	before := testutil.CollectAndCount(pm.latency)
	pm.RecordLatency("session_turn", 25*time.Millisecond, map[string]string{"handler": "final_confirm"})
	assert.Greater(t, testutil.CollectAndCount(pm.latency), before)
}

func TestPrometheusMetrics_RecordGauge(t *testing.T) {
	pm := testMetrics

	pm.RecordGauge("active_sessions", 3, nil)
	assert.Equal(t, 3.0, testutil.ToFloat64(pm.gauges.WithLabelValues("active_sessions")))

	pm.RecordGauge("active_sessions", 1, nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.gauges.WithLabelValues("active_sessions")))
}

func TestPrometheusMetrics_RecordHistogram(t *testing.T) {
	pm := testMetrics

	tests := []struct {
		name   string
		metric string
		value  float64
		labels map[string]string
	}{
		{name: "input tokens", metric: "llm_tokens_input", value: 120, labels: map[string]string{"model": "gpt-4o-mini"}},
		{name: "output tokens", metric: "llm_tokens_output", value: 40, labels: map[string]string{"model": "gpt-4o-mini"}},
		{name: "general value", metric: "extraction_fields_found", value: 2, labels: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				pm.RecordHistogram(tt.metric, tt.value, tt.labels)
			})
		})
	}

	// Token metrics route to the dedicated token histogram, one child
	// per direction.
	assert.Equal(t, 2, testutil.CollectAndCount(pm.tokens))
}

func TestPrometheusMetrics_LabelHandling(t *testing.T) {
	pm := testMetrics

	for _, labels := range []map[string]string{nil, {}, {"unrelated": "value"}} {
		assert.NotPanics(t, func() {
			pm.RecordLatency("op", 10*time.Millisecond, labels)
			pm.RecordCounter("events", 1, labels)
			pm.RecordGauge("state", 0, labels)
			pm.RecordHistogram("values", 0.5, labels)
		})
	}
}
