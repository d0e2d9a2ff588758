// Package metrics provides the Prometheus-backed MetricsCollector used by
// the session controller and the LLM middleware.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/veridial/veridial/internal/ports"
)

// PrometheusMetrics implements ports.MetricsCollector on the default
// Prometheus registry. Metric names arriving through the collector are
// used as label values rather than registered individually, so new call
// sites do not require new metric registrations.
type PrometheusMetrics struct {
	latency    *prometheus.HistogramVec
	counters   *prometheus.CounterVec
	gauges     *prometheus.GaugeVec
	histograms *prometheus.HistogramVec
	tokens     *prometheus.HistogramVec
}

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a collector and registers its metrics in
// the default Prometheus registry. Create at most one per process.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "veridial_operation_duration_seconds",
				Help:    "Latency of session turns and LLM requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "handler", "model"},
		),
		counters: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "veridial_events_total",
				Help: "Counts of session turns, outcomes, LLM requests, and extractor fallbacks.",
			},
			[]string{"metric", "handler", "outcome", "model", "operation"},
		),
		gauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "veridial_state",
				Help: "Current state values such as active sessions.",
			},
			[]string{"metric"},
		),
		histograms: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "veridial_values",
				Help:    "General value distributions reported by components.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"metric", "model"},
		),
		tokens: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "veridial_llm_tokens",
				Help:    "Token usage per LLM request.",
				Buckets: []float64{16, 64, 256, 1024, 4096, 16384},
			},
			[]string{"direction", "model"},
		),
	}
}

// RecordLatency records an operation duration.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.latency.WithLabelValues(operation, labels["handler"], labels["model"]).Observe(duration.Seconds())
}

// RecordCounter increments the event counter for the metric.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	pm.counters.WithLabelValues(
		metric,
		labels["handler"],
		labels["outcome"],
		labels["model"],
		labels["operation"],
	).Add(value)
}

// RecordGauge sets the named state gauge.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	pm.gauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram records a value distribution. Token usage metrics get
// their own buckets; everything else shares the general histogram.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	switch metric {
	case "llm_tokens_input":
		pm.tokens.WithLabelValues("input", labels["model"]).Observe(value)
	case "llm_tokens_output":
		pm.tokens.WithLabelValues("output", labels["model"]).Observe(value)
	default:
		pm.histograms.WithLabelValues(metric, labels["model"]).Observe(value)
	}
}
