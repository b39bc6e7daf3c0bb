// Package metrics exports orchestration metrics in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "composer"
	subsystem = "orchestrator"
)

// Config configures the collectors.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry
	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// Metrics holds orchestration collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	executions        *prometheus.CounterVec
	executionLatency  *prometheus.HistogramVec
	activeExecutions  prometheus.Gauge
	components        *prometheus.CounterVec
	componentLatency  *prometheus.HistogramVec
	retries           *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
	parallelExecution prometheus.Histogram
}

// New creates and registers the collectors.
func New(cfg Config) *Metrics {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := &Metrics{registry: registry}

	m.executions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "executions_total",
			Help:      "Total number of composed proof executions by verdict",
		},
		[]string{"template_id", "verdict"},
	)
	m.executionLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "execution_duration_seconds",
			Help:      "Composed proof execution latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"template_id"},
	)
	m.activeExecutions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "executions_active",
			Help:      "Number of running composed proof executions",
		},
	)
	m.components = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "components_total",
			Help:      "Total number of settled components by status",
		},
		[]string{"tool_name", "status"},
	)
	m.componentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "component_duration_seconds",
			Help:      "Component execution latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"tool_name"},
	)
	m.retries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "retries_total",
			Help:      "Total number of component retries",
		},
		[]string{"tool_name"},
	)
	m.cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cache_lookups_total",
			Help:      "Total number of result cache lookups by outcome",
		},
		[]string{"outcome"},
	)
	m.parallelExecution = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "peak_parallelism",
			Help:      "Peak number of concurrently executing components per execution",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		},
	)

	registry.MustRegister(
		m.executions,
		m.executionLatency,
		m.activeExecutions,
		m.components,
		m.componentLatency,
		m.retries,
		m.cacheLookups,
		m.parallelExecution,
	)
	return m
}

// ExecutionStarted increments the active execution gauge.
func (m *Metrics) ExecutionStarted() {
	if m == nil {
		return
	}
	m.activeExecutions.Inc()
}

// RecordExecution records a finished execution.
func (m *Metrics) RecordExecution(templateID, verdict string, latency time.Duration, peakParallelism int) {
	if m == nil {
		return
	}
	m.activeExecutions.Dec()
	m.executions.WithLabelValues(templateID, verdict).Inc()
	m.executionLatency.WithLabelValues(templateID).Observe(latency.Seconds())
	m.parallelExecution.Observe(float64(peakParallelism))
}

// RecordComponent records a settled component.
func (m *Metrics) RecordComponent(toolName, status string, latency time.Duration) {
	if m == nil {
		return
	}
	m.components.WithLabelValues(toolName, status).Inc()
	m.componentLatency.WithLabelValues(toolName).Observe(latency.Seconds())
}

// RecordRetry records a component retry.
func (m *Metrics) RecordRetry(toolName string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(toolName).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookups.WithLabelValues(outcome).Inc()
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
