// Package metrics provides Prometheus metrics for the croply field tools.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values shared by the recorders.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Manager manages all Prometheus metrics for the croply tools.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Telemetry reader
	telemetryFetches       *prometheus.CounterVec
	telemetryFetchDuration prometheus.Histogram
	telemetryReadings      prometheus.Counter

	// Hosted inference
	inferenceRequests *prometheus.CounterVec
	inferenceLatency  prometheus.Histogram

	// Model export
	modelExports        *prometheus.CounterVec
	modelExportDuration prometheus.Histogram

	// Analysis service HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "croply",
		subsystem:        "tools",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.telemetryFetches = auto.NewCounterVec(
		m.counterOpts("telemetry_fetch_total", "Greenhouse telemetry fetches by outcome"),
		[]string{"outcome"},
	)
	m.telemetryFetchDuration = auto.NewHistogram(
		m.histogramOpts("telemetry_fetch_duration_milliseconds", "Wall time of one telemetry fetch in milliseconds"),
	)
	m.telemetryReadings = auto.NewCounter(
		m.counterOpts("telemetry_readings_total", "Sensor readings decoded from telemetry responses"),
	)

	m.inferenceRequests = auto.NewCounterVec(
		m.counterOpts("inference_requests_total", "Hosted workflow invocations by workflow and outcome"),
		[]string{"workflow", "outcome"},
	)
	m.inferenceLatency = auto.NewHistogram(
		m.histogramOpts("inference_latency_milliseconds", "Round trip latency of hosted workflow calls in milliseconds"),
	)

	m.modelExports = auto.NewCounterVec(
		m.counterOpts("model_exports_total", "Model export attempts by target format and outcome"),
		[]string{"format", "outcome"},
	)
	m.modelExportDuration = auto.NewHistogram(
		m.histogramOpts("model_export_duration_milliseconds", "Duration of a single model export in milliseconds"),
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
}

// RecordTelemetryFetch counts one fetch with its outcome and duration.
func RecordTelemetryFetch(outcome string, durationMs float64) {
	globalManager.telemetryFetches.WithLabelValues(outcome).Inc()
	globalManager.telemetryFetchDuration.Observe(durationMs)
}

// RecordTelemetryReadings adds n decoded readings.
func RecordTelemetryReadings(n int) {
	globalManager.telemetryReadings.Add(float64(n))
}

// RecordInferenceRequest counts one workflow call.
func RecordInferenceRequest(workflow, outcome string, latencyMs float64) {
	globalManager.inferenceRequests.WithLabelValues(workflow, outcome).Inc()
	globalManager.inferenceLatency.Observe(latencyMs)
}

// RecordModelExport counts one export attempt.
func RecordModelExport(format, outcome string, durationMs float64) {
	globalManager.modelExports.WithLabelValues(format, outcome).Inc()
	globalManager.modelExportDuration.Observe(durationMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile dumps the registry in the text exposition format so a
// node_exporter textfile collector can pick up the numbers of a one-shot run.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteTextfile, err)
	}
	return nil
}
