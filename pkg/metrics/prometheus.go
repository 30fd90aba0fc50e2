// Package metrics provides Prometheus metrics for the distill student service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the distill service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Serving Metrics - What really matters for the student classifier
	predictionsTotal  *prometheus.CounterVec
	predictLatency    prometheus.Histogram
	modelReloads      prometheus.Counter
	modelLoadErrors   prometheus.Counter
	modelLoadedGauge  prometheus.Gauge
	degradedResponses prometheus.Counter
	predictionError   prometheus.Counter

	// Teacher Metrics - Oracle call health for the evaluation harness
	teacherCalls       prometheus.Counter
	teacherCallErrors  prometheus.Counter
	teacherCallLatency prometheus.Histogram

	// Pipeline Metrics - Offline batch counters
	eventsDistilled     prometheus.Counter
	eventsSkipped       *prometheus.CounterVec
	calibrationAccepted prometheus.Counter
	calibrationSkipped  *prometheus.CounterVec
	trainingRuns        *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "distill",
		subsystem:        "student",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	// Serving metrics
	m.predictionsTotal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "predictions_total",
			Help:      "Total number of predictions served by mode and decision",
		},
		[]string{"mode", "decision"},
	)

	m.predictLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "predict_latency_milliseconds",
		Help:      "Histogram of prediction latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.modelReloads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_reloads_total",
		Help:      "Total number of successful hot reloads of the current model",
	})

	m.modelLoadErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_load_errors_total",
		Help:      "Total number of failed attempts to load the current model",
	})

	m.modelLoadedGauge = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_loaded",
		Help:      "1 when a student model is loaded, 0 otherwise",
	})

	m.degradedResponses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "degraded_responses_total",
		Help:      "Total number of predictions answered without a loaded model",
	})

	m.predictionError = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prediction_errors_total",
		Help:      "Total number of prediction requests rejected as malformed",
	})

	// Teacher metrics
	m.teacherCalls = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "teacher_calls_total",
		Help:      "Total number of teacher verify calls issued by the harness",
	})

	m.teacherCallErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "teacher_call_errors_total",
		Help:      "Total number of failed teacher verify calls",
	})

	m.teacherCallLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "teacher_call_latency_milliseconds",
		Help:      "Histogram of teacher verify call latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Pipeline metrics
	m.eventsDistilled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_distilled_total",
		Help:      "Total number of log records accepted as labeled events",
	})

	m.eventsSkipped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_skipped_total",
			Help:      "Total number of log records skipped by the distiller, by reason",
		},
		[]string{"reason"},
	)

	m.calibrationAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "calibration_accepted_total",
		Help:      "Total number of samples accepted into the calibration set",
	})

	m.calibrationSkipped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "calibration_skipped_total",
			Help:      "Total number of samples rejected from the calibration set, by reason",
		},
		[]string{"reason"},
	)

	m.trainingRuns = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "training_runs_total",
			Help:      "Total number of training runs by outcome (published, blocked, skipped)",
		},
		[]string{"outcome"},
	)

	// HTTP metrics
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// System metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current heap memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})
}

// Serving helpers.

// RecordPrediction records a served prediction with its mode and decision.
func RecordPrediction(mode string, execute bool) {
	decision := "suppress"
	if execute {
		decision = "execute"
	}
	globalManager.predictionsTotal.WithLabelValues(mode, decision).Inc()
}

// RecordPredictLatency records prediction latency in milliseconds.
func RecordPredictLatency(latencyMs float64) {
	globalManager.predictLatency.Observe(latencyMs)
}

// RecordModelReload records a successful hot reload.
func RecordModelReload() {
	globalManager.modelReloads.Inc()
}

// RecordModelLoadError records a failed model load attempt.
func RecordModelLoadError() {
	globalManager.modelLoadErrors.Inc()
}

// UpdateModelLoaded reflects whether a model is currently loaded.
func UpdateModelLoaded(loaded bool) {
	if loaded {
		globalManager.modelLoadedGauge.Set(1)
		return
	}
	globalManager.modelLoadedGauge.Set(0)
}

// RecordDegradedResponse records a prediction answered without a model.
func RecordDegradedResponse() {
	globalManager.degradedResponses.Inc()
}

// RecordPredictionError records a malformed prediction request.
func RecordPredictionError() {
	globalManager.predictionError.Inc()
}

// Teacher helpers.

// RecordTeacherCall records a teacher verify call.
func RecordTeacherCall() {
	globalManager.teacherCalls.Inc()
}

// RecordTeacherCallError records a failed teacher verify call.
func RecordTeacherCallError() {
	globalManager.teacherCallErrors.Inc()
}

// RecordTeacherCallLatency records teacher verify call latency in milliseconds.
func RecordTeacherCallLatency(latencyMs float64) {
	globalManager.teacherCallLatency.Observe(latencyMs)
}

// Pipeline helpers.

// RecordEventDistilled records a log record accepted as a labeled event.
func RecordEventDistilled() {
	globalManager.eventsDistilled.Inc()
}

// RecordEventSkipped records a log record skipped by the distiller.
func RecordEventSkipped(reason string) {
	globalManager.eventsSkipped.WithLabelValues(reason).Inc()
}

// RecordCalibrationAccepted records a sample accepted into the calibration set.
func RecordCalibrationAccepted() {
	globalManager.calibrationAccepted.Inc()
}

// RecordCalibrationSkipped records a sample rejected from the calibration set.
func RecordCalibrationSkipped(reason string) {
	globalManager.calibrationSkipped.WithLabelValues(reason).Inc()
}

// RecordTrainingRun records a training run outcome.
func RecordTrainingRun(outcome string) {
	globalManager.trainingRuns.WithLabelValues(outcome).Inc()
}

// HTTP helpers.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// System helpers.

// UpdateSystemMemoryUsage updates the heap memory gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry for serving metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
