// Package metrics provides Prometheus metrics for the gameweek score tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Core business metrics
	recalculations     prometheus.Counter
	cascadeSize        prometheus.Histogram
	recalcLatency      prometheus.Histogram
	bulkEntries        *prometheus.CounterVec
	scoreMutations     *prometheus.CounterVec
	playerMutations    *prometheus.CounterVec
	invariantBreaks    prometheus.Gauge
	playersTotal       prometheus.Gauge
	scoresTotal        prometheus.Gauge
	latestGameweek     prometheus.Gauge
	authFailures       prometheus.Counter
	authThrottled      prometheus.Counter
	chartRenderLatency prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Repository Metrics
	repositoryQueryLatency  prometheus.Histogram
	repositoryUpdateLatency prometheus.Histogram
	repositoryTxRollbacks   prometheus.Counter

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "gameweek",
		subsystem:        "tracker",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one block per metric family
	m.recalculations = m.counter("recalculations_total",
		"Total number of cumulative recalculations triggered by score edits")
	m.cascadeSize = m.histogram("cascade_size",
		"Number of later gameweeks rewritten per recalculation",
		[]float64{0, 1, 2, 5, 10, 20, 38})
	m.recalcLatency = m.histogram("recalculation_latency_milliseconds",
		"End-to-end latency of an edit including its cascade", m.histogramBuckets)
	m.bulkEntries = m.counterVec("bulk_entries_total",
		"Bulk upload entries by outcome", "outcome")
	m.scoreMutations = m.counterVec("score_mutations_total",
		"Score mutations by operation", "operation")
	m.playerMutations = m.counterVec("player_mutations_total",
		"Player mutations by operation", "operation")
	m.invariantBreaks = m.gauge("invariant_breaks",
		"Scores whose overall points disagree with their history at last verification")
	m.playersTotal = m.gauge("players_total", "Number of players")
	m.scoresTotal = m.gauge("scores_total", "Number of score records")
	m.latestGameweek = m.gauge("latest_gameweek", "Highest gameweek with a recorded score")
	m.authFailures = m.counter("auth_failures_total", "Rejected basic-auth attempts")
	m.authThrottled = m.counter("auth_throttled_total", "Requests refused by the auth rate limiter")
	m.chartRenderLatency = m.histogram("chart_render_latency_milliseconds",
		"Time to render a dashboard chart image", m.histogramBuckets)

	auto := promauto.With(m.registry)
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by route and method",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.repositoryQueryLatency = m.histogram("repository_query_latency_milliseconds",
		"Repository read latency in milliseconds", m.histogramBuckets)
	m.repositoryUpdateLatency = m.histogram("repository_update_latency_milliseconds",
		"Repository write latency in milliseconds", m.histogramBuckets)
	m.repositoryTxRollbacks = m.counter("repository_tx_rollbacks_total",
		"Transactions rolled back")

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total",
		"Total number of errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordRecalculation records one edit and how many later gameweeks it rewrote.
func RecordRecalculation(cascade int, latencyMs float64) {
	globalManager.recalculations.Inc()
	globalManager.cascadeSize.Observe(float64(cascade))
	globalManager.recalcLatency.Observe(latencyMs)
}

// RecordBulkEntry counts a bulk upload entry by outcome: created, updated or skipped.
func RecordBulkEntry(outcome string) {
	globalManager.bulkEntries.WithLabelValues(outcome).Inc()
}

// RecordScoreMutation counts a score create/update/delete.
func RecordScoreMutation(operation string) {
	globalManager.scoreMutations.WithLabelValues(operation).Inc()
}

// RecordPlayerMutation counts a player create/update/delete.
func RecordPlayerMutation(operation string) {
	globalManager.playerMutations.WithLabelValues(operation).Inc()
}

// UpdateInvariantBreaks sets the number of inconsistent scores found by the last verification.
func UpdateInvariantBreaks(count int) {
	globalManager.invariantBreaks.Set(float64(count))
}

// UpdateTotals sets the player and score gauges.
func UpdateTotals(players, scores, latestGameweek int) {
	globalManager.playersTotal.Set(float64(players))
	globalManager.scoresTotal.Set(float64(scores))
	globalManager.latestGameweek.Set(float64(latestGameweek))
}

// RecordAuthFailure increments the rejected credential counter.
func RecordAuthFailure() {
	globalManager.authFailures.Inc()
}

// RecordAuthThrottled increments the throttled request counter.
func RecordAuthThrottled() {
	globalManager.authThrottled.Inc()
}

// RecordChartRender records chart rendering latency.
func RecordChartRender(latencyMs float64) {
	globalManager.chartRenderLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRepositoryQueryLatency records repository read latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// RecordRepositoryUpdateLatency records repository write latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryRollback increments the rollback counter.
func RecordRepositoryRollback() {
	globalManager.repositoryTxRollbacks.Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// Configure rebuilds the global metrics on a fresh registry with opts applied.
// Call it once at startup, before any handler captures GetRegistry.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	customRegistry = registry
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(registry)}, opts...)...)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
