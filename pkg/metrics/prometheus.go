// Package metrics provides Prometheus metrics for the streakd service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Aggregation kinds used as the "kind" label on latency metrics.
const (
	KindStreak   = "streak"
	KindActivity = "activity"
	KindParty    = "party"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingestion
	submissionsIngested  prometheus.Counter
	submissionsDuplicate prometheus.Counter
	submissionsMalformed prometheus.Counter
	submissionsStored    prometheus.Gauge
	membersTracked       prometheus.Gauge

	// Queue and workers
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueErrors *prometheus.CounterVec
	workerCount        prometheus.Gauge
	workerErrors       prometheus.Counter

	// Aggregation
	aggregationLatency  *prometheus.HistogramVec
	invalidWindows      prometheus.Counter
	memberFetchLatency  prometheus.Histogram
	memberFetchFailures *prometheus.CounterVec
	partySize           prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager. Collectors are registered on
// prometheus.DefaultRegisterer unless WithPrometheusRegistry is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "streakd",
		subsystem:        "activity",
		histogramBuckets: prometheus.DefBuckets,
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
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.submissionsIngested = m.counter("submissions_ingested_total", "Total number of submissions accepted for storage")
	m.submissionsDuplicate = m.counter("submissions_duplicate_total", "Total number of duplicate submission IDs rejected")
	m.submissionsMalformed = m.counter("submissions_malformed_total", "Total number of raw events skipped during normalization")
	m.submissionsStored = m.gauge("submissions_stored", "Number of raw submissions currently held in memory")
	m.membersTracked = m.gauge("members_tracked", "Number of members with at least one stored submission")

	m.queueSize = m.gauge("queue_size", "Current size of the submission queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum submission queue capacity")
	m.queueEnqueueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Total number of rejected enqueue attempts by reason",
	}, []string{"reason"})
	m.workerCount = m.gauge("worker_count", "Number of ingestion workers")
	m.workerErrors = m.counter("worker_errors_total", "Total number of submissions workers failed to store")

	m.aggregationLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "aggregation_latency_milliseconds",
		Help:      "Latency of streak, activity and party aggregations in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"kind"})
	m.invalidWindows = m.counter("invalid_windows_total", "Total number of requests rejected for an invalid window size")
	m.memberFetchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "member_fetch_latency_milliseconds",
		Help:      "Latency of per-member event fetches in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.memberFetchFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "member_fetch_failures_total",
		Help:      "Total number of member fetches that degraded to no activity",
	}, []string{"reason"})
	m.partySize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "party_size_members",
		Help:      "Number of members per party aggregation request",
		Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordSubmissionIngested increments the ingested submissions counter.
func RecordSubmissionIngested() {
	globalManager.submissionsIngested.Inc()
}

// RecordSubmissionDuplicate increments the duplicate submissions counter.
func RecordSubmissionDuplicate() {
	globalManager.submissionsDuplicate.Inc()
}

// RecordMalformedEvents adds n skipped raw events.
func RecordMalformedEvents(n int) {
	if n > 0 {
		globalManager.submissionsMalformed.Add(float64(n))
	}
}

// UpdateStoreSize sets the stored submission and tracked member gauges.
func UpdateStoreSize(submissions, members int) {
	globalManager.submissionsStored.Set(float64(submissions))
	globalManager.membersTracked.Set(float64(members))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordAggregationLatency records how long one aggregation of kind took.
func RecordAggregationLatency(kind string, latencyMs float64) {
	globalManager.aggregationLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordInvalidWindow counts a request rejected for its window size.
func RecordInvalidWindow() {
	globalManager.invalidWindows.Inc()
}

// RecordMemberFetchLatency records a single member fetch latency.
func RecordMemberFetchLatency(latencyMs float64) {
	globalManager.memberFetchLatency.Observe(latencyMs)
}

// RecordMemberFetchFailure counts a member whose fetch degraded to no activity.
func RecordMemberFetchFailure(reason string) {
	globalManager.memberFetchFailures.WithLabelValues(reason).Inc()
}

// RecordPartySize observes the number of members in a party request.
func RecordPartySize(members int) {
	globalManager.partySize.Observe(float64(members))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateSystemMemoryUsage sets the heap memory in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
