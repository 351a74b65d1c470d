// Package metrics provides Prometheus metrics for the KISMET assignment
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Buckets for model-size histograms; solves range from a handful of
// variables to tens of thousands.
var sizeBuckets = []float64{1, 10, 50, 100, 500, 1000, 5000, 10000, 50000} //nolint:gochecknoglobals // shared bucket layout

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Solve lifecycle.
	solvesSubmitted  prometheus.Counter
	solvesDuplicate  prometheus.Counter
	solvesCompleted  *prometheus.CounterVec
	solveErrors      prometheus.Counter
	solveDuration    prometheus.Histogram
	modelVariables   prometheus.Histogram
	modelConstraints prometheus.Histogram

	// Solution quality, updated after each optimal solve.
	lastAverageSatisfaction prometheus.Gauge
	lastActiveOptions       prometheus.Gauge

	// Queue.
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueues      prometheus.Counter
	queueDequeues      prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	queueLatency       prometheus.Histogram

	// Workers.
	workerActive        prometheus.Gauge
	workerIdle          prometheus.Gauge
	workerJobsPerSecond prometheus.Gauge
	workerLatency       prometheus.Histogram
	workerErrors        prometheus.Counter

	// Run store.
	storeRuns          prometheus.Gauge
	storeEvictions     prometheus.Counter
	storeUpdateLatency prometheus.Histogram
	storeQueryLatency  prometheus.Histogram

	// Idempotency cache.
	dedupeEntries prometheus.Gauge

	// HTTP.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Cross-cutting error tracking.
	errorsByComponent *prometheus.CounterVec

	// Process health.
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

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "kismet",
		subsystem:        "solver",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // flat metric declarations
	auto := promauto.With(m.registry)

	m.solvesSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "solves_submitted_total",
		Help:      "Total number of solve requests accepted for processing",
	})

	m.solvesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "solves_duplicate_total",
		Help:      "Total number of solve requests recognized as duplicates",
	})

	m.solvesCompleted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "solves_completed_total",
			Help:      "Total number of finished solves by terminal status",
		},
		[]string{"status"},
	)

	m.solveErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "solve_errors_total",
		Help:      "Total number of solves that failed with an error",
	})

	m.solveDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "solve_duration_milliseconds",
		Help:      "End-to-end solve duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.modelVariables = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_variables",
		Help:      "Number of decision variables per solved model",
		Buckets:   sizeBuckets,
	})

	m.modelConstraints = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_constraints",
		Help:      "Number of constraints per solved model",
		Buckets:   sizeBuckets,
	})

	m.lastAverageSatisfaction = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_average_satisfaction",
		Help:      "Average preference satisfaction of the most recent optimal solve",
	})

	m.lastActiveOptions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_active_options",
		Help:      "Active option count of the most recent optimal solve",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current number of queued solve jobs",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Maximum queue capacity",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization_ratio",
		Help:      "Queue utilization ratio (current size / capacity)",
	})

	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_total",
		Help:      "Total number of jobs enqueued",
	})

	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeue_total",
		Help:      "Total number of jobs dequeued",
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Total number of rejected enqueues",
	})

	m.queueLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_processing_latency_milliseconds",
		Help:      "Enqueue operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_active_count",
		Help:      "Number of active workers",
	})

	m.workerIdle = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_idle_count",
		Help:      "Number of idle workers",
	})

	m.workerJobsPerSecond = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_jobs_per_second",
		Help:      "Average jobs processed per second across workers",
	})

	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Per-job worker processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of worker processing errors",
	})

	m.storeRuns = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runstore_runs",
		Help:      "Current number of retained runs",
	})

	m.storeEvictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runstore_evicted_total",
		Help:      "Total number of runs evicted by the retention limit",
	})

	m.storeUpdateLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runstore_update_latency_milliseconds",
		Help:      "Run store write operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runstore_query_latency_milliseconds",
		Help:      "Run store read operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.dedupeEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dedupe_entries",
		Help:      "Current number of request ids held by the idempotency cache",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint, method, and status",
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

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component and type",
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Process memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
}

func recording() bool {
	return globalManager != nil && globalManager.enabled
}

// Solve lifecycle functions.

// RecordSolveSubmitted increments the accepted solve counter.
func RecordSolveSubmitted() {
	if recording() {
		globalManager.solvesSubmitted.Inc()
	}
}

// RecordSolveDuplicate increments the duplicate solve counter.
func RecordSolveDuplicate() {
	if recording() {
		globalManager.solvesDuplicate.Inc()
	}
}

// RecordSolveCompleted increments the completed solve counter for one
// terminal status name.
func RecordSolveCompleted(status string) {
	if recording() {
		globalManager.solvesCompleted.WithLabelValues(status).Inc()
	}
}

// RecordSolveError increments the failed solve counter.
func RecordSolveError() {
	if recording() {
		globalManager.solveErrors.Inc()
	}
}

// RecordSolveDuration records one end-to-end solve duration.
func RecordSolveDuration(latencyMs float64) {
	if recording() {
		globalManager.solveDuration.Observe(latencyMs)
	}
}

// RecordModelSize records the variable and constraint counts of one model.
func RecordModelSize(variables, constraints int) {
	if recording() {
		globalManager.modelVariables.Observe(float64(variables))
		globalManager.modelConstraints.Observe(float64(constraints))
	}
}

// UpdateSolveQuality publishes the quality gauges of the latest optimal
// solve.
func UpdateSolveQuality(averageSatisfaction float64, activeOptions int) {
	if recording() {
		globalManager.lastAverageSatisfaction.Set(averageSatisfaction)
		globalManager.lastActiveOptions.Set(float64(activeOptions))
	}
}

// Queue functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if recording() {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if recording() {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	if recording() {
		globalManager.queueUtilization.Set(utilization)
	}
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if recording() {
		globalManager.queueEnqueues.Inc()
	}
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if recording() {
		globalManager.queueDequeues.Inc()
	}
}

// RecordQueueEnqueueError increments the rejected enqueue counter.
func RecordQueueEnqueueError() {
	if recording() {
		globalManager.queueEnqueueErrors.Inc()
	}
}

// RecordQueueProcessingLatency records one enqueue latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	if recording() {
		globalManager.queueLatency.Observe(latencyMs)
	}
}

// Worker functions.

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	if recording() {
		globalManager.workerActive.Set(float64(count))
	}
}

// UpdateWorkerIdleCount sets the number of idle workers.
func UpdateWorkerIdleCount(count int) {
	if recording() {
		globalManager.workerIdle.Set(float64(count))
	}
}

// UpdateWorkerJobsPerSecond sets the average processing rate.
func UpdateWorkerJobsPerSecond(rate float64) {
	if recording() {
		globalManager.workerJobsPerSecond.Set(rate)
	}
}

// RecordWorkerProcessingLatency records one per-job processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if recording() {
		globalManager.workerLatency.Observe(latencyMs)
	}
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if recording() {
		globalManager.workerErrors.Inc()
	}
}

// Run store functions.

// UpdateStoreRuns sets the current number of retained runs.
func UpdateStoreRuns(count int) {
	if recording() {
		globalManager.storeRuns.Set(float64(count))
	}
}

// RecordStoreEviction increments the retention eviction counter.
func RecordStoreEviction() {
	if recording() {
		globalManager.storeEvictions.Inc()
	}
}

// RecordStoreUpdateLatency records one run store write latency.
func RecordStoreUpdateLatency(latencyMs float64) {
	if recording() {
		globalManager.storeUpdateLatency.Observe(latencyMs)
	}
}

// RecordStoreQueryLatency records one run store read latency.
func RecordStoreQueryLatency(latencyMs float64) {
	if recording() {
		globalManager.storeQueryLatency.Observe(latencyMs)
	}
}

// UpdateDedupeEntries sets the idempotency cache size gauge.
func UpdateDedupeEntries(count int64) {
	if recording() {
		globalManager.dedupeEntries.Set(float64(count))
	}
}

// HTTP functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if recording() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if recording() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// Error tracking functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if recording() {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// Process health functions.

// UpdateSystemMemoryUsage sets the process memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if recording() {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if recording() {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
