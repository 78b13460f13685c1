// Package metrics provides Prometheus metrics for the career re-ranking service.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the re-ranking service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	refreshInterval  atomic.Int64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Core re-ranking metrics
	requests          *prometheus.CounterVec
	stageLatency      *prometheus.HistogramVec
	alignmentDistance prometheus.Histogram
	candidatesScored  prometheus.Counter

	// Result cache
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheEvictions prometheus.Counter
	cacheEntries   prometheus.Gauge

	// Embedding provider
	embeddings      *prometheus.CounterVec
	embeddingErrors prometheus.Counter

	// Candidate store
	candidateLoadErrors *prometheus.CounterVec
	storeLatency        *prometheus.HistogramVec

	// Request queue and worker
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueEnqueue            prometheus.Counter
	queueRejected           prometheus.Counter
	workerProcessingLatency prometheus.Histogram
	workerPanics            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage prometheus.Gauge
	systemGoroutines  prometheus.Gauge
	systemGCPause     prometheus.Histogram
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
		namespace:        "careerrank",
		subsystem:        "reranker",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)
	m.refreshInterval.Store(int64(defaultRefreshInterval))

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// Enabled reports whether the manager records observations.
func (m *Manager) Enabled() bool { return m.enabled.Load() }

// RefreshInterval is how often periodic gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration {
	return time.Duration(m.refreshInterval.Load())
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.requests = m.counterVec("requests_total",
		"Total number of re-rank requests by outcome", "outcome")
	m.stageLatency = m.histogramVec("stage_latency_milliseconds",
		"Latency of each re-rank stage in milliseconds", "stage")
	m.alignmentDistance = m.histogram("alignment_distance",
		"Soft-DTW distances between user and candidate timelines",
		[]float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32})
	m.candidatesScored = m.counter("candidates_scored_total",
		"Total number of candidates scored")

	m.cacheHits = m.counter("cache_hits_total", "Total number of result cache hits")
	m.cacheMisses = m.counter("cache_misses_total", "Total number of result cache misses")
	m.cacheEvictions = m.counter("cache_evictions_total",
		"Total number of result cache entries evicted by TTL or capacity")
	m.cacheEntries = m.gauge("cache_entries", "Current number of result cache entries")

	m.embeddings = m.counterVec("embeddings_total",
		"Total number of embeddings served by source", "source")
	m.embeddingErrors = m.counter("embedding_errors_total",
		"Total number of embedding provider failures")

	m.candidateLoadErrors = m.counterVec("candidate_load_errors_total",
		"Total number of candidates scored zero because their data failed to load", "reason")
	m.storeLatency = m.histogramVec("store_latency_milliseconds",
		"Candidate store operation latency in milliseconds", "backend", "operation")

	m.queueSize = m.gauge("queue_size", "Current number of pending re-rank jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of pending re-rank jobs")
	m.queueEnqueue = m.counter("queue_enqueue_total", "Total number of jobs enqueued")
	m.queueRejected = m.counter("queue_rejected_total",
		"Total number of jobs rejected because the queue was full")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Time the worker spent on a single job in milliseconds", m.histogramBuckets)
	m.workerPanics = m.counter("worker_panics_total", "Total number of recovered worker panics")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutines = m.gauge("system_goroutines", "Current number of goroutines")
	m.systemGCPause = m.histogram("system_gc_pause_milliseconds",
		"Average GC pause time in milliseconds", []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50})
}

// SetEnabled turns recording through the package-level functions on or off.
func SetEnabled(enabled bool) { globalManager.enabled.Store(enabled) }

// SetRefreshInterval changes the global refresh interval. Non-positive
// values are ignored.
func SetRefreshInterval(interval time.Duration) {
	if interval > 0 {
		globalManager.refreshInterval.Store(int64(interval))
	}
}

// RefreshInterval returns the global refresh interval.
func RefreshInterval() time.Duration { return globalManager.RefreshInterval() }

// active returns the global manager when recording is enabled.
func active() *Manager {
	if globalManager.Enabled() {
		return globalManager
	}
	return nil
}

// RecordRequest counts a finished re-rank request. outcome is one of
// "computed", "cached" or "error".
func RecordRequest(outcome string) {
	if m := active(); m != nil {
		m.requests.WithLabelValues(outcome).Inc()
	}
}

// RecordStageLatency records how long a re-rank stage took.
func RecordStageLatency(stage string, latencyMs float64) {
	if m := active(); m != nil {
		m.stageLatency.WithLabelValues(stage).Observe(latencyMs)
	}
}

// RecordAlignmentDistance records a soft-DTW distance.
func RecordAlignmentDistance(distance float64) {
	if m := active(); m != nil {
		m.alignmentDistance.Observe(distance)
	}
}

// RecordCandidatesScored adds n scored candidates.
func RecordCandidatesScored(n int) {
	if m := active(); m != nil {
		m.candidatesScored.Add(float64(n))
	}
}

// RecordCacheHit increments the result cache hit counter.
func RecordCacheHit() {
	if m := active(); m != nil {
		m.cacheHits.Inc()
	}
}

// RecordCacheMiss increments the result cache miss counter.
func RecordCacheMiss() {
	if m := active(); m != nil {
		m.cacheMisses.Inc()
	}
}

// RecordCacheEvictions adds n evicted cache entries.
func RecordCacheEvictions(n int) {
	if m := active(); m != nil && n > 0 {
		m.cacheEvictions.Add(float64(n))
	}
}

// UpdateCacheEntries sets the current result cache size.
func UpdateCacheEntries(n int) {
	if m := active(); m != nil {
		m.cacheEntries.Set(float64(n))
	}
}

// RecordEmbedding counts an embedding served from source ("memo" or "provider").
func RecordEmbedding(source string) {
	if m := active(); m != nil {
		m.embeddings.WithLabelValues(source).Inc()
	}
}

// RecordEmbeddingError increments the embedding failure counter.
func RecordEmbeddingError() {
	if m := active(); m != nil {
		m.embeddingErrors.Inc()
	}
}

// RecordCandidateLoadError counts a candidate isolated by a load failure.
func RecordCandidateLoadError(reason string) {
	if m := active(); m != nil {
		m.candidateLoadErrors.WithLabelValues(reason).Inc()
	}
}

// RecordStoreLatency records a candidate store operation latency.
func RecordStoreLatency(backend, operation string, latencyMs float64) {
	if m := active(); m != nil {
		m.storeLatency.WithLabelValues(backend, operation).Observe(latencyMs)
	}
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if m := active(); m != nil {
		m.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if m := active(); m != nil {
		m.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if m := active(); m != nil {
		m.queueEnqueue.Inc()
	}
}

// RecordQueueRejected increments the backpressure counter.
func RecordQueueRejected() {
	if m := active(); m != nil {
		m.queueRejected.Inc()
	}
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if m := active(); m != nil {
		m.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordWorkerPanic increments the recovered panic counter.
func RecordWorkerPanic() {
	if m := active(); m != nil {
		m.workerPanics.Inc()
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if m := active(); m != nil {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if m := active(); m != nil {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if m := active(); m != nil {
		m.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	if m := active(); m != nil {
		m.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(n int) {
	if m := active(); m != nil {
		m.systemGoroutines.Set(float64(n))
	}
}

// RecordSystemGCPauseTime records the average GC pause.
func RecordSystemGCPauseTime(ms float64) {
	if m := active(); m != nil {
		m.systemGCPause.Observe(ms)
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
