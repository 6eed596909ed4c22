// Package metrics provides Prometheus metrics for the card art voter.
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
	registry         prometheus.Registerer

	// Voting metrics
	votesAccepted prometheus.Counter
	votesRejected *prometheus.CounterVec
	pairsIssued   prometheus.Counter
	tokensExpired prometheus.Counter
	ratingDelta   prometheus.Histogram

	// Catalog metrics
	cardsIngested prometheus.Counter
	cardsTotal    prometheus.Gauge
	cardsEnabled  prometheus.Gauge

	// Ingest queue metrics
	ingestQueueSize        prometheus.Gauge
	ingestQueueCapacity    prometheus.Gauge
	ingestQueueUtilization prometheus.Gauge
	ingestEnqueueErrors    prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Repository metrics
	repositoryOpLatency *prometheus.HistogramVec
	repositoryErrors    prometheus.Counter

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "cardartvoter",
		subsystem:        "voting",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.votesAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_total",
		Help:      "Total number of accepted votes",
	})
	m.votesRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_rejected_total",
		Help:      "Total number of rejected votes by reason",
	}, []string{"reason"})
	m.pairsIssued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pairs_issued_total",
		Help:      "Total number of pair tokens issued",
	})
	m.tokensExpired = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pair_tokens_expired_total",
		Help:      "Total number of pair tokens reclaimed by expiry",
	})
	m.ratingDelta = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_delta",
		Help:      "Histogram of applied Elo rating deltas",
		Buckets:   []float64{1, 2, 4, 8, 12, 16, 24, 32, 48},
	})

	m.cardsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "catalog",
		Name:      "cards_ingested_total",
		Help:      "Total number of newly ingested cards",
	})
	m.cardsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "catalog",
		Name:      "cards_total",
		Help:      "Number of cards known to the catalog",
	})
	m.cardsEnabled = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "catalog",
		Name:      "cards_enabled",
		Help:      "Number of enabled cards eligible for voting",
	})

	m.ingestQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "ingest",
		Name:      "queue_size",
		Help:      "Current number of queued catalog records",
	})
	m.ingestQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "ingest",
		Name:      "queue_capacity",
		Help:      "Capacity of the catalog ingest queue",
	})
	m.ingestQueueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "ingest",
		Name:      "queue_utilization",
		Help:      "Fraction of the ingest queue in use",
	})
	m.ingestEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "ingest",
		Name:      "enqueue_errors_total",
		Help:      "Total number of rejected ingest enqueues (backpressure)",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "Histogram of HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.repositoryOpLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "repository",
		Name:      "op_latency_milliseconds",
		Help:      "Histogram of repository operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"op"})
	m.repositoryErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "repository",
		Name:      "errors_total",
		Help:      "Total number of repository errors",
	})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_bytes",
		Help:      "Current allocated memory in bytes",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutines",
		Help:      "Current number of goroutines",
	})
}

// Package-level helpers operating on the global manager.

// RecordVoteAccepted increments the accepted vote counter and observes delta.
func RecordVoteAccepted(delta int) {
	globalManager.votesAccepted.Inc()
	globalManager.ratingDelta.Observe(float64(delta))
}

// RecordVoteRejected increments the rejection counter for a reason label.
func RecordVoteRejected(reason string) {
	globalManager.votesRejected.WithLabelValues(reason).Inc()
}

// RecordPairIssued increments the issued pair counter.
func RecordPairIssued() {
	globalManager.pairsIssued.Inc()
}

// RecordTokensExpired adds to the expired token counter.
func RecordTokensExpired(n int) {
	globalManager.tokensExpired.Add(float64(n))
}

// RecordCardIngested increments the ingested card counter.
func RecordCardIngested() {
	globalManager.cardsIngested.Inc()
}

// UpdateCardCounts updates the catalog gauges.
func UpdateCardCounts(total, enabled int) {
	globalManager.cardsTotal.Set(float64(total))
	globalManager.cardsEnabled.Set(float64(enabled))
}

// UpdateIngestQueue updates ingest queue gauges.
func UpdateIngestQueue(size, capacity int) {
	globalManager.ingestQueueSize.Set(float64(size))
	globalManager.ingestQueueCapacity.Set(float64(capacity))
	if capacity > 0 {
		globalManager.ingestQueueUtilization.Set(float64(size) / float64(capacity))
	}
}

// RecordIngestEnqueueError increments the ingest backpressure counter.
func RecordIngestEnqueueError() {
	globalManager.ingestEnqueueErrors.Inc()
}

// RecordHTTPRequest records one HTTP request with its duration.
func RecordHTTPRequest(endpoint, method, status string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(durationMs)
}

// RecordRepositoryOp records the latency of one repository operation.
func RecordRepositoryOp(op string, latencyMs float64) {
	globalManager.repositoryOpLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordRepositoryError increments the repository error counter.
func RecordRepositoryError() {
	globalManager.repositoryErrors.Inc()
}

// UpdateSystemMemoryUsage sets the allocated memory gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom registry for the /metrics endpoint.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
