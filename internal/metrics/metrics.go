// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache metrics
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlog_cache_lookups_total",
			Help: "Cache lookups by key and result",
		},
		[]string{"key", "result"}, // "hit", "miss", "error"
	)

	// Tabular store metrics
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlog_store_operations_total",
			Help: "Tabular store operations by table, operation and status",
		},
		[]string{"table", "operation", "status"},
	)

	StoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playlog_store_operation_duration_seconds",
			Help:    "Duration of tabular store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"table", "operation"},
	)

	// Metadata provider metrics
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlog_bgg_requests_total",
			Help: "BoardGameGeek API requests by operation and status",
		},
		[]string{"operation", "status"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playlog_bgg_request_duration_seconds",
			Help:    "Duration of BoardGameGeek API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Collection sync metrics
	SyncItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlog_collection_sync_items_total",
			Help: "Collection items processed by sync, by result",
		},
		[]string{"result"}, // "synced", "not_found", "error"
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "playlog_collection_sync_duration_seconds",
			Help:    "Duration of full collection syncs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
	)

	// Play metrics
	PlaysCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlog_plays_created_total",
			Help: "Plays recorded by source",
		},
		[]string{"source"}, // "http", "kafka"
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "playlog_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlog_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// WebSocket metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "playlog_websocket_connections",
			Help: "Open websocket connections",
		},
	)
)

// ObserveStore records the outcome of one tabular store call
func ObserveStore(table, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StoreOperations.WithLabelValues(table, operation, status).Inc()
	StoreDuration.WithLabelValues(table, operation).Observe(time.Since(start).Seconds())
}

// ObserveProvider records the outcome of one metadata provider request
func ObserveProvider(operation, status string, start time.Time) {
	ProviderRequests.WithLabelValues(operation, status).Inc()
	ProviderDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
