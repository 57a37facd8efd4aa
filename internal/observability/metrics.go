package observability

import (
	"database/sql"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics owns a private registry so tests and the CLI never collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	aggregateOps       *prometheus.CounterVec
	aggregateLatency   *prometheus.HistogramVec
	aggregateConflicts *prometheus.CounterVec
	aggregateRetries   *prometheus.CounterVec
	dbQueries          *prometheus.CounterVec
	edgeCache          *prometheus.CounterVec
	edgeResolutions    *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = "railnet"
	}
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		aggregateOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_operations_total",
			Help:      "Aggregate store operations by operation and outcome.",
		}, []string{"op", "status"}),
		aggregateLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregate_operation_duration_seconds",
			Help:      "Aggregate store operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"op"}),
		aggregateConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_conflicts_total",
			Help:      "Optimistic concurrency conflicts surfaced to callers.",
		}, []string{"op"}),
		aggregateRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_retryable_total",
			Help:      "Retryable failures (cancellation, serialization) surfaced to callers.",
		}, []string{"op"}),
		dbQueries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_statements_total",
			Help:      "SQL statements issued through GORM by kind.",
		}, []string{"kind"}),
		edgeCache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edge_cache_lookups_total",
			Help:      "Graph-edge resolver cache lookups by result.",
		}, []string{"aggregate", "result"}),
		edgeResolutions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edge_resolutions_total",
			Help:      "Weak reference resolutions by outcome (found, dangling).",
		}, []string{"aggregate", "outcome"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RegisterDBStats exports database/sql pool statistics.
func (m *Metrics) RegisterDBStats(db *sql.DB, dbName string) error {
	if m == nil || db == nil {
		return nil
	}
	return m.registry.Register(collectors.NewDBStatsCollector(db, dbName))
}

// WriteTextfile dumps the registry in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.WithLabelValues(op, status).Inc()
	m.aggregateLatency.WithLabelValues(op).Observe(dur.Seconds())
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.WithLabelValues(op).Inc()
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetries.WithLabelValues(op).Inc()
}

func (m *Metrics) IncDBStatement(kind string) {
	if m == nil {
		return
	}
	m.dbQueries.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncEdgeCache(aggregate string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.edgeCache.WithLabelValues(aggregate, result).Inc()
}

func (m *Metrics) IncEdgeResolution(aggregate string, found bool) {
	if m == nil {
		return
	}
	outcome := "dangling"
	if found {
		outcome = "found"
	}
	m.edgeResolutions.WithLabelValues(aggregate, outcome).Inc()
}
