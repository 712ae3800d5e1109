package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation outcomes recorded per repository call.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics holds the custom Prometheus metrics for the data-access layer.
// They complement the per-route HTTP metrics the fiberprometheus middleware
// already exports. All record methods are nil-safe so a repository without
// metrics attached keeps working.
type Metrics struct {
	// Query cache effectiveness
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Repository calls by operation and outcome. Outcome is "ok",
	// "rejected" (validation stopped the call before the store) or
	// "error" (the store call failed).
	Operations *prometheus.CounterVec
}

// New creates the metrics and registers them on the given registerer. Use
// prometheus.DefaultRegisterer in main so the /metrics endpoint serves
// them; tests pass a fresh prometheus.NewRegistry to avoid duplicate
// registration panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "shelterstore_cache_hits_total",
			Help: "Total number of reads served from the query cache",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "shelterstore_cache_misses_total",
			Help: "Total number of reads that had to query the store",
		}),
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shelterstore_operations_total",
			Help: "Total repository operations by operation and outcome",
		}, []string{"operation", "outcome"}),
	}
}

// RecordCacheHit records a read served from the cache.
func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

// RecordCacheMiss records a read that queried the store.
func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}

// RecordOperation records one repository call with its outcome.
func (m *Metrics) RecordOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
}
