package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordCacheHit()
	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.RecordOperation("read", OutcomeOK)
	m.RecordOperation("update", OutcomeRejected)

	if got := testutil.ToFloat64(m.CacheHits); got != 2 {
		t.Errorf("cache hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CacheMisses); got != 1 {
		t.Errorf("cache misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Operations.WithLabelValues("read", OutcomeOK)); got != 1 {
		t.Errorf("read/ok operations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Operations.WithLabelValues("update", OutcomeRejected)); got != 1 {
		t.Errorf("update/rejected operations = %v, want 1", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"shelterstore_cache_hits_total",
		"shelterstore_cache_misses_total",
		"shelterstore_operations_total",
	} {
		if !names[want] {
			t.Errorf("metric %q not registered", want)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.RecordOperation("read", OutcomeError)
}
