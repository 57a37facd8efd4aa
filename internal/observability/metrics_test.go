package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsAggregateCounters(t *testing.T) {
	m := NewMetrics("railnet_test")
	m.ObserveAggregateOperation("Railway.Station.Update", "success", 5*time.Millisecond)
	m.ObserveAggregateOperation("Railway.Station.Update", "conflict", 2*time.Millisecond)
	m.IncAggregateConflict("Railway.Station.Update")

	if got := testutil.ToFloat64(m.aggregateOps.WithLabelValues("Railway.Station.Update", "success")); got != 1 {
		t.Fatalf("success ops: want=1 got=%v", got)
	}
	if got := testutil.ToFloat64(m.aggregateConflicts.WithLabelValues("Railway.Station.Update")); got != 1 {
		t.Fatalf("conflicts: want=1 got=%v", got)
	}
	if n := testutil.CollectAndCount(m.aggregateLatency); n != 1 {
		t.Fatalf("latency series: want=1 got=%d", n)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAggregateOperation("op", "success", time.Millisecond)
	m.IncAggregateConflict("op")
	m.IncAggregateRetry("op")
	m.IncDBStatement("query")
	m.IncEdgeCache("track", true)
	m.IncEdgeResolution("track", false)
	if m.Registry() != nil {
		t.Fatalf("nil metrics should have nil registry")
	}
}

func TestEdgeCounters(t *testing.T) {
	m := NewMetrics("")
	m.IncEdgeCache("track", true)
	m.IncEdgeCache("track", false)
	m.IncEdgeCache("track", false)
	m.IncEdgeResolution("station", false)
	if got := testutil.ToFloat64(m.edgeCache.WithLabelValues("track", "miss")); got != 2 {
		t.Fatalf("cache misses: want=2 got=%v", got)
	}
	if got := testutil.ToFloat64(m.edgeResolutions.WithLabelValues("station", "dangling")); got != 1 {
		t.Fatalf("dangling: want=1 got=%v", got)
	}
}

func TestParseHeaders(t *testing.T) {
	h := ParseHeaders(" a=1, b = two ,broken,=x")
	if len(h) != 2 || h["a"] != "1" || h["b"] != "two" {
		t.Fatalf("unexpected headers: %+v", h)
	}
	if ParseHeaders("") != nil {
		t.Fatalf("empty input should give nil")
	}
}
