package aggregates

import (
	"testing"
	"time"

	"github.com/rushhourgame/railnet/internal/observability"
	"github.com/rushhourgame/railnet/internal/platform/logger"
)

func TestChainHooksFansOut(t *testing.T) {
	a, b := &spyHooks{}, &spyHooks{}
	h := ChainHooks(a, nil, b)
	h.ObserveOperation("Railway.Track.Update", "conflict", time.Millisecond)
	h.IncConflict("Railway.Track.Update")
	h.IncRetry("Railway.Track.Create")

	for i, s := range []*spyHooks{a, b} {
		if len(s.Operations) != 1 || len(s.Conflicts) != 1 || len(s.Retries) != 1 {
			t.Fatalf("hook %d missed events: %+v", i, s)
		}
	}
	if _, ok := ChainHooks(a).(*spyHooks); !ok {
		t.Fatalf("a single hook should be returned as is")
	}
	if _, ok := ChainHooks().(noopHooks); !ok {
		t.Fatalf("empty chain should be a noop")
	}
}

func TestHookConstructorsFallBackToNoop(t *testing.T) {
	if _, ok := NewObservabilityHooks(nil).(noopHooks); !ok {
		t.Fatalf("nil metrics should give noop hooks")
	}
	if _, ok := NewSlowOperationHooks(logger.Nop(), 0).(noopHooks); !ok {
		t.Fatalf("zero threshold should give noop hooks")
	}
	h := NewSlowOperationHooks(logger.Nop(), time.Millisecond)
	h.ObserveOperation("Railway.Station.Create", "success", time.Second)
	h.IncConflict("Railway.Station.Create")
}

func TestObservabilityHooksTrimOperationNames(t *testing.T) {
	m := observability.NewMetrics("hooks_test")
	h := NewObservabilityHooks(m)
	h.ObserveOperation(" Railway.Station.Create ", "success", time.Millisecond)
	h.IncConflict("Railway.Station.Update")
	h.IncRetry("Railway.Station.Update")

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var sawOp bool
	for _, f := range families {
		if f.GetName() != "hooks_test_aggregate_operations_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "op" && l.GetValue() == "Railway.Station.Create" {
					sawOp = true
				}
			}
		}
	}
	if !sawOp {
		t.Fatalf("operation counter with trimmed op label not found")
	}
}
