package aggregates

import (
	"strings"
	"time"

	"github.com/rushhourgame/railnet/internal/observability"
	"github.com/rushhourgame/railnet/internal/platform/logger"
)

// Hooks receives one ObserveOperation per store call plus conflict and retry counts.
type Hooks interface {
	ObserveOperation(op, status string, dur time.Duration)
	IncConflict(op string)
	IncRetry(op string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

type metricsHooks struct {
	metrics *observability.Metrics
}

// NewObservabilityHooks reports store outcomes to the Prometheus registry of metrics.
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return &metricsHooks{metrics: metrics}
}

func (h *metricsHooks) ObserveOperation(op, status string, dur time.Duration) {
	h.metrics.ObserveAggregateOperation(strings.TrimSpace(op), strings.TrimSpace(status), dur)
}

func (h *metricsHooks) IncConflict(op string) {
	h.metrics.IncAggregateConflict(strings.TrimSpace(op))
}

func (h *metricsHooks) IncRetry(op string) {
	h.metrics.IncAggregateRetry(strings.TrimSpace(op))
}

type slowOpHooks struct {
	noopHooks
	log       *logger.Logger
	threshold time.Duration
}

// NewSlowOperationHooks warns about store calls that take at least threshold.
func NewSlowOperationHooks(log *logger.Logger, threshold time.Duration) Hooks {
	if log == nil || threshold <= 0 {
		return noopHooks{}
	}
	return &slowOpHooks{log: log.With("hooks", "SlowOperation"), threshold: threshold}
}

func (h *slowOpHooks) ObserveOperation(op, status string, dur time.Duration) {
	if dur < h.threshold {
		return
	}
	h.log.Warn("slow aggregate operation", "op", op, "status", status, "duration_ms", dur.Milliseconds())
}

type chainHooks []Hooks

// ChainHooks fans every event out to each non-nil hook in order.
func ChainHooks(hooks ...Hooks) Hooks {
	out := make(chainHooks, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			out = append(out, h)
		}
	}
	switch len(out) {
	case 0:
		return noopHooks{}
	case 1:
		return out[0]
	}
	return out
}

func (c chainHooks) ObserveOperation(op, status string, dur time.Duration) {
	for _, h := range c {
		h.ObserveOperation(op, status, dur)
	}
}

func (c chainHooks) IncConflict(op string) {
	for _, h := range c {
		h.IncConflict(op)
	}
}

func (c chainHooks) IncRetry(op string) {
	for _, h := range c {
		h.IncRetry(op)
	}
}
