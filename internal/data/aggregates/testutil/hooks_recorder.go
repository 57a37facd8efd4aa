package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/rushhourgame/railnet/internal/data/aggregates"
)

// HooksRecorder captures aggregate hook signals in tests.
type HooksRecorder struct {
	mu sync.Mutex

	Operations []OperationEvent
	Conflicts  []string
	Retries    []string
}

type OperationEvent struct {
	Name     string
	Status   string
	Duration time.Duration
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) ObserveOperation(name, status string, dur time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Operations = append(h.Operations, OperationEvent{
		Name:     name,
		Status:   status,
		Duration: dur,
	})
}

func (h *HooksRecorder) IncConflict(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Conflicts = append(h.Conflicts, name)
}

func (h *HooksRecorder) IncRetry(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Retries = append(h.Retries, name)
}

// Statuses returns the recorded statuses of one operation, oldest first.
func (h *HooksRecorder) Statuses(name string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, ev := range h.Operations {
		if ev.Name == name {
			out = append(out, ev.Status)
		}
	}
	return out
}

// ChangeRecorder is a ChangeListener that keeps every committed change.
type ChangeRecorder struct {
	mu sync.Mutex

	Changes []aggregates.Change
	// Err, when set, is returned from every call after recording.
	Err error
}

var _ aggregates.ChangeListener = (*ChangeRecorder)(nil)

func (r *ChangeRecorder) RootChanged(_ context.Context, change aggregates.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Changes = append(r.Changes, change)
	return r.Err
}

func (r *ChangeRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Changes)
}
