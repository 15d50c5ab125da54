package testutil

import (
	"sync"
	"time"

	"github.com/yungbote/taskmaster-backend/internal/data/aggregates"
)

// HooksRecorder keeps every aggregate outcome so tests can check what an
// operation reported, not only what it returned.
type HooksRecorder struct {
	mu        sync.Mutex
	ops       []OperationEvent
	conflicts map[string]int
	retries   map[string]int
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
	h.ops = append(h.ops, OperationEvent{Name: name, Status: status, Duration: dur})
}

func (h *HooksRecorder) IncConflict(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conflicts == nil {
		h.conflicts = map[string]int{}
	}
	h.conflicts[name]++
}

func (h *HooksRecorder) IncRetry(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.retries == nil {
		h.retries = map[string]int{}
	}
	h.retries[name]++
}

// Operations returns a copy of the observed operations in call order.
func (h *HooksRecorder) Operations() []OperationEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]OperationEvent(nil), h.ops...)
}

// LastStatus is the status of the most recent call to op.
func (h *HooksRecorder) LastStatus(op string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.ops) - 1; i >= 0; i-- {
		if h.ops[i].Name == op {
			return h.ops[i].Status, true
		}
	}
	return "", false
}

func (h *HooksRecorder) Conflicts(op string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conflicts[op]
}

func (h *HooksRecorder) Retries(op string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.retries[op]
}
