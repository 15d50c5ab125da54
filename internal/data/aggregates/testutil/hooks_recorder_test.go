package testutil

import (
	"sync"
	"testing"
	"time"
)

func TestHooksRecorderLastStatusPerOperation(t *testing.T) {
	h := &HooksRecorder{}
	if _, ok := h.LastStatus("Tracker.Task.Create"); ok {
		t.Fatalf("empty recorder should report no status")
	}
	h.ObserveOperation("Tracker.Task.Create", "validation", time.Millisecond)
	h.ObserveOperation("Tracker.Project.Get", "success", time.Millisecond)
	h.ObserveOperation("Tracker.Task.Create", "success", 2*time.Millisecond)

	if got, _ := h.LastStatus("Tracker.Task.Create"); got != "success" {
		t.Fatalf("last status: want=success got=%s", got)
	}
	ops := h.Operations()
	if len(ops) != 3 || ops[0].Status != "validation" || ops[2].Duration != 2*time.Millisecond {
		t.Fatalf("operations: %+v", ops)
	}
	ops[0].Status = "mutated"
	if h.Operations()[0].Status != "validation" {
		t.Fatalf("Operations must return a copy")
	}
}

func TestHooksRecorderCountsAreSafeConcurrently(t *testing.T) {
	h := &HooksRecorder{}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.IncConflict("Tracker.Project.AddMember")
			h.IncRetry("Tracker.Task.Update")
		}()
	}
	wg.Wait()
	if h.Conflicts("Tracker.Project.AddMember") != 20 || h.Retries("Tracker.Task.Update") != 20 {
		t.Fatalf("counts: conflicts=%d retries=%d", h.Conflicts("Tracker.Project.AddMember"), h.Retries("Tracker.Task.Update"))
	}
	if h.Conflicts("Tracker.Task.Update") != 0 {
		t.Fatalf("unrelated op should have no conflicts")
	}
}
