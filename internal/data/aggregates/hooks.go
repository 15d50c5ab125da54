package aggregates

import (
	"strings"
	"time"

	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

// Hooks captures aggregate-level observability events.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

type logHooks struct {
	log  *logger.Logger
	slow time.Duration
}

// NewLogHooks reports operations slower than slow and every conflict/retry
// through the structured logger.
func NewLogHooks(log *logger.Logger, slow time.Duration) Hooks {
	if log == nil {
		return noopHooks{}
	}
	return &logHooks{log: log.With("component", "AggregateHooks"), slow: slow}
}

func (h *logHooks) ObserveOperation(name, status string, dur time.Duration) {
	if h.slow > 0 && dur >= h.slow {
		h.log.Warn("Slow aggregate operation", "op", strings.TrimSpace(name), "status", status, "duration_ms", dur.Milliseconds())
		return
	}
	h.log.Debug("Aggregate operation", "op", strings.TrimSpace(name), "status", status, "duration_ms", dur.Milliseconds())
}

func (h *logHooks) IncConflict(name string) {
	h.log.Info("Aggregate conflict", "op", strings.TrimSpace(name))
}

func (h *logHooks) IncRetry(name string) {
	h.log.Warn("Aggregate retryable failure", "op", strings.TrimSpace(name))
}
