package services

import (
	"context"
	"time"

	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
	"github.com/yungbote/taskmaster-backend/internal/realtime"
	"github.com/yungbote/taskmaster-backend/internal/realtime/bus"
)

const publishTimeout = 2 * time.Second

// eventPublisher announces committed changes. Delivery is best effort: the
// change is already durable, so a failed publish is only logged.
type eventPublisher struct {
	bus bus.Bus
	log *logger.Logger
}

func newEventPublisher(b bus.Bus, log *logger.Logger) eventPublisher {
	return eventPublisher{bus: b, log: log}
}

func (p eventPublisher) publish(ctx context.Context, ev realtime.Event) {
	if p.bus == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.bus.Publish(ctx, ev); err != nil {
		p.log.Warn("Failed to publish event", "event", ev.Type, "project_id", ev.ProjectID, "error", err)
	}
}
