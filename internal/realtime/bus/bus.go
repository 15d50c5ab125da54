package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/taskmaster-backend/internal/realtime"
)

// Bus carries committed domain events between API instances. Publish is
// called after the transaction commits; forwarders deliver to the local hub.
type Bus interface {
	Publish(ctx context.Context, ev realtime.Event) error
	StartForwarder(ctx context.Context, onEvent func(ev realtime.Event)) error
	Close() error
}

type memoryBus struct {
	mu         sync.RWMutex
	forwarders []func(realtime.Event)
	closed     bool
}

// NewMemoryBus delivers events in-process. It serves single instance
// deployments and tests.
func NewMemoryBus() Bus {
	return &memoryBus{}
}

func (b *memoryBus) Publish(ctx context.Context, ev realtime.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("event bus closed")
	}
	for _, fn := range b.forwarders {
		fn(ev)
	}
	return nil
}

func (b *memoryBus) StartForwarder(ctx context.Context, onEvent func(ev realtime.Event)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("event bus closed")
	}
	b.forwarders = append(b.forwarders, onEvent)
	return nil
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.forwarders = nil
	return nil
}
