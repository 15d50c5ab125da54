package bus

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
	"github.com/yungbote/taskmaster-backend/internal/realtime"
)

func TestMemoryBusForwardsToEveryForwarder(t *testing.T) {
	b := NewMemoryBus()
	ctx := context.Background()

	var first, second []realtime.EventType
	if err := b.StartForwarder(ctx, func(ev realtime.Event) { first = append(first, ev.Type) }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	if err := b.StartForwarder(ctx, func(ev realtime.Event) { second = append(second, ev.Type) }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	if err := b.StartForwarder(ctx, nil); err == nil {
		t.Fatalf("nil forwarder: expected error")
	}

	ev := realtime.NewProjectEvent(realtime.EventTaskCreated, uuid.New(), uuid.New(), uuid.New(), nil)
	if err := b.Publish(ctx, ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(first) != 1 || len(second) != 1 || first[0] != realtime.EventTaskCreated {
		t.Fatalf("forwarded: first=%v second=%v", first, second)
	}

	_ = b.Close()
	if err := b.Publish(ctx, ev); err == nil {
		t.Fatalf("publish after close: expected error")
	}
}

func TestDecodeEvent(t *testing.T) {
	ev := realtime.NewProjectEvent(realtime.EventCommentAdded, uuid.New(), uuid.New(), uuid.New(), map[string]any{"task_id": "x"})
	raw, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := decodeEvent(string(raw))
	if err != nil {
		t.Fatalf("decodeEvent: %v", err)
	}
	if got.Channel != ev.Channel || got.ProjectID != ev.ProjectID || got.Type != ev.Type {
		t.Fatalf("decoded: want=%+v got=%+v", ev, got)
	}

	for _, bad := range []string{"not json", `{"event":"TaskCreated"}`, `{"channel":"project:x"}`} {
		if _, err := decodeEvent(bad); err == nil {
			t.Fatalf("decodeEvent(%q): expected error", bad)
		}
	}
}

func TestNewRedisBusRequiresAddr(t *testing.T) {
	_, err := NewRedisBus(context.Background(), logger.Nop(), RedisConfig{})
	if err == nil || !strings.Contains(err.Error(), "REDIS_ADDR") {
		t.Fatalf("missing addr: got=%v", err)
	}
}

func TestRedisBusRoundTrip(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b, err := NewRedisBus(ctx, logger.Nop(), RedisConfig{Addr: addr, Channel: "taskmaster.test." + uuid.NewString()})
	if err != nil {
		t.Fatalf("NewRedisBus: %v", err)
	}
	defer b.Close()

	got := make(chan realtime.Event, 1)
	if err := b.StartForwarder(ctx, func(ev realtime.Event) { got <- ev }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	ev := realtime.NewProjectEvent(realtime.EventMemberAdded, uuid.New(), uuid.New(), uuid.New(), nil)
	if err := b.Publish(ctx, ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case rcv := <-got:
		if rcv.Type != ev.Type || rcv.SubjectID != ev.SubjectID {
			t.Fatalf("received: want=%+v got=%+v", ev, rcv)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for redis event")
	}
}
