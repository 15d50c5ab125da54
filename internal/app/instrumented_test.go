package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/taskmaster-backend/internal/observability"
	"github.com/yungbote/taskmaster-backend/internal/realtime"
	"github.com/yungbote/taskmaster-backend/internal/realtime/bus"
)

type fakeStore struct {
	puts, opens, deletes, lists int
	deleteErr                   error
}

func (f *fakeStore) Put(_ context.Context, _ string, r io.Reader, _ string) (int64, error) {
	f.puts++
	return io.Copy(io.Discard, r)
}

func (f *fakeStore) Open(context.Context, string) (io.ReadCloser, error) {
	f.opens++
	return io.NopCloser(strings.NewReader("x")), nil
}

func (f *fakeStore) Delete(context.Context, string) error {
	f.deletes++
	return f.deleteErr
}

func (f *fakeStore) List(context.Context, string) ([]string, error) {
	f.lists++
	return []string{"a"}, nil
}

func scrape(t *testing.T, m *observability.Metrics) string {
	t.Helper()
	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	return buf.String()
}

func TestInstrumentBlobStorePassThrough(t *testing.T) {
	inner := &fakeStore{deleteErr: errors.New("bucket gone")}
	metrics := observability.NewMetrics()
	store := instrumentBlobStore(inner, metrics)
	ctx := context.Background()

	if n, err := store.Put(ctx, "k", strings.NewReader("hello"), "text/plain"); err != nil || n != 5 {
		t.Fatalf("Put: n=%d err=%v", n, err)
	}
	rc, err := store.Open(ctx, "k")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = rc.Close()
	if _, err := store.List(ctx, ""); err != nil {
		t.Fatalf("List: %v", err)
	}
	if err := store.Delete(ctx, "k"); !errors.Is(err, inner.deleteErr) {
		t.Fatalf("Delete: want=%v got=%v", inner.deleteErr, err)
	}

	if inner.puts != 1 || inner.opens != 1 || inner.lists != 1 || inner.deletes != 1 {
		t.Fatalf("unexpected call counts: %+v", inner)
	}
	out := scrape(t, metrics)
	for _, want := range []string{
		`tm_blob_operations_total{operation="put",result="success"} 1`,
		`tm_blob_operations_total{operation="delete",result="error"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestInstrumentBlobStoreWithoutMetricsIsIdentity(t *testing.T) {
	inner := &fakeStore{}
	if got := instrumentBlobStore(inner, nil); got != inner {
		t.Fatalf("expected inner store back when metrics are disabled")
	}
}

func TestInstrumentBusCountsPublishes(t *testing.T) {
	metrics := observability.NewMetrics()
	b := instrumentBus(bus.NewMemoryBus(), metrics)

	var got []realtime.EventType
	if err := b.StartForwarder(context.Background(), func(ev realtime.Event) { got = append(got, ev.Type) }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	ev := realtime.NewProjectEvent(realtime.EventTaskCreated, uuid.New(), uuid.New(), uuid.New(), nil)
	if err := b.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	_ = b.Close()
	if err := b.Publish(context.Background(), ev); err == nil {
		t.Fatalf("expected publish on closed bus to fail")
	}

	if len(got) != 1 || got[0] != realtime.EventTaskCreated {
		t.Fatalf("forwarded: got=%v", got)
	}
	out := scrape(t, metrics)
	for _, want := range []string{
		`tm_events_published_total{event="TaskCreated",result="success"} 1`,
		`tm_events_published_total{event="TaskCreated",result="error"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
