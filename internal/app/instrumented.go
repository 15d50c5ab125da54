package app

import (
	"context"
	"io"
	"time"

	"github.com/yungbote/taskmaster-backend/internal/observability"
	"github.com/yungbote/taskmaster-backend/internal/platform/blobstore"
	"github.com/yungbote/taskmaster-backend/internal/realtime"
	"github.com/yungbote/taskmaster-backend/internal/realtime/bus"
)

type instrumentedBlobStore struct {
	inner   blobstore.Store
	metrics *observability.Metrics
}

func instrumentBlobStore(inner blobstore.Store, metrics *observability.Metrics) blobstore.Store {
	if inner == nil || metrics == nil {
		return inner
	}
	return &instrumentedBlobStore{inner: inner, metrics: metrics}
}

func (s *instrumentedBlobStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (int64, error) {
	start := time.Now()
	n, err := s.inner.Put(ctx, key, r, contentType)
	s.metrics.ObserveBlobOperation("put", err, time.Since(start))
	return n, err
}

func (s *instrumentedBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := s.inner.Open(ctx, key)
	s.metrics.ObserveBlobOperation("open", err, time.Since(start))
	return rc, err
}

func (s *instrumentedBlobStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.inner.Delete(ctx, key)
	s.metrics.ObserveBlobOperation("delete", err, time.Since(start))
	return err
}

func (s *instrumentedBlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	start := time.Now()
	keys, err := s.inner.List(ctx, prefix)
	s.metrics.ObserveBlobOperation("list", err, time.Since(start))
	return keys, err
}

type instrumentedBus struct {
	bus.Bus
	metrics *observability.Metrics
}

func instrumentBus(inner bus.Bus, metrics *observability.Metrics) bus.Bus {
	if inner == nil || metrics == nil {
		return inner
	}
	return &instrumentedBus{Bus: inner, metrics: metrics}
}

func (b *instrumentedBus) Publish(ctx context.Context, ev realtime.Event) error {
	err := b.Bus.Publish(ctx, ev)
	b.metrics.ObserveEventPublish(string(ev.Type), err)
	return err
}
