package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/yungbote/taskmaster-backend/internal/platform/blobstore"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

const (
	writeTimeout = 2 * time.Minute
	readTimeout  = 2 * time.Minute
	opTimeout    = 30 * time.Second
)

// BucketService stores attachment blobs in a single GCS bucket. It satisfies
// blobstore.Store.
type BucketService struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
	mode   blobstore.Mode
}

var _ blobstore.Store = (*BucketService)(nil)

func NewBucketService(ctx context.Context, log *logger.Logger, cfg blobstore.Config) (*BucketService, error) {
	if err := blobstore.Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	client, err := newStorageClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	serviceLog := log.With("service", "BucketService")
	serviceLog.Info(
		"Object storage initialized",
		"mode", cfg.Mode,
		"mode_source", cfg.ModeSource(),
		"emulator_host", cfg.EmulatorHost,
		"bucket", cfg.Bucket,
	)
	return &BucketService{log: serviceLog, client: client, bucket: cfg.Bucket, mode: cfg.Mode}, nil
}

func newStorageClient(ctx context.Context, cfg blobstore.Config) (*storage.Client, error) {
	switch cfg.Mode {
	case blobstore.ModeGCS:
		opts := ClientOptionsFromEnv()
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case blobstore.ModeGCSEmulator:
		// the storage client only honours the emulator through the environment
		_ = os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"))
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &blobstore.ConfigError{Code: blobstore.ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}

func (bs *BucketService) Close() error {
	return bs.client.Close()
}

func (bs *BucketService) Put(ctx context.Context, key string, r io.Reader, contentType string) (int64, error) {
	if err := blobstore.ValidateKey(key); err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	obj := bs.client.Bucket(bs.bucket).Object(key).If(storage.Conditions{DoesNotExist: true})
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	n, err := writeObject(cancel, w, r)
	if errors.Is(err, errCopyFailed) {
		// backstop for a partial object that was committed despite the abort
		_ = bs.delete(context.Background(), key)
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

var errCopyFailed = errors.New("failed to write data to GCS")

// writeObject streams r into w and commits it. On a copy error the upload
// context is cancelled before Close so the writer aborts instead of
// finalising a partial object.
func writeObject(cancel context.CancelFunc, w io.WriteCloser, r io.Reader) (int64, error) {
	n, err := io.Copy(w, r)
	if err != nil {
		cancel()
		_ = w.Close()
		return 0, fmt.Errorf("%w: %w", errCopyFailed, err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return n, nil
}

// readCloserWithCancel keeps the read context alive until the caller closes
// the reader.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (bs *BucketService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := blobstore.ValidateKey(key); err != nil {
		return nil, err
	}
	ctx2, cancel := context.WithTimeout(ctx, readTimeout)
	r, err := bs.client.Bucket(bs.bucket).Object(key).NewReader(ctx2)
	if err != nil {
		cancel()
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %q", blobstore.ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

func (bs *BucketService) Delete(ctx context.Context, key string) error {
	if err := blobstore.ValidateKey(key); err != nil {
		return err
	}
	return bs.delete(ctx, key)
}

func (bs *BucketService) delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	err := bs.client.Bucket(bs.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, bs.bucket, err)
	}
	return nil
}

func (bs *BucketService) List(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	it := bs.client.Bucket(bs.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	out := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}
