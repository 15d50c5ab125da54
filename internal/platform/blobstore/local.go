package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

const createAttempts = 5

// LocalStore keeps blobs as files under a single root directory.
type LocalStore struct {
	root string
	log  *logger.Logger
}

func NewLocalStore(log *logger.Logger, root string) (*LocalStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("local blob store: empty root")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("local blob store: resolve root %q: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("local blob store: create root %q: %w", abs, err)
	}
	return &LocalStore{root: abs, log: log.With("service", "LocalStore")}, nil
}

func (s *LocalStore) Root() string { return s.root }

// Resolve maps a key to its absolute path and checks it stays inside root.
func (s *LocalStore) Resolve(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	full := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, key)
	}
	return full, nil
}

func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (int64, error) {
	full, err := s.Resolve(key)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	dir := filepath.Dir(full)
	f, err := createExclusive(dir, full)
	if err != nil {
		return 0, fmt.Errorf("create %q: %w", key, err)
	}
	n, copyErr := io.Copy(f, &ctxReader{ctx: ctx, r: r})
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(full)
		s.pruneEmptyDirs(dir)
		if copyErr != nil {
			return 0, fmt.Errorf("write %q: %w", key, copyErr)
		}
		return 0, fmt.Errorf("close %q: %w", key, closeErr)
	}
	return n, nil
}

func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	full, err := s.Resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", key, err)
	}
	return f, nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	full, err := s.Resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	s.pruneEmptyDirs(filepath.Dir(full))
	return nil
}

func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	out := []string{}
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}
	return out, nil
}

// createExclusive creates full and its parent directories. A concurrent Delete
// may prune dir between MkdirAll and OpenFile, so that window is retried.
func createExclusive(dir, full string) (*os.File, error) {
	var err error
	for attempt := 0; attempt < createAttempts; attempt++ {
		if err = os.MkdirAll(dir, 0o755); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		// O_EXCL: keys carry a fresh uuid so an existing file means a collision.
		var f *os.File
		f, err = os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, err
}

// pruneEmptyDirs removes now-empty task and project directories up to root.
func (s *LocalStore) pruneEmptyDirs(dir string) {
	for dir != s.root && strings.HasPrefix(dir, s.root) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
