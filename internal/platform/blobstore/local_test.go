package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(logger.Nop(), t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return s
}

func TestLocalStorePutOpenDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestLocalStore(t)
	key := "project_a/task_b/file.txt"

	n, err := s.Put(ctx, key, strings.NewReader("hello"), "text/plain")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != 5 {
		t.Fatalf("Put size: want=%d got=%d", 5, n)
	}

	rc, err := s.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "hello" {
		t.Fatalf("Open body: want=%q got=%q", "hello", body)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Open(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Open after delete: want ErrNotFound got=%v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "project_a")); !os.IsNotExist(err) {
		t.Fatalf("empty project dir should be pruned, stat err=%v", err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete missing key should be nil, got %v", err)
	}
}

func TestLocalStoreRejectsCollision(t *testing.T) {
	ctx := context.Background()
	s := newTestLocalStore(t)
	if _, err := s.Put(ctx, "k/a.bin", strings.NewReader("1"), ""); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := s.Put(ctx, "k/a.bin", strings.NewReader("2"), ""); err == nil {
		t.Fatalf("second Put on same key: expected error")
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s := newTestLocalStore(t)
	for _, key := range []string{"../escape", "a/../../escape", "/etc/passwd"} {
		if _, err := s.Put(ctx, key, strings.NewReader("x"), ""); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("Put(%q): want ErrInvalidKey got=%v", key, err)
		}
	}
	parent := filepath.Dir(s.Root())
	if _, err := os.Stat(filepath.Join(parent, "escape")); !os.IsNotExist(err) {
		t.Fatalf("file written outside root")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestLocalStorePutFailureLeavesNothing(t *testing.T) {
	ctx := context.Background()
	s := newTestLocalStore(t)
	if _, err := s.Put(ctx, "p/t/x.bin", failingReader{}, ""); err == nil {
		t.Fatalf("Put: expected error")
	}
	keys, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("List after failed put: want none got=%v", keys)
	}
}

func TestLocalStoreListPrefix(t *testing.T) {
	ctx := context.Background()
	s := newTestLocalStore(t)
	for _, k := range []string{"p1/t1/a", "p1/t2/b", "p2/t1/c"} {
		if _, err := s.Put(ctx, k, strings.NewReader("x"), ""); err != nil {
			t.Fatalf("Put(%q): %v", k, err)
		}
	}
	keys, err := s.List(ctx, "p1/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("List p1/: want=2 got=%v", keys)
	}
}

func TestLocalStoreConcurrentPutDeleteSameFolder(t *testing.T) {
	ctx := context.Background()
	s := newTestLocalStore(t)

	const workers, rounds = 8, 300
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []error
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				key := fmt.Sprintf("project_p/task_t/%d_%d.bin", w, i)
				if _, err := s.Put(ctx, key, strings.NewReader("x"), ""); err != nil {
					mu.Lock()
					failures = append(failures, err)
					mu.Unlock()
					continue
				}
				if err := s.Delete(ctx, key); err != nil {
					mu.Lock()
					failures = append(failures, err)
					mu.Unlock()
				}
			}
		}(w)
	}
	wg.Wait()

	if len(failures) > 0 {
		t.Fatalf("put/delete in a shared folder: %d failures, first: %v", len(failures), failures[0])
	}
	keys, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("List after cleanup: want none got=%v", keys)
	}
}
