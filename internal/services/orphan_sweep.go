package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/taskmaster-backend/internal/data/repos"
	types "github.com/yungbote/taskmaster-backend/internal/domain"
	"github.com/yungbote/taskmaster-backend/internal/platform/blobstore"
	"github.com/yungbote/taskmaster-backend/internal/platform/dbctx"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

const (
	sweepLookupBatch        = 500
	defaultSweepConcurrency = 4
	auditScanLimit          = 1000
)

// OrphanSweeper removes blobs that no attachment record references. Such
// blobs are left behind when a blob delete fails during attachment, task or
// project deletion, or when a compensating delete after a failed commit
// fails as well.
type OrphanSweeper interface {
	Sweep(ctx context.Context, opts SweepOptions) (SweepResult, error)
}

type SweepOptions struct {
	Prefix string
	// DryRun reports orphans without deleting them.
	DryRun      bool
	Concurrency int
	// Grace re-checks candidates after this delay so uploads whose record
	// has not committed yet are not mistaken for orphans.
	Grace time.Duration
}

type SweepResult struct {
	Scanned int
	Orphans []string
	Deleted int
	Failed  int
	// Audited counts orphans that were recorded as failed blob deletes.
	Audited int
}

type orphanSweeper struct {
	log         *logger.Logger
	store       blobstore.Store
	attachments repos.AttachmentRepo
	activity    repos.ActivityRepo
}

func NewOrphanSweeper(log *logger.Logger, store blobstore.Store, attachments repos.AttachmentRepo, activity repos.ActivityRepo) OrphanSweeper {
	return &orphanSweeper{
		log:         log.With("service", "OrphanSweeper"),
		store:       store,
		attachments: attachments,
		activity:    activity,
	}
}

func (s *orphanSweeper) Sweep(ctx context.Context, opts SweepOptions) (SweepResult, error) {
	var res SweepResult
	if s.store == nil {
		return res, fmt.Errorf("blob store not configured")
	}
	keys, err := s.store.List(ctx, opts.Prefix)
	if err != nil {
		return res, fmt.Errorf("list blobs: %w", err)
	}
	res.Scanned = len(keys)

	candidates, err := s.unreferenced(ctx, keys)
	if err != nil {
		return res, err
	}
	if len(candidates) > 0 && opts.Grace > 0 {
		s.log.Info("Waiting before re-checking orphan candidates", "candidates", len(candidates), "grace", opts.Grace.String())
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-time.After(opts.Grace):
		}
		if candidates, err = s.unreferenced(ctx, candidates); err != nil {
			return res, err
		}
	}
	sort.Strings(candidates)
	res.Orphans = candidates
	res.Audited = s.countAudited(ctx, candidates)

	if opts.DryRun || len(candidates) == 0 {
		s.log.Info("Orphan sweep finished", "scanned", res.Scanned, "orphans", len(candidates), "dry_run", opts.DryRun)
		return res, nil
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = defaultSweepConcurrency
	}
	var (
		mu      sync.Mutex
		deleted int
		failed  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, key := range candidates {
		g.Go(func() error {
			if err := s.store.Delete(gctx, key); err != nil {
				s.log.Warn("Failed to delete orphan blob", "storage_key", key, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			deleted++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	res.Deleted, res.Failed = deleted, failed
	s.log.Info("Orphan sweep finished", "scanned", res.Scanned, "orphans", len(candidates), "deleted", deleted, "failed", failed)
	return res, nil
}

// unreferenced returns the keys no attachment record points at.
func (s *orphanSweeper) unreferenced(ctx context.Context, keys []string) ([]string, error) {
	var out []string
	for start := 0; start < len(keys); start += sweepLookupBatch {
		end := min(start+sweepLookupBatch, len(keys))
		batch := keys[start:end]
		found, err := s.attachments.ExistingKeys(dbctx.Context{Ctx: ctx}, batch)
		if err != nil {
			return nil, fmt.Errorf("lookup attachment keys: %w", err)
		}
		for _, k := range batch {
			if !found[k] {
				out = append(out, k)
			}
		}
	}
	return out, nil
}

func (s *orphanSweeper) countAudited(ctx context.Context, orphans []string) int {
	if s.activity == nil || len(orphans) == 0 {
		return 0
	}
	entries, err := s.activity.ListByKind(dbctx.Context{Ctx: ctx}, types.ActivityAttachmentBlobDeleteFail, auditScanLimit)
	if err != nil {
		s.log.Warn("Failed to read blob failure audit", "error", err)
		return 0
	}
	orphanSet := make(map[string]bool, len(orphans))
	for _, k := range orphans {
		orphanSet[k] = true
	}
	n := 0
	for _, e := range entries {
		var meta struct {
			StorageKey string `json:"storage_key"`
		}
		if err := json.Unmarshal(e.Metadata, &meta); err != nil {
			continue
		}
		if orphanSet[meta.StorageKey] {
			n++
			delete(orphanSet, meta.StorageKey)
		}
	}
	return n
}
