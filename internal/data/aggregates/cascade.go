package aggregates

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/taskmaster-backend/internal/data/repos"
	types "github.com/yungbote/taskmaster-backend/internal/domain"
	"github.com/yungbote/taskmaster-backend/internal/platform/blobstore"
	"github.com/yungbote/taskmaster-backend/internal/platform/dbctx"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

const blobReleaseConcurrency = 4

type blobFailure struct {
	Attachment types.Attachment
	Err        error
}

// releaseBlobs deletes the blob of every attachment. Failures are logged and
// returned, never propagated: records are removed regardless.
func releaseBlobs(ctx context.Context, store blobstore.Store, log *logger.Logger, atts []types.Attachment) []blobFailure {
	if store == nil || len(atts) == 0 {
		return nil
	}
	var (
		mu       sync.Mutex
		failures []blobFailure
	)
	var g errgroup.Group
	g.SetLimit(blobReleaseConcurrency)
	for _, att := range atts {
		g.Go(func() error {
			if err := store.Delete(ctx, att.StorageKey); err != nil {
				log.Error("Failed to delete attachment blob",
					"attachment_id", att.ID,
					"task_id", att.TaskID,
					"storage_key", att.StorageKey,
					"error", err,
				)
				mu.Lock()
				failures = append(failures, blobFailure{Attachment: att, Err: err})
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failures
}

func auditBlobFailures(dbc dbctx.Context, activity repos.ActivityRepo, deps BaseDeps, projectID, actorID uuid.UUID, failures []blobFailure) error {
	for _, f := range failures {
		meta := map[string]any{
			"storage_key": f.Attachment.StorageKey,
			"task_id":     f.Attachment.TaskID.String(),
			"error":       f.Err.Error(),
		}
		if err := recordActivity(dbc, activity, deps.now(), projectID, actorID, types.ActivityAttachmentBlobDeleteFail, f.Attachment.ID, meta); err != nil {
			return err
		}
	}
	return nil
}
