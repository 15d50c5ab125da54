package aggregates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yungbote/taskmaster-backend/internal/data/repos"
	types "github.com/yungbote/taskmaster-backend/internal/domain"
	domainagg "github.com/yungbote/taskmaster-backend/internal/domain/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/platform/blobstore"
	"github.com/yungbote/taskmaster-backend/internal/platform/dbctx"
)

const (
	DefaultMaxUploadBytes = 10 << 20
	defaultContentType    = "application/octet-stream"
	defaultAttachmentName = "file"
)

type AttachmentStoreDeps struct {
	Base BaseDeps

	Projects    repos.ProjectRepo
	Members     repos.MemberRepo
	Tasks       repos.TaskRepo
	Attachments repos.AttachmentRepo
	Activity    repos.ActivityRepo
	Blobs       blobstore.Store
	// MaxUploadBytes caps a single attachment. Zero means DefaultMaxUploadBytes.
	MaxUploadBytes int64
}

type attachmentStore struct {
	deps  AttachmentStoreDeps
	guard Guard
}

func NewAttachmentStore(deps AttachmentStoreDeps) domainagg.AttachmentStore {
	deps.Base = deps.Base.withDefaults()
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &attachmentStore{deps: deps, guard: NewGuard(deps.Projects, deps.Members)}
}

func (a *attachmentStore) Contract() domainagg.Contract {
	return domainagg.AttachmentStoreContract
}

func (a *attachmentStore) taskScope(dbc dbctx.Context, taskID, actorID uuid.UUID) (*types.Task, *types.Project, error) {
	t, err := a.deps.Tasks.GetByID(dbc, taskID)
	if err != nil {
		return nil, nil, err
	}
	if t == nil {
		return nil, nil, NotFoundError("task not found")
	}
	p, err := a.guard.RequireMembership(dbc, t.ProjectID, actorID)
	if err != nil {
		return nil, nil, err
	}
	return t, p, nil
}

// displayName keeps the client supplied name for display only, bounded to
// the column width.
func displayName(name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return defaultAttachmentName
	}
	if utf8.RuneCountInString(n) > maxFileName {
		n = string([]rune(n)[:maxFileName])
	}
	return n
}

func contentTypeOrDefault(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" || utf8.RuneCountInString(ct) > maxContentType {
		return defaultContentType
	}
	return ct
}

// Store writes the blob first, then the record. When the record does not
// commit the blob is removed again.
func (a *attachmentStore) Store(ctx context.Context, in domainagg.StoreAttachmentInput) (*types.Attachment, error) {
	const op = "Tracker.Attachment.Store"
	max := a.deps.MaxUploadBytes
	if in.Content == nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "file is required", nil)
	}
	if in.Size == 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "file is empty", nil)
	}
	if in.Size > max {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("file exceeds the %d byte limit", max), nil)
	}
	if a.deps.Blobs == nil {
		return nil, domainagg.NewError(domainagg.CodeStorage, op, "blob store unavailable", nil)
	}

	var (
		out        *types.Attachment
		writtenKey string
	)
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		t, p, err := a.taskScope(dbc, in.TaskID, in.ActorID)
		if err != nil {
			return err
		}
		key := blobstore.AttachmentKey(p.ID, t.ID, in.OriginalName)
		ct := contentTypeOrDefault(in.ContentType)
		n, err := a.deps.Blobs.Put(dbc.Ctx, key, io.LimitReader(in.Content, max+1), ct)
		if err != nil {
			if errors.Is(err, blobstore.ErrInvalidKey) || errors.Is(err, blobstore.ErrOutsideRoot) {
				return ValidationError("invalid storage path")
			}
			return StorageError("failed to store file", err)
		}
		writtenKey = key
		if n == 0 {
			return ValidationError("file is empty")
		}
		if n > max {
			return ValidationError(fmt.Sprintf("file exceeds the %d byte limit", max))
		}

		now := a.deps.Base.now()
		att := &types.Attachment{
			ID:          uuid.New(),
			FileName:    displayName(in.OriginalName),
			ContentType: ct,
			SizeBytes:   n,
			StorageKey:  key,
			TaskID:      t.ID,
			UploaderID:  in.ActorID,
			CreatedAt:   now,
		}
		if err := a.deps.Attachments.Create(dbc, att); err != nil {
			return err
		}
		out = att
		return recordActivity(dbc, a.deps.Activity, now, p.ID, in.ActorID, types.ActivityAttachmentStored, att.ID, map[string]any{
			"task_id":    t.ID.String(),
			"size_bytes": n,
		})
	})
	if err != nil {
		if writtenKey != "" {
			if derr := a.deps.Blobs.Delete(context.WithoutCancel(ctx), writtenKey); derr != nil {
				a.deps.Base.Log.Error("Failed to remove blob of uncommitted attachment",
					"storage_key", writtenKey,
					"task_id", in.TaskID,
					"error", derr,
				)
			} else {
				a.deps.Base.Log.Warn("Removed blob of uncommitted attachment", "storage_key", writtenKey, "cause", err)
			}
		}
		return nil, err
	}
	return out, nil
}

func (a *attachmentStore) Load(ctx context.Context, actorID, attachmentID uuid.UUID) (domainagg.LoadedAttachment, error) {
	const op = "Tracker.Attachment.Load"
	var att *types.Attachment
	err := executeRead(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		found, err := a.deps.Attachments.GetByID(dbc, attachmentID)
		if err != nil {
			return err
		}
		if found == nil {
			return NotFoundError("attachment not found")
		}
		if _, _, err := a.taskScope(dbc, found.TaskID, actorID); err != nil {
			return err
		}
		att = found
		return nil
	})
	if err != nil {
		return domainagg.LoadedAttachment{}, err
	}
	if a.deps.Blobs == nil {
		return domainagg.LoadedAttachment{}, domainagg.NewError(domainagg.CodeStorage, op, "blob store unavailable", nil)
	}
	body, err := a.deps.Blobs.Open(ctx, att.StorageKey)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			a.deps.Base.Log.Error("Attachment record has no blob",
				"attachment_id", att.ID,
				"storage_key", att.StorageKey,
			)
			return domainagg.LoadedAttachment{}, domainagg.NewError(domainagg.CodeNotFound, op, "file not found", err)
		}
		return domainagg.LoadedAttachment{}, domainagg.NewError(domainagg.CodeStorage, op, "failed to read file", err)
	}
	return domainagg.LoadedAttachment{Attachment: *att, Body: body}, nil
}

// Delete removes the blob before the record. A blob that cannot be removed
// is logged and audited, the record goes anyway.
func (a *attachmentStore) Delete(ctx context.Context, in domainagg.DeleteAttachmentInput) (domainagg.DeleteAttachmentResult, error) {
	const op = "Tracker.Attachment.Delete"
	out := domainagg.DeleteAttachmentResult{AttachmentID: in.AttachmentID}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		att, err := a.deps.Attachments.GetByID(dbc, in.AttachmentID)
		if err != nil {
			return err
		}
		if att == nil {
			return NotFoundError("attachment not found")
		}
		_, p, err := a.taskScope(dbc, att.TaskID, in.ActorID)
		if err != nil {
			return err
		}
		if att.UploaderID != in.ActorID && !p.IsOwner(in.ActorID) {
			return ForbiddenError("only the uploader or the project owner may delete this attachment")
		}

		failures := releaseBlobs(dbc.Ctx, a.deps.Blobs, a.deps.Base.Log, []types.Attachment{*att})
		if err := auditBlobFailures(dbc, a.deps.Activity, a.deps.Base, p.ID, in.ActorID, failures); err != nil {
			return err
		}
		out.BlobDeleted = a.deps.Blobs != nil && len(failures) == 0

		if err := a.deps.Attachments.Delete(dbc, att.ID); err != nil {
			return err
		}
		return recordActivity(dbc, a.deps.Activity, a.deps.Base.now(), p.ID, in.ActorID, types.ActivityAttachmentDeleted, att.ID, map[string]any{
			"task_id": att.TaskID.String(),
		})
	})
	if err != nil {
		return domainagg.DeleteAttachmentResult{}, err
	}
	return out, nil
}

func (a *attachmentStore) ListForTask(ctx context.Context, actorID, taskID uuid.UUID) ([]types.Attachment, error) {
	const op = "Tracker.Attachment.ListForTask"
	out := []types.Attachment{}
	err := executeRead(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if _, _, err := a.taskScope(dbc, taskID, actorID); err != nil {
			return err
		}
		items, err := a.deps.Attachments.ListByTask(dbc, taskID)
		if err != nil {
			return err
		}
		out = append(out, items...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
