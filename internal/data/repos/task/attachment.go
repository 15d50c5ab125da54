package task

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/taskmaster-backend/internal/domain"
	"github.com/yungbote/taskmaster-backend/internal/platform/dbctx"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

type AttachmentRepo interface {
	Create(dbc dbctx.Context, a *types.Attachment) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Attachment, error)
	ListByTask(dbc dbctx.Context, taskID uuid.UUID) ([]types.Attachment, error)
	ListByTaskIDs(dbc dbctx.Context, taskIDs []uuid.UUID) ([]types.Attachment, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
	DeleteByTaskIDs(dbc dbctx.Context, taskIDs []uuid.UUID) (int64, error)
	// ExistingKeys returns the subset of keys referenced by a record.
	ExistingKeys(dbc dbctx.Context, keys []string) (map[string]bool, error)
}

type attachmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttachmentRepo(db *gorm.DB, baseLog *logger.Logger) AttachmentRepo {
	return &attachmentRepo{db: db, log: baseLog.With("repo", "AttachmentRepo")}
}

func (r *attachmentRepo) Create(dbc dbctx.Context, a *types.Attachment) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(a).Error
}

func (r *attachmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Attachment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Attachment
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *attachmentRepo) ListByTask(dbc dbctx.Context, taskID uuid.UUID) ([]types.Attachment, error) {
	return r.ListByTaskIDs(dbc, []uuid.UUID{taskID})
}

func (r *attachmentRepo) ListByTaskIDs(dbc dbctx.Context, taskIDs []uuid.UUID) ([]types.Attachment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []types.Attachment{}
	if len(taskIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("task_id IN ?", taskIDs).
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attachmentRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Attachment{}).Error
}

func (r *attachmentRepo) DeleteByTaskIDs(dbc dbctx.Context, taskIDs []uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(taskIDs) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("task_id IN ?", taskIDs).
		Delete(&types.Attachment{})
	return res.RowsAffected, res.Error
}

func (r *attachmentRepo) ExistingKeys(dbc dbctx.Context, keys []string) (map[string]bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := make(map[string]bool, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	var found []string
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Attachment{}).
		Where("storage_key IN ?", keys).
		Pluck("storage_key", &found).Error; err != nil {
		return nil, err
	}
	for _, k := range found {
		out[k] = true
	}
	return out, nil
}
