package task

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/taskmaster-backend/internal/domain"
	"github.com/yungbote/taskmaster-backend/internal/platform/dbctx"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

type CommentRepo interface {
	Create(dbc dbctx.Context, c *types.Comment) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Comment, error)
	// ListByTask returns comments oldest first.
	ListByTask(dbc dbctx.Context, taskID uuid.UUID, page types.Page) ([]types.Comment, int64, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
	DeleteByTaskIDs(dbc dbctx.Context, taskIDs []uuid.UUID) (int64, error)
}

type commentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommentRepo(db *gorm.DB, baseLog *logger.Logger) CommentRepo {
	return &commentRepo{db: db, log: baseLog.With("repo", "CommentRepo")}
}

func (r *commentRepo) Create(dbc dbctx.Context, c *types.Comment) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(c).Error
}

func (r *commentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Comment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Comment
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

func (r *commentRepo) ListByTask(dbc dbctx.Context, taskID uuid.UUID, page types.Page) ([]types.Comment, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	page = page.Normalize()
	var total int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Comment{}).
		Where("task_id = ?", taskID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := []types.Comment{}
	if err := transaction.WithContext(dbc.Ctx).
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Order("id ASC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *commentRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Comment{}).Error
}

func (r *commentRepo) DeleteByTaskIDs(dbc dbctx.Context, taskIDs []uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(taskIDs) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("task_id IN ?", taskIDs).
		Delete(&types.Comment{})
	return res.RowsAffected, res.Error
}
