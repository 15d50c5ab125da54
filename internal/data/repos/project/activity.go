package project

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/taskmaster-backend/internal/domain"
	"github.com/yungbote/taskmaster-backend/internal/platform/dbctx"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

type ActivityRepo interface {
	Append(dbc dbctx.Context, entries ...*types.ActivityEntry) error
	ListByProject(dbc dbctx.Context, projectID uuid.UUID, page types.Page) ([]types.ActivityEntry, int64, error)
	ListByKind(dbc dbctx.Context, kind string, limit int) ([]types.ActivityEntry, error)
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return &activityRepo{db: db, log: baseLog.With("repo", "ActivityRepo")}
}

func (r *activityRepo) Append(dbc dbctx.Context, entries ...*types.ActivityEntry) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
	}
	return transaction.WithContext(dbc.Ctx).Create(&entries).Error
}

func (r *activityRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID, page types.Page) ([]types.ActivityEntry, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	page = page.Normalize()
	base := transaction.WithContext(dbc.Ctx).Model(&types.ActivityEntry{}).Where("project_id = ?", projectID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := []types.ActivityEntry{}
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Order("id ASC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *activityRepo) ListByKind(dbc dbctx.Context, kind string, limit int) ([]types.ActivityEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 100
	}
	out := []types.ActivityEntry{}
	if err := transaction.WithContext(dbc.Ctx).
		Where("kind = ?", kind).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
