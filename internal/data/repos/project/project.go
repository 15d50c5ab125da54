package project

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/taskmaster-backend/internal/data/db"
	types "github.com/yungbote/taskmaster-backend/internal/domain"
	"github.com/yungbote/taskmaster-backend/internal/platform/dbctx"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

type ProjectRepo interface {
	Create(dbc dbctx.Context, p *types.Project) error
	// GetByID returns nil, nil when the project does not exist.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error)
	// LockByID is GetByID holding a row lock for the rest of the transaction
	// where the dialect supports it.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
	ListForMember(dbc dbctx.Context, userID uuid.UUID, page types.Page) ([]types.Project, int64, error)
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{db: db, log: baseLog.With("repo", "ProjectRepo")}
}

func (r *projectRepo) Create(dbc dbctx.Context, p *types.Project) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(p).Error
}

func (r *projectRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return r.first(transaction.WithContext(dbc.Ctx), id)
}

func (r *projectRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx)
	if db.SupportsRowLocks(transaction) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.first(q, id)
}

func (r *projectRepo) first(q *gorm.DB, id uuid.UUID) (*types.Project, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Project
	if err := q.Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *projectRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Project{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *projectRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Project{}).Error
}

func (r *projectRepo) ListForMember(dbc dbctx.Context, userID uuid.UUID, page types.Page) ([]types.Project, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	page = page.Normalize()
	memberOf := transaction.WithContext(dbc.Ctx).
		Model(&types.ProjectMember{}).
		Select("project_id").
		Where("user_id = ?", userID)

	var total int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Project{}).
		Where("id IN (?)", memberOf).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	out := []types.Project{}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN (?)", memberOf).
		Order("created_at DESC").
		Order("id ASC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
