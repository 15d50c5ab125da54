package project

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/taskmaster-backend/internal/domain"
	"github.com/yungbote/taskmaster-backend/internal/platform/dbctx"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

// MemberRepo is the only access path to the project_member table.
type MemberRepo interface {
	Add(dbc dbctx.Context, m *types.ProjectMember) error
	// Remove reports whether a row was deleted.
	Remove(dbc dbctx.Context, projectID, userID uuid.UUID) (bool, error)
	IsMember(dbc dbctx.Context, projectID, userID uuid.UUID) (bool, error)
	ListUserIDs(dbc dbctx.Context, projectID uuid.UUID) ([]uuid.UUID, error)
	DeleteByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error)
}

type memberRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemberRepo(db *gorm.DB, baseLog *logger.Logger) MemberRepo {
	return &memberRepo{db: db, log: baseLog.With("repo", "MemberRepo")}
}

func (r *memberRepo) Add(dbc dbctx.Context, m *types.ProjectMember) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(m).Error
}

func (r *memberRepo) Remove(dbc dbctx.Context, projectID, userID uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&types.ProjectMember{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *memberRepo) IsMember(dbc dbctx.Context, projectID, userID uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *memberRepo) ListUserIDs(dbc dbctx.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []types.ProjectMember
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.UserID)
	}
	return out, nil
}

func (r *memberRepo) DeleteByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Delete(&types.ProjectMember{})
	return res.RowsAffected, res.Error
}
