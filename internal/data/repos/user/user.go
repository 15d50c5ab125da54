package user

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/taskmaster-backend/internal/domain"
	"github.com/yungbote/taskmaster-backend/internal/platform/dbctx"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	// GetByID returns nil, nil when the user does not exist.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error)
	GetByUsernameOrEmail(dbc dbctx.Context, login string) (*types.User, error)
	Exists(dbc dbctx.Context, id uuid.UUID) (bool, error)
	UsernameExists(dbc dbctx.Context, username string) (bool, error)
	// EmailExists ignores the row of exceptID, pass uuid.Nil to check all.
	EmailExists(dbc dbctx.Context, email string, exceptID uuid.UUID) (bool, error)
	UpdateProfile(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (ur *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.User
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

func (ur *userRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	var results []*types.User
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Order("username ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) GetByUsernameOrEmail(dbc dbctx.Context, login string) (*types.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, nil
	}
	var out []*types.User
	if err := transaction.WithContext(dbc.Ctx).
		Where("username = ? OR LOWER(email) = ?", login, strings.ToLower(login)).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (ur *userRepo) Exists(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ur *userRepo) UsernameExists(dbc dbctx.Context, username string) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("username = ?", strings.TrimSpace(username)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ur *userRepo) EmailExists(dbc dbctx.Context, email string, exceptID uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
	if exceptID != uuid.Nil {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ur *userRepo) UpdateProfile(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id = ?", id).
		Updates(updates).Error
}
