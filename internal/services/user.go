package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dataagg "github.com/yungbote/taskmaster-backend/internal/data/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/data/repos"
	types "github.com/yungbote/taskmaster-backend/internal/domain"
	domainagg "github.com/yungbote/taskmaster-backend/internal/domain/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/platform/ctxutil"
	"github.com/yungbote/taskmaster-backend/internal/platform/dbctx"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	// UpdateMe changes only the fields that are set.
	UpdateMe(ctx context.Context, in UpdateUserInput) (*types.User, error)
}

type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Email     *string
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{
		db:       db,
		log:      log.With("service", "UserService"),
		userRepo: userRepo,
	}
}

func principal(ctx context.Context, op string) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, domainagg.NewError(domainagg.CodeUnauthenticated, op, "not authenticated", nil)
	}
	return rd.UserID, nil
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	const op = "User.GetMe"
	userID, err := principal(ctx, op)
	if err != nil {
		return nil, err
	}
	user, err := us.userRepo.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if user == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "user not found", nil)
	}
	return user, nil
}

func (us *userService) UpdateMe(ctx context.Context, in UpdateUserInput) (*types.User, error) {
	const op = "User.UpdateMe"
	userID, err := principal(ctx, op)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.FirstName != nil {
		v, err := personName("first name", *in.FirstName)
		if err != nil {
			return nil, dataagg.MapError(op, err)
		}
		updates["first_name"] = v
	}
	if in.LastName != nil {
		v, err := personName("last name", *in.LastName)
		if err != nil {
			return nil, dataagg.MapError(op, err)
		}
		updates["last_name"] = v
	}
	if in.Email != nil {
		v, err := normalizeEmail(*in.Email)
		if err != nil {
			return nil, dataagg.MapError(op, err)
		}
		updates["email"] = v
	}

	var out *types.User
	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		user, err := us.userRepo.GetByID(dbc, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return dataagg.NotFoundError("user not found")
		}
		if email, ok := updates["email"].(string); ok && email != user.Email {
			inUse, err := us.userRepo.EmailExists(dbc, email, userID)
			if err != nil {
				return err
			}
			if inUse {
				return dataagg.ConflictError("email address is already in use")
			}
		}
		if len(updates) > 0 {
			updates["updated_at"] = time.Now().UTC()
			if err := us.userRepo.UpdateProfile(dbc, userID, updates); err != nil {
				return err
			}
		}
		out, err = us.userRepo.GetByID(dbc, userID)
		return err
	})
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if len(updates) > 0 {
		us.log.Info("Updated profile", "user_id", userID)
	}
	return out, nil
}
