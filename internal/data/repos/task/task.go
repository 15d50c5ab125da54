package task

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/taskmaster-backend/internal/domain"
	"github.com/yungbote/taskmaster-backend/internal/platform/dbctx"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

type TaskRepo interface {
	Create(dbc dbctx.Context, t *types.Task) error
	// GetByID returns nil, nil when the task does not exist.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Task, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
	DeleteByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error)
	ListIDsByProject(dbc dbctx.Context, projectID uuid.UUID) ([]uuid.UUID, error)
	List(dbc dbctx.Context, projectID uuid.UUID, filter types.TaskFilter, page types.Page) ([]types.Task, int64, error)
	ListAssignedTo(dbc dbctx.Context, userID uuid.UUID, page types.Page) ([]types.Task, int64, error)
	// ClearAssignee unassigns userID from every task of the project.
	ClearAssignee(dbc dbctx.Context, projectID, userID uuid.UUID, updates map[string]interface{}) (int64, error)
	// CountAssignedOutside counts tasks whose assignee is not a project member.
	CountAssignedOutside(dbc dbctx.Context, projectID uuid.UUID) (int64, error)
}

type taskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
	return &taskRepo{db: db, log: baseLog.With("repo", "TaskRepo")}
}

func (r *taskRepo) Create(dbc dbctx.Context, t *types.Task) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(t).Error
}

func (r *taskRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Task, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Task
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

func (r *taskRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Task{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *taskRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Task{}).Error
}

func (r *taskRepo) DeleteByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Delete(&types.Task{})
	return res.RowsAffected, res.Error
}

func (r *taskRepo) ListIDsByProject(dbc dbctx.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Task{}).
		Where("project_id = ?", projectID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *taskRepo) List(dbc dbctx.Context, projectID uuid.UUID, filter types.TaskFilter, page types.Page) ([]types.Task, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	scope := func(q *gorm.DB) *gorm.DB {
		q = q.Where("project_id = ?", projectID)
		return applyFilter(q, filter)
	}
	return r.page(transaction.WithContext(dbc.Ctx), scope, page)
}

func (r *taskRepo) ListAssignedTo(dbc dbctx.Context, userID uuid.UUID, page types.Page) ([]types.Task, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	scope := func(q *gorm.DB) *gorm.DB {
		return q.Where("assignee_id = ?", userID)
	}
	return r.page(transaction.WithContext(dbc.Ctx), scope, page)
}

func (r *taskRepo) page(q *gorm.DB, scope func(*gorm.DB) *gorm.DB, page types.Page) ([]types.Task, int64, error) {
	page = page.Normalize()
	var total int64
	if err := q.Model(&types.Task{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := []types.Task{}
	if err := q.Scopes(scope).
		Order("created_at DESC").
		Order("id ASC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func applyFilter(q *gorm.DB, f types.TaskFilter) *gorm.DB {
	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + escapeLike(strings.ToLower(s)) + "%"
		q = q.Where("(LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", like, like)
	}
	if f.Unassigned {
		q = q.Where("assignee_id IS NULL")
	} else if f.AssigneeID != nil {
		q = q.Where("assignee_id = ?", *f.AssigneeID)
	}
	return q
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (r *taskRepo) ClearAssignee(dbc dbctx.Context, projectID, userID uuid.UUID, updates map[string]interface{}) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["assignee_id"] = nil
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Task{}).
		Where("project_id = ? AND assignee_id = ?", projectID, userID).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *taskRepo) CountAssignedOutside(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	members := transaction.WithContext(dbc.Ctx).
		Model(&types.ProjectMember{}).
		Select("user_id").
		Where("project_id = ?", projectID)
	var count int64
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.Task{}).
		Where("project_id = ? AND assignee_id IS NOT NULL AND assignee_id NOT IN (?)", projectID, members).
		Count(&count).Error
	return count, err
}
