package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/taskmaster-backend/internal/data/repos"
	types "github.com/yungbote/taskmaster-backend/internal/domain"
	domainagg "github.com/yungbote/taskmaster-backend/internal/domain/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/platform/blobstore"
	"github.com/yungbote/taskmaster-backend/internal/platform/dbctx"
)

type TaskAggregateDeps struct {
	Base BaseDeps

	Projects    repos.ProjectRepo
	Members     repos.MemberRepo
	Tasks       repos.TaskRepo
	Comments    repos.CommentRepo
	Attachments repos.AttachmentRepo
	Activity    repos.ActivityRepo
	Blobs       blobstore.Store
}

type taskAggregate struct {
	deps  TaskAggregateDeps
	guard Guard
}

func NewTaskAggregate(deps TaskAggregateDeps) domainagg.TaskAggregate {
	deps.Base = deps.Base.withDefaults()
	return &taskAggregate{deps: deps, guard: NewGuard(deps.Projects, deps.Members)}
}

func (a *taskAggregate) Contract() domainagg.Contract {
	return domainagg.TaskAggregateContract
}

type taskFields struct {
	title       string
	description string
	status      types.TaskStatus
	due         *time.Time
}

func validateTaskFields(title, description string, status types.TaskStatus, due *time.Time) (taskFields, error) {
	var out taskFields
	var err error
	if out.title, err = requiredText("title", title, maxTaskTitle); err != nil {
		return out, err
	}
	if out.description, err = optionalText("description", description, maxTaskDescription); err != nil {
		return out, err
	}
	if out.status, err = validStatus(status); err != nil {
		return out, err
	}
	out.due = normalizeDueDate(due)
	return out, nil
}

// requireAssignable rejects an assignee outside the project's member set.
func (a *taskAggregate) requireAssignable(dbc dbctx.Context, projectID uuid.UUID, assigneeID *uuid.UUID) error {
	if assigneeID == nil {
		return nil
	}
	if *assigneeID == uuid.Nil {
		return ValidationError("assignee_id must be a valid user id")
	}
	ok, err := a.deps.Members.IsMember(dbc, projectID, *assigneeID)
	if err != nil {
		return err
	}
	if !ok {
		return ValidationError("assignee must be a member of the project")
	}
	return nil
}

// loadTask returns the task when it belongs to projectID. A task of another
// project is reported as missing.
func (a *taskAggregate) loadTask(dbc dbctx.Context, projectID, taskID uuid.UUID) (*types.Task, error) {
	t, err := a.deps.Tasks.GetByID(dbc, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil || t.ProjectID != projectID {
		return nil, NotFoundError("task not found")
	}
	return t, nil
}

func (a *taskAggregate) Create(ctx context.Context, in domainagg.CreateTaskInput) (*types.Task, error) {
	const op = "Tracker.Task.Create"
	status := in.Status
	if status == "" {
		status = types.TaskStatusOpen
	}
	f, err := validateTaskFields(in.Title, in.Description, status, in.DueDate)
	if err != nil {
		return nil, MapError(op, err)
	}

	var out *types.Task
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.guard.RequireMembershipLocked(dbc, in.ProjectID, in.ActorID)
		if err != nil {
			return err
		}
		now := a.deps.Base.now()
		if err := requireNotPast(f.due, now); err != nil {
			return err
		}
		if err := a.requireAssignable(dbc, p.ID, in.AssigneeID); err != nil {
			return err
		}
		t := &types.Task{
			ID:          uuid.New(),
			ProjectID:   p.ID,
			Title:       f.title,
			Description: f.description,
			Status:      f.status,
			DueDate:     f.due,
			AssigneeID:  in.AssigneeID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := a.deps.Tasks.Create(dbc, t); err != nil {
			return err
		}
		out = t
		return recordActivity(dbc, a.deps.Activity, now, p.ID, in.ActorID, types.ActivityTaskCreated, t.ID, map[string]any{"title": t.Title})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *taskAggregate) Update(ctx context.Context, in domainagg.UpdateTaskInput) (*types.Task, error) {
	const op = "Tracker.Task.Update"
	if in.Status == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "status is required", nil)
	}
	f, err := validateTaskFields(in.Title, in.Description, in.Status, in.DueDate)
	if err != nil {
		return nil, MapError(op, err)
	}

	var out *types.Task
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.guard.RequireMembershipLocked(dbc, in.ProjectID, in.ActorID)
		if err != nil {
			return err
		}
		t, err := a.loadTask(dbc, p.ID, in.TaskID)
		if err != nil {
			return err
		}
		now := a.deps.Base.now()
		// An unchanged past due date may be kept; only a new one is checked.
		if !sameDate(t.DueDate, f.due) {
			if err := requireNotPast(f.due, now); err != nil {
				return err
			}
		}
		if err := a.requireAssignable(dbc, p.ID, in.AssigneeID); err != nil {
			return err
		}
		if err := a.deps.Tasks.UpdateFields(dbc, t.ID, map[string]interface{}{
			"title":       f.title,
			"description": f.description,
			"status":      f.status,
			"due_date":    f.due,
			"assignee_id": in.AssigneeID,
			"updated_at":  now,
		}); err != nil {
			return err
		}
		t.Title, t.Description, t.Status = f.title, f.description, f.status
		t.DueDate, t.AssigneeID, t.UpdatedAt = f.due, in.AssigneeID, now
		out = t
		return recordActivity(dbc, a.deps.Activity, now, p.ID, in.ActorID, types.ActivityTaskUpdated, t.ID, nil)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *taskAggregate) UpdateStatus(ctx context.Context, in domainagg.UpdateTaskStatusInput) (*types.Task, error) {
	const op = "Tracker.Task.UpdateStatus"
	status, err := validStatus(in.Status)
	if err != nil {
		return nil, MapError(op, err)
	}

	var out *types.Task
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.guard.RequireMembership(dbc, in.ProjectID, in.ActorID)
		if err != nil {
			return err
		}
		t, err := a.loadTask(dbc, p.ID, in.TaskID)
		if err != nil {
			return err
		}
		out = t
		if t.Status == status {
			return nil
		}
		now := a.deps.Base.now()
		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, types.Task{}.TableName(), t.ID, []string{string(t.Status)}, map[string]any{
			"status":     status,
			"updated_at": now,
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "task status changed concurrently"); err != nil {
			return err
		}
		from := t.Status
		t.Status, t.UpdatedAt = status, now
		return recordActivity(dbc, a.deps.Activity, now, p.ID, in.ActorID, types.ActivityTaskStatusChanged, t.ID, map[string]any{
			"from": string(from),
			"to":   string(status),
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *taskAggregate) Assign(ctx context.Context, in domainagg.AssignTaskInput) (*types.Task, error) {
	const op = "Tracker.Task.Assign"
	var out *types.Task
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.guard.RequireMembershipLocked(dbc, in.ProjectID, in.ActorID)
		if err != nil {
			return err
		}
		t, err := a.loadTask(dbc, p.ID, in.TaskID)
		if err != nil {
			return err
		}
		if err := a.requireAssignable(dbc, p.ID, in.AssigneeID); err != nil {
			return err
		}
		now := a.deps.Base.now()
		if err := a.deps.Tasks.UpdateFields(dbc, t.ID, map[string]interface{}{
			"assignee_id": in.AssigneeID,
			"updated_at":  now,
		}); err != nil {
			return err
		}
		t.AssigneeID, t.UpdatedAt = in.AssigneeID, now
		out = t
		meta := map[string]any{"assignee_id": nil}
		if in.AssigneeID != nil {
			meta["assignee_id"] = in.AssigneeID.String()
		}
		return recordActivity(dbc, a.deps.Activity, now, p.ID, in.ActorID, types.ActivityTaskAssigned, t.ID, meta)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *taskAggregate) Delete(ctx context.Context, in domainagg.DeleteTaskInput) (domainagg.DeleteTaskResult, error) {
	const op = "Tracker.Task.Delete"
	out := domainagg.DeleteTaskResult{TaskID: in.TaskID}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.guard.RequireMembershipLocked(dbc, in.ProjectID, in.ActorID)
		if err != nil {
			return err
		}
		if !p.IsOwner(in.ActorID) {
			return ForbiddenError("only the project owner may delete tasks")
		}
		t, err := a.loadTask(dbc, p.ID, in.TaskID)
		if err != nil {
			return err
		}
		ids := []uuid.UUID{t.ID}
		atts, err := a.deps.Attachments.ListByTaskIDs(dbc, ids)
		if err != nil {
			return err
		}
		failures := releaseBlobs(dbc.Ctx, a.deps.Blobs, a.deps.Base.Log, atts)
		if err := auditBlobFailures(dbc, a.deps.Activity, a.deps.Base, p.ID, in.ActorID, failures); err != nil {
			return err
		}
		nAtt, err := a.deps.Attachments.DeleteByTaskIDs(dbc, ids)
		if err != nil {
			return err
		}
		nCom, err := a.deps.Comments.DeleteByTaskIDs(dbc, ids)
		if err != nil {
			return err
		}
		if err := a.deps.Tasks.Delete(dbc, t.ID); err != nil {
			return err
		}
		out.AttachmentsDeleted = int(nAtt)
		out.CommentsDeleted = int(nCom)
		out.BlobFailures = len(failures)
		return recordActivity(dbc, a.deps.Activity, a.deps.Base.now(), p.ID, in.ActorID, types.ActivityTaskDeleted, t.ID, map[string]any{
			"title": t.Title,
		})
	})
	if err != nil {
		return domainagg.DeleteTaskResult{}, err
	}
	return out, nil
}

func (a *taskAggregate) Get(ctx context.Context, actorID, projectID, taskID uuid.UUID) (*types.Task, error) {
	const op = "Tracker.Task.Get"
	var out *types.Task
	err := executeRead(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if _, err := a.guard.RequireMembership(dbc, projectID, actorID); err != nil {
			return err
		}
		t, err := a.loadTask(dbc, projectID, taskID)
		out = t
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *taskAggregate) List(ctx context.Context, actorID, projectID uuid.UUID, filter types.TaskFilter, page types.Page) (types.PagedResult[types.Task], error) {
	const op = "Tracker.Task.List"
	if filter.Status != nil {
		s, err := validStatus(*filter.Status)
		if err != nil {
			return types.PagedResult[types.Task]{}, MapError(op, err)
		}
		filter.Status = &s
	}
	if filter.Unassigned && filter.AssigneeID != nil {
		return types.PagedResult[types.Task]{}, domainagg.NewError(domainagg.CodeValidation, op, "assignee_id and unassigned are mutually exclusive", nil)
	}
	var out types.PagedResult[types.Task]
	err := executeRead(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if _, err := a.guard.RequireMembership(dbc, projectID, actorID); err != nil {
			return err
		}
		items, total, err := a.deps.Tasks.List(dbc, projectID, filter, page)
		if err != nil {
			return err
		}
		out = types.NewPagedResult(items, page, total)
		return nil
	})
	return out, err
}

func (a *taskAggregate) ListAssignedTo(ctx context.Context, actorID uuid.UUID, page types.Page) (types.PagedResult[types.Task], error) {
	const op = "Tracker.Task.ListAssignedTo"
	var out types.PagedResult[types.Task]
	err := executeRead(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		items, total, err := a.deps.Tasks.ListAssignedTo(dbc, actorID, page)
		if err != nil {
			return err
		}
		out = types.NewPagedResult(items, page, total)
		return nil
	})
	return out, err
}
