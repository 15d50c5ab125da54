package aggregates

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/taskmaster-backend/internal/data/repos"
	types "github.com/yungbote/taskmaster-backend/internal/domain"
	domainagg "github.com/yungbote/taskmaster-backend/internal/domain/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/platform/dbctx"
)

type CommentThreadDeps struct {
	Base BaseDeps

	Projects repos.ProjectRepo
	Members  repos.MemberRepo
	Tasks    repos.TaskRepo
	Comments repos.CommentRepo
	Activity repos.ActivityRepo
}

type commentThread struct {
	deps  CommentThreadDeps
	guard Guard
}

func NewCommentThread(deps CommentThreadDeps) domainagg.CommentThread {
	deps.Base = deps.Base.withDefaults()
	return &commentThread{deps: deps, guard: NewGuard(deps.Projects, deps.Members)}
}

func (a *commentThread) Contract() domainagg.Contract {
	return domainagg.CommentThreadContract
}

// taskScope resolves the task and checks the actor belongs to its project.
func (a *commentThread) taskScope(dbc dbctx.Context, taskID, actorID uuid.UUID) (*types.Task, *types.Project, error) {
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

func (a *commentThread) Add(ctx context.Context, in domainagg.AddCommentInput) (*types.Comment, error) {
	const op = "Tracker.Comment.Add"
	content, err := requiredText("content", in.Content, maxCommentContent)
	if err != nil {
		return nil, MapError(op, err)
	}
	var out *types.Comment
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		t, p, err := a.taskScope(dbc, in.TaskID, in.ActorID)
		if err != nil {
			return err
		}
		now := a.deps.Base.now()
		c := &types.Comment{
			ID:        uuid.New(),
			TaskID:    t.ID,
			AuthorID:  in.ActorID,
			Content:   content,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := a.deps.Comments.Create(dbc, c); err != nil {
			return err
		}
		out = c
		return recordActivity(dbc, a.deps.Activity, now, p.ID, in.ActorID, types.ActivityCommentAdded, c.ID, map[string]any{
			"task_id": t.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *commentThread) List(ctx context.Context, actorID, taskID uuid.UUID, page types.Page) (types.PagedResult[types.Comment], error) {
	const op = "Tracker.Comment.List"
	var out types.PagedResult[types.Comment]
	err := executeRead(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if _, _, err := a.taskScope(dbc, taskID, actorID); err != nil {
			return err
		}
		items, total, err := a.deps.Comments.ListByTask(dbc, taskID, page)
		if err != nil {
			return err
		}
		out = types.NewPagedResult(items, page, total)
		return nil
	})
	return out, err
}

func (a *commentThread) Delete(ctx context.Context, in domainagg.DeleteCommentInput) error {
	const op = "Tracker.Comment.Delete"
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		c, err := a.deps.Comments.GetByID(dbc, in.CommentID)
		if err != nil {
			return err
		}
		if c == nil {
			return NotFoundError("comment not found")
		}
		_, p, err := a.taskScope(dbc, c.TaskID, in.ActorID)
		if err != nil {
			return err
		}
		if c.AuthorID != in.ActorID && !p.IsOwner(in.ActorID) {
			return ForbiddenError("only the author or the project owner may delete this comment")
		}
		if err := a.deps.Comments.Delete(dbc, c.ID); err != nil {
			return err
		}
		return recordActivity(dbc, a.deps.Activity, a.deps.Base.now(), p.ID, in.ActorID, types.ActivityCommentDeleted, c.ID, map[string]any{
			"task_id": c.TaskID.String(),
		})
	})
}
