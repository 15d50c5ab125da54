package aggregates

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/taskmaster-backend/internal/data/repos"
	types "github.com/yungbote/taskmaster-backend/internal/domain"
	domainagg "github.com/yungbote/taskmaster-backend/internal/domain/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/platform/blobstore"
	"github.com/yungbote/taskmaster-backend/internal/platform/dbctx"
)

type ProjectAggregateDeps struct {
	Base BaseDeps

	Users       repos.UserRepo
	Projects    repos.ProjectRepo
	Members     repos.MemberRepo
	Tasks       repos.TaskRepo
	Comments    repos.CommentRepo
	Attachments repos.AttachmentRepo
	Activity    repos.ActivityRepo
	Blobs       blobstore.Store
}

type projectAggregate struct {
	deps  ProjectAggregateDeps
	guard Guard
}

func NewProjectAggregate(deps ProjectAggregateDeps) domainagg.ProjectAggregate {
	deps.Base = deps.Base.withDefaults()
	return &projectAggregate{deps: deps, guard: NewGuard(deps.Projects, deps.Members)}
}

func (a *projectAggregate) Contract() domainagg.Contract {
	return domainagg.ProjectAggregateContract
}

func (a *projectAggregate) Create(ctx context.Context, in domainagg.CreateProjectInput) (*types.Project, error) {
	const op = "Tracker.Project.Create"
	name, err := requiredText("name", in.Name, maxProjectName)
	if err != nil {
		return nil, MapError(op, err)
	}
	desc, err := optionalText("description", in.Description, maxProjectDescription)
	if err != nil {
		return nil, MapError(op, err)
	}

	var out *types.Project
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		ok, err := a.deps.Users.Exists(dbc, in.ActorID)
		if err != nil {
			return err
		}
		if !ok {
			return NotFoundError("owner not found")
		}
		now := a.deps.Base.now()
		p := &types.Project{
			ID:          uuid.New(),
			Name:        name,
			Description: desc,
			OwnerID:     in.ActorID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := a.deps.Projects.Create(dbc, p); err != nil {
			return err
		}
		if err := a.deps.Members.Add(dbc, &types.ProjectMember{ProjectID: p.ID, UserID: in.ActorID, CreatedAt: now}); err != nil {
			return err
		}
		out = p
		return recordActivity(dbc, a.deps.Activity, now, p.ID, in.ActorID, types.ActivityProjectCreated, p.ID, map[string]any{"name": name})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *projectAggregate) Update(ctx context.Context, in domainagg.UpdateProjectInput) (*types.Project, error) {
	const op = "Tracker.Project.Update"
	name, err := requiredText("name", in.Name, maxProjectName)
	if err != nil {
		return nil, MapError(op, err)
	}
	desc, err := optionalText("description", in.Description, maxProjectDescription)
	if err != nil {
		return nil, MapError(op, err)
	}

	var out *types.Project
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.guard.RequireOwnership(dbc, in.ProjectID, in.ActorID)
		if err != nil {
			return err
		}
		now := a.deps.Base.now()
		if err := a.deps.Projects.UpdateFields(dbc, p.ID, map[string]interface{}{
			"name":        name,
			"description": desc,
			"updated_at":  now,
		}); err != nil {
			return err
		}
		p.Name, p.Description, p.UpdatedAt = name, desc, now
		out = p
		return recordActivity(dbc, a.deps.Activity, now, p.ID, in.ActorID, types.ActivityProjectUpdated, p.ID, nil)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete releases every attachment blob before any row goes. Blob failures
// are logged and audited; the rows are removed regardless.
func (a *projectAggregate) Delete(ctx context.Context, in domainagg.DeleteProjectInput) (domainagg.DeleteProjectResult, error) {
	const op = "Tracker.Project.Delete"
	out := domainagg.DeleteProjectResult{ProjectID: in.ProjectID}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.guard.RequireOwnershipLocked(dbc, in.ProjectID, in.ActorID)
		if err != nil {
			return err
		}
		taskIDs, err := a.deps.Tasks.ListIDsByProject(dbc, p.ID)
		if err != nil {
			return err
		}
		atts, err := a.deps.Attachments.ListByTaskIDs(dbc, taskIDs)
		if err != nil {
			return err
		}

		failures := releaseBlobs(dbc.Ctx, a.deps.Blobs, a.deps.Base.Log, atts)
		if err := auditBlobFailures(dbc, a.deps.Activity, a.deps.Base, p.ID, in.ActorID, failures); err != nil {
			return err
		}

		nAtt, err := a.deps.Attachments.DeleteByTaskIDs(dbc, taskIDs)
		if err != nil {
			return err
		}
		nCom, err := a.deps.Comments.DeleteByTaskIDs(dbc, taskIDs)
		if err != nil {
			return err
		}
		nTask, err := a.deps.Tasks.DeleteByProject(dbc, p.ID)
		if err != nil {
			return err
		}
		if _, err := a.deps.Members.DeleteByProject(dbc, p.ID); err != nil {
			return err
		}
		if err := a.deps.Projects.Delete(dbc, p.ID); err != nil {
			return err
		}

		out.TasksDeleted = int(nTask)
		out.CommentsDeleted = int(nCom)
		out.AttachmentsDeleted = int(nAtt)
		out.BlobFailures = len(failures)
		return recordActivity(dbc, a.deps.Activity, a.deps.Base.now(), p.ID, in.ActorID, types.ActivityProjectDeleted, p.ID, map[string]any{
			"name":          p.Name,
			"tasks":         nTask,
			"attachments":   nAtt,
			"blob_failures": len(failures),
		})
	})
	if err != nil {
		return domainagg.DeleteProjectResult{}, err
	}
	return out, nil
}

func (a *projectAggregate) AddMember(ctx context.Context, in domainagg.MemberInput) (*types.ProjectMember, error) {
	const op = "Tracker.Project.AddMember"
	if in.UserID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	var out *types.ProjectMember
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.guard.RequireOwnershipLocked(dbc, in.ProjectID, in.ActorID)
		if err != nil {
			return err
		}
		ok, err := a.deps.Users.Exists(dbc, in.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return NotFoundError("user not found")
		}
		already, err := a.deps.Members.IsMember(dbc, p.ID, in.UserID)
		if err != nil {
			return err
		}
		if already {
			return ConflictError("user is already a member of this project")
		}
		now := a.deps.Base.now()
		m := &types.ProjectMember{ProjectID: p.ID, UserID: in.UserID, CreatedAt: now}
		if err := a.deps.Members.Add(dbc, m); err != nil {
			return err
		}
		out = m
		return recordActivity(dbc, a.deps.Activity, now, p.ID, in.ActorID, types.ActivityMemberAdded, in.UserID, nil)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveMember checks, in order: actor membership, owner leaving (conflict),
// non owner removing someone else (forbidden), target membership (conflict).
func (a *projectAggregate) RemoveMember(ctx context.Context, in domainagg.MemberInput) (domainagg.RemoveMemberResult, error) {
	const op = "Tracker.Project.RemoveMember"
	out := domainagg.RemoveMemberResult{ProjectID: in.ProjectID, UserID: in.UserID}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.guard.RequireMembershipLocked(dbc, in.ProjectID, in.ActorID)
		if err != nil {
			return err
		}
		actorIsOwner := p.IsOwner(in.ActorID)
		if in.UserID == in.ActorID && actorIsOwner {
			return ConflictError("the project owner cannot leave the project")
		}
		if in.UserID != in.ActorID && !actorIsOwner {
			return ForbiddenError("only the project owner may remove other members")
		}
		removed, err := a.deps.Members.Remove(dbc, p.ID, in.UserID)
		if err != nil {
			return err
		}
		if !removed {
			return ConflictError("user is not a member of this project")
		}
		now := a.deps.Base.now()
		n, err := a.deps.Tasks.ClearAssignee(dbc, p.ID, in.UserID, map[string]interface{}{"updated_at": now})
		if err != nil {
			return err
		}
		out.UnassignedTasks = n
		return recordActivity(dbc, a.deps.Activity, now, p.ID, in.ActorID, types.ActivityMemberRemoved, in.UserID, map[string]any{
			"unassigned_tasks": n,
		})
	})
	if err != nil {
		return domainagg.RemoveMemberResult{}, err
	}
	return out, nil
}

func (a *projectAggregate) Get(ctx context.Context, actorID, projectID uuid.UUID) (*types.Project, error) {
	const op = "Tracker.Project.Get"
	var out *types.Project
	err := executeRead(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.guard.RequireMembership(dbc, projectID, actorID)
		out = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *projectAggregate) ListForUser(ctx context.Context, actorID uuid.UUID, page types.Page) (types.PagedResult[types.Project], error) {
	const op = "Tracker.Project.ListForUser"
	var out types.PagedResult[types.Project]
	err := executeRead(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		items, total, err := a.deps.Projects.ListForMember(dbc, actorID, page)
		if err != nil {
			return err
		}
		out = types.NewPagedResult(items, page, total)
		return nil
	})
	return out, err
}

func (a *projectAggregate) ListMembers(ctx context.Context, actorID, projectID uuid.UUID) ([]types.User, error) {
	const op = "Tracker.Project.ListMembers"
	out := []types.User{}
	err := executeRead(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if _, err := a.guard.RequireMembership(dbc, projectID, actorID); err != nil {
			return err
		}
		ids, err := a.deps.Members.ListUserIDs(dbc, projectID)
		if err != nil {
			return err
		}
		users, err := a.deps.Users.GetByIDs(dbc, ids)
		if err != nil {
			return err
		}
		for _, u := range users {
			out = append(out, *u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *projectAggregate) ListActivity(ctx context.Context, actorID, projectID uuid.UUID, page types.Page) (types.PagedResult[types.ActivityEntry], error) {
	const op = "Tracker.Project.ListActivity"
	var out types.PagedResult[types.ActivityEntry]
	err := executeRead(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if _, err := a.guard.RequireMembership(dbc, projectID, actorID); err != nil {
			return err
		}
		if a.deps.Activity == nil {
			out = types.NewPagedResult[types.ActivityEntry](nil, page, 0)
			return nil
		}
		items, total, err := a.deps.Activity.ListByProject(dbc, projectID, page)
		if err != nil {
			return err
		}
		out = types.NewPagedResult(items, page, total)
		return nil
	})
	return out, err
}
