package aggregates

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/taskmaster-backend/internal/domain"
)

var ProjectAggregateContract = Contract{
	Name:             "Tracker.ProjectAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyMembershipScoped,
	Notes:            "Sole mutator of project rows and the member set; owns cascading project deletion.",
}

// ProjectAggregate owns project lifecycle and membership.
//
// Failures are *aggregates.Error with codes CodeValidation, CodeNotFound,
// CodeForbidden, CodeConflict, CodeRetryable, CodeInternal.
type ProjectAggregate interface {
	Aggregate

	Create(ctx context.Context, in CreateProjectInput) (*types.Project, error)
	// Update replaces name and description. Owner only.
	Update(ctx context.Context, in UpdateProjectInput) (*types.Project, error)
	// Delete removes the project, its tasks, comments, attachments (blob and
	// record) and member rows. Owner only. Blob failures never abort.
	Delete(ctx context.Context, in DeleteProjectInput) (DeleteProjectResult, error)
	// AddMember is owner only and rejects existing members with CodeConflict.
	AddMember(ctx context.Context, in MemberInput) (*types.ProjectMember, error)
	// RemoveMember lets the owner remove anyone but themself and lets any
	// member remove themself. Tasks assigned to the removed user are unassigned.
	RemoveMember(ctx context.Context, in MemberInput) (RemoveMemberResult, error)

	Get(ctx context.Context, actorID, projectID uuid.UUID) (*types.Project, error)
	ListForUser(ctx context.Context, actorID uuid.UUID, page types.Page) (types.PagedResult[types.Project], error)
	ListMembers(ctx context.Context, actorID, projectID uuid.UUID) ([]types.User, error)
	ListActivity(ctx context.Context, actorID, projectID uuid.UUID, page types.Page) (types.PagedResult[types.ActivityEntry], error)
}

type CreateProjectInput struct {
	ActorID     uuid.UUID
	Name        string
	Description string
}

type UpdateProjectInput struct {
	ActorID     uuid.UUID
	ProjectID   uuid.UUID
	Name        string
	Description string
}

type DeleteProjectInput struct {
	ActorID   uuid.UUID
	ProjectID uuid.UUID
}

type DeleteProjectResult struct {
	ProjectID          uuid.UUID
	TasksDeleted       int
	CommentsDeleted    int
	AttachmentsDeleted int
	BlobFailures       int
}

type MemberInput struct {
	ActorID   uuid.UUID
	ProjectID uuid.UUID
	UserID    uuid.UUID
}

type RemoveMemberResult struct {
	ProjectID       uuid.UUID
	UserID          uuid.UUID
	UnassignedTasks int64
}
