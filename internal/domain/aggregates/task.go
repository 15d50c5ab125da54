package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/taskmaster-backend/internal/domain"
)

var TaskAggregateContract = Contract{
	Name:             "Tracker.TaskAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyMembershipScoped,
	Notes:            "Keeps every assignee inside the project's member set at commit time.",
}

// TaskAggregate owns task lifecycle inside a project. Any member may create
// and edit tasks; only the project owner may delete them.
type TaskAggregate interface {
	Aggregate

	Create(ctx context.Context, in CreateTaskInput) (*types.Task, error)
	// Update replaces every mutable field. A nil AssigneeID unassigns.
	Update(ctx context.Context, in UpdateTaskInput) (*types.Task, error)
	// UpdateStatus is a no-op when the status is unchanged.
	UpdateStatus(ctx context.Context, in UpdateTaskStatusInput) (*types.Task, error)
	Assign(ctx context.Context, in AssignTaskInput) (*types.Task, error)
	Delete(ctx context.Context, in DeleteTaskInput) (DeleteTaskResult, error)

	Get(ctx context.Context, actorID, projectID, taskID uuid.UUID) (*types.Task, error)
	List(ctx context.Context, actorID, projectID uuid.UUID, filter types.TaskFilter, page types.Page) (types.PagedResult[types.Task], error)
	// ListAssignedTo lists tasks assigned to the actor across every project.
	ListAssignedTo(ctx context.Context, actorID uuid.UUID, page types.Page) (types.PagedResult[types.Task], error)
}

type CreateTaskInput struct {
	ActorID     uuid.UUID
	ProjectID   uuid.UUID
	Title       string
	Description string
	// Status defaults to OPEN when empty.
	Status     types.TaskStatus
	DueDate    *time.Time
	AssigneeID *uuid.UUID
}

type UpdateTaskInput struct {
	ActorID     uuid.UUID
	ProjectID   uuid.UUID
	TaskID      uuid.UUID
	Title       string
	Description string
	Status      types.TaskStatus
	DueDate     *time.Time
	AssigneeID  *uuid.UUID
}

type UpdateTaskStatusInput struct {
	ActorID   uuid.UUID
	ProjectID uuid.UUID
	TaskID    uuid.UUID
	Status    types.TaskStatus
}

type AssignTaskInput struct {
	ActorID    uuid.UUID
	ProjectID  uuid.UUID
	TaskID     uuid.UUID
	AssigneeID *uuid.UUID
}

type DeleteTaskInput struct {
	ActorID   uuid.UUID
	ProjectID uuid.UUID
	TaskID    uuid.UUID
}

type DeleteTaskResult struct {
	TaskID             uuid.UUID
	CommentsDeleted    int
	AttachmentsDeleted int
	BlobFailures       int
}
