package aggregates

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/taskmaster-backend/internal/domain"
)

var CommentThreadContract = Contract{
	Name:             "Tracker.CommentThread",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyMembershipScoped,
}

type CommentThread interface {
	Aggregate

	Add(ctx context.Context, in AddCommentInput) (*types.Comment, error)
	// List returns comments oldest first.
	List(ctx context.Context, actorID, taskID uuid.UUID, page types.Page) (types.PagedResult[types.Comment], error)
	// Delete is allowed to the author and to the project owner.
	Delete(ctx context.Context, in DeleteCommentInput) error
}

type AddCommentInput struct {
	ActorID uuid.UUID
	TaskID  uuid.UUID
	Content string
}

type DeleteCommentInput struct {
	ActorID   uuid.UUID
	CommentID uuid.UUID
}
