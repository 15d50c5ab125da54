package aggregates

import (
	"context"
	"io"

	"github.com/google/uuid"

	types "github.com/yungbote/taskmaster-backend/internal/domain"
)

var AttachmentStoreContract = Contract{
	Name:             "Tracker.AttachmentStore",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyMembershipScoped,
	Notes:            "Blob written before the record; compensating blob delete when the record cannot commit. Blob deleted before the record on removal.",
}

// AttachmentStore keeps attachment records and their blobs consistent.
//
// Besides the common codes it returns CodeStorage when the blob backend
// fails during Store.
type AttachmentStore interface {
	Aggregate

	Store(ctx context.Context, in StoreAttachmentInput) (*types.Attachment, error)
	// Load returns the record and an open reader the caller must close.
	Load(ctx context.Context, actorID, attachmentID uuid.UUID) (LoadedAttachment, error)
	// Delete is allowed to the uploader and to the project owner. The record
	// is removed even when the blob cannot be.
	Delete(ctx context.Context, in DeleteAttachmentInput) (DeleteAttachmentResult, error)
	ListForTask(ctx context.Context, actorID, taskID uuid.UUID) ([]types.Attachment, error)
}

type StoreAttachmentInput struct {
	ActorID uuid.UUID
	TaskID  uuid.UUID
	Content io.Reader
	// Size is the declared size, or -1 when unknown.
	Size         int64
	OriginalName string
	ContentType  string
}

type LoadedAttachment struct {
	Attachment types.Attachment
	Body       io.ReadCloser
}

type DeleteAttachmentInput struct {
	ActorID      uuid.UUID
	AttachmentID uuid.UUID
}

type DeleteAttachmentResult struct {
	AttachmentID uuid.UUID
	BlobDeleted  bool
}
