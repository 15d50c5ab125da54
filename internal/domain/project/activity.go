package project

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ActivityProjectCreated           = "project.created"
	ActivityProjectUpdated           = "project.updated"
	ActivityMemberAdded              = "member.added"
	ActivityMemberRemoved            = "member.removed"
	ActivityTaskCreated              = "task.created"
	ActivityTaskUpdated              = "task.updated"
	ActivityTaskStatusChanged        = "task.status_changed"
	ActivityTaskAssigned             = "task.assigned"
	ActivityTaskDeleted              = "task.deleted"
	ActivityProjectDeleted           = "project.deleted"
	ActivityCommentAdded             = "comment.added"
	ActivityCommentDeleted           = "comment.deleted"
	ActivityAttachmentStored         = "attachment.stored"
	ActivityAttachmentDeleted        = "attachment.deleted"
	ActivityAttachmentBlobDeleteFail = "attachment.blob_delete_failed"
)

// ActivityEntry is an append-only audit row. It carries no foreign keys and
// outlives the project it describes.
type ActivityEntry struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID      `gorm:"type:uuid;not null;index;column:project_id" json:"project_id"`
	ActorID   *uuid.UUID     `gorm:"type:uuid;column:actor_id" json:"actor_id,omitempty"`
	Kind      string         `gorm:"size:64;not null;index;column:kind" json:"kind"`
	SubjectID *uuid.UUID     `gorm:"type:uuid;column:subject_id" json:"subject_id,omitempty"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
}

func (ActivityEntry) TableName() string { return "activity_log" }
