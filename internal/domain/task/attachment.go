package task

import (
	"time"

	"github.com/google/uuid"
)

// Attachment records a blob held by the blob store. FileName is the client
// supplied display name and never participates in the storage key.
type Attachment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FileName    string    `gorm:"size:255;not null;column:file_name" json:"file_name"`
	ContentType string    `gorm:"size:100;not null;column:content_type" json:"content_type"`
	SizeBytes   int64     `gorm:"not null;column:size_bytes" json:"size_bytes"`
	StorageKey  string    `gorm:"size:512;not null;uniqueIndex;column:storage_key" json:"-"`
	TaskID      uuid.UUID `gorm:"type:uuid;not null;index;column:task_id" json:"task_id"`
	UploaderID  uuid.UUID `gorm:"type:uuid;not null;index;column:uploader_id" json:"uploader_id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Attachment) TableName() string { return "attachment" }
