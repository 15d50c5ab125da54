package task

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID   uuid.UUID `gorm:"type:uuid;not null;index;column:task_id" json:"task_id"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;index;column:author_id" json:"author_id"`
	Content  string    `gorm:"size:2000;not null;column:content" json:"content"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Comment) TableName() string { return "comment" }
