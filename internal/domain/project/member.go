package project

import (
	"time"

	"github.com/google/uuid"
)

// Member is one row of a project's member set. The owner always has a row.
type Member struct {
	ProjectID uuid.UUID `gorm:"type:uuid;primaryKey;column:project_id" json:"project_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index;column:user_id" json:"user_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Member) TableName() string { return "project_member" }
