package project

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;column:name" json:"name"`
	Description string    `gorm:"size:500;column:description" json:"description"`
	// OwnerID never changes after creation.
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index;column:owner_id" json:"owner_id"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Project) TableName() string { return "project" }

// IsOwner reports whether userID owns the project.
func (p *Project) IsOwner(userID uuid.UUID) bool {
	return p != nil && p.OwnerID == userID
}
