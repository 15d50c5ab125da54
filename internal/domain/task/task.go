package task

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// ParseStatus accepts the canonical names case-insensitively.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted:
		return s, true
	default:
		return "", false
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID  `gorm:"type:uuid;not null;index;column:project_id" json:"project_id"`
	Title       string     `gorm:"size:255;not null;column:title" json:"title"`
	Description string     `gorm:"size:5000;column:description" json:"description"`
	Status      Status     `gorm:"size:20;not null;index;column:status" json:"status"`
	DueDate     *time.Time `gorm:"type:date;column:due_date" json:"due_date,omitempty"`
	AssigneeID  *uuid.UUID `gorm:"type:uuid;index;column:assignee_id" json:"assignee_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Task) TableName() string { return "task" }

// Filter is the closed set of predicates task listings accept. Set fields
// are combined with AND.
type Filter struct {
	Status     *Status
	Search     string
	AssigneeID *uuid.UUID
	Unassigned bool
}
