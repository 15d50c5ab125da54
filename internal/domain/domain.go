package domain

import (
	"github.com/yungbote/taskmaster-backend/internal/domain/project"
	"github.com/yungbote/taskmaster-backend/internal/domain/task"
	"github.com/yungbote/taskmaster-backend/internal/domain/user"
)

type (
	User = user.User

	Project       = project.Project
	ProjectMember = project.Member
	ActivityEntry = project.ActivityEntry

	Task       = task.Task
	TaskStatus = task.Status
	TaskFilter = task.Filter
	Comment    = task.Comment
	Attachment = task.Attachment
)

const (
	TaskStatusOpen       = task.StatusOpen
	TaskStatusInProgress = task.StatusInProgress
	TaskStatusCompleted  = task.StatusCompleted
)

const (
	ActivityProjectCreated           = project.ActivityProjectCreated
	ActivityProjectUpdated           = project.ActivityProjectUpdated
	ActivityProjectDeleted           = project.ActivityProjectDeleted
	ActivityMemberAdded              = project.ActivityMemberAdded
	ActivityMemberRemoved            = project.ActivityMemberRemoved
	ActivityTaskCreated              = project.ActivityTaskCreated
	ActivityTaskUpdated              = project.ActivityTaskUpdated
	ActivityTaskStatusChanged        = project.ActivityTaskStatusChanged
	ActivityTaskAssigned             = project.ActivityTaskAssigned
	ActivityTaskDeleted              = project.ActivityTaskDeleted
	ActivityCommentAdded             = project.ActivityCommentAdded
	ActivityCommentDeleted           = project.ActivityCommentDeleted
	ActivityAttachmentStored         = project.ActivityAttachmentStored
	ActivityAttachmentDeleted        = project.ActivityAttachmentDeleted
	ActivityAttachmentBlobDeleteFail = project.ActivityAttachmentBlobDeleteFail
)

var ParseTaskStatus = task.ParseStatus

// AllModels lists every persisted model in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Project{},
		&ProjectMember{},
		&Task{},
		&Comment{},
		&Attachment{},
		&ActivityEntry{},
	}
}
