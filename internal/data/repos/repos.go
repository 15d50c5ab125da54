package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/taskmaster-backend/internal/data/repos/project"
	"github.com/yungbote/taskmaster-backend/internal/data/repos/task"
	"github.com/yungbote/taskmaster-backend/internal/data/repos/user"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type ProjectRepo = project.ProjectRepo
type MemberRepo = project.MemberRepo
type ActivityRepo = project.ActivityRepo

type TaskRepo = task.TaskRepo
type CommentRepo = task.CommentRepo
type AttachmentRepo = task.AttachmentRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return project.NewProjectRepo(db, baseLog)
}
func NewMemberRepo(db *gorm.DB, baseLog *logger.Logger) MemberRepo {
	return project.NewMemberRepo(db, baseLog)
}
func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return project.NewActivityRepo(db, baseLog)
}

func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo { return task.NewTaskRepo(db, baseLog) }
func NewCommentRepo(db *gorm.DB, baseLog *logger.Logger) CommentRepo {
	return task.NewCommentRepo(db, baseLog)
}
func NewAttachmentRepo(db *gorm.DB, baseLog *logger.Logger) AttachmentRepo {
	return task.NewAttachmentRepo(db, baseLog)
}
