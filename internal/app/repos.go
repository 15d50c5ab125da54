package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/taskmaster-backend/internal/data/repos"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

type Repos struct {
	User       repos.UserRepo
	Project    repos.ProjectRepo
	Member     repos.MemberRepo
	Activity   repos.ActivityRepo
	Task       repos.TaskRepo
	Comment    repos.CommentRepo
	Attachment repos.AttachmentRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:       repos.NewUserRepo(db, log),
		Project:    repos.NewProjectRepo(db, log),
		Member:     repos.NewMemberRepo(db, log),
		Activity:   repos.NewActivityRepo(db, log),
		Task:       repos.NewTaskRepo(db, log),
		Comment:    repos.NewCommentRepo(db, log),
		Attachment: repos.NewAttachmentRepo(db, log),
	}
}
