package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/taskmaster-backend/internal/data/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/platform/blobstore"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
	"github.com/yungbote/taskmaster-backend/internal/realtime/bus"
	"github.com/yungbote/taskmaster-backend/internal/services"
)

type Services struct {
	Auth        services.AuthService
	User        services.UserService
	Project     services.ProjectService
	Task        services.TaskService
	Comment     services.CommentService
	Attachment  services.AttachmentService
	OrphanSweep services.OrphanSweeper
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repoSet Repos, blobs blobstore.Store, eventBus bus.Bus) Services {
	log.Info("Wiring services...")

	base := aggregates.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: aggregates.NewLogHooks(log, cfg.SlowOperation),
	}

	projectAgg := aggregates.NewProjectAggregate(aggregates.ProjectAggregateDeps{
		Base:        base,
		Users:       repoSet.User,
		Projects:    repoSet.Project,
		Members:     repoSet.Member,
		Tasks:       repoSet.Task,
		Comments:    repoSet.Comment,
		Attachments: repoSet.Attachment,
		Activity:    repoSet.Activity,
		Blobs:       blobs,
	})
	taskAgg := aggregates.NewTaskAggregate(aggregates.TaskAggregateDeps{
		Base:        base,
		Projects:    repoSet.Project,
		Members:     repoSet.Member,
		Tasks:       repoSet.Task,
		Comments:    repoSet.Comment,
		Attachments: repoSet.Attachment,
		Activity:    repoSet.Activity,
		Blobs:       blobs,
	})
	thread := aggregates.NewCommentThread(aggregates.CommentThreadDeps{
		Base:     base,
		Projects: repoSet.Project,
		Members:  repoSet.Member,
		Tasks:    repoSet.Task,
		Comments: repoSet.Comment,
		Activity: repoSet.Activity,
	})
	attachmentStore := aggregates.NewAttachmentStore(aggregates.AttachmentStoreDeps{
		Base:           base,
		Projects:       repoSet.Project,
		Members:        repoSet.Member,
		Tasks:          repoSet.Task,
		Attachments:    repoSet.Attachment,
		Activity:       repoSet.Activity,
		Blobs:          blobs,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	return Services{
		Auth:        services.NewAuthService(db, log, repoSet.User, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		User:        services.NewUserService(db, log, repoSet.User),
		Project:     services.NewProjectService(log, projectAgg, eventBus),
		Task:        services.NewTaskService(log, taskAgg, eventBus),
		Comment:     services.NewCommentService(log, thread, repoSet.Task, repoSet.Comment, eventBus),
		Attachment:  services.NewAttachmentService(log, attachmentStore, repoSet.Task, repoSet.Attachment, eventBus),
		OrphanSweep: services.NewOrphanSweeper(log, blobs, repoSet.Attachment, repoSet.Activity),
	}
}
