package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/taskmaster-backend/internal/http/handlers"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
	"github.com/yungbote/taskmaster-backend/internal/realtime"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Auth       *httpH.AuthHandler
	User       *httpH.UserHandler
	Realtime   *httpH.RealtimeHandler
	Project    *httpH.ProjectHandler
	Activity   *httpH.ActivityHandler
	Task       *httpH.TaskHandler
	Comment    *httpH.CommentHandler
	Attachment *httpH.AttachmentHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, cfg Config, services Services, hub *realtime.Hub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(db),
		Auth:     httpH.NewAuthHandler(log, services.Auth),
		User:     httpH.NewUserHandler(log, services.User, services.Task),
		Realtime: httpH.NewRealtimeHandler(log, hub, services.Project),
		Project:  httpH.NewProjectHandler(log, services.Project),
		Activity: httpH.NewActivityHandler(log, services.Project),
		Task:     httpH.NewTaskHandler(log, services.Task),
		Comment:  httpH.NewCommentHandler(log, services.Comment),
		Attachment: httpH.NewAttachmentHandlerWithDeps(httpH.AttachmentHandlerDeps{
			Log:            log,
			Attachments:    services.Attachment,
			MaxUploadBytes: cfg.MaxUploadBytes,
		}),
	}
}
