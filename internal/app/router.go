package app

import (
	httpserver "github.com/yungbote/taskmaster-backend/internal/http"
	"github.com/yungbote/taskmaster-backend/internal/observability"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *httpserver.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return httpserver.NewServer(httpserver.RouterConfig{
		Log:               log,
		ServiceName:       serviceName,
		AllowedOrigins:    cfg.AllowedOrigins,
		Metrics:           metrics,
		AuthHandler:       handlers.Auth,
		AuthMiddleware:    middleware.Auth,
		UserHandler:       handlers.User,
		RealtimeHandler:   handlers.Realtime,
		ProjectHandler:    handlers.Project,
		ActivityHandler:   handlers.Activity,
		TaskHandler:       handlers.Task,
		CommentHandler:    handlers.Comment,
		AttachmentHandler: handlers.Attachment,
		HealthHandler:     handlers.Health,
	})
}
