package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/taskmaster-backend/internal/http/handlers"
	httpMW "github.com/yungbote/taskmaster-backend/internal/http/middleware"
	"github.com/yungbote/taskmaster-backend/internal/observability"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	// Metrics, when set, instruments every request and serves /metrics.
	Metrics *observability.Metrics

	AuthHandler     *httpH.AuthHandler
	AuthMiddleware  *httpMW.AuthMiddleware
	UserHandler     *httpH.UserHandler
	RealtimeHandler *httpH.RealtimeHandler

	ProjectHandler    *httpH.ProjectHandler
	ActivityHandler   *httpH.ActivityHandler
	TaskHandler       *httpH.TaskHandler
	CommentHandler    *httpH.CommentHandler
	AttachmentHandler *httpH.AttachmentHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.Correlate())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/register", cfg.AuthHandler.Register)
			api.POST("/auth/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/users/me", cfg.UserHandler.GetMe)
			protected.PUT("/users/me", cfg.UserHandler.UpdateMe)
			protected.GET("/users/me/tasks", cfg.UserHandler.ListMyTasks)
		}

		// Projects and membership
		if cfg.ProjectHandler != nil {
			protected.POST("/projects", cfg.ProjectHandler.Create)
			protected.GET("/projects", cfg.ProjectHandler.List)
			protected.GET("/projects/:projectId", cfg.ProjectHandler.Get)
			protected.PUT("/projects/:projectId", cfg.ProjectHandler.Update)
			protected.DELETE("/projects/:projectId", cfg.ProjectHandler.Delete)
			protected.GET("/projects/:projectId/members", cfg.ProjectHandler.ListMembers)
			protected.POST("/projects/:projectId/members", cfg.ProjectHandler.AddMember)
			protected.DELETE("/projects/:projectId/members/:userId", cfg.ProjectHandler.RemoveMember)
		}

		if cfg.ActivityHandler != nil {
			protected.GET("/projects/:projectId/activity", cfg.ActivityHandler.ListProjectActivity)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/projects/:projectId/events", cfg.RealtimeHandler.ProjectStream)
		}

		// Tasks
		if cfg.TaskHandler != nil {
			protected.GET("/projects/:projectId/tasks", cfg.TaskHandler.List)
			protected.POST("/projects/:projectId/tasks", cfg.TaskHandler.Create)
			protected.GET("/projects/:projectId/tasks/:taskId", cfg.TaskHandler.Get)
			protected.PUT("/projects/:projectId/tasks/:taskId", cfg.TaskHandler.Update)
			protected.DELETE("/projects/:projectId/tasks/:taskId", cfg.TaskHandler.Delete)
			protected.PATCH("/projects/:projectId/tasks/:taskId/status", cfg.TaskHandler.UpdateStatus)
			protected.PATCH("/projects/:projectId/tasks/:taskId/assignee", cfg.TaskHandler.Assign)
		}

		// Comments
		if cfg.CommentHandler != nil {
			protected.POST("/tasks/:taskId/comments", cfg.CommentHandler.Add)
			protected.GET("/tasks/:taskId/comments", cfg.CommentHandler.List)
			protected.DELETE("/comments/:commentId", cfg.CommentHandler.Delete)
		}

		// Attachments
		if cfg.AttachmentHandler != nil {
			protected.POST("/tasks/:taskId/attachments", cfg.AttachmentHandler.Upload)
			protected.GET("/tasks/:taskId/attachments", cfg.AttachmentHandler.ListForTask)
			protected.GET("/attachments/:attachmentId/download", cfg.AttachmentHandler.Download)
			protected.DELETE("/attachments/:attachmentId", cfg.AttachmentHandler.Delete)
		}
	}

	return r
}
