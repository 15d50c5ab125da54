package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/taskmaster-backend/internal/http/response"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
	"github.com/yungbote/taskmaster-backend/internal/realtime"
	"github.com/yungbote/taskmaster-backend/internal/services"
)

type RealtimeHandler struct {
	log      *logger.Logger
	hub      *realtime.Hub
	projects services.ProjectService
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.Hub, projects services.ProjectService) *RealtimeHandler {
	return &RealtimeHandler{
		log:      log.With("handler", "RealtimeHandler"),
		hub:      hub,
		projects: projects,
	}
}

// GET /api/projects/:projectId/events
// Streams the project's change events. Membership is checked once at
// connect; a removed member's stream stops receiving events.
func (h *RealtimeHandler) ProjectStream(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "projectId")
	if !ok {
		return
	}
	if _, err := h.projects.Get(c.Request.Context(), actor, projectID); err != nil {
		response.RespondAggregateError(c, err)
		return
	}

	client := h.hub.NewClient(actor)
	defer h.hub.CloseClient(client)
	h.hub.AddChannel(client, realtime.ProjectChannel(projectID))
	h.log.Info("Event stream open", "user_id", actor, "project_id", projectID, "client_id", client.ID)

	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
