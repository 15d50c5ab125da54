package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/taskmaster-backend/internal/http/response"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
	"github.com/yungbote/taskmaster-backend/internal/services"
)

type ActivityHandler struct {
	log      *logger.Logger
	projects services.ProjectService
}

func NewActivityHandler(log *logger.Logger, projects services.ProjectService) *ActivityHandler {
	return &ActivityHandler{log: log.With("handler", "ActivityHandler"), projects: projects}
}

// GET /api/projects/:projectId/activity
// Newest first.
func (h *ActivityHandler) ListProjectActivity(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "projectId")
	if !ok {
		return
	}
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	res, err := h.projects.ListActivity(c.Request.Context(), actor, projectID, page)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, res)
}
