package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/taskmaster-backend/internal/domain/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/http/response"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
	"github.com/yungbote/taskmaster-backend/internal/services"
)

type ProjectHandler struct {
	log      *logger.Logger
	projects services.ProjectService
}

func NewProjectHandler(log *logger.Logger, projects services.ProjectService) *ProjectHandler {
	return &ProjectHandler{log: log.With("handler", "ProjectHandler"), projects: projects}
}

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	p, err := h.projects.Create(c.Request.Context(), domainagg.CreateProjectInput{
		ActorID:     actor,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"project": p})
}

// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	res, err := h.projects.ListForUser(c.Request.Context(), actor, page)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/projects/:projectId
func (h *ProjectHandler) Get(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "projectId")
	if !ok {
		return
	}
	p, err := h.projects.Get(c.Request.Context(), actor, projectID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": p})
}

// PUT /api/projects/:projectId
func (h *ProjectHandler) Update(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "projectId")
	if !ok {
		return
	}
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	p, err := h.projects.Update(c.Request.Context(), domainagg.UpdateProjectInput{
		ActorID:     actor,
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": p})
}

// DELETE /api/projects/:projectId
func (h *ProjectHandler) Delete(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "projectId")
	if !ok {
		return
	}
	res, err := h.projects.Delete(c.Request.Context(), domainagg.DeleteProjectInput{ActorID: actor, ProjectID: projectID})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	if res.BlobFailures > 0 {
		h.log.Warn("Project deleted; some blobs remain", "project_id", projectID, "blob_failures", res.BlobFailures)
	}
	response.RespondNoContent(c)
}

// GET /api/projects/:projectId/members
func (h *ProjectHandler) ListMembers(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "projectId")
	if !ok {
		return
	}
	users, err := h.projects.ListMembers(c.Request.Context(), actor, projectID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"members": users})
}

// POST /api/projects/:projectId/members
// body: { "user_id": "<uuid>" }
func (h *ProjectHandler) AddMember(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "projectId")
	if !ok {
		return
	}
	var req struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	m, err := h.projects.AddMember(c.Request.Context(), domainagg.MemberInput{
		ActorID:   actor,
		ProjectID: projectID,
		UserID:    req.UserID,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"member": m})
}

// DELETE /api/projects/:projectId/members/:userId
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "projectId")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	res, err := h.projects.RemoveMember(c.Request.Context(), domainagg.MemberInput{
		ActorID:   actor,
		ProjectID: projectID,
		UserID:    userID,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"unassigned_tasks": res.UnassignedTasks})
}
