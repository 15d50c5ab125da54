package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/taskmaster-backend/internal/domain"
	domainagg "github.com/yungbote/taskmaster-backend/internal/domain/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/http/response"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
	"github.com/yungbote/taskmaster-backend/internal/services"
)

const dueDateLayout = "2006-01-02"

type TaskHandler struct {
	log   *logger.Logger
	tasks services.TaskService
}

func NewTaskHandler(log *logger.Logger, tasks services.TaskService) *TaskHandler {
	return &TaskHandler{log: log.With("handler", "TaskHandler"), tasks: tasks}
}

type taskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	DueDate     *string    `json:"due_date"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
}

// parseStatus accepts any case. Unknown names pass through unchanged so the
// aggregate reports them as a validation failure.
func parseStatus(raw string) types.TaskStatus {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if s, ok := types.ParseTaskStatus(raw); ok {
		return s
	}
	return types.TaskStatus(raw)
}

func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	d, err := time.Parse(dueDateLayout, strings.TrimSpace(*raw))
	if err != nil {
		return nil, errors.New("due_date must be formatted as YYYY-MM-DD")
	}
	return &d, nil
}

func (h *TaskHandler) scope(c *gin.Context) (actor, projectID uuid.UUID, ok bool) {
	if actor, ok = actorID(c); !ok {
		return
	}
	projectID, ok = uuidParam(c, "projectId")
	return
}

// GET /api/projects/:projectId/tasks?status=&search=&assignee_id=&unassigned=&page=&size=
func (h *TaskHandler) List(c *gin.Context) {
	actor, projectID, ok := h.scope(c)
	if !ok {
		return
	}
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	var filter types.TaskFilter
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		s, valid := types.ParseTaskStatus(raw)
		if !valid {
			response.RespondError(c, http.StatusBadRequest, "validation", errors.New("unknown task status"))
			return
		}
		filter.Status = &s
	}
	filter.Search = strings.TrimSpace(c.Query("search"))
	if raw := strings.TrimSpace(c.Query("assignee_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_assignee_id", errors.New("invalid assignee_id"))
			return
		}
		filter.AssigneeID = &id
	}
	if raw := strings.TrimSpace(c.Query("unassigned")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("unassigned must be a boolean"))
			return
		}
		filter.Unassigned = b
	}

	res, err := h.tasks.List(c.Request.Context(), actor, projectID, filter, page)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/projects/:projectId/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	actor, projectID, ok := h.scope(c)
	if !ok {
		return
	}
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	t, err := h.tasks.Create(c.Request.Context(), domainagg.CreateTaskInput{
		ActorID:     actor,
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      parseStatus(req.Status),
		DueDate:     due,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"task": t})
}

// GET /api/projects/:projectId/tasks/:taskId
func (h *TaskHandler) Get(c *gin.Context) {
	actor, projectID, ok := h.scope(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "taskId")
	if !ok {
		return
	}
	t, err := h.tasks.Get(c.Request.Context(), actor, projectID, taskID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"task": t})
}

// PUT /api/projects/:projectId/tasks/:taskId
// Replaces every mutable field; an absent assignee_id unassigns.
func (h *TaskHandler) Update(c *gin.Context) {
	actor, projectID, ok := h.scope(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "taskId")
	if !ok {
		return
	}
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	t, err := h.tasks.Update(c.Request.Context(), domainagg.UpdateTaskInput{
		ActorID:     actor,
		ProjectID:   projectID,
		TaskID:      taskID,
		Title:       req.Title,
		Description: req.Description,
		Status:      parseStatus(req.Status),
		DueDate:     due,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"task": t})
}

// PATCH /api/projects/:projectId/tasks/:taskId/status
// body: { "status": "IN_PROGRESS" }
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	actor, projectID, ok := h.scope(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "taskId")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	t, err := h.tasks.UpdateStatus(c.Request.Context(), domainagg.UpdateTaskStatusInput{
		ActorID:   actor,
		ProjectID: projectID,
		TaskID:    taskID,
		Status:    parseStatus(req.Status),
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"task": t})
}

// PATCH /api/projects/:projectId/tasks/:taskId/assignee
// body: { "assignee_id": "<uuid>" } or { "assignee_id": null } to unassign
func (h *TaskHandler) Assign(c *gin.Context) {
	actor, projectID, ok := h.scope(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "taskId")
	if !ok {
		return
	}
	var req struct {
		AssigneeID *uuid.UUID `json:"assignee_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	t, err := h.tasks.Assign(c.Request.Context(), domainagg.AssignTaskInput{
		ActorID:    actor,
		ProjectID:  projectID,
		TaskID:     taskID,
		AssigneeID: req.AssigneeID,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"task": t})
}

// DELETE /api/projects/:projectId/tasks/:taskId
func (h *TaskHandler) Delete(c *gin.Context) {
	actor, projectID, ok := h.scope(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "taskId")
	if !ok {
		return
	}
	res, err := h.tasks.Delete(c.Request.Context(), domainagg.DeleteTaskInput{
		ActorID:   actor,
		ProjectID: projectID,
		TaskID:    taskID,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	if res.BlobFailures > 0 {
		h.log.Warn("Task deleted; some blobs remain", "task_id", taskID, "blob_failures", res.BlobFailures)
	}
	response.RespondNoContent(c)
}
