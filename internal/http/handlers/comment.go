package handlers

import (
	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/taskmaster-backend/internal/domain/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/http/response"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
	"github.com/yungbote/taskmaster-backend/internal/services"
)

type CommentHandler struct {
	log      *logger.Logger
	comments services.CommentService
}

func NewCommentHandler(log *logger.Logger, comments services.CommentService) *CommentHandler {
	return &CommentHandler{log: log.With("handler", "CommentHandler"), comments: comments}
}

// POST /api/tasks/:taskId/comments
// body: { "content": "..." }
func (h *CommentHandler) Add(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "taskId")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	cm, err := h.comments.Add(c.Request.Context(), domainagg.AddCommentInput{
		ActorID: actor,
		TaskID:  taskID,
		Content: req.Content,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"comment": cm})
}

// GET /api/tasks/:taskId/comments
// Oldest first.
func (h *CommentHandler) List(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "taskId")
	if !ok {
		return
	}
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	res, err := h.comments.List(c.Request.Context(), actor, taskID, page)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// DELETE /api/comments/:commentId
func (h *CommentHandler) Delete(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	commentID, ok := uuidParam(c, "commentId")
	if !ok {
		return
	}
	if err := h.comments.Delete(c.Request.Context(), domainagg.DeleteCommentInput{ActorID: actor, CommentID: commentID}); err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondNoContent(c)
}
