package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/taskmaster-backend/internal/domain/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/http/response"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
	"github.com/yungbote/taskmaster-backend/internal/services"
)

// multipartOverhead leaves room for boundaries and part headers on top of
// the file itself.
const multipartOverhead = 1 << 20

type AttachmentHandlerDeps struct {
	Log         *logger.Logger
	Attachments services.AttachmentService
	// MaxUploadBytes bounds the request body. Zero disables the bound here;
	// the attachment store still enforces its own limit.
	MaxUploadBytes int64
}

type AttachmentHandler struct {
	log         *logger.Logger
	attachments services.AttachmentService
	maxBytes    int64
}

func NewAttachmentHandlerWithDeps(deps AttachmentHandlerDeps) *AttachmentHandler {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &AttachmentHandler{
		log:         log.With("handler", "AttachmentHandler"),
		attachments: deps.Attachments,
		maxBytes:    deps.MaxUploadBytes,
	}
}

// POST /api/tasks/:taskId/attachments (multipart/form-data)
// field: "file"
func (h *AttachmentHandler) Upload(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "taskId")
	if !ok {
		return
	}
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(c, http.StatusRequestEntityTooLarge, "validation", errors.New("file too large"))
			return
		}
		response.RespondError(c, http.StatusBadRequest, "missing_file", errors.New("multipart field \"file\" is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "open_file_failed", err)
		return
	}
	defer f.Close()

	att, err := h.attachments.Upload(c.Request.Context(), domainagg.StoreAttachmentInput{
		ActorID:      actor,
		TaskID:       taskID,
		Content:      f,
		Size:         fh.Size,
		OriginalName: fh.Filename,
		ContentType:  fh.Header.Get("Content-Type"),
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"attachment": att})
}

// GET /api/tasks/:taskId/attachments
func (h *AttachmentHandler) ListForTask(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "taskId")
	if !ok {
		return
	}
	list, err := h.attachments.ListForTask(c.Request.Context(), actor, taskID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"attachments": list})
}

// GET /api/attachments/:attachmentId/download
func (h *AttachmentHandler) Download(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	attachmentID, ok := uuidParam(c, "attachmentId")
	if !ok {
		return
	}
	loaded, err := h.attachments.Download(c.Request.Context(), actor, attachmentID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	defer loaded.Body.Close()

	att := loaded.Attachment
	c.Header("Content-Type", att.ContentType)
	c.Header("Content-Length", strconv.FormatInt(att.SizeBytes, 10))
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": att.FileName}))
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, loaded.Body); err != nil {
		h.log.Warn("Download interrupted", "attachment_id", att.ID, "error", err)
	}
}

// DELETE /api/attachments/:attachmentId
func (h *AttachmentHandler) Delete(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	attachmentID, ok := uuidParam(c, "attachmentId")
	if !ok {
		return
	}
	res, err := h.attachments.Delete(c.Request.Context(), domainagg.DeleteAttachmentInput{
		ActorID:      actor,
		AttachmentID: attachmentID,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	if !res.BlobDeleted {
		h.log.Warn("Attachment record removed; blob remains", "attachment_id", attachmentID)
	}
	response.RespondNoContent(c)
}
