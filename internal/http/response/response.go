package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/taskmaster-backend/internal/platform/ctxutil"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	// RequestID lets a client quote an opaque failure back to operators.
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	apiErr := APIError{Message: msg, Code: code}
	if c.Request != nil {
		apiErr.RequestID = ctxutil.CorrelationFrom(c.Request.Context()).RequestID
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: apiErr})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
