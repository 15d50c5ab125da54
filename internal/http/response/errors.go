package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/taskmaster-backend/internal/domain/aggregates"
)

const internalMessage = "internal server error"

var statusByCode = map[domainagg.ErrorCode]int{
	domainagg.CodeValidation:         http.StatusBadRequest,
	domainagg.CodeUnauthenticated:    http.StatusUnauthorized,
	domainagg.CodeForbidden:          http.StatusForbidden,
	domainagg.CodeNotFound:           http.StatusNotFound,
	domainagg.CodeConflict:           http.StatusConflict,
	domainagg.CodePreconditionFailed: http.StatusPreconditionFailed,
	domainagg.CodeInvariantViolation: http.StatusUnprocessableEntity,
	domainagg.CodeStorage:            http.StatusBadGateway,
	domainagg.CodeRetryable:          http.StatusServiceUnavailable,
	domainagg.CodeInternal:           http.StatusInternalServerError,
}

// StatusFor maps an aggregate error code to its HTTP status. Unknown codes
// and untagged errors are 500.
func StatusFor(code domainagg.ErrorCode) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// RespondAggregateError writes err using its aggregate code. Server side
// failures never leak their cause to the client.
func RespondAggregateError(c *gin.Context, err error) {
	code := domainagg.CodeOf(err)
	if code == "" {
		code = domainagg.CodeInternal
	}
	status := StatusFor(code)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		RespondError(c, status, string(code), errors.New(internalMessage))
		return
	}
	msg := domainagg.MessageOf(err)
	if msg == "" {
		msg = string(code)
	}
	RespondError(c, status, string(code), errors.New(msg))
}

// RespondBindError reports a malformed request body or parameter.
func RespondBindError(c *gin.Context, err error) {
	RespondError(c, http.StatusBadRequest, "invalid_request", err)
}
