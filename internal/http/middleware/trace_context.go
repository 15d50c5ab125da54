package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/taskmaster-backend/internal/platform/ctxutil"
)

const (
	headerRequestID = "X-Request-Id"
	headerTraceID   = "X-Trace-Id"
	maxRequestIDLen = 128
)

// Correlate attaches a request id and a trace id to every request and echoes
// both as response headers. A client X-Request-Id is kept only when it is
// short printable ASCII. The trace id is the otel span's when tracing is on.
func Correlate() gin.HandlerFunc {
	return func(c *gin.Context) {
		ids := ctxutil.Correlation{RequestID: cleanRequestID(c.GetHeader(headerRequestID))}
		if ids.RequestID == "" {
			ids.RequestID = uuid.NewString()
		}
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			ids.TraceID = sc.TraceID().String()
		} else {
			ids.TraceID = strings.ReplaceAll(uuid.NewString(), "-", "")
		}

		c.Request = c.Request.WithContext(ctxutil.WithCorrelation(c.Request.Context(), ids))
		c.Writer.Header().Set(headerRequestID, ids.RequestID)
		c.Writer.Header().Set(headerTraceID, ids.TraceID)
		c.Next()
	}
}

func cleanRequestID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxRequestIDLen {
		return ""
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < 0x21 || raw[i] > 0x7e {
			return ""
		}
	}
	return raw
}
