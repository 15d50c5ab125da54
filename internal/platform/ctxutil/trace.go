package ctxutil

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

type correlationKey struct{}

// Correlation ties a request's logs, spans and error responses together.
type Correlation struct {
	RequestID string
	TraceID   string
}

func WithCorrelation(ctx context.Context, c Correlation) context.Context {
	return context.WithValue(ctx, correlationKey{}, c)
}

// CorrelationFrom returns the ids attached by the HTTP layer. Without them the
// trace id still comes from the active span, if any.
func CorrelationFrom(ctx context.Context) Correlation {
	if ctx == nil {
		return Correlation{}
	}
	c, _ := ctx.Value(correlationKey{}).(Correlation)
	if c.TraceID == "" {
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			c.TraceID = sc.TraceID().String()
		}
	}
	return c
}

// LogFields renders the non-empty ids as logger key/value pairs.
func (c Correlation) LogFields() []interface{} {
	out := make([]interface{}, 0, 4)
	if c.RequestID != "" {
		out = append(out, "request_id", c.RequestID)
	}
	if c.TraceID != "" {
		out = append(out, "trace_id", c.TraceID)
	}
	return out
}
