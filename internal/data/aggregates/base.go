package aggregates

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/taskmaster-backend/internal/domain/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/platform/ctxutil"
	"github.com/yungbote/taskmaster-backend/internal/platform/dbctx"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

const tracerName = "github.com/yungbote/taskmaster-backend/internal/data/aggregates"

type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
	// Now is the clock used for timestamps and due date checks.
	Now func() time.Time
	// Tracer defaults to the global otel provider.
	Tracer trace.TracerProvider
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.Tracer == nil {
		d.Tracer = otel.GetTracerProvider()
	}
	return d
}

func (d BaseDeps) now() time.Time {
	if d.Now == nil {
		return time.Now().UTC()
	}
	return d.Now().UTC()
}

func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	return execute(ctx, deps, op, "write", fn)
}

// executeRead runs reads in the same kind of transaction as writes so the
// membership guard and the query share a snapshot.
func executeRead(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	return execute(ctx, deps, op, "read", fn)
}

func execute(ctx context.Context, deps BaseDeps, op, kind string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate." + kind
	}

	ctx, span := deps.Tracer.Tracer(tracerName).Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("aggregate.kind", kind))

	err := deps.Runner.InTx(ctx, fn)
	mapped := MapError(op, err)

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		span.SetStatus(codes.Error, status)
		span.RecordError(mapped)
		if domainagg.IsCode(mapped, domainagg.CodeConflict) {
			deps.Hooks.IncConflict(op)
		}
		if domainagg.IsCode(mapped, domainagg.CodeRetryable) {
			deps.Hooks.IncRetry(op)
		}
		if domainagg.IsCode(mapped, domainagg.CodeInternal) {
			fields := append([]interface{}{"op", op, "kind", kind, "error", err}, ctxutil.CorrelationFrom(ctx).LogFields()...)
			deps.Log.Error("Aggregate operation failed", fields...)
		}
	}
	span.SetAttributes(attribute.String("aggregate.status", status))
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domainagg.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(domainagg.CodeOf(MapError("aggregate.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}
