package aggregates

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	domainagg "github.com/rushhourgame/railnet/internal/domain/aggregates"
	"github.com/rushhourgame/railnet/internal/observability"
	"github.com/rushhourgame/railnet/internal/platform/dbctx"
	"github.com/rushhourgame/railnet/internal/platform/logger"
)

type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
	// Listeners are told about committed root writes. Failures are logged, never returned.
	Listeners []ChangeListener
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
	return d
}

// Change describes one committed root write.
type Change struct {
	Aggregate string
	IDs       []string
	Deleted   bool
	// Root is the persisted aggregate (nil for deletes).
	Root any
}

// ChangeListener reacts to committed writes (cache invalidation, graph projection).
type ChangeListener interface {
	RootChanged(ctx context.Context, change Change) error
}

func notify(ctx context.Context, deps BaseDeps, change Change) {
	for _, l := range deps.Listeners {
		if l == nil {
			continue
		}
		if err := l.RootChanged(ctx, change); err != nil {
			deps.Log.Warn("change listener failed",
				"aggregate", change.Aggregate,
				"ids", change.IDs,
				"deleted", change.Deleted,
				"error", err,
			)
		}
	}
}

func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}
	ctx, span := observability.Tracer().Start(ctx, op)
	defer span.End()

	err := deps.Runner.InTx(ctx, fn)
	mapped := MapError(op, err)

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		if domainagg.IsCode(mapped, domainagg.CodeConflict) {
			deps.Hooks.IncConflict(op)
		}
		if domainagg.IsCode(mapped, domainagg.CodeRetryable) {
			deps.Hooks.IncRetry(op)
		}
		span.RecordError(mapped)
		span.SetStatus(codes.Error, status)
		if domainagg.IsCode(mapped, domainagg.CodeInternal) {
			deps.Log.Error("aggregate write failed", "op", op, "error", mapped)
		}
	}
	span.SetAttributes(attribute.String("aggregate.status", status))
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

// executeRead runs fn outside a transaction with the same error mapping and hooks as writes.
func executeRead(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	ctx, span := observability.Tracer().Start(ctx, op)
	defer span.End()

	var err error
	if err = ctx.Err(); err == nil {
		err = fn(dbctx.Context{Ctx: ctx})
	}
	mapped := MapError(op, err)

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		if domainagg.IsCode(mapped, domainagg.CodeRetryable) {
			deps.Hooks.IncRetry(op)
		}
		span.RecordError(mapped)
		span.SetStatus(codes.Error, status)
	}
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

func nowUTC() time.Time {
	return time.Now().UTC()
}
