package repository

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-modelstore/cache"
	"github.com/goliatone/go-modelstore/engine"
)

const tracerName = "modelstore.repository"

// Span attribute keys.
const (
	attrEntity   = attribute.Key("modelstore.entity")
	attrAttempts = attribute.Key("modelstore.attempts")
)

// Repository serializes every database operation through its connection's
// exclusive section, retries mutations on busy errors and invalidates the
// dependency cache for each type a successful mutation touched.
//
// Repositories built on the same engine.Conn share its section.
type Repository struct {
	conn   *engine.Conn
	cache  cache.Cache
	logger *slog.Logger
	policy RetryPolicy
	tracer trace.Tracer
	sleep  func(time.Duration)
}

// New creates a Repository on conn. conn must not be nil.
func New(conn *engine.Conn, opts ...Option) *Repository {
	r := &Repository{
		conn:   conn,
		logger: slog.Default(),
		policy: DefaultRetryPolicy(),
		tracer: otel.GetTracerProvider().Tracer(tracerName),
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = cache.NewDefault(cache.WithLogger(r.logger))
	}
	return r
}

// Conn returns the underlying connection.
func (r *Repository) Conn() *engine.Conn {
	return r.conn
}

// Cache returns the dependency cache the repository invalidates.
func (r *Repository) Cache() cache.Cache {
	return r.cache
}

// Policy returns the retry policy in effect.
func (r *Repository) Policy() RetryPolicy {
	return r.policy
}

// mutate runs fn in a transaction inside the exclusive section.
//
// Acquisition is not cancellable: once a mutation is requested it waits for
// the section, and retry sleeps are not interrupted either. A busy error
// rolls the transaction back, releases the section and tries again after the
// policy delay, up to the policy's attempts. This includes a busy COMMIT,
// after which the connection is rolled back before the next attempt. Any other error is returned as is.
// After a commit, every type recorded on the Tx is invalidated in the cache
// before the section is released.
func (r *Repository) mutate(ctx context.Context, op, entity string, fn func(ctx context.Context, tx *Tx) error) error {
	ctx, span := r.tracer.Start(ctx, "repository."+op, trace.WithAttributes(attrEntity.String(entity)))
	defer span.End()

	locked := context.WithoutCancel(ctx)
	for attempt := 1; ; attempt++ {
		err := r.conn.Exclusive(locked, func(ctx context.Context, _ bun.IDB) error {
			tx := &Tx{repo: r}
			err := r.conn.RunInTx(ctx, func(ctx context.Context, btx bun.Tx) error {
				tx.db = btx
				return fn(ctx, tx)
			})
			if err != nil {
				return err
			}
			r.invalidate(tx.modified)
			return nil
		})

		span.SetAttributes(attrAttempts.Int(attempt))
		if err == nil {
			return nil
		}

		busy := engine.IsBusy(err)
		if !busy || attempt >= r.policy.Attempts {
			if busy {
				r.logger.Error("database busy, giving up",
					"op", op, "entity", entity, "attempts", attempt, "error", err)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		r.logger.Warn("database busy, retrying",
			"op", op, "entity", entity, "attempt", attempt, "delay", r.policy.Delay)
		r.sleep(r.policy.Delay)
	}
}

// read runs fn inside the exclusive section. Reads are not retried and honour
// ctx until the section is entered.
func (r *Repository) read(ctx context.Context, op, entity string, fn func(ctx context.Context, db bun.IDB) error) error {
	ctx, span := r.tracer.Start(ctx, "repository."+op, trace.WithAttributes(attrEntity.String(entity)))
	defer span.End()

	if err := r.conn.Exclusive(ctx, fn); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (r *Repository) invalidate(types []reflect.Type) {
	for _, t := range types {
		r.cache.Modified(t)
	}
}

// RunInTransaction runs action in one transaction under the retry policy.
// The whole action is re-run when the database is busy, so it must not have
// side effects outside the transaction. Use ForTx to reach typed operations;
// calling the Repository itself with the transaction's context returns
// ErrReentrant.
func (r *Repository) RunInTransaction(ctx context.Context, action func(ctx context.Context, tx *Tx) error) error {
	if action == nil {
		return invalidArgument("transaction action is nil")
	}
	return r.mutate(ctx, "RunInTransaction", "", action)
}

// typeName is the short name of t used in messages, logs and spans.
func typeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
