package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

// Conn owns one SQLite handle and the critical section that serializes every
// use of it. The engine does not support concurrent use of one connection, so
// all callers, reads included, go through Exclusive.
type Conn struct {
	db      *bun.DB
	section *semaphore.Weighted
	owned   bool
	logger  *slog.Logger

	// onAcquire runs right after the section is acquired; tests only.
	onAcquire func()
}

// ConnOption configures a Conn.
type ConnOption func(*Conn)

// WithLogger sets the logger used by the connection.
func WithLogger(logger *slog.Logger) ConnOption {
	return func(c *Conn) {
		if logger != nil {
			c.logger = logger
		}
	}
}

type exclusiveKey struct{ conn *Conn }

// NewConn adopts a bun handle owned elsewhere. Close does not close it.
func NewConn(db *bun.DB, opts ...ConnOption) *Conn {
	c := &Conn{
		db:      db,
		section: semaphore.NewWeighted(1),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open opens the database described by cfg pinned to a single connection.
func Open(ctx context.Context, cfg Config, opts ...ConnOption) (*Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sqldb, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, zerr.Wrap(err, "open sqlite database")
	}
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)
	sqldb.SetConnMaxLifetime(0)
	sqldb.SetConnMaxIdleTime(0)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := applyPragmas(ctx, db, cfg); err != nil {
		_ = db.Close()
		return nil, err
	}

	c := NewConn(db, opts...)
	c.owned = true
	c.logger.Debug("sqlite connection opened", "driver", cfg.Driver, "path", cfg.Path)
	return c, nil
}

func applyPragmas(ctx context.Context, db *bun.DB, cfg Config) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()),
		fmt.Sprintf("PRAGMA foreign_keys = %s", onOff(cfg.ForeignKeys)),
	}
	if cfg.JournalMode != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode = "+cfg.JournalMode)
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return zerr.With(zerr.Wrap(err, "apply sqlite pragma"), "pragma", pragma)
		}
	}
	return nil
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}

// DB returns the underlying handle. Using it outside Exclusive bypasses the
// critical section.
func (c *Conn) DB() *bun.DB {
	return c.db
}

// Close closes the handle if this Conn opened it.
func (c *Conn) Close() error {
	if !c.owned {
		return nil
	}
	return c.db.Close()
}

// Exclusive runs fn while holding the connection's critical section.
//
// The context is checked before the section is requested, while waiting for
// it, and once more after it was acquired; a cancelled caller gets an error
// matching ErrCanceled, the section is released and fn never runs. Calls made
// with a context derived from an enclosing Exclusive on the same Conn fail with
// ErrReentrant.
func (c *Conn) Exclusive(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	if fn == nil {
		return invalidArgument("exclusive callback is nil")
	}
	if InExclusive(ctx, c) {
		return ErrReentrant
	}
	if err := ctx.Err(); err != nil {
		return canceled(err)
	}

	if err := c.section.Acquire(ctx, 1); err != nil {
		return canceled(err)
	}
	defer c.section.Release(1)

	if c.onAcquire != nil {
		c.onAcquire()
	}
	if err := ctx.Err(); err != nil {
		return canceled(err)
	}

	return fn(context.WithValue(ctx, exclusiveKey{conn: c}, true), c.db)
}

// ExclusiveTx runs fn in a transaction inside the critical section. The
// transaction commits when fn returns nil and rolls back otherwise.
func (c *Conn) ExclusiveTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	if fn == nil {
		return invalidArgument("transaction callback is nil")
	}
	return c.Exclusive(ctx, func(ctx context.Context, _ bun.IDB) error {
		return c.RunInTx(ctx, fn)
	})
}

// RunInTx runs fn in a transaction and must be called with a context handed
// out by Exclusive. The transaction commits when fn returns nil.
//
// A failed transaction is followed by an explicit ROLLBACK on the connection.
// SQLite keeps the transaction open when COMMIT reports SQLITE_BUSY, and the
// pinned connection would otherwise begin every later transaction inside it.
func (c *Conn) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	if fn == nil {
		return invalidArgument("transaction callback is nil")
	}
	if !InExclusive(ctx, c) {
		return invalidArgument("transaction started outside the exclusive section")
	}

	err := c.db.RunInTx(ctx, nil, fn)
	if err != nil {
		c.abandonTx(ctx)
	}
	return err
}

// abandonTx rolls back whatever transaction is still open. After a rollback
// done by bun there is none and SQLite reports an error, which is expected.
func (c *Conn) abandonTx(ctx context.Context) {
	if _, err := c.db.ExecContext(context.WithoutCancel(ctx), "ROLLBACK"); err == nil {
		c.logger.Warn("rolled back a transaction left open by a failed commit")
	}
}

// InExclusive reports whether ctx was handed out by c.Exclusive.
func InExclusive(ctx context.Context, c *Conn) bool {
	held, _ := ctx.Value(exclusiveKey{conn: c}).(bool)
	return held
}

// RegisterModels registers join models used by many-to-many relations.
func (c *Conn) RegisterModels(models ...any) {
	c.db.RegisterModel(models...)
}

// CreateTables creates the tables for models when they do not exist yet.
// It bootstraps empty databases; it does not migrate existing schemas.
func (c *Conn) CreateTables(ctx context.Context, models ...any) error {
	return c.Exclusive(ctx, func(ctx context.Context, db bun.IDB) error {
		for _, model := range models {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return zerr.With(zerr.Wrap(err, "create table"), "model", fmt.Sprintf("%T", model))
			}
		}
		return nil
	})
}
