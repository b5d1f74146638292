package repository

import (
	"context"
	"reflect"
	"slices"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-modelstore/engine"
)

// Tx is an open transaction handed to RunInTransaction actions. It is only
// valid for the duration of the action.
type Tx struct {
	repo     *Repository
	db       bun.Tx
	modified []reflect.Type
}

// DB exposes the bun transaction for statements the typed API does not cover.
// Types written through it must be reported with Touch.
func (tx *Tx) DB() bun.Tx {
	return tx.db
}

// Touch records t as modified; it is invalidated in the cache after commit.
func (tx *Tx) Touch(t reflect.Type) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || slices.Contains(tx.modified, t) {
		return
	}
	tx.modified = append(tx.modified, t)
}

// TxTable is the typed view of T within a transaction.
type TxTable[T any] struct {
	tx *Tx
	q  queries[T]
}

// ForTx returns the typed operations for T inside tx.
func ForTx[T any](tx *Tx) *TxTable[T] {
	return &TxTable[T]{tx: tx, q: newQueries[T]()}
}

func (t *TxTable[T]) touched() {
	t.tx.Touch(reflect.TypeFor[T]())
}

// Insert inserts model and writes generated keys back to it.
func (t *TxTable[T]) Insert(ctx context.Context, model *T) (int64, error) {
	n, err := engine.Insert(ctx, t.tx.db, model)
	if err == nil {
		t.touched()
	}
	return n, err
}

// InsertAll inserts models. An empty slice is a no-op.
func (t *TxTable[T]) InsertAll(ctx context.Context, models []T) (int64, error) {
	n, err := engine.InsertAll(ctx, t.tx.db, models)
	if err == nil && len(models) > 0 {
		t.touched()
	}
	return n, err
}

// Update writes model by primary key.
func (t *TxTable[T]) Update(ctx context.Context, model *T) (int64, error) {
	n, err := engine.Update(ctx, t.tx.db, model)
	if err == nil {
		t.touched()
	}
	return n, err
}

// UpdateAll writes each model by primary key.
func (t *TxTable[T]) UpdateAll(ctx context.Context, models []T) (int64, error) {
	n, err := engine.UpdateAll(ctx, t.tx.db, models)
	if err == nil && len(models) > 0 {
		t.touched()
	}
	return n, err
}

// Delete removes the row with the given primary key.
func (t *TxTable[T]) Delete(ctx context.Context, key any) (int64, error) {
	pk, err := engine.RequireKey(key)
	if err != nil {
		return 0, err
	}
	n, err := engine.DeleteByKey[T](ctx, t.tx.db, pk)
	if err == nil {
		t.touched()
	}
	return n, err
}

// DeleteWhere removes the rows matching filter.
func (t *TxTable[T]) DeleteWhere(ctx context.Context, filter engine.Filter) (int64, error) {
	n, err := engine.DeleteWhere[T](ctx, t.tx.db, filter)
	if err == nil {
		t.touched()
	}
	return n, err
}

// EmptyTable removes every row.
func (t *TxTable[T]) EmptyTable(ctx context.Context) (int64, error) {
	n, err := engine.DeleteAll[T](ctx, t.tx.db)
	if err == nil {
		t.touched()
	}
	return n, err
}

// Exec runs a raw statement and records T as modified.
func (t *TxTable[T]) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	n, err := engine.Exec(ctx, t.tx.db, query, args...)
	if err == nil {
		t.touched()
	}
	return n, err
}

// All returns every row.
func (t *TxTable[T]) All(ctx context.Context, opts ...ReadOption) ([]T, error) {
	return t.q.all(ctx, t.tx.db, engine.Filter{}, LoadOf(opts...))
}

// AllWhere returns the rows matching filter.
func (t *TxTable[T]) AllWhere(ctx context.Context, filter engine.Filter, opts ...ReadOption) ([]T, error) {
	return t.q.allWhere(ctx, t.tx.db, filter, LoadOf(opts...))
}

// FirstOrDefault returns the first row, or nil.
func (t *TxTable[T]) FirstOrDefault(ctx context.Context, opts ...ReadOption) (*T, error) {
	return t.q.firstOrDefault(ctx, t.tx.db, LoadOf(opts...))
}

// FirstOrDefaultWhere returns the first row matching filter, or nil.
func (t *TxTable[T]) FirstOrDefaultWhere(ctx context.Context, filter engine.Filter, opts ...ReadOption) (*T, error) {
	return t.q.firstOrDefaultWhere(ctx, t.tx.db, filter, LoadOf(opts...))
}

// FirstOrDefaultByKey returns the row with the given primary key, or nil.
func (t *TxTable[T]) FirstOrDefaultByKey(ctx context.Context, key any, opts ...ReadOption) (*T, error) {
	pk, err := engine.RequireKey(key)
	if err != nil {
		return nil, err
	}
	return t.q.firstOrDefaultByKey(ctx, t.tx.db, pk, LoadOf(opts...))
}

// First is FirstOrDefault failing with a *NoRowError when there is no row.
func (t *TxTable[T]) First(ctx context.Context, opts ...ReadOption) (*T, error) {
	return t.q.first(t.FirstOrDefault(ctx, opts...))
}

// FirstWhere is FirstOrDefaultWhere failing with a *NoRowError when nothing matches.
func (t *TxTable[T]) FirstWhere(ctx context.Context, filter engine.Filter, opts ...ReadOption) (*T, error) {
	v, err := t.FirstOrDefaultWhere(ctx, filter, opts...)
	return t.q.firstWhere(v, err, filter)
}

// FirstByKey is FirstOrDefaultByKey failing with a *NoRowError when the key is absent.
func (t *TxTable[T]) FirstByKey(ctx context.Context, key any, opts ...ReadOption) (*T, error) {
	pk, err := engine.RequireKey(key)
	if err != nil {
		return nil, err
	}
	v, err := t.q.firstOrDefaultByKey(ctx, t.tx.db, pk, LoadOf(opts...))
	return t.q.firstByKey(v, err, pk)
}

// Count returns the number of rows matching filter; a zero filter counts all rows.
func (t *TxTable[T]) Count(ctx context.Context, filter engine.Filter) (int, error) {
	return t.q.count(ctx, t.tx.db, filter)
}
