package repository

import (
	"context"
	"reflect"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-modelstore/engine"
)

// Table is the typed entry point for T. Reads and writes each take the
// connection's exclusive section; writes retry on busy errors and invalidate
// T in the cache.
type Table[T any] struct {
	repo *Repository
	q    queries[T]
}

// For returns the typed operations for T on r.
func For[T any](r *Repository) *Table[T] {
	return &Table[T]{repo: r, q: newQueries[T]()}
}

// Repository returns the repository the table belongs to.
func (t *Table[T]) Repository() *Repository {
	return t.repo
}

// Entity returns the name used for T in errors, logs and spans.
func (t *Table[T]) Entity() string {
	return t.q.entity
}

// EntityType returns T with pointers stripped.
func (t *Table[T]) EntityType() reflect.Type {
	return t.q.typ
}

func (t *Table[T]) write(ctx context.Context, op string, fn func(ctx context.Context, tt *TxTable[T]) (int64, error)) (int64, error) {
	var n int64
	err := t.repo.mutate(ctx, op, t.q.entity, func(ctx context.Context, tx *Tx) error {
		var err error
		n, err = fn(ctx, ForTx[T](tx))
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Insert inserts model and writes generated keys back to it.
func (t *Table[T]) Insert(ctx context.Context, model *T) (int64, error) {
	return t.write(ctx, "Insert", func(ctx context.Context, tt *TxTable[T]) (int64, error) {
		return tt.Insert(ctx, model)
	})
}

// InsertAll inserts models in one transaction. An empty slice is a no-op.
func (t *Table[T]) InsertAll(ctx context.Context, models []T) (int64, error) {
	if len(models) == 0 {
		return 0, nil
	}
	return t.write(ctx, "InsertAll", func(ctx context.Context, tt *TxTable[T]) (int64, error) {
		return tt.InsertAll(ctx, models)
	})
}

// Update writes model by primary key.
func (t *Table[T]) Update(ctx context.Context, model *T) (int64, error) {
	return t.write(ctx, "Update", func(ctx context.Context, tt *TxTable[T]) (int64, error) {
		return tt.Update(ctx, model)
	})
}

// UpdateAll writes each model by primary key in one transaction.
func (t *Table[T]) UpdateAll(ctx context.Context, models []T) (int64, error) {
	if len(models) == 0 {
		return 0, nil
	}
	return t.write(ctx, "UpdateAll", func(ctx context.Context, tt *TxTable[T]) (int64, error) {
		return tt.UpdateAll(ctx, models)
	})
}

// Delete removes the row with the given primary key.
func (t *Table[T]) Delete(ctx context.Context, key any) (int64, error) {
	if _, err := engine.RequireKey(key); err != nil {
		return 0, err
	}
	return t.write(ctx, "Delete", func(ctx context.Context, tt *TxTable[T]) (int64, error) {
		return tt.Delete(ctx, key)
	})
}

// DeleteWhere removes the rows matching filter, which must not be zero.
func (t *Table[T]) DeleteWhere(ctx context.Context, filter engine.Filter) (int64, error) {
	if filter.IsZero() {
		return 0, invalidArgument("filter is empty")
	}
	return t.write(ctx, "DeleteWhere", func(ctx context.Context, tt *TxTable[T]) (int64, error) {
		return tt.DeleteWhere(ctx, filter)
	})
}

// EmptyTable removes every row.
func (t *Table[T]) EmptyTable(ctx context.Context) (int64, error) {
	return t.write(ctx, "EmptyTable", func(ctx context.Context, tt *TxTable[T]) (int64, error) {
		return tt.EmptyTable(ctx)
	})
}

// Exec runs a raw statement as a mutation of T: it is retried on busy errors
// and invalidates T on success. It returns the number of affected rows.
func (t *Table[T]) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if query == "" {
		return 0, invalidArgument("query is empty")
	}
	return t.write(ctx, "Exec", func(ctx context.Context, tt *TxTable[T]) (int64, error) {
		return tt.Exec(ctx, query, args...)
	})
}

func (t *Table[T]) read(ctx context.Context, op string, fn func(ctx context.Context, db bun.IDB) error) error {
	return t.repo.read(ctx, op, t.q.entity, fn)
}

// All returns every row in primary key order.
func (t *Table[T]) All(ctx context.Context, opts ...ReadOption) ([]T, error) {
	var rows []T
	err := t.read(ctx, "All", func(ctx context.Context, db bun.IDB) (err error) {
		rows, err = t.q.all(ctx, db, engine.Filter{}, LoadOf(opts...))
		return err
	})
	return rows, err
}

// AllWhere returns the rows matching filter, which must not be zero.
func (t *Table[T]) AllWhere(ctx context.Context, filter engine.Filter, opts ...ReadOption) ([]T, error) {
	if filter.IsZero() {
		return nil, invalidArgument("filter is empty")
	}
	var rows []T
	err := t.read(ctx, "AllWhere", func(ctx context.Context, db bun.IDB) (err error) {
		rows, err = t.q.allWhere(ctx, db, filter, LoadOf(opts...))
		return err
	})
	return rows, err
}

// AllOptimizedWithChildren returns the rows matching filter with every
// relationship loaded recursively. A zero filter returns all rows.
func (t *Table[T]) AllOptimizedWithChildren(ctx context.Context, filter engine.Filter) ([]T, error) {
	var rows []T
	err := t.read(ctx, "AllOptimizedWithChildren", func(ctx context.Context, db bun.IDB) (err error) {
		rows, err = t.q.all(ctx, db, filter, engine.Load{Children: true, Recursive: true})
		return err
	})
	return rows, err
}

// FirstOrDefault returns the first row in primary key order, or nil.
func (t *Table[T]) FirstOrDefault(ctx context.Context, opts ...ReadOption) (*T, error) {
	var row *T
	err := t.read(ctx, "FirstOrDefault", func(ctx context.Context, db bun.IDB) (err error) {
		row, err = t.q.firstOrDefault(ctx, db, LoadOf(opts...))
		return err
	})
	return row, err
}

// FirstOrDefaultWhere returns the first row matching filter, or nil.
func (t *Table[T]) FirstOrDefaultWhere(ctx context.Context, filter engine.Filter, opts ...ReadOption) (*T, error) {
	if filter.IsZero() {
		return nil, invalidArgument("filter is empty")
	}
	var row *T
	err := t.read(ctx, "FirstOrDefaultWhere", func(ctx context.Context, db bun.IDB) (err error) {
		row, err = t.q.firstOrDefaultWhere(ctx, db, filter, LoadOf(opts...))
		return err
	})
	return row, err
}

// FirstOrDefaultByKey returns the row with the given primary key, or nil.
// Nil and default keys are rejected with ErrInvalidArgument.
func (t *Table[T]) FirstOrDefaultByKey(ctx context.Context, key any, opts ...ReadOption) (*T, error) {
	pk, err := engine.RequireKey(key)
	if err != nil {
		return nil, err
	}
	var row *T
	err = t.read(ctx, "FirstOrDefaultByKey", func(ctx context.Context, db bun.IDB) (err error) {
		row, err = t.q.firstOrDefaultByKey(ctx, db, pk, LoadOf(opts...))
		return err
	})
	return row, err
}

// First is FirstOrDefault failing with a *NoRowError when the table is empty.
func (t *Table[T]) First(ctx context.Context, opts ...ReadOption) (*T, error) {
	return t.q.first(t.FirstOrDefault(ctx, opts...))
}

// FirstWhere is FirstOrDefaultWhere failing with a *NoRowError when nothing matches.
func (t *Table[T]) FirstWhere(ctx context.Context, filter engine.Filter, opts ...ReadOption) (*T, error) {
	v, err := t.FirstOrDefaultWhere(ctx, filter, opts...)
	return t.q.firstWhere(v, err, filter)
}

// FirstByKey is FirstOrDefaultByKey failing with a *NoRowError when the key is absent.
func (t *Table[T]) FirstByKey(ctx context.Context, key any, opts ...ReadOption) (*T, error) {
	pk, err := engine.RequireKey(key)
	if err != nil {
		return nil, err
	}
	v, err := t.FirstOrDefaultByKey(ctx, pk, opts...)
	return t.q.firstByKey(v, err, pk)
}

// Count returns the number of rows matching filter; a zero filter counts all rows.
func (t *Table[T]) Count(ctx context.Context, filter engine.Filter) (int, error) {
	var n int
	err := t.read(ctx, "Count", func(ctx context.Context, db bun.IDB) (err error) {
		n, err = t.q.count(ctx, db, filter)
		return err
	})
	return n, err
}

// ExecuteQuery runs a raw query and scans the rows into T.
func (t *Table[T]) ExecuteQuery(ctx context.Context, query string, args ...any) ([]T, error) {
	if query == "" {
		return nil, invalidArgument("query is empty")
	}
	var rows []T
	err := t.read(ctx, "ExecuteQuery", func(ctx context.Context, db bun.IDB) (err error) {
		rows, err = t.q.execute(ctx, db, query, args)
		return err
	})
	return rows, err
}

// Query runs fn against a select on T's table inside the exclusive section and
// returns what fn produces.
//
//	n, err := repository.Query(ctx, orders, func(ctx context.Context, q *bun.SelectQuery) (int, error) {
//		return q.Where("status = ?", "open").Count(ctx)
//	})
func Query[T, R any](ctx context.Context, t *Table[T], fn func(ctx context.Context, q *bun.SelectQuery) (R, error)) (R, error) {
	var out R
	if fn == nil {
		return out, invalidArgument("query callback is nil")
	}
	err := t.read(ctx, "Query", func(ctx context.Context, db bun.IDB) (err error) {
		out, err = fn(ctx, db.NewSelect().Model((*T)(nil)))
		return err
	})
	return out, err
}
