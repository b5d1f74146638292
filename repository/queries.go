package repository

import (
	"context"
	"reflect"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-modelstore/cache"
	"github.com/goliatone/go-modelstore/engine"
)

// queries holds the typed reads and writes shared by Table and TxTable. Each
// method runs one operation on db without locking.
type queries[T any] struct {
	typ    reflect.Type
	entity string
}

func newQueries[T any]() queries[T] {
	typ := cache.TypeOf[T]()
	return queries[T]{typ: typ, entity: typeName(typ)}
}

func (q queries[T]) all(ctx context.Context, db bun.IDB, filter engine.Filter, load engine.Load) ([]T, error) {
	return engine.GetAll[T](ctx, db, filter, load)
}

func (q queries[T]) allWhere(ctx context.Context, db bun.IDB, filter engine.Filter, load engine.Load) ([]T, error) {
	if filter.IsZero() {
		return nil, invalidArgument("filter is empty")
	}
	return engine.GetAll[T](ctx, db, filter, load)
}

func (q queries[T]) firstOrDefault(ctx context.Context, db bun.IDB, load engine.Load) (*T, error) {
	return engine.FirstWhere[T](ctx, db, engine.Filter{}, load)
}

func (q queries[T]) firstOrDefaultWhere(ctx context.Context, db bun.IDB, filter engine.Filter, load engine.Load) (*T, error) {
	if filter.IsZero() {
		return nil, invalidArgument("filter is empty")
	}
	return engine.FirstWhere[T](ctx, db, filter, load)
}

func (q queries[T]) firstOrDefaultByKey(ctx context.Context, db bun.IDB, key engine.PrimaryKey, load engine.Load) (*T, error) {
	return engine.Find[T](ctx, db, key, load)
}

func (q queries[T]) count(ctx context.Context, db bun.IDB, filter engine.Filter) (int, error) {
	return engine.Count[T](ctx, db, filter)
}

func (q queries[T]) execute(ctx context.Context, db bun.IDB, query string, args []any) ([]T, error) {
	return engine.Query[T](ctx, db, query, args...)
}

func (q queries[T]) first(v *T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, NoRowFirst(q.typ)
	}
	return v, nil
}

func (q queries[T]) firstWhere(v *T, err error, filter engine.Filter) (*T, error) {
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, NoRowForFilter(q.typ, filter)
	}
	return v, nil
}

func (q queries[T]) firstByKey(v *T, err error, key engine.PrimaryKey) (*T, error) {
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, NoRowForKey(q.typ, key)
	}
	return v, nil
}
