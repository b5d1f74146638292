package engine

import (
	"context"

	"github.com/uptrace/bun"
)

// Result carries the outcome of an asynchronous read.
type Result[T any] struct {
	Value T
	Err   error
}

// async runs read inside the critical section on its own goroutine. The
// returned channel is buffered, receives exactly one Result and is closed, so
// a caller that stops listening does not leak the goroutine.
func async[T any](ctx context.Context, c *Conn, read func(ctx context.Context, db bun.IDB) (T, error)) <-chan Result[T] {
	out := make(chan Result[T], 1)
	go func() {
		defer close(out)
		var value T
		err := c.Exclusive(ctx, func(ctx context.Context, db bun.IDB) error {
			var err error
			value, err = read(ctx, db)
			return err
		})
		out <- Result[T]{Value: value, Err: err}
	}()
	return out
}

// GetAllWithChildrenAsync loads the rows matching filter with their
// relationships. Cancelling ctx before the section is entered yields ErrCanceled.
func GetAllWithChildrenAsync[T any](ctx context.Context, c *Conn, filter Filter, recursive bool) <-chan Result[[]T] {
	return async(ctx, c, func(ctx context.Context, db bun.IDB) ([]T, error) {
		return GetAllWithChildren[T](ctx, db, filter, recursive)
	})
}

// FindWithChildrenAsync loads one row by key with its relationships. The
// result value is nil when no row matches.
func FindWithChildrenAsync[T any](ctx context.Context, c *Conn, key PrimaryKey, recursive bool) <-chan Result[*T] {
	return async(ctx, c, func(ctx context.Context, db bun.IDB) (*T, error) {
		return FindWithChildren[T](ctx, db, key, recursive)
	})
}

// GetChildrenAsync populates the relationships of model. The result value is
// model itself.
func GetChildrenAsync[M any](ctx context.Context, c *Conn, model *M, recursive bool) <-chan Result[*M] {
	return async(ctx, c, func(ctx context.Context, db bun.IDB) (*M, error) {
		if err := GetChildren(ctx, db, model, recursive); err != nil {
			return nil, err
		}
		return model, nil
	})
}
