// Package repositorycache provides a read-through caching decorator for
// repository tables.
//
// # Overview
//
// CachedTable wraps a *repository.Table[T] and memoizes its reads in a
// dependency cache. Writes pass straight through to the table; the repository
// invalidates the cache when they commit.
//
//	orders := repositorycache.New(repository.For[Order](repo), nil, nil)
//
//	open, err := orders.AllWhere(ctx, engine.Where("status = ?", "open"))
//	n, err := orders.Count(ctx, engine.Filter{})
//
// Passing a nil cache uses the repository's own cache, which keeps
// invalidation automatic.
//
// # Cached vs Pass-through Operations
//
// Cached: All, AllWhere, FirstOrDefault, FirstOrDefaultWhere,
// FirstOrDefaultByKey, Count, and the First variants built on them.
//
// Pass-through: Insert, InsertAll, Update, UpdateAll, Delete, DeleteWhere,
// EmptyTable and Exec. Reads with a zero filter where one is required are
// passed through so the table can reject them.
//
// # Keys
//
// A key is the entity namespace, the method and its arguments joined with
// cache.KeySeparator. The namespace is the snake_case type name followed by
// the full type identity, for example
// "order_line@example.com/shop.OrderLine::Count::status = 'open'", so
// same-named types from different packages never share entries.
// Filters contribute their rendered form and primary keys their shape and
// value, so IntKey(7) and TextKey("7") do not collide.
//
// # Dependencies
//
// Each cached value depends on T and on every type reachable through the
// relationships the read loaded, so an order read WithChildren is evicted when
// an OrderLine changes. WithDependencies adds more types for reads made with a
// given context.
//
// # Absent Rows
//
// FirstOrDefault* results that found nothing are not cached, so a row inserted
// later is seen on the next call even before any invalidation.
package repositorycache
