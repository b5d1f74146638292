package repositorycache

import (
	"context"
	"fmt"
	"reflect"

	"github.com/goliatone/go-modelstore/cache"
	"github.com/goliatone/go-modelstore/engine"
	"github.com/goliatone/go-modelstore/repository"
)

// Reader is the read surface shared by repository.Table and CachedTable.
type Reader[T any] interface {
	All(ctx context.Context, opts ...repository.ReadOption) ([]T, error)
	AllWhere(ctx context.Context, filter engine.Filter, opts ...repository.ReadOption) ([]T, error)
	FirstOrDefault(ctx context.Context, opts ...repository.ReadOption) (*T, error)
	FirstOrDefaultWhere(ctx context.Context, filter engine.Filter, opts ...repository.ReadOption) (*T, error)
	FirstOrDefaultByKey(ctx context.Context, key any, opts ...repository.ReadOption) (*T, error)
	First(ctx context.Context, opts ...repository.ReadOption) (*T, error)
	FirstWhere(ctx context.Context, filter engine.Filter, opts ...repository.ReadOption) (*T, error)
	FirstByKey(ctx context.Context, key any, opts ...repository.ReadOption) (*T, error)
	Count(ctx context.Context, filter engine.Filter) (int, error)
}

// Interface assertions to ensure both tables expose the same reads
var (
	_ Reader[struct{}] = (*repository.Table[struct{}])(nil)
	_ Reader[struct{}] = (*CachedTable[struct{}])(nil)
)

// CachedTable decorates a repository.Table with read-through caching in a
// dependency cache. Every cached value depends on T and on the types of the
// relationships the read loaded, so any write to one of those types through
// a repository sharing the cache evicts it.
type CachedTable[T any] struct {
	base          *repository.Table[T]
	cache         cache.Cache
	keySerializer cache.KeySerializer
	namespace     string
	entityType    reflect.Type
}

// New creates a CachedTable over base. A nil cache uses the repository's own
// cache and a nil key serializer uses the default one.
func New[T any](base *repository.Table[T], c cache.Cache, keySerializer cache.KeySerializer) *CachedTable[T] {
	if c == nil {
		c = base.Repository().Cache()
	}
	if keySerializer == nil {
		keySerializer = cache.NewDefaultKeySerializer()
	}
	entityType := cache.TypeOf[T]()
	return &CachedTable[T]{
		base:          base,
		cache:         c,
		keySerializer: keySerializer,
		namespace:     namespaceOf(entityType),
		entityType:    entityType,
	}
}

// Base returns the undecorated table.
func (c *CachedTable[T]) Base() *repository.Table[T] {
	return c.base
}

// All returns every row, with caching.
func (c *CachedTable[T]) All(ctx context.Context, opts ...repository.ReadOption) ([]T, error) {
	load := repository.LoadOf(opts...)
	deps, err := c.dependencies(ctx, load)
	if err != nil {
		return nil, err
	}
	return cache.GetOrAdd(c.cache, c.key("All", load), func() ([]T, error) {
		return c.base.All(ctx, opts...)
	}, deps...)
}

// AllWhere returns the rows matching filter, with caching.
func (c *CachedTable[T]) AllWhere(ctx context.Context, filter engine.Filter, opts ...repository.ReadOption) ([]T, error) {
	if filter.IsZero() {
		return c.base.AllWhere(ctx, filter, opts...)
	}
	load := repository.LoadOf(opts...)
	deps, err := c.dependencies(ctx, load)
	if err != nil {
		return nil, err
	}
	return cache.GetOrAdd(c.cache, c.key("AllWhere", filter.String(), load), func() ([]T, error) {
		return c.base.AllWhere(ctx, filter, opts...)
	}, deps...)
}

// FirstOrDefault returns the first row or nil. Only found rows are cached.
func (c *CachedTable[T]) FirstOrDefault(ctx context.Context, opts ...repository.ReadOption) (*T, error) {
	load := repository.LoadOf(opts...)
	deps, err := c.dependencies(ctx, load)
	if err != nil {
		return nil, err
	}
	return cache.GetOrAddIf(c.cache, c.key("FirstOrDefault", load), func() (*T, error) {
		return c.base.FirstOrDefault(ctx, opts...)
	}, found[T], deps...)
}

// FirstOrDefaultWhere returns the first row matching filter or nil. Only found
// rows are cached.
func (c *CachedTable[T]) FirstOrDefaultWhere(ctx context.Context, filter engine.Filter, opts ...repository.ReadOption) (*T, error) {
	if filter.IsZero() {
		return c.base.FirstOrDefaultWhere(ctx, filter, opts...)
	}
	load := repository.LoadOf(opts...)
	deps, err := c.dependencies(ctx, load)
	if err != nil {
		return nil, err
	}
	return cache.GetOrAddIf(c.cache, c.key("FirstOrDefaultWhere", filter.String(), load), func() (*T, error) {
		return c.base.FirstOrDefaultWhere(ctx, filter, opts...)
	}, found[T], deps...)
}

// FirstOrDefaultByKey returns the row with the given primary key or nil. Only
// found rows are cached.
func (c *CachedTable[T]) FirstOrDefaultByKey(ctx context.Context, key any, opts ...repository.ReadOption) (*T, error) {
	pk, err := engine.RequireKey(key)
	if err != nil {
		return nil, err
	}
	load := repository.LoadOf(opts...)
	deps, err := c.dependencies(ctx, load)
	if err != nil {
		return nil, err
	}
	return cache.GetOrAddIf(c.cache, c.key("FirstOrDefaultByKey", fmt.Sprintf("%T", pk), pk, load), func() (*T, error) {
		return c.base.FirstOrDefaultByKey(ctx, pk, opts...)
	}, found[T], deps...)
}

// First is the cached FirstOrDefault failing with a *repository.NoRowError.
func (c *CachedTable[T]) First(ctx context.Context, opts ...repository.ReadOption) (*T, error) {
	v, err := c.FirstOrDefault(ctx, opts...)
	if err == nil && v == nil {
		return nil, repository.NoRowFirst(c.entityType)
	}
	return v, err
}

// FirstWhere is the cached FirstOrDefaultWhere failing with a *repository.NoRowError.
func (c *CachedTable[T]) FirstWhere(ctx context.Context, filter engine.Filter, opts ...repository.ReadOption) (*T, error) {
	v, err := c.FirstOrDefaultWhere(ctx, filter, opts...)
	if err == nil && v == nil {
		return nil, repository.NoRowForFilter(c.entityType, filter)
	}
	return v, err
}

// FirstByKey is the cached FirstOrDefaultByKey failing with a *repository.NoRowError.
func (c *CachedTable[T]) FirstByKey(ctx context.Context, key any, opts ...repository.ReadOption) (*T, error) {
	v, err := c.FirstOrDefaultByKey(ctx, key, opts...)
	if err == nil && v == nil {
		pk, _ := engine.KeyOf(key)
		return nil, repository.NoRowForKey(c.entityType, pk)
	}
	return v, err
}

// Count returns the number of rows matching filter, with caching.
func (c *CachedTable[T]) Count(ctx context.Context, filter engine.Filter) (int, error) {
	deps, err := c.dependencies(ctx, engine.Load{})
	if err != nil {
		return 0, err
	}
	return cache.GetOrAdd(c.cache, c.key("Count", filter.String()), func() (int, error) {
		return c.base.Count(ctx, filter)
	}, deps...)
}

// Insert passes through to the base table.
func (c *CachedTable[T]) Insert(ctx context.Context, model *T) (int64, error) {
	return c.afterWrite(c.base.Insert(ctx, model))
}

// InsertAll passes through to the base table.
func (c *CachedTable[T]) InsertAll(ctx context.Context, models []T) (int64, error) {
	return c.afterWrite(c.base.InsertAll(ctx, models))
}

// Update passes through to the base table.
func (c *CachedTable[T]) Update(ctx context.Context, model *T) (int64, error) {
	return c.afterWrite(c.base.Update(ctx, model))
}

// UpdateAll passes through to the base table.
func (c *CachedTable[T]) UpdateAll(ctx context.Context, models []T) (int64, error) {
	return c.afterWrite(c.base.UpdateAll(ctx, models))
}

// Delete passes through to the base table.
func (c *CachedTable[T]) Delete(ctx context.Context, key any) (int64, error) {
	return c.afterWrite(c.base.Delete(ctx, key))
}

// DeleteWhere passes through to the base table.
func (c *CachedTable[T]) DeleteWhere(ctx context.Context, filter engine.Filter) (int64, error) {
	return c.afterWrite(c.base.DeleteWhere(ctx, filter))
}

// EmptyTable passes through to the base table.
func (c *CachedTable[T]) EmptyTable(ctx context.Context) (int64, error) {
	return c.afterWrite(c.base.EmptyTable(ctx))
}

// Exec passes through to the base table.
func (c *CachedTable[T]) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return c.afterWrite(c.base.Exec(ctx, query, args...))
}

// afterWrite invalidates T when the decorator caches somewhere other than the
// repository's own cache, which the repository already invalidated.
func (c *CachedTable[T]) afterWrite(n int64, err error) (int64, error) {
	if err == nil && c.cache != c.base.Repository().Cache() {
		c.cache.Modified(c.entityType)
	}
	return n, err
}

func (c *CachedTable[T]) key(method string, args ...any) string {
	return c.namespace + cache.KeySeparator + c.keySerializer.SerializeKey(method, args...)
}

func (c *CachedTable[T]) dependencies(ctx context.Context, load engine.Load) ([]reflect.Type, error) {
	related, err := engine.RelatedTypes(c.base.Repository().Conn().DB(), c.entityType, load)
	if err != nil {
		return nil, err
	}
	deps := append([]reflect.Type{c.entityType}, related...)
	return append(deps, dependenciesFromContext(ctx)...), nil
}

func found[T any](v *T) bool {
	return v != nil
}
