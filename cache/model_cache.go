package cache

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-modelstore/internal/cacheinfra"
)

// Interface assertion to ensure ModelCache implements Cache
var _ Cache = (*ModelCache)(nil)

// ModelCache is the default Cache implementation. Per-key operations never
// block unrelated keys. A value whose loader overlapped a Modified call for
// one of its dependency types is returned but not kept, so a load that raced
// a write cannot outlive it.
type ModelCache struct {
	enabled      bool
	store        cacheinfra.Store
	maxKeyLength int
	logger       *slog.Logger

	// generation is bumped by every Modified call; modifiedAt records the
	// generation of the last Modified per type.
	generation atomic.Uint64
	modifiedAt *xsync.MapOf[reflect.Type, uint64]
}

// Option configures a ModelCache.
type Option func(*ModelCache)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *ModelCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a ModelCache from cfg.
func New(cfg Config, opts ...Option) (*ModelCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := cfg.newStore()
	if err != nil {
		return nil, err
	}

	return newModelCache(cfg.Enabled, store, cfg.MaxKeyLength, opts), nil
}

// NewDefault returns an enabled, unbounded ModelCache.
func NewDefault(opts ...Option) *ModelCache {
	return newModelCache(true, cacheinfra.NewMemoryStore(), DefaultConfig().MaxKeyLength, opts)
}

func newModelCache(enabled bool, store cacheinfra.Store, maxKeyLength int, opts []Option) *ModelCache {
	c := &ModelCache{
		enabled:      enabled,
		store:        store,
		maxKeyLength: maxKeyLength,
		logger:       slog.Default(),
		modifiedAt:   xsync.NewMapOf[reflect.Type, uint64](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled implements Cache.
func (c *ModelCache) Enabled() bool {
	return c.enabled
}

// GetOrAdd implements Cache.
func (c *ModelCache) GetOrAdd(key any, loader func() (any, error), shouldCache func(any) bool, deps []reflect.Type) (any, error) {
	if key == nil {
		return nil, invalidArgument("key")
	}
	if loader == nil {
		return nil, invalidArgument("loader")
	}
	types := make([]reflect.Type, len(deps))
	for i, dep := range deps {
		if dep == nil {
			return nil, invalidArgument("dependency type")
		}
		types[i] = normalize(dep)
	}

	if !c.enabled {
		return loader()
	}

	k := c.keyFor(key)
	if entry, ok := c.store.Get(k); ok {
		return entry.Value, nil
	}

	generation := c.generation.Load()
	value, err := loader()
	if err != nil {
		return nil, err
	}

	if shouldCache != nil && !shouldCache(value) {
		c.logger.Debug("cache write rejected", "key", k)
		return value, nil
	}

	entry := cacheinfra.NewEntry(value, types)
	stored := c.store.Add(k, entry)
	if stored != entry {
		return stored.Value, nil
	}
	if c.modifiedSince(generation, entry.Types) {
		c.store.Remove(k, entry)
	}
	return value, nil
}

// Expire implements Cache.
func (c *ModelCache) Expire(key any) {
	if key == nil || !c.enabled {
		return
	}
	c.store.Delete(c.keyFor(key))
}

// Modified implements Cache.
func (c *ModelCache) Modified(t reflect.Type) {
	t = normalize(t)
	if t == nil || !c.enabled {
		return
	}

	c.modifiedAt.Store(t, c.generation.Add(1))
	removed := c.store.DeleteMatching(func(e *cacheinfra.Entry) bool {
		return e.DependsOn(t)
	})
	if removed > 0 {
		c.logger.Debug("cache entries invalidated", "type", t.String(), "count", removed)
	}
}

// Len implements Cache.
func (c *ModelCache) Len() int {
	return c.store.Len()
}

// modifiedSince reports whether any of types was modified after generation.
func (c *ModelCache) modifiedSince(generation uint64, types []reflect.Type) bool {
	for _, t := range types {
		if at, ok := c.modifiedAt.Load(t); ok && at > generation {
			return true
		}
	}
	return false
}

// keyFor renders key so that two keys share a store key exactly when they are
// equal: the dynamic type keeps 1 and "1" apart, Go syntax covers unexported
// fields, and pointers, channels and funcs are identified by address. Keys
// longer than maxKeyLength are hashed.
func (c *ModelCache) keyFor(key any) string {
	var k string
	switch reflect.ValueOf(key).Kind() {
	case reflect.Pointer, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		k = fmt.Sprintf("%T@%p", key, key)
	default:
		k = fmt.Sprintf("%T:%#v", key, key)
	}

	if c.maxKeyLength > 0 && len(k) > c.maxKeyLength {
		return fmt.Sprintf("%T:xxh:%016x", key, xxhash.Sum64String(k))
	}
	return k
}
