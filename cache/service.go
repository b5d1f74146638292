package cache

import (
	"fmt"
	"reflect"
)

// KeySerializer builds a cache key from a method name + arbitrary args.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(method string, args ...any) string
}

// Cache is a memoizing store where every value is tagged with the set of types
// it depends on. Modifying any of those types invalidates the value.
type Cache interface {
	// Enabled reports whether values are memoized at all. A disabled cache runs
	// the loader on every call.
	Enabled() bool

	// GetOrAdd returns the value stored for key, or runs loader, stores its
	// result tagged with deps and returns it. deps is the complete dependency
	// set. When shouldCache is non-nil and rejects the loaded value, the value
	// is returned without being stored.
	GetOrAdd(key any, loader func() (any, error), shouldCache func(any) bool, deps []reflect.Type) (any, error)

	// Expire removes the entry for key. It is a no-op when key is absent.
	Expire(key any)

	// Modified removes every entry whose dependency set contains t.
	Modified(t reflect.Type)

	// Len returns the number of cached entries.
	Len() int
}

// GetOrAdd is the type-safe entry point to Cache.GetOrAdd. The dependency set
// is derived from T (see DependenciesOf) and unioned with deps.
func GetOrAdd[T any](c Cache, key any, loader func() (T, error), deps ...reflect.Type) (T, error) {
	return GetOrAddIf(c, key, loader, nil, deps...)
}

// GetOrAddIf behaves like GetOrAdd but only stores the loaded value when
// shouldCache accepts it. Rejected values are returned to the caller and the
// next call loads again.
func GetOrAddIf[T any](c Cache, key any, loader func() (T, error), shouldCache func(T) bool, deps ...reflect.Type) (T, error) {
	var zero T
	if c == nil {
		return zero, invalidArgument("cache")
	}
	if loader == nil {
		return zero, invalidArgument("loader")
	}

	var accept func(any) bool
	if shouldCache != nil {
		accept = func(v any) bool {
			return shouldCache(mustCast[T](key, v))
		}
	}

	result, err := c.GetOrAdd(key, func() (any, error) {
		v, err := loader()
		return v, err
	}, accept, DependenciesOf[T](deps...))
	if err != nil {
		return zero, err
	}
	return mustCast[T](key, result), nil
}

// Expire removes the entry for key from c.
func Expire(c Cache, key any) {
	if c != nil {
		c.Expire(key)
	}
}

// Modified invalidates every entry that depends on T.
func Modified[T any](c Cache) {
	c.Modified(TypeOf[T]())
}

// mustCast recovers a stored value as T. A mismatch means two call sites share
// a key with different value types, which is a programming error.
func mustCast[T any](key, v any) T {
	if v == nil {
		var zero T
		return zero
	}
	typed, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("cache: entry %v holds %T but caller expects %v", key, v, reflect.TypeFor[T]()))
	}
	return typed
}
