// Package cache provides a process-local memoizing store whose entries are
// invalidated by type rather than by key.
//
// # Overview
//
// Every cached value carries a dependency set: the entity types its
// correctness depends on. A single write to an Order table can then drop every
// cached report, list or aggregate that embeds Order data, without any call
// site having to know which keys those were.
//
//   - Cache: the contract (GetOrAdd, Expire, Modified)
//   - ModelCache: the default implementation over a concurrent map
//   - GetOrAdd / GetOrAddIf: type-safe generic entry points
//   - KeySerializer: renders method arguments into stable key strings for
//     read-through callers such as repositorycache
//
// ModelCache treats keys as identities: two keys share an entry only when
// they are equal, unexported fields included, and pointer keys match by
// address.
//
// # Basic Usage
//
//	c := cache.NewDefault()
//
//	report, err := cache.GetOrAdd(c, "report:1", func() (Report, error) {
//		return buildReport(ctx, 1)
//	}, cache.TypeOf[Order](), cache.TypeOf[Customer]())
//
//	// after writing orders
//	cache.Modified[Order](c)
//
// # Dependency Sets
//
// The dependency set of a value of type T is derived from T and unioned with
// the explicit list passed by the caller:
//
//   - containers depend on their contents: []Order, [N]*Order -> Order
//   - maps depend on key and value: map[uuid.UUID]Order -> uuid.UUID, Order
//   - types implementing Dependent depend on what they declare
//   - anything else depends on itself, with pointers stripped
//
// # Conditional Caching
//
// GetOrAddIf takes a predicate that decides whether a freshly loaded value is
// stored. Rejected values are still returned; the next call loads again. This
// is how "not found" results are kept out of the cache.
//
// # Disabled Mode
//
// A cache built with Config.Enabled = false runs the loader on every call and
// treats Expire/Modified as no-ops, so caching can be switched off globally
// without touching call sites.
//
// # Backends
//
// The default "memory" backend keeps entries until they are invalidated. The
// "bounded" backend stores entries in a sturdyc client with capacity and TTL
// limits; choose it only when memory must be capped and reloading evicted
// values is acceptable.
//
// # Type Mismatches
//
// Values are stored untyped and recovered as the caller's T. Two call sites
// sharing a key with different value types is a programming error and panics.
package cache
