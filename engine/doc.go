// Package engine is the boundary to the embedded SQLite database.
//
// A Conn owns one database handle pinned to a single connection and the
// critical section guarding it. SQLite connections cannot be used from several
// goroutines at once, so every statement, reads included, runs inside
// Conn.Exclusive:
//
//	err := conn.Exclusive(ctx, func(ctx context.Context, db bun.IDB) error {
//		order, err := engine.Find[Order](ctx, db, engine.IntKey(7), engine.Load{Children: true})
//		...
//	})
//
// # Cancellation
//
// Exclusive checks the context before requesting the section, while waiting
// for it and again right after entering it. On any of those paths it returns an
// error matching both ErrCanceled and the context's error, and the callback is
// not run. Once the callback runs, cancellation is up to the statements it
// issues.
//
// # Re-entrancy
//
// The context passed to the callback is marked. Calling Exclusive on the same
// Conn with that context returns ErrReentrant rather than blocking forever.
//
// # Busy errors
//
// IsBusy recognises ErrBusy and the SQLITE_BUSY and SQLITE_LOCKED codes of the
// modernc driver, and of the mattn driver in cgo builds. The engine never
// retries; that policy belongs to the repository.
//
// # Storage operations
//
// The generic functions Find, FirstWhere, GetAll, Count, GetChildren, Insert,
// InsertAll, Update, UpdateAll, DeleteByKey, DeleteWhere, DeleteAll, Exec and
// Query take a bun.IDB, so they work with the handle given to Exclusive and
// with a transaction alike. Relationships are resolved from the bun model
// schema; Load{Recursive: true} follows nested relations to their leaves.
//
// # Primary keys
//
// Keys are IntKey, TextKey, UUIDKey or CompositeKey. KeyOf converts plain
// values and RequireKey additionally rejects default values.
package engine
