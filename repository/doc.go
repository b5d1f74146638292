// Package repository serializes typed reads and writes on a single SQLite
// connection and keeps a dependency cache coherent with them.
//
// # Overview
//
// A Repository wraps an engine.Conn. Every operation enters the connection's
// exclusive section, so at most one statement runs at a time no matter how
// many goroutines or repositories share the Conn.
//
//	repo := repository.New(conn)
//	orders := repository.For[Order](repo)
//
//	order, err := orders.FirstByKey(ctx, 7, repository.WithChildren())
//	if errors.Is(err, repository.ErrNoRow) {
//		...
//	}
//
// # Writes
//
// Mutations run in a transaction. When SQLite reports it is busy the
// transaction is rolled back, the section released, and the mutation tried
// again after a fixed delay: 8 attempts 80ms apart by default (see
// WithRetryPolicy). Other errors are returned on the first attempt. Once a
// mutation commits, every cache entry depending on the written type is
// invalidated before the section is released, so no reader can observe the
// new rows alongside a stale cached value.
//
// A mutation ignores the cancellation of its context: it always waits for the
// section and sleeps between attempts without interruption.
//
// # Reads
//
// Reads are not retried. They honour context cancellation until the section
// is entered, returning an error matching ErrCanceled. First, FirstWhere and
// FirstByKey fail with a *NoRowError (matching ErrNoRow) when nothing is
// found; the FirstOrDefault variants return nil instead.
//
// # Transactions
//
// RunInTransaction runs an action as one mutation. Inside the action use
// ForTx to reach the typed operations; they do not lock again. Calling any
// Repository method with the action's context returns ErrReentrant instead of
// deadlocking.
//
//	err := repo.RunInTransaction(ctx, func(ctx context.Context, tx *repository.Tx) error {
//		if _, err := repository.ForTx[Order](tx).Insert(ctx, order); err != nil {
//			return err
//		}
//		_, err := repository.ForTx[OrderLine](tx).InsertAll(ctx, lines)
//		return err
//	})
package repository
