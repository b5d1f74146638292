package testsupport

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-modelstore/engine"
)

// TempConfig returns an engine configuration for a fresh database file in a
// test scoped directory.
func TempConfig(t testing.TB) engine.Config {
	t.Helper()

	cfg := engine.DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "modelstore_test.db")
	return cfg
}

// OpenTemp opens a fresh database with the sample tables created. The
// connection is closed when the test ends.
func OpenTemp(t testing.TB, opts ...engine.ConnOption) *engine.Conn {
	t.Helper()
	return OpenConfig(t, TempConfig(t), opts...)
}

// OpenConfig opens the database described by cfg and creates the sample tables.
func OpenConfig(t testing.TB, cfg engine.Config, opts ...engine.ConnOption) *engine.Conn {
	t.Helper()

	ctx := context.Background()
	conn, err := engine.Open(ctx, cfg, opts...)
	if err != nil {
		t.Fatalf("failed to open sqlite database %s: %v", cfg.Path, err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := conn.CreateTables(ctx, Models()...); err != nil {
		t.Fatalf("failed to create sample tables: %v", err)
	}
	return conn
}

// HoldLock takes an exclusive lock on the database file through a second,
// independent connection so that every statement issued through the engine
// reports SQLITE_BUSY. The returned function releases the lock; it is also
// released when the test ends.
func HoldLock(t testing.TB, path string) (release func()) {
	t.Helper()
	return holdLock(t, path, "BEGIN EXCLUSIVE")
}

// HoldReadLock keeps a read transaction open on a second connection. Reads
// and uncommitted writes through the engine still succeed; only COMMIT
// reports SQLITE_BUSY, because it needs the lock the reader shares.
func HoldReadLock(t testing.TB, path string) (release func()) {
	t.Helper()
	return holdLock(t, path, "BEGIN", "SELECT count(*) FROM sqlite_master")
}

func holdLock(t testing.TB, path string, statements ...string) (release func()) {
	t.Helper()

	ctx := context.Background()
	db, err := sql.Open(engine.DriverModernc, path)
	if err != nil {
		t.Fatalf("failed to open locking connection: %v", err)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		t.Fatalf("failed to acquire locking connection: %v", err)
	}
	for _, stmt := range statements {
		if err := runHolding(ctx, conn, stmt); err != nil {
			_ = conn.Close()
			_ = db.Close()
			t.Fatalf("failed to lock database with %q: %v", stmt, err)
		}
	}

	released := false
	release = func() {
		if released {
			return
		}
		released = true
		_, _ = conn.ExecContext(ctx, "ROLLBACK")
		_ = conn.Close()
		_ = db.Close()
	}
	t.Cleanup(release)
	return release
}

func runHolding(ctx context.Context, conn *sql.Conn, stmt string) error {
	if strings.HasPrefix(stmt, "SELECT") {
		var n int
		return conn.QueryRowContext(ctx, stmt).Scan(&n)
	}
	_, err := conn.ExecContext(ctx, stmt)
	return err
}
