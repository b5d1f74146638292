package testsupport

import (
	"context"
	"embed"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-modelstore/engine"
)

//go:embed testdata/*.json
var embedded embed.FS

// Dataset is a consistent set of sample rows.
type Dataset struct {
	Customers  []Customer  `json:"customers"`
	Products   []Product   `json:"products"`
	Orders     []Order     `json:"orders"`
	OrderLines []OrderLine `json:"order_lines"`
}

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
func LoadFixtureJSON(t testing.TB, path string, dest any) {
	t.Helper()

	decodeJSON(t, path, LoadFixture(t, path), dest)
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// SampleDataset returns the orders dataset shipped with this package.
func SampleDataset(t testing.TB) Dataset {
	t.Helper()

	name := "testdata/orders.json"
	data, err := embedded.ReadFile(name)
	if err != nil {
		t.Fatalf("failed to read embedded fixture %s: %v", name, err)
	}

	var ds Dataset
	decodeJSON(t, name, data, &ds)
	return ds
}

// Seed inserts ds into the database in foreign key order.
func Seed(t testing.TB, conn *engine.Conn, ds Dataset) {
	t.Helper()

	err := conn.ExclusiveTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		if _, err := engine.InsertAll(ctx, tx, ds.Customers); err != nil {
			return err
		}
		if _, err := engine.InsertAll(ctx, tx, ds.Products); err != nil {
			return err
		}
		if _, err := engine.InsertAll(ctx, tx, ds.Orders); err != nil {
			return err
		}
		_, err := engine.InsertAll(ctx, tx, ds.OrderLines)
		return err
	})
	if err != nil {
		t.Fatalf("failed to seed sample dataset: %v", err)
	}
}

// OpenSeeded opens a temp database loaded with SampleDataset.
func OpenSeeded(t testing.TB, opts ...engine.ConnOption) *engine.Conn {
	t.Helper()

	conn := OpenTemp(t, opts...)
	Seed(t, conn, SampleDataset(t))
	return conn
}

func decodeJSON(t testing.TB, name string, data []byte, dest any) {
	t.Helper()

	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", name, err)
	}
}
