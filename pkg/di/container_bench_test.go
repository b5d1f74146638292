package di

import (
	"context"
	"testing"

	"github.com/goliatone/go-modelstore/config"
	"github.com/goliatone/go-modelstore/engine"
	"github.com/goliatone/go-modelstore/repository"
	ts "github.com/goliatone/go-modelstore/pkg/testsupport"
)

func benchContainer(b *testing.B) *Container {
	b.Helper()
	cfg := testConfigB(b)
	container, err := NewContainer(context.Background(), cfg, WithConn(ts.OpenSeeded(b)))
	if err != nil {
		b.Fatalf("NewContainer() failed: %v", err)
	}
	return container
}

func testConfigB(b *testing.B) config.Config {
	cfg := config.Default()
	cfg.Engine = ts.TempConfig(b)
	return cfg
}

func BenchmarkOpenOrdersUncached(b *testing.B) {
	ctx := context.Background()
	orders := NewTable[ts.Order](benchContainer(b))
	filter := engine.Where("status = ?", "open")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := orders.AllWhere(ctx, filter, repository.Recursive()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkOpenOrdersCached(b *testing.B) {
	ctx := context.Background()
	orders := NewCachedTable[ts.Order](benchContainer(b))
	filter := engine.Where("status = ?", "open")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := orders.AllWhere(ctx, filter, repository.Recursive()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCachedReadsParallel(b *testing.B) {
	ctx := context.Background()
	orders := NewCachedTable[ts.Order](benchContainer(b))

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := orders.FirstByKey(ctx, 2, repository.WithChildren()); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
