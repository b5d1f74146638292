package repositorycache

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-modelstore/cache"
	"github.com/goliatone/go-modelstore/engine"
	"github.com/goliatone/go-modelstore/repository"
	ts "github.com/goliatone/go-modelstore/pkg/testsupport"
)

func newFixture(t *testing.T) (*repository.Repository, *engine.Conn) {
	t.Helper()
	conn := ts.OpenSeeded(t)
	return repository.New(conn, repository.WithSleeper(func(time.Duration) {})), conn
}

// behindTheBack changes rows without going through the repository, so no
// cache entry is invalidated.
func behindTheBack(t *testing.T, conn *engine.Conn, query string, args ...any) {
	t.Helper()
	_, err := conn.DB().ExecContext(context.Background(), query, args...)
	require.NoError(t, err)
}

func TestNewDefaults(t *testing.T) {
	repo, _ := newFixture(t)
	orders := New(repository.For[ts.Order](repo), nil, nil)

	assert.Same(t, repo.Cache(), orders.cache)
	assert.Equal(t, "order@github.com/goliatone/go-modelstore/pkg/testsupport.Order", orders.namespace)
	assert.NotNil(t, orders.keySerializer)
	assert.Equal(t, reflect.TypeFor[ts.Order](), orders.entityType)
}

func TestCachedReadsAreServedFromCache(t *testing.T) {
	repo, conn := newFixture(t)
	ctx := context.Background()
	orders := New(repository.For[ts.Order](repo), nil, nil)

	all, err := orders.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	open, err := orders.AllWhere(ctx, engine.Where("status = ?", "open"))
	require.NoError(t, err)
	require.Len(t, open, 2)
	n, err := orders.Count(ctx, engine.Filter{})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	first, err := orders.FirstByKey(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "open", first.Status)

	behindTheBack(t, conn, "UPDATE orders SET status = 'void'")

	all, err = orders.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "open", all[0].Status)
	open, err = orders.AllWhere(ctx, engine.Where("status = ?", "open"))
	require.NoError(t, err)
	assert.Len(t, open, 2)
	first, err = orders.FirstByKey(ctx, int64(1))
	require.NoError(t, err)
	assert.Equal(t, "open", first.Status, "int and int64 keys share an entry")

	// different filter arguments are different entries
	shipped, err := orders.AllWhere(ctx, engine.Where("status = ?", "void"))
	require.NoError(t, err)
	assert.Len(t, shipped, 3)
}

func TestWritesThroughDecoratorInvalidate(t *testing.T) {
	repo, _ := newFixture(t)
	ctx := context.Background()
	orders := New(repository.For[ts.Order](repo), nil, nil)

	n, err := orders.Count(ctx, engine.Filter{})
	require.NoError(t, err)
	require.Equal(t, 3, n)

	_, err = orders.Insert(ctx, &ts.Order{Number: "SO-1004", Status: "open", CustomerID: 1})
	require.NoError(t, err)

	n, err = orders.Count(ctx, engine.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = orders.DeleteWhere(ctx, engine.Where("number = ?", "SO-1004"))
	require.NoError(t, err)

	n, err = orders.Count(ctx, engine.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRelationshipTypesAreDependencies(t *testing.T) {
	repo, _ := newFixture(t)
	ctx := context.Background()
	orders := New(repository.For[ts.Order](repo), nil, nil)
	products := repository.For[ts.Product](repo)

	shallow, err := orders.FirstByKey(ctx, 1)
	require.NoError(t, err)
	deep, err := orders.FirstByKey(ctx, 1, repository.Recursive())
	require.NoError(t, err)
	require.Equal(t, "Keyboard", deep.Lines[0].Product.Name)
	require.Equal(t, 2, repo.Cache().Len())

	_, err = products.Exec(ctx, "UPDATE products SET name = ? WHERE id = ?", "Keyboard Pro", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.Cache().Len(), "only the recursive read depended on Product")

	deep, err = orders.FirstByKey(ctx, 1, repository.Recursive())
	require.NoError(t, err)
	assert.Equal(t, "Keyboard Pro", deep.Lines[0].Product.Name)
	assert.Nil(t, shallow.Customer)
}

func TestAbsentRowsAreNotCached(t *testing.T) {
	repo, conn := newFixture(t)
	ctx := context.Background()
	orders := New(repository.For[ts.Order](repo), nil, nil)

	missing, err := orders.FirstOrDefaultByKey(ctx, 50)
	require.NoError(t, err)
	assert.Nil(t, missing)
	_, err = orders.FirstByKey(ctx, 50)
	require.ErrorIs(t, err, repository.ErrNoRow)
	assert.EqualError(t, err, "Order: For pk: 50.")
	_, err = orders.FirstWhere(ctx, engine.Where("number = ?", "SO-5000"))
	assert.EqualError(t, err, "Order: For filter: number = 'SO-5000'.")
	assert.Zero(t, repo.Cache().Len())

	behindTheBack(t, conn, "INSERT INTO orders (id, number, status, customer_id) VALUES (50, 'SO-5000', 'open', 1)")

	found, err := orders.FirstByKey(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, "SO-5000", found.Number)
	found, err = orders.FirstWhere(ctx, engine.Where("number = ?", "SO-5000"))
	require.NoError(t, err)
	assert.Equal(t, int64(50), found.ID)
}

func TestEmptyTableFirst(t *testing.T) {
	conn := ts.OpenTemp(t)
	repo := repository.New(conn)
	events := New(repository.For[ts.Event](repo), nil, nil)

	_, err := events.First(context.Background())
	assert.EqualError(t, err, "Event: First")
}

func TestWithDependencies(t *testing.T) {
	repo, _ := newFixture(t)
	orders := New(repository.For[ts.Order](repo), nil, nil)
	customers := repository.For[ts.Customer](repo)

	ctx := WithDependencies(context.Background(), reflect.TypeFor[*ts.Customer]())
	_, err := orders.All(ctx)
	require.NoError(t, err)
	_, err = orders.All(context.Background(), repository.WithChildren())
	require.NoError(t, err)
	_, err = orders.Count(context.Background(), engine.Filter{})
	require.NoError(t, err)
	require.Equal(t, 3, repo.Cache().Len())

	_, err = customers.Exec(context.Background(), "UPDATE customers SET email = lower(email)")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.Cache().Len(), "the tagged read and the read loading customers are evicted")
}

func TestDependenciesFromContext(t *testing.T) {
	orderType := reflect.TypeFor[ts.Order]()
	productType := reflect.TypeFor[ts.Product]()

	assert.Nil(t, dependenciesFromContext(context.Background()))
	assert.Equal(t, context.Background(), WithDependencies(context.Background()))

	ctx := WithDependencies(context.Background(), orderType, nil)
	ctx = WithDependencies(ctx, reflect.TypeFor[*ts.Order](), productType)
	assert.Equal(t, []reflect.Type{orderType, productType}, dependenciesFromContext(ctx))
}

func TestSeparateCacheIsInvalidatedByDecoratorWrites(t *testing.T) {
	repo, _ := newFixture(t)
	ctx := context.Background()
	own := cache.NewDefault()
	orders := New(repository.For[ts.Order](repo), own, cache.NewDefaultKeySerializer())

	_, err := orders.All(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, own.Len())
	assert.Zero(t, repo.Cache().Len())

	_, err = orders.Update(ctx, &ts.Order{ID: 2, Number: "SO-1002", Status: "returned", CustomerID: 2})
	require.NoError(t, err)
	assert.Zero(t, own.Len())
}

func TestErrorsPropagateAndAreNotCached(t *testing.T) {
	repo, _ := newFixture(t)
	ctx := context.Background()
	orders := New(repository.For[ts.Order](repo), nil, nil)

	_, err := orders.FirstOrDefaultByKey(ctx, 0)
	assert.ErrorIs(t, err, repository.ErrInvalidArgument)
	_, err = orders.AllWhere(ctx, engine.Filter{})
	assert.ErrorIs(t, err, repository.ErrInvalidArgument)
	_, err = orders.AllWhere(ctx, engine.Where("no_such_column = ?", 1))
	assert.Error(t, err)
	assert.Zero(t, repo.Cache().Len())
}

func TestKeysAreNamespaced(t *testing.T) {
	repo, _ := newFixture(t)
	lines := New(repository.For[ts.OrderLine](repo), nil, nil)

	key := lines.key("Count", engine.Where("quantity > ?", 1).String())
	assert.Equal(t, "order_line@github.com/goliatone/go-modelstore/pkg/testsupport.OrderLine::Count::quantity > 1", key)
}

// Customer maps the customers table under the same type name as
// testsupport.Customer.
type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name"`
}

func TestSameNamedTypesDoNotShareKeys(t *testing.T) {
	repo, _ := newFixture(t)
	ctx := context.Background()
	seeded := New(repository.For[ts.Customer](repo), nil, nil)
	local := New(repository.For[Customer](repo), nil, nil)

	a, err := seeded.All(ctx)
	require.NoError(t, err)
	require.Len(t, a, 2)

	var b []Customer
	require.NotPanics(t, func() { b, err = local.All(ctx) })
	require.NoError(t, err)
	require.Len(t, b, 2)
	assert.Equal(t, a[0].Name, b[0].Name)
	assert.Equal(t, 2, repo.Cache().Len())

	_, err = local.FirstByKey(ctx, 99)
	var noRow *repository.NoRowError
	require.ErrorAs(t, err, &noRow)
	assert.Equal(t, reflect.TypeFor[Customer](), noRow.Entity)
	assert.Equal(t, "Customer: For pk: 99.", err.Error())
}
