package engine_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-modelstore/engine"
	ts "github.com/goliatone/go-modelstore/pkg/testsupport"
)

// within runs fn inside the connection's exclusive section.
func within(t *testing.T, conn *engine.Conn, fn func(ctx context.Context, db bun.IDB)) {
	t.Helper()
	err := conn.Exclusive(context.Background(), func(ctx context.Context, db bun.IDB) error {
		fn(ctx, db)
		return nil
	})
	require.NoError(t, err)
}

func TestRelationPaths(t *testing.T) {
	conn := ts.OpenTemp(t)
	table := conn.DB().Dialect().Tables().Get(reflect.TypeFor[ts.Order]())

	assert.Equal(t, []string{"Customer", "Lines"}, engine.RelationPaths(table, false))
	assert.Equal(t, []string{"Customer", "Lines.Product"}, engine.RelationPaths(table, true))
	assert.Nil(t, engine.RelationPaths(nil, true))
}

func TestFind(t *testing.T) {
	conn := ts.OpenSeeded(t)

	within(t, conn, func(ctx context.Context, db bun.IDB) {
		order, err := engine.Find[ts.Order](ctx, db, engine.IntKey(1), engine.Load{})
		require.NoError(t, err)
		require.NotNil(t, order)
		assert.Equal(t, "SO-1001", order.Number)
		assert.Nil(t, order.Customer)
		assert.Empty(t, order.Lines)

		missing, err := engine.Find[ts.Order](ctx, db, engine.IntKey(404), engine.Load{})
		require.NoError(t, err)
		assert.Nil(t, missing)

		_, err = engine.Find[ts.Order](ctx, db, engine.CompositeKey{engine.IntKey(1), engine.IntKey(2)}, engine.Load{})
		assert.ErrorIs(t, err, engine.ErrInvalidArgument)

		_, err = engine.Find[ts.Order](ctx, db, nil, engine.Load{})
		assert.ErrorIs(t, err, engine.ErrInvalidArgument)
	})
}

func TestFindWithChildren(t *testing.T) {
	conn := ts.OpenSeeded(t)

	within(t, conn, func(ctx context.Context, db bun.IDB) {
		shallow, err := engine.FindWithChildren[ts.Order](ctx, db, engine.IntKey(1), false)
		require.NoError(t, err)
		require.NotNil(t, shallow.Customer)
		assert.Equal(t, "Ada Lovelace", shallow.Customer.Name)
		require.Len(t, shallow.Lines, 2)
		assert.Nil(t, shallow.Lines[0].Product)

		deep, err := engine.FindWithChildren[ts.Order](ctx, db, engine.IntKey(1), true)
		require.NoError(t, err)
		require.Len(t, deep.Lines, 2)
		for _, line := range deep.Lines {
			require.NotNil(t, line.Product)
		}
	})
}

func TestGetAllAndFirstWhere(t *testing.T) {
	conn := ts.OpenSeeded(t)

	within(t, conn, func(ctx context.Context, db bun.IDB) {
		all, err := engine.GetAll[ts.Order](ctx, db, engine.Filter{}, engine.Load{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []int64{1, 2, 3}, []int64{all[0].ID, all[1].ID, all[2].ID})

		open, err := engine.GetAllWithChildren[ts.Order](ctx, db, engine.Where("?TableAlias.status = ?", "open"), true)
		require.NoError(t, err)
		require.Len(t, open, 2)
		for _, o := range open {
			assert.Equal(t, "open", o.Status)
			require.NotEmpty(t, o.Lines)
			assert.NotNil(t, o.Lines[0].Product)
		}

		none, err := engine.GetAll[ts.Order](ctx, db, engine.Where("status = ?", "lost"), engine.Load{})
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)

		first, err := engine.FirstWhere[ts.Order](ctx, db, engine.Where("customer_id = ?", 2), engine.Load{})
		require.NoError(t, err)
		require.NotNil(t, first)
		assert.Equal(t, "SO-1002", first.Number)

		absent, err := engine.FirstWhere[ts.Order](ctx, db, engine.Where("customer_id = ?", 99), engine.Load{})
		require.NoError(t, err)
		assert.Nil(t, absent)

		n, err := engine.Count[ts.Order](ctx, db, engine.Where("status = ?", "open"))
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestGetChildren(t *testing.T) {
	conn := ts.OpenSeeded(t)

	within(t, conn, func(ctx context.Context, db bun.IDB) {
		order := &ts.Order{ID: 3}
		require.NoError(t, engine.GetChildren(ctx, db, order, true))
		assert.Equal(t, "SO-1003", order.Number)
		require.NotNil(t, order.Customer)
		assert.Equal(t, "Grace Hopper", order.Customer.Name)
		require.Len(t, order.Lines, 1)
		assert.Equal(t, "Mouse", order.Lines[0].Product.Name)

		var nilOrder *ts.Order
		assert.ErrorIs(t, engine.GetChildren(ctx, db, nilOrder, false), engine.ErrInvalidArgument)
		assert.ErrorIs(t, engine.GetChildren(ctx, db, ts.Order{}, false), engine.ErrInvalidArgument)
	})
}

func TestWrites(t *testing.T) {
	conn := ts.OpenSeeded(t)

	within(t, conn, func(ctx context.Context, db bun.IDB) {
		c := &ts.Customer{Name: "Barbara Liskov", Email: "barbara@example.com"}
		n, err := engine.Insert(ctx, db, c)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.NotZero(t, c.ID)

		n, err = engine.InsertAll[ts.Customer](ctx, db, nil)
		require.NoError(t, err)
		assert.Zero(t, n)

		c.Name = "B. Liskov"
		n, err = engine.Update(ctx, db, c)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		reloaded, err := engine.Find[ts.Customer](ctx, db, engine.IntKey(c.ID), engine.Load{})
		require.NoError(t, err)
		assert.Equal(t, "B. Liskov", reloaded.Name)

		products, err := engine.GetAll[ts.Product](ctx, db, engine.Filter{}, engine.Load{})
		require.NoError(t, err)
		for i := range products {
			products[i].PriceCents += 100
		}
		n, err = engine.UpdateAll(ctx, db, products)
		require.NoError(t, err)
		assert.Equal(t, int64(len(products)), n)

		n, err = engine.DeleteByKey[ts.OrderLine](ctx, db, engine.IntKey(4))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = engine.DeleteWhere[ts.OrderLine](ctx, db, engine.Where("order_id = ?", 1))
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		_, err = engine.DeleteWhere[ts.OrderLine](ctx, db, engine.Filter{})
		assert.ErrorIs(t, err, engine.ErrInvalidArgument)

		n, err = engine.DeleteAll[ts.OrderLine](ctx, db)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestExecAndQuery(t *testing.T) {
	conn := ts.OpenSeeded(t)

	within(t, conn, func(ctx context.Context, db bun.IDB) {
		n, err := engine.Exec(ctx, db, "UPDATE orders SET status = ? WHERE status = ?", "closed", "open")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		type statusCount struct {
			Status string `bun:"status"`
			Total  int    `bun:"total"`
		}
		rows, err := engine.Query[statusCount](ctx, db,
			"SELECT status, COUNT(*) AS total FROM orders GROUP BY status ORDER BY status")
		require.NoError(t, err)
		assert.Equal(t, []statusCount{{"closed", 2}, {"shipped", 1}}, rows)

		_, err = engine.Exec(ctx, db, "")
		assert.ErrorIs(t, err, engine.ErrInvalidArgument)
	})
}

func TestUUIDKeys(t *testing.T) {
	conn := ts.OpenTemp(t)
	id := uuid.New()

	within(t, conn, func(ctx context.Context, db bun.IDB) {
		_, err := engine.Insert(ctx, db, &ts.Event{ID: id, Name: "created", CreatedAt: time.Now().UTC()})
		require.NoError(t, err)

		key, err := engine.KeyOf(id)
		require.NoError(t, err)
		ev, err := engine.Find[ts.Event](ctx, db, key, engine.Load{})
		require.NoError(t, err)
		require.NotNil(t, ev)
		assert.Equal(t, "created", ev.Name)
	})
}

func TestAsyncReads(t *testing.T) {
	conn := ts.OpenSeeded(t)
	ctx := context.Background()

	all := <-engine.GetAllWithChildrenAsync[ts.Order](ctx, conn, engine.Where("status = ?", "open"), false)
	require.NoError(t, all.Err)
	assert.Len(t, all.Value, 2)

	one := <-engine.FindWithChildrenAsync[ts.Order](ctx, conn, engine.IntKey(2), true)
	require.NoError(t, one.Err)
	require.NotNil(t, one.Value)
	assert.Equal(t, "Monitor", one.Value.Lines[0].Product.Name)

	order := &ts.Order{ID: 1}
	children := <-engine.GetChildrenAsync(ctx, conn, order, false)
	require.NoError(t, children.Err)
	assert.Same(t, order, children.Value)
	assert.Len(t, order.Lines, 2)
}

func TestAsyncReadCanceledBeforeEntry(t *testing.T) {
	conn := ts.OpenSeeded(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := <-engine.GetAllWithChildrenAsync[ts.Order](ctx, conn, engine.Filter{}, true)
	assert.ErrorIs(t, res.Err, engine.ErrCanceled)
	assert.Nil(t, res.Value)
}

func TestRelatedTypes(t *testing.T) {
	conn := ts.OpenTemp(t)
	db := conn.DB()
	orderType := reflect.TypeFor[ts.Order]()

	none, err := engine.RelatedTypes(db, orderType, engine.Load{})
	require.NoError(t, err)
	assert.Empty(t, none)

	direct, err := engine.RelatedTypes(db, orderType, engine.Load{Children: true})
	require.NoError(t, err)
	assert.Equal(t, []reflect.Type{reflect.TypeFor[ts.Customer](), reflect.TypeFor[ts.OrderLine]()}, direct)

	deep, err := engine.RelatedTypes(db, orderType, engine.Load{Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, []reflect.Type{
		reflect.TypeFor[ts.Customer](),
		reflect.TypeFor[ts.OrderLine](),
		reflect.TypeFor[ts.Product](),
	}, deep)
}
