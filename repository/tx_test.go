package repository_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-modelstore/cache"
	"github.com/goliatone/go-modelstore/engine"
	"github.com/goliatone/go-modelstore/repository"
	ts "github.com/goliatone/go-modelstore/pkg/testsupport"
)

func TestRunInTransactionCommitsAndInvalidates(t *testing.T) {
	conn := ts.OpenSeeded(t)
	repo, _ := newRepo(t, conn)
	ctx := context.Background()

	_, err := cache.GetOrAdd(repo.Cache(), "lines", func() ([]ts.OrderLine, error) {
		return repository.For[ts.OrderLine](repo).All(ctx)
	})
	require.NoError(t, err)
	_, err = cache.GetOrAdd(repo.Cache(), "products", func() ([]ts.Product, error) {
		return repository.For[ts.Product](repo).All(ctx)
	})
	require.NoError(t, err)

	err = repo.RunInTransaction(ctx, func(ctx context.Context, tx *repository.Tx) error {
		order := &ts.Order{Number: "SO-2000", Status: "open", CustomerID: 1}
		if _, err := repository.ForTx[ts.Order](tx).Insert(ctx, order); err != nil {
			return err
		}
		_, err := repository.ForTx[ts.OrderLine](tx).InsertAll(ctx, []ts.OrderLine{
			{OrderID: order.ID, ProductID: 1, Quantity: 1},
			{OrderID: order.ID, ProductID: 3, Quantity: 2},
		})
		if err != nil {
			return err
		}

		got, err := repository.ForTx[ts.Order](tx).FirstWhere(ctx, engine.Where("number = ?", "SO-2000"), repository.WithChildren())
		require.NoError(t, err)
		assert.Len(t, got.Lines, 2)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.Cache().Len(), "product entry survives, line entry is dropped")

	n, err := repository.For[ts.OrderLine](repo).Count(ctx, engine.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestRunInTransactionRollsBack(t *testing.T) {
	conn := ts.OpenSeeded(t)
	repo, rec := newRepo(t, conn)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := cache.GetOrAdd(repo.Cache(), "orders", func() ([]ts.Order, error) {
		return repository.For[ts.Order](repo).All(ctx)
	})
	require.NoError(t, err)

	err = repo.RunInTransaction(ctx, func(ctx context.Context, tx *repository.Tx) error {
		if _, err := repository.ForTx[ts.Order](tx).EmptyTable(ctx); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, rec.calls)
	assert.Equal(t, 1, repo.Cache().Len(), "rolled back writes do not invalidate")

	n, err := repository.For[ts.Order](repo).Count(ctx, engine.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRunInTransactionRejectsReentrantCalls(t *testing.T) {
	conn := ts.OpenSeeded(t)
	repo, _ := newRepo(t, conn)

	err := repo.RunInTransaction(context.Background(), func(ctx context.Context, tx *repository.Tx) error {
		_, err := repository.For[ts.Order](repo).Insert(ctx, &ts.Order{Number: "SO-9", Status: "open"})
		return err
	})
	assert.ErrorIs(t, err, repository.ErrReentrant)
}

func TestTxTouch(t *testing.T) {
	conn := ts.OpenSeeded(t)
	repo, _ := newRepo(t, conn)
	ctx := context.Background()

	_, err := cache.GetOrAdd(repo.Cache(), "customers", func() ([]ts.Customer, error) {
		return repository.For[ts.Customer](repo).All(ctx)
	})
	require.NoError(t, err)

	err = repo.RunInTransaction(ctx, func(ctx context.Context, tx *repository.Tx) error {
		_, err := tx.DB().ExecContext(ctx, "UPDATE customers SET name = upper(name)")
		tx.Touch(reflect.TypeFor[*ts.Customer]())
		return err
	})
	require.NoError(t, err)
	assert.Zero(t, repo.Cache().Len())

	c, err := repository.For[ts.Customer](repo).FirstByKey(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "ADA LOVELACE", c.Name)
}

func TestTxTableReads(t *testing.T) {
	conn := ts.OpenSeeded(t)
	repo, _ := newRepo(t, conn)

	err := repo.RunInTransaction(context.Background(), func(ctx context.Context, tx *repository.Tx) error {
		orders := repository.ForTx[ts.Order](tx)

		all, err := orders.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		first, err := orders.First(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), first.ID)

		_, err = orders.FirstByKey(ctx, 99)
		assert.ErrorIs(t, err, repository.ErrNoRow)

		n, err := orders.Count(ctx, engine.Where("status = ?", "open"))
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		return nil
	})
	require.NoError(t, err)
}
