package engine

import (
	"context"
	"database/sql"
	"errors"
	"reflect"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// The functions in this file run a single statement against db, which is either
// the handle given to an Exclusive callback or a transaction. They do not lock.

func modelTable[T any](db bun.IDB) (*schema.Table, error) {
	return tableFor(db, reflect.TypeFor[T]())
}

func byKey(q *bun.SelectQuery, table *schema.Table, key PrimaryKey) (*bun.SelectQuery, error) {
	values := key.Values()
	if len(values) != len(table.PKs) {
		return nil, invalidArgument("%s has %d primary key columns, key %s has %d values",
			table.TypeName, len(table.PKs), key, len(values))
	}
	for i, pk := range table.PKs {
		q = q.Where("?TableAlias.? = ?", bun.Ident(pk.Name), values[i])
	}
	return q, nil
}

func byPKOrder(q *bun.SelectQuery, table *schema.Table) *bun.SelectQuery {
	for _, pk := range table.PKs {
		q = q.OrderExpr("?TableAlias.? ASC", bun.Ident(pk.Name))
	}
	return q
}

// Find returns the row with the given primary key, or nil if there is none.
func Find[T any](ctx context.Context, db bun.IDB, key PrimaryKey, load Load) (*T, error) {
	if key == nil {
		return nil, invalidArgument("primary key is nil")
	}
	table, err := modelTable[T](db)
	if err != nil {
		return nil, err
	}

	model := new(T)
	q, err := byKey(db.NewSelect().Model(model), table, key)
	if err != nil {
		return nil, err
	}
	q = withRelations(q, table, load)

	if err := q.Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return model, nil
}

// FindWithChildren is Find with relationships loaded.
func FindWithChildren[T any](ctx context.Context, db bun.IDB, key PrimaryKey, recursive bool) (*T, error) {
	return Find[T](ctx, db, key, Load{Children: true, Recursive: recursive})
}

// FirstWhere returns the first row matching filter in primary key order, or
// nil if none matches. A zero filter matches every row.
func FirstWhere[T any](ctx context.Context, db bun.IDB, filter Filter, load Load) (*T, error) {
	table, err := modelTable[T](db)
	if err != nil {
		return nil, err
	}

	model := new(T)
	q := applySelect(db.NewSelect().Model(model), filter)
	q = withRelations(byPKOrder(q, table), table, load)

	if err := q.Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return model, nil
}

// GetAll returns every row matching filter in primary key order.
func GetAll[T any](ctx context.Context, db bun.IDB, filter Filter, load Load) ([]T, error) {
	table, err := modelTable[T](db)
	if err != nil {
		return nil, err
	}

	rows := make([]T, 0)
	q := applySelect(db.NewSelect().Model(&rows), filter)
	q = withRelations(byPKOrder(q, table), table, load)

	if err := q.Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return rows, nil
}

// GetAllWithChildren is GetAll with relationships loaded.
func GetAllWithChildren[T any](ctx context.Context, db bun.IDB, filter Filter, recursive bool) ([]T, error) {
	return GetAll[T](ctx, db, filter, Load{Children: true, Recursive: recursive})
}

// Count returns the number of rows matching filter.
func Count[T any](ctx context.Context, db bun.IDB, filter Filter) (int, error) {
	if _, err := modelTable[T](db); err != nil {
		return 0, err
	}
	return applySelect(db.NewSelect().Model((*T)(nil)), filter).Count(ctx)
}

// GetChildren populates the relationships of an already loaded model, located
// by its primary key.
func GetChildren(ctx context.Context, db bun.IDB, model any, recursive bool) error {
	if model == nil {
		return invalidArgument("model is nil")
	}
	value := reflect.ValueOf(model)
	if value.Kind() != reflect.Pointer || value.IsNil() {
		return invalidArgument("model must be a non-nil pointer, got %T", model)
	}
	table, err := tableFor(db, value.Type())
	if err != nil {
		return err
	}

	q := db.NewSelect().Model(model).WherePK()
	q = withRelations(q, table, Load{Children: true, Recursive: recursive})
	return q.Scan(ctx)
}

// Insert inserts one row. Database generated keys are written back to model.
func Insert[T any](ctx context.Context, db bun.IDB, model *T) (int64, error) {
	if model == nil {
		return 0, invalidArgument("model is nil")
	}
	return affected(db.NewInsert().Model(model).Exec(ctx))
}

// InsertAll inserts rows in one statement. An empty slice is a no-op.
func InsertAll[T any](ctx context.Context, db bun.IDB, models []T) (int64, error) {
	if len(models) == 0 {
		return 0, nil
	}
	return affected(db.NewInsert().Model(&models).Exec(ctx))
}

// Update writes every column of model, matched by primary key.
func Update[T any](ctx context.Context, db bun.IDB, model *T) (int64, error) {
	if model == nil {
		return 0, invalidArgument("model is nil")
	}
	return affected(db.NewUpdate().Model(model).WherePK().Exec(ctx))
}

// UpdateAll updates each model by primary key.
func UpdateAll[T any](ctx context.Context, db bun.IDB, models []T) (int64, error) {
	var total int64
	for i := range models {
		n, err := Update(ctx, db, &models[i])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DeleteByKey deletes the row with the given primary key.
func DeleteByKey[T any](ctx context.Context, db bun.IDB, key PrimaryKey) (int64, error) {
	if key == nil {
		return 0, invalidArgument("primary key is nil")
	}
	table, err := modelTable[T](db)
	if err != nil {
		return 0, err
	}
	values := key.Values()
	if len(values) != len(table.PKs) {
		return 0, invalidArgument("%s has %d primary key columns, key %s has %d values",
			table.TypeName, len(table.PKs), key, len(values))
	}

	q := db.NewDelete().Model((*T)(nil))
	for i, pk := range table.PKs {
		q = q.Where("? = ?", bun.Ident(pk.Name), values[i])
	}
	return affected(q.Exec(ctx))
}

// DeleteWhere deletes the rows matching filter. The filter must not be zero;
// use DeleteAll to empty a table.
func DeleteWhere[T any](ctx context.Context, db bun.IDB, filter Filter) (int64, error) {
	if filter.IsZero() {
		return 0, invalidArgument("delete filter is empty")
	}
	if _, err := modelTable[T](db); err != nil {
		return 0, err
	}
	return affected(applyDelete(db.NewDelete().Model((*T)(nil)), filter).Exec(ctx))
}

// DeleteAll removes every row of T's table.
func DeleteAll[T any](ctx context.Context, db bun.IDB) (int64, error) {
	if _, err := modelTable[T](db); err != nil {
		return 0, err
	}
	return affected(db.NewDelete().Model((*T)(nil)).Where("1 = 1").Exec(ctx))
}

// Exec runs a raw statement and returns the number of affected rows.
func Exec(ctx context.Context, db bun.IDB, query string, args ...any) (int64, error) {
	if query == "" {
		return 0, invalidArgument("query is empty")
	}
	return affected(db.ExecContext(ctx, query, args...))
}

// Query runs a raw query and scans the rows into T.
func Query[T any](ctx context.Context, db bun.IDB, query string, args ...any) ([]T, error) {
	if query == "" {
		return nil, invalidArgument("query is empty")
	}
	rows := make([]T, 0)
	if err := db.NewRaw(query, args...).Scan(ctx, &rows); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return rows, nil
}

func affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
