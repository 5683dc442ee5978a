package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/storage"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// querier is satisfied by both the database handle and an open transaction.
type querier interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type table[T any, I models.Input[T], P any, PT models.RecordPtr[T]] struct {
	*conn
	name      string
	entity    string
	order     string
	structure *sqlbuilder.Struct
}

func newTable[T any, I models.Input[T], P any, PT models.RecordPtr[T]](c *conn, name, entity, order string) *table[T, I, P, PT] {
	return &table[T, I, P, PT]{
		conn:      c,
		name:      name,
		entity:    entity,
		order:     order,
		structure: database.NewStruct(new(T)),
	}
}

func (t *table[T, I, P, PT]) span(ctx context.Context, operation string) (context.Context, func(error)) {
	ctx, span := tracing.StartSpan(ctx, "postgres."+t.name+"."+operation)
	return ctx, func(err error) { tracing.EndSpan(span, err) }
}

func (t *table[T, I, P, PT]) selectWhere(ctx context.Context, q querier, where func(sb *sqlbuilder.SelectBuilder) string) ([]T, error) {
	sb := t.structure.SelectFrom(t.name)
	if where != nil {
		sb.Where(where(sb))
	}
	if t.order != "" {
		sb.OrderBy(t.order)
	}

	query, args := sb.Build()
	rows := []T{}
	if err := q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (t *table[T, I, P, PT]) getFrom(ctx context.Context, q querier, id string, lock bool) (*T, error) {
	sb := t.structure.SelectFrom(t.name)
	sb.Where(sb.Equal("id", id))
	if lock {
		sb.ForUpdate()
	}

	query, args := sb.Build()
	var row T
	err := q.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (t *table[T, I, P, PT]) List(ctx context.Context) (rows []T, err error) {
	ctx, end := t.span(ctx, "List")
	defer func() { end(err) }()

	rows, err = t.selectWhere(ctx, t.db, nil)
	if err != nil {
		return nil, t.fail(ctx, err, "list "+t.name, t.entity, "")
	}

	t.logger.WithContext(ctx).WithFields(map[string]any{
		"table": t.name,
		"count": len(rows),
	}).Debug("Listed rows")
	return rows, nil
}

func (t *table[T, I, P, PT]) Get(ctx context.Context, id string) (row *T, err error) {
	ctx, end := t.span(ctx, "Get")
	defer func() { end(err) }()

	row, err = t.getFrom(ctx, t.db, id, false)
	if err != nil {
		return nil, t.fail(ctx, err, "get "+t.entity, t.entity, id)
	}
	return row, nil
}

func (t *table[T, I, P, PT]) Create(ctx context.Context, input I) (*T, error) {
	if err := models.Validate(input); err != nil {
		return nil, err
	}

	entity := input.Entity()
	PT(&entity).Assign(storage.NewID(), models.Now())
	return t.insert(ctx, entity, t.entity, PT(&entity).GetID())
}

// insert writes entity as one row. parent and parentID name what a foreign-key violation
// points at.
func (t *table[T, I, P, PT]) insert(ctx context.Context, entity T, parent, parentID string) (created *T, err error) {
	ctx, end := t.span(ctx, "Create")
	defer func() { end(err) }()

	query, args := t.structure.InsertInto(t.name, &entity).Build()
	if _, err = t.db.ExecContext(ctx, query, args...); err != nil {
		return nil, t.fail(ctx, err, "create "+t.entity, parent, parentID)
	}

	t.logger.WithContext(ctx).WithFields(map[string]any{
		"table": t.name,
		"id":    PT(&entity).GetID(),
	}).Debug("Created row")
	return &entity, nil
}

// Update locks the row, merges the patch over it and writes only the changed columns in one
// transaction.
func (t *table[T, I, P, PT]) Update(ctx context.Context, id string, patch P) (updated *T, err error) {
	if err := models.Validate(patch); err != nil {
		return nil, err
	}

	ctx, end := t.span(ctx, "Update")
	defer func() { end(err) }()

	err = database.WithTx(ctx, t.db, func(ctx context.Context, tx database.Tx) error {
		current, err := t.getFrom(ctx, tx, id, true)
		if err != nil {
			return t.fail(ctx, err, "get "+t.entity, t.entity, id)
		}
		if current == nil {
			return storage.NotFound(t.entity, id)
		}

		fields, err := models.UpdatedFields(PT(current), patch)
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			updated = current
			return nil
		}

		if err := models.ApplyPatch(current, patch); err != nil {
			return err
		}
		if recalculator, ok := any(PT(current)).(models.Recalculator); ok {
			recalculator.Recalculate()
		}
		PT(current).Touch(models.Now())

		query, args := t.updateColumns(id, current, fields).Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return t.fail(ctx, err, "update "+t.entity, t.entity, id)
		}

		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// updateColumns builds an UPDATE of row id that sets only the named columns from entity.
func (t *table[T, I, P, PT]) updateColumns(id string, entity *T, columns []string) *sqlbuilder.UpdateBuilder {
	wanted := make(map[string]bool, len(columns))
	for _, column := range columns {
		wanted[column] = true
	}

	ub := database.NewUpdateBuilder()
	ub.Update(t.name)
	values := t.structure.Values(entity)
	for i, column := range t.structure.Columns() {
		if wanted[column] {
			ub.SetMore(ub.Assign(column, values[i]))
		}
	}
	ub.Where(ub.Equal("id", id))
	return ub
}

func (t *table[T, I, P, PT]) Delete(ctx context.Context, id string) (err error) {
	ctx, end := t.span(ctx, "Delete")
	defer func() { end(err) }()

	del := database.NewDeleteBuilder()
	del.DeleteFrom(t.name).Where(del.Equal("id", id))
	query, args := del.Build()

	result, err := t.db.ExecContext(ctx, query, args...)
	if err != nil {
		return t.fail(ctx, err, "delete "+t.entity, t.entity, id)
	}

	affected, _ := result.RowsAffected()
	t.logger.WithContext(ctx).WithFields(map[string]any{
		"table":    t.name,
		"id":       id,
		"affected": affected,
	}).Debug("Deleted row")
	return nil
}

type childTable[T any, I models.Input[T], P any, PT models.ChildPtr[T]] struct {
	*table[T, I, P, PT]
	parent       string
	parentColumn string
}

func (c *childTable[T, I, P, PT]) ListFor(ctx context.Context, parentID string) (rows []T, err error) {
	ctx, end := c.span(ctx, "ListFor")
	defer func() { end(err) }()

	rows, err = c.selectWhere(ctx, c.db, func(sb *sqlbuilder.SelectBuilder) string {
		return sb.Equal(c.parentColumn, parentID)
	})
	if err != nil {
		return nil, c.fail(ctx, err, "list "+c.name, c.parent, parentID)
	}
	return rows, nil
}

func (c *childTable[T, I, P, PT]) Create(ctx context.Context, input I) (*T, error) {
	if err := models.Validate(input); err != nil {
		return nil, err
	}

	entity := input.Entity()
	PT(&entity).Assign(storage.NewID(), models.Now())
	return c.insert(ctx, entity, c.parent, PT(&entity).GetParentID())
}
