package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/storage"
)

var representation = map[string]string{"Prefer": "return=representation"}

// table maps one entity onto one hosted table.
type table[T any, I models.Input[T], P any, PT models.RecordPtr[T]] struct {
	api     *api
	name    string
	entity  string
	order   string
	virtual []string
}

func (t *table[T, I, P, PT]) path() string {
	return "/rest/v1/" + t.name
}

func (t *table[T, I, P, PT]) query(filters map[string]string) url.Values {
	query := url.Values{"select": {"*"}}
	if t.order != "" {
		query.Set("order", t.order)
	}
	for column, filter := range filters {
		query.Set(column, filter)
	}
	return query
}

func (t *table[T, I, P, PT]) selectWhere(ctx context.Context, filters map[string]string) ([]T, error) {
	rows := []T{}
	if err := t.api.doJSON(ctx, http.MethodGet, t.path(), t.query(filters), nil, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (t *table[T, I, P, PT]) List(ctx context.Context) ([]T, error) {
	rows, err := t.selectWhere(ctx, nil)
	if err != nil {
		return nil, t.api.fail(ctx, err, "list "+t.name, t.entity, "")
	}

	t.api.logger.WithContext(ctx).WithFields(map[string]any{
		"table": t.name,
		"count": len(rows),
	}).Debug("Listed rows")
	return rows, nil
}

func (t *table[T, I, P, PT]) Get(ctx context.Context, id string) (*T, error) {
	rows, err := t.selectWhere(ctx, map[string]string{"id": eq(id)})
	if err != nil {
		return nil, t.api.fail(ctx, err, "get "+t.entity, t.entity, id)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (t *table[T, I, P, PT]) Create(ctx context.Context, input I) (*T, error) {
	if err := models.Validate(input); err != nil {
		return nil, err
	}

	entity := input.Entity()
	PT(&entity).Assign(storage.NewID(), models.Now())
	return t.insert(ctx, entity, "", "")
}

// insert writes entity and returns the stored row. parent and parentID name the row a
// foreign-key violation points at.
func (t *table[T, I, P, PT]) insert(ctx context.Context, entity T, parent, parentID string) (*T, error) {
	id := PT(&entity).GetID()
	body, err := rowBody(entity, t.virtual...)
	if err != nil {
		return nil, err
	}

	rows := []T{}
	if err := t.api.doJSON(ctx, http.MethodPost, t.path(), url.Values{"select": {"*"}}, body, representation, &rows); err != nil {
		if parentID != "" {
			return nil, t.api.fail(ctx, err, "create "+t.entity, parent, parentID)
		}
		return nil, t.api.fail(ctx, err, "create "+t.entity, t.entity, id)
	}
	if len(rows) == 0 {
		return &entity, nil
	}

	t.api.logger.WithContext(ctx).WithFields(map[string]any{
		"table": t.name,
		"id":    id,
	}).Debug("Created row")
	return &rows[0], nil
}

// Update reads the current row, merges the patch over it and sends only the changed columns,
// so derived fields and updated_at are computed the same way as in the other backends.
func (t *table[T, I, P, PT]) Update(ctx context.Context, id string, patch P) (*T, error) {
	if err := models.Validate(patch); err != nil {
		return nil, err
	}

	current, err := t.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, storage.NotFound(t.entity, id)
	}

	fields, err := models.UpdatedFields(PT(current), patch)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return current, nil
	}

	if err := models.ApplyPatch(current, patch); err != nil {
		return nil, err
	}
	if recalculator, ok := any(PT(current)).(models.Recalculator); ok {
		recalculator.Recalculate()
	}
	PT(current).Touch(models.Now())

	row, err := rowBody(current, t.virtual...)
	if err != nil {
		return nil, err
	}
	body := make(map[string]any, len(fields))
	for _, field := range fields {
		if value, ok := row[field]; ok {
			body[field] = value
		}
	}

	rows := []T{}
	query := url.Values{"id": {eq(id)}, "select": {"*"}}
	if err := t.api.doJSON(ctx, http.MethodPatch, t.path(), query, body, representation, &rows); err != nil {
		return nil, t.api.fail(ctx, err, "update "+t.entity, t.entity, id)
	}
	if len(rows) == 0 {
		return nil, storage.NotFound(t.entity, id)
	}
	return &rows[0], nil
}

func (t *table[T, I, P, PT]) Delete(ctx context.Context, id string) error {
	query := url.Values{"id": {eq(id)}}
	if err := t.api.doJSON(ctx, http.MethodDelete, t.path(), query, nil, nil, nil); err != nil {
		return t.api.fail(ctx, err, "delete "+t.entity, t.entity, id)
	}
	return nil
}

type childTable[T any, I models.Input[T], P any, PT models.ChildPtr[T]] struct {
	*table[T, I, P, PT]
	parent       string
	parentColumn string
}

func (c *childTable[T, I, P, PT]) ListFor(ctx context.Context, parentID string) ([]T, error) {
	rows, err := c.selectWhere(ctx, map[string]string{c.parentColumn: eq(parentID)})
	if err != nil {
		return nil, c.api.fail(ctx, err, "list "+c.name, c.entity, parentID)
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
