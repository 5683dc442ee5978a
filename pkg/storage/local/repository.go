package local

import (
	"context"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/storage"
)

type repository[T any, I models.Input[T], P any, PT models.RecordPtr[T]] struct {
	*collection[T]
}

func newRepository[T any, I models.Input[T], P any, PT models.RecordPtr[T]](b *Backend, name, entity string) *repository[T, I, P, PT] {
	return &repository[T, I, P, PT]{collection: newCollection[T](b, name, entity)}
}

func (r *repository[T, I, P, PT]) List(ctx context.Context) ([]T, error) {
	items, _, err := r.load(ctx)
	return items, err
}

func (r *repository[T, I, P, PT]) Get(ctx context.Context, id string) (*T, error) {
	items, _, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf[T, PT](items, id); i >= 0 {
		return &items[i], nil
	}
	return nil, nil
}

func (r *repository[T, I, P, PT]) Create(ctx context.Context, input I) (*T, error) {
	if err := models.Validate(input); err != nil {
		return nil, err
	}

	var created T
	err := r.mutate(ctx, func(items []T) ([]T, bool, error) {
		created = input.Entity()
		PT(&created).Assign(storage.NewID(), models.Now())
		return append(items, created), true, nil
	})
	if err != nil {
		return nil, err
	}

	r.b.logger.WithContext(ctx).WithFields(map[string]any{
		"collection": r.name,
		"id":         PT(&created).GetID(),
	}).Debug("Created record")
	return &created, nil
}

func (r *repository[T, I, P, PT]) Update(ctx context.Context, id string, patch P) (*T, error) {
	if err := models.Validate(patch); err != nil {
		return nil, err
	}

	var updated T
	err := r.mutate(ctx, func(items []T) ([]T, bool, error) {
		i := indexOf[T, PT](items, id)
		if i < 0 {
			return nil, false, storage.NotFound(r.entity, id)
		}

		item := items[i]
		if err := models.ApplyPatch(&item, patch); err != nil {
			return nil, false, err
		}
		if recalculator, ok := any(PT(&item)).(models.Recalculator); ok {
			recalculator.Recalculate()
		}
		PT(&item).Touch(models.Now())

		items[i] = item
		updated = item
		return items, true, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *repository[T, I, P, PT]) Delete(ctx context.Context, id string) error {
	return r.mutate(ctx, func(items []T) ([]T, bool, error) {
		kept := ectolinq.Filter(items, func(item T) bool {
			return PT(&item).GetID() != id
		})
		if len(kept) == len(items) {
			r.b.logger.WithContext(ctx).WithFields(map[string]any{
				"collection": r.name,
				"id":         id,
			}).Debug("Nothing to delete")
			return nil, false, nil
		}
		return kept, true, nil
	})
}

type children[T any, I models.Input[T], P any, PT models.ChildPtr[T]] struct {
	*repository[T, I, P, PT]
}

func newChildren[T any, I models.Input[T], P any, PT models.ChildPtr[T]](b *Backend, name, entity string) *children[T, I, P, PT] {
	return &children[T, I, P, PT]{repository: newRepository[T, I, P, PT](b, name, entity)}
}

func (c *children[T, I, P, PT]) ListFor(ctx context.Context, parentID string) ([]T, error) {
	items, _, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	matched := []T{}
	for i := range items {
		if PT(&items[i]).GetParentID() == parentID {
			matched = append(matched, items[i])
		}
	}
	return matched, nil
}
