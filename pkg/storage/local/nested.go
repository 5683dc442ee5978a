package local

import (
	"context"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/storage"
)

// nested is a collection whose documents keep their comments inline.
// Attachments live in their own collection and are joined on every read.
type nested[T any, I models.Input[T], P any, PT models.NestedPtr[T]] struct {
	*repository[T, I, P, PT]
	entityType models.EntityType
}

func newNested[T any, I models.Input[T], P any, PT models.NestedPtr[T]](b *Backend, name, entity string, entityType models.EntityType) *nested[T, I, P, PT] {
	n := &nested[T, I, P, PT]{
		repository: newRepository[T, I, P, PT](b, name, entity),
		entityType: entityType,
	}
	n.strip = func(item *T) {
		attachments, comments := PT(item).Nested()
		*attachments = nil
		// copy so documents handed back to callers keep their assembled attachments
		stripped := make([]models.Comment, len(*comments))
		for i, comment := range *comments {
			comment.Attachments = nil
			stripped[i] = comment
		}
		*comments = stripped
	}
	return n
}

func (n *nested[T, I, P, PT]) List(ctx context.Context) ([]T, error) {
	items, err := n.repository.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := n.assemble(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (n *nested[T, I, P, PT]) Get(ctx context.Context, id string) (*T, error) {
	item, err := n.repository.Get(ctx, id)
	if err != nil || item == nil {
		return item, err
	}
	return n.assembleOne(ctx, item)
}

func (n *nested[T, I, P, PT]) Create(ctx context.Context, input I) (*T, error) {
	item, err := n.repository.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	return n.assembleOne(ctx, item)
}

func (n *nested[T, I, P, PT]) Update(ctx context.Context, id string, patch P) (*T, error) {
	item, err := n.repository.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return n.assembleOne(ctx, item)
}

func (n *nested[T, I, P, PT]) ListComments(ctx context.Context, parentID string) ([]models.Comment, error) {
	item, err := n.Get(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return []models.Comment{}, nil
	}
	_, comments := PT(item).Nested()
	return *comments, nil
}

func (n *nested[T, I, P, PT]) AddComment(ctx context.Context, parentID string, input models.CommentInput) (*models.Comment, error) {
	if err := models.Validate(input); err != nil {
		return nil, err
	}

	var added models.Comment
	err := n.mutate(ctx, func(items []T) ([]T, bool, error) {
		i := indexOf[T, PT](items, parentID)
		if i < 0 {
			return nil, false, storage.NotFound(n.entity, parentID)
		}

		added = input.Entity(storage.NewID(), models.Now())
		_, comments := PT(&items[i]).Nested()
		*comments = append(*comments, added)
		PT(&items[i]).Touch(added.Timestamp)
		return items, true, nil
	})
	if err != nil {
		return nil, err
	}

	added.Attachments = []models.Attachment{}
	return &added, nil
}

func (n *nested[T, I, P, PT]) UpdateComment(ctx context.Context, parentID, commentID string, patch models.CommentPatch) (*models.Comment, error) {
	if err := models.Validate(patch); err != nil {
		return nil, err
	}

	var updated models.Comment
	err := n.mutate(ctx, func(items []T) ([]T, bool, error) {
		i := indexOf[T, PT](items, parentID)
		if i < 0 {
			return nil, false, storage.NotFound(n.entity, parentID)
		}

		_, comments := PT(&items[i]).Nested()
		for j := range *comments {
			if (*comments)[j].ID != commentID {
				continue
			}
			comment := (*comments)[j]
			if err := models.ApplyPatch(&comment, patch); err != nil {
				return nil, false, err
			}
			(*comments)[j] = comment
			updated = comment
			PT(&items[i]).Touch(models.Now())
			return items, true, nil
		}
		return nil, false, storage.NotFound(string(n.commentType()), commentID)
	})
	if err != nil {
		return nil, err
	}

	groups, err := n.b.attachments.grouped(ctx, n.commentType())
	if err != nil {
		return nil, err
	}
	updated.Attachments = storage.AttachmentsFor(groups, updated.ID)
	if err := storage.SignAttachments(ctx, n.b.objects, n.b.logger, updated.Attachments); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (n *nested[T, I, P, PT]) DeleteComment(ctx context.Context, parentID, commentID string) error {
	return n.mutate(ctx, func(items []T) ([]T, bool, error) {
		i := indexOf[T, PT](items, parentID)
		if i < 0 {
			return nil, false, nil
		}

		_, comments := PT(&items[i]).Nested()
		kept := make([]models.Comment, 0, len(*comments))
		for _, comment := range *comments {
			if comment.ID != commentID {
				kept = append(kept, comment)
			}
		}
		if len(kept) == len(*comments) {
			return nil, false, nil
		}
		*comments = kept
		PT(&items[i]).Touch(models.Now())
		return items, true, nil
	})
}

func (n *nested[T, I, P, PT]) commentType() models.EntityType {
	return models.CommentEntityType(n.entityType)
}

func (n *nested[T, I, P, PT]) assembleOne(ctx context.Context, item *T) (*T, error) {
	items := []T{*item}
	if err := n.assemble(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// assemble attaches parent and comment attachments to items and signs them in one call.
func (n *nested[T, I, P, PT]) assemble(ctx context.Context, items []T) error {
	if len(items) == 0 {
		return nil
	}

	all, _, err := n.b.attachments.load(ctx)
	if err != nil {
		return err
	}
	parentGroups := storage.GroupAttachments(ofType(all, n.entityType))
	commentGroups := storage.GroupAttachments(ofType(all, n.commentType()))

	var signing [][]models.Attachment
	for i := range items {
		attachments, comments := PT(&items[i]).Nested()
		*attachments = storage.AttachmentsFor(parentGroups, PT(&items[i]).GetID())
		signing = append(signing, *attachments)

		assembled := make([]models.Comment, len(*comments))
		for j, comment := range *comments {
			comment.Attachments = storage.AttachmentsFor(commentGroups, comment.ID)
			signing = append(signing, comment.Attachments)
			assembled[j] = comment
		}
		*comments = assembled
	}

	return storage.SignAttachments(ctx, n.b.objects, n.b.logger, signing...)
}
