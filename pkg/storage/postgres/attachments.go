package postgres

import (
	"context"

	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/storage"
)

const attachmentsTable = "attachments"

var attachmentStruct = database.NewStruct(new(models.Attachment))

type attachments struct {
	*conn
	objects storage.ObjectStore
}

func newAttachments(c *conn, objects storage.ObjectStore) *attachments {
	return &attachments{conn: c, objects: objects}
}

func (a *attachments) selectWhere(ctx context.Context, where ...func(sb *sqlbuilder.SelectBuilder) string) ([]models.Attachment, error) {
	sb := attachmentStruct.SelectFrom(attachmentsTable)
	for _, condition := range where {
		sb.Where(condition(sb))
	}
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	rows := []models.Attachment{}
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func ofType(entityType models.EntityType) func(sb *sqlbuilder.SelectBuilder) string {
	return func(sb *sqlbuilder.SelectBuilder) string {
		return sb.Equal("entity_type", string(entityType))
	}
}

// selectFor returns the unsigned attachments of every entity in ids.
func (a *attachments) selectFor(ctx context.Context, entityType models.EntityType, ids []string) ([]models.Attachment, error) {
	if len(ids) == 0 {
		return []models.Attachment{}, nil
	}

	rows, err := a.selectWhere(ctx, ofType(entityType), func(sb *sqlbuilder.SelectBuilder) string {
		return sb.In("entity_id", database.Args(ids)...)
	})
	if err != nil {
		return nil, a.fail(ctx, err, "list attachments", string(entityType), "")
	}
	return rows, nil
}

// Upload stores the blob and then its metadata row. When the row cannot be written the blob
// is removed again so no unreferenced object is left behind.
func (a *attachments) Upload(ctx context.Context, upload models.AttachmentUpload) (*models.Attachment, error) {
	if err := models.Validate(upload); err != nil {
		return nil, err
	}

	attachment := upload.Attachment(storage.NewID(), models.Now())
	if err := a.objects.Put(ctx, attachment.StoragePath, attachment.FileType, upload.Body, upload.Size); err != nil {
		return nil, a.fail(ctx, err, "upload file", "attachment", attachment.StoragePath)
	}

	query, args := attachmentStruct.InsertInto(attachmentsTable, &attachment).Build()
	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		if removeErr := a.objects.Remove(ctx, attachment.StoragePath); removeErr != nil {
			a.logger.WithContext(ctx).WithError(removeErr).WithField("path", attachment.StoragePath).Warn("Failed to remove orphaned attachment blob")
		}
		return nil, a.fail(ctx, err, "save attachment metadata", "attachment", attachment.ID)
	}

	a.logger.WithContext(ctx).WithFields(map[string]any{
		"id":          attachment.ID,
		"entity_type": attachment.EntityType,
		"entity_id":   attachment.EntityID,
		"path":        attachment.StoragePath,
	}).Info("Attachment uploaded")

	signed := []models.Attachment{attachment}
	if err := storage.SignAttachments(ctx, a.objects, a.logger, signed); err != nil {
		return nil, err
	}
	return &signed[0], nil
}

func (a *attachments) List(ctx context.Context, entityType models.EntityType, entityID string) ([]models.Attachment, error) {
	rows, err := a.selectWhere(ctx, ofType(entityType), func(sb *sqlbuilder.SelectBuilder) string {
		return sb.Equal("entity_id", entityID)
	})
	if err != nil {
		return nil, a.fail(ctx, err, "list attachments", string(entityType), entityID)
	}
	if err := storage.SignAttachments(ctx, a.objects, a.logger, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes the row and then the blob. A missing id is a no-op.
func (a *attachments) Delete(ctx context.Context, id string) error {
	del := database.NewDeleteBuilder()
	del.DeleteFrom(attachmentsTable).Where(del.Equal("id", id))
	del.SQL("RETURNING storage_path")
	query, args := del.Build()

	var paths []string
	if err := a.db.SelectContext(ctx, &paths, query, args...); err != nil {
		return a.fail(ctx, err, "delete attachment", "attachment", id)
	}
	if len(paths) == 0 {
		a.logger.WithContext(ctx).WithField("id", id).Debug("Attachment already deleted")
		return nil
	}

	if err := a.objects.Remove(ctx, paths...); err != nil {
		a.logger.WithContext(ctx).WithError(err).WithField("path", paths[0]).Warn("Failed to remove attachment blob")
	}
	return nil
}
