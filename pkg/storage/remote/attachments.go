package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/storage"
)

const attachmentsPath = "/rest/v1/attachments"

type attachments struct {
	api     *api
	objects *ObjectStore
}

func (a *attachments) selectWhere(ctx context.Context, query url.Values) ([]models.Attachment, error) {
	query.Set("select", "*")
	query.Set("order", "created_at.desc")

	rows := []models.Attachment{}
	if err := a.api.doJSON(ctx, http.MethodGet, attachmentsPath, query, nil, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// selectFor returns the unsigned attachments of every entity in ids.
func (a *attachments) selectFor(ctx context.Context, entityType models.EntityType, ids []string) ([]models.Attachment, error) {
	rows, err := a.selectWhere(ctx, url.Values{
		"entity_type": {eq(string(entityType))},
		"entity_id":   {in(ids)},
	})
	if err != nil {
		return nil, a.api.fail(ctx, err, "list attachments", string(entityType), "")
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
		return nil, a.api.fail(ctx, err, "upload file", "attachment", attachment.StoragePath)
	}

	rows := []models.Attachment{}
	err := a.api.doJSON(ctx, http.MethodPost, attachmentsPath, url.Values{"select": {"*"}}, attachment, representation, &rows)
	if err != nil {
		if removeErr := a.objects.Remove(ctx, attachment.StoragePath); removeErr != nil {
			a.api.logger.WithContext(ctx).WithError(removeErr).WithField("path", attachment.StoragePath).Warn("Failed to remove orphaned attachment blob")
		}
		return nil, a.api.fail(ctx, err, "save attachment metadata", "attachment", attachment.ID)
	}
	if len(rows) > 0 {
		attachment = rows[0]
	}

	a.api.logger.WithContext(ctx).WithFields(map[string]any{
		"id":          attachment.ID,
		"entity_type": attachment.EntityType,
		"entity_id":   attachment.EntityID,
		"path":        attachment.StoragePath,
	}).Info("Attachment uploaded")

	signed := []models.Attachment{attachment}
	if err := storage.SignAttachments(ctx, a.objects, a.api.logger, signed); err != nil {
		return nil, err
	}
	return &signed[0], nil
}

func (a *attachments) List(ctx context.Context, entityType models.EntityType, entityID string) ([]models.Attachment, error) {
	rows, err := a.selectWhere(ctx, url.Values{
		"entity_type": {eq(string(entityType))},
		"entity_id":   {eq(entityID)},
	})
	if err != nil {
		return nil, a.api.fail(ctx, err, "list attachments", string(entityType), entityID)
	}
	if err := storage.SignAttachments(ctx, a.objects, a.api.logger, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes the blob and then the row. A missing id is a no-op.
func (a *attachments) Delete(ctx context.Context, id string) error {
	rows, err := a.selectWhere(ctx, url.Values{"id": {eq(id)}})
	if err != nil {
		return a.api.fail(ctx, err, "get attachment", "attachment", id)
	}
	if len(rows) == 0 {
		a.api.logger.WithContext(ctx).WithField("id", id).Debug("Attachment already deleted")
		return nil
	}

	if err := a.objects.Remove(ctx, rows[0].StoragePath); err != nil {
		return a.api.fail(ctx, err, "remove file", "attachment", id)
	}
	if err := a.api.doJSON(ctx, http.MethodDelete, attachmentsPath, url.Values{"id": {eq(id)}}, nil, nil, nil); err != nil {
		return a.api.fail(ctx, err, "delete attachment", "attachment", id)
	}
	return nil
}
