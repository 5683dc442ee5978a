package local

import (
	"context"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/storage"
)

type attachments struct {
	*collection[models.Attachment]
}

func ofType(all []models.Attachment, entityType models.EntityType) []models.Attachment {
	return ectolinq.Filter(all, func(attachment models.Attachment) bool {
		return attachment.EntityType == entityType
	})
}

func (a *attachments) grouped(ctx context.Context, entityType models.EntityType) (map[string][]models.Attachment, error) {
	all, _, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	return storage.GroupAttachments(ofType(all, entityType)), nil
}

// Upload stores the blob first and the metadata second; a failed metadata write removes the blob.
func (a *attachments) Upload(ctx context.Context, upload models.AttachmentUpload) (*models.Attachment, error) {
	if err := models.Validate(upload); err != nil {
		return nil, err
	}

	attachment := upload.Attachment(storage.NewID(), models.Now())
	if err := a.b.objects.Put(ctx, attachment.StoragePath, attachment.FileType, upload.Body, upload.Size); err != nil {
		a.b.logger.WithContext(ctx).WithError(err).WithField("path", attachment.StoragePath).Error("Failed to store attachment blob")
		return nil, err
	}

	err := a.mutate(ctx, func(items []models.Attachment) ([]models.Attachment, bool, error) {
		return append(items, attachment), true, nil
	})
	if err != nil {
		if removeErr := a.b.objects.Remove(ctx, attachment.StoragePath); removeErr != nil {
			a.b.logger.WithContext(ctx).WithError(removeErr).WithField("path", attachment.StoragePath).Warn("Failed to remove orphaned attachment blob")
		}
		return nil, err
	}

	signed := []models.Attachment{attachment}
	if err := storage.SignAttachments(ctx, a.b.objects, a.b.logger, signed); err != nil {
		return nil, err
	}
	return &signed[0], nil
}

func (a *attachments) List(ctx context.Context, entityType models.EntityType, entityID string) ([]models.Attachment, error) {
	all, _, err := a.load(ctx)
	if err != nil {
		return nil, err
	}

	matched := []models.Attachment{}
	for _, attachment := range all {
		if attachment.EntityType == entityType && attachment.EntityID == entityID {
			matched = append(matched, attachment)
		}
	}
	if err := storage.SignAttachments(ctx, a.b.objects, a.b.logger, matched); err != nil {
		return nil, err
	}
	return matched, nil
}

// Delete removes the metadata row and then the blob. A missing id is a no-op.
func (a *attachments) Delete(ctx context.Context, id string) error {
	var removed *models.Attachment
	err := a.mutate(ctx, func(items []models.Attachment) ([]models.Attachment, bool, error) {
		removed = nil
		i := indexOf[models.Attachment](items, id)
		if i < 0 {
			return nil, false, nil
		}
		found := items[i]
		removed = &found
		return append(items[:i:i], items[i+1:]...), true, nil
	})
	if err != nil || removed == nil {
		return err
	}

	if err := a.b.objects.Remove(ctx, removed.StoragePath); err != nil {
		a.b.logger.WithContext(ctx).WithError(err).WithField("path", removed.StoragePath).Warn("Failed to remove attachment blob")
	}
	return nil
}
