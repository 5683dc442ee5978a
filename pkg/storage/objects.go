package storage

import (
	"context"
	"io"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
)

// ObjectStore holds attachment blobs addressed by storage path.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Remove(ctx context.Context, keys ...string) error
	// SignURLs returns a time-limited download URL per key. Keys that cannot be signed are left out.
	SignURLs(ctx context.Context, keys []string) (map[string]string, error)
}

// ObjectReader is implemented by object stores whose blobs are served by this process.
type ObjectReader interface {
	Open(ctx context.Context, key string) (body io.ReadCloser, contentType string, err error)
}

// SignAttachments fills SignedURL on every attachment in groups with a single signing call.
// The slices are updated in place.
func SignAttachments(ctx context.Context, objects ObjectStore, logger ectologger.Logger, groups ...[]models.Attachment) error {
	var keys []string
	for _, group := range groups {
		for _, attachment := range group {
			keys = append(keys, attachment.StoragePath)
		}
	}
	if len(keys) == 0 {
		return nil
	}

	urls, err := objects.SignURLs(ctx, keys)
	if err != nil {
		return err
	}

	missing := 0
	for _, group := range groups {
		for i := range group {
			url, ok := urls[group[i].StoragePath]
			if !ok {
				missing++
			}
			group[i].SignedURL = url
		}
	}
	if missing > 0 {
		logger.WithContext(ctx).WithField("missing", missing).Warn("Some attachments could not be signed")
	}
	return nil
}

// GroupAttachments indexes attachments by entity id, keeping their order.
func GroupAttachments(attachments []models.Attachment) map[string][]models.Attachment {
	grouped := make(map[string][]models.Attachment)
	for _, attachment := range attachments {
		grouped[attachment.EntityID] = append(grouped[attachment.EntityID], attachment)
	}
	return grouped
}

// AttachmentsFor returns the attachments of id, never nil.
func AttachmentsFor(grouped map[string][]models.Attachment, id string) []models.Attachment {
	if attachments, ok := grouped[id]; ok {
		return attachments
	}
	return []models.Attachment{}
}
