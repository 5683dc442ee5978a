package models

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Attachment is the metadata of an uploaded file. SignedURL is never stored;
// it is minted again on every read.
type Attachment struct {
	ID          string     `json:"id" db:"id"`
	EntityType  EntityType `json:"entity_type" db:"entity_type"`
	EntityID    string     `json:"entity_id" db:"entity_id"`
	FileName    string     `json:"file_name" db:"file_name"`
	FileType    string     `json:"file_type" db:"file_type"`
	FileSize    int64      `json:"file_size" db:"file_size"`
	StoragePath string     `json:"storage_path" db:"storage_path"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	SignedURL   string     `json:"signed_url,omitempty" db:"-"`
}

type AttachmentUpload struct {
	EntityType  EntityType `validate:"required,enum"`
	EntityID    string     `validate:"required"`
	FileName    string     `validate:"required"`
	ContentType string
	Size        int64     `validate:"gte=0"`
	Body        io.Reader `validate:"required"`
}

// StoragePath returns the blob key for an upload: <entity_type>/<entity_id>/<id><ext>.
func (u AttachmentUpload) StoragePath(id string) string {
	return fmt.Sprintf("%s/%s/%s%s", u.EntityType, u.EntityID, id, strings.ToLower(filepath.Ext(u.FileName)))
}

func (u AttachmentUpload) Attachment(id string, now time.Time) Attachment {
	contentType := u.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return Attachment{
		ID:          id,
		EntityType:  u.EntityType,
		EntityID:    u.EntityID,
		FileName:    u.FileName,
		FileType:    contentType,
		FileSize:    u.Size,
		StoragePath: u.StoragePath(id),
		CreatedAt:   now,
	}
}

func (a *Attachment) GetID() string { return a.ID }

func (a *Attachment) Assign(id string, now time.Time) {
	a.ID = id
	a.CreatedAt = now
}

func (a *Attachment) Touch(time.Time) {}
