package models

import "time"

// Comment has the same shape under service jobs and requirements in every backend.
type Comment struct {
	ID          string       `json:"id" db:"id"`
	Text        string       `json:"text" db:"text"`
	Author      string       `json:"author" db:"author"`
	Timestamp   time.Time    `json:"timestamp" db:"timestamp"`
	Attachments []Attachment `json:"attachments" db:"-"`
}

type CommentInput struct {
	Text   string `json:"text" validate:"required"`
	Author string `json:"author" validate:"required"`
}

func (in CommentInput) Entity(id string, now time.Time) Comment {
	return Comment{
		ID:          id,
		Text:        in.Text,
		Author:      in.Author,
		Timestamp:   now,
		Attachments: []Attachment{},
	}
}

type CommentPatch struct {
	Text   *string `json:"text,omitempty" validate:"omitempty,min=1"`
	Author *string `json:"author,omitempty" validate:"omitempty,min=1"`
}

// CommentEntityType maps a parent attachment owner to the owner type of its comments.
func CommentEntityType(parent EntityType) EntityType {
	switch parent {
	case EntityTypeServiceJob:
		return EntityTypeServiceJobComment
	case EntityTypeRequirement:
		return EntityTypeRequirementComment
	default:
		return parent
	}
}
