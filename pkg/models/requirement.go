package models

// Requirement is a part or accessory a customer asked for.
type Requirement struct {
	Base
	CustomerName   string            `json:"customer_name" db:"customer_name"`
	CustomerNumber string            `json:"customer_number" db:"customer_number"`
	Description    string            `json:"description" db:"description"`
	Priority       Priority          `json:"priority" db:"priority"`
	Status         RequirementStatus `json:"status" db:"status"`
	Attachments    []Attachment      `json:"attachments" db:"-"`
	Comments       []Comment         `json:"comments" db:"-"`
}

type RequirementInput struct {
	CustomerName   string            `json:"customer_name" validate:"required"`
	CustomerNumber string            `json:"customer_number"`
	Description    string            `json:"description" validate:"required"`
	Priority       Priority          `json:"priority" validate:"omitempty,enum"`
	Status         RequirementStatus `json:"status" validate:"omitempty,enum"`
}

func (in RequirementInput) Entity() Requirement {
	req := Requirement{
		CustomerName:   in.CustomerName,
		CustomerNumber: in.CustomerNumber,
		Description:    in.Description,
		Priority:       in.Priority,
		Status:         in.Status,
		Attachments:    []Attachment{},
		Comments:       []Comment{},
	}
	if req.Priority == "" {
		req.Priority = PriorityMedium
	}
	if req.Status == "" {
		req.Status = RequirementStatusPending
	}
	return req
}

type RequirementPatch struct {
	CustomerName   *string            `json:"customer_name,omitempty" validate:"omitempty,min=1"`
	CustomerNumber *string            `json:"customer_number,omitempty"`
	Description    *string            `json:"description,omitempty" validate:"omitempty,min=1"`
	Priority       *Priority          `json:"priority,omitempty" validate:"omitempty,enum"`
	Status         *RequirementStatus `json:"status,omitempty" validate:"omitempty,enum"`
}

func (r *Requirement) Nested() (*[]Attachment, *[]Comment) {
	return &r.Attachments, &r.Comments
}
