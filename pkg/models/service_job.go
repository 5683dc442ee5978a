package models

import "time"

// ServiceJob is a vehicle brought in for service. Attachments and comments are
// assembled on read and never written through the job itself.
type ServiceJob struct {
	Base
	ModelName          string           `json:"modal_name" db:"modal_name"`
	RegistrationNumber string           `json:"modal_registration_number" db:"modal_registration_number"`
	CustomerName       string           `json:"customer_name" db:"customer_name"`
	CustomerNumber     string           `json:"customer_number" db:"customer_number"`
	Description        string           `json:"description" db:"description"`
	Status             ServiceJobStatus `json:"status" db:"status"`
	ScheduledAt        time.Time        `json:"scheduled_at" db:"scheduled_at"`
	CompletedAt        *time.Time       `json:"completed_at" db:"completed_at"`
	Attachments        []Attachment     `json:"attachments" db:"-"`
	Comments           []Comment        `json:"comments" db:"-"`
}

type ServiceJobInput struct {
	ModelName          string           `json:"modal_name" validate:"required"`
	RegistrationNumber string           `json:"modal_registration_number"`
	CustomerName       string           `json:"customer_name" validate:"required"`
	CustomerNumber     string           `json:"customer_number"`
	Description        string           `json:"description"`
	Status             ServiceJobStatus `json:"status" validate:"omitempty,enum"`
	ScheduledAt        time.Time        `json:"scheduled_at" validate:"required"`
	CompletedAt        *time.Time       `json:"completed_at"`
}

func (in ServiceJobInput) Entity() ServiceJob {
	status := in.Status
	if status == "" {
		status = ServiceJobStatusNewComplaint
	}
	return ServiceJob{
		ModelName:          in.ModelName,
		RegistrationNumber: in.RegistrationNumber,
		CustomerName:       in.CustomerName,
		CustomerNumber:     in.CustomerNumber,
		Description:        in.Description,
		Status:             status,
		ScheduledAt:        Normalize(in.ScheduledAt),
		CompletedAt:        normalizePtr(in.CompletedAt),
		Attachments:        []Attachment{},
		Comments:           []Comment{},
	}
}

type ServiceJobPatch struct {
	ModelName          *string           `json:"modal_name,omitempty" validate:"omitempty,min=1"`
	RegistrationNumber *string           `json:"modal_registration_number,omitempty"`
	CustomerName       *string           `json:"customer_name,omitempty" validate:"omitempty,min=1"`
	CustomerNumber     *string           `json:"customer_number,omitempty"`
	Description        *string           `json:"description,omitempty"`
	Status             *ServiceJobStatus `json:"status,omitempty" validate:"omitempty,enum"`
	ScheduledAt        *time.Time        `json:"scheduled_at,omitempty"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
}

// IsUpcoming reports whether the job is still open and scheduled within [now, now+window].
func (j ServiceJob) IsUpcoming(now time.Time, window time.Duration) bool {
	if j.Status == ServiceJobStatusCompleted {
		return false
	}
	return !j.ScheduledAt.Before(now) && !j.ScheduledAt.After(now.Add(window))
}

func (j *ServiceJob) Nested() (*[]Attachment, *[]Comment) {
	return &j.Attachments, &j.Comments
}
