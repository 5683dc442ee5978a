package models

import "time"

type Lead struct {
	Base
	Name           string     `json:"name" db:"name"`
	Email          string     `json:"email" db:"email"`
	Phone          string     `json:"phone" db:"phone"`
	Source         string     `json:"source" db:"source"`
	Status         LeadStatus `json:"status" db:"status"`
	Notes          string     `json:"notes" db:"notes"`
	NextFollowUpAt *time.Time `json:"next_follow_up_at" db:"next_follow_up_at"`
}

type LeadInput struct {
	Name           string     `json:"name" validate:"required"`
	Email          string     `json:"email" validate:"omitempty,email"`
	Phone          string     `json:"phone"`
	Source         string     `json:"source"`
	Status         LeadStatus `json:"status" validate:"omitempty,enum"`
	Notes          string     `json:"notes"`
	NextFollowUpAt *time.Time `json:"next_follow_up_at"`
}

func (in LeadInput) Entity() Lead {
	status := in.Status
	if status == "" {
		status = LeadStatusNew
	}
	return Lead{
		Name:           in.Name,
		Email:          in.Email,
		Phone:          in.Phone,
		Source:         in.Source,
		Status:         status,
		Notes:          in.Notes,
		NextFollowUpAt: normalizePtr(in.NextFollowUpAt),
	}
}

// LeadPatch cannot clear next_follow_up_at; an absent field and null are both "unchanged".
type LeadPatch struct {
	Name           *string     `json:"name,omitempty" validate:"omitempty,min=1"`
	Email          *string     `json:"email,omitempty" validate:"omitempty,email"`
	Phone          *string     `json:"phone,omitempty"`
	Source         *string     `json:"source,omitempty"`
	Status         *LeadStatus `json:"status,omitempty" validate:"omitempty,enum"`
	Notes          *string     `json:"notes,omitempty"`
	NextFollowUpAt *time.Time  `json:"next_follow_up_at,omitempty"`
}

// LeadCall is one logged conversation with a lead.
type LeadCall struct {
	CreatedBase
	LeadID  string `json:"lead_id" db:"lead_id"`
	Notes   string `json:"notes" db:"notes"`
	Outcome string `json:"outcome" db:"outcome"`
}

func (c *LeadCall) GetParentID() string { return c.LeadID }

type LeadCallInput struct {
	LeadID  string `json:"lead_id" validate:"required"`
	Notes   string `json:"notes"`
	Outcome string `json:"outcome"`
}

func (in LeadCallInput) Entity() LeadCall {
	return LeadCall{LeadID: in.LeadID, Notes: in.Notes, Outcome: in.Outcome}
}

func (in LeadCallInput) ForParent(leadID string) LeadCallInput {
	in.LeadID = leadID
	return in
}

type LeadCallPatch struct {
	Notes   *string `json:"notes,omitempty"`
	Outcome *string `json:"outcome,omitempty"`
}
