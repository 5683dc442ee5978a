package models

import "time"

// CallFollowUp is an inbound call that somebody has to act on.
type CallFollowUp struct {
	Base
	CallerName      string     `json:"caller_name" db:"caller_name"`
	CallerNumber    string     `json:"caller_number" db:"caller_number"`
	PersonToContact string     `json:"person_to_contact" db:"person_to_contact"`
	Operator        string     `json:"operator" db:"operator"`
	Priority        Priority   `json:"priority" db:"priority"`
	Notes           string     `json:"notes" db:"notes"`
	Status          CallStatus `json:"status" db:"status"`
	AssignedTo      string     `json:"assigned_to" db:"assigned_to"`
	Timestamp       time.Time  `json:"timestamp" db:"timestamp"`
	ResponseTime    *string    `json:"response_time" db:"response_time"`
	CallOutcome     *string    `json:"call_outcome" db:"call_outcome"`
	TimeToRespond   *string    `json:"time_to_respond" db:"time_to_respond"`
}

type CallFollowUpInput struct {
	CallerName      string     `json:"caller_name" validate:"required"`
	CallerNumber    string     `json:"caller_number"`
	PersonToContact string     `json:"person_to_contact"`
	Operator        string     `json:"operator"`
	Priority        Priority   `json:"priority" validate:"omitempty,enum"`
	Notes           string     `json:"notes"`
	Status          CallStatus `json:"status" validate:"omitempty,enum"`
	AssignedTo      string     `json:"assigned_to"`
	Timestamp       *time.Time `json:"timestamp"`
	ResponseTime    *string    `json:"response_time"`
	CallOutcome     *string    `json:"call_outcome"`
	TimeToRespond   *string    `json:"time_to_respond"`
}

func (in CallFollowUpInput) Entity() CallFollowUp {
	call := CallFollowUp{
		CallerName:      in.CallerName,
		CallerNumber:    in.CallerNumber,
		PersonToContact: in.PersonToContact,
		Operator:        in.Operator,
		Priority:        in.Priority,
		Notes:           in.Notes,
		Status:          in.Status,
		AssignedTo:      in.AssignedTo,
		ResponseTime:    in.ResponseTime,
		CallOutcome:     in.CallOutcome,
		TimeToRespond:   in.TimeToRespond,
	}
	if call.Priority == "" {
		call.Priority = PriorityMedium
	}
	if call.Status == "" {
		call.Status = CallStatusPending
	}
	if in.Timestamp != nil {
		call.Timestamp = Normalize(*in.Timestamp)
	} else {
		call.Timestamp = Now()
	}
	return call
}

type CallFollowUpPatch struct {
	CallerName      *string     `json:"caller_name,omitempty" validate:"omitempty,min=1"`
	CallerNumber    *string     `json:"caller_number,omitempty"`
	PersonToContact *string     `json:"person_to_contact,omitempty"`
	Operator        *string     `json:"operator,omitempty"`
	Priority        *Priority   `json:"priority,omitempty" validate:"omitempty,enum"`
	Notes           *string     `json:"notes,omitempty"`
	Status          *CallStatus `json:"status,omitempty" validate:"omitempty,enum"`
	AssignedTo      *string     `json:"assigned_to,omitempty"`
	Timestamp       *time.Time  `json:"timestamp,omitempty"`
	ResponseTime    *string     `json:"response_time,omitempty"`
	CallOutcome     *string     `json:"call_outcome,omitempty"`
	TimeToRespond   *string     `json:"time_to_respond,omitempty"`
}
