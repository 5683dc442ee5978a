package models

import "slices"

// Enum is implemented by the closed string sets stored on entities.
type Enum interface {
	IsValid() bool
}

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "New"
	LeadStatusContacted LeadStatus = "Contacted"
	LeadStatusQualified LeadStatus = "Qualified"
	LeadStatusConverted LeadStatus = "Converted"
	LeadStatusLost      LeadStatus = "Lost"
)

var LeadStatuses = []LeadStatus{LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusConverted, LeadStatusLost}

func (s LeadStatus) IsValid() bool { return slices.Contains(LeadStatuses, s) }

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) IsValid() bool { return slices.Contains(Priorities, p) }

type CallStatus string

const (
	CallStatusActive      CallStatus = "Active Calls"
	CallStatusPending     CallStatus = "Pending"
	CallStatusFollowedUp  CallStatus = "Followed up"
	CallStatusNotReceived CallStatus = "Not Received"
	CallStatusCompleted   CallStatus = "Completed"
)

var CallStatuses = []CallStatus{CallStatusActive, CallStatusPending, CallStatusFollowedUp, CallStatusNotReceived, CallStatusCompleted}

func (s CallStatus) IsValid() bool { return slices.Contains(CallStatuses, s) }

type ServiceJobStatus string

const (
	ServiceJobStatusNewComplaint    ServiceJobStatus = "New Complaint"
	ServiceJobStatusUnderInspection ServiceJobStatus = "Under Inspection"
	ServiceJobStatusSentToService   ServiceJobStatus = "Sent to Service Centre"
	ServiceJobStatusReceived        ServiceJobStatus = "Received"
	ServiceJobStatusCompleted       ServiceJobStatus = "Completed"
)

var ServiceJobStatuses = []ServiceJobStatus{
	ServiceJobStatusNewComplaint,
	ServiceJobStatusUnderInspection,
	ServiceJobStatusSentToService,
	ServiceJobStatusReceived,
	ServiceJobStatusCompleted,
}

func (s ServiceJobStatus) IsValid() bool { return slices.Contains(ServiceJobStatuses, s) }

type RequirementStatus string

const (
	RequirementStatusPending           RequirementStatus = "Pending"
	RequirementStatusInProgress        RequirementStatus = "In Progress"
	RequirementStatusOrdered           RequirementStatus = "Ordered"
	RequirementStatusProcedure         RequirementStatus = "Procedure"
	RequirementStatusContactedCustomer RequirementStatus = "Contacted Customer"
	RequirementStatusCompleted         RequirementStatus = "Completed"
)

var RequirementStatuses = []RequirementStatus{
	RequirementStatusPending,
	RequirementStatusInProgress,
	RequirementStatusOrdered,
	RequirementStatusProcedure,
	RequirementStatusContactedCustomer,
	RequirementStatusCompleted,
}

func (s RequirementStatus) IsValid() bool { return slices.Contains(RequirementStatuses, s) }

type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "Draft"
	QuoteStatusSent     QuoteStatus = "Sent"
	QuoteStatusAccepted QuoteStatus = "Accepted"
	QuoteStatusRejected QuoteStatus = "Rejected"
)

var QuoteStatuses = []QuoteStatus{QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted, QuoteStatusRejected}

func (s QuoteStatus) IsValid() bool { return slices.Contains(QuoteStatuses, s) }

type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "Draft"
	InvoiceStatusSent    InvoiceStatus = "Sent"
	InvoiceStatusPaid    InvoiceStatus = "Paid"
	InvoiceStatusOverdue InvoiceStatus = "Overdue"
)

var InvoiceStatuses = []InvoiceStatus{InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue}

func (s InvoiceStatus) IsValid() bool { return slices.Contains(InvoiceStatuses, s) }

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "Cash"
	PaymentMethodCard         PaymentMethod = "Card"
	PaymentMethodCheck        PaymentMethod = "Check"
	PaymentMethodBankTransfer PaymentMethod = "Bank Transfer"
)

var PaymentMethods = []PaymentMethod{PaymentMethodCash, PaymentMethodCard, PaymentMethodCheck, PaymentMethodBankTransfer}

func (m PaymentMethod) IsValid() bool { return slices.Contains(PaymentMethods, m) }

// EntityType names the owner of an attachment.
type EntityType string

const (
	EntityTypeServiceJob         EntityType = "service_job"
	EntityTypeServiceJobComment  EntityType = "service_job_comment"
	EntityTypeRequirement        EntityType = "requirement"
	EntityTypeRequirementComment EntityType = "requirement_comment"
)

var EntityTypes = []EntityType{EntityTypeServiceJob, EntityTypeServiceJobComment, EntityTypeRequirement, EntityTypeRequirementComment}

func (t EntityType) IsValid() bool { return slices.Contains(EntityTypes, t) }
