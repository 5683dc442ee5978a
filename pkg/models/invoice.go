package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Invoice struct {
	Base
	CustomerID   string          `json:"customer_id" db:"customer_id"`
	ServiceJobID *string         `json:"service_job_id" db:"service_job_id"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	Status       InvoiceStatus   `json:"status" db:"status"`
	DueDate      time.Time       `json:"due_date" db:"due_date"`
}

type InvoiceInput struct {
	CustomerID   string          `json:"customer_id" validate:"required"`
	ServiceJobID *string         `json:"service_job_id"`
	Amount       decimal.Decimal `json:"amount"`
	Status       InvoiceStatus   `json:"status" validate:"omitempty,enum"`
	DueDate      time.Time       `json:"due_date" validate:"required"`
}

func (in InvoiceInput) Entity() Invoice {
	status := in.Status
	if status == "" {
		status = InvoiceStatusDraft
	}
	return Invoice{
		CustomerID:   in.CustomerID,
		ServiceJobID: in.ServiceJobID,
		Amount:       in.Amount,
		Status:       status,
		DueDate:      Normalize(in.DueDate),
	}
}

type InvoicePatch struct {
	CustomerID   *string          `json:"customer_id,omitempty" validate:"omitempty,min=1"`
	ServiceJobID *string          `json:"service_job_id,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Status       *InvoiceStatus   `json:"status,omitempty" validate:"omitempty,enum"`
	DueDate      *time.Time       `json:"due_date,omitempty"`
}

type Payment struct {
	CreatedBase
	InvoiceID string          `json:"invoice_id" db:"invoice_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Method    PaymentMethod   `json:"method" db:"method"`
	Reference string          `json:"reference" db:"reference"`
}

func (p *Payment) GetParentID() string { return p.InvoiceID }

type PaymentInput struct {
	InvoiceID string          `json:"invoice_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method" validate:"required,enum"`
	Reference string          `json:"reference"`
}

func (in PaymentInput) Entity() Payment {
	return Payment{
		InvoiceID: in.InvoiceID,
		Amount:    in.Amount,
		Method:    in.Method,
		Reference: in.Reference,
	}
}

func (in PaymentInput) ForParent(invoiceID string) PaymentInput {
	in.InvoiceID = invoiceID
	return in
}

type PaymentPatch struct {
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Method    *PaymentMethod   `json:"method,omitempty" validate:"omitempty,enum"`
	Reference *string          `json:"reference,omitempty"`
}
