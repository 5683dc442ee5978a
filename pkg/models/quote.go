package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Quote struct {
	Base
	CustomerID  string          `json:"customer_id" db:"customer_id"`
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status      QuoteStatus     `json:"status" db:"status"`
	ValidUntil  time.Time       `json:"valid_until" db:"valid_until"`
}

type QuoteInput struct {
	CustomerID  string          `json:"customer_id" validate:"required"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      QuoteStatus     `json:"status" validate:"omitempty,enum"`
	ValidUntil  time.Time       `json:"valid_until" validate:"required"`
}

func (in QuoteInput) Entity() Quote {
	status := in.Status
	if status == "" {
		status = QuoteStatusDraft
	}
	return Quote{
		CustomerID:  in.CustomerID,
		TotalAmount: in.TotalAmount,
		Status:      status,
		ValidUntil:  Normalize(in.ValidUntil),
	}
}

type QuotePatch struct {
	CustomerID  *string          `json:"customer_id,omitempty" validate:"omitempty,min=1"`
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
	Status      *QuoteStatus     `json:"status,omitempty" validate:"omitempty,enum"`
	ValidUntil  *time.Time       `json:"valid_until,omitempty"`
}

// QuoteItem is one product line of a quote. TotalPrice is always UnitPrice × Quantity.
type QuoteItem struct {
	ID         string          `json:"id" db:"id"`
	QuoteID    string          `json:"quote_id" db:"quote_id"`
	ProductID  string          `json:"product_id" db:"product_id"`
	Quantity   int             `json:"quantity" db:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" db:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
}

func (q *QuoteItem) GetID() string                 { return q.ID }
func (q *QuoteItem) Assign(id string, _ time.Time) { q.ID = id }
func (q *QuoteItem) Touch(time.Time)               {}
func (q *QuoteItem) GetParentID() string           { return q.QuoteID }

func (q *QuoteItem) DerivedFields() []string { return []string{"total_price"} }

func (q *QuoteItem) Recalculate() {
	q.TotalPrice = q.UnitPrice.Mul(decimal.NewFromInt(int64(q.Quantity)))
}

type QuoteItemInput struct {
	QuoteID   string          `json:"quote_id" validate:"required"`
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (in QuoteItemInput) Entity() QuoteItem {
	item := QuoteItem{
		QuoteID:   in.QuoteID,
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		UnitPrice: in.UnitPrice,
	}
	item.Recalculate()
	return item
}

func (in QuoteItemInput) ForParent(quoteID string) QuoteItemInput {
	in.QuoteID = quoteID
	return in
}

type QuoteItemPatch struct {
	ProductID *string          `json:"product_id,omitempty" validate:"omitempty,min=1"`
	Quantity  *int             `json:"quantity,omitempty" validate:"omitempty,gte=1"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}
