// Package models holds the entities shared by every storage backend.
package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// amounts travel as JSON numbers, matching the hosted numeric columns
	decimal.MarshalJSONWithoutQuotes = true
}

// Record is implemented by pointers to persisted entities.
type Record interface {
	GetID() string
	Assign(id string, now time.Time)
	Touch(now time.Time)
}

// RecordPtr constrains a type parameter to a pointer to T that is a Record.
type RecordPtr[T any] interface {
	*T
	Record
}

// Child is implemented by entities that are always listed through their parent.
type Child interface {
	GetParentID() string
}

// ChildPtr constrains a type parameter to a pointer to a child entity.
type ChildPtr[T any] interface {
	*T
	Record
	Child
}

// Input converts a create payload into a new, unsaved entity.
type Input[T any] interface {
	Entity() T
}

// ChildInput is a create payload whose parent id comes from the route.
type ChildInput[T any, I any] interface {
	Input[T]
	ForParent(parentID string) I
}

// Recalculator is implemented by entities with derived fields.
type Recalculator interface {
	Recalculate()
	// DerivedFields names the stored fields Recalculate writes.
	DerivedFields() []string
}

// Base carries the identity and lifecycle timestamps of a mutable entity.
type Base struct {
	ID        string    `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (b *Base) GetID() string { return b.ID }

func (b *Base) Assign(id string, now time.Time) {
	b.ID = id
	b.CreatedAt = now
	b.UpdatedAt = now
}

func (b *Base) Touch(now time.Time) {
	b.UpdatedAt = NextUpdate(b.UpdatedAt, now)
}

func (b *Base) GetUpdatedAt() time.Time { return b.UpdatedAt }

// CreatedBase is Base for append-only rows that have no updated_at.
type CreatedBase struct {
	ID        string    `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (b *CreatedBase) GetID() string { return b.ID }

func (b *CreatedBase) Assign(id string, now time.Time) {
	b.ID = id
	b.CreatedAt = now
}

func (b *CreatedBase) Touch(time.Time) {}

// Now returns the current UTC time at the precision Postgres keeps.
func Now() time.Time {
	return Normalize(time.Now())
}

// Normalize converts t to UTC at microsecond precision.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// NextUpdate returns now, or the smallest step after previous when the clock has not moved past it.
func NextUpdate(previous, now time.Time) time.Time {
	if now.After(previous) {
		return now
	}
	return previous.Add(time.Microsecond)
}

// ApplyPatch overlays the fields present in patch onto target.
// Patches use pointer fields tagged omitempty, so absent fields keep their stored value.
func ApplyPatch(target any, patch any) error {
	raw, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to encode patch: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to apply patch: %w", err)
	}
	return nil
}

// PatchedFields lists the JSON names of the fields present in patch, sorted.
func PatchedFields(patch any) ([]string, error) {
	raw, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patch: %w", err)
	}
	present := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &present); err != nil {
		return nil, fmt.Errorf("failed to encode patch: %w", err)
	}
	fields := make([]string, 0, len(present))
	for field := range present {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields, nil
}

// UpdatedFields lists the stored fields that applying patch to entity changes: the patched
// fields, the derived fields they feed, and updated_at when entity keeps one. An empty
// result means the update writes nothing.
func UpdatedFields(entity any, patch any) ([]string, error) {
	fields, err := PatchedFields(patch)
	if err != nil {
		return nil, err
	}
	if recalculator, ok := entity.(Recalculator); ok && len(fields) > 0 {
		fields = append(fields, recalculator.DerivedFields()...)
	}
	if _, ok := entity.(interface{ GetUpdatedAt() time.Time }); ok {
		fields = append(fields, "updated_at")
	}
	return fields, nil
}

func normalizePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	n := Normalize(*t)
	return &n
}

// Nested is implemented by entities that own comments and attachments.
type Nested interface {
	Record
	Nested() (attachments *[]Attachment, comments *[]Comment)
}

// NestedPtr constrains a type parameter to a pointer to a Nested entity.
type NestedPtr[T any] interface {
	*T
	Nested
}
