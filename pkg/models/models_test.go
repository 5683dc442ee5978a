package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestApplyPatch(t *testing.T) {
	t.Run("should only overwrite fields present in the patch", func(t *testing.T) {
		customer := Customer{Name: "Asha", Email: "asha@example.com", Phone: "555-0100"}

		err := ApplyPatch(&customer, CustomerPatch{Phone: strPtr("555-0199")})
		require.NoError(t, err)

		assert.Equal(t, "Asha", customer.Name)
		assert.Equal(t, "asha@example.com", customer.Email)
		assert.Equal(t, "555-0199", customer.Phone)
	})

	t.Run("should not touch identity or timestamps", func(t *testing.T) {
		created := Now()
		lead := Lead{Base: Base{ID: "lead-1", CreatedAt: created, UpdatedAt: created}, Name: "Ravi"}
		status := LeadStatusQualified

		require.NoError(t, ApplyPatch(&lead, LeadPatch{Status: &status}))

		assert.Equal(t, "lead-1", lead.ID)
		assert.True(t, created.Equal(lead.CreatedAt))
		assert.Equal(t, LeadStatusQualified, lead.Status)
	})

	t.Run("should replace list fields wholesale", func(t *testing.T) {
		installer := InstallerInput{Name: "Kiran", Specialties: []string{"audio", "tint"}}.Entity()
		specialties := []string{"alarm"}

		require.NoError(t, ApplyPatch(&installer, InstallerPatch{Specialties: &specialties}))

		assert.Equal(t, []string{"alarm"}, []string(installer.Specialties))
	})
}

func TestNextUpdate(t *testing.T) {
	previous := Now()

	assert.Equal(t, previous.Add(time.Microsecond), NextUpdate(previous, previous))
	assert.Equal(t, previous.Add(time.Microsecond), NextUpdate(previous, previous.Add(-time.Second)))
	assert.Equal(t, previous.Add(time.Second), NextUpdate(previous, previous.Add(time.Second)))
}

func TestBaseTouch(t *testing.T) {
	now := Now()
	var b Base
	b.Assign("id-1", now)
	assert.Equal(t, b.CreatedAt, b.UpdatedAt)

	b.Touch(now)
	assert.True(t, b.UpdatedAt.After(b.CreatedAt))
}

func TestQuoteItemTotals(t *testing.T) {
	item := QuoteItemInput{QuoteID: "q", ProductID: "p", Quantity: 3, UnitPrice: decimal.RequireFromString("19.99")}.Entity()
	assert.True(t, decimal.RequireFromString("59.97").Equal(item.TotalPrice))

	quantity := 5
	require.NoError(t, ApplyPatch(&item, QuoteItemPatch{Quantity: &quantity}))
	item.Recalculate()
	assert.True(t, decimal.RequireFromString("99.95").Equal(item.TotalPrice))
}

func TestUpdatedFields(t *testing.T) {
	t.Run("should list only patched fields and updated_at", func(t *testing.T) {
		fields, err := UpdatedFields(&Customer{}, CustomerPatch{Phone: strPtr("555-0199"), Name: strPtr("Ada")})
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "phone", "updated_at"}, fields)
	})

	t.Run("should add derived fields when a quote item changes", func(t *testing.T) {
		quantity := 2
		fields, err := UpdatedFields(&QuoteItem{}, QuoteItemPatch{Quantity: &quantity})
		require.NoError(t, err)
		assert.Equal(t, []string{"quantity", "total_price"}, fields)
	})

	t.Run("should be empty for an empty patch on an untracked row", func(t *testing.T) {
		fields, err := UpdatedFields(&QuoteItem{}, QuoteItemPatch{})
		require.NoError(t, err)
		assert.Empty(t, fields)
	})
}

func TestValidate(t *testing.T) {
	t.Run("should accept defaults for optional enums", func(t *testing.T) {
		assert.NoError(t, Validate(LeadInput{Name: "Lead"}))
		assert.Equal(t, LeadStatusNew, LeadInput{Name: "Lead"}.Entity().Status)
	})

	t.Run("should reject an unknown status with a 400", func(t *testing.T) {
		err := Validate(CallFollowUpInput{CallerName: "Caller", Status: "Ringing"})
		require.Error(t, err)
		assert.Equal(t, 400, httperror.GetStatusCode(err))
		assert.Contains(t, err.Error(), "status")
	})

	t.Run("should accept statuses containing spaces", func(t *testing.T) {
		assert.NoError(t, Validate(CallFollowUpInput{CallerName: "Caller", Status: CallStatusActive}))
		status := ServiceJobStatusSentToService
		assert.NoError(t, Validate(ServiceJobPatch{Status: &status}))
	})

	t.Run("should reject a bad enum behind a patch pointer", func(t *testing.T) {
		status := RequirementStatus("Lost")
		assert.Error(t, Validate(RequirementPatch{Status: &status}))
	})

	t.Run("should require a payment method", func(t *testing.T) {
		assert.Error(t, Validate(PaymentInput{InvoiceID: "inv"}))
		assert.NoError(t, Validate(PaymentInput{InvoiceID: "inv", Method: PaymentMethodBankTransfer}))
	})

	t.Run("should require a body on uploads", func(t *testing.T) {
		err := Validate(AttachmentUpload{EntityType: EntityTypeServiceJob, EntityID: "job", FileName: "a.png"})
		assert.Error(t, err)

		err = Validate(AttachmentUpload{EntityType: EntityTypeServiceJob, EntityID: "job", FileName: "a.png", Body: strings.NewReader("x")})
		assert.NoError(t, err)
	})
}

func TestAttachmentStoragePath(t *testing.T) {
	upload := AttachmentUpload{EntityType: EntityTypeRequirementComment, EntityID: "c-1", FileName: "Invoice.PDF"}
	assert.Equal(t, "requirement_comment/c-1/abc.pdf", upload.StoragePath("abc"))

	upload.FileName = "notes"
	assert.Equal(t, "requirement_comment/c-1/abc", upload.StoragePath("abc"))
}

func TestMoneyEncodesAsNumber(t *testing.T) {
	raw, err := json.Marshal(ProductInput{Name: "Seat cover", Price: decimal.RequireFromString("1499.5")}.Entity())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"price":1499.5`)
}
