// Package storagetest is the behavioural suite every storage backend must pass.
package storagetest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/storage"
)

// Options describes the ordering a backend promises.
type Options struct {
	// InsertionOrder is true for backends that list rows and comments in the order they were
	// written. Otherwise lists are newest first and comments are newest first.
	InsertionOrder bool
	// InlineComments is true for backends that store comments inside the parent document, so
	// every comment change also refreshes the parent's updated_at.
	InlineComments bool
}

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) storage.Store

func Run(t *testing.T, newStore Factory, opts Options) {
	t.Run("create assigns identity and timestamps", func(t *testing.T) { testCreate(t, newStore(t)) })
	t.Run("create rejects invalid input", func(t *testing.T) { testCreateValidation(t, newStore(t)) })
	t.Run("get returns what create returned", func(t *testing.T) { testRoundTrip(t, newStore(t)) })
	t.Run("update merges the patch", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("update of a missing id is not found", func(t *testing.T) { testUpdateMissing(t, newStore(t)) })
	t.Run("delete is idempotent", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("delete keeps the other rows", func(t *testing.T) { testDeleteMiddle(t, newStore(t), opts) })
	t.Run("service job comments", func(t *testing.T) { testServiceJobComments(t, newStore(t), opts) })
	t.Run("requirement comments", func(t *testing.T) { testRequirementComments(t, newStore(t)) })
	if opts.InlineComments {
		t.Run("comment changes touch the parent", func(t *testing.T) { testCommentsTouchParent(t, newStore(t)) })
	}
	t.Run("children are scoped by parent", func(t *testing.T) { testChildren(t, newStore(t)) })
	t.Run("quote item totals", func(t *testing.T) { testQuoteItemTotals(t, newStore(t)) })
	t.Run("attachments", func(t *testing.T) { testAttachments(t, newStore(t)) })
	t.Run("every collection round trips", func(t *testing.T) { testCollections(t, newStore(t)) })
}

func assertSameJSON(t *testing.T, expected, actual any) {
	t.Helper()
	e, err := json.Marshal(expected)
	require.NoError(t, err)
	a, err := json.Marshal(actual)
	require.NoError(t, err)
	assert.JSONEq(t, string(e), string(a))
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	require.True(t, httperror.IsHTTPError(err), "expected an http error, got %v", err)
	assert.Equal(t, status, httperror.GetStatusCode(err))
}

func customer(name string) models.CustomerInput {
	return models.CustomerInput{Name: name, Email: "owner@example.com", Phone: "+91 98450 00000", Address: "12 MG Road"}
}

func serviceJob(model string) models.ServiceJobInput {
	return models.ServiceJobInput{
		ModelName:          model,
		RegistrationNumber: "KA-01-AB-1234",
		CustomerName:       "Anita",
		CustomerNumber:     "+91 98450 11111",
		Description:        "Reverse camera flickers",
		Status:             models.ServiceJobStatusNewComplaint,
		ScheduledAt:        time.Now().Add(48 * time.Hour),
	}
}

func requirement(description string) models.RequirementInput {
	return models.RequirementInput{
		CustomerName: "Ravi",
		Description:  description,
		Priority:     models.PriorityHigh,
	}
}

func testCreate(t *testing.T, store storage.Store) {
	ctx := context.Background()

	first, err := store.Customers().Create(ctx, customer("Anita"))
	require.NoError(t, err)
	second, err := store.Customers().Create(ctx, customer("Ravi"))
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, first.CreatedAt.IsZero())
	assert.True(t, first.CreatedAt.Equal(first.UpdatedAt))
	assert.Equal(t, "Anita", first.Name)

	call, err := store.CallFollowUps().Create(ctx, models.CallFollowUpInput{CallerName: "Suresh"})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, call.Priority)
	assert.Equal(t, models.CallStatusPending, call.Status)
	assert.False(t, call.Timestamp.IsZero())
}

func testCreateValidation(t *testing.T, store storage.Store) {
	ctx := context.Background()

	_, err := store.Customers().Create(ctx, models.CustomerInput{Email: "not-an-email"})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = store.Leads().Create(ctx, models.LeadInput{Name: "Lead", Status: "Sleeping"})
	assertStatus(t, err, http.StatusBadRequest)

	customers, err := store.Customers().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, customers)
}

func testRoundTrip(t *testing.T, store storage.Store) {
	ctx := context.Background()

	created, err := store.Customers().Create(ctx, customer("Anita"))
	require.NoError(t, err)
	got, err := store.Customers().Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assertSameJSON(t, created, got)

	job, err := store.ServiceJobs().Create(ctx, serviceJob("Creta"))
	require.NoError(t, err)
	assert.Empty(t, job.Comments)
	assert.NotNil(t, job.Comments)
	gotJob, err := store.ServiceJobs().Get(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, gotJob)
	assertSameJSON(t, job, gotJob)

	missing, err := store.Customers().Get(ctx, "00000000-0000-4000-8000-000000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testUpdate(t *testing.T, store storage.Store) {
	ctx := context.Background()

	created, err := store.Leads().Create(ctx, models.LeadInput{
		Name:   "Priya",
		Email:  "priya@example.com",
		Source: "Walk-in",
		Notes:  "wants seat covers",
	})
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusNew, created.Status)

	status := models.LeadStatusContacted
	notes := "called back"
	updated, err := store.Leads().Update(ctx, created.ID, models.LeadPatch{Status: &status, Notes: &notes})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, status, updated.Status)
	assert.Equal(t, notes, updated.Notes)
	assert.Equal(t, created.Name, updated.Name)
	assert.Equal(t, created.Email, updated.Email)
	assert.Equal(t, created.Source, updated.Source)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	again, err := store.Leads().Update(ctx, created.ID, models.LeadPatch{Notes: &notes})
	require.NoError(t, err)
	assert.True(t, again.UpdatedAt.After(updated.UpdatedAt))

	got, err := store.Leads().Get(ctx, created.ID)
	require.NoError(t, err)
	assertSameJSON(t, again, got)
}

func testUpdateMissing(t *testing.T, store storage.Store) {
	ctx := context.Background()

	created, err := store.Customers().Create(ctx, customer("Anita"))
	require.NoError(t, err)

	name := "Ghost"
	_, err = store.Customers().Update(ctx, "00000000-0000-4000-8000-000000000000", models.CustomerPatch{Name: &name})
	require.Error(t, err)
	assert.True(t, storage.IsNotFound(err))

	customers, err := store.Customers().List(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assertSameJSON(t, created, customers[0])
}

func testDelete(t *testing.T, store storage.Store) {
	ctx := context.Background()

	created, err := store.Products().Create(ctx, models.ProductInput{Name: "Seat cover", Price: decimal.NewFromInt(1500)})
	require.NoError(t, err)

	require.NoError(t, store.Products().Delete(ctx, created.ID))
	got, err := store.Products().Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, store.Products().Delete(ctx, created.ID))
}

func testDeleteMiddle(t *testing.T, store storage.Store, opts Options) {
	ctx := context.Background()

	var ids []string
	for _, description := range []string{"Alloy wheels", "Roof rack", "Dash camera"} {
		created, err := store.Requirements().Create(ctx, requirement(description))
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	require.NoError(t, store.Requirements().Delete(ctx, ids[1]))

	listed, err := store.Requirements().List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)

	got := []string{listed[0].ID, listed[1].ID}
	if opts.InsertionOrder {
		assert.Equal(t, []string{ids[0], ids[2]}, got)
	} else {
		assert.Equal(t, []string{ids[2], ids[0]}, got)
	}
}

func testServiceJobComments(t *testing.T, store storage.Store, opts Options) {
	ctx := context.Background()
	jobs := store.ServiceJobs()

	job, err := jobs.Create(ctx, serviceJob("Nexon"))
	require.NoError(t, err)
	assert.Equal(t, models.ServiceJobStatusNewComplaint, job.Status)

	first, err := jobs.AddComment(ctx, job.ID, models.CommentInput{Text: "Checked wiring", Author: "Kiran"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.NotNil(t, first.Attachments)
	second, err := jobs.AddComment(ctx, job.ID, models.CommentInput{Text: "Replaced camera", Author: "Kiran"})
	require.NoError(t, err)

	listed, err := jobs.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Len(t, listed[0].Comments, 2)

	order := []string{listed[0].Comments[0].ID, listed[0].Comments[1].ID}
	if opts.InsertionOrder {
		assert.Equal(t, []string{first.ID, second.ID}, order)
	} else {
		assert.Equal(t, []string{second.ID, first.ID}, order)
	}

	comments, err := jobs.ListComments(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 2)

	text := "Replaced camera and harness"
	updated, err := jobs.UpdateComment(ctx, job.ID, second.ID, models.CommentPatch{Text: &text})
	require.NoError(t, err)
	assert.Equal(t, text, updated.Text)
	assert.Equal(t, second.Author, updated.Author)

	other, err := jobs.Create(ctx, serviceJob("Venue"))
	require.NoError(t, err)

	_, err = jobs.UpdateComment(ctx, other.ID, second.ID, models.CommentPatch{Text: &text})
	assert.True(t, storage.IsNotFound(err), "a comment must not be reachable through another job: %v", err)
	require.NoError(t, jobs.DeleteComment(ctx, other.ID, first.ID))

	_, err = jobs.AddComment(ctx, "00000000-0000-4000-8000-000000000000", models.CommentInput{Text: "x", Author: "y"})
	assert.True(t, storage.IsNotFound(err))

	require.NoError(t, jobs.DeleteComment(ctx, job.ID, first.ID))
	require.NoError(t, jobs.DeleteComment(ctx, job.ID, first.ID))

	got, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, second.ID, got.Comments[0].ID)
	assert.Equal(t, text, got.Comments[0].Text)

	untouched, err := jobs.ListComments(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, untouched)
}

func testRequirementComments(t *testing.T, store storage.Store) {
	ctx := context.Background()
	reqs := store.Requirements()

	req, err := reqs.Create(ctx, requirement("Ambient lighting kit"))
	require.NoError(t, err)
	assert.Equal(t, models.RequirementStatusPending, req.Status)

	comment, err := reqs.AddComment(ctx, req.ID, models.CommentInput{Text: "Ordered from supplier", Author: "Meena"})
	require.NoError(t, err)

	got, err := reqs.Get(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, comment.ID, got.Comments[0].ID)
	assert.Equal(t, "Ordered from supplier", got.Comments[0].Text)
	assert.Equal(t, "Meena", got.Comments[0].Author)
	assert.NotNil(t, got.Comments[0].Attachments)

	_, err = reqs.AddComment(ctx, req.ID, models.CommentInput{Author: "Meena"})
	assertStatus(t, err, http.StatusBadRequest)
}

func testCommentsTouchParent(t *testing.T, store storage.Store) {
	ctx := context.Background()
	jobs := store.ServiceJobs()

	job, err := jobs.Create(ctx, serviceJob("Creta"))
	require.NoError(t, err)
	last := job.UpdatedAt

	bumped := func(step string) {
		t.Helper()
		got, err := jobs.Get(ctx, job.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.UpdatedAt.After(last), "%s: updated_at %s did not move past %s", step, got.UpdatedAt, last)
		assert.True(t, job.CreatedAt.Equal(got.CreatedAt), step)
		last = got.UpdatedAt
	}

	comment, err := jobs.AddComment(ctx, job.ID, models.CommentInput{Text: "Booked bay", Author: "Ravi"})
	require.NoError(t, err)
	bumped("add")

	text := "Booked bay 2"
	_, err = jobs.UpdateComment(ctx, job.ID, comment.ID, models.CommentPatch{Text: &text})
	require.NoError(t, err)
	bumped("update")

	require.NoError(t, jobs.DeleteComment(ctx, job.ID, comment.ID))
	bumped("delete")

	// nothing removed, nothing written
	require.NoError(t, jobs.DeleteComment(ctx, job.ID, comment.ID))
	got, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, last.Equal(got.UpdatedAt))
}

func testChildren(t *testing.T, store storage.Store) {
	ctx := context.Background()

	lead, err := store.Leads().Create(ctx, models.LeadInput{Name: "Priya"})
	require.NoError(t, err)
	otherLead, err := store.Leads().Create(ctx, models.LeadInput{Name: "Arjun"})
	require.NoError(t, err)

	call, err := store.LeadCalls().Create(ctx, models.LeadCallInput{LeadID: lead.ID, Notes: "interested", Outcome: "callback"})
	require.NoError(t, err)
	assert.NotEmpty(t, call.ID)
	assert.False(t, call.CreatedAt.IsZero())

	calls, err := store.LeadCalls().ListFor(ctx, lead.ID)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assertSameJSON(t, call, calls[0])

	none, err := store.LeadCalls().ListFor(ctx, otherLead.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	invoice, err := store.Invoices().Create(ctx, models.InvoiceInput{
		CustomerID: "walk-in",
		Amount:     decimal.NewFromInt(5000),
		DueDate:    time.Now().Add(7 * 24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusDraft, invoice.Status)

	payment, err := store.Payments().Create(ctx, models.PaymentInput{
		InvoiceID: invoice.ID,
		Amount:    decimal.NewFromInt(2000),
		Method:    models.PaymentMethodBankTransfer,
	})
	require.NoError(t, err)

	payments, err := store.Payments().ListFor(ctx, invoice.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, payment.ID, payments[0].ID)
	assert.True(t, payments[0].Amount.Equal(decimal.NewFromInt(2000)))

	require.NoError(t, store.Payments().Delete(ctx, payment.ID))
	payments, err = store.Payments().ListFor(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func testQuoteItemTotals(t *testing.T, store storage.Store) {
	ctx := context.Background()

	quote, err := store.Quotes().Create(ctx, models.QuoteInput{CustomerID: "walk-in", ValidUntil: time.Now().Add(30 * 24 * time.Hour)})
	require.NoError(t, err)

	item, err := store.QuoteItems().Create(ctx, models.QuoteItemInput{
		QuoteID:   quote.ID,
		ProductID: "seat-cover",
		Quantity:  2,
		UnitPrice: decimal.RequireFromString("1499.50"),
	})
	require.NoError(t, err)
	assert.True(t, item.TotalPrice.Equal(decimal.RequireFromString("2999")), "got %s", item.TotalPrice)

	quantity := 3
	updated, err := store.QuoteItems().Update(ctx, item.ID, models.QuoteItemPatch{Quantity: &quantity})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)
	assert.True(t, updated.TotalPrice.Equal(decimal.RequireFromString("4498.50")), "got %s", updated.TotalPrice)

	items, err := store.QuoteItems().ListFor(ctx, quote.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].TotalPrice.Equal(updated.TotalPrice))
}

func upload(entityType models.EntityType, entityID, name, body string) models.AttachmentUpload {
	return models.AttachmentUpload{
		EntityType:  entityType,
		EntityID:    entityID,
		FileName:    name,
		ContentType: "image/png",
		Size:        int64(len(body)),
		Body:        bytes.NewBufferString(body),
	}
}

func testAttachments(t *testing.T, store storage.Store) {
	ctx := context.Background()
	attachments := store.Attachments()

	req, err := store.Requirements().Create(ctx, requirement("Mud flaps"))
	require.NoError(t, err)
	other, err := store.Requirements().Create(ctx, requirement("Floor mats"))
	require.NoError(t, err)

	uploaded, err := attachments.Upload(ctx, upload(models.EntityTypeRequirement, req.ID, "Photo.PNG", "png-bytes"))
	require.NoError(t, err)
	assert.NotEmpty(t, uploaded.ID)
	assert.Equal(t, "Photo.PNG", uploaded.FileName)
	assert.Equal(t, "image/png", uploaded.FileType)
	assert.Equal(t, int64(len("png-bytes")), uploaded.FileSize)
	assert.Equal(t, "requirement/"+req.ID+"/"+uploaded.ID+".png", uploaded.StoragePath)
	assert.NotEmpty(t, uploaded.SignedURL)

	listed, err := attachments.List(ctx, models.EntityTypeRequirement, req.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, uploaded.ID, listed[0].ID)
	assert.NotEmpty(t, listed[0].SignedURL)

	leaked, err := attachments.List(ctx, models.EntityTypeRequirement, other.ID)
	require.NoError(t, err)
	assert.Empty(t, leaked)

	wrongType, err := attachments.List(ctx, models.EntityTypeServiceJob, req.ID)
	require.NoError(t, err)
	assert.Empty(t, wrongType)

	comment, err := store.Requirements().AddComment(ctx, req.ID, models.CommentInput{Text: "see photo", Author: "Meena"})
	require.NoError(t, err)
	_, err = attachments.Upload(ctx, upload(models.EntityTypeRequirementComment, comment.ID, "invoice.pdf", "pdf-bytes"))
	require.NoError(t, err)

	got, err := store.Requirements().Get(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, uploaded.ID, got.Attachments[0].ID)
	assert.NotEmpty(t, got.Attachments[0].SignedURL)
	require.Len(t, got.Comments, 1)
	require.Len(t, got.Comments[0].Attachments, 1)
	assert.Equal(t, "invoice.pdf", got.Comments[0].Attachments[0].FileName)

	gotOther, err := store.Requirements().Get(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, gotOther.Attachments)

	_, err = attachments.Upload(ctx, upload("invoice", req.ID, "x.png", "x"))
	assertStatus(t, err, http.StatusBadRequest)

	require.NoError(t, attachments.Delete(ctx, uploaded.ID))
	require.NoError(t, attachments.Delete(ctx, uploaded.ID))
	listed, err = attachments.List(ctx, models.EntityTypeRequirement, req.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func testCollections(t *testing.T, store storage.Store) {
	ctx := context.Background()
	followUp := time.Now().Add(24 * time.Hour)
	reference := "UTR-1"

	t.Run("leads", func(t *testing.T) {
		created, err := store.Leads().Create(ctx, models.LeadInput{Name: "Priya", NextFollowUpAt: &followUp})
		require.NoError(t, err)
		listed, err := store.Leads().List(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, listed)
		got, err := store.Leads().Get(ctx, created.ID)
		require.NoError(t, err)
		assertSameJSON(t, created, got)
	})

	t.Run("call follow-ups", func(t *testing.T) {
		outcome := "resolved"
		created, err := store.CallFollowUps().Create(ctx, models.CallFollowUpInput{
			CallerName:  "Suresh",
			Priority:    models.PriorityHigh,
			Status:      models.CallStatusActive,
			CallOutcome: &outcome,
		})
		require.NoError(t, err)
		got, err := store.CallFollowUps().Get(ctx, created.ID)
		require.NoError(t, err)
		assertSameJSON(t, created, got)

		status := models.CallStatusCompleted
		updated, err := store.CallFollowUps().Update(ctx, created.ID, models.CallFollowUpPatch{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
		assert.Equal(t, models.PriorityHigh, updated.Priority)
	})

	t.Run("quotes", func(t *testing.T) {
		created, err := store.Quotes().Create(ctx, models.QuoteInput{
			CustomerID:  "walk-in",
			TotalAmount: decimal.RequireFromString("2500.75"),
			ValidUntil:  time.Now().Add(24 * time.Hour),
		})
		require.NoError(t, err)
		got, err := store.Quotes().Get(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.TotalAmount.Equal(created.TotalAmount))
		assert.Equal(t, models.QuoteStatusDraft, got.Status)
	})

	t.Run("installers", func(t *testing.T) {
		created, err := store.Installers().Create(ctx, models.InstallerInput{Name: "Farhan", Specialties: []string{"audio", "wraps"}})
		require.NoError(t, err)
		got, err := store.Installers().Get(ctx, created.ID)
		require.NoError(t, err)
		assertSameJSON(t, created, got)

		specialties := []string{"audio"}
		updated, err := store.Installers().Update(ctx, created.ID, models.InstallerPatch{Specialties: &specialties})
		require.NoError(t, err)
		assert.Equal(t, []string{"audio"}, []string(updated.Specialties))
	})

	t.Run("payments keep their reference", func(t *testing.T) {
		invoice, err := store.Invoices().Create(ctx, models.InvoiceInput{CustomerID: "walk-in", DueDate: time.Now()})
		require.NoError(t, err)
		payment, err := store.Payments().Create(ctx, models.PaymentInput{
			InvoiceID: invoice.ID,
			Amount:    decimal.NewFromInt(10),
			Method:    models.PaymentMethodCash,
			Reference: reference,
		})
		require.NoError(t, err)
		got, err := store.Payments().Get(ctx, payment.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, reference, got.Reference)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}
