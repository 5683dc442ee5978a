// Package postgres implements the storage contract on a self-hosted Postgres database.
// Attachment blobs go to whichever object store the caller supplies.
package postgres

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/lib/pq"

	appcontext "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/storage"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

// conn is shared by every table of a backend.
type conn struct {
	db     database.DB
	logger ectologger.Logger
}

// fail logs err and converts it into the httperror callers see. A foreign-key violation means
// the referenced row does not exist and is reported as not-found for entity and id.
func (c *conn) fail(ctx context.Context, err error, action, entity, id string) error {
	if httperror.IsHTTPError(err) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case foreignKeyViolation:
			return storage.NotFound(entity, id)
		case uniqueViolation:
			return httperror.NewHTTPErrorf(http.StatusConflict, "%s %s already exists", entity, id).
				AddMetaValue("constraint", pqErr.Constraint)
		}
	}

	c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
		"entity": entity,
		"id":     id,
	}).Errorf("failed to %s", action)
	return httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to %s", action)
}

type Backend struct {
	*conn
	objects storage.ObjectStore

	customers     *table[models.Customer, models.CustomerInput, models.CustomerPatch, *models.Customer]
	leads         *table[models.Lead, models.LeadInput, models.LeadPatch, *models.Lead]
	leadCalls     *childTable[models.LeadCall, models.LeadCallInput, models.LeadCallPatch, *models.LeadCall]
	callFollowUps *table[models.CallFollowUp, models.CallFollowUpInput, models.CallFollowUpPatch, *models.CallFollowUp]
	serviceJobs   *nested[models.ServiceJob, models.ServiceJobInput, models.ServiceJobPatch, *models.ServiceJob]
	requirements  *nested[models.Requirement, models.RequirementInput, models.RequirementPatch, *models.Requirement]
	quotes        *table[models.Quote, models.QuoteInput, models.QuotePatch, *models.Quote]
	quoteItems    *childTable[models.QuoteItem, models.QuoteItemInput, models.QuoteItemPatch, *models.QuoteItem]
	products      *table[models.Product, models.ProductInput, models.ProductPatch, *models.Product]
	installers    *table[models.Installer, models.InstallerInput, models.InstallerPatch, *models.Installer]
	invoices      *table[models.Invoice, models.InvoiceInput, models.InvoicePatch, *models.Invoice]
	payments      *childTable[models.Payment, models.PaymentInput, models.PaymentPatch, *models.Payment]
	attachments   *attachments
}

func newChildTable[T any, I models.Input[T], P any, PT models.ChildPtr[T]](c *conn, name, entity, order, parent, parentColumn string) *childTable[T, I, P, PT] {
	return &childTable[T, I, P, PT]{
		table:        newTable[T, I, P, PT](c, name, entity, order),
		parent:       parent,
		parentColumn: parentColumn,
	}
}

func New(db database.DB, objects storage.ObjectStore, logger ectologger.Logger) *Backend {
	c := &conn{db: db, logger: logger}
	files := newAttachments(c, objects)

	return &Backend{
		conn:          c,
		objects:       objects,
		customers:     newTable[models.Customer, models.CustomerInput, models.CustomerPatch](c, "customers", "customer", "created_at DESC"),
		leads:         newTable[models.Lead, models.LeadInput, models.LeadPatch](c, "leads", "lead", "created_at DESC"),
		leadCalls:     newChildTable[models.LeadCall, models.LeadCallInput, models.LeadCallPatch](c, "lead_calls", "lead call", "created_at DESC", "lead", "lead_id"),
		callFollowUps: newTable[models.CallFollowUp, models.CallFollowUpInput, models.CallFollowUpPatch](c, "call_followups", "call follow-up", `"timestamp" DESC`),
		serviceJobs: newNested[models.ServiceJob, models.ServiceJobInput, models.ServiceJobPatch](
			newTable[models.ServiceJob, models.ServiceJobInput, models.ServiceJobPatch](c, "service_jobs", "service job", "scheduled_at ASC"),
			files, models.EntityTypeServiceJob, "service_job_comments", "service_job_id",
		),
		requirements: newNested[models.Requirement, models.RequirementInput, models.RequirementPatch](
			newTable[models.Requirement, models.RequirementInput, models.RequirementPatch](c, "requirements", "requirement", "created_at DESC"),
			files, models.EntityTypeRequirement, "requirement_comments", "requirement_id",
		),
		quotes:      newTable[models.Quote, models.QuoteInput, models.QuotePatch](c, "quotes", "quote", "created_at DESC"),
		quoteItems:  newChildTable[models.QuoteItem, models.QuoteItemInput, models.QuoteItemPatch](c, "quote_items", "quote item", "id ASC", "quote", "quote_id"),
		products:    newTable[models.Product, models.ProductInput, models.ProductPatch](c, "products", "product", "created_at DESC"),
		installers:  newTable[models.Installer, models.InstallerInput, models.InstallerPatch](c, "installers", "installer", "created_at DESC"),
		invoices:    newTable[models.Invoice, models.InvoiceInput, models.InvoicePatch](c, "invoices", "invoice", "created_at DESC"),
		payments:    newChildTable[models.Payment, models.PaymentInput, models.PaymentPatch](c, "payments", "payment", "created_at DESC", "invoice", "invoice_id"),
		attachments: files,
	}
}

func (b *Backend) Customers() storage.CustomerRepository         { return b.customers }
func (b *Backend) Leads() storage.LeadRepository                 { return b.leads }
func (b *Backend) LeadCalls() storage.LeadCallRepository         { return b.leadCalls }
func (b *Backend) CallFollowUps() storage.CallFollowUpRepository { return b.callFollowUps }
func (b *Backend) ServiceJobs() storage.ServiceJobRepository     { return b.serviceJobs }
func (b *Backend) Requirements() storage.RequirementRepository   { return b.requirements }
func (b *Backend) Quotes() storage.QuoteRepository               { return b.quotes }
func (b *Backend) QuoteItems() storage.QuoteItemRepository       { return b.quoteItems }
func (b *Backend) Products() storage.ProductRepository           { return b.products }
func (b *Backend) Installers() storage.InstallerRepository       { return b.installers }
func (b *Backend) Invoices() storage.InvoiceRepository           { return b.invoices }
func (b *Backend) Payments() storage.PaymentRepository           { return b.payments }
func (b *Backend) Attachments() storage.AttachmentRepository     { return b.attachments }

// IsAdmin reports whether the email of the caller in ctx is on the admin allowlist.
func (b *Backend) IsAdmin(ctx context.Context) (admin bool, err error) {
	ctx, span := tracing.StartSpan(ctx, "postgres.IsAdmin")
	defer func() { tracing.EndSpan(span, err) }()

	email := strings.TrimSpace(appcontext.GetEmail(ctx))
	if email == "" {
		return false, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select("COUNT(*) > 0").From("admin_allowlist").Where(sb.Equal("lower(email)", strings.ToLower(email)))
	query, args := sb.Build()

	if err = b.db.GetContext(ctx, &admin, query, args...); err != nil {
		return false, b.fail(ctx, err, "check admin status", "user", email)
	}
	return admin, nil
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *Backend) Close() error {
	return b.db.Close()
}

var _ storage.Store = (*Backend)(nil)
