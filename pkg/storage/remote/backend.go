// Package remote implements the storage contract against a hosted PostgREST database and its
// object storage service.
package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/httpclient"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/storage"
)

const (
	DefaultBucket       = "attachments"
	DefaultSignedURLTTL = time.Hour
)

type Config struct {
	URL          string
	AnonKey      string
	Bucket       string
	SignedURLTTL time.Duration
	Timeout      time.Duration
}

var nestedVirtual = []string{"attachments", "comments"}

type Backend struct {
	api     *api
	objects *ObjectStore

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

func newTable[T any, I models.Input[T], P any, PT models.RecordPtr[T]](a *api, name, entity, order string, virtual ...string) *table[T, I, P, PT] {
	return &table[T, I, P, PT]{api: a, name: name, entity: entity, order: order, virtual: virtual}
}

func newChildTable[T any, I models.Input[T], P any, PT models.ChildPtr[T]](a *api, name, entity, order, parent, parentColumn string) *childTable[T, I, P, PT] {
	return &childTable[T, I, P, PT]{
		table:        newTable[T, I, P, PT](a, name, entity, order),
		parent:       parent,
		parentColumn: parentColumn,
	}
}

func New(cfg Config, logger ectologger.Logger) *Backend {
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = DefaultSignedURLTTL
	}
	clientCfg := httpclient.DefaultConfig()
	if cfg.Timeout > 0 {
		clientCfg.Timeout = cfg.Timeout
	}

	a := &api{
		client:  httpclient.NewClient(clientCfg, logger),
		baseURL: cfg.URL,
		anonKey: cfg.AnonKey,
		logger:  logger,
	}
	objects := &ObjectStore{api: a, bucket: cfg.Bucket, ttl: cfg.SignedURLTTL}
	files := &attachments{api: a, objects: objects}

	return &Backend{
		api:           a,
		objects:       objects,
		customers:     newTable[models.Customer, models.CustomerInput, models.CustomerPatch](a, "customers", "customer", "created_at.desc"),
		leads:         newTable[models.Lead, models.LeadInput, models.LeadPatch](a, "leads", "lead", "created_at.desc"),
		leadCalls:     newChildTable[models.LeadCall, models.LeadCallInput, models.LeadCallPatch](a, "lead_calls", "lead call", "created_at.desc", "lead", "lead_id"),
		callFollowUps: newTable[models.CallFollowUp, models.CallFollowUpInput, models.CallFollowUpPatch](a, "call_followups", "call follow-up", "timestamp.desc"),
		serviceJobs: &nested[models.ServiceJob, models.ServiceJobInput, models.ServiceJobPatch, *models.ServiceJob]{
			table:         newTable[models.ServiceJob, models.ServiceJobInput, models.ServiceJobPatch](a, "service_jobs", "service job", "scheduled_at.asc", nestedVirtual...),
			objects:       objects,
			attachments:   files,
			entityType:    models.EntityTypeServiceJob,
			commentTable:  "service_job_comments",
			commentColumn: "service_job_id",
		},
		requirements: &nested[models.Requirement, models.RequirementInput, models.RequirementPatch, *models.Requirement]{
			table:         newTable[models.Requirement, models.RequirementInput, models.RequirementPatch](a, "requirements", "requirement", "created_at.desc", nestedVirtual...),
			objects:       objects,
			attachments:   files,
			entityType:    models.EntityTypeRequirement,
			commentTable:  "requirement_comments",
			commentColumn: "requirement_id",
		},
		quotes:      newTable[models.Quote, models.QuoteInput, models.QuotePatch](a, "quotes", "quote", "created_at.desc"),
		quoteItems:  newChildTable[models.QuoteItem, models.QuoteItemInput, models.QuoteItemPatch](a, "quote_items", "quote item", "id.asc", "quote", "quote_id"),
		products:    newTable[models.Product, models.ProductInput, models.ProductPatch](a, "products", "product", "created_at.desc"),
		installers:  newTable[models.Installer, models.InstallerInput, models.InstallerPatch](a, "installers", "installer", "created_at.desc"),
		invoices:    newTable[models.Invoice, models.InvoiceInput, models.InvoicePatch](a, "invoices", "invoice", "created_at.desc"),
		payments:    newChildTable[models.Payment, models.PaymentInput, models.PaymentPatch](a, "payments", "payment", "created_at.desc", "invoice", "invoice_id"),
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

// Objects returns the bucket the backend stores attachment blobs in.
func (b *Backend) Objects() *ObjectStore {
	return b.objects
}

// IsAdmin asks the is_admin procedure about the caller whose token is in ctx.
func (b *Backend) IsAdmin(ctx context.Context) (bool, error) {
	resp, err := b.api.do(ctx, http.MethodPost, "/rest/v1/rpc/is_admin", nil, strings.NewReader("{}"), map[string]string{"Content-Type": "application/json"})
	if err != nil {
		return false, b.api.fail(ctx, err, "check admin status", "user", "")
	}

	var admin bool
	if err := json.Unmarshal(resp.Body, &admin); err != nil {
		b.api.logger.WithContext(ctx).WithError(err).Warn("Unexpected is_admin response")
		return false, nil
	}
	return admin, nil
}

// Ping checks that the REST endpoint answers with the configured key.
func (b *Backend) Ping(ctx context.Context) error {
	_, err := b.api.do(ctx, http.MethodGet, "/rest/v1/", nil, nil, nil)
	return err
}

func (b *Backend) Close() error {
	return nil
}

var _ storage.Store = (*Backend)(nil)
