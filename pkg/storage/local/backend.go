// Package local implements the storage contract on top of a key-value store.
// Each collection is a single JSON array; writes are version-checked and retried.
package local

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kv"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/storage"
)

const (
	DefaultPrefix           = "rs-car-accessories"
	DefaultMaxWriteAttempts = 5
)

type Config struct {
	Prefix           string
	MaxWriteAttempts int
}

type Backend struct {
	store    kv.Store
	objects  storage.ObjectStore
	logger   ectologger.Logger
	prefix   string
	attempts int

	customers     *repository[models.Customer, models.CustomerInput, models.CustomerPatch, *models.Customer]
	leads         *repository[models.Lead, models.LeadInput, models.LeadPatch, *models.Lead]
	leadCalls     *children[models.LeadCall, models.LeadCallInput, models.LeadCallPatch, *models.LeadCall]
	callFollowUps *repository[models.CallFollowUp, models.CallFollowUpInput, models.CallFollowUpPatch, *models.CallFollowUp]
	serviceJobs   *nested[models.ServiceJob, models.ServiceJobInput, models.ServiceJobPatch, *models.ServiceJob]
	requirements  *nested[models.Requirement, models.RequirementInput, models.RequirementPatch, *models.Requirement]
	quotes        *repository[models.Quote, models.QuoteInput, models.QuotePatch, *models.Quote]
	quoteItems    *children[models.QuoteItem, models.QuoteItemInput, models.QuoteItemPatch, *models.QuoteItem]
	products      *repository[models.Product, models.ProductInput, models.ProductPatch, *models.Product]
	installers    *repository[models.Installer, models.InstallerInput, models.InstallerPatch, *models.Installer]
	invoices      *repository[models.Invoice, models.InvoiceInput, models.InvoicePatch, *models.Invoice]
	payments      *children[models.Payment, models.PaymentInput, models.PaymentPatch, *models.Payment]
	attachments   *attachments
}

// New builds a backend over store. Blobs go to objects, which is usually an ObjectStore
// over the same key-value store.
func New(store kv.Store, objects storage.ObjectStore, cfg Config, logger ectologger.Logger) *Backend {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.MaxWriteAttempts < 1 {
		cfg.MaxWriteAttempts = DefaultMaxWriteAttempts
	}

	b := &Backend{
		store:    store,
		objects:  objects,
		logger:   logger,
		prefix:   cfg.Prefix,
		attempts: cfg.MaxWriteAttempts,
	}
	b.customers = newRepository[models.Customer, models.CustomerInput, models.CustomerPatch](b, "customers", "customer")
	b.leads = newRepository[models.Lead, models.LeadInput, models.LeadPatch](b, "leads", "lead")
	b.leadCalls = newChildren[models.LeadCall, models.LeadCallInput, models.LeadCallPatch](b, "leadCalls", "lead call")
	b.callFollowUps = newRepository[models.CallFollowUp, models.CallFollowUpInput, models.CallFollowUpPatch](b, "callFollowUps", "call follow-up")
	b.serviceJobs = newNested[models.ServiceJob, models.ServiceJobInput, models.ServiceJobPatch](b, "serviceJobs", "service job", models.EntityTypeServiceJob)
	b.requirements = newNested[models.Requirement, models.RequirementInput, models.RequirementPatch](b, "requirements", "requirement", models.EntityTypeRequirement)
	b.quotes = newRepository[models.Quote, models.QuoteInput, models.QuotePatch](b, "quotes", "quote")
	b.quoteItems = newChildren[models.QuoteItem, models.QuoteItemInput, models.QuoteItemPatch](b, "quoteItems", "quote item")
	b.products = newRepository[models.Product, models.ProductInput, models.ProductPatch](b, "products", "product")
	b.installers = newRepository[models.Installer, models.InstallerInput, models.InstallerPatch](b, "installers", "installer")
	b.invoices = newRepository[models.Invoice, models.InvoiceInput, models.InvoicePatch](b, "invoices", "invoice")
	b.payments = newChildren[models.Payment, models.PaymentInput, models.PaymentPatch](b, "payments", "payment")
	b.attachments = &attachments{collection: newCollection[models.Attachment](b, "attachments", "attachment")}
	return b
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

// IsAdmin is always true: the local backend is the single-user demo mode.
func (b *Backend) IsAdmin(context.Context) (bool, error) {
	return true, nil
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.store.Ping(ctx)
}

func (b *Backend) Close() error {
	return b.store.Close()
}

// Clear removes every key under the prefix, blobs included.
func (b *Backend) Clear(ctx context.Context) error {
	keys, err := b.store.Keys(ctx, b.prefix+"-")
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := b.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to clear local data: %w", err)
	}

	b.logger.WithContext(ctx).WithField("keys", len(keys)).Info("Cleared local data")
	return nil
}

var (
	_ storage.Store   = (*Backend)(nil)
	_ storage.Clearer = (*Backend)(nil)
)
