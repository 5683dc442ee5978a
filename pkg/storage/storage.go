// Package storage defines the contract every persistence backend implements.
// Callers hold a single Store built once at startup and never learn which backend is behind it.
package storage

import (
	"context"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Repository is the CRUD surface of a top-level collection.
// Get returns (nil, nil) when the id does not exist. Update on a missing id returns a
// NotFound error and writes nothing. Delete of a missing id is a no-op.
type Repository[T any, I any, P any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, input I) (*T, error)
	Update(ctx context.Context, id string, patch P) (*T, error)
	Delete(ctx context.Context, id string) error
}

// ChildRepository is a collection whose rows are listed through their parent.
type ChildRepository[T any, I any, P any] interface {
	ListFor(ctx context.Context, parentID string) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, input I) (*T, error)
	Update(ctx context.Context, id string, patch P) (*T, error)
	Delete(ctx context.Context, id string) error
}

// CommentRepository manages the comments owned by a service job or requirement.
type CommentRepository interface {
	ListComments(ctx context.Context, parentID string) ([]models.Comment, error)
	AddComment(ctx context.Context, parentID string, input models.CommentInput) (*models.Comment, error)
	UpdateComment(ctx context.Context, parentID, commentID string, patch models.CommentPatch) (*models.Comment, error)
	DeleteComment(ctx context.Context, parentID, commentID string) error
}

// AttachmentRepository stores file blobs alongside their metadata rows.
type AttachmentRepository interface {
	Upload(ctx context.Context, upload models.AttachmentUpload) (*models.Attachment, error)
	List(ctx context.Context, entityType models.EntityType, entityID string) ([]models.Attachment, error)
	Delete(ctx context.Context, id string) error
}

type (
	CustomerRepository     = Repository[models.Customer, models.CustomerInput, models.CustomerPatch]
	LeadRepository         = Repository[models.Lead, models.LeadInput, models.LeadPatch]
	LeadCallRepository     = ChildRepository[models.LeadCall, models.LeadCallInput, models.LeadCallPatch]
	CallFollowUpRepository = Repository[models.CallFollowUp, models.CallFollowUpInput, models.CallFollowUpPatch]
	QuoteRepository        = Repository[models.Quote, models.QuoteInput, models.QuotePatch]
	QuoteItemRepository    = ChildRepository[models.QuoteItem, models.QuoteItemInput, models.QuoteItemPatch]
	ProductRepository      = Repository[models.Product, models.ProductInput, models.ProductPatch]
	InstallerRepository    = Repository[models.Installer, models.InstallerInput, models.InstallerPatch]
	InvoiceRepository      = Repository[models.Invoice, models.InvoiceInput, models.InvoicePatch]
	PaymentRepository      = ChildRepository[models.Payment, models.PaymentInput, models.PaymentPatch]
)

type ServiceJobRepository interface {
	Repository[models.ServiceJob, models.ServiceJobInput, models.ServiceJobPatch]
	CommentRepository
}

type RequirementRepository interface {
	Repository[models.Requirement, models.RequirementInput, models.RequirementPatch]
	CommentRepository
}

// Store is the full storage contract.
type Store interface {
	Customers() CustomerRepository
	Leads() LeadRepository
	LeadCalls() LeadCallRepository
	CallFollowUps() CallFollowUpRepository
	ServiceJobs() ServiceJobRepository
	Requirements() RequirementRepository
	Quotes() QuoteRepository
	QuoteItems() QuoteItemRepository
	Products() ProductRepository
	Installers() InstallerRepository
	Invoices() InvoiceRepository
	Payments() PaymentRepository
	Attachments() AttachmentRepository

	// IsAdmin reports whether the caller in ctx may use administrative features.
	IsAdmin(ctx context.Context) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// Clearer is implemented by stores that can wipe everything they hold.
type Clearer interface {
	Clear(ctx context.Context) error
}
