package storage

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Change describes a successful mutation.
type Change struct {
	Action     Action
	Entity     string
	ID         string
	Data       any
	OccurredAt time.Time
}

// Publisher receives changes after they are persisted.
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

// Hooks configures Observe.
type Hooks struct {
	Backend   string
	Publisher Publisher
	Logger    ectologger.Logger
}

type observer struct {
	Hooks
}

// Observe wraps store so every call is traced and measured and every successful
// mutation is handed to hooks.Publisher. Results and errors pass through untouched.
func Observe(store Store, hooks Hooks) Store {
	o := &observer{Hooks: hooks}
	return &observedStore{
		inner:         store,
		o:             o,
		customers:     observeRepository(store.Customers(), "customer", o),
		leads:         observeRepository(store.Leads(), "lead", o),
		leadCalls:     observeChildren(store.LeadCalls(), "lead_call", o),
		callFollowUps: observeRepository(store.CallFollowUps(), "call_follow_up", o),
		serviceJobs: &observedServiceJobs{
			observedRepository: observeRepository[models.ServiceJob, models.ServiceJobInput, models.ServiceJobPatch](store.ServiceJobs(), "service_job", o),
			observedComments:   observedComments{inner: store.ServiceJobs(), entity: "service_job_comment", o: o},
		},
		requirements: &observedRequirements{
			observedRepository: observeRepository[models.Requirement, models.RequirementInput, models.RequirementPatch](store.Requirements(), "requirement", o),
			observedComments:   observedComments{inner: store.Requirements(), entity: "requirement_comment", o: o},
		},
		quotes:      observeRepository(store.Quotes(), "quote", o),
		quoteItems:  observeChildren(store.QuoteItems(), "quote_item", o),
		products:    observeRepository(store.Products(), "product", o),
		installers:  observeRepository(store.Installers(), "installer", o),
		invoices:    observeRepository(store.Invoices(), "invoice", o),
		payments:    observeChildren(store.Payments(), "payment", o),
		attachments: &observedAttachments{inner: store.Attachments(), o: o},
	}
}

func (o *observer) begin(ctx context.Context, entity, operation string) (context.Context, func(error)) {
	ctx, span := tracing.StartSpan(ctx, "store."+entity+"."+operation)
	start := time.Now()

	return ctx, func(err error) {
		status := "ok"
		switch {
		case IsNotFound(err):
			status = "not_found"
		case err != nil:
			status = "error"
		}
		metrics.StorageOperationsTotal.WithLabelValues(o.Backend, entity, operation, status).Inc()
		metrics.StorageOperationDuration.WithLabelValues(o.Backend, entity, operation).Observe(time.Since(start).Seconds())
		tracing.EndSpan(span, err)
	}
}

func (o *observer) publish(ctx context.Context, action Action, entity, id string, data any) {
	if o.Publisher == nil {
		return
	}

	change := Change{Action: action, Entity: entity, ID: id, Data: data, OccurredAt: models.Now()}
	if err := o.Publisher.Publish(ctx, change); err != nil {
		o.Logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"entity": entity,
			"id":     id,
			"action": action,
		}).Warn("Failed to publish change")
	}
}

func recordID(v any) string {
	if r, ok := v.(models.Record); ok {
		return r.GetID()
	}
	return ""
}

// crud is the part of Repository and ChildRepository that addresses rows by id.
type crud[T any, I any, P any] interface {
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, input I) (*T, error)
	Update(ctx context.Context, id string, patch P) (*T, error)
	Delete(ctx context.Context, id string) error
}

type observedCRUD[T any, I any, P any] struct {
	inner  crud[T, I, P]
	entity string
	o      *observer
}

func (r *observedCRUD[T, I, P]) Get(ctx context.Context, id string) (out *T, err error) {
	ctx, done := r.o.begin(ctx, r.entity, "get")
	defer func() { done(err) }()
	return r.inner.Get(ctx, id)
}

func (r *observedCRUD[T, I, P]) Create(ctx context.Context, input I) (out *T, err error) {
	ctx, done := r.o.begin(ctx, r.entity, "create")
	defer func() { done(err) }()

	out, err = r.inner.Create(ctx, input)
	if err == nil {
		r.o.publish(ctx, ActionCreated, r.entity, recordID(out), out)
	}
	return out, err
}

func (r *observedCRUD[T, I, P]) Update(ctx context.Context, id string, patch P) (out *T, err error) {
	ctx, done := r.o.begin(ctx, r.entity, "update")
	defer func() { done(err) }()

	out, err = r.inner.Update(ctx, id, patch)
	if err == nil {
		r.o.publish(ctx, ActionUpdated, r.entity, id, out)
	}
	return out, err
}

func (r *observedCRUD[T, I, P]) Delete(ctx context.Context, id string) (err error) {
	ctx, done := r.o.begin(ctx, r.entity, "delete")
	defer func() { done(err) }()

	err = r.inner.Delete(ctx, id)
	if err == nil {
		r.o.publish(ctx, ActionDeleted, r.entity, id, nil)
	}
	return err
}

type observedRepository[T any, I any, P any] struct {
	*observedCRUD[T, I, P]
	list func(ctx context.Context) ([]T, error)
}

func observeRepository[T any, I any, P any](inner Repository[T, I, P], entity string, o *observer) *observedRepository[T, I, P] {
	return &observedRepository[T, I, P]{
		observedCRUD: &observedCRUD[T, I, P]{inner: inner, entity: entity, o: o},
		list:         inner.List,
	}
}

func (r *observedRepository[T, I, P]) List(ctx context.Context) (out []T, err error) {
	ctx, done := r.o.begin(ctx, r.entity, "list")
	defer func() { done(err) }()
	return r.list(ctx)
}

type observedChildren[T any, I any, P any] struct {
	*observedCRUD[T, I, P]
	listFor func(ctx context.Context, parentID string) ([]T, error)
}

func observeChildren[T any, I any, P any](inner ChildRepository[T, I, P], entity string, o *observer) *observedChildren[T, I, P] {
	return &observedChildren[T, I, P]{
		observedCRUD: &observedCRUD[T, I, P]{inner: inner, entity: entity, o: o},
		listFor:      inner.ListFor,
	}
}

func (r *observedChildren[T, I, P]) ListFor(ctx context.Context, parentID string) (out []T, err error) {
	ctx, done := r.o.begin(ctx, r.entity, "list")
	defer func() { done(err) }()
	return r.listFor(ctx, parentID)
}

type observedComments struct {
	inner  CommentRepository
	entity string
	o      *observer
}

func (c observedComments) ListComments(ctx context.Context, parentID string) (out []models.Comment, err error) {
	ctx, done := c.o.begin(ctx, c.entity, "list")
	defer func() { done(err) }()
	return c.inner.ListComments(ctx, parentID)
}

func (c observedComments) AddComment(ctx context.Context, parentID string, input models.CommentInput) (out *models.Comment, err error) {
	ctx, done := c.o.begin(ctx, c.entity, "create")
	defer func() { done(err) }()

	out, err = c.inner.AddComment(ctx, parentID, input)
	if err == nil {
		c.o.publish(ctx, ActionCreated, c.entity, out.ID, out)
	}
	return out, err
}

func (c observedComments) UpdateComment(ctx context.Context, parentID, commentID string, patch models.CommentPatch) (out *models.Comment, err error) {
	ctx, done := c.o.begin(ctx, c.entity, "update")
	defer func() { done(err) }()

	out, err = c.inner.UpdateComment(ctx, parentID, commentID, patch)
	if err == nil {
		c.o.publish(ctx, ActionUpdated, c.entity, commentID, out)
	}
	return out, err
}

func (c observedComments) DeleteComment(ctx context.Context, parentID, commentID string) (err error) {
	ctx, done := c.o.begin(ctx, c.entity, "delete")
	defer func() { done(err) }()

	err = c.inner.DeleteComment(ctx, parentID, commentID)
	if err == nil {
		c.o.publish(ctx, ActionDeleted, c.entity, commentID, nil)
	}
	return err
}

type observedServiceJobs struct {
	*observedRepository[models.ServiceJob, models.ServiceJobInput, models.ServiceJobPatch]
	observedComments
}

type observedRequirements struct {
	*observedRepository[models.Requirement, models.RequirementInput, models.RequirementPatch]
	observedComments
}

type observedAttachments struct {
	inner AttachmentRepository
	o     *observer
}

func (a *observedAttachments) Upload(ctx context.Context, upload models.AttachmentUpload) (out *models.Attachment, err error) {
	ctx, done := a.o.begin(ctx, "attachment", "create")
	defer func() { done(err) }()

	out, err = a.inner.Upload(ctx, upload)
	if err == nil {
		a.o.publish(ctx, ActionCreated, "attachment", out.ID, out)
	}
	return out, err
}

func (a *observedAttachments) List(ctx context.Context, entityType models.EntityType, entityID string) (out []models.Attachment, err error) {
	ctx, done := a.o.begin(ctx, "attachment", "list")
	defer func() { done(err) }()
	return a.inner.List(ctx, entityType, entityID)
}

func (a *observedAttachments) Delete(ctx context.Context, id string) (err error) {
	ctx, done := a.o.begin(ctx, "attachment", "delete")
	defer func() { done(err) }()

	err = a.inner.Delete(ctx, id)
	if err == nil {
		a.o.publish(ctx, ActionDeleted, "attachment", id, nil)
	}
	return err
}

type observedStore struct {
	inner         Store
	o             *observer
	customers     CustomerRepository
	leads         LeadRepository
	leadCalls     LeadCallRepository
	callFollowUps CallFollowUpRepository
	serviceJobs   ServiceJobRepository
	requirements  RequirementRepository
	quotes        QuoteRepository
	quoteItems    QuoteItemRepository
	products      ProductRepository
	installers    InstallerRepository
	invoices      InvoiceRepository
	payments      PaymentRepository
	attachments   AttachmentRepository
}

func (s *observedStore) Customers() CustomerRepository         { return s.customers }
func (s *observedStore) Leads() LeadRepository                 { return s.leads }
func (s *observedStore) LeadCalls() LeadCallRepository         { return s.leadCalls }
func (s *observedStore) CallFollowUps() CallFollowUpRepository { return s.callFollowUps }
func (s *observedStore) ServiceJobs() ServiceJobRepository     { return s.serviceJobs }
func (s *observedStore) Requirements() RequirementRepository   { return s.requirements }
func (s *observedStore) Quotes() QuoteRepository               { return s.quotes }
func (s *observedStore) QuoteItems() QuoteItemRepository       { return s.quoteItems }
func (s *observedStore) Products() ProductRepository           { return s.products }
func (s *observedStore) Installers() InstallerRepository       { return s.installers }
func (s *observedStore) Invoices() InvoiceRepository           { return s.invoices }
func (s *observedStore) Payments() PaymentRepository           { return s.payments }
func (s *observedStore) Attachments() AttachmentRepository     { return s.attachments }

func (s *observedStore) IsAdmin(ctx context.Context) (ok bool, err error) {
	ctx, done := s.o.begin(ctx, "admin", "check")
	defer func() { done(err) }()
	return s.inner.IsAdmin(ctx)
}

func (s *observedStore) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

func (s *observedStore) Close() error {
	return s.inner.Close()
}

// Clear forwards to the wrapped store when it supports clearing.
func (s *observedStore) Clear(ctx context.Context) (err error) {
	clearer, ok := s.inner.(Clearer)
	if !ok {
		return ErrClearUnsupported
	}

	ctx, done := s.o.begin(ctx, "store", "clear")
	defer func() { done(err) }()
	return clearer.Clear(ctx)
}

// Unwrap returns the decorated store.
func (s *observedStore) Unwrap() Store {
	return s.inner
}
