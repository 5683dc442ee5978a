// Package seed loads the demo data set into an empty store.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/storage"
)

//go:embed seed.yaml
var fixture []byte

type comment struct {
	Text   string `yaml:"text"`
	Author string `yaml:"author"`
}

type customer struct {
	Key     string `yaml:"key"`
	Name    string `yaml:"name"`
	Email   string `yaml:"email"`
	Phone   string `yaml:"phone"`
	Address string `yaml:"address"`
}

type leadCall struct {
	Notes   string `yaml:"notes"`
	Outcome string `yaml:"outcome"`
}

type lead struct {
	Name           string            `yaml:"name"`
	Email          string            `yaml:"email"`
	Phone          string            `yaml:"phone"`
	Source         string            `yaml:"source"`
	Status         models.LeadStatus `yaml:"status"`
	Notes          string            `yaml:"notes"`
	NextFollowUpIn *time.Duration    `yaml:"next_follow_up_in"`
	Calls          []leadCall        `yaml:"calls"`
}

type callFollowUp struct {
	CallerName      string            `yaml:"caller_name"`
	CallerNumber    string            `yaml:"caller_number"`
	PersonToContact string            `yaml:"person_to_contact"`
	Operator        string            `yaml:"operator"`
	Priority        models.Priority   `yaml:"priority"`
	Notes           string            `yaml:"notes"`
	Status          models.CallStatus `yaml:"status"`
	AssignedTo      string            `yaml:"assigned_to"`
	At              time.Duration     `yaml:"at"`
	ResponseTime    *string           `yaml:"response_time"`
	CallOutcome     *string           `yaml:"call_outcome"`
	TimeToRespond   *string           `yaml:"time_to_respond"`
}

type serviceJob struct {
	ModelName          string                  `yaml:"modal_name"`
	RegistrationNumber string                  `yaml:"modal_registration_number"`
	CustomerName       string                  `yaml:"customer_name"`
	CustomerNumber     string                  `yaml:"customer_number"`
	Description        string                  `yaml:"description"`
	Status             models.ServiceJobStatus `yaml:"status"`
	ScheduledIn        time.Duration           `yaml:"scheduled_in"`
	CompletedIn        *time.Duration          `yaml:"completed_in"`
	Comments           []comment               `yaml:"comments"`
}

type product struct {
	Key         string          `yaml:"key"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Price       decimal.Decimal `yaml:"price"`
	Category    string          `yaml:"category"`
}

type quoteItem struct {
	Product   string          `yaml:"product"`
	Quantity  int             `yaml:"quantity"`
	UnitPrice decimal.Decimal `yaml:"unit_price"`
}

type quote struct {
	Customer    string             `yaml:"customer"`
	TotalAmount decimal.Decimal    `yaml:"total_amount"`
	Status      models.QuoteStatus `yaml:"status"`
	ValidFor    time.Duration      `yaml:"valid_for"`
	Items       []quoteItem        `yaml:"items"`
}

type invoice struct {
	Customer string               `yaml:"customer"`
	Amount   decimal.Decimal      `yaml:"amount"`
	Status   models.InvoiceStatus `yaml:"status"`
	DueIn    time.Duration        `yaml:"due_in"`
}

type installer struct {
	Name        string   `yaml:"name"`
	Email       string   `yaml:"email"`
	Phone       string   `yaml:"phone"`
	Specialties []string `yaml:"specialties"`
}

type requirement struct {
	CustomerName   string                   `yaml:"customer_name"`
	CustomerNumber string                   `yaml:"customer_number"`
	Description    string                   `yaml:"description"`
	Priority       models.Priority          `yaml:"priority"`
	Status         models.RequirementStatus `yaml:"status"`
	Comments       []comment                `yaml:"comments"`
}

// DataSet is the parsed fixture.
type DataSet struct {
	Customers     []customer     `yaml:"customers"`
	Leads         []lead         `yaml:"leads"`
	CallFollowUps []callFollowUp `yaml:"call_follow_ups"`
	ServiceJobs   []serviceJob   `yaml:"service_jobs"`
	Products      []product      `yaml:"products"`
	Quotes        []quote        `yaml:"quotes"`
	Invoices      []invoice      `yaml:"invoices"`
	Installers    []installer    `yaml:"installers"`
	Requirements  []requirement  `yaml:"requirements"`
}

// Demo parses the embedded demo data set.
func Demo() (*DataSet, error) {
	return Parse(fixture)
}

func Parse(data []byte) (*DataSet, error) {
	var set DataSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}
	return &set, nil
}

// Seeder writes a DataSet through the storage contract.
type Seeder struct {
	store  storage.Store
	logger ectologger.Logger
	now    func() time.Time
}

func NewSeeder(store storage.Store, logger ectologger.Logger) *Seeder {
	return &Seeder{store: store, logger: logger, now: models.Now}
}

// Seed inserts the demo data set unless the store already holds customers. It reports whether
// anything was written.
func (s *Seeder) Seed(ctx context.Context) (bool, error) {
	set, err := Demo()
	if err != nil {
		return false, err
	}
	return s.Load(ctx, set)
}

func (s *Seeder) Load(ctx context.Context, set *DataSet) (bool, error) {
	existing, err := s.store.Customers().List(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		s.logger.WithContext(ctx).Info("Data already exists, skipping seed")
		return false, nil
	}

	s.logger.WithContext(ctx).Info("Seeding demo data")
	w := &writer{ctx: ctx, store: s.store, now: s.now()}
	steps := []func(*DataSet) error{
		w.customers,
		w.leads,
		w.callFollowUps,
		w.serviceJobs,
		w.products,
		w.quotes,
		w.invoices,
		w.installers,
		w.requirements,
	}
	for _, step := range steps {
		if err := step(set); err != nil {
			s.logger.WithContext(ctx).WithError(err).Error("Failed to seed demo data")
			return false, err
		}
	}

	s.logger.WithContext(ctx).Info("Seed data created successfully")
	return true, nil
}

type writer struct {
	ctx      context.Context
	store    storage.Store
	now      time.Time
	customer map[string]string
	product  map[string]string
}

func (w *writer) at(offset time.Duration) time.Time {
	return w.now.Add(offset)
}

func (w *writer) atPtr(offset *time.Duration) *time.Time {
	if offset == nil {
		return nil
	}
	t := w.at(*offset)
	return &t
}

func lookup(ids map[string]string, kind, key string) (string, error) {
	id, ok := ids[key]
	if !ok {
		return "", fmt.Errorf("seed data references unknown %s %q", kind, key)
	}
	return id, nil
}

func (w *writer) customers(set *DataSet) error {
	w.customer = make(map[string]string, len(set.Customers))
	for _, c := range set.Customers {
		created, err := w.store.Customers().Create(w.ctx, models.CustomerInput{
			Name:    c.Name,
			Email:   c.Email,
			Phone:   c.Phone,
			Address: c.Address,
		})
		if err != nil {
			return err
		}
		w.customer[c.Key] = created.ID
	}
	return nil
}

func (w *writer) leads(set *DataSet) error {
	for _, l := range set.Leads {
		created, err := w.store.Leads().Create(w.ctx, models.LeadInput{
			Name:           l.Name,
			Email:          l.Email,
			Phone:          l.Phone,
			Source:         l.Source,
			Status:         l.Status,
			Notes:          l.Notes,
			NextFollowUpAt: w.atPtr(l.NextFollowUpIn),
		})
		if err != nil {
			return err
		}
		for _, call := range l.Calls {
			input := models.LeadCallInput{Notes: call.Notes, Outcome: call.Outcome}.ForParent(created.ID)
			if _, err := w.store.LeadCalls().Create(w.ctx, input); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *writer) callFollowUps(set *DataSet) error {
	for _, c := range set.CallFollowUps {
		at := w.at(c.At)
		_, err := w.store.CallFollowUps().Create(w.ctx, models.CallFollowUpInput{
			CallerName:      c.CallerName,
			CallerNumber:    c.CallerNumber,
			PersonToContact: c.PersonToContact,
			Operator:        c.Operator,
			Priority:        c.Priority,
			Notes:           c.Notes,
			Status:          c.Status,
			AssignedTo:      c.AssignedTo,
			Timestamp:       &at,
			ResponseTime:    c.ResponseTime,
			CallOutcome:     c.CallOutcome,
			TimeToRespond:   c.TimeToRespond,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) serviceJobs(set *DataSet) error {
	for _, j := range set.ServiceJobs {
		created, err := w.store.ServiceJobs().Create(w.ctx, models.ServiceJobInput{
			ModelName:          j.ModelName,
			RegistrationNumber: j.RegistrationNumber,
			CustomerName:       j.CustomerName,
			CustomerNumber:     j.CustomerNumber,
			Description:        j.Description,
			Status:             j.Status,
			ScheduledAt:        w.at(j.ScheduledIn),
			CompletedAt:        w.atPtr(j.CompletedIn),
		})
		if err != nil {
			return err
		}
		if err := addComments(w.ctx, w.store.ServiceJobs(), created.ID, j.Comments); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) products(set *DataSet) error {
	w.product = make(map[string]string, len(set.Products))
	for _, p := range set.Products {
		created, err := w.store.Products().Create(w.ctx, models.ProductInput{
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Category:    p.Category,
		})
		if err != nil {
			return err
		}
		w.product[p.Key] = created.ID
	}
	return nil
}

func (w *writer) quotes(set *DataSet) error {
	for _, q := range set.Quotes {
		customerID, err := lookup(w.customer, "customer", q.Customer)
		if err != nil {
			return err
		}
		created, err := w.store.Quotes().Create(w.ctx, models.QuoteInput{
			CustomerID:  customerID,
			TotalAmount: q.TotalAmount,
			Status:      q.Status,
			ValidUntil:  w.at(q.ValidFor),
		})
		if err != nil {
			return err
		}
		for _, item := range q.Items {
			productID, err := lookup(w.product, "product", item.Product)
			if err != nil {
				return err
			}
			input := models.QuoteItemInput{
				ProductID: productID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			}.ForParent(created.ID)
			if _, err := w.store.QuoteItems().Create(w.ctx, input); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *writer) invoices(set *DataSet) error {
	for _, inv := range set.Invoices {
		customerID, err := lookup(w.customer, "customer", inv.Customer)
		if err != nil {
			return err
		}
		_, err = w.store.Invoices().Create(w.ctx, models.InvoiceInput{
			CustomerID: customerID,
			Amount:     inv.Amount,
			Status:     inv.Status,
			DueDate:    w.at(inv.DueIn),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) installers(set *DataSet) error {
	for _, i := range set.Installers {
		_, err := w.store.Installers().Create(w.ctx, models.InstallerInput{
			Name:        i.Name,
			Email:       i.Email,
			Phone:       i.Phone,
			Specialties: i.Specialties,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) requirements(set *DataSet) error {
	for _, r := range set.Requirements {
		created, err := w.store.Requirements().Create(w.ctx, models.RequirementInput{
			CustomerName:   r.CustomerName,
			CustomerNumber: r.CustomerNumber,
			Description:    r.Description,
			Priority:       r.Priority,
			Status:         r.Status,
		})
		if err != nil {
			return err
		}
		if err := addComments(w.ctx, w.store.Requirements(), created.ID, r.Comments); err != nil {
			return err
		}
	}
	return nil
}

func addComments(ctx context.Context, repo storage.CommentRepository, parentID string, comments []comment) error {
	for _, c := range comments {
		if _, err := repo.AddComment(ctx, parentID, models.CommentInput{Text: c.Text, Author: c.Author}); err != nil {
			return err
		}
	}
	return nil
}
