package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/expressions"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/storage"
)

// RouteRegistrar is implemented by every handler in this package
type RouteRegistrar interface {
	RegisterRoutes(g *echo.Group)
}

// Handlers builds the handler for every authenticated API route backed by store.
func Handlers(store storage.Store, logger ectologger.Logger) []RouteRegistrar {
	evaluator := expressions.NewEvaluator()

	return []RouteRegistrar{
		NewResourceHandler("/customers", "customer", store.Customers(), evaluator),
		NewResourceHandler("/leads", "lead", store.Leads(), evaluator),
		NewResourceHandler("/call-follow-ups", "call follow-up", store.CallFollowUps(), evaluator),
		NewResourceHandler[models.ServiceJob, models.ServiceJobInput, models.ServiceJobPatch]("/service-jobs", "service job", store.ServiceJobs(), evaluator),
		NewResourceHandler[models.Requirement, models.RequirementInput, models.RequirementPatch]("/requirements", "requirement", store.Requirements(), evaluator),
		NewResourceHandler("/quotes", "quote", store.Quotes(), evaluator),
		NewResourceHandler("/products", "product", store.Products(), evaluator),
		NewResourceHandler("/installers", "installer", store.Installers(), evaluator),
		NewResourceHandler("/invoices", "invoice", store.Invoices(), evaluator),

		NewChildHandler("/leads", "/calls", "/lead-calls", "lead call", store.LeadCalls(), evaluator),
		NewChildHandler("/quotes", "/items", "/quote-items", "quote item", store.QuoteItems(), evaluator),
		NewChildHandler("/invoices", "/payments", "/payments", "payment", store.Payments(), evaluator),

		NewCommentHandler("/service-jobs", store.ServiceJobs()),
		NewCommentHandler("/requirements", store.Requirements()),

		NewAttachmentHandler(store.Attachments()),
		NewConsoleHandler(store, logger),
	}
}

// RegisterRoutes mounts every handler on g
func RegisterRoutes(g *echo.Group, registrars ...RouteRegistrar) {
	for _, registrar := range registrars {
		registrar.RegisterRoutes(g)
	}
}
