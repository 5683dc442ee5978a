// Package dashboard computes the console's landing page figures from the store.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/storage"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	UpcomingWindow = 7 * 24 * time.Hour

	maxRecentActivity       = 5
	upcomingInActivity      = 3
	requirementsInActivity  = 2
	activityTypeCall        = "call"
	activityTypeService     = "service"
	activityTypeRequirement = "requirement"
)

type Stats struct {
	Customers         int             `json:"customers"`
	Leads             int             `json:"leads"`
	Revenue           decimal.Decimal `json:"revenue"`
	CompletedServices int             `json:"completed_services"`
}

type Activity struct {
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Timestamp   time.Time       `json:"timestamp"`
	Priority    models.Priority `json:"priority"`
}

type Summary struct {
	Stats                    Stats                 `json:"stats"`
	HighPriorityCalls        []models.CallFollowUp `json:"high_priority_calls"`
	UpcomingServices         []models.ServiceJob   `json:"upcoming_services"`
	HighPriorityRequirements []models.Requirement  `json:"high_priority_requirements"`
	RecentActivity           []Activity            `json:"recent_activity"`
}

type snapshot struct {
	customers    []models.Customer
	leads        []models.Lead
	invoices     []models.Invoice
	serviceJobs  []models.ServiceJob
	calls        []models.CallFollowUp
	requirements []models.Requirement
}

// Load reads every collection the summary needs, concurrently, and computes it as of now.
func Load(ctx context.Context, store storage.Store, now time.Time) (*Summary, error) {
	ctx, span := tracing.StartSpan(ctx, "Dashboard.Load")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.customers, err = store.Customers().List(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.leads, err = store.Leads().List(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.invoices, err = store.Invoices().List(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.serviceJobs, err = store.ServiceJobs().List(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.calls, err = store.CallFollowUps().List(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.requirements, err = store.Requirements().List(gctx)
		return err
	})
	if err = g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}

	summary := compute(snap, now)
	return &summary, nil
}

func compute(snap snapshot, now time.Time) Summary {
	revenue := decimal.Zero
	for _, invoice := range snap.invoices {
		revenue = revenue.Add(invoice.Amount)
	}

	completed := ectolinq.Filter(snap.serviceJobs, func(job models.ServiceJob) bool {
		return job.Status == models.ServiceJobStatusCompleted
	})

	calls := ectolinq.Filter(snap.calls, func(call models.CallFollowUp) bool {
		return call.Priority == models.PriorityHigh &&
			(call.Status == models.CallStatusActive || call.Status == models.CallStatusPending)
	})

	upcoming := ectolinq.Filter(snap.serviceJobs, func(job models.ServiceJob) bool {
		return job.IsUpcoming(now, UpcomingWindow)
	})
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].ScheduledAt.Before(upcoming[j].ScheduledAt)
	})

	requirements := ectolinq.Filter(snap.requirements, func(req models.Requirement) bool {
		return req.Priority == models.PriorityHigh && req.Status != models.RequirementStatusCompleted
	})

	return Summary{
		Stats: Stats{
			Customers:         len(snap.customers),
			Leads:             len(snap.leads),
			Revenue:           revenue,
			CompletedServices: len(completed),
		},
		HighPriorityCalls:        nonNil(calls),
		UpcomingServices:         nonNil(upcoming),
		HighPriorityRequirements: nonNil(requirements),
		RecentActivity:           recentActivity(calls, upcoming, requirements),
	}
}

func recentActivity(calls []models.CallFollowUp, upcoming []models.ServiceJob, requirements []models.Requirement) []Activity {
	activity := ectolinq.Map(calls, func(call models.CallFollowUp) Activity {
		return Activity{
			Type:        activityTypeCall,
			Title:       "High Priority Call: " + call.CallerName,
			Description: call.Notes,
			Timestamp:   call.Timestamp,
			Priority:    call.Priority,
		}
	})
	activity = append(activity, ectolinq.Map(head(upcoming, upcomingInActivity), func(job models.ServiceJob) Activity {
		return Activity{
			Type:        activityTypeService,
			Title:       "Upcoming Service: " + job.ModelName,
			Description: job.Description,
			Timestamp:   job.ScheduledAt,
			Priority:    models.PriorityMedium,
		}
	})...)
	activity = append(activity, ectolinq.Map(head(requirements, requirementsInActivity), func(req models.Requirement) Activity {
		return Activity{
			Type:        activityTypeRequirement,
			Title:       "High Priority Requirement: " + req.CustomerName,
			Description: req.Description,
			Timestamp:   req.CreatedAt,
			Priority:    req.Priority,
		}
	})...)

	sort.SliceStable(activity, func(i, j int) bool {
		return activity[i].Timestamp.After(activity[j].Timestamp)
	})
	return nonNil(head(activity, maxRecentActivity))
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// nonNil keeps empty lists rendering as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
