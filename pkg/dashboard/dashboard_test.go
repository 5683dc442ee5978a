package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/kv"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/signer"
	"github.com/Ramsey-B/clover/pkg/storage"
	"github.com/Ramsey-B/clover/pkg/storage/local"
)

func newStore() storage.Store {
	store := kv.NewMemoryStore()
	objects := local.NewObjectStore(store, "test", signer.New("secret", time.Hour), "http://localhost:3000")
	return local.New(store, objects, local.Config{Prefix: "test"}, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

func call(name string, priority models.Priority, status models.CallStatus, at time.Time) models.CallFollowUp {
	return models.CallFollowUp{CallerName: name, Priority: priority, Status: status, Timestamp: at, Notes: name + " notes"}
}

func job(model string, status models.ServiceJobStatus, at time.Time) models.ServiceJob {
	return models.ServiceJob{ModelName: model, Status: status, ScheduledAt: at}
}

func TestCompute(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	snap := snapshot{
		customers: make([]models.Customer, 3),
		leads:     make([]models.Lead, 2),
		invoices: []models.Invoice{
			{Amount: decimal.RequireFromString("1500.50")},
			{Amount: decimal.RequireFromString("499.50")},
		},
		serviceJobs: []models.ServiceJob{
			job("Creta", models.ServiceJobStatusCompleted, now.Add(day)),
			job("Swift", models.ServiceJobStatusNewComplaint, now.Add(3*day)),
			job("City", models.ServiceJobStatusReceived, now.Add(day)),
			job("Nexon", models.ServiceJobStatusNewComplaint, now.Add(8*day)),
			job("Innova", models.ServiceJobStatusNewComplaint, now.Add(-time.Hour)),
		},
		calls: []models.CallFollowUp{
			call("Asha", models.PriorityHigh, models.CallStatusActive, now.Add(-time.Hour)),
			call("Bala", models.PriorityHigh, models.CallStatusPending, now.Add(-2*time.Hour)),
			call("Chitra", models.PriorityHigh, models.CallStatusCompleted, now),
			call("Dev", models.PriorityLow, models.CallStatusActive, now),
		},
		requirements: []models.Requirement{
			{Base: models.Base{CreatedAt: now.Add(-3 * time.Hour)}, CustomerName: "Esha", Priority: models.PriorityHigh, Status: models.RequirementStatusPending},
			{Base: models.Base{CreatedAt: now}, CustomerName: "Farah", Priority: models.PriorityHigh, Status: models.RequirementStatusCompleted},
			{Base: models.Base{CreatedAt: now}, CustomerName: "Gopal", Priority: models.PriorityMedium, Status: models.RequirementStatusPending},
		},
	}

	summary := compute(snap, now)

	assert.Equal(t, 3, summary.Stats.Customers)
	assert.Equal(t, 2, summary.Stats.Leads)
	assert.True(t, decimal.RequireFromString("2000").Equal(summary.Stats.Revenue))
	assert.Equal(t, 1, summary.Stats.CompletedServices)

	require.Len(t, summary.HighPriorityCalls, 2)
	assert.Equal(t, "Asha", summary.HighPriorityCalls[0].CallerName)
	assert.Equal(t, "Bala", summary.HighPriorityCalls[1].CallerName)

	require.Len(t, summary.UpcomingServices, 2)
	assert.Equal(t, "City", summary.UpcomingServices[0].ModelName)
	assert.Equal(t, "Swift", summary.UpcomingServices[1].ModelName)

	require.Len(t, summary.HighPriorityRequirements, 1)
	assert.Equal(t, "Esha", summary.HighPriorityRequirements[0].CustomerName)

	require.Len(t, summary.RecentActivity, 5)
	titles := make([]string, 0, len(summary.RecentActivity))
	for _, item := range summary.RecentActivity {
		titles = append(titles, item.Title)
	}
	assert.Equal(t, []string{
		"Upcoming Service: Swift",
		"Upcoming Service: City",
		"High Priority Call: Asha",
		"High Priority Call: Bala",
		"High Priority Requirement: Esha",
	}, titles)
	assert.Equal(t, models.PriorityMedium, summary.RecentActivity[0].Priority)
}

func TestComputeEmpty(t *testing.T) {
	summary := compute(snapshot{}, time.Now())

	assert.True(t, summary.Stats.Revenue.IsZero())
	assert.NotNil(t, summary.HighPriorityCalls)
	assert.NotNil(t, summary.UpcomingServices)
	assert.NotNil(t, summary.HighPriorityRequirements)
	assert.NotNil(t, summary.RecentActivity)
	assert.Empty(t, summary.RecentActivity)
}

func TestRecentActivityCapsAtFive(t *testing.T) {
	now := time.Now().UTC()
	var calls []models.CallFollowUp
	for i := 0; i < 8; i++ {
		calls = append(calls, call("caller", models.PriorityHigh, models.CallStatusActive, now.Add(time.Duration(i)*time.Minute)))
	}

	activity := recentActivity(calls, nil, nil)
	require.Len(t, activity, 5)
	assert.Equal(t, now.Add(7*time.Minute), activity[0].Timestamp)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	now := models.Now()

	_, err := store.Customers().Create(ctx, models.CustomerInput{Name: "Hari"})
	require.NoError(t, err)
	_, err = store.Invoices().Create(ctx, models.InvoiceInput{
		CustomerID: "c1",
		Amount:     decimal.RequireFromString("250"),
		DueDate:    now.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	_, err = store.ServiceJobs().Create(ctx, models.ServiceJobInput{
		ModelName:    "Verna",
		CustomerName: "Hari",
		ScheduledAt:  now.Add(48 * time.Hour),
	})
	require.NoError(t, err)

	summary, err := Load(ctx, store, now)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Stats.Customers)
	assert.Equal(t, 0, summary.Stats.Leads)
	assert.True(t, decimal.RequireFromString("250").Equal(summary.Stats.Revenue))
	require.Len(t, summary.UpcomingServices, 1)
	assert.Equal(t, "Verna", summary.UpcomingServices[0].ModelName)
	require.Len(t, summary.RecentActivity, 1)
	assert.Equal(t, "service", summary.RecentActivity[0].Type)
}
