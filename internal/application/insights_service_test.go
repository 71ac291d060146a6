package application

import (
	"context"
	"testing"
	"time"

	"storefront-insights/internal/domain"
	"storefront-insights/internal/retry"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type insightsFixture struct {
	service *InsightsService
	stores  *memStoreRepo
	repo    *stubInsightsRepo
	store   *domain.Store
}

func newInsightsFixture(t *testing.T) *insightsFixture {
	t.Helper()

	f := &insightsFixture{
		stores: &memStoreRepo{},
		repo:   &stubInsightsRepo{},
	}
	f.store = &domain.Store{Shop: "acme.myshopify.com", AccessToken: "shpat_test"}
	_, err := f.stores.UpsertStore(context.Background(), f.store)
	require.NoError(t, err)

	f.service = NewInsightsService(f.stores, f.repo, retry.DefaultConfig(), zerolog.Nop())
	return f
}

func TestTotalsResolvesStore(t *testing.T) {
	f := newInsightsFixture(t)
	f.repo.totals = &domain.Totals{
		TotalSpent:     decimal.RequireFromString("52.10"),
		TotalOrders:    3,
		TotalCustomers: 2,
	}

	totals, err := f.service.Totals(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, f.store.ID, f.repo.gotStoreID)
	assert.True(t, totals.TotalSpent.Equal(decimal.RequireFromString("52.10")))
}

func TestTotalsUnknownStore(t *testing.T) {
	f := newInsightsFixture(t)

	_, err := f.service.Totals(context.Background(), "missing")
	assert.True(t, domain.IsNotFound(err))
}

func TestTotalsRejectsForeignStore(t *testing.T) {
	f := newInsightsFixture(t)
	owned := &domain.Store{Shop: "owned.myshopify.com", AccessToken: "t", UserID: "user-1"}
	_, err := f.stores.UpsertStore(context.Background(), owned)
	require.NoError(t, err)

	ctx := domain.WithUser(context.Background(), &domain.User{ID: "user-2"})
	_, err = f.service.Totals(ctx, owned.ID)

	var forbidden *domain.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)
}

func TestOrdersByDateRange(t *testing.T) {
	f := newInsightsFixture(t)
	f.repo.buckets = []domain.DayBucket{{Day: "2026-08-01", Count: 2, Total: decimal.RequireFromString("20.00")}}

	buckets, err := f.service.OrdersByDate(context.Background(), "", "2026-08-01", "2026-08-03")
	require.NoError(t, err)
	require.Len(t, buckets, 1)

	// Inclusive end date becomes an exclusive bound one day later.
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), f.repo.gotStart)
	assert.Equal(t, time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC), f.repo.gotEnd)
}

func TestOrdersByDateValidation(t *testing.T) {
	f := newInsightsFixture(t)

	cases := []struct {
		name       string
		start, end string
	}{
		{"missing both", "", ""},
		{"missing end", "2026-08-01", ""},
		{"malformed start", "01-08-2026", "2026-08-03"},
		{"malformed end", "2026-08-01", "yesterday"},
		{"end before start", "2026-08-03", "2026-08-01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.OrdersByDate(context.Background(), "", tc.start, tc.end)
			assert.True(t, domain.IsValidation(err))
		})
	}
}

func TestTopSpendersAppliesFallbacks(t *testing.T) {
	f := newInsightsFixture(t)
	f.repo.topCustomers = []domain.CustomerSpend{
		{CustomerID: "c1", Name: "Ada Lovelace", Email: "ada@example.com", TotalSpend: decimal.RequireFromString("42.10")},
		{CustomerID: "c2", TotalSpend: decimal.RequireFromString("10.00")},
	}
	f.repo.topOrders = []domain.OrderSummary{
		{ID: "o1", CustomerName: "Ada Lovelace", Total: decimal.RequireFromString("42.10")},
		{ID: "o2", Total: decimal.RequireFromString("10.00")},
	}

	customers, orders, err := f.service.TopSpenders(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", customers[0].Name)
	assert.Equal(t, "Unknown Customer", customers[1].Name)
	assert.Equal(t, "No email", customers[1].Email)
	assert.Equal(t, "Ada Lovelace", orders[0].CustomerName)
	assert.Equal(t, "Guest", orders[1].CustomerName)
}

func TestCustomerOrders(t *testing.T) {
	f := newInsightsFixture(t)
	f.repo.summaries = []domain.OrderSummary{{ID: "o1"}}

	t.Run("requires customer id", func(t *testing.T) {
		_, err := f.service.CustomerOrders(context.Background(), "", "", "")
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("no range", func(t *testing.T) {
		orders, err := f.service.CustomerOrders(context.Background(), "c1", "", "")
		require.NoError(t, err)
		assert.Len(t, orders, 1)
		assert.Equal(t, "c1", f.repo.gotCustomerID)
		assert.Nil(t, f.repo.gotStartPtr)
		assert.Nil(t, f.repo.gotEndPtr)
	})

	t.Run("with range", func(t *testing.T) {
		_, err := f.service.CustomerOrders(context.Background(), "c1", "2026-08-01", "2026-08-02")
		require.NoError(t, err)
		require.NotNil(t, f.repo.gotStartPtr)
		require.NotNil(t, f.repo.gotEndPtr)
		assert.Equal(t, time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC), *f.repo.gotEndPtr)
	})

	t.Run("half a range", func(t *testing.T) {
		_, err := f.service.CustomerOrders(context.Background(), "c1", "2026-08-01", "")
		assert.True(t, domain.IsValidation(err))
	})
}

func TestCurrentMonthRevenueWindow(t *testing.T) {
	f := newInsightsFixture(t)
	f.repo.revenue = &domain.MonthRevenue{Revenue: decimal.RequireFromString("100.00"), Orders: 4}

	revenue, err := f.service.CurrentMonthRevenue(context.Background(), "")
	require.NoError(t, err)
	assert.EqualValues(t, 4, revenue.Orders)

	now := time.Now().UTC()
	wantStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, wantStart, f.repo.gotStart)
	assert.Equal(t, wantStart.AddDate(0, 1, 0), f.repo.gotEnd)
}

func TestAvailableStores(t *testing.T) {
	f := newInsightsFixture(t)

	refs, err := f.service.AvailableStores(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "acme.myshopify.com", refs[0].Shop)
}
