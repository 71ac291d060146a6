package application

import (
	"context"
	"time"

	"storefront-insights/internal/domain"
	"storefront-insights/internal/ports"
	"storefront-insights/internal/retry"

	"github.com/rs/zerolog"
)

const (
	dateLayout = "2006-01-02"

	// topLimit bounds both the top-customers and top-orders rankings.
	topLimit = 5

	// availableStoresLimit bounds the store list echoed in not-found
	// responses and the stores listing.
	availableStoresLimit = 10
)

// Fallback labels for records with incomplete identity.
const (
	unknownCustomerName = "Unknown Customer"
	noEmailLabel        = "No email"
	guestCustomerName   = "Guest"
)

// InsightsService answers the dashboard's analytical queries. All heavy
// lifting happens in the database; this layer resolves the target store,
// validates date ranges and fills identity fallbacks.
type InsightsService struct {
	stores   ports.StoreRepository
	insights ports.InsightsRepository
	retryCfg retry.Config
	logger   zerolog.Logger
}

// NewInsightsService creates a new insights service.
func NewInsightsService(stores ports.StoreRepository, insights ports.InsightsRepository, retryCfg retry.Config, logger zerolog.Logger) *InsightsService {
	return &InsightsService{
		stores:   stores,
		insights: insights,
		retryCfg: retryCfg,
		logger:   logger,
	}
}

func (s *InsightsService) resolve(ctx context.Context, storeID string) (*domain.Store, error) {
	store, err := resolveStore(ctx, s.logger, s.retryCfg, s.stores, storeID)
	if err != nil {
		return nil, err
	}
	if err := checkOwnership(ctx, store); err != nil {
		return nil, err
	}
	return store, nil
}

// Totals returns the store-wide headline numbers.
func (s *InsightsService) Totals(ctx context.Context, storeID string) (*domain.Totals, error) {
	store, err := s.resolve(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return retry.Do(ctx, s.logger, "insights.totals", s.retryCfg, func(ctx context.Context) (*domain.Totals, error) {
		return s.insights.Totals(ctx, store.ID)
	})
}

// OrdersByDate buckets the store's orders per calendar day across the
// inclusive date range. Both bounds are required.
func (s *InsightsService) OrdersByDate(ctx context.Context, storeID, startDate, endDate string) ([]domain.DayBucket, error) {
	start, endExclusive, err := parseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	store, err := s.resolve(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return retry.Do(ctx, s.logger, "insights.ordersByDay", s.retryCfg, func(ctx context.Context) ([]domain.DayBucket, error) {
		return s.insights.OrdersByDay(ctx, store.ID, start, endExclusive)
	})
}

// TopSpenders returns the highest-spending customers and highest-value
// orders in one call, with display fallbacks applied for records that
// carry no identity.
func (s *InsightsService) TopSpenders(ctx context.Context, storeID string) ([]domain.CustomerSpend, []domain.OrderSummary, error) {
	store, err := s.resolve(ctx, storeID)
	if err != nil {
		return nil, nil, err
	}

	customers, err := retry.Do(ctx, s.logger, "insights.topCustomers", s.retryCfg, func(ctx context.Context) ([]domain.CustomerSpend, error) {
		return s.insights.TopCustomers(ctx, store.ID, topLimit)
	})
	if err != nil {
		return nil, nil, err
	}
	orders, err := retry.Do(ctx, s.logger, "insights.topOrders", s.retryCfg, func(ctx context.Context) ([]domain.OrderSummary, error) {
		return s.insights.TopOrders(ctx, store.ID, topLimit)
	})
	if err != nil {
		return nil, nil, err
	}

	for i := range customers {
		if customers[i].Name == "" {
			customers[i].Name = unknownCustomerName
		}
		if customers[i].Email == "" {
			customers[i].Email = noEmailLabel
		}
	}
	for i := range orders {
		if orders[i].CustomerName == "" {
			orders[i].CustomerName = guestCustomerName
		}
	}
	return customers, orders, nil
}

// CustomerOrders lists one customer's order history, newest first. The
// date range is optional but must be supplied whole.
func (s *InsightsService) CustomerOrders(ctx context.Context, customerID, startDate, endDate string) ([]domain.OrderSummary, error) {
	if customerID == "" {
		return nil, domain.Validation("customerId", "customerId parameter is required.")
	}

	var start, endExclusive *time.Time
	if startDate != "" || endDate != "" {
		from, toExclusive, err := parseDateRange(startDate, endDate)
		if err != nil {
			return nil, err
		}
		start, endExclusive = &from, &toExclusive
	}

	return retry.Do(ctx, s.logger, "insights.customerOrders", s.retryCfg, func(ctx context.Context) ([]domain.OrderSummary, error) {
		return s.insights.OrdersForCustomer(ctx, customerID, start, endExclusive)
	})
}

// CurrentMonthRevenue sums revenue and orders for the calendar month in
// progress, in UTC.
func (s *InsightsService) CurrentMonthRevenue(ctx context.Context, storeID string) (*domain.MonthRevenue, error) {
	store, err := s.resolve(ctx, storeID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	endExclusive := start.AddDate(0, 1, 0)

	return retry.Do(ctx, s.logger, "insights.monthRevenue", s.retryCfg, func(ctx context.Context) (*domain.MonthRevenue, error) {
		return s.insights.RevenueBetween(ctx, store.ID, start, endExclusive)
	})
}

// AvailableStores lists connected stores for error payloads and pickers.
func (s *InsightsService) AvailableStores(ctx context.Context) ([]domain.StoreRef, error) {
	return retry.Do(ctx, s.logger, "store.list", s.retryCfg, func(ctx context.Context) ([]domain.StoreRef, error) {
		return s.stores.ListStores(ctx, availableStoresLimit)
	})
}

// parseDateRange validates a required inclusive date pair and converts it
// to the half-open [start, endExclusive) window used by storage.
func parseDateRange(startDate, endDate string) (time.Time, time.Time, error) {
	if startDate == "" || endDate == "" {
		return time.Time{}, time.Time{}, domain.Validation("dateRange", "startDate and endDate parameters are required.")
	}
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Validation("startDate", "startDate must be formatted as YYYY-MM-DD.")
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Validation("endDate", "endDate must be formatted as YYYY-MM-DD.")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, domain.Validation("dateRange", "endDate must not be before startDate.")
	}
	return start, end.AddDate(0, 0, 1), nil
}
