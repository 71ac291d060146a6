package ports

import (
	"context"
	"time"

	"storefront-insights/internal/domain"
)

// StoreRepository defines persistence for connected stores.
type StoreRepository interface {
	// UpsertStore creates or refreshes a store keyed by its shop domain.
	UpsertStore(ctx context.Context, store *domain.Store) (domain.UpsertOutcome, error)
	GetStore(ctx context.Context, id string) (*domain.Store, error)
	GetStoreByShop(ctx context.Context, shop string) (*domain.Store, error)
	// FirstStore returns the first store in storage, or nil when none exist.
	FirstStore(ctx context.Context) (*domain.Store, error)
	ListStores(ctx context.Context, limit int) ([]domain.StoreRef, error)
}

// CustomerRepository defines persistence for mirrored customers.
type CustomerRepository interface {
	// InsertManySkipDuplicates inserts the batch, silently skipping rows
	// that collide on the (shopifyId, storeId) unique key. Returns the
	// number actually inserted.
	InsertManySkipDuplicates(ctx context.Context, customers []*domain.Customer) (int, error)
	// MapShopifyIDs returns shopifyId -> local id for every customer of
	// the store.
	MapShopifyIDs(ctx context.Context, storeID string) (map[string]string, error)
	// UpsertCustomer creates or refreshes one customer keyed by
	// (shopifyId, storeId) and returns its local id.
	UpsertCustomer(ctx context.Context, customer *domain.Customer) (string, domain.UpsertOutcome, error)
	CountByStore(ctx context.Context, storeID string) (int64, error)
}

// OrderRepository defines persistence for mirrored orders.
type OrderRepository interface {
	InsertManySkipDuplicates(ctx context.Context, orders []*domain.Order) (int, error)
	UpsertOrder(ctx context.Context, order *domain.Order) (string, domain.UpsertOutcome, error)
	CountByStore(ctx context.Context, storeID string) (int64, error)
}

// UserRepository defines persistence for dashboard operators.
type UserRepository interface {
	UpsertUser(ctx context.Context, user *domain.User) (domain.UpsertOutcome, error)
}

// InsightsRepository defines the read-only analytical queries. All
// aggregation is delegated to the database; implementations never load
// full collections into application memory.
type InsightsRepository interface {
	Totals(ctx context.Context, storeID string) (*domain.Totals, error)
	// OrdersByDay buckets orders by calendar day over [start, endExclusive),
	// sorted ascending by day.
	OrdersByDay(ctx context.Context, storeID string, start, endExclusive time.Time) ([]domain.DayBucket, error)
	TopCustomers(ctx context.Context, storeID string, limit int) ([]domain.CustomerSpend, error)
	TopOrders(ctx context.Context, storeID string, limit int) ([]domain.OrderSummary, error)
	// OrdersForCustomer lists one customer's orders, newest first,
	// optionally bounded by [start, endExclusive).
	OrdersForCustomer(ctx context.Context, customerID string, start, endExclusive *time.Time) ([]domain.OrderSummary, error)
	RevenueBetween(ctx context.Context, storeID string, start, endExclusive time.Time) (*domain.MonthRevenue, error)
}
