package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront-insights/internal/domain"
)

// In-memory doubles for the persistence and transport ports. They model
// the same uniqueness rules as the MongoDB implementations so batch
// skip-duplicate and upsert semantics can be exercised without a server.

type memStoreRepo struct {
	mu     sync.Mutex
	seq    int
	stores []*domain.Store
}

func (r *memStoreRepo) UpsertStore(_ context.Context, store *domain.Store) (domain.UpsertOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.stores {
		if existing.Shop == store.Shop {
			existing.AccessToken = store.AccessToken
			if store.UserID != "" {
				existing.UserID = store.UserID
			}
			store.ID = existing.ID
			return domain.OutcomeUpdated, nil
		}
	}
	r.seq++
	store.ID = fmt.Sprintf("store-%03d", r.seq)
	clone := *store
	r.stores = append(r.stores, &clone)
	return domain.OutcomeInserted, nil
}

func (r *memStoreRepo) GetStore(_ context.Context, id string) (*domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, store := range r.stores {
		if store.ID == id {
			clone := *store
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memStoreRepo) GetStoreByShop(_ context.Context, shop string) (*domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, store := range r.stores {
		if store.Shop == shop {
			clone := *store
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memStoreRepo) FirstStore(_ context.Context) (*domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stores) == 0 {
		return nil, nil
	}
	clone := *r.stores[0]
	return &clone, nil
}

func (r *memStoreRepo) ListStores(_ context.Context, limit int) ([]domain.StoreRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	refs := []domain.StoreRef{}
	for _, store := range r.stores {
		if len(refs) == limit {
			break
		}
		refs = append(refs, store.Ref())
	}
	return refs, nil
}

type memCustomerRepo struct {
	mu   sync.Mutex
	seq  int
	rows map[string]*domain.Customer // (storeID, shopifyID) -> row
}

func newMemCustomerRepo() *memCustomerRepo {
	return &memCustomerRepo{rows: map[string]*domain.Customer{}}
}

func customerKey(storeID, shopifyID string) string {
	return storeID + "/" + shopifyID
}

func (r *memCustomerRepo) InsertManySkipDuplicates(_ context.Context, customers []*domain.Customer) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inserted := 0
	for _, customer := range customers {
		key := customerKey(customer.StoreID, customer.ShopifyID)
		if _, ok := r.rows[key]; ok {
			continue
		}
		r.seq++
		clone := *customer
		clone.ID = fmt.Sprintf("cust-%03d", r.seq)
		r.rows[key] = &clone
		inserted++
	}
	return inserted, nil
}

func (r *memCustomerRepo) MapShopifyIDs(_ context.Context, storeID string) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := map[string]string{}
	for _, row := range r.rows {
		if row.StoreID == storeID {
			ids[row.ShopifyID] = row.ID
		}
	}
	return ids, nil
}

func (r *memCustomerRepo) UpsertCustomer(_ context.Context, customer *domain.Customer) (string, domain.UpsertOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := customerKey(customer.StoreID, customer.ShopifyID)
	if existing, ok := r.rows[key]; ok {
		existing.Email = customer.Email
		existing.FirstName = customer.FirstName
		existing.LastName = customer.LastName
		return existing.ID, domain.OutcomeUpdated, nil
	}
	r.seq++
	clone := *customer
	clone.ID = fmt.Sprintf("cust-%03d", r.seq)
	r.rows[key] = &clone
	return clone.ID, domain.OutcomeInserted, nil
}

func (r *memCustomerRepo) CountByStore(_ context.Context, storeID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, row := range r.rows {
		if row.StoreID == storeID {
			count++
		}
	}
	return count, nil
}

type memOrderRepo struct {
	mu   sync.Mutex
	seq  int
	rows map[string]*domain.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{rows: map[string]*domain.Order{}}
}

func (r *memOrderRepo) InsertManySkipDuplicates(_ context.Context, orders []*domain.Order) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inserted := 0
	for _, order := range orders {
		key := customerKey(order.StoreID, order.ShopifyID)
		if _, ok := r.rows[key]; ok {
			continue
		}
		r.seq++
		clone := *order
		clone.ID = fmt.Sprintf("order-%03d", r.seq)
		r.rows[key] = &clone
		inserted++
	}
	return inserted, nil
}

func (r *memOrderRepo) UpsertOrder(_ context.Context, order *domain.Order) (string, domain.UpsertOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := customerKey(order.StoreID, order.ShopifyID)
	if existing, ok := r.rows[key]; ok {
		// Identity and the customer link are fixed at insert time, same
		// as the $setOnInsert clause in storage.
		existing.TotalPrice = order.TotalPrice
		existing.FinancialStatus = order.FinancialStatus
		existing.FulfillmentStatus = order.FulfillmentStatus
		return existing.ID, domain.OutcomeUpdated, nil
	}
	r.seq++
	clone := *order
	clone.ID = fmt.Sprintf("order-%03d", r.seq)
	r.rows[key] = &clone
	return clone.ID, domain.OutcomeInserted, nil
}

func (r *memOrderRepo) CountByStore(_ context.Context, storeID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, row := range r.rows {
		if row.StoreID == storeID {
			count++
		}
	}
	return count, nil
}

func (r *memOrderRepo) byShopifyID(storeID, shopifyID string) *domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[customerKey(storeID, shopifyID)]
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*domain.User{}}
}

func (r *memUserRepo) UpsertUser(_ context.Context, user *domain.User) (domain.UpsertOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		r.users[user.ID] = user
		return domain.OutcomeUpdated, nil
	}
	r.users[user.ID] = user
	return domain.OutcomeInserted, nil
}

type stubCommerceClient struct {
	customers    []domain.RemoteCustomer
	orders       []domain.RemoteOrder
	customersErr error
	ordersErr    error
}

func (c *stubCommerceClient) FetchCustomers(context.Context, string, string) ([]domain.RemoteCustomer, error) {
	return c.customers, c.customersErr
}

func (c *stubCommerceClient) FetchOrders(context.Context, string, string) ([]domain.RemoteOrder, error) {
	return c.orders, c.ordersErr
}

// memStatusStore records statuses and signals when a terminal state
// arrives so background-run tests can wait deterministically.
type memStatusStore struct {
	mu       sync.Mutex
	statuses map[string]*domain.SyncStatus
	done     chan *domain.SyncStatus
}

func newMemStatusStore() *memStatusStore {
	return &memStatusStore{
		statuses: map[string]*domain.SyncStatus{},
		done:     make(chan *domain.SyncStatus, 4),
	}
}

func (s *memStatusStore) Set(_ context.Context, status *domain.SyncStatus) error {
	s.mu.Lock()
	s.statuses[status.StoreID] = status
	s.mu.Unlock()
	if status.State != domain.SyncStateRunning {
		s.done <- status
	}
	return nil
}

func (s *memStatusStore) Get(_ context.Context, storeID string) (*domain.SyncStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[storeID], nil
}

func (s *memStatusStore) waitForFinish(timeout time.Duration) *domain.SyncStatus {
	select {
	case status := <-s.done:
		return status
	case <-time.After(timeout):
		return nil
	}
}

type memStateStore struct {
	mu     sync.Mutex
	states map[string]*domain.OAuthState
}

func newMemStateStore() *memStateStore {
	return &memStateStore{states: map[string]*domain.OAuthState{}}
}

func (s *memStateStore) Save(_ context.Context, state *domain.OAuthState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.State] = state
	return nil
}

func (s *memStateStore) Take(_ context.Context, state string) (*domain.OAuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved, ok := s.states[state]
	if !ok {
		return nil, nil
	}
	delete(s.states, state)
	return saved, nil
}

type stubOAuthClient struct {
	token       string
	exchangeErr error
}

func (c *stubOAuthClient) AuthorizeURL(shop, state string) string {
	return "https://" + shop + "/admin/oauth/authorize?state=" + state
}

func (c *stubOAuthClient) ExchangeToken(context.Context, string, string) (string, error) {
	return c.token, c.exchangeErr
}

// stubInsightsRepo returns canned aggregates and records the arguments it
// was called with.
type stubInsightsRepo struct {
	totals       *domain.Totals
	buckets      []domain.DayBucket
	topCustomers []domain.CustomerSpend
	topOrders    []domain.OrderSummary
	summaries    []domain.OrderSummary
	revenue      *domain.MonthRevenue

	gotStoreID    string
	gotCustomerID string
	gotStart      time.Time
	gotEnd        time.Time
	gotStartPtr   *time.Time
	gotEndPtr     *time.Time
}

func (r *stubInsightsRepo) Totals(_ context.Context, storeID string) (*domain.Totals, error) {
	r.gotStoreID = storeID
	return r.totals, nil
}

func (r *stubInsightsRepo) OrdersByDay(_ context.Context, storeID string, start, endExclusive time.Time) ([]domain.DayBucket, error) {
	r.gotStoreID = storeID
	r.gotStart = start
	r.gotEnd = endExclusive
	return r.buckets, nil
}

func (r *stubInsightsRepo) TopCustomers(_ context.Context, storeID string, _ int) ([]domain.CustomerSpend, error) {
	r.gotStoreID = storeID
	return r.topCustomers, nil
}

func (r *stubInsightsRepo) TopOrders(_ context.Context, storeID string, _ int) ([]domain.OrderSummary, error) {
	r.gotStoreID = storeID
	return r.topOrders, nil
}

func (r *stubInsightsRepo) OrdersForCustomer(_ context.Context, customerID string, start, endExclusive *time.Time) ([]domain.OrderSummary, error) {
	r.gotCustomerID = customerID
	r.gotStartPtr = start
	r.gotEndPtr = endExclusive
	return r.summaries, nil
}

func (r *stubInsightsRepo) RevenueBetween(_ context.Context, storeID string, start, endExclusive time.Time) (*domain.MonthRevenue, error) {
	r.gotStoreID = storeID
	r.gotStart = start
	r.gotEnd = endExclusive
	return r.revenue, nil
}
