package application

import (
	"context"
	"testing"

	"storefront-insights/internal/application/webhook_handlers"
	"storefront-insights/internal/domain"
	"storefront-insights/internal/retry"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(customers *memCustomerRepo, orders *memOrderRepo) *WebhookDispatcher {
	dispatcher := NewWebhookDispatcher(zerolog.Nop())
	dispatcher.Register(webhook_handlers.NewOrderHandler(customers, orders, retry.DefaultConfig(), zerolog.Nop()))
	dispatcher.Register(webhook_handlers.NewCustomerHandler(customers, retry.DefaultConfig(), zerolog.Nop()))
	return dispatcher
}

func TestDispatchOrderWebhookLinksEmbeddedCustomer(t *testing.T) {
	customers := newMemCustomerRepo()
	orders := newMemOrderRepo()
	dispatcher := newTestDispatcher(customers, orders)

	event := &domain.WebhookEvent{
		Topic:   "orders/create",
		Shop:    "acme.myshopify.com",
		StoreID: "store-001",
		Payload: []byte(`{
			"id": 9001,
			"name": "#1001",
			"total_price": "42.10",
			"currency": "EUR",
			"financial_status": "paid",
			"customer": {"id": 101, "email": "ada@example.com", "first_name": "Ada", "last_name": "Lovelace"}
		}`),
		Verified: true,
	}
	require.NoError(t, dispatcher.Dispatch(context.Background(), event))

	idMap, err := customers.MapShopifyIDs(context.Background(), "store-001")
	require.NoError(t, err)
	require.Contains(t, idMap, "101")

	order := orders.byShopifyID("store-001", "9001")
	require.NotNil(t, order)
	assert.Equal(t, idMap["101"], order.CustomerID)
	assert.Equal(t, "42.10", order.TotalPrice)
	assert.Equal(t, "paid", order.FinancialStatus)
}

func TestDispatchOrderWebhookWithoutCustomer(t *testing.T) {
	customers := newMemCustomerRepo()
	orders := newMemOrderRepo()
	dispatcher := newTestDispatcher(customers, orders)

	event := &domain.WebhookEvent{
		Topic:   "orders/paid",
		Shop:    "acme.myshopify.com",
		StoreID: "store-001",
		Payload: []byte(`{"id": 9002, "name": "#1002", "total_price": "10.00"}`),
	}
	require.NoError(t, dispatcher.Dispatch(context.Background(), event))

	order := orders.byShopifyID("store-001", "9002")
	require.NotNil(t, order)
	assert.Empty(t, order.CustomerID)

	count, err := customers.CountByStore(context.Background(), "store-001")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDispatchOrderWebhookRefreshesExistingOrder(t *testing.T) {
	customers := newMemCustomerRepo()
	orders := newMemOrderRepo()
	dispatcher := newTestDispatcher(customers, orders)

	create := &domain.WebhookEvent{
		Topic:   "orders/create",
		StoreID: "store-001",
		Payload: []byte(`{"id": 9001, "total_price": "42.10", "financial_status": "pending"}`),
	}
	require.NoError(t, dispatcher.Dispatch(context.Background(), create))

	update := &domain.WebhookEvent{
		Topic:   "orders/updated",
		StoreID: "store-001",
		Payload: []byte(`{"id": 9001, "total_price": "42.10", "financial_status": "paid"}`),
	}
	require.NoError(t, dispatcher.Dispatch(context.Background(), update))

	count, err := orders.CountByStore(context.Background(), "store-001")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, "paid", orders.byShopifyID("store-001", "9001").FinancialStatus)
}

func TestDispatchCustomerWebhook(t *testing.T) {
	customers := newMemCustomerRepo()
	dispatcher := newTestDispatcher(customers, newMemOrderRepo())

	event := &domain.WebhookEvent{
		Topic:   "customers/create",
		StoreID: "store-001",
		Payload: []byte(`{"id": 101, "email": "ada@example.com", "first_name": "Ada"}`),
	}
	require.NoError(t, dispatcher.Dispatch(context.Background(), event))

	idMap, err := customers.MapShopifyIDs(context.Background(), "store-001")
	require.NoError(t, err)
	assert.Contains(t, idMap, "101")
}

func TestDispatchUnknownTopicIsAcknowledged(t *testing.T) {
	dispatcher := newTestDispatcher(newMemCustomerRepo(), newMemOrderRepo())

	event := &domain.WebhookEvent{
		Topic:   "products/create",
		StoreID: "store-001",
		Payload: []byte(`{"id": 55}`),
	}
	assert.NoError(t, dispatcher.Dispatch(context.Background(), event))
}

func TestDispatchMalformedPayload(t *testing.T) {
	dispatcher := newTestDispatcher(newMemCustomerRepo(), newMemOrderRepo())

	event := &domain.WebhookEvent{
		Topic:   "orders/create",
		StoreID: "store-001",
		Payload: []byte(`{not json`),
	}
	err := dispatcher.Dispatch(context.Background(), event)
	assert.True(t, domain.IsValidation(err))
}

// A webhook for an order and a sync run fetching the same order must
// converge on the same stored row.
func TestWebhookAndSyncConverge(t *testing.T) {
	customers := newMemCustomerRepo()
	orders := newMemOrderRepo()
	dispatcher := newTestDispatcher(customers, orders)

	f := newSyncFixture(t)
	f.commerce.customers = []domain.RemoteCustomer{
		{ID: "101", Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"},
	}
	f.commerce.orders = []domain.RemoteOrder{
		{ID: "9001", Name: "#1001", TotalPrice: "42.10", Currency: "EUR", Customer: &domain.RemoteCustomer{ID: "101"}},
	}
	_, err := f.service.RunAndWait(context.Background(), f.store)
	require.NoError(t, err)

	event := &domain.WebhookEvent{
		Topic:   "orders/create",
		StoreID: "store-001",
		Payload: []byte(`{
			"id": 9001,
			"name": "#1001",
			"total_price": "42.10",
			"currency": "EUR",
			"customer": {"id": 101, "email": "ada@example.com", "first_name": "Ada", "last_name": "Lovelace"}
		}`),
	}
	require.NoError(t, dispatcher.Dispatch(context.Background(), event))

	fromSync := f.orders.byShopifyID(f.store.ID, "9001")
	fromWebhook := orders.byShopifyID("store-001", "9001")
	require.NotNil(t, fromSync)
	require.NotNil(t, fromWebhook)

	assert.Equal(t, fromSync.TotalPrice, fromWebhook.TotalPrice)
	assert.Equal(t, fromSync.OrderNumber, fromWebhook.OrderNumber)
	assert.Equal(t, fromSync.Currency, fromWebhook.Currency)
	assert.NotEmpty(t, fromWebhook.CustomerID)
	assert.NotEmpty(t, fromSync.CustomerID)
}
