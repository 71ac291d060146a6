package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront-insights/internal/domain"
	"storefront-insights/internal/ports"
	"storefront-insights/internal/retry"

	"github.com/rs/zerolog"
)

// upsertResult carries an upsert's outcome through the retry wrapper.
type upsertResult struct {
	id      string
	outcome domain.UpsertOutcome
}

// OrderHandler mirrors order-related webhook events into local storage.
// One event produces the same end state a full sync run would: the
// embedded customer is upserted first so the order can link to it.
type OrderHandler struct {
	customers ports.CustomerRepository
	orders    ports.OrderRepository
	retryCfg  retry.Config
	logger    zerolog.Logger
}

// NewOrderHandler creates a new order webhook handler.
func NewOrderHandler(customers ports.CustomerRepository, orders ports.OrderRepository, retryCfg retry.Config, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		customers: customers,
		orders:    orders,
		retryCfg:  retryCfg,
		logger:    logger,
	}
}

// CanHandle returns true if this handler can process the given topic.
func (h *OrderHandler) CanHandle(topic string) bool {
	return topic == "orders/create" ||
		topic == "orders/updated" ||
		topic == "orders/paid"
}

// Handle upserts the event's order, linking it to its customer when the
// payload embeds one.
func (h *OrderHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var remote domain.RemoteOrder
	if err := json.Unmarshal(event.Payload, &remote); err != nil {
		return domain.Validation("payload", fmt.Sprintf("failed to parse order webhook payload: %v", err))
	}
	if remote.ID == "" {
		return domain.Validation("id", "order webhook payload has no id")
	}

	order := &domain.Order{
		ShopifyID:         remote.ID.String(),
		OrderNumber:       remote.Name,
		TotalPrice:        priceOrZero(remote.TotalPrice),
		Currency:          remote.Currency,
		FinancialStatus:   remote.FinancialStatus,
		FulfillmentStatus: remote.FulfillmentStatus,
		ProcessedAt:       remote.ProcessedAt,
		StoreID:           event.StoreID,
	}

	if remote.Customer != nil && remote.Customer.ID != "" {
		customer := &domain.Customer{
			ShopifyID: remote.Customer.ID.String(),
			Email:     remote.Customer.Email,
			FirstName: remote.Customer.FirstName,
			LastName:  remote.Customer.LastName,
			StoreID:   event.StoreID,
		}
		res, err := retry.Do(ctx, h.logger, "customer.upsert", h.retryCfg, func(ctx context.Context) (upsertResult, error) {
			id, outcome, err := h.customers.UpsertCustomer(ctx, customer)
			return upsertResult{id: id, outcome: outcome}, err
		})
		if err != nil {
			return err
		}
		order.CustomerID = res.id
	}

	res, err := retry.Do(ctx, h.logger, "order.upsert", h.retryCfg, func(ctx context.Context) (upsertResult, error) {
		id, outcome, err := h.orders.UpsertOrder(ctx, order)
		return upsertResult{id: id, outcome: outcome}, err
	})
	if err != nil {
		return err
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Str("orderId", order.ShopifyID).
		Str("outcome", res.outcome.String()).
		Msg("Order webhook mirrored")
	return nil
}

// priceOrZero keeps the payload price string verbatim, defaulting absent
// values to "0".
func priceOrZero(p domain.PriceString) string {
	if p == "" {
		return "0"
	}
	return p.String()
}
