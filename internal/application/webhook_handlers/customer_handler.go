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

// CustomerHandler mirrors customer-related webhook events into local
// storage.
type CustomerHandler struct {
	customers ports.CustomerRepository
	retryCfg  retry.Config
	logger    zerolog.Logger
}

// NewCustomerHandler creates a new customer webhook handler.
func NewCustomerHandler(customers ports.CustomerRepository, retryCfg retry.Config, logger zerolog.Logger) *CustomerHandler {
	return &CustomerHandler{
		customers: customers,
		retryCfg:  retryCfg,
		logger:    logger,
	}
}

// CanHandle returns true if this handler can process the given topic.
func (h *CustomerHandler) CanHandle(topic string) bool {
	return topic == "customers/create" ||
		topic == "customers/update"
}

// Handle upserts the event's customer.
func (h *CustomerHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var remote domain.RemoteCustomer
	if err := json.Unmarshal(event.Payload, &remote); err != nil {
		return domain.Validation("payload", fmt.Sprintf("failed to parse customer webhook payload: %v", err))
	}
	if remote.ID == "" {
		return domain.Validation("id", "customer webhook payload has no id")
	}

	customer := &domain.Customer{
		ShopifyID: remote.ID.String(),
		Email:     remote.Email,
		FirstName: remote.FirstName,
		LastName:  remote.LastName,
		StoreID:   event.StoreID,
	}
	res, err := retry.Do(ctx, h.logger, "customer.upsert", h.retryCfg, func(ctx context.Context) (upsertResult, error) {
		id, outcome, err := h.customers.UpsertCustomer(ctx, customer)
		return upsertResult{id: id, outcome: outcome}, err
	})
	if err != nil {
		return err
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Str("customerId", customer.ShopifyID).
		Str("outcome", res.outcome.String()).
		Msg("Customer webhook mirrored")
	return nil
}
