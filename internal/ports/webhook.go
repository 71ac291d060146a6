package ports

import (
	"context"

	"storefront-insights/internal/domain"
)

// WebhookHandler processes inbound webhook events for the topics it
// declares.
type WebhookHandler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}
