package application

import (
	"context"

	"storefront-insights/internal/domain"
	"storefront-insights/internal/ports"

	"github.com/rs/zerolog"
)

// WebhookDispatcher routes inbound webhook events to the handlers that
// declare their topic.
type WebhookDispatcher struct {
	handlers []ports.WebhookHandler
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates a new webhook dispatcher.
func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{logger: logger}
}

// Register adds a handler to the dispatch chain.
func (d *WebhookDispatcher) Register(handler ports.WebhookHandler) {
	d.handlers = append(d.handlers, handler)
}

// Dispatch hands the event to every handler claiming its topic. Events
// on topics nobody handles are acknowledged and logged, not errors: the
// remote side retries on failure, and an unhandled topic will never
// become handleable by retrying.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	handled := false
	for _, handler := range d.handlers {
		if !handler.CanHandle(event.Topic) {
			continue
		}
		handled = true
		if err := handler.Handle(ctx, event); err != nil {
			return err
		}
	}
	if !handled {
		d.logger.Info().
			Str("topic", event.Topic).
			Str("shop", event.Shop).
			Msg("No handler registered for webhook topic")
	}
	return nil
}
