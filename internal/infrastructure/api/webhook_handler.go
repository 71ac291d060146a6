package api

import (
	"io"
	"net/http"

	"storefront-insights/internal/application"
	"storefront-insights/internal/domain"
	"storefront-insights/internal/infrastructure/metrics"
	"storefront-insights/internal/infrastructure/shopify"

	"github.com/rs/zerolog"
)

const (
	topicHeader = "X-Shopify-Topic"
	shopHeader  = "X-Shopify-Shop-Domain"
)

// WebhookHandler serves the topic-dispatching POST /api/webhooks/shopify
// endpoint. The topic comes from the X-Shopify-Topic header.
func WebhookHandler(stores *application.StoreService, dispatcher *application.WebhookDispatcher, verifier *shopify.WebhookVerifier, m *metrics.Metrics, logger zerolog.Logger) http.HandlerFunc {
	return webhookHandler(stores, dispatcher, verifier, m, logger, "")
}

// OrdersCreateWebhookHandler serves POST /api/webhooks/orders-create, the
// dedicated route the dashboard registers for new orders. The topic is
// fixed; a topic header, if present, is ignored.
func OrdersCreateWebhookHandler(stores *application.StoreService, dispatcher *application.WebhookDispatcher, verifier *shopify.WebhookVerifier, m *metrics.Metrics, logger zerolog.Logger) http.HandlerFunc {
	return webhookHandler(stores, dispatcher, verifier, m, logger, "orders/create")
}

func webhookHandler(stores *application.StoreService, dispatcher *application.WebhookDispatcher, verifier *shopify.WebhookVerifier, m *metrics.Metrics, logger zerolog.Logger, fixedTopic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Failed to read request body"})
			return
		}
		defer r.Body.Close()

		topic := fixedTopic
		if topic == "" {
			topic = r.Header.Get(topicHeader)
			if topic == "" {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing " + topicHeader + " header"})
				return
			}
		}

		shop := r.Header.Get(shopHeader)
		if shop == "" {
			m.WebhookEvents.WithLabelValues(topic, "rejected").Inc()
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing " + shopHeader + " header"})
			return
		}

		// Unsigned requests bypass verification: internal callers replay
		// events without access to the shared secret. Signed requests must
		// verify.
		bypassed, err := verifier.VerifyOrBypass(payload, r.Header.Get(shopify.HmacHeader))
		if err != nil {
			m.WebhookEvents.WithLabelValues(topic, "rejected").Inc()
			logger.Warn().Err(err).Str("shop", shop).Str("topic", topic).Msg("Webhook signature rejected")
			writeError(w, logger, err)
			return
		}

		store, err := stores.StoreByShop(ctx, shop)
		if err != nil {
			m.WebhookEvents.WithLabelValues(topic, "error").Inc()
			writeError(w, logger, err)
			return
		}
		if store == nil {
			m.WebhookEvents.WithLabelValues(topic, "rejected").Inc()
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "No store connected for shop " + shop})
			return
		}

		event := &domain.WebhookEvent{
			Topic:    topic,
			Shop:     shop,
			StoreID:  store.ID,
			Payload:  payload,
			Verified: !bypassed,
		}
		if err := dispatcher.Dispatch(ctx, event); err != nil {
			m.WebhookEvents.WithLabelValues(topic, "error").Inc()
			logger.Error().Err(err).Str("topic", topic).Str("shop", shop).Msg("Failed to process webhook event")
			if domain.IsValidation(err) {
				writeError(w, logger, err)
				return
			}
			// Shopify retries on 5xx.
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to process webhook event"})
			return
		}

		m.WebhookEvents.WithLabelValues(topic, "ok").Inc()
		writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
	}
}
