package api

import (
	"net/http"
	"net/url"

	"storefront-insights/internal/application"

	"github.com/rs/zerolog"
)

// OAuthInitHandler serves GET /auth/shopify: it starts the store
// connection flow and redirects the merchant to Shopify's consent page.
func OAuthInitHandler(stores *application.StoreService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		authURL, err := stores.BeginConnect(r.Context(), query.Get("shop"), query.Get("return_url"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// OAuthCallbackHandler serves GET /auth/callback: it completes the
// handshake and sends the merchant back to the dashboard.
func OAuthCallbackHandler(stores *application.StoreService, dashboardURL string, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		store, returnURL, err := stores.CompleteConnect(r.Context(), query.Get("shop"), query.Get("code"), query.Get("state"))
		if err != nil {
			writeError(w, logger, err)
			return
		}

		if returnURL == "" {
			returnURL = dashboardURL
		}
		redirect := returnURL + "?connected=" + url.QueryEscape(store.Shop)
		http.Redirect(w, r, redirect, http.StatusFound)
	}
}
