package ports

import (
	"context"

	"storefront-insights/internal/domain"
)

// CommerceClient fetches record collections from the Shopify Admin API on
// behalf of one store. Implementations read only the first page per call;
// large stores converge over repeated syncs plus webhooks.
type CommerceClient interface {
	FetchCustomers(ctx context.Context, shop, accessToken string) ([]domain.RemoteCustomer, error)
	FetchOrders(ctx context.Context, shop, accessToken string) ([]domain.RemoteOrder, error)
}

// OAuthClient performs the store-connection OAuth handshake.
type OAuthClient interface {
	AuthorizeURL(shop, state string) string
	ExchangeToken(ctx context.Context, shop, code string) (string, error)
}

// OAuthStateStore holds short-lived CSRF state between the OAuth redirect
// and its callback.
type OAuthStateStore interface {
	Save(ctx context.Context, state *domain.OAuthState) error
	// Take returns and deletes the state in one step, or nil when it is
	// unknown or expired.
	Take(ctx context.Context, state string) (*domain.OAuthState, error)
}

// SyncStatusStore records the most recent sync run per store for the UI
// poll loop.
type SyncStatusStore interface {
	Set(ctx context.Context, status *domain.SyncStatus) error
	// Get returns nil when no run has been recorded for the store.
	Get(ctx context.Context, storeID string) (*domain.SyncStatus, error)
}
