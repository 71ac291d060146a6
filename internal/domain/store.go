package domain

import "time"

// Store represents a connected Shopify shop (one tenant of the dashboard).
// It is created on a successful OAuth callback and refreshed whenever the
// shop re-authorizes; stores are never deleted automatically.
type Store struct {
	ID          string    `json:"id"`
	Shop        string    `json:"shop"` // myshopify domain, unique
	AccessToken string    `json:"-"`
	UserID      string    `json:"user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StoreRef is the minimal store identity included in listings and in the
// availableStores field of not-found responses.
type StoreRef struct {
	ID   string `json:"id"`
	Shop string `json:"shop"`
}

// Ref returns the listing view of the store.
func (s *Store) Ref() StoreRef {
	return StoreRef{ID: s.ID, Shop: s.Shop}
}
