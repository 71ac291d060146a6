package domain

import "time"

// Order is a transaction mirrored from Shopify, optionally linked to one
// customer of the same store. The (ShopifyID, StoreID) pair is unique.
//
// TotalPrice is kept as the exact decimal string reported by Shopify.
// Monetary values never pass through float64; arithmetic on them goes
// through shopspring/decimal at the point of use.
type Order struct {
	ID                string     `json:"id"`
	ShopifyID         string     `json:"shopify_id"`
	OrderNumber       string     `json:"order_number,omitempty"`
	TotalPrice        string     `json:"total_price"`
	Currency          string     `json:"currency,omitempty"`
	FinancialStatus   string     `json:"financial_status,omitempty"`
	FulfillmentStatus string     `json:"fulfillment_status,omitempty"`
	ProcessedAt       *time.Time `json:"processed_at,omitempty"`
	StoreID           string     `json:"store_id"`
	CustomerID        string     `json:"customer_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// User is an authenticated dashboard operator. The ID matches the identity
// provider's subject claim; the row is upserted on first sign-in.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
