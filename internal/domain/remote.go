package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// RemoteID is a Shopify record id, which arrives as a JSON number but is
// stored and compared as a string to avoid precision loss on 64-bit ids.
type RemoteID string

// UnmarshalJSON accepts both numeric and string ids.
func (r *RemoteID) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RemoteID(s)
		return nil
	}
	*r = RemoteID(n.String())
	return nil
}

func (r RemoteID) String() string { return string(r) }

// PriceString is a monetary amount kept as its exact wire representation.
// Shopify sends prices as strings; a bare number is tolerated and kept
// verbatim via json.Number, never converted through float64.
type PriceString string

// UnmarshalJSON accepts both string and numeric prices.
func (p *PriceString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = PriceString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = PriceString(n.String())
	return nil
}

func (p PriceString) String() string { return string(p) }

// RemoteCustomer is the wire shape of a customer record as Shopify sends
// it, both in list responses and embedded in order payloads.
type RemoteCustomer struct {
	ID        RemoteID `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
}

// RemoteOrder is the wire shape of an order record. TotalPrice stays a
// string straight off the wire.
type RemoteOrder struct {
	ID                RemoteID        `json:"id"`
	Name              string          `json:"name"`
	TotalPrice        PriceString     `json:"total_price"`
	Currency          string          `json:"currency"`
	FinancialStatus   string          `json:"financial_status"`
	FulfillmentStatus string          `json:"fulfillment_status"`
	ProcessedAt       *time.Time      `json:"processed_at"`
	Customer          *RemoteCustomer `json:"customer"`
}

// WebhookEvent is a verified (or internally trusted) inbound push
// notification, ready for dispatch to topic handlers. StoreID is filled
// in once the shop domain has been resolved against storage.
type WebhookEvent struct {
	Topic    string
	Shop     string
	StoreID  string
	Payload  []byte
	Verified bool
}

// ParseRemoteID is a convenience for callers holding numeric ids.
func ParseRemoteID(id int64) RemoteID {
	return RemoteID(strconv.FormatInt(id, 10))
}
