package domain

import "time"

// Customer is a buyer mirrored from Shopify. The (ShopifyID, StoreID) pair
// is unique; repeated syncs update the same row.
type Customer struct {
	ID        string    `json:"id"`
	ShopifyID string    `json:"shopify_id"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	StoreID   string    `json:"store_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName joins the name parts, falling back to empty when the
// customer record carries no name at all.
func (c *Customer) DisplayName() string {
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	default:
		return c.LastName
	}
}

// UpsertOutcome distinguishes a row created by an upsert from one that
// already existed and was refreshed.
type UpsertOutcome int

const (
	OutcomeInserted UpsertOutcome = iota
	OutcomeUpdated
)

func (o UpsertOutcome) String() string {
	if o == OutcomeInserted {
		return "inserted"
	}
	return "updated"
}
