package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Totals is the store-wide headline aggregate.
type Totals struct {
	TotalSpent     decimal.Decimal
	TotalOrders    int64
	TotalCustomers int64
}

// DayBucket is one calendar day of aggregated orders. Day is the date
// portion of the processed timestamp in ISO-8601 form ("2006-01-02");
// buckets are always sorted ascending by Day.
type DayBucket struct {
	Day   string
	Count int64
	Total decimal.Decimal
}

// CustomerSpend is one row of the top-customers ranking.
type CustomerSpend struct {
	CustomerID string
	Name       string
	Email      string
	TotalSpend decimal.Decimal
}

// OrderSummary is an order row denormalized with customer identity, used
// by the top-orders ranking and per-customer history.
type OrderSummary struct {
	ID            string
	OrderNumber   string
	Total         decimal.Decimal
	Currency      string
	ProcessedAt   *time.Time
	CustomerName  string
	CustomerEmail string
}

// MonthRevenue is the current-calendar-month aggregate.
type MonthRevenue struct {
	Revenue decimal.Decimal
	Orders  int64
}
