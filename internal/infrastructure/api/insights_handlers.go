package api

import (
	"net/http"
	"time"

	"storefront-insights/internal/application"
	"storefront-insights/internal/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// chartDateLayout is the short label the dashboard charts render on their
// x axis.
const chartDateLayout = "Jan 2"

type totalsResponse struct {
	TotalSpent     decimal.Decimal `json:"totalSpent"`
	TotalOrders    int64           `json:"totalOrders"`
	TotalCustomers int64           `json:"totalCustomers"`
}

type ordersByDateRow struct {
	Date   string `json:"date"`
	Orders int64  `json:"Orders"`
}

type avgRevenueRow struct {
	Date       string          `json:"date"`
	AvgRevenue decimal.Decimal `json:"avgRevenue"`
	OrderCount int64           `json:"orderCount"`
}

type customerSpendRow struct {
	CustomerID string          `json:"customerId"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	TotalSpend decimal.Decimal `json:"totalSpend"`
}

type orderSummaryRow struct {
	ID            string          `json:"id"`
	OrderNumber   string          `json:"orderNumber,omitempty"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency,omitempty"`
	ProcessedAt   *time.Time      `json:"processedAt,omitempty"`
	CustomerName  string          `json:"customerName,omitempty"`
	CustomerEmail string          `json:"customerEmail,omitempty"`
}

type topSpendersResponse struct {
	TopCustomers []customerSpendRow `json:"topCustomers"`
	TopOrders    []orderSummaryRow  `json:"topOrders"`
}

type monthRevenueResponse struct {
	Revenue    decimal.Decimal `json:"revenue"`
	OrderCount int64           `json:"orderCount"`
}

// chartLabel converts an ISO bucket day into the chart's short label.
func chartLabel(day string) string {
	ts, err := time.Parse("2006-01-02", day)
	if err != nil {
		return day
	}
	return ts.Format(chartDateLayout)
}

func orderSummaryRows(orders []domain.OrderSummary) []orderSummaryRow {
	rows := make([]orderSummaryRow, 0, len(orders))
	for _, order := range orders {
		rows = append(rows, orderSummaryRow{
			ID:            order.ID,
			OrderNumber:   order.OrderNumber,
			Total:         order.Total,
			Currency:      order.Currency,
			ProcessedAt:   order.ProcessedAt,
			CustomerName:  order.CustomerName,
			CustomerEmail: order.CustomerEmail,
		})
	}
	return rows
}

// TotalsHandler serves GET /api/insights/totals.
func TotalsHandler(insights *application.InsightsService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		totals, err := insights.Totals(ctx, r.URL.Query().Get("storeId"))
		if err != nil {
			writeStoreError(w, logger, err, func() ([]domain.StoreRef, error) {
				return insights.AvailableStores(ctx)
			})
			return
		}
		writeJSON(w, http.StatusOK, totalsResponse{
			TotalSpent:     totals.TotalSpent,
			TotalOrders:    totals.TotalOrders,
			TotalCustomers: totals.TotalCustomers,
		})
	}
}

// OrdersByDateHandler serves GET /api/insights/orders-by-date.
func OrdersByDateHandler(insights *application.InsightsService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		query := r.URL.Query()

		buckets, err := insights.OrdersByDate(ctx, query.Get("storeId"), query.Get("startDate"), query.Get("endDate"))
		if err != nil {
			writeStoreError(w, logger, err, func() ([]domain.StoreRef, error) {
				return insights.AvailableStores(ctx)
			})
			return
		}

		rows := make([]ordersByDateRow, 0, len(buckets))
		for _, bucket := range buckets {
			rows = append(rows, ordersByDateRow{
				Date:   chartLabel(bucket.Day),
				Orders: bucket.Count,
			})
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

// AvgRevenueByDateHandler serves GET /api/insights/avg-revenue-by-date.
func AvgRevenueByDateHandler(insights *application.InsightsService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		query := r.URL.Query()

		buckets, err := insights.OrdersByDate(ctx, query.Get("storeId"), query.Get("startDate"), query.Get("endDate"))
		if err != nil {
			writeStoreError(w, logger, err, func() ([]domain.StoreRef, error) {
				return insights.AvailableStores(ctx)
			})
			return
		}

		rows := make([]avgRevenueRow, 0, len(buckets))
		for _, bucket := range buckets {
			avg := decimal.Zero
			if bucket.Count > 0 {
				avg = bucket.Total.DivRound(decimal.NewFromInt(bucket.Count), 2)
			}
			rows = append(rows, avgRevenueRow{
				Date:       chartLabel(bucket.Day),
				AvgRevenue: avg,
				OrderCount: bucket.Count,
			})
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

// TopCustomersHandler serves GET /api/insights/top-customers with the
// combined customers-and-orders ranking.
func TopCustomersHandler(insights *application.InsightsService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		customers, orders, err := insights.TopSpenders(ctx, r.URL.Query().Get("storeId"))
		if err != nil {
			writeStoreError(w, logger, err, func() ([]domain.StoreRef, error) {
				return insights.AvailableStores(ctx)
			})
			return
		}

		customerRows := make([]customerSpendRow, 0, len(customers))
		for _, customer := range customers {
			customerRows = append(customerRows, customerSpendRow{
				CustomerID: customer.CustomerID,
				Name:       customer.Name,
				Email:      customer.Email,
				TotalSpend: customer.TotalSpend,
			})
		}
		writeJSON(w, http.StatusOK, topSpendersResponse{
			TopCustomers: customerRows,
			TopOrders:    orderSummaryRows(orders),
		})
	}
}

// CustomerOrdersHandler serves GET /api/insights/customer-orders.
func CustomerOrdersHandler(insights *application.InsightsService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		orders, err := insights.CustomerOrders(r.Context(), query.Get("customerId"), query.Get("startDate"), query.Get("endDate"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, orderSummaryRows(orders))
	}
}

// CurrentMonthHandler serves GET /api/insights/current-month.
func CurrentMonthHandler(insights *application.InsightsService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		revenue, err := insights.CurrentMonthRevenue(ctx, r.URL.Query().Get("storeId"))
		if err != nil {
			writeStoreError(w, logger, err, func() ([]domain.StoreRef, error) {
				return insights.AvailableStores(ctx)
			})
			return
		}
		writeJSON(w, http.StatusOK, monthRevenueResponse{
			Revenue:    revenue.Revenue,
			OrderCount: revenue.Orders,
		})
	}
}
