package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront-insights/internal/domain"
	"storefront-insights/internal/ports"

	"github.com/rs/zerolog"
)

const (
	apiVersion = "2024-07"

	// First-page limits. The client deliberately does not paginate;
	// repeated syncs and webhooks pick up the rest.
	customersPageSize = 100
	ordersPageSize    = 250
)

// Client fetches customer and order collections from the Shopify Admin
// API with the store's access token in the X-Shopify-Access-Token header.
type Client struct {
	httpClient *http.Client
	// baseURL overrides the https://{shop} origin, for tests.
	baseURL string
	logger  zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL pins all requests to a fixed origin instead of the shop
// domain. Tests use this to point the client at a local server.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// NewClient creates a new Admin API client adapter.
func NewClient(logger zerolog.Logger, opts ...ClientOption) ports.CommerceClient {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchCustomers retrieves the first page of customers for the shop.
func (c *Client) FetchCustomers(ctx context.Context, shop, accessToken string) ([]domain.RemoteCustomer, error) {
	path := fmt.Sprintf("/admin/api/%s/customers.json?limit=%d", apiVersion, customersPageSize)

	var payload struct {
		Customers []domain.RemoteCustomer `json:"customers"`
	}
	if err := c.get(ctx, shop, accessToken, path, "customers", &payload); err != nil {
		return nil, err
	}
	return payload.Customers, nil
}

// FetchOrders retrieves the first page of orders (any status) for the shop.
func (c *Client) FetchOrders(ctx context.Context, shop, accessToken string) ([]domain.RemoteOrder, error) {
	path := fmt.Sprintf("/admin/api/%s/orders.json?status=any&limit=%d", apiVersion, ordersPageSize)

	var payload struct {
		Orders []domain.RemoteOrder `json:"orders"`
	}
	if err := c.get(ctx, shop, accessToken, path, "orders", &payload); err != nil {
		return nil, err
	}
	return payload.Orders, nil
}

func (c *Client) get(ctx context.Context, shop, accessToken, path, resource string, out interface{}) error {
	origin := c.baseURL
	if origin == "" {
		origin = "https://" + shop
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", resource, err)
	}
	req.Header.Set("X-Shopify-Access-Token", accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &domain.RemoteFetchError{
			Resource:   resource,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", resource, err)
	}

	c.logger.Debug().Str("shop", shop).Str("resource", resource).Msg("Fetched remote collection")
	return nil
}
