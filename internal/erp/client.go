package erp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// defaultLimit bounds an order fetch when the caller doesn't set one.
	defaultLimit = 5000

	// pageSize is the number of orders requested per API page.
	pageSize = 100
)

// Client is an ERP REST API client.
type Client struct {
	// baseURL is the base URL for API requests.
	baseURL string

	// httpClient is the HTTP client for making requests.
	httpClient *http.Client

	// tokenManager handles OAuth token refresh.
	tokenManager *tokenManager
}

// Orders fetches all orders matching the query, following pagination until
// the result set is exhausted or the query limit is reached. The returned
// slice preserves the API's ordering.
func (c *Client) Orders(ctx context.Context, q Query) ([]Order, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	var allOrders []Order
	var cursor string

	for {
		orders, nextCursor, err := c.fetchOrdersPage(ctx, q, cursor)
		if err != nil {
			return nil, err
		}
		allOrders = append(allOrders, orders...)

		if len(allOrders) >= limit {
			return allOrders[:limit], nil
		}
		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	return allOrders, nil
}

// OrderLines fetches the line items of one order by the order's ERP identifier.
func (c *Client) OrderLines(ctx context.Context, orderID string) ([]OrderLine, error) {
	if orderID == "" {
		return nil, errors.New("order ID is required")
	}

	reqURL := fmt.Sprintf("%s/orders/%s/lines", c.baseURL, url.PathEscape(orderID))

	var result linesResponse
	if err := c.doRequest(ctx, reqURL, &result); err != nil {
		return nil, fmt.Errorf("fetching order lines: %w", err)
	}

	return result.Data, nil
}

// fetchOrdersPage fetches a single page of orders from the API.
func (c *Client) fetchOrdersPage(ctx context.Context, q Query, cursor string) ([]Order, string, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(pageSize))
	if !q.Start.IsZero() {
		params.Set("dateFrom", q.Start.UTC().Format(time.RFC3339))
	}
	if !q.End.IsZero() {
		params.Set("dateTo", q.End.UTC().Format(time.RFC3339))
	}
	for _, s := range q.Statuses {
		params.Add("status", string(s))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	reqURL := fmt.Sprintf("%s/orders?%s", c.baseURL, params.Encode())

	var result ordersResponse
	if err := c.doRequest(ctx, reqURL, &result); err != nil {
		return nil, "", fmt.Errorf("fetching orders: %w", err)
	}

	return result.Data, result.NextCursor, nil
}

// doRequest executes an authenticated GET request and decodes the JSON response.
func (c *Client) doRequest(ctx context.Context, reqURL string, result any) error {
	accessToken, err := c.tokenManager.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("getting access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// Config holds the required configuration for creating a Client.
type Config struct {
	// ClientID is the OAuth client identifier.
	ClientID string

	// ClientSecret is the OAuth client secret.
	ClientSecret string

	// TokenStore provides access to OAuth refresh tokens.
	TokenStore TokenStore
}

// validate checks that all required Config fields are set.
func (c *Config) validate() error {
	var errs []error
	if c.ClientID == "" {
		errs = append(errs, errors.New("client ID is required"))
	}
	if c.ClientSecret == "" {
		errs = append(errs, errors.New("client secret is required"))
	}
	if c.TokenStore == nil {
		errs = append(errs, errors.New("token store is required"))
	}
	return errors.Join(errs...)
}

// NewClient creates a new ERP API client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
	}

	tm := newTokenManager(cfg.ClientID, cfg.ClientSecret, o.tokenURL, cfg.TokenStore, httpClient)

	return &Client{
		baseURL:      o.baseURL,
		httpClient:   httpClient,
		tokenManager: tm,
	}, nil
}
