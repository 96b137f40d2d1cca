// Package pricing is a typed client for the cover router pricing API.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 30 * time.Second

// ErrMalformedQuote indicates the pricing API answered 2xx without a usable quote.
var ErrMalformedQuote = errors.New("pricing: malformed quote response")

// Client wraps the pricing API endpoints.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Option mutates the client configuration during construction.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout bounds every request issued by the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New constructs a client pointed at the supplied API base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, fmt.Errorf("baseURL required")
	}
	parsed, err := url.Parse(strings.TrimSuffix(trimmed, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid baseURL: %w", err)
	}
	client := &Client{
		baseURL: parsed,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// QuoteParams identifies the cover being priced. Period is expressed in days.
type QuoteParams struct {
	ProductID    uint32
	Amount       Amount
	Period       uint32
	CoverAsset   uint32
	PaymentAsset uint32
}

// GetQuote prices a cover and returns the routed pool allocations.
func (c *Client) GetQuote(ctx context.Context, params QuoteParams) (*QuoteResponse, error) {
	query := url.Values{}
	query.Set("productId", strconv.FormatUint(uint64(params.ProductID), 10))
	query.Set("amount", params.Amount.String())
	query.Set("period", strconv.FormatUint(uint64(params.Period), 10))
	query.Set("coverAsset", strconv.FormatUint(uint64(params.CoverAsset), 10))
	query.Set("paymentAsset", strconv.FormatUint(uint64(params.PaymentAsset), 10))

	var resp QuoteResponse
	if err := c.get(ctx, "quote", query, &resp); err != nil {
		return nil, err
	}
	if resp.Quote == nil || resp.Quote.PremiumInAsset.IsZeroValue() || resp.Quote.AnnualPrice.IsZeroValue() {
		return nil, ErrMalformedQuote
	}
	return &resp, nil
}

// GetCapacity returns the capacity available for a product over the given period in days.
func (c *Client) GetCapacity(ctx context.Context, productID, period uint32) (*Capacity, error) {
	query := url.Values{}
	if period > 0 {
		query.Set("period", strconv.FormatUint(uint64(period), 10))
	}
	var resp Capacity
	endpoint := "capacity/" + strconv.FormatUint(uint64(productID), 10)
	if err := c.get(ctx, endpoint, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	target := c.baseURL.ResolveReference(&url.URL{Path: endpoint})
	target.RawQuery = query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
