// Package storefront is an HTTP client for the storefront product API,
// sitemap and product pages. Every request is an idempotent GET and runs
// through the retry executor.
package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/adyen/shopcheck/internal/config"
	"github.com/adyen/shopcheck/internal/models"
	"github.com/adyen/shopcheck/internal/pagination"
	"github.com/adyen/shopcheck/internal/retry"
	"github.com/adyen/shopcheck/internal/schema"
	"github.com/rs/zerolog/log"
)

const defaultUserAgent = "shopcheck/1.0"

// maxBodySize bounds how much of a response is read into memory
const maxBodySize = 8 << 20

// ProductList is one page of the product API
type ProductList = pagination.Page[models.Product]

// Client talks to one storefront. It holds no global state; create one per
// target and pass it to whatever needs it.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	policy     retry.Policy
	executor   retry.Executor
	maxLimit   int
	userAgent  string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetryPolicy sets the policy applied to every request
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithExecutor sets the retry executor, e.g. to control time in tests
func WithExecutor(e retry.Executor) Option {
	return func(c *Client) {
		c.executor = e
	}
}

// WithMaxPageLimit sets the largest page size the client will request
func WithMaxPageLimit(n int) Option {
	return func(c *Client) {
		c.maxLimit = n
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a client for the storefront at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute, got %q", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		policy:     retry.DefaultPolicy(),
		maxLimit:   100,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.policy.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewFromConfig creates a client from the QA configuration
func NewFromConfig(cfg *config.QAConfig, opts ...Option) (*Client, error) {
	base := []Option{
		WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		WithRetryPolicy(cfg.RetryPolicy()),
		WithMaxPageLimit(cfg.MaxPageLimit),
	}
	return New(cfg.BaseURL, append(base, opts...)...)
}

// BaseURL returns the storefront root URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ListProducts fetches one page of products. The page and limit are
// normalized before the request is made.
func (c *Client) ListProducts(ctx context.Context, req pagination.Request) (*ProductList, error) {
	window := pagination.Normalize(req, c.maxLimit)

	q := url.Values{}
	q.Set("page", fmt.Sprint(window.Page))
	q.Set("limit", fmt.Sprint(window.Limit))

	body, err := c.get(ctx, "/api/products?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	var list ProductList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to parse product list: %w", err)
	}
	if err := schema.Validate(list.Items); err != nil {
		return nil, fmt.Errorf("invalid product list: %w", err)
	}
	list.Clamped = list.Clamped || window.WasClamped

	return &list, nil
}

// ListAllProducts walks every page of the product API
func (c *Client) ListAllProducts(ctx context.Context) ([]models.Product, error) {
	var all []models.Product
	for page := 1; ; page++ {
		list, err := c.ListProducts(ctx, pagination.Request{Page: page, Limit: c.maxLimit})
		if err != nil {
			return nil, err
		}
		all = append(all, list.Items...)
		if !list.HasNext || len(list.Items) == 0 {
			return all, nil
		}
	}
}

// GetProduct fetches a single product by ID
func (c *Client) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	body, err := c.get(ctx, "/api/products/"+url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}

	var product models.Product
	if err := json.Unmarshal(body, &product); err != nil {
		return nil, fmt.Errorf("failed to parse product: %w", err)
	}
	if err := schema.Validate(product); err != nil {
		return nil, fmt.Errorf("invalid product %s: %w", id, err)
	}
	return &product, nil
}

// get performs a GET with retries and returns the response body.
// ref may be a path relative to the base URL or an absolute URL.
func (c *Client) get(ctx context.Context, ref string) ([]byte, error) {
	target, err := c.resolve(ref)
	if err != nil {
		return nil, err
	}

	return retry.Run(ctx, c.executor, c.policy, func(ctx context.Context, attempt retry.Attempt) ([]byte, error) {
		return c.do(ctx, target, attempt)
	})
}

func (c *Client) do(ctx context.Context, target string, attempt retry.Attempt) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)

	log.Debug().
		Str("method", http.MethodGet).
		Str("url", target).
		Int("attempt", attempt.Index).
		Msg("making HTTP request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	log.Debug().
		Str("url", target).
		Int("status_code", resp.StatusCode).
		Int("body_length", len(body)).
		Dur("elapsed", time.Since(attempt.StartedAt)).
		Msg("received HTTP response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{
			Method:     http.MethodGet,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
		if statusErr.Retryable() {
			return nil, statusErr
		}
		return nil, retry.Permanent(statusErr)
	}

	return body, nil
}

func (c *Client) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", ref, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	return c.baseURL.String() + "/" + strings.TrimLeft(ref, "/"), nil
}
