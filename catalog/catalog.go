// Package catalog provides read-only product browsing backed by the
// public demo catalog API. Catalog requests are unauthenticated and
// never route through the session transport.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	authware "github.com/authware/authware-go"
)

// DefaultBaseURL is the public demo catalog API.
const DefaultBaseURL = "https://fakestoreapi.com"

// Client implements authware.CatalogService over HTTP/JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// compile-time check
var _ authware.CatalogService = (*Client)(nil)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client for catalog requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithBaseURL overrides the catalog API base URL.
func WithBaseURL(baseURL string) Option {
	return func(cl *Client) { cl.baseURL = baseURL }
}

// New creates a catalog client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ListProducts returns all products. An empty catalog is an empty
// slice, not an error.
func (c *Client) ListProducts(ctx context.Context) ([]authware.Product, error) {
	var products []authware.Product
	if err := c.get(ctx, "/products", &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []authware.Product{}
	}
	return products, nil
}

// ListByCategory returns the products in one category.
func (c *Client) ListByCategory(ctx context.Context, category string) ([]authware.Product, error) {
	if category == "" {
		return c.ListProducts(ctx)
	}

	var products []authware.Product
	path := "/products/category/" + url.PathEscape(category)
	if err := c.get(ctx, path, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []authware.Product{}
	}
	return products, nil
}

// Categories returns the known category names.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.get(ctx, "/products/categories", &categories); err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// GetProduct returns a single product by ID.
func (c *Client) GetProduct(ctx context.Context, id int) (*authware.Product, error) {
	var product authware.Product
	if err := c.get(ctx, "/products/"+strconv.Itoa(id), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("authware/catalog: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("authware/catalog: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &authware.APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("authware/catalog: decode response: %w", err)
	}
	return nil
}
