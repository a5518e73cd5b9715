// Package authware provides a framework-agnostic Go SDK for a remote
// authentication and user-management REST API.
//
// The SDK defines interfaces for session management, the admin user
// console, product browsing, and credential persistence. Concrete
// implementations are injected via Option functions, so the SDK stays
// independent of any particular transport or storage backend.
//
// Example usage with the REST backend and a bbolt token store:
//
//	tokens, _ := store.OpenBolt("/var/lib/app/auth.db")
//	api := restapi.NewClient("https://api.example.com")
//	sessions := session.NewManager(api, tokens)
//
//	client, err := authware.NewClient(
//	    authware.Config{Endpoint: "https://api.example.com"},
//	    authware.WithSessionService(sessions),
//	    authware.WithTokenStore(tokens),
//	)
package authware

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/authware/authware-go/audit"
	"github.com/authware/authware-go/metrics"
)

// Client is the main entry point for SDK operations.
// Service implementations are injected via Option functions.
type Client struct {
	config   Config
	logger   *slog.Logger
	sessions SessionService
	admin    AdminService
	catalog  CatalogService
	tokens   TokenStore
	metrics  *metrics.Metrics
	audit    *audit.Logger
}

// Config holds connection and behavior configuration.
type Config struct {
	// Endpoint is the base URL of the authentication backend
	// (e.g. "https://api.example.com").
	Endpoint string

	// CatalogEndpoint is the base URL of the public product catalog API.
	// If empty, the catalog client's default is used.
	CatalogEndpoint string

	// RequestTimeout bounds individual HTTP requests. Default: 30 seconds.
	RequestTimeout time.Duration
}

// DefaultRequestTimeout is the default per-request timeout.
const DefaultRequestTimeout = 30 * time.Second

// Option configures the Client.
type Option func(*Client)

// WithLogger sets a structured logger for the client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithSessionService sets the session management implementation.
func WithSessionService(s SessionService) Option {
	return func(c *Client) { c.sessions = s }
}

// WithAdminService sets the user-management console implementation.
func WithAdminService(a AdminService) Option {
	return func(c *Client) { c.admin = a }
}

// WithCatalogService sets the product browsing implementation.
func WithCatalogService(cat CatalogService) Option {
	return func(c *Client) { c.catalog = cat }
}

// WithTokenStore sets the credential persistence implementation.
func WithTokenStore(t TokenStore) Option {
	return func(c *Client) { c.tokens = t }
}

// WithMetrics attaches a Prometheus metrics instance.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithAudit attaches an audit logger, closed together with the client.
func WithAudit(a *audit.Logger) Option {
	return func(c *Client) { c.audit = a }
}

// NewClient creates a new SDK client with the given configuration and options.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("authware: Endpoint is required")
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	c := &Client{config: cfg}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Config returns the client configuration.
func (c *Client) Config() Config { return c.config }

// Sessions returns the session service, or nil if not configured.
func (c *Client) Sessions() SessionService { return c.sessions }

// Admin returns the admin service, or nil if not configured.
func (c *Client) Admin() AdminService { return c.admin }

// Catalog returns the catalog service, or nil if not configured.
func (c *Client) Catalog() CatalogService { return c.catalog }

// Tokens returns the token store, or nil if not configured.
func (c *Client) Tokens() TokenStore { return c.tokens }

// Metrics returns the metrics instance, or nil if not configured.
func (c *Client) Metrics() *metrics.Metrics { return c.metrics }

// Audit returns the audit logger, or nil if not configured.
func (c *Client) Audit() *audit.Logger { return c.audit }

// Close releases all resources held by the client.
// Any injected service that implements io.Closer will be closed.
func (c *Client) Close() error {
	closers := []interface{}{
		c.sessions, c.admin, c.catalog, c.tokens,
	}
	if c.audit != nil {
		closers = append(closers, c.audit)
	}
	var firstErr error
	for _, svc := range closers {
		if cl, ok := svc.(io.Closer); ok && cl != nil {
			if err := cl.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
