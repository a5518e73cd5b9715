package main

import (
	"log/slog"
	"net/http"

	"github.com/authware/authware-go/admin"
	"github.com/authware/authware-go/catalog"
	"github.com/authware/authware-go/config"
	"github.com/authware/authware-go/metrics"
	"github.com/authware/authware-go/restapi"
	"github.com/authware/authware-go/session"
	"github.com/authware/authware-go/store"
	"github.com/authware/authware-go/transport"
)

// app wires the SDK components for one command invocation: a bbolt
// credential store, the REST backend client, the session manager, and
// the refresh-and-replay transport.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	tokens   *store.BoltStore
	sessions *session.Manager
	admin    *admin.Service
	catalog  *catalog.Client
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	tokens, err := store.OpenBolt(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	mx := metrics.New(cfg.Metrics.Enabled)
	holder := transport.NewTokenHolder()
	api := restapi.NewClient(cfg.API.Endpoint,
		restapi.WithTokenSource(holder),
		restapi.WithLogger(logger))
	sessions := session.NewManager(api, tokens,
		session.WithTokenHolder(holder),
		session.WithLogger(logger),
		session.WithMetrics(mx))

	// The authenticated client routes through the refresh transport,
	// which needs the manager as its refresher; swap it in after both
	// exist.
	rt := transport.New(holder,
		transport.WithRefresher(sessions),
		transport.WithInvalidationHook(sessions.InvalidateSession),
		transport.WithLogger(logger),
		transport.WithMetrics(mx))
	api.SetHTTPClient(&http.Client{Transport: rt, Timeout: cfg.API.Timeout})

	var catalogOpts []catalog.Option
	if cfg.Catalog.Endpoint != "" {
		catalogOpts = append(catalogOpts, catalog.WithBaseURL(cfg.Catalog.Endpoint))
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		tokens:   tokens,
		sessions: sessions,
		admin:    admin.New(api),
		catalog:  catalog.New(catalogOpts...),
	}, nil
}

func (a *app) Close() error {
	return a.tokens.Close()
}

// withApp loads config, wires the app, restores the session, runs fn,
// and releases resources.
func withApp(fn func(a *app) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
