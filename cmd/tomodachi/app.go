package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ripper-jc/tomodachi-hub/internal/adapter"
	"github.com/ripper-jc/tomodachi-hub/internal/adapter/api"
	"github.com/ripper-jc/tomodachi-hub/internal/admin"
	"github.com/ripper-jc/tomodachi-hub/internal/auth"
	"github.com/ripper-jc/tomodachi-hub/internal/export"
	"github.com/ripper-jc/tomodachi-hub/internal/library"
	"github.com/ripper-jc/tomodachi-hub/internal/render"
	"github.com/ripper-jc/tomodachi-hub/internal/store"
	"github.com/spf13/cobra"
)

// app holds the wired services for one command invocation
type app struct {
	cfg    *adapter.Config
	logger *slog.Logger

	store   *store.Store
	cache   *store.SessionCache
	targets *store.ProgressStore
	client  *api.Client

	library  *library.Service
	admin    *admin.Service
	session  *auth.Session
	fetcher  *render.Fetcher
	renderer *render.Renderer
	exporter *export.Exporter

	logCloser io.Closer
}

func newApp() (*app, error) {
	cfg, err := adapter.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	}
	slog.SetDefault(logger)

	st, err := store.Open(cfg.Cache.Dir)
	if err != nil {
		logger.Error("failed to open cache, continuing in memory", "error", err, "dir", cfg.Cache.Dir)
		if st, err = store.Open(""); err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
	}

	client, err := api.NewClient(api.Options{
		BaseURL:      cfg.Server.URL,
		Timeout:      cfg.Server.Timeout,
		Retries:      cfg.Server.Retries,
		RetryWait:    cfg.Server.RetryWait,
		AccessCookie: cfg.Server.AccessCookie,
	}, store.NewCookieStore(st), logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create api client: %w", err)
	}

	cache := store.NewSessionCache(st, cfg.Cache.TTL, logger)
	fetcher := render.NewFetcher(client.HTTPClient())

	a := &app{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		cache:     cache,
		targets:   store.NewProgressStore(st, logger),
		client:    client,
		library:   library.NewService(client, cache, logger),
		admin:     admin.NewService(client, cache, logger),
		session:   auth.NewSession(client, logger),
		fetcher:   fetcher,
		renderer:  render.NewRenderer(fetcher, logger),
		exporter:  export.NewExporter(client, cache, fetcher, logger),
		logCloser: closer,
	}
	logger.Info("starting tomodachi", "version", Version, "server", client.BaseURL(), "persistent", st.Persistent())
	return a, nil
}

// Close flushes the store and the log file
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close store", "error", err)
	}
	if a.logCloser != nil {
		a.logCloser.Close()
	}
}

// withApp wires the services around a command body
func withApp(fn func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd.Context(), a, cmd, args)
	}
}
