// Package app provides the top-level application lifecycle for marketd. It
// wires dependencies (journal backend, market clock, quote service), starts
// the gRPC server, and tears everything down on shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"marketd/internal/config"
	"marketd/internal/quotegen"
	"marketd/internal/server"
	"marketd/internal/service"
)

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies, starts the gRPC server, and blocks until the
// context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("addr", a.cfg.Server.Addr),
		slog.String("journal_backend", a.cfg.Journal.Backend),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	svc := service.New(deps.Clock, quotegen.New(), deps.Journal, service.Config{
		StreamMaxQuotes: a.cfg.Stream.MaxQuotes,
		StreamInterval:  a.cfg.Stream.Interval.Duration,
		DeadlineMargin:  a.cfg.Stream.DeadlineMargin.Duration,
		BatchSize:       a.cfg.Ingest.BatchSize,
	}, a.logger)

	srv := server.New(server.Config{
		Addr:      a.cfg.Server.Addr,
		AuthToken: a.cfg.Server.AuthToken,
	}, svc, a.logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})
	return g.Wait()
}

// Close tears down all resources in reverse registration order. It is safe
// to call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
