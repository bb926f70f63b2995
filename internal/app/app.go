package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/strangerchat-server/internal/bus"
	"github.com/vovakirdan/strangerchat-server/internal/config"
	"github.com/vovakirdan/strangerchat-server/internal/core"
	"github.com/vovakirdan/strangerchat-server/internal/history"
	"github.com/vovakirdan/strangerchat-server/internal/store"
	"github.com/vovakirdan/strangerchat-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/strangerchat-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	access          *transporthttp.AccessList
	bus             *bus.Bus
	store           store.SessionStore
	recorder        *history.Recorder
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	matcher, err := core.NewMatcher(cfg.Matching.Policy, cfg.Matching.Fallback)
	if err != nil {
		return nil, fmt.Errorf("matcher: %w", err)
	}

	access, err := transporthttp.NewAccessList(cfg.Access.Enabled, cfg.Access.Allowed)
	if err != nil {
		return nil, fmt.Errorf("access list: %w", err)
	}

	a := &App{
		shutdownTimeout: cfg.ShutdownTimeout,
		access:          access,
		log:             logger,
	}

	opts := []core.Option{
		core.WithLogger(logger),
		core.WithMatcher(matcher),
		core.WithPresenceInterval(cfg.Presence.Interval),
		core.WithInterestLimits(cfg.Matching.MaxInterests, cfg.Matching.MaxInterestLen),
	}

	var historyReader transporthttp.HistoryReader
	if cfg.History.Enabled {
		st, err := sqlite.New(cfg.History.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		logger.Info().Str("db_path", cfg.History.DatabasePath).Msg("history database initialized")

		a.store = st
		a.bus = bus.New(logger)
		a.recorder = history.NewRecorder(st, logger)
		opts = append(opts, core.WithSessionSink(history.NewSink(a.bus, logger)))
		historyReader = st
	}

	a.hub = core.NewHub(opts...)
	server, err := transporthttp.NewServer(a.hub, historyReader, access, cfg, logger)
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("init http server: %w", err)
	}
	a.server = server

	logger.Info().
		Str("policy", cfg.Matching.Policy).
		Bool("fallback", cfg.Matching.Fallback).
		Bool("access_list", cfg.Access.Enabled).
		Bool("history", cfg.History.Enabled).
		Msg("application configured")
	return a, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// ApplyConfig updates the settings that can change at runtime.
func (a *App) ApplyConfig(cfg config.Config) {
	if err := a.access.Update(cfg.Access.Enabled, cfg.Access.Allowed); err != nil {
		a.log.Warn().Err(err).Msg("access list not updated")
		return
	}
	a.log.Info().Bool("enabled", cfg.Access.Enabled).Int("entries", len(cfg.Access.Allowed)).
		Msg("access list updated")
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	if a.recorder != nil {
		if err := a.recorder.Start(ctx, a.bus); err != nil {
			a.cleanup()
			return err
		}
	}

	serverErr := make(chan error, 1)

	go a.hub.Run(ctx)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the bus, the database and other resources.
func (a *App) cleanup() {
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close bus")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
