package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"roomcast/internal/api"
	"roomcast/internal/broadcast"
	"roomcast/internal/config"
	"roomcast/internal/directory"
	"roomcast/internal/hub"
	"roomcast/internal/presence"
	"roomcast/internal/room"
	"roomcast/internal/websocket"
)

// Application wires every component of one server instance.
type Application struct {
	config      *config.Config
	logger      zerolog.Logger
	registry    *websocket.Registry
	coordinator *presence.Coordinator
	eventHub    *hub.Hub
	apiServer   *api.Server
	httpServer  *http.Server
	listener    net.Listener
}

// NewApplication builds the component graph. Initialization order:
// Store, Directory → Registry → Broadcaster → Coordinator → Hub → WebSocket → API → HTTP.
func NewApplication(cfg *config.Config, logger zerolog.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	rooms := room.NewStore(cfg.Chat.MaxHistory)
	dir := directory.New()
	registry := websocket.NewRegistry(logger)
	broadcaster := broadcast.New(rooms, registry, logger)
	coordinator := presence.New(rooms, dir, broadcaster, presence.Options{Limits: cfg.Limits()}, logger)
	eventHub := hub.NewHub(coordinator, cfg.Chat.EventBuffer, logger)
	wsHandler := websocket.NewHandler(registry, eventHub, cfg.WebSocket, cfg.HTTP.AllowedOrigins, logger)
	apiServer := api.NewServer(coordinator, registry, eventHub, wsHandler, cfg.HTTP.AllowedOrigins, logger)

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      apiServer,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:      cfg,
		logger:      logger.With().Str("component", "app").Logger(),
		registry:    registry,
		coordinator: coordinator,
		eventHub:    eventHub,
		apiServer:   apiServer,
		httpServer:  httpServer,
	}, nil
}

// Start runs the event hub and begins serving HTTP. It returns once the
// listener is bound.
func (app *Application) Start(ctx context.Context) error {
	if err := app.eventHub.Start(ctx); err != nil {
		return fmt.Errorf("failed to start event hub: %w", err)
	}

	ln, err := net.Listen("tcp", app.httpServer.Addr)
	if err != nil {
		_ = app.eventHub.Stop()
		return fmt.Errorf("failed to listen on %s: %w", app.httpServer.Addr, err)
	}
	app.listener = ln

	go func() {
		if err := app.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	app.logger.Info().Str("addr", ln.Addr().String()).Msg("roomcast started")
	return nil
}

// Stop shuts down in reverse order: HTTP, then open WebSocket connections,
// then the event hub once their disconnects have been applied.
func (app *Application) Stop(ctx context.Context) error {
	app.logger.Info().Msg("shutting down")

	var errs []error
	if err := app.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	app.registry.CloseAll()
	app.awaitConnectionsDrained(ctx)

	if err := app.eventHub.Stop(); err != nil && !errors.Is(err, hub.ErrHubNotRunning) {
		errs = append(errs, fmt.Errorf("hub shutdown: %w", err))
	}

	app.logger.Info().Msg("shutdown complete")
	return errors.Join(errs...)
}

func (app *Application) awaitConnectionsDrained(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for app.registry.Count() > 0 {
		select {
		case <-ctx.Done():
			app.logger.Warn().Int("open", app.registry.Count()).Msg("connections still open at shutdown")
			return
		case <-ticker.C:
		}
	}
}

// Addr returns the bound listener address, or the configured one before Start.
func (app *Application) Addr() string {
	if app.listener != nil {
		return app.listener.Addr().String()
	}
	return app.httpServer.Addr
}

func (app *Application) Handler() http.Handler { return app.apiServer }

func (app *Application) Coordinator() *presence.Coordinator { return app.coordinator }
