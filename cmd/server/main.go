// Command server runs storefeed: it loads the profile's configuration, wires
// the object graph with samber/do, serves HTTP, attaches the domain
// listeners once the session settles and unwinds everything on SIGINT or
// SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/do/v2"

	"github.com/jsamuelsen11/storefeed/internal/adapters/events"
	adapthttp "github.com/jsamuelsen11/storefeed/internal/adapters/http"
	"github.com/jsamuelsen11/storefeed/internal/adapters/http/handlers"
	"github.com/jsamuelsen11/storefeed/internal/adapters/http/middleware"
	"github.com/jsamuelsen11/storefeed/internal/app/gate"
	"github.com/jsamuelsen11/storefeed/internal/app/lifecycle"
	"github.com/jsamuelsen11/storefeed/internal/app/router"
	"github.com/jsamuelsen11/storefeed/internal/app/stores"
	"github.com/jsamuelsen11/storefeed/internal/platform/config"
	"github.com/jsamuelsen11/storefeed/internal/platform/health"
	"github.com/jsamuelsen11/storefeed/internal/platform/httpclient"
	"github.com/jsamuelsen11/storefeed/internal/platform/logging"
	"github.com/jsamuelsen11/storefeed/internal/platform/telemetry"
	"github.com/jsamuelsen11/storefeed/internal/ports"
)

const (
	serverShutdownTimeout = 15 * time.Second
	otelShutdownTimeout   = 5 * time.Second

	// listenerRetryInterval spaces attempts to initialize the listeners
	// while the session is still pending.
	listenerRetryInterval = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "storefeed: %v\n", err)
		os.Exit(1)
	}
}

// app is the resolved runtime graph.
type app struct {
	server    *adapthttp.Server
	bus       *eventBus
	gate      *gate.Gate
	listeners *lifecycle.Manager
	logger    *slog.Logger
}

func run() error {
	profile := os.Getenv("APP_PROFILE")
	if profile == "" {
		return errors.New("APP_PROFILE is required (local, dev, qa or prod)")
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	providers, err := initTelemetry(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", err))
		}
	}()

	injector := do.New()
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.ProvideValue(injector, providers.metrics)
	registerDependencies(injector, cfg, logger)

	a, err := resolve(injector, cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.serve(ctx)
}

// resolve builds the graph and registers the readiness checkers.
func resolve(injector *do.RootScope, cfg *config.Config, logger *slog.Logger) (*app, error) {
	server, err := do.Invoke[*adapthttp.Server](injector)
	if err != nil {
		return nil, fmt.Errorf("resolving server: %w", err)
	}
	bus, err := do.Invoke[*eventBus](injector)
	if err != nil {
		return nil, fmt.Errorf("resolving event source: %w", err)
	}

	a := &app{
		server:    server,
		bus:       bus,
		gate:      do.MustInvoke[*gate.Gate](injector),
		listeners: do.MustInvoke[*lifecycle.Manager](injector),
		logger:    logger,
	}

	registry := do.MustInvoke[ports.HealthRegistry](injector)
	registry.Register(bus.checker)
	registry.Register(a.gate)
	registry.Register(a.listeners)
	if cfg.Auth.Provider == config.AuthProviderHTTP {
		registry.Register(do.MustInvoke[*httpclient.Client](injector))
	}
	return a, nil
}

// serve runs the HTTP server and the listener bootstrap until ctx ends or
// the server fails, then shuts down in dependency order: HTTP first, then
// the listeners, then the broker connections.
func (a *app) serve(ctx context.Context) error {
	listenCtx, stopListening := context.WithCancel(ctx)
	defer stopListening()
	listenDone := make(chan error, 1)
	go func() {
		listenDone <- a.listeners.Await(listenCtx, a.gate, listenerRetryInterval)
	}()

	serverDone := make(chan error, 1)
	go func() { serverDone <- a.server.Start() }()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown requested", slog.Any("cause", context.Cause(ctx)))
	case err := <-serverDone:
		runErr = fmt.Errorf("server failed: %w", err)
		serverDone <- nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", slog.Any("error", err))
	}
	<-serverDone

	stopListening()
	if err := <-listenDone; err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Warn("listener bootstrap ended", slog.Any("error", err))
	}
	if err := a.listeners.Teardown(); err != nil {
		a.logger.Error("listener teardown error", slog.Any("error", err))
	}
	if err := a.bus.Close(); err != nil {
		a.logger.Error("event source close error", slog.Any("error", err))
	}

	a.logger.Info("shutdown complete")
	return runErr
}

func registerDependencies(injector *do.RootScope, cfg *config.Config, logger *slog.Logger) {
	do.Provide(injector, func(i do.Injector) (*httpclient.Client, error) {
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		return httpclient.New(&cfg.Client, "identity-api", metrics, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.AuthProvider, error) {
		client := func() *httpclient.Client { return do.MustInvoke[*httpclient.Client](i) }
		return newAuthProvider(cfg.Auth, client, logger)
	})

	do.Provide(injector, func(i do.Injector) (*gate.Gate, error) {
		provider := do.MustInvoke[ports.AuthProvider](i)
		return gate.New(provider, logger), nil
	})

	do.Provide(injector, func(_ do.Injector) (*events.Decoder, error) {
		return events.NewDecoder(cfg.Events.CloudEventsTypePrefix), nil
	})

	do.Provide(injector, func(i do.Injector) (*eventBus, error) {
		decoder := do.MustInvoke[*events.Decoder](i)
		return newEventBus(cfg.Events, decoder, logger)
	})

	do.Provide(injector, func(_ do.Injector) (*stores.Set, error) {
		return stores.New(stores.Options{DedupWindow: cfg.Stores.DedupWindow, Logger: logger}), nil
	})

	do.Provide(injector, func(i do.Injector) (*router.Router, error) {
		bus, err := do.Invoke[*eventBus](i)
		if err != nil {
			return nil, err
		}
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		return router.New(bus.source, logger, metrics), nil
	})

	do.Provide(injector, func(i do.Injector) (*lifecycle.Manager, error) {
		r, err := do.Invoke[*router.Router](i)
		if err != nil {
			return nil, err
		}
		set := do.MustInvoke[*stores.Set](i)
		sessionGate := do.MustInvoke[*gate.Gate](i)
		return lifecycle.New(r, set, sessionGate, logger), nil
	})

	do.Provide(injector, func(_ do.Injector) (ports.HealthRegistry, error) {
		return health.New(health.WithCheckTimeout(cfg.Health.CheckTimeout)), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.HealthHandler, error) {
		registry := do.MustInvoke[ports.HealthRegistry](i)
		return handlers.NewHealthHandler(registry), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.StoreHandler, error) {
		return handlers.NewStoreHandler(do.MustInvoke[*stores.Set](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.IngestHandler, error) {
		bus, err := do.Invoke[*eventBus](i)
		if err != nil {
			return nil, err
		}
		return handlers.NewIngestHandler(bus.publisher, do.MustInvoke[*events.Decoder](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.SessionHandler, error) {
		sessionGate := do.MustInvoke[*gate.Gate](i)
		listeners, err := do.Invoke[*lifecycle.Manager](i)
		if err != nil {
			return nil, err
		}
		return handlers.NewSessionHandler(sessionGate, listeners), nil
	})

	do.Provide(injector, func(i do.Injector) (nethttp.Handler, error) {
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		storeH := do.MustInvoke[*handlers.StoreHandler](i)
		healthH := do.MustInvoke[*handlers.HealthHandler](i)
		ingestH, err := do.Invoke[*handlers.IngestHandler](i)
		if err != nil {
			return nil, err
		}
		sessionH, err := do.Invoke[*handlers.SessionHandler](i)
		if err != nil {
			return nil, err
		}

		return adapthttp.NewRouter(adapthttp.Routes{
			Health:         healthH,
			Stores:         storeH,
			Ingest:         ingestH,
			Session:        sessionH,
			Gate:           do.MustInvoke[*gate.Gate](i),
			PrerenderToken: cfg.Auth.PrerenderToken,
			APITimeout:     cfg.Server.RequestTimeout,
		},
			middleware.Recovery(logger),
			middleware.RequestID(),
			middleware.CorrelationID(),
			middleware.OpenTelemetry(metrics),
			middleware.Logging(logger),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*adapthttp.Server, error) {
		handler, err := do.Invoke[nethttp.Handler](i)
		if err != nil {
			return nil, err
		}
		return adapthttp.NewServer(cfg.Server, handler, logger), nil
	})
}
