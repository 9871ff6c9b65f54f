package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen11/storefeed/internal/adapters/clients/auth"
	"github.com/jsamuelsen11/storefeed/internal/adapters/events"
	"github.com/jsamuelsen11/storefeed/internal/adapters/events/kafka"
	"github.com/jsamuelsen11/storefeed/internal/adapters/events/memory"
	"github.com/jsamuelsen11/storefeed/internal/adapters/events/redis"
	"github.com/jsamuelsen11/storefeed/internal/domain/session"
	"github.com/jsamuelsen11/storefeed/internal/platform/config"
	"github.com/jsamuelsen11/storefeed/internal/platform/httpclient"
	"github.com/jsamuelsen11/storefeed/internal/ports"
)

// eventBus bundles the configured event source with its publishing side.
type eventBus struct {
	source    ports.EventSource
	publisher ports.EventPublisher
	checker   ports.HealthChecker
	closers   []func() error
}

// Close releases broker connections held outside the source subscription.
func (b *eventBus) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func newEventBus(cfg config.EventsConfig, decoder *events.Decoder, logger *slog.Logger) (*eventBus, error) {
	logger = logger.With(slog.String("event_source", cfg.Source))

	switch cfg.Source {
	case config.EventSourceMemory:
		src := memory.New(logger)
		return &eventBus{source: src, publisher: src, checker: src}, nil

	case config.EventSourceKafka:
		src, err := kafka.New(cfg.Kafka, decoder, logger)
		if err != nil {
			return nil, fmt.Errorf("creating kafka source: %w", err)
		}
		pub, err := kafka.NewPublisher(cfg.Kafka, decoder)
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		return &eventBus{source: src, publisher: pub, checker: src, closers: []func() error{pub.Close}}, nil

	case config.EventSourceRedis:
		client, err := redis.Connect(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		src, err := redis.New(client, cfg.Redis.Channel, decoder, logger)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("creating redis source: %w", err)
		}
		return &eventBus{source: src, publisher: src, checker: src, closers: []func() error{client.Close}}, nil

	default:
		return nil, fmt.Errorf("unsupported event source %q", cfg.Source)
	}
}

func newAuthProvider(cfg config.AuthConfig, client func() *httpclient.Client, logger *slog.Logger) (ports.AuthProvider, error) {
	logger = logger.With(slog.String("auth_provider", cfg.Provider))

	switch cfg.Provider {
	case config.AuthProviderHTTP:
		return auth.NewSessionProvider(client(), cfg, logger), nil
	case config.AuthProviderJWT:
		return auth.NewJWTProvider(cfg, logger), nil
	case config.AuthProviderStatic:
		return auth.NewStaticProvider(session.Status(cfg.StaticStatus), cfg.LoginURL), nil
	default:
		return nil, fmt.Errorf("unsupported auth provider %q", cfg.Provider)
	}
}
