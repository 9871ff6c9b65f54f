// Package redis provides an event source and publisher backed by a Redis
// pub/sub channel. Messages are structured CloudEvents or plain domain
// events.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jsamuelsen11/storefeed/internal/adapters/events"
	"github.com/jsamuelsen11/storefeed/internal/app/handle"
	"github.com/jsamuelsen11/storefeed/internal/domain"
	"github.com/jsamuelsen11/storefeed/internal/domain/event"
	"github.com/jsamuelsen11/storefeed/internal/ports"
)

// Compile-time interface checks.
var (
	_ ports.EventSource    = (*Source)(nil)
	_ ports.EventPublisher = (*Source)(nil)
	_ ports.HealthChecker  = (*Source)(nil)
)

// cloudEventSource is the CloudEvents source attribute of republished
// events.
const cloudEventSource = "/storefeed"

// pubSub is the subset of *goredis.PubSub the source uses.
type pubSub interface {
	Channel(opts ...goredis.ChannelOption) <-chan *goredis.Message
	Close() error
}

// Source subscribes to one Redis channel.
type Source struct {
	client    *goredis.Client
	channel   string
	decoder   *events.Decoder
	logger    *slog.Logger
	subscribe func(ctx context.Context) (pubSub, error)
}

// Connect creates a Redis client from a redis:// URL or a bare host:port.
func Connect(redisURL string) (*goredis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := goredis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		return goredis.NewClient(opt), nil
	}
	return goredis.NewClient(&goredis.Options{Addr: redisURL}), nil
}

// New creates a Source on channel.
func New(client *goredis.Client, channel string, decoder *events.Decoder, logger *slog.Logger) (*Source, error) {
	if channel == "" {
		return nil, fmt.Errorf("redis source requires a channel: %w", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Source{
		client:  client,
		channel: channel,
		decoder: decoder,
		logger:  logger.With(slog.String("channel", channel)),
	}
	s.subscribe = func(ctx context.Context) (pubSub, error) {
		ps := s.client.Subscribe(ctx, s.channel)
		// Wait for the subscription confirmation so that events published
		// after Subscribe returns are not lost.
		if _, err := ps.Receive(ctx); err != nil {
			_ = ps.Close()
			return nil, err
		}
		return ps, nil
	}
	return s, nil
}

// Subscribe joins the channel and delivers each message to onEvent on a
// dedicated goroutine. Releasing the handle leaves the channel and waits
// for that goroutine.
func (s *Source) Subscribe(ctx context.Context, onEvent ports.EventCallback) (ports.Handle, error) {
	ps, err := s.subscribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribing to redis channel %s: %w", s.channel, err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	msgs := ps.Channel()

	go func() {
		defer close(done)
		for {
			select {
			case <-runCtx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				s.handle(runCtx, msg, onEvent)
			}
		}
	}()

	s.logger.InfoContext(ctx, "redis subscriber started")

	return handle.New(func() error {
		cancel()
		<-done
		if err := ps.Close(); err != nil {
			return fmt.Errorf("closing redis subscription: %w", err)
		}
		s.logger.Info("redis subscriber stopped")
		return nil
	}), nil
}

func (s *Source) handle(ctx context.Context, msg *goredis.Message, onEvent ports.EventCallback) {
	e, err := s.decoder.Decode([]byte(msg.Payload))
	if err != nil {
		s.logger.WarnContext(ctx, "dropping undecodable redis message", slog.Any("error", err))
		return
	}
	onEvent(ctx, e)
}

// Publish sends e to the channel as a structured CloudEvent.
func (s *Source) Publish(ctx context.Context, e event.Event) error {
	body, err := json.Marshal(s.decoder.ToCloudEvent(e, cloudEventSource))
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, body).Err(); err != nil {
		return fmt.Errorf("publishing to redis channel %s: %w", s.channel, err)
	}
	return nil
}

// Name implements ports.HealthChecker.
func (s *Source) Name() string {
	return "event-source"
}

// HealthCheck pings the Redis server.
func (s *Source) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
