// Package kafka provides an event source backed by a Kafka topic. Each
// subscription owns one consumer and one delivery goroutine, so events are
// handed to the callback in partition order.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/jsamuelsen11/storefeed/internal/adapters/events"
	"github.com/jsamuelsen11/storefeed/internal/app/handle"
	"github.com/jsamuelsen11/storefeed/internal/domain"
	"github.com/jsamuelsen11/storefeed/internal/platform/config"
	"github.com/jsamuelsen11/storefeed/internal/ports"
)

// Compile-time interface checks.
var (
	_ ports.EventSource   = (*Source)(nil)
	_ ports.HealthChecker = (*Source)(nil)
)

const (
	cloudEventSource = "/storefeed"

	defaultMaxWait = 500 * time.Millisecond
	fetchBackoff   = time.Second
	maxBytes       = 10e6
)

// messageReader is the subset of *kafkago.Reader the source uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Source consumes domain events from a Kafka topic.
type Source struct {
	cfg       config.KafkaConfig
	decoder   *events.Decoder
	logger    *slog.Logger
	newReader func() messageReader
	dial      func(ctx context.Context, network, address string) (*kafkago.Conn, error)
}

// New creates a Source for cfg. No connection is made until Subscribe.
func New(cfg config.KafkaConfig, decoder *events.Decoder, logger *slog.Logger) (*Source, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka source requires at least one broker: %w", domain.ErrValidation)
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka source requires a topic: %w", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = defaultMaxWait
	}

	s := &Source{
		cfg:     cfg,
		decoder: decoder,
		logger:  logger.With(slog.String("topic", cfg.Topic)),
		dial:    (&kafkago.Dialer{Timeout: 5 * time.Second}).DialContext,
	}
	s.newReader = func() messageReader {
		return kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:  s.cfg.Brokers,
			GroupID:  s.cfg.GroupID,
			Topic:    s.cfg.Topic,
			MinBytes: 1,
			MaxBytes: maxBytes,
			MaxWait:  s.cfg.MaxWait,
		})
	}
	return s, nil
}

// Subscribe starts a consumer goroutine that decodes each message and hands
// it to onEvent. Releasing the handle stops the goroutine, waits for it and
// closes the consumer.
func (s *Source) Subscribe(ctx context.Context, onEvent ports.EventCallback) (ports.Handle, error) {
	reader := s.newReader()

	// The subscription outlives the caller's ctx; only Release stops it.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	go func() {
		defer close(done)
		s.consume(runCtx, reader, onEvent)
	}()

	s.logger.InfoContext(ctx, "kafka consumer started", slog.String("group_id", s.cfg.GroupID))

	return handle.New(func() error {
		cancel()
		<-done
		if err := reader.Close(); err != nil {
			return fmt.Errorf("closing kafka reader: %w", err)
		}
		s.logger.Info("kafka consumer stopped")
		return nil
	}), nil
}

func (s *Source) consume(ctx context.Context, reader messageReader, onEvent ports.EventCallback) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.ErrorContext(ctx, "failed to fetch kafka message",
				slog.String("operation", "FetchMessage"),
				slog.Any("error", err),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(fetchBackoff):
			}
			continue
		}

		e, err := s.decoder.DecodeBinary(headerMap(msg.Headers), msg.Value)
		if err != nil {
			// Poison message: log and skip so the partition keeps moving.
			s.logger.WarnContext(ctx, "dropping undecodable kafka message",
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
				slog.Any("error", err),
			)
		} else {
			onEvent(ctx, e)
		}

		s.commit(ctx, reader, msg)
	}
}

// commit acknowledges msg. Without a consumer group there is nothing to
// commit.
func (s *Source) commit(ctx context.Context, reader messageReader, msg kafkago.Message) {
	if s.cfg.GroupID == "" {
		return
	}
	if err := reader.CommitMessages(ctx, msg); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "failed to commit kafka offset",
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
			slog.Any("error", err),
		)
	}
}

// Name implements ports.HealthChecker.
func (s *Source) Name() string {
	return "event-source"
}

// HealthCheck succeeds if any configured broker accepts a connection.
func (s *Source) HealthCheck(ctx context.Context) error {
	var errs []error
	for _, broker := range s.cfg.Brokers {
		conn, err := s.dial(ctx, "tcp", broker)
		if err != nil {
			errs = append(errs, fmt.Errorf("broker %s: %w", broker, err))
			continue
		}
		_ = conn.Close()
		return nil
	}
	return fmt.Errorf("no kafka broker reachable: %w", errors.Join(append(errs, domain.ErrUnavailable)...))
}

func headerMap(headers []kafkago.Header) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		out[h.Key] = string(h.Value)
	}
	return out
}
