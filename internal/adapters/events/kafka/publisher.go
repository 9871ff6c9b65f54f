package kafka

import (
	"context"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/jsamuelsen11/storefeed/internal/adapters/events"
	"github.com/jsamuelsen11/storefeed/internal/domain"
	"github.com/jsamuelsen11/storefeed/internal/domain/event"
	"github.com/jsamuelsen11/storefeed/internal/platform/config"
	"github.com/jsamuelsen11/storefeed/internal/ports"
)

// Compile-time interface check.
var _ ports.EventPublisher = (*Publisher)(nil)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes domain events to the topic as binary-mode CloudEvents.
// Messages are keyed by domain so that one domain's events land on one
// partition and keep their order.
type Publisher struct {
	writer  messageWriter
	decoder *events.Decoder
}

// NewPublisher creates a Publisher for cfg.Topic.
func NewPublisher(cfg config.KafkaConfig, decoder *events.Decoder) (*Publisher, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("kafka publisher requires brokers and a topic: %w", domain.ErrValidation)
	}
	return &Publisher{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
		decoder: decoder,
	}, nil
}

// Publish writes e and waits for the brokers to acknowledge it.
func (p *Publisher) Publish(ctx context.Context, e event.Event) error {
	ce := p.decoder.ToCloudEvent(e, cloudEventSource)

	msg := kafkago.Message{
		Key:   []byte(e.Domain),
		Value: ce.Data,
		Headers: []kafkago.Header{
			{Key: events.HeaderSpecVersion, Value: []byte(ce.SpecVersion)},
			{Key: events.HeaderID, Value: []byte(ce.ID)},
			{Key: events.HeaderSource, Value: []byte(ce.Source)},
			{Key: events.HeaderType, Value: []byte(ce.Type)},
			{Key: events.HeaderTime, Value: []byte(e.OccurredAt.UTC().Format(time.RFC3339Nano))},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing kafka message: %w", err)
	}
	return nil
}

// Close flushes pending writes and releases the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
