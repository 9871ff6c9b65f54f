package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/jsamuelsen11/storefeed/internal/adapters/events"
	"github.com/jsamuelsen11/storefeed/internal/domain"
	"github.com/jsamuelsen11/storefeed/internal/domain/event"
	"github.com/jsamuelsen11/storefeed/internal/platform/config"
)

type fakeWriter struct {
	msgs []kafkago.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestPublisher_WritesDecodableBinaryMessage(t *testing.T) {
	t.Parallel()

	dec := events.NewDecoder("com.storefeed")
	p, err := NewPublisher(config.KafkaConfig{Brokers: []string{"b:9092"}, Topic: "domain-events"}, dec)
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	w := &fakeWriter{}
	p.writer = w

	in := event.Event{
		Domain:     event.DomainInvoice,
		Kind:       event.KindStatusChange,
		Payload:    json.RawMessage(`{"id":"INV-1","status":"paid"}`),
		OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		SourceID:   "s1",
	}
	if err := p.Publish(context.Background(), in); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "invoice" {
		t.Errorf("Key = %q, want invoice", msg.Key)
	}

	// What the publisher writes, the source reads back unchanged.
	out, err := dec.DecodeBinary(headerMap(msg.Headers), msg.Value)
	if err != nil {
		t.Fatalf("DecodeBinary() error = %v", err)
	}
	if out.Key() != in.Key() || out.Domain != in.Domain || out.Kind != in.Kind {
		t.Errorf("decoded = %+v, want %+v", out, in)
	}
}

func TestPublisher_Errors(t *testing.T) {
	t.Parallel()

	dec := events.NewDecoder("com.storefeed")
	if _, err := NewPublisher(config.KafkaConfig{}, dec); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("NewPublisher(empty) error = %v, want ErrValidation", err)
	}

	p, err := NewPublisher(config.KafkaConfig{Brokers: []string{"b:9092"}, Topic: "t"}, dec)
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	p.writer = &fakeWriter{err: kafkago.LeaderNotAvailable}
	if err := p.Publish(context.Background(), event.Event{Domain: event.DomainOrder}); !errors.Is(err, kafkago.LeaderNotAvailable) {
		t.Errorf("Publish() error = %v, want LeaderNotAvailable", err)
	}
}
