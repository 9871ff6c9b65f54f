// Package memory provides an in-process event source. Events are published
// directly (by the HTTP ingestion endpoint or by tests) and delivered
// synchronously to every live subscriber.
package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jsamuelsen11/storefeed/internal/app/handle"
	"github.com/jsamuelsen11/storefeed/internal/domain/event"
	"github.com/jsamuelsen11/storefeed/internal/ports"
)

// Compile-time interface checks.
var (
	_ ports.EventSource    = (*Source)(nil)
	_ ports.EventPublisher = (*Source)(nil)
	_ ports.HealthChecker  = (*Source)(nil)
)

// Source is a push-based in-memory event source.
type Source struct {
	// publishMu serializes Publish so concurrent publishers never
	// interleave deliveries.
	publishMu sync.Mutex

	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*subscriber
	logger *slog.Logger
}

type subscriber struct {
	mu     sync.Mutex
	closed bool
	fn     ports.EventCallback
}

// New creates an empty Source.
func New(logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{
		subs:   make(map[uint64]*subscriber),
		logger: logger,
	}
}

// Subscribe registers onEvent. Releasing the handle waits for an in-flight
// delivery to that subscriber to return.
func (s *Source) Subscribe(_ context.Context, onEvent ports.EventCallback) (ports.Handle, error) {
	sub := &subscriber{fn: onEvent}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = sub
	s.mu.Unlock()

	s.logger.Debug("memory source subscribed", slog.Uint64("subscription", id))

	return handle.New(func() error {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()

		sub.mu.Lock()
		sub.closed = true
		sub.mu.Unlock()

		s.logger.Debug("memory source unsubscribed", slog.Uint64("subscription", id))
		return nil
	}), nil
}

// Publish delivers e to every live subscriber on the caller's goroutine.
// It never fails.
func (s *Source) Publish(ctx context.Context, e event.Event) error {
	s.Deliver(ctx, e)
	return nil
}

// Deliver is Publish returning how many subscribers received e.
func (s *Source) Deliver(ctx context.Context, e event.Event) int {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.RLock()
	subs := make([]*subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		if sub.deliver(ctx, e) {
			delivered++
		}
	}
	return delivered
}

// Name implements ports.HealthChecker.
func (s *Source) Name() string {
	return "event-source"
}

// HealthCheck always succeeds: an in-memory source cannot be unreachable.
func (s *Source) HealthCheck(_ context.Context) error {
	return nil
}

func (sub *subscriber) deliver(ctx context.Context, e event.Event) bool {
	sub.mu.Lock()
	defer sub.mu.Unlock()

	if sub.closed {
		return false
	}
	sub.fn(ctx, e)
	return true
}
