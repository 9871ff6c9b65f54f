package ports

import (
	"context"

	"github.com/jsamuelsen11/storefeed/internal/domain/event"
)

// Handle is an opaque token for an active registration. The first Release
// unregisters; later calls are no-ops that return nil.
type Handle interface {
	Release() error
}

// EventCallback receives one decoded event. Sources invoke it sequentially
// for a given subscription; it must not block for long.
type EventCallback func(ctx context.Context, e event.Event)

// EventSource is a push-based channel delivering domain events.
// Implemented by the memory, Kafka and Redis adapters; called by the router.
type EventSource interface {
	// Subscribe registers onEvent and returns immediately. Delivery happens
	// on a source-owned goroutine until the returned handle is released.
	// Releasing waits for an in-flight callback to return.
	Subscribe(ctx context.Context, onEvent EventCallback) (Handle, error)
}

// EventHandler is the mutation entrypoint of a domain store.
type EventHandler interface {
	// ApplyEvent applies the event to the store's state. Applying the same
	// event (same source ID and occurrence time) twice must leave the state
	// as if it were applied once. Unknown event kinds are ignored.
	ApplyEvent(ctx context.Context, e event.Event) error
}

// EventPublisher injects an event into the event source. Used by the HTTP
// ingestion endpoint; implemented by every source adapter.
type EventPublisher interface {
	Publish(ctx context.Context, e event.Event) error
}
