// Package store provides the in-memory reactive state container used by
// every business domain. A Store owns the entities of one domain, keeps
// derived aggregates current, and changes only through ApplyEvent.
//
// Construction:
//
//	invoices := store.New[invoice.Invoice](event.DomainInvoice,
//	    store.WithDedupWindow[invoice.Invoice](1024),
//	    store.WithLogger[invoice.Invoice](logger),
//	)
//
// Mutation (called by the event router only):
//
//	err := invoices.ApplyEvent(ctx, evt)
//
// Reads and reactive updates:
//
//	inv, ok := invoices.Get("INV-1")
//	h := invoices.Watch(func(s store.Snapshot[invoice.Invoice]) { ... })
//	defer h.Release()
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/jsamuelsen11/storefeed/internal/app/handle"
	"github.com/jsamuelsen11/storefeed/internal/domain"
	"github.com/jsamuelsen11/storefeed/internal/domain/event"
	"github.com/jsamuelsen11/storefeed/internal/ports"
)

// DefaultDedupWindow is the number of recent event keys remembered when no
// WithDedupWindow option is given.
const DefaultDedupWindow = 1024

// Entity is the constraint for values held in a Store. Entities are flat,
// comparable structs so that an unchanged re-application can be detected.
type Entity interface {
	comparable
	EntityID() string
	EntityStatus() string
	Validate() error
}

// amounted is implemented by entities that contribute to the amount total.
type amounted interface {
	EntityAmount() int64
}

// Mutation computes the next entity for a domain-specific event kind.
// exists is false when no entity with the payload's ID is stored yet.
type Mutation[E Entity] func(current E, exists bool, payload json.RawMessage) (E, error)

// Aggregates are recomputed from the full entity map after every change.
type Aggregates struct {
	Count      int
	ByStatus   map[string]int
	TotalCents int64
}

// Snapshot is a point-in-time copy of a store's state.
type Snapshot[E Entity] struct {
	Domain     event.Domain
	Entities   map[string]E
	Aggregates Aggregates
	Version    uint64
}

// Outcome describes what ApplyEvent did with an event.
type Outcome int

const (
	// OutcomeApplied means the state changed.
	OutcomeApplied Outcome = iota
	// OutcomeUnchanged means the event was valid but left the state as is.
	OutcomeUnchanged
	// OutcomeDuplicate means the event key was already applied.
	OutcomeDuplicate
	// OutcomeIgnored means the event kind is not handled by this store.
	OutcomeIgnored
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeIgnored:
		return "ignored"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Option configures a Store.
type Option[E Entity] func(*Store[E])

// WithMutation registers a domain-specific event kind. Registering one of
// the generic kinds replaces the built-in behavior.
func WithMutation[E Entity](kind event.Kind, m Mutation[E]) Option[E] {
	return func(s *Store[E]) {
		s.mutations[kind] = m
	}
}

// WithDedupWindow sets how many recent event keys are remembered for
// redelivery detection. Zero disables the window.
func WithDedupWindow[E Entity](size int) Option[E] {
	return func(s *Store[E]) {
		s.dedup = newDedupWindow(size)
	}
}

// WithLogger sets the logger used for ignored and duplicate events.
func WithLogger[E Entity](logger *slog.Logger) Option[E] {
	return func(s *Store[E]) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store is the state container for one domain. It is safe for concurrent
// use; mutations are serialized by an internal lock.
type Store[E Entity] struct {
	domain event.Domain
	logger *slog.Logger

	mu         sync.RWMutex
	entities   map[string]E
	aggregates Aggregates
	version    uint64
	dedup      *dedupWindow
	mutations  map[event.Kind]Mutation[E]

	watchMu     sync.Mutex
	watchers    map[uint64]func(Snapshot[E])
	nextWatchID uint64
}

// New creates an empty Store for the given domain with the four generic
// event kinds (create, update, delete, status-change) registered.
func New[E Entity](d event.Domain, opts ...Option[E]) *Store[E] {
	s := &Store[E]{
		domain:     d,
		logger:     slog.New(slog.DiscardHandler),
		entities:   make(map[string]E),
		aggregates: Aggregates{ByStatus: map[string]int{}},
		dedup:      newDedupWindow(DefaultDedupWindow),
		mutations:  make(map[event.Kind]Mutation[E]),
		watchers:   make(map[uint64]func(Snapshot[E])),
	}
	s.mutations[event.KindCreate] = createEntity[E]
	s.mutations[event.KindUpdate] = mergeEntity[E]
	s.mutations[event.KindStatusChange] = changeStatus[E]

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Domain returns the domain this store owns.
func (s *Store[E]) Domain() event.Domain {
	return s.domain
}

// ApplyEvent implements ports.EventHandler.
func (s *Store[E]) ApplyEvent(ctx context.Context, e event.Event) error {
	_, err := s.Apply(ctx, e)
	return err
}

// Apply applies e and reports what happened.
//
// Returns domain.ErrDomainMismatch if e belongs to another domain and a
// *domain.ValidationError if the payload is malformed or the resulting
// entity is invalid. Unknown kinds are logged and ignored. A failed event is
// not remembered, so a corrected redelivery can still apply.
func (s *Store[E]) Apply(ctx context.Context, e event.Event) (Outcome, error) {
	if e.Domain != s.domain {
		return OutcomeIgnored, fmt.Errorf("%s store received %q event: %w", s.domain, e.Domain, domain.ErrDomainMismatch)
	}

	mutate, known := s.mutations[e.Kind]
	if !known && e.Kind != event.KindDelete {
		s.logger.WarnContext(ctx, "ignoring unknown event kind",
			slog.String("operation", "Store.Apply"),
			slog.Any("event", e),
			slog.Any("error", domain.ErrUnknownKind),
		)
		return OutcomeIgnored, nil
	}

	id, err := payloadID(e.Payload)
	if err != nil {
		return OutcomeIgnored, err
	}

	s.mu.Lock()
	key := e.Key()
	if s.dedup.seen(key) {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "skipping redelivered event",
			slog.String("operation", "Store.Apply"),
			slog.Any("event", e),
		)
		return OutcomeDuplicate, nil
	}

	outcome, err := s.applyLocked(e, id, mutate)
	if err != nil {
		s.mu.Unlock()
		return OutcomeIgnored, err
	}
	s.dedup.remember(key)

	var snap Snapshot[E]
	notify := outcome == OutcomeApplied && s.hasWatchers()
	if notify {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if notify {
		s.notify(snap)
	}
	return outcome, nil
}

// applyLocked computes and stores the next state for id. Must be called
// with s.mu held.
func (s *Store[E]) applyLocked(e event.Event, id string, mutate Mutation[E]) (Outcome, error) {
	current, exists := s.entities[id]

	if e.Kind == event.KindDelete && mutate == nil {
		if !exists {
			return OutcomeUnchanged, nil
		}
		delete(s.entities, id)
		s.changedLocked()
		return OutcomeApplied, nil
	}

	next, err := mutate(current, exists, e.Payload)
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("applying %s %s to %q: %w", s.domain, e.Kind, id, err)
	}
	if err := next.Validate(); err != nil {
		return OutcomeIgnored, fmt.Errorf("applying %s %s to %q: %w", s.domain, e.Kind, id, err)
	}
	if next.EntityID() != id {
		return OutcomeIgnored, &domain.ValidationError{
			Fields: map[string]string{"id": fmt.Sprintf("mutation changed id %q to %q", id, next.EntityID())},
		}
	}

	if exists && next == current {
		return OutcomeUnchanged, nil
	}
	s.entities[id] = next
	s.changedLocked()
	return OutcomeApplied, nil
}

// changedLocked recomputes aggregates and bumps the version.
func (s *Store[E]) changedLocked() {
	agg := Aggregates{Count: len(s.entities), ByStatus: make(map[string]int)}
	for _, ent := range s.entities {
		agg.ByStatus[ent.EntityStatus()]++
		if a, ok := any(ent).(amounted); ok {
			agg.TotalCents += a.EntityAmount()
		}
	}
	s.aggregates = agg
	s.version++
}

// Get returns the entity with the given ID.
func (s *Store[E]) Get(id string) (E, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ent, ok := s.entities[id]
	return ent, ok
}

// Aggregates returns a copy of the current aggregates.
func (s *Store[E]) Aggregates() Aggregates {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyAggregates(s.aggregates)
}

// Version returns a counter that increases with every state change.
func (s *Store[E]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns a copy of the full state.
func (s *Store[E]) Snapshot() Snapshot[E] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store[E]) snapshotLocked() Snapshot[E] {
	return Snapshot[E]{
		Domain:     s.domain,
		Entities:   maps.Clone(s.entities),
		Aggregates: copyAggregates(s.aggregates),
		Version:    s.version,
	}
}

// View implements ports.StoreReader.
func (s *Store[E]) View() ports.StoreView {
	snap := s.Snapshot()
	entities := make(map[string]any, len(snap.Entities))
	for id, ent := range snap.Entities {
		entities[id] = ent
	}
	return ports.StoreView{
		Domain:     snap.Domain,
		Entities:   entities,
		Count:      snap.Aggregates.Count,
		ByStatus:   snap.Aggregates.ByStatus,
		TotalCents: snap.Aggregates.TotalCents,
		Version:    snap.Version,
	}
}

// Lookup implements ports.StoreReader.
func (s *Store[E]) Lookup(id string) (any, error) {
	ent, ok := s.Get(id)
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", s.domain, id, domain.ErrNotFound)
	}
	return ent, nil
}

// Watch registers fn to receive a snapshot after every applied change.
// fn runs on the dispatching goroutine after the store lock is released and
// must return quickly. Release the returned handle to stop watching.
func (s *Store[E]) Watch(fn func(Snapshot[E])) ports.Handle {
	s.watchMu.Lock()
	id := s.nextWatchID
	s.nextWatchID++
	s.watchers[id] = fn
	s.watchMu.Unlock()

	return handle.New(func() error {
		s.watchMu.Lock()
		defer s.watchMu.Unlock()
		delete(s.watchers, id)
		return nil
	})
}

func (s *Store[E]) hasWatchers() bool {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	return len(s.watchers) > 0
}

func (s *Store[E]) notify(snap Snapshot[E]) {
	s.watchMu.Lock()
	fns := make([]func(Snapshot[E]), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.watchMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func copyAggregates(a Aggregates) Aggregates {
	a.ByStatus = maps.Clone(a.ByStatus)
	if a.ByStatus == nil {
		a.ByStatus = map[string]int{}
	}
	return a
}
