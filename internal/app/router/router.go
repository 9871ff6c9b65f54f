// Package router routes domain events from a single event source to the
// store that owns each domain.
//
// The Router itself holds no state. Each call to Start produces a
// Subscription that owns its listener table and the source subscription;
// releasing the Subscription detaches everything Start registered.
//
//	sub, err := r.Start(ctx, []router.Binding{{Domain: event.DomainInvoice, Handler: invoices}})
//	defer sub.Release()
package router

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen11/storefeed/internal/app/handle"
	"github.com/jsamuelsen11/storefeed/internal/domain"
	"github.com/jsamuelsen11/storefeed/internal/domain/event"
	"github.com/jsamuelsen11/storefeed/internal/ports"
	"github.com/jsamuelsen11/storefeed/internal/platform/telemetry"
)

// Dispatch results recorded on the events.dispatched counter.
const (
	ResultApplied = "applied"
	ResultDropped = "dropped"
	ResultError   = "error"
)

// Drop reasons.
const (
	reasonUnknownDomain = "unknown_domain"
	reasonNoListener    = "no_listener"
	reasonInvalid       = "invalid_event"
)

var attrDropReason = attribute.Key("reason")

// Compile-time interface check.
var _ ports.Handle = (*Subscription)(nil)

// Binding attaches a handler to one domain.
type Binding struct {
	Domain  event.Domain
	Handler ports.EventHandler
}

// Router opens subscriptions on an event source and dispatches each event
// to the handler bound to its domain.
type Router struct {
	source  ports.EventSource
	logger  *slog.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer
}

// New creates a Router over source. If metrics is nil, metric recording is
// skipped.
func New(source ports.EventSource, logger *slog.Logger, metrics *telemetry.Metrics) *Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Router{
		source:  source,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.GetTracerProvider().Tracer("router"),
	}
}

// Start validates the bindings, opens exactly one subscription on the event
// source and returns the Subscription that owns it.
//
// Returns domain.ErrUnknownDomain for a binding whose domain is not one of
// the five known domains, domain.ErrValidation for a nil handler and
// domain.ErrDuplicateListener when two bindings name the same domain.
func (r *Router) Start(ctx context.Context, bindings []Binding) (*Subscription, error) {
	sub := &Subscription{
		router:    r,
		listeners: make(map[event.Domain]*listener, len(bindings)),
	}

	for _, b := range bindings {
		if !b.Domain.IsKnown() {
			return nil, fmt.Errorf("binding %q: %w", b.Domain, domain.ErrUnknownDomain)
		}
		if b.Handler == nil {
			return nil, fmt.Errorf("binding %q: nil handler: %w", b.Domain, domain.ErrValidation)
		}
		if _, dup := sub.listeners[b.Domain]; dup {
			return nil, fmt.Errorf("binding %q: %w", b.Domain, domain.ErrDuplicateListener)
		}
		sub.listeners[b.Domain] = newListener(b.Domain, b.Handler)
		sub.order = append(sub.order, b.Domain)
	}

	members := make([]ports.Handle, 0, len(bindings)+1)
	for _, d := range sub.order {
		members = append(members, sub.listeners[d].handle)
	}

	srcHandle, err := r.source.Subscribe(ctx, sub.dispatch)
	if err != nil {
		return nil, fmt.Errorf("subscribing to event source: %w", err)
	}
	members = append(members, srcHandle)
	sub.handle = handle.Compose(members...)

	r.logger.InfoContext(ctx, "event router started", slog.Int("listeners", len(sub.order)))
	return sub, nil
}

// Subscription is the live result of one Start call.
type Subscription struct {
	router    *Router
	listeners map[event.Domain]*listener
	order     []event.Domain
	handle    *handle.Composite
}

// Release detaches every listener and closes the source subscription. All
// releases are attempted; failures are joined. Later calls return nil.
func (s *Subscription) Release() error {
	return s.handle.Release()
}

// Active returns the number of listeners not yet released.
func (s *Subscription) Active() int {
	n := 0
	for _, l := range s.listeners {
		if !l.handle.Released() {
			n++
		}
	}
	return n
}

// Listener returns the release handle of the listener bound to d, or nil
// if no binding named d.
func (s *Subscription) Listener(d event.Domain) *handle.Func {
	l, ok := s.listeners[d]
	if !ok {
		return nil
	}
	return l.handle
}

// Domains returns the bound domains in binding order.
func (s *Subscription) Domains() []event.Domain {
	out := make([]event.Domain, len(s.order))
	copy(out, s.order)
	return out
}

// dispatch is the callback handed to the event source. It never returns an
// error and never panics: every failure ends at this boundary.
func (s *Subscription) dispatch(ctx context.Context, e event.Event) {
	r := s.router
	start := time.Now()

	ctx, span := r.tracer.Start(ctx, "event.dispatch",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("event.domain", string(e.Domain)),
			attribute.String("event.kind", string(e.Kind)),
			attribute.String("event.source_id", e.SourceID),
		),
	)
	defer span.End()

	result, reason, err := s.route(ctx, e)

	switch result {
	case ResultDropped:
		span.SetAttributes(attrDropReason.String(reason))
	case ResultError:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	r.recordMetrics(ctx, e, result, reason, start)
}

// route performs the lookup and invocation and logs the outcome.
func (s *Subscription) route(ctx context.Context, e event.Event) (result, reason string, err error) {
	logger := s.router.logger

	if err := e.Validate(); err != nil {
		logger.WarnContext(ctx, "dropping malformed event",
			slog.Any("event", e),
			slog.Any("error", err),
		)
		return ResultDropped, reasonInvalid, nil
	}

	if !e.Domain.IsKnown() {
		logger.WarnContext(ctx, "dropping event for unknown domain",
			slog.Any("event", e),
			slog.Any("error", domain.ErrUnknownDomain),
		)
		return ResultDropped, reasonUnknownDomain, nil
	}

	l, ok := s.listeners[e.Domain]
	if !ok {
		logger.DebugContext(ctx, "no listener bound for domain", slog.Any("event", e))
		return ResultDropped, reasonNoListener, nil
	}

	delivered, err := l.deliver(ctx, e)
	if !delivered {
		logger.DebugContext(ctx, "listener released, dropping event", slog.Any("event", e))
		return ResultDropped, reasonNoListener, nil
	}
	if err != nil {
		logger.ErrorContext(ctx, "event handler failed",
			slog.String("operation", "ApplyEvent"),
			slog.Any("event", e),
			slog.Any("error", err),
		)
		return ResultError, "", err
	}

	return ResultApplied, "", nil
}

// recordMetrics records dispatch count and duration. Safe to call with nil
// metrics.
func (r *Router) recordMetrics(ctx context.Context, e event.Event, result, reason string, start time.Time) {
	if r.metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{
		telemetry.AttrEventDomain.String(string(e.Domain)),
		telemetry.AttrEventKind.String(string(e.Kind)),
		telemetry.AttrResult.String(result),
	}
	if reason != "" {
		attrs = append(attrs, attrDropReason.String(reason))
	}
	opt := metric.WithAttributes(attrs...)

	r.metrics.EventDispatchDuration.Record(ctx, time.Since(start).Seconds(), opt)
	r.metrics.EventDispatchTotal.Add(ctx, 1, opt)
}

// listener is one domain binding. Its mutex is held for the whole of a
// delivery, so Release waits for an in-flight delivery to finish and no
// delivery starts after it.
type listener struct {
	domain   event.Domain
	handler  ports.EventHandler
	mu       sync.Mutex
	detached atomic.Bool
	handle   *handle.Func
}

func newListener(d event.Domain, h ports.EventHandler) *listener {
	l := &listener{domain: d, handler: h}
	l.handle = handle.New(func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.detached.Store(true)
		return nil
	})
	return l
}

// deliver applies e unless the listener has been released. A panic in the
// handler is returned as an error.
func (l *listener) deliver(ctx context.Context, e event.Event) (delivered bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.detached.Load() {
		return false, nil
	}

	delivered = true
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("handler for %s panicked: %v", l.domain, v)
		}
	}()

	if err := l.handler.ApplyEvent(ctx, e); err != nil {
		return delivered, fmt.Errorf("applying %s/%s: %w", e.Domain, e.Kind, err)
	}
	return delivered, nil
}
