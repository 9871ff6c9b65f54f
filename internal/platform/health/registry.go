// Package health aggregates the readiness of the service's collaborators:
// the event source, the identity session, the domain listeners and, when
// polled over HTTP, the identity API client.
package health

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jsamuelsen11/storefeed/internal/ports"
)

// DefaultCheckTimeout bounds a single checker when none is configured.
const DefaultCheckTimeout = 2 * time.Second

var _ ports.HealthRegistry = (*Registry)(nil)

// Registry runs registered checkers concurrently, each under its own
// deadline. Checkers are keyed by Name; registering a name again replaces
// the earlier checker.
type Registry struct {
	timeout time.Duration

	mu       sync.RWMutex
	checkers []ports.HealthChecker
}

// Option configures a Registry.
type Option func(*Registry)

// WithCheckTimeout sets the per-checker deadline. Non-positive values keep
// the default.
func WithCheckTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{timeout: DefaultCheckTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds checker, replacing any checker with the same name.
func (r *Registry) Register(checker ports.HealthChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := checker.Name()
	r.checkers = slices.DeleteFunc(r.checkers, func(c ports.HealthChecker) bool {
		return c.Name() == name
	})
	r.checkers = append(r.checkers, checker)
}

// CheckAll runs every checker and returns the results keyed by name; nil
// means healthy. A checker that overruns its deadline reports the context
// error even if it ignores ctx.
func (r *Registry) CheckAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	checkers := slices.Clone(r.checkers)
	r.mu.RUnlock()

	errs := make([]error, len(checkers))
	var wg sync.WaitGroup
	for i, c := range checkers {
		wg.Go(func() { errs[i] = r.check(ctx, c) })
	}
	wg.Wait()

	out := make(map[string]error, len(checkers))
	for i, c := range checkers {
		out[c.Name()] = errs[i]
	}
	return out
}

func (r *Registry) check(ctx context.Context, c ports.HealthChecker) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.HealthCheck(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", c.Name(), ctx.Err())
	}
}
