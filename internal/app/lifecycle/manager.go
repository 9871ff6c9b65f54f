// Package lifecycle sets up and tears down the domain listeners as one unit
// tied to the process lifetime.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jsamuelsen11/storefeed/internal/app/router"
	"github.com/jsamuelsen11/storefeed/internal/app/stores"
	"github.com/jsamuelsen11/storefeed/internal/domain"
	"github.com/jsamuelsen11/storefeed/internal/domain/session"
	"github.com/jsamuelsen11/storefeed/internal/ports"
)

// Compile-time interface check.
var _ ports.HealthChecker = (*Manager)(nil)

// SessionState reports the identity session status. Satisfied by the
// session gate.
type SessionState interface {
	Status() session.Status
}

// Readier waits for the session to settle. Satisfied by the session gate.
type Readier interface {
	EnsureReady(ctx context.Context) error
}

// Manager owns the single live router subscription covering every domain
// store.
type Manager struct {
	router  *router.Router
	entries []stores.Entry
	session SessionState
	logger  *slog.Logger

	// lifeMu serializes Initialize and Teardown, so a new subscription
	// never opens while the previous one is still detaching.
	lifeMu sync.Mutex
	mu     sync.Mutex
	sub    *router.Subscription
}

// New creates a Manager that binds every store in set through r. Listeners
// are not registered until Initialize.
func New(r *router.Router, set *stores.Set, sess SessionState, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		router:  r,
		entries: set.Entries(),
		session: sess,
		logger:  logger,
	}
}

// Initialize registers one listener per domain store.
//
// Returns domain.ErrSessionPending if the session has not settled and
// domain.ErrAlreadyInitialized if listeners are already registered.
func (m *Manager) Initialize(ctx context.Context) error {
	if st := m.session.Status(); !st.IsTerminal() {
		return fmt.Errorf("initializing listeners (session %s): %w", st, domain.ErrSessionPending)
	}

	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	if m.current() != nil {
		return fmt.Errorf("initializing listeners: %w", domain.ErrAlreadyInitialized)
	}

	bindings := make([]router.Binding, 0, len(m.entries))
	for _, e := range m.entries {
		bindings = append(bindings, router.Binding{Domain: e.Domain, Handler: e.Handler})
	}

	sub, err := m.router.Start(ctx, bindings)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to initialize listeners",
			slog.String("operation", "Initialize"),
			slog.Any("error", err),
		)
		return fmt.Errorf("initializing listeners: %w", err)
	}
	m.mu.Lock()
	m.sub = sub
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "listeners initialized", slog.Int("active", sub.Active()))
	return nil
}

// Await waits for the session and initializes the listeners, retrying
// every interval until Initialize succeeds or ctx ends. Listeners that are
// already initialized count as success.
func (m *Manager) Await(ctx context.Context, ready Readier, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := ready.EnsureReady(ctx); err != nil {
			m.logger.WarnContext(ctx, "session not settled", slog.Any("error", err))
		}

		err := m.Initialize(ctx)
		if err == nil || errors.Is(err, domain.ErrAlreadyInitialized) {
			return nil
		}
		m.logger.InfoContext(ctx, "listener initialization deferred",
			slog.Duration("retry_in", interval),
			slog.Any("error", err),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("awaiting listeners: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Teardown releases every listener and the source subscription. All
// releases are attempted even when some fail; failures are joined. Calling
// Teardown without a live subscription is a no-op that returns nil. The
// subscription is cleared only once its release has returned.
func (m *Manager) Teardown() error {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	sub := m.current()
	if sub == nil {
		return nil
	}

	err := sub.Release()

	m.mu.Lock()
	m.sub = nil
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("listener teardown incomplete",
			slog.String("operation", "Teardown"),
			slog.Any("error", err),
		)
		return fmt.Errorf("tearing down listeners: %w", err)
	}

	m.logger.Info("listeners torn down")
	return nil
}

// Active returns the number of registered domain listeners.
func (m *Manager) Active() int {
	if sub := m.current(); sub != nil {
		return sub.Active()
	}
	return 0
}

func (m *Manager) current() *router.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sub
}

// Name implements ports.HealthChecker.
func (m *Manager) Name() string {
	return "listeners"
}

// HealthCheck reports unhealthy until every domain has an active listener,
// naming the domains without one.
func (m *Manager) HealthCheck(_ context.Context) error {
	sub := m.current()

	var missing []string
	for _, e := range m.entries {
		if sub == nil || sub.Listener(e.Domain) == nil || sub.Listener(e.Domain).Released() {
			missing = append(missing, string(e.Domain))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("no active listener for %s: %w", strings.Join(missing, ", "), domain.ErrUnavailable)
	}
	return nil
}
