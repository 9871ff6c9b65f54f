package lifecycle_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen11/storefeed/internal/app/handle"
	"github.com/jsamuelsen11/storefeed/internal/app/lifecycle"
	"github.com/jsamuelsen11/storefeed/internal/app/router"
	"github.com/jsamuelsen11/storefeed/internal/app/stores"
	"github.com/jsamuelsen11/storefeed/internal/domain"
	"github.com/jsamuelsen11/storefeed/internal/domain/event"
	"github.com/jsamuelsen11/storefeed/internal/domain/session"
	"github.com/jsamuelsen11/storefeed/internal/ports"
	"github.com/jsamuelsen11/storefeed/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fanoutSource delivers each published event to every live subscriber.
type fanoutSource struct {
	mu   sync.Mutex
	next int
	subs map[int]ports.EventCallback
}

func newFanoutSource() *fanoutSource {
	return &fanoutSource{subs: make(map[int]ports.EventCallback)}
}

func (s *fanoutSource) Subscribe(_ context.Context, onEvent ports.EventCallback) (ports.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	s.subs[id] = onEvent
	return handle.New(func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
		return nil
	}), nil
}

func (s *fanoutSource) publish(ctx context.Context, e event.Event) {
	s.mu.Lock()
	subs := make([]ports.EventCallback, 0, len(s.subs))
	for _, cb := range s.subs {
		subs = append(subs, cb)
	}
	s.mu.Unlock()

	for _, cb := range subs {
		cb(ctx, e)
	}
}

func (s *fanoutSource) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func sessionWith(t *testing.T, st session.Status) *mocks.MockAuthProvider {
	t.Helper()
	p := mocks.NewMockAuthProvider(t)
	p.EXPECT().Status().Return(st).Maybe()
	return p
}

func newManager(t *testing.T, src ports.EventSource, st session.Status) (*lifecycle.Manager, *stores.Set) {
	t.Helper()
	set := stores.New(stores.Options{})
	r := router.New(src, discardLogger(), nil)
	return lifecycle.New(r, set, sessionWith(t, st), discardLogger()), set
}

func TestManager_InitializeRequiresSettledSession(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, mocks.NewMockEventSource(t), session.StatusPending)

	err := m.Initialize(context.Background())
	if !errors.Is(err, domain.ErrSessionPending) {
		t.Fatalf("Initialize() error = %v, want ErrSessionPending", err)
	}
	if m.Active() != 0 {
		t.Errorf("Active() = %d, want 0", m.Active())
	}
}

func TestManager_InitializeOnSessionError(t *testing.T) {
	t.Parallel()

	src := newFanoutSource()
	m, _ := newManager(t, src, session.StatusError)

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v, want nil for a settled error session", err)
	}
	t.Cleanup(func() { _ = m.Teardown() })

	if m.Active() != 5 {
		t.Errorf("Active() = %d, want 5", m.Active())
	}
}

func TestManager_Lifecycle(t *testing.T) {
	t.Parallel()

	src := newFanoutSource()
	m, set := newManager(t, src, session.StatusAuthenticated)
	ctx := context.Background()

	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if got := m.Active(); got != 5 {
		t.Fatalf("Active() = %d, want 5", got)
	}

	if err := m.Initialize(ctx); !errors.Is(err, domain.ErrAlreadyInitialized) {
		t.Fatalf("second Initialize() error = %v, want ErrAlreadyInitialized", err)
	}
	if src.subscribers() != 1 {
		t.Errorf("source subscribers = %d, want 1", src.subscribers())
	}

	if err := m.Teardown(); err != nil {
		t.Fatalf("Teardown() error = %v", err)
	}
	if err := m.Teardown(); err != nil {
		t.Fatalf("second Teardown() error = %v", err)
	}
	if got := m.Active(); got != 0 {
		t.Errorf("Active() after teardown = %d, want 0", got)
	}
	if src.subscribers() != 0 {
		t.Errorf("source subscribers after teardown = %d, want 0", src.subscribers())
	}

	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("re-Initialize() error = %v", err)
	}
	t.Cleanup(func() { _ = m.Teardown() })

	if got := m.Active(); got != 5 {
		t.Errorf("Active() after re-init = %d, want 5", got)
	}
	if src.subscribers() != 1 {
		t.Errorf("source subscribers after re-init = %d, want 1", src.subscribers())
	}

	// A single delivery is applied once: no listener survived the teardown.
	src.publish(ctx, event.Event{
		Domain:     event.DomainInvoice,
		Kind:       event.KindCreate,
		Payload:    json.RawMessage(`{"id":"INV-1","amountCents":700,"status":"issued"}`),
		OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		SourceID:   "s1",
	})
	if v := set.Invoices.Version(); v != 1 {
		t.Errorf("invoice store Version() = %d, want 1", v)
	}
}

func TestManager_TeardownCollectsFailures(t *testing.T) {
	t.Parallel()

	srcHandle := mocks.NewMockHandle(t)
	srcHandle.EXPECT().Release().Return(errors.New("broker gone")).Once()

	src := mocks.NewMockEventSource(t)
	src.EXPECT().Subscribe(mock.Anything, mock.Anything).Return(srcHandle, nil).Once()

	m, _ := newManager(t, src, session.StatusAuthenticated)
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if err := m.Teardown(); err == nil {
		t.Fatal("Teardown() error = nil, want source release failure")
	}
	if got := m.Active(); got != 0 {
		t.Errorf("Active() = %d, want 0; listeners must be released despite the failure", got)
	}
	if err := m.Teardown(); err != nil {
		t.Errorf("second Teardown() error = %v, want nil", err)
	}
}

// slowReleaseSource holds the first subscription's release open until
// unblock is closed.
type slowReleaseSource struct {
	subscribes atomic.Int32
	releasing  chan struct{}
	unblock    chan struct{}
}

func (s *slowReleaseSource) Subscribe(context.Context, ports.EventCallback) (ports.Handle, error) {
	if s.subscribes.Add(1) > 1 {
		return handle.New(nil), nil
	}
	return handle.New(func() error {
		close(s.releasing)
		<-s.unblock
		return nil
	}), nil
}

func TestManager_InitializeWaitsForTeardown(t *testing.T) {
	t.Parallel()

	src := &slowReleaseSource{releasing: make(chan struct{}), unblock: make(chan struct{})}
	m, _ := newManager(t, src, session.StatusAuthenticated)
	ctx := context.Background()

	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	var wg sync.WaitGroup
	wg.Go(func() {
		if err := m.Teardown(); err != nil {
			t.Errorf("Teardown() error = %v", err)
		}
	})
	<-src.releasing

	initErr := make(chan error, 1)
	go func() { initErr <- m.Initialize(ctx) }()

	select {
	case err := <-initErr:
		t.Fatalf("Initialize() returned %v while the previous subscription was detaching", err)
	case <-time.After(50 * time.Millisecond):
	}
	if got := src.subscribes.Load(); got != 1 {
		t.Fatalf("subscriptions opened during teardown = %d, want 1", got)
	}

	close(src.unblock)
	wg.Wait()

	if err := <-initErr; err != nil {
		t.Fatalf("Initialize() after teardown error = %v", err)
	}
	if got := src.subscribes.Load(); got != 2 {
		t.Errorf("subscriptions = %d, want 2", got)
	}
	if m.Active() != 5 {
		t.Errorf("Active() = %d, want 5", m.Active())
	}
	_ = m.Teardown()
}

func TestManager_InitializeSubscribeFailure(t *testing.T) {
	t.Parallel()

	src := mocks.NewMockEventSource(t)
	src.EXPECT().Subscribe(mock.Anything, mock.Anything).Return(nil, domain.ErrUnavailable).Once()
	src.EXPECT().Subscribe(mock.Anything, mock.Anything).Return(handle.New(nil), nil).Once()

	m, _ := newManager(t, src, session.StatusAuthenticated)
	ctx := context.Background()

	if err := m.Initialize(ctx); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("Initialize() error = %v, want ErrUnavailable", err)
	}
	if m.Active() != 0 {
		t.Errorf("Active() = %d, want 0", m.Active())
	}

	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("retry Initialize() error = %v", err)
	}
	if err := m.Teardown(); err != nil {
		t.Errorf("Teardown() error = %v", err)
	}
}

func TestManager_HealthCheck(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, newFanoutSource(), session.StatusAuthenticated)
	ctx := context.Background()

	if m.Name() != "listeners" {
		t.Errorf("Name() = %q, want %q", m.Name(), "listeners")
	}
	if err := m.HealthCheck(ctx); !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("HealthCheck() before init = %v, want ErrUnavailable", err)
	}

	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := m.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() after init = %v, want nil", err)
	}

	if err := m.Teardown(); err != nil {
		t.Fatalf("Teardown() error = %v", err)
	}
	err := m.HealthCheck(ctx)
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("HealthCheck() after teardown = %v, want ErrUnavailable", err)
	}
	for _, d := range event.Domains() {
		if !strings.Contains(err.Error(), string(d)) {
			t.Errorf("HealthCheck() error %q does not name %s", err, d)
		}
	}
}

// settlingSession reports pending until its EnsureReady has been called
// settleAfter times.
type settlingSession struct {
	mu          sync.Mutex
	calls       int
	settleAfter int
}

func (s *settlingSession) EnsureReady(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return nil
}

func (s *settlingSession) Status() session.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls >= s.settleAfter {
		return session.StatusAuthenticated
	}
	return session.StatusPending
}

func TestManager_AwaitRetriesUntilSettled(t *testing.T) {
	t.Parallel()

	sess := &settlingSession{settleAfter: 3}
	src := newFanoutSource()
	m := lifecycle.New(router.New(src, discardLogger(), nil), stores.New(stores.Options{}), sess, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Await(ctx, sess, time.Millisecond); err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	t.Cleanup(func() { _ = m.Teardown() })

	if m.Active() != 5 {
		t.Errorf("Active() = %d, want 5", m.Active())
	}
	if src.subscribers() != 1 {
		t.Errorf("source subscribers = %d, want 1", src.subscribers())
	}

	// A second Await is a no-op.
	if err := m.Await(ctx, sess, time.Millisecond); err != nil {
		t.Errorf("second Await() error = %v", err)
	}
	if src.subscribers() != 1 {
		t.Errorf("source subscribers after second Await = %d, want 1", src.subscribers())
	}
}

func TestManager_AwaitStopsOnContext(t *testing.T) {
	t.Parallel()

	sess := &settlingSession{settleAfter: 1 << 30}
	m := lifecycle.New(router.New(newFanoutSource(), discardLogger(), nil), stores.New(stores.Options{}), sess, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := m.Await(ctx, sess, 5*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Await() error = %v, want DeadlineExceeded", err)
	}
	if m.Active() != 0 {
		t.Errorf("Active() = %d, want 0", m.Active())
	}
}
