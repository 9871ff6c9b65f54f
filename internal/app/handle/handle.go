// Package handle provides idempotent release handles for registrations
// (event listeners, source subscriptions, store watchers) and a composite
// handle that releases a group of them as one unit.
//
//	h := handle.New(func() error { return unsubscribe() })
//	all := handle.Compose(h, other)
//	err := all.Release() // every member attempted, failures joined
//	err = all.Release()  // no-op, returns nil
package handle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jsamuelsen11/storefeed/internal/app/fanout"
	"github.com/jsamuelsen11/storefeed/internal/ports"
)

// Compile-time interface checks.
var (
	_ ports.Handle = (*Func)(nil)
	_ ports.Handle = (*Composite)(nil)
)

// Func adapts a release function into an idempotent ports.Handle.
// The function runs at most once; its error is returned from the first
// Release only.
type Func struct {
	once     sync.Once
	fn       func() error
	released atomic.Bool
}

// New wraps fn in a Func handle. A nil fn yields a handle whose Release is
// always a no-op.
func New(fn func() error) *Func {
	return &Func{fn: fn}
}

// Release runs the release function on the first call and returns its
// error. Subsequent calls return nil without running anything.
func (h *Func) Release() error {
	var err error
	h.once.Do(func() {
		h.released.Store(true)
		if h.fn != nil {
			err = h.fn()
		}
	})
	return err
}

// Released reports whether Release has been called.
func (h *Func) Released() bool {
	return h.released.Load()
}

// Composite groups handles so they can be released together. Members are
// released concurrently; a failing member never prevents the others from
// being released.
type Composite struct {
	mu       sync.Mutex
	members  []ports.Handle
	released bool
}

// Compose creates a Composite over the given handles. Nil handles are
// skipped.
func Compose(members ...ports.Handle) *Composite {
	c := &Composite{}
	for _, m := range members {
		if m != nil {
			c.members = append(c.members, m)
		}
	}
	return c
}

// Release releases every member exactly once and returns their failures
// joined with errors.Join. Panics raised by a member are converted into
// errors. Subsequent calls return nil.
func (c *Composite) Release() error {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return nil
	}
	c.released = true
	members := c.members
	c.members = nil
	c.mu.Unlock()

	results := fanout.Run(context.Background(), len(members), members,
		func(_ context.Context, h ports.Handle) (struct{}, error) {
			return struct{}{}, safeRelease(h)
		})
	return fanout.JoinErrors(results)
}

// safeRelease calls h.Release and converts a panic into an error.
func safeRelease(h ports.Handle) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("release panicked: %v", v)
		}
	}()
	return h.Release()
}
