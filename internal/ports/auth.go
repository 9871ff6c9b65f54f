package ports

import (
	"context"

	"github.com/jsamuelsen11/storefeed/internal/domain/session"
)

// AuthProvider is the capability surface of the external authentication
// protocol. Implemented by the auth client adapters; called by the session
// gate. Token exchange and redirect handling stay inside the provider.
type AuthProvider interface {
	// EnsureReady blocks until the session reaches a terminal status or ctx
	// ends. The provider applies its own timeout and retry policy.
	EnsureReady(ctx context.Context) error

	// IsAuthenticated reports whether the session is established.
	IsAuthenticated() bool

	// Status returns the current session status.
	Status() session.Status

	// Login starts the external authentication flow and returns the URL the
	// user agent should be sent to. An empty URL means the flow continues
	// out of band.
	Login(ctx context.Context) (string, error)
}
