package auth

import (
	"context"

	"github.com/jsamuelsen11/storefeed/internal/domain/session"
	"github.com/jsamuelsen11/storefeed/internal/ports"
)

var _ ports.AuthProvider = (*StaticProvider)(nil)

// StaticProvider reports a fixed session status. Used for local runs and
// tests where no identity service exists.
type StaticProvider struct {
	status   session.Status
	loginURL string
}

// NewStaticProvider creates a provider that always reports status.
func NewStaticProvider(status session.Status, loginURL string) *StaticProvider {
	return &StaticProvider{status: status, loginURL: loginURL}
}

// EnsureReady returns at once; the status never changes. It fails only
// when ctx is already done.
func (p *StaticProvider) EnsureReady(ctx context.Context) error {
	return ctx.Err()
}

// IsAuthenticated reports whether the fixed status is authenticated.
func (p *StaticProvider) IsAuthenticated() bool {
	return p.status == session.StatusAuthenticated
}

// Status returns the fixed status.
func (p *StaticProvider) Status() session.Status {
	return p.status
}

// Login returns the configured login URL without contacting anything.
func (p *StaticProvider) Login(_ context.Context) (string, error) {
	return p.loginURL, nil
}
