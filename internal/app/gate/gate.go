// Package gate decides whether a navigation may proceed based on the state
// of the identity session.
//
// Every decision is terminal: the gate never retries. Waiting and retrying,
// if any, happen inside the auth provider's EnsureReady.
package gate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen11/storefeed/internal/domain"
	"github.com/jsamuelsen11/storefeed/internal/domain/session"
	"github.com/jsamuelsen11/storefeed/internal/ports"
)

// Compile-time interface check.
var _ ports.HealthChecker = (*Gate)(nil)

// Decision is the outcome of a navigation check.
type Decision int

const (
	// Proceed lets the navigation continue unchanged.
	Proceed Decision = iota
	// Redirect cancels the navigation; the login flow has been started.
	Redirect
	// Cancel aborts the navigation without starting a login, because the
	// caller went away while the session was settling.
	Cancel
)

// String implements fmt.Stringer.
func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case Redirect:
		return "redirect"
	case Cancel:
		return "cancel"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Navigation describes a page request to be checked.
type Navigation struct {
	Path string
	// Prerender marks a server-side render. No session exists there, so
	// the gate lets it through without consulting the provider.
	Prerender bool
}

// Result carries the decision and, for Redirect, where to send the user.
type Result struct {
	Decision Decision
	LoginURL string
}

// Gate wraps an auth provider with the navigation policy.
type Gate struct {
	provider ports.AuthProvider
	logger   *slog.Logger
}

// New creates a Gate over provider.
func New(provider ports.AuthProvider, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Gate{provider: provider, logger: logger}
}

// EnsureReady waits until the session reaches a terminal status. The bound
// is the provider's own timeout policy and ctx.
func (g *Gate) EnsureReady(ctx context.Context) error {
	if err := g.provider.EnsureReady(ctx); err != nil {
		return fmt.Errorf("waiting for session: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether the session is established.
func (g *Gate) IsAuthenticated() bool {
	return g.provider.IsAuthenticated()
}

// Status returns the current session status.
func (g *Gate) Status() session.Status {
	return g.provider.Status()
}

// Login starts the external authentication flow and returns the URL to send
// the user agent to.
func (g *Gate) Login(ctx context.Context) (string, error) {
	url, err := g.provider.Login(ctx)
	if err != nil {
		return "", fmt.Errorf("starting login: %w", err)
	}
	return url, nil
}

// Check runs the navigation policy:
//
//   - prerender requests proceed without consulting the provider
//   - an authenticated session proceeds
//   - a session in error proceeds (fail-open) and is logged at WARN
//   - anything else starts the login flow and returns Redirect
//
// If ctx ends while waiting for the session, Check returns Cancel and the
// context error without starting a login. A provider error other than ctx
// ending is treated like an unsettled session: login is started.
func (g *Gate) Check(ctx context.Context, nav Navigation) (Result, error) {
	if nav.Prerender {
		return Result{Decision: Proceed}, nil
	}

	if err := g.provider.EnsureReady(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{Decision: Cancel}, fmt.Errorf("waiting for session: %w", ctxErr)
		}
		g.logger.WarnContext(ctx, "session not ready",
			slog.String("path", nav.Path),
			slog.Any("error", err),
		)
	}

	if g.provider.IsAuthenticated() {
		return Result{Decision: Proceed}, nil
	}

	if st := g.provider.Status(); st == session.StatusError {
		// Fail-open: the error is surfaced elsewhere, navigation is not blocked.
		g.logger.WarnContext(ctx, "session in error state, allowing navigation",
			slog.String("path", nav.Path),
		)
		return Result{Decision: Proceed}, nil
	}

	url, err := g.provider.Login(ctx)
	if err != nil {
		g.logger.ErrorContext(ctx, "failed to start login",
			slog.String("operation", "Check"),
			slog.String("path", nav.Path),
			slog.Any("error", err),
		)
		return Result{Decision: Cancel}, fmt.Errorf("starting login: %w", err)
	}

	g.logger.InfoContext(ctx, "navigation redirected to login", slog.String("path", nav.Path))
	return Result{Decision: Redirect, LoginURL: url}, nil
}

// Name implements ports.HealthChecker.
func (g *Gate) Name() string {
	return "session"
}

// HealthCheck reports an error when the session has failed terminally.
// A pending session is healthy: it has simply not settled yet.
func (g *Gate) HealthCheck(_ context.Context) error {
	if st := g.provider.Status(); st == session.StatusError {
		return fmt.Errorf("session status %s: %w", st, domain.ErrUnavailable)
	}
	return nil
}
