package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jsamuelsen11/storefeed/internal/domain"
	"github.com/jsamuelsen11/storefeed/internal/domain/session"
	"github.com/jsamuelsen11/storefeed/internal/platform/config"
	"github.com/jsamuelsen11/storefeed/internal/platform/httpclient"
	"github.com/jsamuelsen11/storefeed/internal/ports"
)

// Compile-time interface checks.
var (
	_ ports.AuthProvider  = (*SessionProvider)(nil)
	_ ports.HealthChecker = (*SessionProvider)(nil)
)

// sessionResponse is the identity API's view of the service session.
type sessionResponse struct {
	Status string `json:"status"`
}

// loginResponse is returned when a login flow is started.
type loginResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

// toStatus translates the identity API status string into a session status.
func toStatus(raw string) (session.Status, error) {
	st := session.Status(strings.ToLower(strings.TrimSpace(raw)))
	if !st.IsValid() {
		return "", &domain.ValidationError{Fields: map[string]string{
			"status": fmt.Sprintf("unknown session status %q", raw),
		}}
	}
	return st, nil
}

// SessionProvider resolves the service session against a remote identity
// API. GET {session_path} reports the status; POST {session_path}/login
// starts a login flow. A 401 or 403 from the status endpoint means no
// session exists and a login is required.
type SessionProvider struct {
	req          *Requester
	client       *httpclient.Client
	sessionPath  string
	loginURL     string
	readyTimeout time.Duration
	pollInterval time.Duration
	logger       *slog.Logger

	// pollMu serializes EnsureReady so concurrent callers share one poll.
	pollMu sync.Mutex
	mu     sync.RWMutex
	status session.Status
}

// NewSessionProvider creates a provider polling the identity API reachable
// through client.
func NewSessionProvider(client *httpclient.Client, cfg config.AuthConfig, logger *slog.Logger) *SessionProvider {
	return &SessionProvider{
		req:          NewRequester(client, logger),
		client:       client,
		sessionPath:  cfg.SessionPath,
		loginURL:     cfg.LoginURL,
		readyTimeout: cfg.ReadyTimeout,
		pollInterval: cfg.PollInterval,
		logger:       logger,
		status:       session.StatusPending,
	}
}

// EnsureReady polls the identity API until it reports a terminal status,
// answers that no session exists, ctx ends or the ready timeout elapses.
//
// When the timeout elapses after transport failures only, the session is
// marked as errored. When the API keeps answering "pending" the status is
// left unchanged. Both cases return an error wrapping domain.ErrUnavailable.
func (p *SessionProvider) EnsureReady(ctx context.Context) error {
	if p.Status().IsTerminal() {
		return nil
	}

	p.pollMu.Lock()
	defer p.pollMu.Unlock()

	if p.Status().IsTerminal() {
		return nil
	}

	pollCtx, cancel := context.WithTimeout(ctx, p.readyTimeout)
	defer cancel()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		st, err := p.fetch(pollCtx)
		switch {
		case err == nil && st.IsTerminal():
			p.setStatus(st)
			return nil
		case errors.Is(err, domain.ErrUnauthenticated):
			p.setStatus(session.StatusPending)
			return nil
		case err == nil:
			lastErr = nil
		case pollCtx.Err() != nil:
			// The request was cut short by the ready timeout, which says
			// nothing about the identity API.
		default:
			lastErr = err
			p.logger.DebugContext(ctx, "session poll failed", slog.Any("error", err))
		}

		select {
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return fmt.Errorf("waiting for session: %w", ctx.Err())
			}
			if lastErr != nil {
				p.setStatus(session.StatusError)
				p.logger.WarnContext(ctx, "identity provider unreachable",
					slog.Duration("timeout", p.readyTimeout),
					slog.Any("error", lastErr),
				)
				return fmt.Errorf("session not ready after %s: %w: %w", p.readyTimeout, domain.ErrUnavailable, lastErr)
			}
			return fmt.Errorf("session still pending after %s: %w", p.readyTimeout, domain.ErrUnavailable)
		case <-ticker.C:
		}
	}
}

// IsAuthenticated reports whether the last poll found an established session.
func (p *SessionProvider) IsAuthenticated() bool {
	return p.Status() == session.StatusAuthenticated
}

// Status returns the status recorded by the last poll.
func (p *SessionProvider) Status() session.Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Login asks the identity API to start a login flow and resets the session
// to pending. The redirect URL from the API wins over the configured one.
func (p *SessionProvider) Login(ctx context.Context) (string, error) {
	var resp loginResponse
	if err := p.req.Do(ctx, http.MethodPost, p.sessionPath+"/login", http.StatusAccepted, nil, &resp); err != nil {
		return "", fmt.Errorf("starting login: %w", err)
	}

	p.setStatus(session.StatusPending)

	if resp.RedirectURL != "" {
		return resp.RedirectURL, nil
	}
	return p.loginURL, nil
}

// Name returns the identifier of the identity API client.
func (p *SessionProvider) Name() string {
	return p.client.Name()
}

// HealthCheck reports the identity API's availability from the circuit
// breaker state. No network call is made.
func (p *SessionProvider) HealthCheck(ctx context.Context) error {
	return p.client.HealthCheck(ctx)
}

func (p *SessionProvider) fetch(ctx context.Context) (session.Status, error) {
	var resp sessionResponse
	if err := p.req.Do(ctx, http.MethodGet, p.sessionPath, http.StatusOK, nil, &resp); err != nil {
		return "", err
	}
	return toStatus(resp.Status)
}

func (p *SessionProvider) setStatus(st session.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status != st {
		p.logger.Info("session status changed",
			slog.String("from", p.status.String()),
			slog.String("to", st.String()),
		)
	}
	p.status = st
}
