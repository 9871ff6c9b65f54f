package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jsamuelsen11/storefeed/internal/domain/session"
	"github.com/jsamuelsen11/storefeed/internal/platform/config"
	"github.com/jsamuelsen11/storefeed/internal/ports"
)

var _ ports.AuthProvider = (*JWTProvider)(nil)

// hmacMethods are the accepted signing algorithms for the shared secret.
var hmacMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// JWTProvider treats a pre-issued HMAC-signed token as the service session.
// A valid token is authenticated until it expires. A missing or expired
// token leaves the session pending so a login is requested. A token that
// fails verification for any other reason is an error.
type JWTProvider struct {
	token    string
	secret   []byte
	loginURL string
	parser   *jwt.Parser
	now      func() time.Time
	logger   *slog.Logger

	mu        sync.RWMutex
	status    session.Status
	expiresAt time.Time
}

// NewJWTProvider creates a provider verifying cfg.JWT.Token. Issuer and
// audience are enforced when configured.
func NewJWTProvider(cfg config.AuthConfig, logger *slog.Logger) *JWTProvider {
	p := &JWTProvider{
		token:    cfg.JWT.Token,
		secret:   []byte(cfg.JWT.Secret),
		loginURL: cfg.LoginURL,
		now:      time.Now,
		logger:   logger,
		status:   session.StatusPending,
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(hmacMethods),
		jwt.WithLeeway(30 * time.Second),
		jwt.WithTimeFunc(func() time.Time { return p.now() }),
	}
	if cfg.JWT.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWT.Issuer))
	}
	if cfg.JWT.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.JWT.Audience))
	}
	p.parser = jwt.NewParser(opts...)

	return p
}

// EnsureReady verifies the token. Verification is local, so it returns as
// soon as the status is known.
func (p *JWTProvider) EnsureReady(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("waiting for session: %w", err)
	}
	if p.Status() == session.StatusAuthenticated {
		return nil
	}

	st, claims, err := p.verify()

	var expiresAt time.Time
	if claims != nil && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	p.mu.Lock()
	p.status = st
	if claims != nil {
		p.expiresAt = expiresAt
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.WarnContext(ctx, "service token rejected",
			slog.String("status", st.String()),
			slog.Any("error", err),
		)
		return nil
	}
	if claims != nil {
		p.logger.InfoContext(ctx, "service token verified",
			slog.String("subject", claims.Subject),
			slog.Time("expires_at", expiresAt),
		)
	}
	return nil
}

// IsAuthenticated reports whether the token is valid and unexpired.
func (p *JWTProvider) IsAuthenticated() bool {
	return p.Status() == session.StatusAuthenticated
}

// Status returns the last verification result. An authenticated session
// whose token has since expired reads as pending.
func (p *JWTProvider) Status() session.Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.status == session.StatusAuthenticated && !p.expiresAt.IsZero() && p.now().After(p.expiresAt) {
		return session.StatusPending
	}
	return p.status
}

// Login returns the configured login URL. Token issuance happens out of
// band.
func (p *JWTProvider) Login(_ context.Context) (string, error) {
	return p.loginURL, nil
}

func (p *JWTProvider) verify() (session.Status, *jwt.RegisteredClaims, error) {
	if p.token == "" {
		return session.StatusPending, nil, nil
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := p.parser.ParseWithClaims(p.token, claims, func(_ *jwt.Token) (any, error) {
		return p.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
		return session.StatusPending, nil, fmt.Errorf("verifying token: %w", err)
	case err != nil:
		return session.StatusError, nil, fmt.Errorf("verifying token: %w", err)
	case !parsed.Valid:
		return session.StatusError, nil, errors.New("verifying token: invalid token")
	}
	return session.StatusAuthenticated, claims, nil
}
