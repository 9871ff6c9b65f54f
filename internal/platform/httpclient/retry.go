package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/jsamuelsen11/storefeed/internal/platform/config"
	"github.com/jsamuelsen11/storefeed/internal/platform/logging"
)

// jitter spreads each delay by up to a quarter either way.
const jitter = 0.25

// retryPolicy is exponential backoff with jitter. A Retry-After header on
// the previous response overrides the computed delay, capped at ceiling.
type retryPolicy struct {
	attempts   int
	base       time.Duration
	ceiling    time.Duration
	multiplier float64
}

func newRetryPolicy(cfg config.RetryConfig) retryPolicy {
	return retryPolicy{
		attempts:   max(cfg.MaxAttempts, 1),
		base:       cfg.InitialInterval,
		ceiling:    cfg.MaxInterval,
		multiplier: cfg.Multiplier,
	}
}

// delay returns the wait before retry n, where n is 1 for the first retry.
func (p retryPolicy) delay(n int, prev *http.Response) time.Duration {
	if d, ok := retryAfter(prev); ok {
		return min(d, p.ceiling)
	}

	d := min(float64(p.base)*math.Pow(p.multiplier, float64(n-1)), float64(p.ceiling))
	d += d * jitter * (2*rand.Float64() - 1)
	return time.Duration(max(d, 0))
}

// retryAfter reads a delay-seconds Retry-After header. HTTP-date values are
// ignored.
func retryAfter(resp *http.Response) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// send runs the attempt loop. Only idempotent methods are retried, so a
// login POST is never sent twice.
func (c *Client) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	body, err := snapshotBody(req)
	if err != nil {
		return nil, err
	}

	attempts := c.retry.attempts
	if !idempotent(req.Method) {
		attempts = 1
	}

	var (
		resp    *http.Response
		lastErr error
	)
	for n := range attempts {
		if n > 0 {
			if err := c.backoff(ctx, req, n, resp, lastErr); err != nil {
				return nil, err
			}
		}
		body.rewind(req)

		resp, lastErr = c.http.Do(req)
		switch {
		case lastErr != nil:
			resp = nil
			if !retryableErr(lastErr) {
				return nil, lastErr
			}
		case !retryableStatus(resp.StatusCode):
			return resp, nil
		default:
			lastErr = fmt.Errorf("%s answered %d", c.peer, resp.StatusCode)
			if n < attempts-1 {
				discard(resp)
			}
		}
	}
	return resp, lastErr
}

// backoff waits before retry n. The previous response body is already
// drained; only its headers are consulted.
func (c *Client) backoff(ctx context.Context, req *http.Request, n int, prev *http.Response, lastErr error) error {
	wait := c.retry.delay(n, prev)

	logging.FromContext(ctx).WarnContext(ctx, "retrying outbound request",
		slog.String("peer_service", c.peer),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("attempt", n+1),
		slog.Int("max_attempts", c.retry.attempts),
		slog.Duration("backoff", wait),
		slog.Any("error", lastErr),
	)

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// bodySnapshot lets a request body be replayed on every attempt.
type bodySnapshot []byte

func snapshotBody(req *http.Request) (bodySnapshot, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer req.Body.Close()

	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("buffering request body: %w", err)
	}
	return raw, nil
}

func (b bodySnapshot) rewind(req *http.Request) {
	if b == nil {
		return
	}
	req.Body = io.NopCloser(bytes.NewReader(b))
	req.ContentLength = int64(len(b))
}

// discard drains resp so the connection can be reused.
func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// retryableErr treats every transport failure as transient except the
// caller giving up.
func retryableErr(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
