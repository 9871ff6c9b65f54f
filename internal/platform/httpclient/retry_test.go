package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jsamuelsen11/storefeed/internal/platform/config"
)

func TestRetryPolicy_Delay(t *testing.T) {
	t.Parallel()

	p := retryPolicy{attempts: 5, base: 100 * time.Millisecond, ceiling: time.Second, multiplier: 2}

	tests := []struct {
		n    int
		want time.Duration
	}{
		{n: 1, want: 100 * time.Millisecond},
		{n: 2, want: 200 * time.Millisecond},
		{n: 3, want: 400 * time.Millisecond},
		{n: 5, want: time.Second},
		{n: 9, want: time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("retry %d", tt.n), func(t *testing.T) {
			t.Parallel()

			lo := time.Duration(float64(tt.want) * (1 - jitter))
			hi := time.Duration(float64(tt.want) * (1 + jitter))
			for range 50 {
				if d := p.delay(tt.n, nil); d < lo || d > hi {
					t.Fatalf("delay(%d) = %v, want within [%v, %v]", tt.n, d, lo, hi)
				}
			}
		})
	}
}

func TestRetryPolicy_RetryAfter(t *testing.T) {
	t.Parallel()

	p := retryPolicy{attempts: 3, base: 10 * time.Millisecond, ceiling: 5 * time.Second, multiplier: 2}

	tests := []struct {
		name   string
		header string
		want   time.Duration
		exact  bool
	}{
		{name: "seconds", header: "2", want: 2 * time.Second, exact: true},
		{name: "capped", header: "120", want: 5 * time.Second, exact: true},
		{name: "zero", header: "0", want: 0, exact: true},
		{name: "http date ignored", header: "Wed, 21 Oct 2026 07:28:00 GMT", want: 10 * time.Millisecond},
		{name: "negative ignored", header: "-3", want: 10 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp := &http.Response{Header: http.Header{"Retry-After": {tt.header}}}
			got := p.delay(1, resp)
			if tt.exact && got != tt.want {
				t.Errorf("delay = %v, want %v", got, tt.want)
			}
			if !tt.exact && (got < tt.want*3/4 || got > tt.want*5/4) {
				t.Errorf("delay = %v, want backoff near %v", got, tt.want)
			}
		})
	}
}

func TestNewRetryPolicy_AtLeastOneAttempt(t *testing.T) {
	t.Parallel()

	if p := newRetryPolicy(config.RetryConfig{MaxAttempts: 0}); p.attempts != 1 {
		t.Errorf("attempts = %d, want 1", p.attempts)
	}
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	errTests := []struct {
		err  error
		want bool
	}{
		{err: nil, want: false},
		{err: context.Canceled, want: false},
		{err: fmt.Errorf("dial: %w", context.DeadlineExceeded), want: false},
		{err: errors.New("connection reset by peer"), want: true},
	}
	for _, tt := range errTests {
		if got := retryableErr(tt.err); got != tt.want {
			t.Errorf("retryableErr(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}

	for code, want := range map[int]bool{200: false, 202: false, 401: false, 404: false, 429: true, 500: true, 503: true} {
		if got := retryableStatus(code); got != want {
			t.Errorf("retryableStatus(%d) = %v, want %v", code, got, want)
		}
	}

	for method, want := range map[string]bool{"GET": true, "PUT": true, "DELETE": true, "POST": false, "PATCH": false} {
		if got := idempotent(method); got != want {
			t.Errorf("idempotent(%s) = %v, want %v", method, got, want)
		}
	}
}
