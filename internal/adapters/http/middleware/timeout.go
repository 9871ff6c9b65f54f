package middleware

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/jsamuelsen11/storefeed/internal/adapters/http/dto"
)

// Timeout returns middleware that bounds a request by d. The handler runs on
// its own goroutine against a buffered response and a context carrying the
// deadline. If it finishes in time its response is copied out; otherwise
// the buffer is discarded and a 504 problem+json is written. A panic in the
// handler is re-raised on the serving goroutine so Recovery still sees it.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			buf := &bufferedResponse{header: make(http.Header), status: http.StatusOK}
			done := make(chan any, 1)

			go func() {
				defer func() { done <- recover() }()
				next.ServeHTTP(buf, r.WithContext(ctx))
			}()

			select {
			case p := <-done:
				if p != nil {
					panic(p)
				}
				buf.copyTo(w)
			case <-ctx.Done():
				buf.abandon()
				dto.WriteErrorResponse(w, r, fmt.Errorf("%s %s: %w", r.Method, r.URL.Path, ctx.Err()))
			}
		})
	}
}

// bufferedResponse holds the handler's response until Timeout decides
// whether to forward it. Writes after abandon are dropped.
type bufferedResponse struct {
	mu        sync.Mutex
	header    http.Header
	body      []byte
	status    int
	wrote     bool
	abandoned bool
}

// Header returns the buffered header map. Handlers must not touch it after
// returning, so it is not guarded.
func (b *bufferedResponse) Header() http.Header {
	return b.header
}

func (b *bufferedResponse) WriteHeader(code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.wrote {
		b.status = code
		b.wrote = true
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.abandoned {
		return 0, http.ErrHandlerTimeout
	}
	b.wrote = true
	b.body = append(b.body, p...)
	return len(p), nil
}

func (b *bufferedResponse) abandon() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.abandoned = true
}

func (b *bufferedResponse) copyTo(w http.ResponseWriter) {
	b.mu.Lock()
	defer b.mu.Unlock()

	maps.Copy(w.Header(), b.header)
	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}
