package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/jsamuelsen11/storefeed/internal/adapters/http/middleware"
)

// idChain runs RequestID then CorrelationID and captures both IDs as seen
// by the handler.
func idChain(got *[2]string) http.Handler {
	return middleware.RequestID()(middleware.CorrelationID()(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got[0] = middleware.RequestIDFromContext(r.Context())
			got[1] = middleware.CorrelationIDFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}),
	))
}

func TestIDs_Propagation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		requestID   string
		correlation string
		wantReqID   string // empty means a generated UUID
		wantCorr    string // empty means same as the request ID
	}{
		{name: "both generated"},
		{name: "request id reused", requestID: "req-7", wantReqID: "req-7"},
		{name: "correlation reused", requestID: "req-7", correlation: "corr-9", wantReqID: "req-7", wantCorr: "corr-9"},
		{name: "request id with spaces replaced", requestID: "bad id"},
		{name: "oversized correlation replaced", requestID: "req-7", correlation: strings.Repeat("c", 129), wantReqID: "req-7"},
		{name: "control chars replaced", requestID: "req\n7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got [2]string
			req := httptest.NewRequest(http.MethodGet, "/api/v1/stores", http.NoBody)
			if tt.requestID != "" {
				req.Header.Set("X-Request-ID", tt.requestID)
			}
			if tt.correlation != "" {
				req.Header.Set("X-Correlation-ID", tt.correlation)
			}
			rec := httptest.NewRecorder()
			idChain(&got).ServeHTTP(rec, req)

			reqID, corrID := got[0], got[1]
			if tt.wantReqID == "" {
				if _, err := uuid.Parse(reqID); err != nil {
					t.Errorf("request id = %q, want a generated UUID", reqID)
				}
			} else if reqID != tt.wantReqID {
				t.Errorf("request id = %q, want %q", reqID, tt.wantReqID)
			}

			wantCorr := tt.wantCorr
			if wantCorr == "" {
				wantCorr = reqID
			}
			if corrID != wantCorr {
				t.Errorf("correlation id = %q, want %q", corrID, wantCorr)
			}

			if h := rec.Header().Get("X-Request-ID"); h != reqID {
				t.Errorf("X-Request-ID response header = %q, want %q", h, reqID)
			}
			if h := rec.Header().Get("X-Correlation-ID"); h != corrID {
				t.Errorf("X-Correlation-ID response header = %q, want %q", h, corrID)
			}
		})
	}
}

func TestIDs_GeneratedPerRequest(t *testing.T) {
	t.Parallel()

	var got [2]string
	h := idChain(&got)
	seen := make(map[string]bool)
	for range 20 {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
		if seen[got[0]] {
			t.Fatalf("request id %q generated twice", got[0])
		}
		seen[got[0]] = true
	}
}

func TestIDs_ContextAccessors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if id := middleware.RequestIDFromContext(ctx); id != "" {
		t.Errorf("RequestIDFromContext(empty) = %q, want empty", id)
	}
	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		t.Errorf("CorrelationIDFromContext(empty) = %q, want empty", id)
	}

	ctx = middleware.WithCorrelationID(middleware.WithRequestID(ctx, "r1"), "c1")
	if id := middleware.RequestIDFromContext(ctx); id != "r1" {
		t.Errorf("RequestIDFromContext() = %q, want r1", id)
	}
	if id := middleware.CorrelationIDFromContext(ctx); id != "c1" {
		t.Errorf("CorrelationIDFromContext() = %q, want c1", id)
	}
}
