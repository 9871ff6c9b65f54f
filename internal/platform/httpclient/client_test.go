package httpclient_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/jsamuelsen11/storefeed/internal/platform/config"
	"github.com/jsamuelsen11/storefeed/internal/platform/httpclient"
	"github.com/jsamuelsen11/storefeed/internal/platform/telemetry"
)

func testConfig(baseURL string) *config.ClientConfig {
	return &config.ClientConfig{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 5 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
			Multiplier:      2,
		},
		CircuitBreaker: config.CircuitBreakerConfig{
			MaxFailures:   3,
			Timeout:       time.Second,
			HalfOpenLimit: 1,
		},
	}
}

func newClient(cfg *config.ClientConfig) *httpclient.Client {
	return httpclient.New(cfg, "identity-api", nil, slog.New(slog.DiscardHandler))
}

// identityAPI serves answers in order and repeats the last one. It counts
// hits and remembers the bodies it received.
type identityAPI struct {
	answers []int
	hits    atomic.Int32
	bodies  chan string
}

func newIdentityAPI(t *testing.T, answers ...int) (*identityAPI, *httptest.Server) {
	t.Helper()

	api := &identityAPI{answers: answers, bodies: make(chan string, 16)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(api.hits.Add(1)) - 1
		raw, _ := io.ReadAll(r.Body)
		api.bodies <- string(raw)

		status := api.answers[min(n, len(api.answers)-1)]
		w.WriteHeader(status)
		_, _ = io.WriteString(w, http.StatusText(status))
	}))
	t.Cleanup(srv.Close)
	return api, srv
}

// call sends method path with an optional body and closes whatever response
// comes back.
func call(t *testing.T, c *httpclient.Client, ctx context.Context, method, path, body string) (int, error) {
	t.Helper()

	var rd io.Reader = http.NoBody
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL()+path, rd)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	resp, err := c.Do(ctx, req)
	if resp == nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode, err
}

func TestDo_Retries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		answers    []int
		wantStatus int
		wantErr    bool
		wantHits   int32
	}{
		{name: "first try", method: http.MethodGet, answers: []int{200}, wantStatus: 200, wantHits: 1},
		{name: "5xx then ok", method: http.MethodGet, answers: []int{502, 503, 200}, wantStatus: 200, wantHits: 3},
		{name: "429 then ok", method: http.MethodGet, answers: []int{429, 200}, wantStatus: 200, wantHits: 2},
		{name: "4xx not retried", method: http.MethodGet, answers: []int{401}, wantStatus: 401, wantHits: 1},
		{name: "exhausted keeps last response", method: http.MethodGet, answers: []int{500}, wantStatus: 500, wantErr: true, wantHits: 3},
		{name: "post not retried", method: http.MethodPost, answers: []int{503, 202}, wantStatus: 503, wantErr: true, wantHits: 1},
		{name: "put retried", method: http.MethodPut, answers: []int{500, 204}, wantStatus: 204, wantHits: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			api, srv := newIdentityAPI(t, tt.answers...)
			cfg := testConfig(srv.URL)
			cfg.CircuitBreaker.MaxFailures = 100

			status, err := call(t, newClient(cfg), context.Background(), tt.method, "/session", "")

			if (err != nil) != tt.wantErr {
				t.Errorf("Do() error = %v, wantErr %v", err, tt.wantErr)
			}
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if got := api.hits.Load(); got != tt.wantHits {
				t.Errorf("hits = %d, want %d", got, tt.wantHits)
			}
		})
	}
}

func TestDo_ReplaysBodyOnRetry(t *testing.T) {
	t.Parallel()

	api, srv := newIdentityAPI(t, 500, 500, 200)
	status, err := call(t, newClient(testConfig(srv.URL)), context.Background(), http.MethodPut, "/session", `{"status":"pending"}`)
	if err != nil || status != 200 {
		t.Fatalf("Do() = %d, %v; want 200, nil", status, err)
	}

	for range 3 {
		if got := <-api.bodies; got != `{"status":"pending"}` {
			t.Errorf("attempt body = %q", got)
		}
	}
}

func TestDo_PropagatesIDs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		ctx             func() context.Context
		wantRequest     string
		wantCorrelation string
	}{
		{
			name:            "both",
			ctx:             func() context.Context { return httpclient.WithCorrelationID(httpclient.WithRequestID(context.Background(), "req-7"), "corr-9") },
			wantRequest:     "req-7",
			wantCorrelation: "corr-9",
		},
		{
			name:        "request only",
			ctx:         func() context.Context { return httpclient.WithRequestID(context.Background(), "req-7") },
			wantRequest: "req-7",
		},
		{name: "none", ctx: context.Background},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := make(chan http.Header, 1)
			srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got <- r.Header.Clone()
			}))
			t.Cleanup(srv.Close)

			if _, err := call(t, newClient(testConfig(srv.URL)), tt.ctx(), http.MethodGet, "/session", ""); err != nil {
				t.Fatalf("Do() error = %v", err)
			}
			h := <-got
			if v := h.Get("X-Request-ID"); v != tt.wantRequest {
				t.Errorf("X-Request-ID = %q, want %q", v, tt.wantRequest)
			}
			if v := h.Get("X-Correlation-ID"); v != tt.wantCorrelation {
				t.Errorf("X-Correlation-ID = %q, want %q", v, tt.wantCorrelation)
			}
		})
	}
}

func TestDo_CancelledContext(t *testing.T) {
	t.Parallel()

	api, srv := newIdentityAPI(t, 500)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := call(t, newClient(testConfig(srv.URL)), ctx, http.MethodGet, "/session", "")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
	if api.hits.Load() != 0 {
		t.Errorf("hits = %d, want 0", api.hits.Load())
	}
}

func TestBreaker_OpensAndRecovers(t *testing.T) {
	t.Parallel()

	var healthy atomic.Bool
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL)
	cfg.CircuitBreaker.MaxFailures = 1
	cfg.CircuitBreaker.Timeout = 80 * time.Millisecond
	cfg.Retry.MaxAttempts = 1
	c := newClient(cfg)
	ctx := context.Background()

	if err := c.HealthCheck(ctx); err != nil {
		t.Fatalf("fresh HealthCheck() = %v, want nil", err)
	}

	_, _ = call(t, c, ctx, http.MethodGet, "/session", "")
	if err := c.HealthCheck(ctx); !errors.Is(err, httpclient.ErrBreakerTripped) {
		t.Fatalf("HealthCheck() after failure = %v, want ErrBreakerTripped", err)
	}

	before := hits.Load()
	if _, err := call(t, c, ctx, http.MethodGet, "/session", ""); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("Do() while open = %v, want ErrOpenState", err)
	}
	if hits.Load() != before {
		t.Error("open breaker let a request through")
	}

	time.Sleep(120 * time.Millisecond)
	if err := c.HealthCheck(ctx); !strings.Contains(err.Error(), "half-open") {
		t.Fatalf("HealthCheck() after timeout = %v, want half-open", err)
	}

	healthy.Store(true)
	if status, err := call(t, c, ctx, http.MethodGet, "/session", ""); err != nil || status != 200 {
		t.Fatalf("probe = %d, %v; want 200, nil", status, err)
	}
	if err := c.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() after probe = %v, want nil", err)
	}
}

func TestDo_RecordsMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	metrics, err := telemetry.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)), "storefeed")
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	_, srv := newIdentityAPI(t, 200)
	c := httpclient.New(testConfig(srv.URL), "identity-api", metrics, slog.New(slog.DiscardHandler))
	if _, err := call(t, c, context.Background(), http.MethodGet, "/session", ""); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http.client.request.total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok || len(sum.DataPoints) != 1 {
				t.Fatalf("request total data = %#v", m.Data)
			}
			dp := sum.DataPoints[0]
			if dp.Value != 1 {
				t.Errorf("count = %d, want 1", dp.Value)
			}
			if v, _ := dp.Attributes.Value(telemetry.AttrResult); v.AsString() != "success" {
				t.Errorf("result = %q, want success", v.AsString())
			}
			if v, _ := dp.Attributes.Value(telemetry.AttrPeerService); v.AsString() != "identity-api" {
				t.Errorf("peer = %q, want identity-api", v.AsString())
			}
			return
		}
	}
	t.Fatal("http.client.request.total not recorded")
}
