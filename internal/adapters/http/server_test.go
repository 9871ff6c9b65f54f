package http_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	adapthttp "github.com/jsamuelsen11/storefeed/internal/adapters/http"
	"github.com/jsamuelsen11/storefeed/internal/platform/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Host:         "127.0.0.1",
		Port:         0,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
}

// startServer runs s in the background and waits until it is bound.
func startServer(t *testing.T, s *adapthttp.Server) <-chan error {
	t.Helper()

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case <-s.Bound():
	case err := <-errCh:
		t.Fatalf("Start() error = %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not bind")
	}
	return errCh
}

func TestServer_AddrBeforeStart(t *testing.T) {
	t.Parallel()

	cfg := testServerConfig()
	cfg.Port = 9090
	s := adapthttp.NewServer(cfg, http.NotFoundHandler(), nil)

	if got := s.Addr(); got != "127.0.0.1:9090" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:9090")
	}
}

func TestServer_ServesAndShutsDown(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})
	s := adapthttp.NewServer(testServerConfig(), handler, discardLogger())
	errCh := startServer(t, s)

	resp, err := http.Get("http://" + s.Addr() + "/health/live")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(body) != `{"status":"ok"}` {
		t.Errorf("body = %q", body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Start() after shutdown = %v, want nil", err)
	}
}

func TestServer_ShutdownCancelsInFlightRequests(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	unwound := make(chan error, 1)
	handler := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		close(entered)
		<-r.Context().Done()
		unwound <- r.Context().Err()
	})
	s := adapthttp.NewServer(testServerConfig(), handler, discardLogger())
	errCh := startServer(t, s)

	go func() {
		resp, err := http.Get("http://" + s.Addr() + "/app/orders")
		if err == nil {
			_ = resp.Body.Close()
		}
	}()
	<-entered

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	select {
	case err := <-unwound:
		if err == nil {
			t.Error("request context not cancelled")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not unwind after shutdown")
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Start() after shutdown = %v, want nil", err)
	}
}

func TestServer_StartBindFailure(t *testing.T) {
	t.Parallel()

	first := adapthttp.NewServer(testServerConfig(), http.NotFoundHandler(), discardLogger())
	startServer(t, first)
	t.Cleanup(func() { _ = first.Shutdown(context.Background()) })

	cfg := testServerConfig()
	_, portStr, err := net.SplitHostPort(first.Addr())
	if err != nil {
		t.Fatalf("SplitHostPort(%q) error = %v", first.Addr(), err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)
	second := adapthttp.NewServer(cfg, http.NotFoundHandler(), discardLogger())

	if err := second.Start(); err == nil {
		t.Fatal("Start() on a taken port = nil, want error")
	}
}
