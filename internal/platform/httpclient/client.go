// Package httpclient is the outbound HTTP client for the identity API. Each
// call passes through, in order: the circuit breaker, the rate limiter, ID
// and trace header injection, a client span, and the retry loop.
//
//	client := httpclient.New(&cfg.Client, "identity-api", metrics, logger)
//	resp, err := client.Do(ctx, req)
//
// Inbound middleware stores request and correlation IDs with WithRequestID
// and WithCorrelationID; Do copies them onto the outbound request.
package httpclient

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/jsamuelsen11/storefeed/internal/platform/config"
	"github.com/jsamuelsen11/storefeed/internal/platform/telemetry"
)

const (
	headerRequestID     = "X-Request-ID"
	headerCorrelationID = "X-Correlation-ID"
)

// outboundIDs travels in the context from inbound middleware to Do.
type outboundIDs struct {
	request     string
	correlation string
}

type outboundIDsKey struct{}

func idsFrom(ctx context.Context) outboundIDs {
	ids, _ := ctx.Value(outboundIDsKey{}).(outboundIDs)
	return ids
}

// WithRequestID records the inbound request ID for outbound propagation.
func WithRequestID(ctx context.Context, id string) context.Context {
	ids := idsFrom(ctx)
	ids.request = id
	return context.WithValue(ctx, outboundIDsKey{}, ids)
}

// WithCorrelationID records the correlation ID for outbound propagation.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	ids := idsFrom(ctx)
	ids.correlation = id
	return context.WithValue(ctx, outboundIDsKey{}, ids)
}

// Client talks to one downstream service.
type Client struct {
	http    *http.Client
	baseURL string
	peer    string
	breaker *gobreaker.CircuitBreaker[*http.Response]
	limiter *rate.Limiter
	retry   retryPolicy
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// New builds a Client for the downstream named peer. metrics may be nil.
func New(cfg *config.ClientConfig, peer string, metrics *telemetry.Metrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		peer:    peer,
		retry:   newRetryPolicy(cfg.Retry),
		metrics: metrics,
		logger:  logger,
	}
	if rl := cfg.RateLimit; rl.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rl.RequestsPerSecond), max(rl.BurstSize, 1))
	}
	c.breaker = gobreaker.NewCircuitBreaker[*http.Response](breakerSettings(peer, cfg.CircuitBreaker, logger))
	return c
}

func breakerSettings(peer string, cfg config.CircuitBreakerConfig, logger *slog.Logger) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        peer,
		MaxRequests: clampUint32(cfg.HalfOpenLimit),
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return int(counts.ConsecutiveFailures) >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("peer_service", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}
}

// Do sends req. A non-retryable response comes back with a nil error and an
// open body. When retries run out on a retryable status, both the last
// response and an error are returned and the caller still owns the body.
// Breaker rejections and transport failures return a nil response.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		ctx, span := c.startSpan(ctx, req)
		defer span.End()

		req = req.WithContext(ctx)
		c.injectHeaders(ctx, req)

		resp, err := c.send(ctx, req)
		endSpan(span, resp, err)
		return resp, err
	})

	c.record(ctx, req.Method, time.Since(start), resp, err)
	return resp, err
}

// BaseURL is the configured downstream root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Name identifies the downstream in health results.
func (c *Client) Name() string {
	return c.peer
}

func (c *Client) injectHeaders(ctx context.Context, req *http.Request) {
	ids := idsFrom(ctx)
	if ids.request != "" {
		req.Header.Set(headerRequestID, ids.request)
	}
	if ids.correlation != "" {
		req.Header.Set(headerCorrelationID, ids.correlation)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}

func (c *Client) startSpan(ctx context.Context, req *http.Request) (context.Context, trace.Span) {
	return otel.Tracer(telemetry.InstrumentationName).Start(ctx, c.peer+" "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("url.path", req.URL.Path),
			attribute.String("peer.service", c.peer),
		),
	)
}

func endSpan(span trace.Span, resp *http.Response, err error) {
	if resp != nil {
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// record runs outside the breaker so rejected calls are counted too.
func (c *Client) record(ctx context.Context, method string, elapsed time.Duration, resp *http.Response, err error) {
	if c.metrics == nil {
		return
	}

	status, result := 0, "error"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		result = "circuit_open"
	case resp != nil:
		status = resp.StatusCode
		if status < http.StatusBadRequest {
			result = "success"
		}
	}

	attrs := metric.WithAttributes(
		telemetry.AttrHTTPMethod.String(method),
		telemetry.AttrHTTPStatus.Int(status),
		telemetry.AttrPeerService.String(c.peer),
		telemetry.AttrResult.String(result),
	)
	c.metrics.ClientRequestDuration.Record(ctx, elapsed.Seconds(), attrs)
	c.metrics.ClientRequestTotal.Add(ctx, 1, attrs)
}

func clampUint32(v int) uint32 {
	switch {
	case v <= 0:
		return 0
	case v > math.MaxUint32:
		return math.MaxUint32
	default:
		return uint32(v)
	}
}
