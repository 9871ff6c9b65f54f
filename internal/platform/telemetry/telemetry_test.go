package telemetry_test

import (
	"context"
	"slices"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jsamuelsen11/storefeed/internal/platform/telemetry"
)

func TestInit_Exporters(t *testing.T) {
	tests := []struct {
		name     string
		exporter string
		endpoint string
		wantErr  bool
	}{
		{name: "stdout", exporter: telemetry.ExporterStdout},
		{name: "otlp http", exporter: telemetry.ExporterOTLP, endpoint: "http://localhost:4318"},
		{name: "otlp bare host", exporter: telemetry.ExporterOTLP, endpoint: "localhost:4318"},
		{name: "otlp without endpoint", exporter: telemetry.ExporterOTLP, wantErr: true},
		{name: "unknown", exporter: "zipkin", wantErr: true},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp, err := telemetry.InitTracer(ctx, "storefeed", tt.exporter, tt.endpoint)
			if (err != nil) != tt.wantErr {
				t.Fatalf("InitTracer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tp != nil {
				// Without a collector the OTLP flush fails; only construction matters.
				t.Cleanup(func() { _ = tp.Shutdown(ctx) })
			}

			mp, err := telemetry.InitMeter(ctx, "storefeed", tt.exporter, tt.endpoint)
			if (err != nil) != tt.wantErr {
				t.Fatalf("InitMeter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if mp != nil {
				t.Cleanup(func() { _ = mp.Shutdown(ctx) })
			}
		})
	}
}

func TestInitTracer_InstallsPropagators(t *testing.T) {
	ctx := context.Background()
	tp, err := telemetry.InitTracer(ctx, "storefeed", telemetry.ExporterStdout, "")
	if err != nil {
		t.Fatalf("InitTracer() error = %v", err)
	}
	t.Cleanup(func() { _ = tp.Shutdown(ctx) })

	fields := otel.GetTextMapPropagator().Fields()
	for _, want := range []string{"traceparent", "baggage"} {
		if !slices.Contains(fields, want) {
			t.Errorf("propagator fields = %v, missing %q", fields, want)
		}
	}
}

func TestNewMetrics_RecordsEventDispatch(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	m, err := telemetry.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)), "storefeed")
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	ctx := context.Background()
	m.EventDispatchTotal.Add(ctx, 2)
	m.EventDispatchDuration.Record(ctx, 0.004)
	m.ServerRequestTotal.Add(ctx, 1)
	m.ClientRequestDuration.Record(ctx, 0.2)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(rm.ScopeMetrics) != 1 {
		t.Fatalf("scopes = %d, want 1", len(rm.ScopeMetrics))
	}
	scope := rm.ScopeMetrics[0]
	if scope.Scope.Name != telemetry.InstrumentationName {
		t.Errorf("scope = %q, want %q", scope.Scope.Name, telemetry.InstrumentationName)
	}

	var names []string
	for _, metric := range scope.Metrics {
		names = append(names, metric.Name)
	}
	for _, want := range []string{
		"events.dispatched",
		"events.dispatch.duration",
		"http.server.request.total",
		"http.client.request.duration",
	} {
		if !slices.Contains(names, want) {
			t.Errorf("collected %v, missing %q", names, want)
		}
	}
}

func TestAttributeKeys_OnSpans(t *testing.T) {
	t.Parallel()

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	_, span := tp.Tracer(telemetry.InstrumentationName).Start(context.Background(), "dispatch")
	span.SetAttributes(telemetry.AttrEventDomain.String("orders"), telemetry.AttrEventKind.String("created"))
	span.End()

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(ended))
	}
	got := map[string]string{}
	for _, kv := range ended[0].Attributes() {
		got[string(kv.Key)] = kv.Value.AsString()
	}
	if got["event.domain"] != "orders" || got["event.kind"] != "created" {
		t.Errorf("attributes = %v", got)
	}
}
