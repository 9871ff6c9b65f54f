package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jsamuelsen11/storefeed/internal/platform/config"
	"github.com/jsamuelsen11/storefeed/internal/platform/telemetry"
)

// otelProviders holds the SDK providers and the instruments built on them.
// With telemetry disabled, metrics is nil and Shutdown does nothing.
type otelProviders struct {
	metrics  *telemetry.Metrics
	shutdown []func(context.Context) error
}

// Shutdown flushes every provider, newest first.
func (o *otelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(o.shutdown) - 1; i >= 0; i-- {
		errs = append(errs, o.shutdown[i](ctx))
	}
	return errors.Join(errs...)
}

func initTelemetry(ctx context.Context, cfg *config.Config) (_ *otelProviders, err error) {
	p := &otelProviders{}
	tc := cfg.Telemetry
	if !tc.Enabled {
		return p, nil
	}
	defer func() {
		if err != nil {
			_ = p.Shutdown(ctx)
		}
	}()

	tp, err := telemetry.InitTracer(ctx, tc.ServiceName, tc.Exporter, tc.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	p.shutdown = append(p.shutdown, tp.Shutdown)

	mp, err := telemetry.InitMeter(ctx, tc.ServiceName, tc.Exporter, tc.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("init meter: %w", err)
	}
	p.shutdown = append(p.shutdown, mp.Shutdown)

	if p.metrics, err = telemetry.NewMetrics(mp, tc.ServiceName); err != nil {
		return nil, fmt.Errorf("creating metrics: %w", err)
	}
	return p, nil
}
