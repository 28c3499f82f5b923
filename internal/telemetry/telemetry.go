// Package telemetry sets up OpenTelemetry metrics, exported in the prometheus format.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/neurelo-connect/neurelo-connect-mcp/pkg/version"
)

// Config holds the telemetry settings.
type Config struct {
	ServiceName string
	Enabled     bool
}

// Providers holds the initialized OpenTelemetry providers.
// When telemetry is disabled, Meter is a no-op meter and Shutdown does nothing.
type Providers struct {
	Meter metric.Meter

	config        *Config
	meterProvider *sdkmetric.MeterProvider
}

// Init creates the telemetry providers described by cfg.
// When enabled, metrics are registered with the default prometheus registry,
// so that promhttp.Handler() serves them.
func Init(_ context.Context, cfg *Config) (*Providers, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if !cfg.Enabled {
		return &Providers{
			Meter:  noop.NewMeterProvider().Meter(cfg.ServiceName),
			config: cfg,
		}, nil
	}

	exporter, err := otelprom.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", version.GetVersion()),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	return &Providers{
		Meter:         mp.Meter(cfg.ServiceName),
		config:        cfg,
		meterProvider: mp,
	}, nil
}

// IsEnabled returns true if telemetry is enabled.
func (p *Providers) IsEnabled() bool {
	return p != nil && p.config.Enabled
}

// ServiceName returns the name the service reports itself as.
func (p *Providers) ServiceName() string {
	if p == nil {
		return ""
	}
	return p.config.ServiceName
}

// Shutdown flushes and stops the providers.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil || p.meterProvider == nil {
		return nil
	}
	if err := p.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}
