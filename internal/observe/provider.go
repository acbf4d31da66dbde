package observe

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

// ProviderConfig configures the process meter provider.
type ProviderConfig struct {
	// ServiceName is reported in the resource. Default: "speechtasker".
	ServiceName string

	// ServiceVersion is reported in the resource.
	ServiceVersion string

	// Logger receives the collected totals on shutdown. Nil disables the
	// summary.
	Logger *zap.Logger
}

// Provider is the SDK meter provider installed for one CLI invocation. Its
// reader is collected once, on Shutdown, and the totals are logged.
type Provider struct {
	mp     *sdkmetric.MeterProvider
	reader *sdkmetric.ManualReader
	log    *zap.Logger
}

// InitProvider builds a meter provider with a manual reader and registers it
// as the global OTel provider.
func InitProvider(cfg ProviderConfig) (*Provider, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "speechtasker"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build metrics resource: %w", err)
	}

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp)

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{mp: mp, reader: reader, log: log}, nil
}

// MeterProvider returns the underlying SDK provider.
func (p *Provider) MeterProvider() *sdkmetric.MeterProvider {
	return p.mp
}

// Totals collects the current value of every counter, summed over attributes,
// and the observation count of every histogram.
func (p *Provider) Totals(ctx context.Context) (map[string]int64, error) {
	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("failed to collect metrics: %w", err)
	}
	totals := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					totals[m.Name] += dp.Value
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					totals[m.Name] += int64(dp.Count)
				}
			}
		}
	}
	return totals, nil
}

// Shutdown logs the collected totals at debug level and shuts the provider
// down.
func (p *Provider) Shutdown(ctx context.Context) error {
	totals, err := p.Totals(ctx)
	if err != nil {
		p.log.Warn("failed to collect metrics", zap.Error(err))
	} else if len(totals) > 0 {
		fields := make([]zap.Field, 0, len(totals))
		for name, v := range totals {
			fields = append(fields, zap.Int64(name, v))
		}
		p.log.Debug("metrics", fields...)
	}
	return p.mp.Shutdown(ctx)
}
