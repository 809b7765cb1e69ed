package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/freemocap/skellysubs/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the metric instruments for pipeline and HTTP observability.
type Metrics struct {
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
	stageTotal      metric.Int64Counter
	stageDuration   metric.Float64Histogram
	stageActive     metric.Int64UpDownCounter
	artifactWrites  metric.Int64Counter
	errorTotal      metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	requestTotal, err := meter.Int64Counter("request.total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request.total counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram("request.duration",
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request.duration histogram: %w", err)
	}

	stageTotal, err := meter.Int64Counter("stage.total",
		metric.WithDescription("Total pipeline stage runs by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stage.total counter: %w", err)
	}

	stageDuration, err := meter.Float64Histogram("stage.duration",
		metric.WithDescription("Duration of pipeline stage runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stage.duration histogram: %w", err)
	}

	stageActive, err := meter.Int64UpDownCounter("stage.active",
		metric.WithDescription("Number of stages currently processing"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stage.active gauge: %w", err)
	}

	artifactWrites, err := meter.Int64Counter("artifact.writes",
		metric.WithDescription("Total artifact store writes by key"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating artifact.writes counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by type and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	return &Metrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		stageTotal:      stageTotal,
		stageDuration:   stageDuration,
		stageActive:     stageActive,
		artifactWrites:  artifactWrites,
		errorTotal:      errorTotal,
	}, nil
}

// RecordRequest records a completed HTTP request.
func (m *Metrics) RecordRequest(ctx context.Context, method, route, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", status),
	)
	m.requestTotal.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
	))
}

// RecordStageStart increments the active stage count.
func (m *Metrics) RecordStageStart(ctx context.Context, stage string) {
	m.stageActive.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordStageEnd decrements active stages and records the completed run.
func (m *Metrics) RecordStageEnd(ctx context.Context, stage, status string, duration time.Duration) {
	stageAttr := attribute.String("stage", stage)
	m.stageActive.Add(ctx, -1, metric.WithAttributes(stageAttr))
	m.stageTotal.Add(ctx, 1, metric.WithAttributes(stageAttr, attribute.String("status", status)))
	m.stageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(stageAttr))
}

// RecordArtifactWrite records a write to the artifact store.
func (m *Metrics) RecordArtifactWrite(ctx context.Context, key string) {
	m.artifactWrites.Add(ctx, 1, metric.WithAttributes(attribute.String("artifact", key)))
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}
