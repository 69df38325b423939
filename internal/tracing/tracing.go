// Package tracing builds the OpenTelemetry tracer provider a materialize run
// reports its batch spans to.
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/wehubfusion/xmlstruct/pkg/config"
)

const shutdownTimeout = 10 * time.Second

// Provider owns the tracer provider of one host process. A disabled
// Provider hands out no-op tracers and has nothing to flush.
type Provider struct {
	sdk    *sdktrace.TracerProvider
	logger *zap.Logger
}

// Setup builds a Provider from the [tracing] section of the serde config.
// When tracing is disabled no exporter is created.
func Setup(ctx context.Context, cfg config.TracingConfig, version string, logger *zap.Logger) (*Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		return &Provider{logger: logger}, nil
	}
	if cfg.OTLPEndpoint == "" {
		return nil, fmt.Errorf("tracing.otlp_endpoint is required when tracing is enabled")
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(version),
			semconv.DeploymentEnvironment(cfg.Environment),
			attribute.String("xmlstruct.otlp_endpoint", cfg.OTLPEndpoint),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	logger.Info("Tracing enabled",
		zap.String("service_name", cfg.ServiceName),
		zap.String("otlp_endpoint", cfg.OTLPEndpoint),
		zap.Float64("sample_ratio", cfg.SampleRatio))

	return &Provider{sdk: tp, logger: logger}, nil
}

// Enabled reports whether spans are exported
func (p *Provider) Enabled() bool { return p.sdk != nil }

// TracerProvider returns the provider the pipeline creates its tracer from
func (p *Provider) TracerProvider() trace.TracerProvider {
	if p.sdk == nil {
		return noop.NewTracerProvider()
	}
	return p.sdk
}

// Shutdown flushes pending spans, waiting at most ten seconds
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := p.sdk.Shutdown(ctx); err != nil {
		p.logger.Error("Failed to flush traces", zap.Error(err))
		return fmt.Errorf("failed to shut down tracing: %w", err)
	}
	p.logger.Debug("Traces flushed")
	return nil
}
