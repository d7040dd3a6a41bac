package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"sales-insights/internal/config"
)

const instrumentationName = "sales-insights"

// Tracing owns the process tracer provider. With the "none" exporter it
// hands out no-op tracers and Shutdown does nothing.
type Tracing struct {
	provider trace.TracerProvider
	shutdown func(context.Context) error
}

// NewTracing installs a global tracer provider for cfg.TraceExporter.
// Spans from the stdout exporter go to w (stderr when nil) so they do not
// interleave with JSON logs on stdout.
func NewTracing(cfg config.TelemetryConfig, w io.Writer, logger *slog.Logger) (*Tracing, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	switch cfg.TraceExporter {
	case "", "none":
		provider := noop.NewTracerProvider()
		otel.SetTracerProvider(provider)
		return &Tracing{
			provider: provider,
			shutdown: func(context.Context) error { return nil },
		}, nil

	case "stdout":
		if w == nil {
			w = os.Stderr
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("create trace exporter: %w", err)
		}

		res := resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
		)
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)

		logger.Info("tracing initialized", "exporter", cfg.TraceExporter, "service", cfg.ServiceName)
		return &Tracing{provider: tp, shutdown: tp.Shutdown}, nil

	default:
		return nil, fmt.Errorf("unsupported trace exporter %q", cfg.TraceExporter)
	}
}

func (t *Tracing) Tracer() trace.Tracer {
	return t.provider.Tracer(instrumentationName)
}

// Shutdown flushes pending spans.
func (t *Tracing) Shutdown(ctx context.Context) error {
	return t.shutdown(ctx)
}
