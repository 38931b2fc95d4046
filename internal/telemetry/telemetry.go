// Package telemetry installs the OpenTelemetry tracer provider.
//
// Spans are only exported when an OTLP endpoint is configured; otherwise the global
// no-op provider stays in place and instrumentation costs nothing.
package telemetry

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/mrlokans/libraryhub/internal/config"
)

// ShutdownFunc flushes and stops the exporter.
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

// Setup configures tracing from cfg and returns a function to flush it on exit.
func Setup(ctx context.Context, cfg config.Telemetry, version string) (ShutdownFunc, error) {
	if cfg.Endpoint == "" {
		log.Printf("[TELEMETRY] OTEL_EXPORTER_OTLP_ENDPOINT not set, tracing export disabled")
		return noopShutdown, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	if err != nil {
		return noopShutdown, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", version),
	)

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	log.Printf("[TELEMETRY] Exporting traces to %s as %s", cfg.Endpoint, cfg.ServiceName)
	return provider.Shutdown, nil
}
