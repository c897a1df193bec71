// Package telemetry sets up OpenTelemetry tracing and metrics.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gitlab.com/yelinaung/savings-tracker/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Exporter names accepted by Setup.
const (
	ExporterNone     = ""
	ExporterStdout   = "stdout"
	ExporterOTLPHTTP = "otlp-http"
	ExporterOTLPGRPC = "otlp-grpc"
)

// ErrUnknownExporter is returned by Setup for an unsupported exporter name.
var ErrUnknownExporter = errors.New("unknown telemetry exporter")

const metricInterval = 30 * time.Second

// ShutdownFunc flushes and stops the providers installed by Setup.
type ShutdownFunc func(context.Context) error

// ValidExporter reports whether name is an accepted exporter.
func ValidExporter(name string) bool {
	switch strings.ToLower(name) {
	case ExporterNone, ExporterStdout, ExporterOTLPHTTP, ExporterOTLPGRPC:
		return true
	}
	return false
}

// Setup installs global tracer and meter providers exporting to exporter.
// With ExporterNone the global no-op providers are kept and only the
// propagators are installed. OTLP endpoints come from the standard
// OTEL_EXPORTER_OTLP_* environment variables.
func Setup(ctx context.Context, serviceName, version, exporter string) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	exporter = strings.ToLower(strings.TrimSpace(exporter))
	if exporter == ExporterNone {
		return func(context.Context) error { return nil }, nil
	}

	spans, readers, err := newExporters(ctx, exporter)
	if err != nil {
		return nil, err
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", version),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spans),
		sdktrace.WithResource(res),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(readers),
		sdkmetric.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	logger.Log.Info().
		Str("exporter", exporter).
		Str("service", serviceName).
		Msg("Telemetry enabled")

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

func newExporters(ctx context.Context, exporter string) (sdktrace.SpanExporter, sdkmetric.Reader, error) {
	var (
		spans   sdktrace.SpanExporter
		metrics sdkmetric.Exporter
		err     error
	)

	switch exporter {
	case ExporterStdout:
		spans, err = stdouttrace.New()
		if err == nil {
			metrics, err = stdoutmetric.New()
		}
	case ExporterOTLPHTTP:
		spans, err = otlptracehttp.New(ctx)
		if err == nil {
			metrics, err = otlpmetrichttp.New(ctx)
		}
	case ExporterOTLPGRPC:
		spans, err = otlptracegrpc.New(ctx)
		if err == nil {
			metrics, err = otlpmetricgrpc.New(ctx)
		}
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownExporter, exporter)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s exporter: %w", exporter, err)
	}

	return spans, sdkmetric.NewPeriodicReader(metrics, sdkmetric.WithInterval(metricInterval)), nil
}
