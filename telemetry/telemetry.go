// Package telemetry wires OpenTelemetry tracing and metrics for the
// workbench engines. Engines take a Tracer and Instruments through
// their constructors; both default to no-ops when not configured.
package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ServiceName identifies this module in exported spans.
const ServiceName = "workbench"

// NewTracerProvider creates a TracerProvider over the given exporter
// with the workbench service resource attached. The provider uses a
// simple span processor so spans export as they complete.
func NewTracerProvider(exporter sdktrace.SpanExporter, logger *slog.Logger) *sdktrace.TracerProvider {
	if logger == nil {
		logger = slog.Default()
	}
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(semconv.ServiceNameKey.String(ServiceName)),
	)
	if err != nil {
		logger.Warn("failed to create resource, using default", "error", err)
		res = resource.Default()
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	)
}

// NoopTracer returns a tracer that records nothing.
func NoopTracer() trace.Tracer {
	return tracenoop.NewTracerProvider().Tracer(ServiceName)
}

// Instruments are the metric instruments the engines record against.
type Instruments struct {
	// ImportedObjects counts objects accepted by an import, by category
	// attribute.
	ImportedObjects metric.Int64Counter

	// ImportErrors counts accumulated import diagnostics, by error type
	// attribute.
	ImportErrors metric.Int64Counter

	// ExportedObjects counts objects placed into export bundles.
	ExportedObjects metric.Int64Counter
}

// NewInstruments creates the workbench instruments on a meter.
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	imported, err := meter.Int64Counter("workbench.import.objects",
		metric.WithDescription("Objects accepted by bundle imports"))
	if err != nil {
		return nil, err
	}
	importErrors, err := meter.Int64Counter("workbench.import.errors",
		metric.WithDescription("Diagnostics accumulated by bundle imports"))
	if err != nil {
		return nil, err
	}
	exported, err := meter.Int64Counter("workbench.export.objects",
		metric.WithDescription("Objects placed into export bundles"))
	if err != nil {
		return nil, err
	}
	return &Instruments{
		ImportedObjects: imported,
		ImportErrors:    importErrors,
		ExportedObjects: exported,
	}, nil
}

// NoopInstruments returns instruments that record nothing.
func NoopInstruments() *Instruments {
	inst, _ := NewInstruments(metricnoop.NewMeterProvider().Meter(ServiceName))
	return inst
}
