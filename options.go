package workbench

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/arcanum-sec/workbench/reference"
	"github.com/arcanum-sec/workbench/registry"
	"github.com/arcanum-sec/workbench/telemetry"
)

// Option configures a Workbench during construction.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	tracer         trace.Tracer
	instruments    *telemetry.Instruments
	storeFactory   registry.Factory
	referenceStore reference.Store
}

func applyOptions(opts []Option) *options {
	o := &options{
		logger:      slog.Default(),
		tracer:      telemetry.NoopTracer(),
		instruments: telemetry.NoopInstruments(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the structured logger shared by both engines.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracer sets the tracer shared by both engines.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithInstruments sets the metric instruments shared by both engines.
func WithInstruments(inst *telemetry.Instruments) Option {
	return func(o *options) {
		if inst != nil {
			o.instruments = inst
		}
	}
}

// WithStoreFactory sets the factory used to build each category's
// object store. The factory receives the category name and is called
// once per category.
func WithStoreFactory(factory registry.Factory) Option {
	return func(o *options) { o.storeFactory = factory }
}

// WithReferenceStore sets the backing store for external reference
// metadata.
func WithReferenceStore(s reference.Store) Option {
	return func(o *options) { o.referenceStore = s }
}
