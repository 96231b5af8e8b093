package exporter

import (
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/arcanum-sec/workbench/filter"
	"github.com/arcanum-sec/workbench/registry"
	"github.com/arcanum-sec/workbench/stix"
	"github.com/arcanum-sec/workbench/store"
	"github.com/arcanum-sec/workbench/telemetry"
)

// Sentinel errors for export operations.
var (
	// ErrCollectionNotFound indicates no collection record exists for
	// the requested id (and version, when one was given).
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrUnknownDomain indicates the requested domain is not a
	// recognized knowledge domain.
	ErrUnknownDomain = errors.New("unknown knowledge domain")

	// ErrUnknownStixVersion indicates the requested target spec
	// version is not a supported conformance profile.
	ErrUnknownStixVersion = errors.New("unknown stix version")
)

// Engine is the bundle export engine, covering both single-collection
// and whole-domain exports. Construct it with NewEngine.
type Engine struct {
	registry *registry.Registry
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *telemetry.Instruments
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine's structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithTracer sets the engine's tracer.
func WithTracer(tracer trace.Tracer) EngineOption {
	return func(e *Engine) { e.tracer = tracer }
}

// WithInstruments sets the engine's metric instruments.
func WithInstruments(inst *telemetry.Instruments) EngineOption {
	return func(e *Engine) { e.metrics = inst }
}

// NewEngine builds an export engine over a type registry.
func NewEngine(reg *registry.Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		registry: reg,
		logger:   slog.Default(),
		tracer:   telemetry.NoopTracer(),
		metrics:  telemetry.NoopInstruments(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CollectionOptions configures a single-collection export.
type CollectionOptions struct {
	// CollectionID is the logical id of the collection to export.
	CollectionID string

	// CollectionModified selects an exact collection version. The zero
	// value selects the latest.
	CollectionModified stix.Timestamp

	// IncludeNotes folds in annotation objects referencing exported
	// objects.
	IncludeNotes bool

	// PreviewOnly skips recording the export against the collection.
	PreviewOnly bool
}

// DomainOptions configures a whole-domain export.
type DomainOptions struct {
	// Domain is the knowledge domain to export.
	Domain string

	// StixVersion is the conformance profile for the output objects,
	// stix.StixVersion20 or stix.StixVersion21. Empty defaults to 2.1.
	StixVersion string

	// IncludeRevoked admits revoked objects.
	IncludeRevoked bool

	// IncludeDeprecated admits deprecated objects.
	IncludeDeprecated bool

	// IncludeMissingAttackID admits objects lacking a recognized
	// ATT&CK identifier.
	IncludeMissingAttackID bool

	// IncludeNotes folds in annotation objects referencing exported
	// objects.
	IncludeNotes bool

	// State, when set, restricts the export to object versions in the
	// given workflow state.
	State store.WorkflowState

	// Filter, when set, restricts the export to objects matching the
	// compiled expression. It applies to primary and secondary objects,
	// not to relationships or the supporting identity and marking set.
	Filter *filter.Filter
}
