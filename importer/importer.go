package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/arcanum-sec/workbench/reference"
	"github.com/arcanum-sec/workbench/registry"
	"github.com/arcanum-sec/workbench/specversion"
	"github.com/arcanum-sec/workbench/stix"
	"github.com/arcanum-sec/workbench/store"
	"github.com/arcanum-sec/workbench/telemetry"
)

// Engine is the bundle import engine. Construct it with NewEngine; the
// zero value is not usable.
type Engine struct {
	registry   *registry.Registry
	references *reference.Reconciler
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *telemetry.Instruments
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

// NewEngine builds an import engine over a type registry and a
// reference reconciler.
func NewEngine(reg *registry.Registry, refs *reference.Reconciler, opts ...EngineOption) *Engine {
	e := &Engine{
		registry:   reg,
		references: refs,
		logger:     slog.Default(),
		tracer:     telemetry.NoopTracer(),
		metrics:    telemetry.NoopInstruments(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// contentKey identifies one manifest entry: an exact object version.
type contentKey struct {
	ref      string
	modified string
}

// ImportBundle ingests a bundle against the collection object extracted
// from it. The caller guarantees the bundle contains exactly one
// collection; stix.Bundle.Collection performs that extraction.
//
// On success the returned record is the collection record enriched with
// the categorization and reference report, persisted unless
// opts.PreviewOnly is set. Fatal conditions return a nil record and one
// of ErrDuplicateCollection, ErrSpecVersionViolation, or
// ErrDuplicateObject; every per-object problem is recorded in the
// categories' error list instead.
func (e *Engine) ImportBundle(ctx context.Context, collection *stix.Object, bundle *stix.Bundle, opts Options) (*store.Record, error) {
	if collection == nil {
		return nil, ErrMissingCollection
	}
	if collection.ID == "" {
		return nil, stix.ErrMissingCollectionID
	}
	if err := bundle.Validate(); err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "importer.ImportBundle", trace.WithAttributes(
		attribute.String("collection.id", collection.ID),
		attribute.Int("bundle.objects", len(bundle.Objects)),
		attribute.Bool("preview", opts.PreviewOnly),
	))
	defer span.End()

	collections, err := e.registry.StoreFor(registry.CategoryCollection)
	if err != nil {
		return nil, err
	}

	// Step 1: duplicate-collection precheck. A pre-existing record for
	// the same version is fatal unless forced, in which case the run
	// becomes a reimport appended to the existing record's history.
	existing, err := collections.RetrieveVersion(ctx, collection.ID, collection.Modified)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check for existing collection: %w", err)
	}
	reimport := existing != nil
	if reimport && !opts.Forced(ForceDuplicateCollection) {
		return nil, fmt.Errorf("%w: %s at %s", ErrDuplicateCollection, collection.ID, collection.Modified)
	}

	// Step 2: manifest lookup keyed by (object_ref, object_modified).
	manifest := make(map[contentKey]bool, len(collection.Contents))
	for _, entry := range collection.Contents {
		manifest[contentKey{entry.ObjectRef, entry.ObjectModified.String()}] = true
	}

	cats := store.NewImportCategories()
	refBatch := reference.NewBatch()
	diag := func(obj *stix.Object, errType store.ImportErrorType, msg string) {
		cats.Errors = append(cats.Errors, store.ImportError{
			ObjectRef:      obj.ID,
			ObjectModified: obj.VersionKey(),
			ErrorType:      errType,
			Message:        msg,
		})
		e.metrics.ImportErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("error_type", string(errType))))
	}

	// Steps 3-4: per-object manifest check, spec-version gate,
	// categorized diff, reference staging, persistence.
	for _, obj := range bundle.Objects {
		if obj.Type == stix.TypeCollection {
			continue
		}
		if obj.ID == "" {
			// A fresh logical id is assigned only when none is
			// supplied.
			obj.ID = stix.NewIdentifier(obj.Type)
		}

		key := contentKey{obj.ID, obj.VersionKey().String()}
		if manifest[key] {
			delete(manifest, key)
		} else {
			diag(obj, store.ErrorTypeNotInContents, "object not listed in the collection manifest")
		}

		if obj.Type != stix.TypeMarkingDefinition {
			if err := specversion.Check(obj.AttackSpecVersion); err != nil {
				diag(obj, store.ErrorTypeSpecVersionViolation, err.Error())
				if !opts.Forced(ForceAttackSpecVersionViolations) {
					return nil, fmt.Errorf("%w: %s declares %s", ErrSpecVersionViolation, obj.ID, obj.AttackSpecVersion)
				}
				e.logger.Warn("skipping object with unsupported spec version",
					"object", obj.ID, "spec_version", obj.AttackSpecVersion)
				continue
			}
		}

		st, err := e.registry.Lookup(obj.Type)
		if err != nil {
			diag(obj, store.ErrorTypeUnknownObjectType, err.Error())
			continue
		}

		versions, err := st.RetrieveAll(ctx, obj.ID)
		if err != nil {
			diag(obj, store.ErrorTypeRetrievalError, err.Error())
			continue
		}

		category, duplicate := categorize(obj, versions)
		if duplicate {
			cats.Duplicates = append(cats.Duplicates, obj.ID)
			continue
		}
		switch category {
		case categoryAddition:
			cats.Additions = append(cats.Additions, obj.ID)
		case categoryChange:
			cats.Changes = append(cats.Changes, obj.ID)
		case categoryMinorChange:
			cats.MinorChanges = append(cats.MinorChanges, obj.ID)
		case categoryRevocation:
			cats.Revocations = append(cats.Revocations, obj.ID)
		case categoryDeprecation:
			cats.Deprecations = append(cats.Deprecations, obj.ID)
		case categoryOutOfDate:
			cats.OutOfDate = append(cats.OutOfDate, obj.ID)
		}

		refBatch.AddObject(obj)

		if opts.PreviewOnly {
			continue
		}
		rec := &store.Record{
			Object: obj,
			Workspace: store.Workspace{
				Collections: []store.CollectionRef{{
					CollectionRef:      collection.ID,
					CollectionModified: collection.Modified,
				}},
			},
		}
		if err := st.Create(ctx, rec); err != nil {
			if errors.Is(err, store.ErrDuplicateVersion) {
				return nil, fmt.Errorf("%w: %s at %s", ErrDuplicateObject, obj.ID, obj.VersionKey())
			}
			diag(obj, store.ErrorTypeSaveError, err.Error())
			continue
		}
		e.metrics.ImportedObjects.Add(ctx, 1, metric.WithAttributes(
			attribute.String("category", obj.Type)))
	}

	// Step 5: manifest entries never consumed are missing objects.
	for _, entry := range collection.Contents {
		if manifest[contentKey{entry.ObjectRef, entry.ObjectModified.String()}] {
			cats.Errors = append(cats.Errors, store.ImportError{
				ObjectRef:      entry.ObjectRef,
				ObjectModified: entry.ObjectModified,
				ErrorType:      store.ErrorTypeMissingObject,
				Message:        "listed in the collection manifest but absent from the bundle",
			})
		}
	}

	// Step 6: reconcile staged references.
	refReport, err := e.references.Reconcile(ctx, refBatch, opts.PreviewOnly)
	if err != nil {
		return nil, fmt.Errorf("reconcile references: %w", err)
	}
	refs := &store.ImportReferences{
		Additions:  refReport.Additions,
		Changes:    refReport.Changes,
		Duplicates: refReport.Duplicates,
	}

	// Step 7: persist (or simulate) the collection record carrying the
	// full report.
	now := stix.Now()
	e.logger.Info("bundle import complete",
		"collection", collection.ID,
		"additions", len(cats.Additions),
		"changes", len(cats.Changes),
		"errors", len(cats.Errors),
		"reimport", reimport,
		"preview", opts.PreviewOnly)

	if reimport {
		existing.Workspace.Reimports = append(existing.Workspace.Reimports, store.Reimport{
			Imported:   now,
			Categories: cats,
			References: refs,
		})
		if !opts.PreviewOnly {
			if err := collections.Update(ctx, existing); err != nil {
				return nil, fmt.Errorf("record reimport: %w", err)
			}
		}
		return existing, nil
	}

	rec := &store.Record{
		Object: collection,
		Workspace: store.Workspace{
			Imported:         now,
			ImportCategories: cats,
			ImportReferences: refs,
		},
	}
	if !opts.PreviewOnly {
		if err := collections.Create(ctx, rec); err != nil {
			if errors.Is(err, store.ErrDuplicateVersion) {
				return nil, fmt.Errorf("%w: %s at %s", ErrDuplicateObject, collection.ID, collection.Modified)
			}
			return nil, fmt.Errorf("persist collection record: %w", err)
		}
	}
	return rec, nil
}

// diffCategory is the outcome of comparing an incoming object against
// its stored versions.
type diffCategory int

const (
	categoryAddition diffCategory = iota
	categoryChange
	categoryMinorChange
	categoryRevocation
	categoryDeprecation
	categoryOutOfDate
)

// categorize compares an incoming object against its existing versions.
// An existing version with the identical version marker is a duplicate.
// Otherwise the comparison runs against the latest stored version: a
// newly set revoked or deprecated flag wins over the timestamp
// comparison; a later version marker is a change or minor change
// depending on whether the version number moved; an earlier one is out
// of date.
func categorize(obj *stix.Object, versions []*store.Record) (diffCategory, bool) {
	if len(versions) == 0 {
		return categoryAddition, false
	}
	var latest *store.Record
	for _, rec := range versions {
		if rec.VersionKey().Equal(obj.VersionKey()) {
			return 0, true
		}
		if latest == nil || rec.VersionKey().After(latest.VersionKey()) {
			latest = rec
		}
	}
	switch {
	case obj.Revoked && !latest.Object.Revoked:
		return categoryRevocation, false
	case obj.Deprecated && !latest.Object.Deprecated:
		return categoryDeprecation, false
	case obj.VersionKey().After(latest.VersionKey()):
		if obj.Version != latest.Object.Version {
			return categoryChange, false
		}
		return categoryMinorChange, false
	default:
		return categoryOutOfDate, false
	}
}
