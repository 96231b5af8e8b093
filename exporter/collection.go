package exporter

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/arcanum-sec/workbench/registry"
	"github.com/arcanum-sec/workbench/stix"
	"github.com/arcanum-sec/workbench/store"
)

// ExportCollection assembles a bundle from exactly the object versions
// listed in a collection's manifest. Manifest entries that cannot be
// resolved to a stored version are dropped with a warning; the rest of
// the export proceeds.
//
// Unless opts.PreviewOnly is set, the generated bundle id and an export
// timestamp are recorded against the source collection record.
func (e *Engine) ExportCollection(ctx context.Context, opts CollectionOptions) (*stix.Bundle, error) {
	ctx, span := e.tracer.Start(ctx, "exporter.ExportCollection", trace.WithAttributes(
		attribute.String("collection.id", opts.CollectionID),
	))
	defer span.End()

	collections, err := e.registry.StoreFor(registry.CategoryCollection)
	if err != nil {
		return nil, err
	}

	var rec *store.Record
	if opts.CollectionModified.IsZero() {
		rec, err = collections.RetrieveLatest(ctx, opts.CollectionID)
	} else {
		rec, err = collections.RetrieveVersion(ctx, opts.CollectionID, opts.CollectionModified)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, opts.CollectionID)
	}
	if err != nil {
		return nil, fmt.Errorf("retrieve collection %s: %w", opts.CollectionID, err)
	}

	ec := newExportContext()
	collectionObj, err := rec.Object.Clone()
	if err != nil {
		return nil, err
	}
	ec.add(collectionObj)

	// Resolve every manifest entry to its exact object version.
	for _, entry := range rec.Object.Contents {
		st, err := e.registry.LookupID(entry.ObjectRef)
		if err != nil {
			e.logger.Warn("dropping unresolvable manifest entry",
				"object", entry.ObjectRef, "error", err)
			continue
		}
		member, err := st.RetrieveVersion(ctx, entry.ObjectRef, entry.ObjectModified)
		if err != nil {
			e.logger.Warn("dropping unresolvable manifest entry",
				"object", entry.ObjectRef, "modified", entry.ObjectModified, "error", err)
			continue
		}
		obj, err := member.Object.Clone()
		if err != nil {
			return nil, err
		}
		ec.add(obj)
	}

	// Derived fields and citation markup. The relationship set for
	// data-source derivation is the one inside the manifest itself.
	deriveDataSources(ec.objects, relationshipsIn(ec.objects))

	if opts.IncludeNotes {
		if err := e.foldNotes(ctx, ec); err != nil {
			return nil, err
		}
	}
	if err := e.resolveCitations(ctx, ec); err != nil {
		return nil, err
	}

	bundle := stix.NewBundle()
	bundle.Objects = ec.objects

	if !opts.PreviewOnly {
		rec.Workspace.Exports = append(rec.Workspace.Exports, store.ExportRecord{
			ExportTimestamp: stix.Now(),
			BundleID:        bundle.ID,
		})
		if err := collections.Update(ctx, rec); err != nil {
			return nil, fmt.Errorf("record export: %w", err)
		}
	}

	e.metrics.ExportedObjects.Add(ctx, int64(len(bundle.Objects)), metric.WithAttributes(
		attribute.String("export", "collection")))
	e.logger.Info("collection export complete",
		"collection", opts.CollectionID,
		"objects", len(bundle.Objects),
		"bundle", bundle.ID)
	return bundle, nil
}

// relationshipsIn returns the relationship objects contained in a set,
// wrapped as records for the shared derivation path.
func relationshipsIn(objects []*stix.Object) []*store.Record {
	var rels []*store.Record
	for _, obj := range objects {
		if obj.Type == stix.TypeRelationship {
			rels = append(rels, &store.Record{Object: obj})
		}
	}
	return rels
}
