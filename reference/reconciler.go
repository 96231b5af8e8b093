package reference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/arcanum-sec/workbench/stix"
)

// Disposition classifies one staged citation within an import run.
type Disposition string

const (
	// DispositionUnique marks the first occurrence of a source name in
	// this run; it will be reconciled against the store.
	DispositionUnique Disposition = "unique"

	// DispositionDuplicate marks a repeated source name within the run.
	DispositionDuplicate Disposition = "duplicate"

	// DispositionAlias marks a citation excluded because it names an
	// alias of the citing object rather than source material.
	DispositionAlias Disposition = "alias"

	// DispositionIdentifier marks a citation excluded because it
	// carries its own external id (ATT&CK ids, CVE ids) and is not a
	// bibliographic reference.
	DispositionIdentifier Disposition = "identifier"
)

// Batch stages the citations of one import run. Staging is
// order-preserving so reconciliation results are deterministic for a
// given bundle.
type Batch struct {
	order []string
	refs  map[string]*Reference

	// Duplicates holds source names staged more than once, in the
	// order the duplicates were seen.
	Duplicates []string
}

// NewBatch returns an empty staging batch.
func NewBatch() *Batch {
	return &Batch{refs: make(map[string]*Reference)}
}

// Add stages a single reference and reports its disposition.
func (b *Batch) Add(ref Reference) Disposition {
	if _, seen := b.refs[ref.SourceName]; seen {
		b.Duplicates = append(b.Duplicates, ref.SourceName)
		return DispositionDuplicate
	}
	staged := ref
	b.refs[ref.SourceName] = &staged
	b.order = append(b.order, ref.SourceName)
	return DispositionUnique
}

// AddObject stages every bibliographic citation of an object, skipping
// identifier references and alias citations. Aliases are special-cased
// for the two category families that carry them: groups and campaigns
// ("aliases") and the software subtypes ("x_mitre_aliases").
func (b *Batch) AddObject(obj *stix.Object) []Disposition {
	var aliases []string
	switch obj.Type {
	case stix.TypeGroup, stix.TypeCampaign:
		aliases = obj.Aliases
	case stix.TypeMalware, stix.TypeTool:
		aliases = obj.SoftwareAliases
	}

	dispositions := make([]Disposition, 0, len(obj.ExternalReferences))
	for _, ext := range obj.ExternalReferences {
		switch {
		case ext.ExternalID != "":
			dispositions = append(dispositions, DispositionIdentifier)
		case slices.Contains(aliases, ext.SourceName):
			dispositions = append(dispositions, DispositionAlias)
		default:
			dispositions = append(dispositions, b.Add(Reference{
				SourceName:  ext.SourceName,
				Description: ext.Description,
				URL:         ext.URL,
			}))
		}
	}
	return dispositions
}

// Report is the outcome of reconciling a batch: source names created,
// updated, and deduplicated within the run.
type Report struct {
	Additions  []string
	Changes    []string
	Duplicates []string
}

// Reconciler merges staged references into a reference store.
type Reconciler struct {
	store  Store
	logger *slog.Logger
}

// NewReconciler returns a reconciler over the given store.
func NewReconciler(store Store, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, logger: logger}
}

// Store returns the underlying reference store.
func (r *Reconciler) Store() Store {
	return r.store
}

// Reconcile merges every uniquely staged reference: an existing source
// name is updated and reported as a change, a new one is created and
// reported as an addition. In preview mode the report is computed but
// nothing is written.
func (r *Reconciler) Reconcile(ctx context.Context, batch *Batch, preview bool) (*Report, error) {
	report := &Report{
		Additions:  []string{},
		Changes:    []string{},
		Duplicates: slices.Clone(batch.Duplicates),
	}
	if report.Duplicates == nil {
		report.Duplicates = []string{}
	}

	for _, name := range batch.order {
		staged := batch.refs[name]
		_, err := r.store.Retrieve(ctx, name)
		switch {
		case err == nil:
			if !preview {
				if err := r.store.Update(ctx, staged); err != nil {
					return nil, fmt.Errorf("update reference %q: %w", name, err)
				}
			}
			report.Changes = append(report.Changes, name)
		case errors.Is(err, ErrNotFound):
			if !preview {
				if err := r.store.Create(ctx, staged); err != nil {
					return nil, fmt.Errorf("create reference %q: %w", name, err)
				}
			}
			report.Additions = append(report.Additions, name)
		default:
			return nil, fmt.Errorf("retrieve reference %q: %w", name, err)
		}
		r.logger.Debug("reconciled reference", "source_name", name)
	}
	return report, nil
}
