package exporter

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/arcanum-sec/workbench/registry"
	"github.com/arcanum-sec/workbench/store"
)

// foldNotes appends every annotation object that is neither deprecated
// nor revoked, references at least one object already in the export
// set, and is not already present. Notes are added in id order so the
// folded tail is stable for a given store state.
func (e *Engine) foldNotes(ctx context.Context, ec *exportContext) error {
	notes, err := e.registry.StoreFor(registry.CategoryNote)
	if err != nil {
		return err
	}
	recs, err := notes.ListLatest(ctx)
	if err != nil {
		return fmt.Errorf("retrieve notes: %w", err)
	}
	slices.SortFunc(recs, func(a, b *store.Record) int {
		return strings.Compare(a.Object.ID, b.Object.ID)
	})

	for _, rec := range recs {
		note := rec.Object
		if note.Revoked || note.Deprecated || ec.has(note.ID) {
			continue
		}
		referenced := slices.ContainsFunc(note.ObjectRefs, ec.has)
		if !referenced {
			continue
		}
		clone, err := note.Clone()
		if err != nil {
			return err
		}
		ec.add(clone)
	}
	return nil
}
