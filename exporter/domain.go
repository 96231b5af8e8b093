package exporter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/arcanum-sec/workbench/registry"
	"github.com/arcanum-sec/workbench/stix"
	"github.com/arcanum-sec/workbench/store"
)

// primaryCategories are the categories retrieved directly by domain
// tag. Malware and tool resolve to the shared software store, so it is
// listed once.
var primaryCategories = []registry.Category{
	registry.CategoryTechnique,
	registry.CategoryTactic,
	registry.CategoryMatrix,
	registry.CategoryMitigation,
	registry.CategoryMalware,
	registry.CategoryDataSource,
	registry.CategoryDataComponent,
}

// ExportDomain computes the full bundle of a knowledge domain: primary
// objects tagged with the domain, their relationship-reachable
// secondary objects, every relationship with both endpoints included,
// optional notes, referenced identities and marking definitions, all
// conformed to the requested spec-version profile.
func (e *Engine) ExportDomain(ctx context.Context, opts DomainOptions) (*stix.Bundle, error) {
	if !stix.IsDomain(opts.Domain) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, opts.Domain)
	}
	stixVersion := opts.StixVersion
	if stixVersion == "" {
		stixVersion = stix.StixVersion21
	}
	if stixVersion != stix.StixVersion20 && stixVersion != stix.StixVersion21 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStixVersion, opts.StixVersion)
	}

	ctx, span := e.tracer.Start(ctx, "exporter.ExportDomain", trace.WithAttributes(
		attribute.String("domain", opts.Domain),
		attribute.String("stix_version", stixVersion),
	))
	defer span.End()

	ec := newExportContext()

	// Step 1: primary objects, one concurrent retrieval per category
	// store. The retrievals are independent; everything after this
	// point is sequential because it feeds the per-call caches.
	primaries, err := e.retrievePrimaries(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range primaries {
		ok, err := e.primaryAllowed(rec, opts)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		obj, err := rec.Object.Clone()
		if err != nil {
			return nil, err
		}
		ec.add(obj)
	}

	// Step 2: the full relationship set, retrieved once and cached.
	relationships, err := e.registry.StoreFor(registry.CategoryRelationship)
	if err != nil {
		return nil, err
	}
	ec.relationships, err = relationships.ListLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieve relationships: %w", err)
	}

	// Step 3: secondary objects, exactly one hop from a primary. The
	// endpoint test runs against the primary set as it stood after
	// step 1, never against secondaries added inside this loop, so the
	// result does not depend on relationship enumeration order.
	primaryIDs := make(map[string]bool, len(ec.objects))
	for _, obj := range ec.objects {
		primaryIDs[obj.ID] = true
	}
	for _, rel := range ec.relationships {
		src, tgt := rel.Object.SourceRef, rel.Object.TargetRef
		var secondary string
		switch {
		case primaryIDs[src] && !primaryIDs[tgt]:
			secondary = tgt
		case !primaryIDs[src] && primaryIDs[tgt]:
			secondary = src
		default:
			continue
		}
		if err := e.includeSecondary(ctx, ec, secondary, opts); err != nil {
			return nil, err
		}
	}

	// Step 4: derived technique data sources.
	deriveDataSources(ec.objects, ec.relationships)

	// Step 5: two extra secondary-inclusion rules. Groups reached from
	// an included campaign through attribution, and revoking objects
	// reached through a revoked-by edge.
	for _, rel := range ec.relationships {
		obj := rel.Object
		switch obj.RelationshipType {
		case stix.RelationshipTypeAttributedTo:
			if ec.has(obj.SourceRef) && !ec.has(obj.TargetRef) && ec.byID[obj.SourceRef].Type == stix.TypeCampaign {
				if err := e.includeSecondary(ctx, ec, obj.TargetRef, opts); err != nil {
					return nil, err
				}
			}
		case stix.RelationshipTypeRevokedBy:
			if ec.has(obj.SourceRef) && !ec.has(obj.TargetRef) {
				if err := e.includeSecondary(ctx, ec, obj.TargetRef, opts); err != nil {
					return nil, err
				}
			}
		}
	}

	// Step 6: closure. A relationship is exported exactly when both of
	// its endpoints were.
	for _, rel := range ec.relationships {
		obj := rel.Object
		if !ec.has(obj.SourceRef) || !ec.has(obj.TargetRef) || ec.has(obj.ID) {
			continue
		}
		if obj.Revoked && !opts.IncludeRevoked {
			continue
		}
		if obj.Deprecated && !opts.IncludeDeprecated {
			continue
		}
		if opts.State != "" && rel.Workspace.WorkflowState != opts.State {
			continue
		}
		clone, err := obj.Clone()
		if err != nil {
			return nil, err
		}
		ec.add(clone)
	}

	// Steps 7 and 8: notes and citation markup.
	if opts.IncludeNotes {
		if err := e.foldNotes(ctx, ec); err != nil {
			return nil, err
		}
	}
	if err := e.resolveCitations(ctx, ec); err != nil {
		return nil, err
	}

	// Step 9: referenced identities and marking definitions,
	// transitively. The set grows while we walk it.
	if err := e.collectSupportingObjects(ctx, ec); err != nil {
		return nil, err
	}

	// Step 10: conform every object to the target profile.
	for _, obj := range ec.objects {
		conformToStixVersion(obj, stixVersion)
	}

	bundle := stix.NewBundle()
	bundle.Objects = ec.objects

	e.metrics.ExportedObjects.Add(ctx, int64(len(bundle.Objects)), metric.WithAttributes(
		attribute.String("export", "domain")))
	e.logger.Info("domain export complete",
		"domain", opts.Domain,
		"objects", len(bundle.Objects),
		"bundle", bundle.ID)
	return bundle, nil
}

// retrievePrimaries fetches the latest versions of every primary
// category concurrently. Category retrievals do not interact, so they
// are the one place parallelism is safe.
func (e *Engine) retrievePrimaries(ctx context.Context) ([]*store.Record, error) {
	results := make([][]*store.Record, len(primaryCategories))
	errs := make([]error, len(primaryCategories))

	var wg sync.WaitGroup
	for i, cat := range primaryCategories {
		wg.Add(1)
		go func(i int, cat registry.Category) {
			defer wg.Done()
			st, err := e.registry.StoreFor(cat)
			if err != nil {
				errs[i] = err
				return
			}
			recs, err := st.ListLatest(ctx)
			if err != nil {
				errs[i] = fmt.Errorf("retrieve %s objects: %w", cat, err)
				return
			}
			results[i] = recs
		}(i, cat)
	}
	wg.Wait()

	var out []*store.Record
	for i := range primaryCategories {
		if errs[i] != nil {
			return nil, errs[i]
		}
		out = append(out, results[i]...)
	}
	return out, nil
}

// primaryAllowed applies the inclusion rules to a primary candidate:
// domain membership, revocation and deprecation flags, workflow state,
// ATT&CK identifier, and the caller's filter expression.
func (e *Engine) primaryAllowed(rec *store.Record, opts DomainOptions) (bool, error) {
	obj := rec.Object
	if !obj.InDomain(opts.Domain) {
		return false, nil
	}
	if obj.Revoked && !opts.IncludeRevoked {
		return false, nil
	}
	if obj.Deprecated && !opts.IncludeDeprecated {
		return false, nil
	}
	if opts.State != "" && rec.Workspace.WorkflowState != opts.State {
		return false, nil
	}
	if obj.AttackID() == "" && !opts.IncludeMissingAttackID {
		return false, nil
	}
	if opts.Filter != nil {
		return opts.Filter.Match(obj)
	}
	return true, nil
}

// includeSecondary resolves, validates, and adds one secondary object.
// Resolution is cached per export call, including misses, so every id
// is looked up at most once.
func (e *Engine) includeSecondary(ctx context.Context, ec *exportContext, id string, opts DomainOptions) error {
	if ec.has(id) {
		return nil
	}
	rec, cached := ec.secondaries[id]
	if !cached {
		st, err := e.registry.LookupID(id)
		if err != nil {
			// Relationship endpoints may point outside the closed
			// category set; those are simply not exportable.
			ec.secondaries[id] = nil
			return nil
		}
		rec, err = st.RetrieveLatest(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			rec = nil
		} else if err != nil {
			return fmt.Errorf("resolve secondary %s: %w", id, err)
		}
		ec.secondaries[id] = rec
	}
	if rec == nil {
		return nil
	}

	ok, err := e.secondaryAllowed(rec, opts)
	if err != nil || !ok {
		return err
	}
	obj, err := rec.Object.Clone()
	if err != nil {
		return err
	}
	// Secondary groups and campaigns are rewritten to the single target
	// domain for the duration of this export. Only the clone inside
	// this export context carries the rewrite; stored state is never
	// touched.
	if obj.Type == stix.TypeGroup || obj.Type == stix.TypeCampaign {
		obj.Domains = []string{opts.Domain}
	}
	ec.add(obj)

	// A data component pulls its data source along so derived
	// data-source strings can name it.
	if obj.Type == stix.TypeDataComponent && obj.DataSourceRef != "" {
		return e.includeSecondary(ctx, ec, obj.DataSourceRef, opts)
	}
	return nil
}

// secondaryAllowed applies the inclusion rules to a secondary
// candidate. Groups and campaigns skip the domain check because their
// domain list is rewritten for the export; the identifier requirement
// is special-cased for the software subtypes.
func (e *Engine) secondaryAllowed(rec *store.Record, opts DomainOptions) (bool, error) {
	obj := rec.Object
	if obj.Revoked && !opts.IncludeRevoked {
		return false, nil
	}
	if obj.Deprecated && !opts.IncludeDeprecated {
		return false, nil
	}
	if opts.State != "" && rec.Workspace.WorkflowState != opts.State {
		return false, nil
	}

	switch obj.Type {
	case stix.TypeGroup, stix.TypeCampaign:
		// Domain list is rewritten; no membership requirement.
	case stix.TypeMalware, stix.TypeTool:
		if !obj.InDomain(opts.Domain) {
			return false, nil
		}
		if obj.AttackID() == "" && !opts.IncludeMissingAttackID {
			return false, nil
		}
	case stix.TypeTechnique, stix.TypeTactic, stix.TypeMatrix, stix.TypeMitigation,
		stix.TypeDataSource, stix.TypeDataComponent:
		if !obj.InDomain(opts.Domain) {
			return false, nil
		}
	default:
		// Identities, markings, and notes arrive through their own
		// dedicated passes, never as relationship secondaries.
		return false, nil
	}

	if opts.Filter != nil {
		return opts.Filter.Match(obj)
	}
	return true, nil
}

// collectSupportingObjects walks the export set and appends every
// referenced identity and marking definition, transitively. Unresolved
// references are warned about, never fatal.
func (e *Engine) collectSupportingObjects(ctx context.Context, ec *exportContext) error {
	identities, err := e.registry.StoreFor(registry.CategoryIdentity)
	if err != nil {
		return err
	}
	markings, err := e.registry.StoreFor(registry.CategoryMarkingDefinition)
	if err != nil {
		return err
	}

	resolve := func(id string, st store.Store) error {
		if id == "" || ec.has(id) {
			return nil
		}
		rec, err := st.RetrieveLatest(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			e.logger.Warn("referenced object not found", "object", id)
			return nil
		}
		if err != nil {
			return fmt.Errorf("resolve reference %s: %w", id, err)
		}
		obj, err := rec.Object.Clone()
		if err != nil {
			return err
		}
		ec.add(obj)
		return nil
	}

	// Index-based walk: appended identities and markings get their own
	// references processed in later iterations.
	for i := 0; i < len(ec.objects); i++ {
		obj := ec.objects[i]
		if err := resolve(obj.CreatedByRef, identities); err != nil {
			return err
		}
		for _, ref := range obj.ObjectMarkingRefs {
			if err := resolve(ref, markings); err != nil {
				return err
			}
		}
	}
	return nil
}
