package exporter

import (
	"context"
	"fmt"
	"regexp"

	"github.com/arcanum-sec/workbench/registry"
	"github.com/arcanum-sec/workbench/stix"
)

// linkByIDPattern matches inline citation markup referencing another
// object by its ATT&CK identifier: "(LinkById: T1234)".
var linkByIDPattern = regexp.MustCompile(`\(LinkById: ([^)\s]+)\)`)

// resolveCitations replaces inline citation markup in every object's
// description with a "[name](url)" reference. An identifier resolves
// first against the objects already in the export set; the fallback is
// an attack-id lookup across the object stores, built once per export
// call. Unresolved identifiers render as the identifier itself with an
// empty url.
func (e *Engine) resolveCitations(ctx context.Context, ec *exportContext) error {
	// Attack-id index over the export set.
	inSet := make(map[string]*stix.Object)
	for _, obj := range ec.objects {
		if id := obj.AttackID(); id != "" {
			inSet[id] = obj
		}
	}

	var resolveErr error
	for _, obj := range ec.objects {
		if obj.Description == "" || !linkByIDPattern.MatchString(obj.Description) {
			continue
		}
		obj.Description = linkByIDPattern.ReplaceAllStringFunc(obj.Description, func(match string) string {
			attackID := linkByIDPattern.FindStringSubmatch(match)[1]
			target := inSet[attackID]
			if target == nil {
				var err error
				target, err = e.lookupByAttackID(ctx, ec, attackID)
				if err != nil {
					resolveErr = err
					return match
				}
			}
			if target == nil {
				e.logger.Warn("unresolved citation", "attack_id", attackID)
				return "[" + attackID + "]()"
			}
			return "[" + target.Name + "](" + attackURL(target) + ")"
		})
		if resolveErr != nil {
			return resolveErr
		}
	}
	return nil
}

// lookupByAttackID resolves an attack id against the object stores.
// The full index is built on the first fallback lookup of an export
// call and cached on the export context.
func (e *Engine) lookupByAttackID(ctx context.Context, ec *exportContext, attackID string) (*stix.Object, error) {
	if ec.attackIndex == nil {
		index := make(map[string]*stix.Object)
		for _, cat := range []registry.Category{
			registry.CategoryTechnique,
			registry.CategoryTactic,
			registry.CategoryMatrix,
			registry.CategoryMitigation,
			registry.CategoryMalware,
			registry.CategoryGroup,
			registry.CategoryCampaign,
			registry.CategoryDataSource,
			registry.CategoryDataComponent,
		} {
			st, err := e.registry.StoreFor(cat)
			if err != nil {
				return nil, err
			}
			recs, err := st.ListLatest(ctx)
			if err != nil {
				return nil, fmt.Errorf("build attack-id index: %w", err)
			}
			for _, rec := range recs {
				if id := rec.Object.AttackID(); id != "" {
					index[id] = rec.Object
				}
			}
		}
		ec.attackIndex = index
	}
	return ec.attackIndex[attackID], nil
}

// attackURL returns the url of the object's ATT&CK identifier
// reference, or "" when it has none.
func attackURL(obj *stix.Object) string {
	for _, ref := range obj.ExternalReferences {
		if ref.ExternalID != "" && ref.URL != "" {
			return ref.URL
		}
	}
	return ""
}
