// Package registry maps object categories to the store holding that
// category. The mapping is a closed, exhaustively-matched dispatch:
// adding a category is a compile-time-checked change, and an unknown
// category is a narrow, explicit error rather than a map miss.
//
// The two software subtypes (malware, tool) share a single store.
package registry

import (
	"errors"
	"fmt"

	"github.com/arcanum-sec/workbench/stix"
	"github.com/arcanum-sec/workbench/store"
)

// Category identifies one object category with its own store. The
// string value is the object type tag.
type Category string

const (
	CategoryTechnique         Category = stix.TypeTechnique
	CategoryTactic            Category = stix.TypeTactic
	CategoryMatrix            Category = stix.TypeMatrix
	CategoryMitigation        Category = stix.TypeMitigation
	CategoryMalware           Category = stix.TypeMalware
	CategoryTool              Category = stix.TypeTool
	CategoryGroup             Category = stix.TypeGroup
	CategoryCampaign          Category = stix.TypeCampaign
	CategoryDataSource        Category = stix.TypeDataSource
	CategoryDataComponent     Category = stix.TypeDataComponent
	CategoryRelationship      Category = stix.TypeRelationship
	CategoryNote              Category = stix.TypeNote
	CategoryIdentity          Category = stix.TypeIdentity
	CategoryMarkingDefinition Category = stix.TypeMarkingDefinition
	CategoryCollection        Category = stix.TypeCollection
)

// Categories lists every category in a stable order.
var Categories = []Category{
	CategoryTechnique,
	CategoryTactic,
	CategoryMatrix,
	CategoryMitigation,
	CategoryMalware,
	CategoryTool,
	CategoryGroup,
	CategoryCampaign,
	CategoryDataSource,
	CategoryDataComponent,
	CategoryRelationship,
	CategoryNote,
	CategoryIdentity,
	CategoryMarkingDefinition,
	CategoryCollection,
}

// ErrUnknownCategory indicates an object type tag outside the closed
// category set. The import engine records it per object and continues.
var ErrUnknownCategory = errors.New("unknown object category")

// ParseCategory maps an object type tag to its Category.
func ParseCategory(objectType string) (Category, error) {
	switch c := Category(objectType); c {
	case CategoryTechnique, CategoryTactic, CategoryMatrix,
		CategoryMitigation, CategoryMalware, CategoryTool,
		CategoryGroup, CategoryCampaign, CategoryDataSource,
		CategoryDataComponent, CategoryRelationship, CategoryNote,
		CategoryIdentity, CategoryMarkingDefinition, CategoryCollection:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, objectType)
	}
}

// CategoryOfID maps a logical identifier ("<type>--<uuid>") to the
// category of the object it names.
func CategoryOfID(id string) (Category, error) {
	objectType, err := stix.TypeOfID(id)
	if err != nil {
		return "", err
	}
	return ParseCategory(objectType)
}

// Registry is the dispatch table from category to store. One store per
// category, except that malware and tool share the software store.
type Registry struct {
	techniques         store.Store
	tactics            store.Store
	matrices           store.Store
	mitigations        store.Store
	software           store.Store
	groups             store.Store
	campaigns          store.Store
	dataSources        store.Store
	dataComponents     store.Store
	relationships      store.Store
	notes              store.Store
	identities         store.Store
	markingDefinitions store.Store
	collections        store.Store
}

// Factory builds the store for a category. The factory is invoked once
// per distinct store; malware and tool resolve to one call with the
// name "software".
type Factory func(name string) store.Store

// New builds a registry with one store per category from the factory.
func New(factory Factory) *Registry {
	return &Registry{
		techniques:         factory("techniques"),
		tactics:            factory("tactics"),
		matrices:           factory("matrices"),
		mitigations:        factory("mitigations"),
		software:           factory("software"),
		groups:             factory("groups"),
		campaigns:          factory("campaigns"),
		dataSources:        factory("data-sources"),
		dataComponents:     factory("data-components"),
		relationships:      factory("relationships"),
		notes:              factory("notes"),
		identities:         factory("identities"),
		markingDefinitions: factory("marking-definitions"),
		collections:        factory("collections"),
	}
}

// NewMemory builds a registry backed entirely by in-memory stores.
func NewMemory() *Registry {
	return New(func(string) store.Store { return store.NewMemoryStore() })
}

// StoreFor returns the store holding the given category. The switch is
// exhaustive over the closed category set.
func (r *Registry) StoreFor(c Category) (store.Store, error) {
	switch c {
	case CategoryTechnique:
		return r.techniques, nil
	case CategoryTactic:
		return r.tactics, nil
	case CategoryMatrix:
		return r.matrices, nil
	case CategoryMitigation:
		return r.mitigations, nil
	case CategoryMalware, CategoryTool:
		return r.software, nil
	case CategoryGroup:
		return r.groups, nil
	case CategoryCampaign:
		return r.campaigns, nil
	case CategoryDataSource:
		return r.dataSources, nil
	case CategoryDataComponent:
		return r.dataComponents, nil
	case CategoryRelationship:
		return r.relationships, nil
	case CategoryNote:
		return r.notes, nil
	case CategoryIdentity:
		return r.identities, nil
	case CategoryMarkingDefinition:
		return r.markingDefinitions, nil
	case CategoryCollection:
		return r.collections, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
}

// Lookup resolves an object type tag straight to its store.
func (r *Registry) Lookup(objectType string) (store.Store, error) {
	c, err := ParseCategory(objectType)
	if err != nil {
		return nil, err
	}
	return r.StoreFor(c)
}

// LookupID resolves a logical identifier to the store of its category.
func (r *Registry) LookupID(id string) (store.Store, error) {
	c, err := CategoryOfID(id)
	if err != nil {
		return nil, err
	}
	return r.StoreFor(c)
}
