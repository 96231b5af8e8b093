package exporter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcanum-sec/workbench/registry"
	"github.com/arcanum-sec/workbench/stix"
	"github.com/arcanum-sec/workbench/store"
)

// fixture bundles an engine with its backing registry so tests can seed
// stored state directly.
type fixture struct {
	engine   *Engine
	registry *registry.Registry
}

func newFixture() *fixture {
	reg := registry.NewMemory()
	return &fixture{engine: NewEngine(reg), registry: reg}
}

func (f *fixture) seed(t *testing.T, objs ...*stix.Object) {
	t.Helper()
	for _, obj := range objs {
		st, err := f.registry.Lookup(obj.Type)
		require.NoError(t, err)
		require.NoError(t, st.Create(context.Background(), &store.Record{Object: obj}))
	}
}

func (f *fixture) seedRecord(t *testing.T, rec *store.Record) {
	t.Helper()
	st, err := f.registry.Lookup(rec.Object.Type)
	require.NoError(t, err)
	require.NoError(t, st.Create(context.Background(), rec))
}

// attackObject builds a domain-tagged object carrying an ATT&CK
// identifier reference.
func attackObject(objectType, name, attackID, domain string) *stix.Object {
	return &stix.Object{
		Type:     objectType,
		ID:       stix.NewIdentifier(objectType),
		Name:     name,
		Modified: stix.MustParseTimestamp("2023-01-01T00:00:00.000Z"),
		Domains:  []string{domain},
		ExternalReferences: []stix.ExternalReference{
			{
				SourceName: "mitre-attack",
				ExternalID: attackID,
				URL:        "https://attack.mitre.org/x/" + attackID,
			},
		},
	}
}

func relationship(relType, sourceRef, targetRef string) *stix.Object {
	return &stix.Object{
		Type:             stix.TypeRelationship,
		ID:               stix.NewIdentifier(stix.TypeRelationship),
		Modified:         stix.MustParseTimestamp("2023-01-01T00:00:00.000Z"),
		RelationshipType: relType,
		SourceRef:        sourceRef,
		TargetRef:        targetRef,
	}
}

// ids returns the logical ids of a bundle's objects.
func ids(b *stix.Bundle) []string {
	out := make([]string, 0, len(b.Objects))
	for _, obj := range b.Objects {
		out = append(out, obj.ID)
	}
	return out
}

// find returns the bundle object with the given id, or nil.
func find(b *stix.Bundle, id string) *stix.Object {
	for _, obj := range b.Objects {
		if obj.ID == id {
			return obj
		}
	}
	return nil
}
