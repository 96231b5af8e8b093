package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanum-sec/workbench/stix"
)

func newRecord(id, name, modified string) *Record {
	return &Record{
		Object: &stix.Object{
			Type:     stix.TypeTechnique,
			ID:       id,
			Name:     name,
			Modified: stix.MustParseTimestamp(modified),
		},
	}
}

func TestMemoryStoreCreateAndRetrieve(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := stix.NewIdentifier(stix.TypeTechnique)

	require.NoError(t, s.Create(ctx, newRecord(id, "v1", "2023-01-01T00:00:00.000Z")))

	rec, err := s.RetrieveLatest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "v1", rec.Object.Name)

	exact, err := s.RetrieveVersion(ctx, id, stix.MustParseTimestamp("2023-01-01T00:00:00.000Z"))
	require.NoError(t, err)
	assert.Equal(t, "v1", exact.Object.Name)

	_, err = s.RetrieveVersion(ctx, id, stix.MustParseTimestamp("2024-01-01T00:00:00.000Z"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDuplicateVersion(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := stix.NewIdentifier(stix.TypeTechnique)

	require.NoError(t, s.Create(ctx, newRecord(id, "v1", "2023-01-01T00:00:00.000Z")))

	err := s.Create(ctx, newRecord(id, "v1 again", "2023-01-01T00:00:00.000Z"))
	assert.ErrorIs(t, err, ErrDuplicateVersion)
}

func TestMemoryStoreVersionOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := stix.NewIdentifier(stix.TypeTechnique)

	// Insert out of chronological order.
	require.NoError(t, s.Create(ctx, newRecord(id, "v2", "2023-06-01T00:00:00.000Z")))
	require.NoError(t, s.Create(ctx, newRecord(id, "v1", "2023-01-01T00:00:00.000Z")))
	require.NoError(t, s.Create(ctx, newRecord(id, "v3", "2024-01-01T00:00:00.000Z")))

	all, err := s.RetrieveAll(ctx, id)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "v1", all[0].Object.Name)
	assert.Equal(t, "v2", all[1].Object.Name)
	assert.Equal(t, "v3", all[2].Object.Name)

	latest, err := s.RetrieveLatest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "v3", latest.Object.Name)
}

func TestMemoryStoreRetrieveAllUnknownID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	all, err := s.RetrieveAll(ctx, "attack-pattern--b5f1fdaf-160b-4cbb-b1d9-ec5b2b1f0a1b")
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = s.RetrieveLatest(ctx, "attack-pattern--b5f1fdaf-160b-4cbb-b1d9-ec5b2b1f0a1b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := stix.NewIdentifier(stix.TypeTechnique)

	rec := newRecord(id, "v1", "2023-01-01T00:00:00.000Z")
	require.NoError(t, s.Create(ctx, rec))

	rec.Workspace.WorkflowState = StateReviewed
	require.NoError(t, s.Update(ctx, rec))

	got, err := s.RetrieveLatest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateReviewed, got.Workspace.WorkflowState)

	missing := newRecord(stix.NewIdentifier(stix.TypeTechnique), "x", "2023-01-01T00:00:00.000Z")
	assert.ErrorIs(t, s.Update(ctx, missing), ErrNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := stix.NewIdentifier(stix.TypeTechnique)

	require.NoError(t, s.Create(ctx, newRecord(id, "v1", "2023-01-01T00:00:00.000Z")))
	require.NoError(t, s.Create(ctx, newRecord(id, "v2", "2023-06-01T00:00:00.000Z")))

	require.NoError(t, s.Delete(ctx, id, stix.MustParseTimestamp("2023-06-01T00:00:00.000Z")))

	latest, err := s.RetrieveLatest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "v1", latest.Object.Name)

	err = s.Delete(ctx, id, stix.MustParseTimestamp("2023-06-01T00:00:00.000Z"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreListLatest(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := stix.NewIdentifier(stix.TypeTechnique)
	b := stix.NewIdentifier(stix.TypeTechnique)

	require.NoError(t, s.Create(ctx, newRecord(a, "a-v1", "2023-01-01T00:00:00.000Z")))
	require.NoError(t, s.Create(ctx, newRecord(a, "a-v2", "2023-06-01T00:00:00.000Z")))
	require.NoError(t, s.Create(ctx, newRecord(b, "b-v1", "2023-01-01T00:00:00.000Z")))

	latest, err := s.ListLatest(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)

	names := map[string]string{}
	for _, rec := range latest {
		names[rec.Object.ID] = rec.Object.Name
	}
	assert.Equal(t, "a-v2", names[a])
	assert.Equal(t, "b-v1", names[b])
}

func TestMemoryStoreCloneIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := stix.NewIdentifier(stix.TypeTechnique)

	rec := newRecord(id, "v1", "2023-01-01T00:00:00.000Z")
	require.NoError(t, s.Create(ctx, rec))

	// Mutating the record after Create must not affect stored state.
	rec.Object.Name = "mutated after create"

	got, err := s.RetrieveLatest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "v1", got.Object.Name)

	// Mutating a retrieved record must not affect stored state either.
	got.Object.Name = "mutated after retrieve"

	again, err := s.RetrieveLatest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "v1", again.Object.Name)
}

func TestMemoryStoreMarkingDefinitionVersionKey(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := stix.NewIdentifier(stix.TypeMarkingDefinition)

	rec := &Record{
		Object: &stix.Object{
			Type:    stix.TypeMarkingDefinition,
			ID:      id,
			Created: stix.MustParseTimestamp("2017-06-01T00:00:00.000Z"),
		},
	}
	require.NoError(t, s.Create(ctx, rec))

	got, err := s.RetrieveVersion(ctx, id, stix.MustParseTimestamp("2017-06-01T00:00:00.000Z"))
	require.NoError(t, err)
	assert.Equal(t, id, got.Object.ID)
}
