package exporter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanum-sec/workbench/registry"
	"github.com/arcanum-sec/workbench/stix"
)

func TestExportCollection(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	tech := attackObject(stix.TypeTechnique, "Phishing", "T1566", stix.DomainEnterprise)
	group := attackObject(stix.TypeGroup, "APT99", "G0099", stix.DomainEnterprise)
	f.seed(t, tech, group)

	missingID := stix.NewIdentifier(stix.TypeTechnique)
	collection := &stix.Object{
		Type:     stix.TypeCollection,
		ID:       stix.NewIdentifier(stix.TypeCollection),
		Name:     "Test Collection",
		Modified: stix.MustParseTimestamp("2023-02-01T00:00:00.000Z"),
		Contents: []stix.ContentEntry{
			{ObjectRef: tech.ID, ObjectModified: tech.Modified},
			{ObjectRef: group.ID, ObjectModified: group.Modified},
			// Never stored; must be dropped, not fatal.
			{ObjectRef: missingID, ObjectModified: tech.Modified},
		},
	}
	f.seed(t, collection)

	bundle, err := f.engine.ExportCollection(ctx, CollectionOptions{CollectionID: collection.ID})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{collection.ID, tech.ID, group.ID}, ids(bundle))
	assert.Equal(t, stix.TypeBundle, bundle.Type)

	// The export is recorded against the collection record.
	collections, err := f.registry.Lookup(stix.TypeCollection)
	require.NoError(t, err)
	rec, err := collections.RetrieveLatest(ctx, collection.ID)
	require.NoError(t, err)
	require.Len(t, rec.Workspace.Exports, 1)
	assert.Equal(t, bundle.ID, rec.Workspace.Exports[0].BundleID)
}

func TestExportCollectionExactVersion(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	techV1 := attackObject(stix.TypeTechnique, "Phishing v1", "T1566", stix.DomainEnterprise)
	techV2 := &stix.Object{
		Type:     stix.TypeTechnique,
		ID:       techV1.ID,
		Name:     "Phishing v2",
		Modified: stix.MustParseTimestamp("2023-06-01T00:00:00.000Z"),
		Domains:  []string{stix.DomainEnterprise},
	}
	f.seed(t, techV1, techV2)

	collectionID := stix.NewIdentifier(stix.TypeCollection)
	old := &stix.Object{
		Type:     stix.TypeCollection,
		ID:       collectionID,
		Modified: stix.MustParseTimestamp("2023-02-01T00:00:00.000Z"),
		Contents: []stix.ContentEntry{{ObjectRef: techV1.ID, ObjectModified: techV1.Modified}},
	}
	current := &stix.Object{
		Type:     stix.TypeCollection,
		ID:       collectionID,
		Modified: stix.MustParseTimestamp("2023-07-01T00:00:00.000Z"),
		Contents: []stix.ContentEntry{{ObjectRef: techV2.ID, ObjectModified: techV2.Modified}},
	}
	f.seed(t, old, current)

	// The exact older version resolves the older member version.
	bundle, err := f.engine.ExportCollection(ctx, CollectionOptions{
		CollectionID:       collectionID,
		CollectionModified: old.Modified,
	})
	require.NoError(t, err)
	member := find(bundle, techV1.ID)
	require.NotNil(t, member)
	assert.Equal(t, "Phishing v1", member.Name)

	// Without a version the latest collection wins.
	bundle, err = f.engine.ExportCollection(ctx, CollectionOptions{CollectionID: collectionID})
	require.NoError(t, err)
	member = find(bundle, techV2.ID)
	require.NotNil(t, member)
	assert.Equal(t, "Phishing v2", member.Name)
}

func TestExportCollectionPreviewRecordsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	collection := &stix.Object{
		Type:     stix.TypeCollection,
		ID:       stix.NewIdentifier(stix.TypeCollection),
		Modified: stix.MustParseTimestamp("2023-02-01T00:00:00.000Z"),
	}
	f.seed(t, collection)

	_, err := f.engine.ExportCollection(ctx, CollectionOptions{
		CollectionID: collection.ID,
		PreviewOnly:  true,
	})
	require.NoError(t, err)

	collections, err := f.registry.StoreFor(registry.CategoryCollection)
	require.NoError(t, err)
	rec, err := collections.RetrieveLatest(ctx, collection.ID)
	require.NoError(t, err)
	assert.Empty(t, rec.Workspace.Exports)
}

func TestExportCollectionNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.engine.ExportCollection(context.Background(), CollectionOptions{
		CollectionID: stix.NewIdentifier(stix.TypeCollection),
	})
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}
