package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanum-sec/workbench/importer"
	"github.com/arcanum-sec/workbench/reference"
	"github.com/arcanum-sec/workbench/registry"
	"github.com/arcanum-sec/workbench/stix"
)

// fakeFetcher serves canned index and bundle documents keyed by url and
// counts bundle fetches.
type fakeFetcher struct {
	indexes     map[string]*CollectionIndex
	bundles     map[string]*stix.Bundle
	bundleCalls int
	indexErr    error
}

func (f *fakeFetcher) FetchIndex(_ context.Context, url string) (*CollectionIndex, error) {
	if f.indexErr != nil {
		return nil, f.indexErr
	}
	index, ok := f.indexes[url]
	if !ok {
		return nil, errors.New("no such index")
	}
	return index, nil
}

func (f *fakeFetcher) FetchBundle(_ context.Context, url string) (*stix.Bundle, error) {
	f.bundleCalls++
	bundle, ok := f.bundles[url]
	if !ok {
		return nil, errors.New("no such bundle")
	}
	return bundle, nil
}

func newImportEngine() (*importer.Engine, *registry.Registry) {
	reg := registry.NewMemory()
	return importer.NewEngine(reg, reference.NewReconciler(reference.NewMemoryStore(), nil)), reg
}

// remote builds a one-collection remote: an index advertising one
// version and the matching bundle.
func remote(collectionID, indexURL, bundleURL, modified string) (*fakeFetcher, *stix.Bundle) {
	collection := &stix.Object{
		Type:     stix.TypeCollection,
		ID:       collectionID,
		Name:     "Remote Collection",
		Modified: stix.MustParseTimestamp(modified),
	}
	bundle := stix.NewBundle()
	bundle.Objects = []*stix.Object{collection}

	fetcher := &fakeFetcher{
		indexes: map[string]*CollectionIndex{
			indexURL: {
				ID: "index-1",
				Collections: []IndexCollection{{
					ID: collectionID,
					Versions: []IndexVersion{{
						Modified: collection.Modified,
						URL:      bundleURL,
					}},
				}},
			},
		},
		bundles: map[string]*stix.Bundle{bundleURL: bundle},
	}
	return fetcher, bundle
}

func TestPollerImportsStaleSubscription(t *testing.T) {
	ctx := context.Background()
	collectionID := stix.NewIdentifier(stix.TypeCollection)
	fetcher, _ := remote(collectionID, "https://example.com/index.json", "https://example.com/bundle.json", "2023-06-01T00:00:00.000Z")

	imp, reg := newImportEngine()
	subs := NewMemoryStore()
	require.NoError(t, subs.Put(ctx, &Subscription{
		ID:           "sub-1",
		CollectionID: collectionID,
		IndexURL:     "https://example.com/index.json",
		CreatedAt:    time.Now(),
	}))

	p := NewPoller(subs, fetcher, imp)
	p.RunOnce(ctx)

	// The collection was imported.
	collections, err := reg.Lookup(stix.TypeCollection)
	require.NoError(t, err)
	_, err = collections.RetrieveLatest(ctx, collectionID)
	require.NoError(t, err)

	// The subscription advanced to the imported version.
	sub, err := subs.Get(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, stix.MustParseTimestamp("2023-06-01T00:00:00.000Z").Time, sub.LastRetrieved)
}

func TestPollerSkipsFreshSubscription(t *testing.T) {
	ctx := context.Background()
	collectionID := stix.NewIdentifier(stix.TypeCollection)
	fetcher, _ := remote(collectionID, "https://example.com/index.json", "https://example.com/bundle.json", "2023-06-01T00:00:00.000Z")

	imp, _ := newImportEngine()
	subs := NewMemoryStore()
	require.NoError(t, subs.Put(ctx, &Subscription{
		ID:            "sub-1",
		CollectionID:  collectionID,
		IndexURL:      "https://example.com/index.json",
		LastRetrieved: stix.MustParseTimestamp("2023-06-01T00:00:00.000Z").Time,
	}))

	p := NewPoller(subs, fetcher, imp)
	p.RunOnce(ctx)

	assert.Zero(t, fetcher.bundleCalls)
}

func TestPollerFailureDoesNotStopTheCycle(t *testing.T) {
	ctx := context.Background()
	collectionID := stix.NewIdentifier(stix.TypeCollection)
	fetcher, _ := remote(collectionID, "https://example.com/index.json", "https://example.com/bundle.json", "2023-06-01T00:00:00.000Z")

	imp, reg := newImportEngine()
	subs := NewMemoryStore()
	require.NoError(t, subs.Put(ctx, &Subscription{
		ID:           "a-broken",
		CollectionID: collectionID,
		IndexURL:     "https://example.com/missing.json",
	}))
	require.NoError(t, subs.Put(ctx, &Subscription{
		ID:           "b-healthy",
		CollectionID: collectionID,
		IndexURL:     "https://example.com/index.json",
	}))

	p := NewPoller(subs, fetcher, imp)
	p.RunOnce(ctx)

	collections, err := reg.Lookup(stix.TypeCollection)
	require.NoError(t, err)
	_, err = collections.RetrieveLatest(ctx, collectionID)
	require.NoError(t, err)
}

func TestPollerRetriesAfterImportFailure(t *testing.T) {
	ctx := context.Background()
	collectionID := stix.NewIdentifier(stix.TypeCollection)
	fetcher, bundle := remote(collectionID, "https://example.com/index.json", "https://example.com/bundle.json", "2023-06-01T00:00:00.000Z")

	// An object with an unsupported spec version makes the import fatal.
	bundle.Objects = append(bundle.Objects, &stix.Object{
		Type:              stix.TypeTechnique,
		ID:                stix.NewIdentifier(stix.TypeTechnique),
		Modified:          stix.MustParseTimestamp("2023-06-01T00:00:00.000Z"),
		AttackSpecVersion: "99.0.0",
	})

	imp, _ := newImportEngine()
	subs := NewMemoryStore()
	require.NoError(t, subs.Put(ctx, &Subscription{
		ID:           "sub-1",
		CollectionID: collectionID,
		IndexURL:     "https://example.com/index.json",
	}))

	p := NewPoller(subs, fetcher, imp)
	p.RunOnce(ctx)

	// The failure is recoverable: the timestamp did not advance, so the
	// next cycle fetches again.
	sub, err := subs.Get(ctx, "sub-1")
	require.NoError(t, err)
	assert.True(t, sub.LastRetrieved.IsZero())

	p.RunOnce(ctx)
	assert.Equal(t, 2, fetcher.bundleCalls)
}

func TestIndexLatest(t *testing.T) {
	entry := IndexCollection{
		ID: "c1",
		Versions: []IndexVersion{
			{Modified: stix.MustParseTimestamp("2023-01-01T00:00:00.000Z"), URL: "v1"},
			{Modified: stix.MustParseTimestamp("2023-06-01T00:00:00.000Z"), URL: "v2"},
			{Modified: stix.MustParseTimestamp("2023-03-01T00:00:00.000Z"), URL: "v1.5"},
		},
	}

	latest := entry.Latest()
	require.NotNil(t, latest)
	assert.Equal(t, "v2", latest.URL)

	empty := IndexCollection{ID: "c2"}
	assert.Nil(t, empty.Latest())
}

func TestMemoryStoreSetLastRetrieved(t *testing.T) {
	ctx := context.Background()
	subs := NewMemoryStore()
	require.NoError(t, subs.Put(ctx, &Subscription{ID: "sub-1"}))

	when := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, subs.SetLastRetrieved(ctx, "sub-1", when))

	sub, err := subs.Get(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, when, sub.LastRetrieved)

	assert.ErrorIs(t, subs.SetLastRetrieved(ctx, "missing", when), ErrNotFound)
	assert.ErrorIs(t, subs.Put(ctx, &Subscription{}), ErrMissingID)
}
