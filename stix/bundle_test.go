package stix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBundle(t *testing.T) {
	data := []byte(`{
		"type": "bundle",
		"id": "bundle--0f6a6d06-9e9f-4d70-9d5f-d51fab460a59",
		"objects": [
			{"type": "x-mitre-collection", "id": "x-mitre-collection--2d05f528-3d47-4f0b-a73c-07b7dbe28a3e", "name": "Test Collection"}
		]
	}`)

	b, err := ParseBundle(data)
	require.NoError(t, err)
	assert.Equal(t, TypeBundle, b.Type)
	require.Len(t, b.Objects, 1)
	assert.Equal(t, TypeCollection, b.Objects[0].Type)
}

func TestParseBundleRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{`},
		{"wrong type tag", `{"type": "report", "objects": []}`},
		{"missing objects", `{"type": "bundle", "id": "bundle--0f6a6d06-9e9f-4d70-9d5f-d51fab460a59"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBundle([]byte(tt.data))
			assert.ErrorIs(t, err, ErrMalformedBundle)
		})
	}
}

func TestBundleCollection(t *testing.T) {
	collection := &Object{
		Type: TypeCollection,
		ID:   NewIdentifier(TypeCollection),
		Name: "Enterprise ATT&CK",
	}
	technique := &Object{Type: TypeTechnique, ID: NewIdentifier(TypeTechnique)}

	b := NewBundle()
	b.Objects = []*Object{technique, collection}

	got, err := b.Collection()
	require.NoError(t, err)
	assert.Same(t, collection, got)
}

func TestBundleCollectionErrors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		b := NewBundle()
		b.Objects = []*Object{{Type: TypeTechnique, ID: NewIdentifier(TypeTechnique)}}

		_, err := b.Collection()
		assert.ErrorIs(t, err, ErrMissingCollection)
	})

	t.Run("multiple", func(t *testing.T) {
		b := NewBundle()
		b.Objects = []*Object{
			{Type: TypeCollection, ID: NewIdentifier(TypeCollection)},
			{Type: TypeCollection, ID: NewIdentifier(TypeCollection)},
		}

		_, err := b.Collection()
		assert.ErrorIs(t, err, ErrMultipleCollections)
	})

	t.Run("no identifier", func(t *testing.T) {
		b := NewBundle()
		b.Objects = []*Object{{Type: TypeCollection}}

		_, err := b.Collection()
		assert.ErrorIs(t, err, ErrMissingCollectionID)
	})
}

func TestTypeOfID(t *testing.T) {
	id := NewIdentifier(TypeTechnique)
	objectType, err := TypeOfID(id)
	require.NoError(t, err)
	assert.Equal(t, TypeTechnique, objectType)

	_, err = TypeOfID("not-an-identifier")
	assert.Error(t, err)

	_, err = TypeOfID("attack-pattern--nope")
	assert.Error(t, err)
}
