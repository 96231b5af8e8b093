package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanum-sec/workbench/stix"
)

func TestBundleClean(t *testing.T) {
	b := stix.NewBundle()
	b.Objects = []*stix.Object{
		{
			Type:              stix.TypeTechnique,
			ID:                stix.NewIdentifier(stix.TypeTechnique),
			Modified:          stix.Now(),
			AttackSpecVersion: "3.2.0",
		},
	}

	report, err := Bundle(b)
	require.NoError(t, err)
	assert.Empty(t, report.Issues)
	assert.Zero(t, report.DuplicateObjects)
	assert.Zero(t, report.InvalidSpecVersions)
}

func TestBundleFlagsDuplicates(t *testing.T) {
	id := stix.NewIdentifier(stix.TypeTechnique)
	modified := stix.MustParseTimestamp("2023-04-11T00:00:00.000Z")

	b := stix.NewBundle()
	b.Objects = []*stix.Object{
		{Type: stix.TypeTechnique, ID: id, Modified: modified},
		{Type: stix.TypeTechnique, ID: id, Modified: modified},
		// Same id with a different version marker is not a duplicate.
		{Type: stix.TypeTechnique, ID: id, Modified: stix.MustParseTimestamp("2023-05-01T00:00:00.000Z")},
	}

	report, err := Bundle(b)
	require.NoError(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, KindDuplicateObject, report.Issues[0].Kind)
	assert.Equal(t, id, report.Issues[0].ObjectRef)
	assert.Equal(t, 1, report.DuplicateObjects)
}

func TestBundleFlagsUnsupportedSpecVersions(t *testing.T) {
	b := stix.NewBundle()
	b.Objects = []*stix.Object{
		{
			Type:              stix.TypeTechnique,
			ID:                stix.NewIdentifier(stix.TypeTechnique),
			Modified:          stix.Now(),
			AttackSpecVersion: "99.0.0",
		},
	}

	report, err := Bundle(b)
	require.NoError(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, KindInvalidSpecVersion, report.Issues[0].Kind)
	assert.Equal(t, 1, report.InvalidSpecVersions)
}

func TestBundleMarkingDefinitionExemptFromGate(t *testing.T) {
	b := stix.NewBundle()
	b.Objects = []*stix.Object{
		{
			Type:    stix.TypeMarkingDefinition,
			ID:      stix.NewIdentifier(stix.TypeMarkingDefinition),
			Created: stix.Now(),
		},
	}

	report, err := Bundle(b)
	require.NoError(t, err)
	assert.Empty(t, report.Issues)
}

func TestBundleRejectsMalformedEnvelope(t *testing.T) {
	_, err := Bundle(&stix.Bundle{Type: "report"})
	assert.ErrorIs(t, err, stix.ErrMalformedBundle)
}
