package exporter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanum-sec/workbench/stix"
)

func TestResolveCitationsInSet(t *testing.T) {
	f := newFixture()

	target := attackObject(stix.TypeTechnique, "Phishing", "T1566", stix.DomainEnterprise)
	citing := attackObject(stix.TypeMitigation, "User Training", "M1017", stix.DomainEnterprise)
	citing.Description = "Mitigates (LinkById: T1566) and related activity."

	ec := newExportContext()
	ec.add(target)
	ec.add(citing)

	require.NoError(t, f.engine.resolveCitations(context.Background(), ec))

	assert.Equal(t,
		"Mitigates [Phishing](https://attack.mitre.org/x/T1566) and related activity.",
		citing.Description)
}

func TestResolveCitationsStoreFallback(t *testing.T) {
	f := newFixture()

	// Stored but not part of the export set.
	stored := attackObject(stix.TypeGroup, "APT99", "G0099", stix.DomainEnterprise)
	f.seed(t, stored)

	citing := attackObject(stix.TypeTechnique, "Phishing", "T1566", stix.DomainEnterprise)
	citing.Description = "Used by (LinkById: G0099)."

	ec := newExportContext()
	ec.add(citing)

	require.NoError(t, f.engine.resolveCitations(context.Background(), ec))

	assert.Equal(t, "Used by [APT99](https://attack.mitre.org/x/G0099).", citing.Description)
}

func TestResolveCitationsUnresolved(t *testing.T) {
	f := newFixture()

	citing := attackObject(stix.TypeTechnique, "Phishing", "T1566", stix.DomainEnterprise)
	citing.Description = "See (LinkById: T9999)."

	ec := newExportContext()
	ec.add(citing)

	require.NoError(t, f.engine.resolveCitations(context.Background(), ec))

	assert.Equal(t, "See [T9999]().", citing.Description)
}

func TestResolveCitationsMultipleMarkers(t *testing.T) {
	f := newFixture()

	a := attackObject(stix.TypeTechnique, "Phishing", "T1566", stix.DomainEnterprise)
	b := attackObject(stix.TypeTechnique, "Process Injection", "T1055", stix.DomainEnterprise)
	citing := attackObject(stix.TypeGroup, "APT99", "G0099", stix.DomainEnterprise)
	citing.Description = "(LinkById: T1566) then (LinkById: T1055)"

	ec := newExportContext()
	ec.add(a)
	ec.add(b)
	ec.add(citing)

	require.NoError(t, f.engine.resolveCitations(context.Background(), ec))

	assert.Equal(t,
		"[Phishing](https://attack.mitre.org/x/T1566) then [Process Injection](https://attack.mitre.org/x/T1055)",
		citing.Description)
}
