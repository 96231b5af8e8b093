package stix

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectRoundTripPreservesUnknownFields(t *testing.T) {
	src := []byte(`{
		"type": "attack-pattern",
		"id": "attack-pattern--4b74a1d4-b0e9-4ef1-93f1-14ecc6e2f5b5",
		"name": "Phishing",
		"modified": "2023-04-11T01:02:03.456Z",
		"created": "2020-01-01T00:00:00.000Z",
		"x_mitre_version": "1.2",
		"x_mitre_platforms": ["Windows", "Linux"],
		"x_custom_field": {"nested": true}
	}`)

	var obj Object
	require.NoError(t, json.Unmarshal(src, &obj))

	assert.Equal(t, TypeTechnique, obj.Type)
	assert.Equal(t, "Phishing", obj.Name)
	assert.Equal(t, "1.2", obj.Version)
	require.Contains(t, obj.Extra, "x_mitre_platforms")
	require.Contains(t, obj.Extra, "x_custom_field")
	assert.NotContains(t, obj.Extra, "name")

	out, err := json.Marshal(&obj)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Contains(t, decoded, "x_mitre_platforms")
	assert.Contains(t, decoded, "x_custom_field")
	assert.JSONEq(t, `["Windows", "Linux"]`, string(decoded["x_mitre_platforms"]))
}

func TestObjectMarshalTypedFieldsWin(t *testing.T) {
	obj := Object{
		Type: TypeTechnique,
		ID:   "attack-pattern--4b74a1d4-b0e9-4ef1-93f1-14ecc6e2f5b5",
		Name: "Current Name",
		Extra: map[string]json.RawMessage{
			"name": json.RawMessage(`"Stale Name"`),
		},
	}

	out, err := json.Marshal(&obj)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "Current Name", decoded["name"])
}

func TestVersionKey(t *testing.T) {
	created := MustParseTimestamp("2020-01-01T00:00:00.000Z")
	modified := MustParseTimestamp("2023-04-11T01:02:03.456Z")

	tests := []struct {
		name string
		obj  Object
		want Timestamp
	}{
		{
			name: "regular object uses modified",
			obj:  Object{Type: TypeTechnique, Created: created, Modified: modified},
			want: modified,
		},
		{
			name: "marking definition uses created",
			obj:  Object{Type: TypeMarkingDefinition, Created: created},
			want: created,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.obj.VersionKey().Equal(tt.want))
		})
	}
}

func TestDedupKey(t *testing.T) {
	obj := Object{
		Type:     TypeTechnique,
		ID:       "attack-pattern--4b74a1d4-b0e9-4ef1-93f1-14ecc6e2f5b5",
		Modified: MustParseTimestamp("2023-04-11T01:02:03.456Z"),
	}

	assert.Equal(t,
		"attack-pattern--4b74a1d4-b0e9-4ef1-93f1-14ecc6e2f5b5/2023-04-11T01:02:03.456Z",
		obj.DedupKey())
}

func TestAttackID(t *testing.T) {
	tests := []struct {
		name string
		refs []ExternalReference
		want string
	}{
		{
			name: "enterprise source",
			refs: []ExternalReference{
				{SourceName: "mitre-attack", ExternalID: "T1566", URL: "https://attack.mitre.org/techniques/T1566"},
			},
			want: "T1566",
		},
		{
			name: "citation before identifier",
			refs: []ExternalReference{
				{SourceName: "Some Report", Description: "cited material"},
				{SourceName: "mitre-ics-attack", ExternalID: "T0865"},
			},
			want: "T0865",
		},
		{
			name: "non-attack identifier ignored",
			refs: []ExternalReference{
				{SourceName: "cve", ExternalID: "CVE-2021-44228"},
			},
			want: "",
		},
		{
			name: "no references",
			refs: nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := Object{ExternalReferences: tt.refs}
			assert.Equal(t, tt.want, obj.AttackID())
		})
	}
}

func TestInDomain(t *testing.T) {
	obj := Object{Domains: []string{DomainEnterprise, DomainICS}}

	assert.True(t, obj.InDomain(DomainEnterprise))
	assert.True(t, obj.InDomain(DomainICS))
	assert.False(t, obj.InDomain(DomainMobile))
}

func TestCloneIsIndependent(t *testing.T) {
	obj := &Object{
		Type:     TypeTechnique,
		ID:       NewIdentifier(TypeTechnique),
		Name:     "Original",
		Modified: Now(),
		Domains:  []string{DomainEnterprise},
		Extra: map[string]json.RawMessage{
			"x_mitre_platforms": json.RawMessage(`["Windows"]`),
		},
	}

	clone, err := obj.Clone()
	require.NoError(t, err)

	clone.Name = "Rewritten"
	clone.Domains[0] = DomainMobile

	assert.Equal(t, "Original", obj.Name)
	assert.Equal(t, DomainEnterprise, obj.Domains[0])
	assert.Contains(t, clone.Extra, "x_mitre_platforms")
}
