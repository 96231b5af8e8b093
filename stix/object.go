package stix

import (
	"encoding/json"
	"slices"
)

// ExternalReference is a bibliographic or identifier reference attached to
// an object. References whose ExternalID is set identify the object itself
// (ATT&CK ids, CVE ids) rather than cited source material.
type ExternalReference struct {
	SourceName  string `json:"source_name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	ExternalID  string `json:"external_id,omitempty"`
}

// ContentEntry is one manifest entry of a collection: an exact object
// version the collection declares it contains.
type ContentEntry struct {
	ObjectRef      string    `json:"object_ref"`
	ObjectModified Timestamp `json:"object_modified"`
}

// KillChainPhase places a technique in a tactic of a kill chain.
type KillChainPhase struct {
	KillChainName string `json:"kill_chain_name"`
	PhaseName     string `json:"phase_name"`
}

// Object is one version of a knowledge-base record. Fields the engines
// reason about are typed; every other field of the source document is
// preserved in Extra and written back on marshal, so unknown fields
// survive a round trip through the workbench.
type Object struct {
	Type        string    `json:"type"`
	ID          string    `json:"id"`
	SpecVersion string    `json:"spec_version,omitempty"`
	Created     Timestamp `json:"created,omitzero"`
	Modified    Timestamp `json:"modified,omitzero"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`

	CreatedByRef       string              `json:"created_by_ref,omitempty"`
	ObjectMarkingRefs  []string            `json:"object_marking_refs,omitempty"`
	ExternalReferences []ExternalReference `json:"external_references,omitempty"`
	KillChainPhases    []KillChainPhase    `json:"kill_chain_phases,omitempty"`

	Revoked           bool     `json:"revoked,omitempty"`
	Deprecated        bool     `json:"x_mitre_deprecated,omitempty"`
	Domains           []string `json:"x_mitre_domains,omitempty"`
	Version           string   `json:"x_mitre_version,omitempty"`
	AttackSpecVersion string   `json:"x_mitre_attack_spec_version,omitempty"`

	// Aliases carries "aliases" (groups, campaigns); SoftwareAliases
	// carries "x_mitre_aliases" (malware, tools). Both feed the
	// reference reconciler's alias exclusion.
	Aliases         []string `json:"aliases,omitempty"`
	SoftwareAliases []string `json:"x_mitre_aliases,omitempty"`

	// IsFamily is the malware family indicator. It is a pointer because
	// presence is profile-dependent: required in STIX 2.1, absent in 2.0.
	IsFamily *bool `json:"is_family,omitempty"`

	// Data source and component fields.
	DataSourceRef string   `json:"x_mitre_data_source_ref,omitempty"`
	DataSources   []string `json:"x_mitre_data_sources,omitempty"`

	// Relationship fields.
	RelationshipType string `json:"relationship_type,omitempty"`
	SourceRef        string `json:"source_ref,omitempty"`
	TargetRef        string `json:"target_ref,omitempty"`

	// ObjectRefs lists the objects a note annotates.
	ObjectRefs []string `json:"object_refs,omitempty"`

	// Contents is the manifest of a collection object.
	Contents []ContentEntry `json:"x_mitre_contents,omitempty"`

	// Extra holds every field of the source document not covered above.
	Extra map[string]json.RawMessage `json:"-"`
}

// knownKeys are the JSON keys bound to typed fields of Object. Keys in
// this list are removed from Extra on unmarshal; typed fields win over
// Extra on marshal.
var knownKeys = []string{
	"type", "id", "spec_version", "created", "modified", "name",
	"description", "created_by_ref", "object_marking_refs",
	"external_references", "kill_chain_phases", "revoked",
	"x_mitre_deprecated", "x_mitre_domains", "x_mitre_version",
	"x_mitre_attack_spec_version", "aliases", "x_mitre_aliases",
	"is_family", "x_mitre_data_source_ref", "x_mitre_data_sources",
	"relationship_type", "source_ref", "target_ref", "object_refs",
	"x_mitre_contents",
}

// UnmarshalJSON decodes the typed fields and stashes every remaining
// field in Extra.
func (o *Object) UnmarshalJSON(data []byte) error {
	type plain Object
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownKeys {
		delete(raw, k)
	}
	if len(raw) == 0 {
		raw = nil
	}
	p.Extra = raw
	*o = Object(p)
	return nil
}

// MarshalJSON merges the typed fields with Extra. Typed fields win when
// both carry the same key.
func (o *Object) MarshalJSON() ([]byte, error) {
	type plain Object
	data, err := json.Marshal((*plain)(o))
	if err != nil {
		return nil, err
	}
	if len(o.Extra) == 0 {
		return data, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range o.Extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// VersionKey returns the version marker for the object: the modified
// timestamp, or the created timestamp for marking definitions.
func (o *Object) VersionKey() Timestamp {
	if o.Type == TypeMarkingDefinition {
		return o.Created
	}
	return o.Modified
}

// DedupKey returns the (logical id, version marker) key that is unique
// within a category's store.
func (o *Object) DedupKey() string {
	return o.ID + "/" + o.VersionKey().String()
}

// InDomain reports whether the object is natively tagged with the given
// knowledge domain.
func (o *Object) InDomain(domain string) bool {
	return slices.Contains(o.Domains, domain)
}

// AttackID returns the object's ATT&CK identifier from its external
// references, or "" when the object carries none.
func (o *Object) AttackID() string {
	for _, ref := range o.ExternalReferences {
		if ref.ExternalID == "" {
			continue
		}
		if slices.Contains(AttackSourceNames, ref.SourceName) {
			return ref.ExternalID
		}
	}
	return ""
}

// Clone returns a deep copy of the object via a JSON round trip. Export
// contexts clone before rewriting so stored state is never mutated.
func (o *Object) Clone() (*Object, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	var clone Object
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, err
	}
	return &clone, nil
}
