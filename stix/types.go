package stix

// Object type tags used by the ATT&CK data model.
const (
	// TypeTechnique is the type tag for techniques and sub-techniques.
	TypeTechnique = "attack-pattern"

	// TypeTactic is the type tag for tactics.
	TypeTactic = "x-mitre-tactic"

	// TypeMatrix is the type tag for matrices.
	TypeMatrix = "x-mitre-matrix"

	// TypeMitigation is the type tag for mitigations.
	TypeMitigation = "course-of-action"

	// TypeMalware is one of the two software type tags.
	TypeMalware = "malware"

	// TypeTool is the other software type tag.
	TypeTool = "tool"

	// TypeGroup is the type tag for adversary groups.
	TypeGroup = "intrusion-set"

	// TypeCampaign is the type tag for campaigns.
	TypeCampaign = "campaign"

	// TypeDataSource is the type tag for data sources.
	TypeDataSource = "x-mitre-data-source"

	// TypeDataComponent is the type tag for data components.
	TypeDataComponent = "x-mitre-data-component"

	// TypeRelationship is the type tag for relationship objects.
	TypeRelationship = "relationship"

	// TypeNote is the type tag for annotation objects.
	TypeNote = "note"

	// TypeIdentity is the type tag for identity objects.
	TypeIdentity = "identity"

	// TypeMarkingDefinition is the type tag for marking definitions.
	// Marking definitions carry no modified timestamp; their created
	// timestamp is the version marker.
	TypeMarkingDefinition = "marking-definition"

	// TypeCollection is the type tag for collection manifest objects.
	TypeCollection = "x-mitre-collection"

	// TypeBundle is the envelope type tag.
	TypeBundle = "bundle"
)

// Relationship types the engines interpret. Other relationship types pass
// through imports and exports untouched.
const (
	RelationshipTypeUses           = "uses"
	RelationshipTypeDetects        = "detects"
	RelationshipTypeMitigates      = "mitigates"
	RelationshipTypeAttributedTo   = "attributed-to"
	RelationshipTypeRevokedBy      = "revoked-by"
	RelationshipTypeSubtechniqueOf = "subtechnique-of"
)

// Knowledge domains.
const (
	DomainEnterprise = "enterprise-attack"
	DomainMobile     = "mobile-attack"
	DomainICS        = "ics-attack"
)

// IsDomain reports whether name is a recognized knowledge domain.
func IsDomain(name string) bool {
	switch name {
	case DomainEnterprise, DomainMobile, DomainICS:
		return true
	default:
		return false
	}
}

// AttackSourceNames are the external-reference source names that carry an
// ATT&CK identifier for an object.
var AttackSourceNames = []string{"mitre-attack", "mitre-mobile-attack", "mitre-ics-attack"}

// STIX spec versions an export can be conformed to.
const (
	StixVersion20 = "2.0"
	StixVersion21 = "2.1"
)
