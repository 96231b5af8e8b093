// Package validate checks an incoming bundle without touching storage.
// The check is pure: it flags duplicate objects within the bundle and
// objects declaring an unsupported attack spec version, and reports
// counts per class plus the raw issue list. Storage-aware checks
// (existing versions, manifest agreement) belong to the import engine.
package validate

import (
	"github.com/arcanum-sec/workbench/specversion"
	"github.com/arcanum-sec/workbench/stix"
)

// IssueKind classifies one validation issue.
type IssueKind string

const (
	// KindDuplicateObject flags a second occurrence of the same
	// (id, version marker) pair within the bundle.
	KindDuplicateObject IssueKind = "duplicate-object-in-bundle"

	// KindInvalidSpecVersion flags an object declaring an attack spec
	// version the workbench does not support.
	KindInvalidSpecVersion IssueKind = "invalid-attack-spec-version"
)

// Issue is one validation finding.
type Issue struct {
	ObjectRef      string         `json:"object_ref"`
	ObjectModified stix.Timestamp `json:"object_modified,omitzero"`
	Kind           IssueKind      `json:"kind"`
	Message        string         `json:"message"`
}

// Report is the outcome of validating one bundle.
type Report struct {
	Issues []Issue `json:"issues"`

	// DuplicateObjects counts KindDuplicateObject issues.
	DuplicateObjects int `json:"duplicate_object_in_bundle_count"`

	// InvalidSpecVersions counts KindInvalidSpecVersion issues.
	InvalidSpecVersions int `json:"invalid_attack_spec_version_count"`
}

// Bundle validates a bundle structurally. The bundle itself must be a
// well-formed envelope; per-object findings accumulate in the report
// and are never returned as errors.
func Bundle(b *stix.Bundle) (*Report, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	report := &Report{Issues: []Issue{}}
	seen := make(map[string]bool, len(b.Objects))

	for _, obj := range b.Objects {
		key := obj.DedupKey()
		if seen[key] {
			report.Issues = append(report.Issues, Issue{
				ObjectRef:      obj.ID,
				ObjectModified: obj.VersionKey(),
				Kind:           KindDuplicateObject,
				Message:        "object appears more than once in the bundle",
			})
			report.DuplicateObjects++
		}
		seen[key] = true

		// Marking definitions carry no spec-version declaration of
		// their own and are exempt from the gate.
		if obj.Type == stix.TypeMarkingDefinition {
			continue
		}
		if err := specversion.Check(obj.AttackSpecVersion); err != nil {
			report.Issues = append(report.Issues, Issue{
				ObjectRef:      obj.ID,
				ObjectModified: obj.VersionKey(),
				Kind:           KindInvalidSpecVersion,
				Message:        err.Error(),
			})
			report.InvalidSpecVersions++
		}
	}
	return report, nil
}
