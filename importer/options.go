package importer

import "slices"

// ForceFlag downgrades one fatal error class to a recorded diagnostic
// for a single import call.
type ForceFlag string

const (
	// ForceAttackSpecVersionViolations lets an import continue past
	// objects declaring an unsupported attack spec version. The
	// violating objects are recorded and skipped, not persisted.
	ForceAttackSpecVersionViolations ForceFlag = "attack-spec-version-violations"

	// ForceDuplicateCollection lets an import of an already-imported
	// collection version proceed as a reimport. The categorization is
	// appended to the existing collection record's reimport history.
	ForceDuplicateCollection ForceFlag = "duplicate-collection"
)

// Options configures one import call.
type Options struct {
	// PreviewOnly simulates the import: every computation and
	// diagnostic is produced, nothing is persisted.
	PreviewOnly bool

	// ForceImport lists the fatal error classes to downgrade for this
	// call.
	ForceImport []ForceFlag
}

// Forced reports whether the given force flag is set.
func (o Options) Forced(flag ForceFlag) bool {
	return slices.Contains(o.ForceImport, flag)
}
