package store

import (
	"context"
	"encoding/json"

	"github.com/arcanum-sec/workbench/stix"
)

// Store is the versioned object store contract for one object category.
//
// Implementations must enforce uniqueness of (logical id, version marker)
// on Create, reporting a violation as ErrDuplicateVersion. All methods
// are safe for concurrent use.
type Store interface {
	// RetrieveAll returns every stored version of the given logical id,
	// ordered oldest version first. A missing id yields an empty slice,
	// not an error.
	RetrieveAll(ctx context.Context, id string) ([]*Record, error)

	// RetrieveLatest returns the version with the greatest version
	// marker, or ErrNotFound when the id is unknown.
	RetrieveLatest(ctx context.Context, id string) (*Record, error)

	// RetrieveVersion returns the exact version named by (id, marker),
	// or ErrNotFound.
	RetrieveVersion(ctx context.Context, id string, version stix.Timestamp) (*Record, error)

	// Create persists a new record. A record whose (id, version marker)
	// already exists fails with ErrDuplicateVersion.
	Create(ctx context.Context, rec *Record) error

	// Update rewrites the workspace bookkeeping of an existing version.
	// Fails with ErrNotFound when the version does not exist.
	Update(ctx context.Context, rec *Record) error

	// Delete removes one exact version. Fails with ErrNotFound when the
	// version does not exist.
	Delete(ctx context.Context, id string, version stix.Timestamp) error

	// ListLatest returns the latest version of every logical id in the
	// store. Enumeration order is not a contract.
	ListLatest(ctx context.Context) ([]*Record, error)
}

// Record is one stored object version together with its workspace
// bookkeeping. The object itself is immutable once exported; the
// workspace is the mutable side channel.
type Record struct {
	Object    *stix.Object `json:"stix"`
	Workspace Workspace    `json:"workspace"`
}

// Workspace is the per-record bookkeeping the workbench maintains
// alongside the interchange object.
type Workspace struct {
	// WorkflowState tracks the editorial lifecycle of the version.
	WorkflowState WorkflowState `json:"workflow_state,omitempty"`

	// Collections records membership: which collection versions this
	// object version was imported under.
	Collections []CollectionRef `json:"collections,omitempty"`

	// Imported is set on collection records when an import completes.
	Imported stix.Timestamp `json:"imported,omitzero"`

	// ImportCategories is the categorized diff of the import that
	// created this collection record.
	ImportCategories *ImportCategories `json:"import_categories,omitempty"`

	// ImportReferences is the reference reconciliation report of the
	// import that created this collection record.
	ImportReferences *ImportReferences `json:"import_references,omitempty"`

	// Reimports is the history of forced reimports of the same
	// collection version, newest last.
	Reimports []Reimport `json:"reimports,omitempty"`

	// Exports records each bundle materialized from this collection
	// record, newest last.
	Exports []ExportRecord `json:"exports,omitempty"`
}

// WorkflowState is the editorial lifecycle state of an object version.
type WorkflowState string

const (
	StateWorkInProgress WorkflowState = "work-in-progress"
	StateAwaitingReview WorkflowState = "awaiting-review"
	StateReviewed       WorkflowState = "reviewed"
	StateStatic         WorkflowState = "static"
)

// IsValid reports whether the state is one of the defined lifecycle
// states. The empty state is valid and means "unset".
func (s WorkflowState) IsValid() bool {
	switch s {
	case "", StateWorkInProgress, StateAwaitingReview, StateReviewed, StateStatic:
		return true
	default:
		return false
	}
}

// CollectionRef names one collection version an object belongs to.
type CollectionRef struct {
	CollectionRef      string         `json:"collection_ref"`
	CollectionModified stix.Timestamp `json:"collection_modified"`
}

// ImportCategories is the categorized diff an import computes for a
// bundle against the existing store contents. Each list holds logical
// ids; Errors accumulates per-object diagnostics.
type ImportCategories struct {
	Additions    []string      `json:"additions"`
	Changes      []string      `json:"changes"`
	MinorChanges []string      `json:"minor_changes"`
	Revocations  []string      `json:"revocations"`
	Deprecations []string      `json:"deprecations"`
	Duplicates   []string      `json:"duplicates"`
	OutOfDate    []string      `json:"out_of_date"`
	Errors       []ImportError `json:"errors"`
}

// ImportReferences is the reference reconciliation report of one import
// run, holding source names.
type ImportReferences struct {
	Additions  []string `json:"additions"`
	Changes    []string `json:"changes"`
	Duplicates []string `json:"duplicates"`
}

// Reimport is one entry of a collection's forced-reimport history.
type Reimport struct {
	Imported   stix.Timestamp    `json:"imported"`
	Categories *ImportCategories `json:"import_categories,omitempty"`
	References *ImportReferences `json:"import_references,omitempty"`
}

// ExportRecord is one entry of a collection's export history.
type ExportRecord struct {
	ExportTimestamp stix.Timestamp `json:"export_timestamp"`
	BundleID        string         `json:"bundle_id"`
}

// ImportError is one accumulated per-object diagnostic. Diagnostics are
// recorded and reported rather than thrown unless their type is fatal to
// the whole import.
type ImportError struct {
	ObjectRef      string          `json:"object_ref"`
	ObjectModified stix.Timestamp  `json:"object_modified,omitzero"`
	ErrorType      ImportErrorType `json:"error_type"`
	Message        string          `json:"error_message,omitempty"`
}

// ImportErrorType classifies an import diagnostic.
type ImportErrorType string

const (
	ErrorTypeDuplicateCollection  ImportErrorType = "duplicate-collection"
	ErrorTypeDuplicateObject      ImportErrorType = "duplicate-object"
	ErrorTypeSpecVersionViolation ImportErrorType = "attack-spec-version-violation"
	ErrorTypeUnknownObjectType    ImportErrorType = "unknown-object-type"
	ErrorTypeNotInContents        ImportErrorType = "not-in-contents"
	ErrorTypeMissingObject        ImportErrorType = "missing-object"
	ErrorTypeSaveError            ImportErrorType = "save-error"
	ErrorTypeRetrievalError       ImportErrorType = "retrieval-error"
)

// NewImportCategories returns a report with every list initialized so a
// persisted report serializes as empty arrays rather than nulls.
func NewImportCategories() *ImportCategories {
	return &ImportCategories{
		Additions:    []string{},
		Changes:      []string{},
		MinorChanges: []string{},
		Revocations:  []string{},
		Deprecations: []string{},
		Duplicates:   []string{},
		OutOfDate:    []string{},
		Errors:       []ImportError{},
	}
}

// NewImportReferences returns an empty reference report.
func NewImportReferences() *ImportReferences {
	return &ImportReferences{
		Additions:  []string{},
		Changes:    []string{},
		Duplicates: []string{},
	}
}

// Clone returns a deep copy of the record via a JSON round trip, so a
// caller can mutate the copy without touching stored state.
func (r *Record) Clone() (*Record, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var clone Record
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, err
	}
	return &clone, nil
}

// VersionKey returns the record's version marker.
func (r *Record) VersionKey() stix.Timestamp {
	return r.Object.VersionKey()
}
