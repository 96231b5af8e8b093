// Package reference manages the bibliographic references cited by
// knowledge-base objects. References are keyed by source name and live
// outside object versioning: merging a reference updates it in place.
//
// The Reconciler extracts citations from imported objects, deduplicates
// them within one import run, and merges the survivors into the
// reference store, reporting additions, changes, and duplicates.
package reference

import (
	"context"
	"errors"
)

// Reference is one bibliographic reference. SourceName is the unique
// key; it is the name cited by objects' external references.
type Reference struct {
	SourceName  string `json:"source_name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Sentinel errors for reference store operations.
var (
	// ErrNotFound indicates no reference exists with the requested
	// source name.
	ErrNotFound = errors.New("reference not found")

	// ErrMissingSourceName indicates a reference without a source name
	// was passed to Create or Update.
	ErrMissingSourceName = errors.New("reference has no source name")
)

// Store is the reference store contract. All methods are safe for
// concurrent use.
type Store interface {
	// Retrieve returns the reference with the given source name, or
	// ErrNotFound.
	Retrieve(ctx context.Context, sourceName string) (*Reference, error)

	// Create persists a new reference.
	Create(ctx context.Context, ref *Reference) error

	// Update rewrites an existing reference in place.
	Update(ctx context.Context, ref *Reference) error

	// List returns every stored reference. Enumeration order is not a
	// contract.
	List(ctx context.Context) ([]*Reference, error)
}
