package store

import "errors"

// Sentinel errors for store operations. These can be checked with
// errors.Is.
var (
	// ErrNotFound indicates no record exists for the requested id or
	// (id, version) pair.
	ErrNotFound = errors.New("object not found")

	// ErrDuplicateVersion indicates a Create collided with an existing
	// (logical id, version marker) pair. The import engine treats this
	// as a hard duplicate-id violation, fatal to the whole import.
	ErrDuplicateVersion = errors.New("duplicate object id and version")

	// ErrNilRecord indicates a nil record or a record without an object
	// was passed to Create or Update.
	ErrNilRecord = errors.New("record has no object")
)
