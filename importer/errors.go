package importer

import "errors"

// Fatal import errors. Everything else scoped to a single object is
// accumulated as a diagnostic in the import categories instead.
var (
	// ErrDuplicateCollection indicates the same collection version was
	// imported before and the duplicate-collection force flag is not
	// set.
	ErrDuplicateCollection = errors.New("collection version already imported")

	// ErrSpecVersionViolation indicates an object declares an
	// unsupported attack spec version and the corresponding force flag
	// is not set.
	ErrSpecVersionViolation = errors.New("bundle contains attack spec version violations")

	// ErrDuplicateObject indicates a save collided with an existing
	// (id, version) pair that was not present when the import checked
	// for duplicates. This is the store's uniqueness guard surfacing a
	// concurrent write.
	ErrDuplicateObject = errors.New("object version already exists")

	// ErrMissingCollection indicates no collection object was supplied.
	ErrMissingCollection = errors.New("no collection object supplied")
)
