package stix

import "errors"

// Sentinel errors for bundle structure problems. All of them are
// detected before an import begins and are always fatal.
var (
	// ErrMalformedBundle indicates the envelope is not a bundle or its
	// JSON could not be decoded.
	ErrMalformedBundle = errors.New("malformed bundle")

	// ErrMissingCollection indicates the bundle carries no collection
	// manifest object.
	ErrMissingCollection = errors.New("bundle contains no collection object")

	// ErrMultipleCollections indicates the bundle carries more than one
	// collection manifest object.
	ErrMultipleCollections = errors.New("bundle contains multiple collection objects")

	// ErrMissingCollectionID indicates the collection object lacks a
	// logical identifier.
	ErrMissingCollectionID = errors.New("collection object has no id")
)
