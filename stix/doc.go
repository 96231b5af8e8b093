// Package stix implements the interchange envelope for knowledge-base
// objects: the object envelope itself, the bundle wire format, collection
// manifests, and the identifier and timestamp conventions shared by every
// record the workbench stores or exchanges.
//
// Objects are heterogeneous JSON documents. The Object type models the
// fields the engines reason about as typed struct fields and preserves
// everything else verbatim in Extra, so a bundle that round-trips through
// the workbench keeps fields the engines never look at.
//
// # Versioning
//
// An object is identified by a stable logical id plus a version marker.
// The version marker is the modified timestamp for every category except
// marking definitions, which are never modified after creation and use
// the created timestamp instead. VersionKey returns the correct marker
// for the object's category.
package stix
