// Package importer ingests externally-produced bundles into the
// versioned object store.
//
// An import consumes the bundle's collection manifest and member
// objects, computes a categorized diff of every member against the
// versions already stored (addition, change, minor change, revocation,
// deprecation, duplicate, out of date), reconciles cited references,
// persists accepted objects tagged with the collection's membership
// record, and finally persists the collection record itself carrying the
// full categorization and reference report as an audit trail.
//
// The engine favors continue-and-report over abort: any problem scoped
// to one object is recorded as a diagnostic and the import moves on.
// Only three conditions abort the whole import: a duplicate collection
// without its force flag, a spec-version violation without its force
// flag, and a hard duplicate-key collision on save. Preview mode runs
// every computation and produces identical diagnostics without
// persisting anything.
package importer
