// Package store defines the versioned object store contract the engines
// depend on, the Record envelope that pairs an object version with its
// workspace bookkeeping, and two implementations: an in-memory store and
// a Redis-backed store.
//
// A store holds one object category. Every record is keyed by the pair
// (logical id, version marker); the pair is unique within a store and is
// the only concurrency guard the engines rely on. Records are append-only
// in normal operation: a new object version is a new record, never an
// in-place update of an exported one. Update exists for workspace
// bookkeeping (collection membership, import history, export history) on
// an existing version.
package store
