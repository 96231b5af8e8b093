// Package exporter re-materializes consistent, closed bundles from the
// versioned object store.
//
// Two export shapes exist. A collection export assembles the bundle
// from exactly the object versions a collection's manifest declares. A
// domain export computes the primary objects of a knowledge domain plus
// their relationship-reachable secondary objects, and guarantees the
// closure invariant: a relationship appears in the output if and only
// if both of its endpoints do.
//
// Both shapes derive technique data-source strings from detection
// relationships, resolve inline citation markup, optionally fold in
// related notes, and collect referenced identities and marking
// definitions. All accumulation state (resolved-secondary cache,
// attack-id index, domain rewrites) lives in a per-call export context,
// so concurrent exports never interact and domain rewrites on secondary
// objects are never persisted.
package exporter
