// Package workbench assembles the bundle import/export engines over a
// versioned knowledge-base object store.
//
// The workbench manages ATT&CK-style knowledge: techniques, tactics,
// groups, software, mitigations, and the relationships between them,
// exchanged as self-describing JSON bundles. The core operations are
// ingesting an external bundle into the versioned store with a
// categorized diff (package importer), re-materializing consistent,
// closed bundles either for one collection or for a whole knowledge
// domain (package exporter), and validating incoming bundles without
// touching storage (package validate).
//
// # Composition
//
// This package is the composition root: New wires the per-category
// stores, the type registry, the reference reconciler, and both
// engines:
//
//	wb, err := workbench.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//	record, err := wb.Importer.ImportBundle(ctx, collection, bundle, importer.Options{})
//
// By default everything runs against in-memory stores; production
// deployments swap in the Redis-backed stores with WithStoreFactory
// and WithReferenceStore.
package workbench
