package exporter

import (
	"github.com/arcanum-sec/workbench/stix"
	"github.com/arcanum-sec/workbench/store"
)

// exportContext is the per-call accumulation state of one export. It is
// never shared between calls, which keeps concurrent exports
// independent and guarantees that domain rewrites on secondary objects
// stay local to the call.
type exportContext struct {
	// objects is the export set in insertion order.
	objects []*stix.Object

	// byID indexes the export set by logical id.
	byID map[string]*stix.Object

	// relationships caches the full relationship set, retrieved once
	// per export.
	relationships []*store.Record

	// secondaries caches secondary-object resolution by logical id,
	// including misses (nil entries), so each id is looked up at most
	// once.
	secondaries map[string]*store.Record

	// attackIndex caches the store-wide attack-id index built lazily
	// for citation fallback lookups.
	attackIndex map[string]*stix.Object
}

func newExportContext() *exportContext {
	return &exportContext{
		byID:        make(map[string]*stix.Object),
		secondaries: make(map[string]*store.Record),
	}
}

// add appends an object to the export set unless its id is already
// present. It reports whether the object was added.
func (c *exportContext) add(obj *stix.Object) bool {
	if _, ok := c.byID[obj.ID]; ok {
		return false
	}
	c.objects = append(c.objects, obj)
	c.byID[obj.ID] = obj
	return true
}

func (c *exportContext) has(id string) bool {
	_, ok := c.byID[id]
	return ok
}
