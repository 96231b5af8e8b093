package exporter

import (
	"bytes"

	"github.com/arcanum-sec/workbench/stix"
)

// conformToStixVersion normalizes one object to a target spec-version
// profile.
//
// The 2.1 profile declares spec_version on every object and requires
// the malware family indicator, defaulting it to true when absent. The
// 2.0 profile carries no per-object spec_version and no family
// indicator. Both profiles drop optional array fields that ended up
// empty.
func conformToStixVersion(obj *stix.Object, version string) {
	switch version {
	case stix.StixVersion21:
		obj.SpecVersion = stix.StixVersion21
		if obj.Type == stix.TypeMalware && obj.IsFamily == nil {
			isFamily := true
			obj.IsFamily = &isFamily
		}
	case stix.StixVersion20:
		obj.SpecVersion = ""
		obj.IsFamily = nil
	}

	// Typed slices already omit when empty; preserved unknown fields
	// need the same treatment.
	for key, raw := range obj.Extra {
		if bytes.Equal(bytes.TrimSpace(raw), []byte("[]")) {
			delete(obj.Extra, key)
		}
	}
}
