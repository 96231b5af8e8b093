package exporter

import (
	"strings"

	"github.com/arcanum-sec/workbench/stix"
	"github.com/arcanum-sec/workbench/store"
)

// deriveDataSources computes the x_mitre_data_sources strings of every
// technique in the set from the "detects" relationships between data
// components and techniques, with domain-specific rules:
//
//   - enterprise techniques get strings derived purely from detection
//     relationships, "<data source>: <data component>";
//   - ICS techniques keep their authored strings, filtered to the data
//     sources that belong to the ICS domain;
//   - techniques in both domains get the union of the two rules;
//   - techniques in neither domain get their data sources cleared.
//
// Derivation never falls back to authored values for enterprise: the
// relationship graph is the source of truth there.
func deriveDataSources(objects []*stix.Object, relationships []*store.Record) {
	components := make(map[string]*stix.Object)
	sources := make(map[string]*stix.Object)
	for _, obj := range objects {
		switch obj.Type {
		case stix.TypeDataComponent:
			components[obj.ID] = obj
		case stix.TypeDataSource:
			sources[obj.ID] = obj
		}
	}

	// Detection strings per technique, in relationship order.
	derived := make(map[string][]string)
	for _, rel := range relationships {
		obj := rel.Object
		if obj.RelationshipType != stix.RelationshipTypeDetects || obj.Revoked || obj.Deprecated {
			continue
		}
		component := components[obj.SourceRef]
		if component == nil {
			continue
		}
		source := sources[component.DataSourceRef]
		if source == nil {
			continue
		}
		derived[obj.TargetRef] = append(derived[obj.TargetRef], source.Name+": "+component.Name)
	}

	// Allow-list of ICS data source names for authored-string filtering.
	icsSources := make(map[string]bool)
	for _, source := range sources {
		if source.InDomain(stix.DomainICS) {
			icsSources[source.Name] = true
		}
	}

	for _, obj := range objects {
		if obj.Type != stix.TypeTechnique {
			continue
		}
		enterprise := obj.InDomain(stix.DomainEnterprise)
		ics := obj.InDomain(stix.DomainICS)

		var values []string
		if ics {
			values = filterICSSources(obj.DataSources, icsSources)
		}
		if enterprise {
			values = append(values, derived[obj.ID]...)
		}
		obj.DataSources = dedupe(values)
	}
}

// filterICSSources keeps the authored data-source strings whose source
// part (before any colon) names an ICS data source.
func filterICSSources(authored []string, allowed map[string]bool) []string {
	var out []string
	for _, value := range authored {
		name, _, _ := strings.Cut(value, ":")
		if allowed[strings.TrimSpace(name)] {
			out = append(out, value)
		}
	}
	return out
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
