package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/arcanum-sec/workbench/exporter"
	"github.com/arcanum-sec/workbench/filter"
	"github.com/arcanum-sec/workbench/stix"
	"github.com/arcanum-sec/workbench/store"
)

var (
	exportOutput string

	exportModified    string
	exportCollPreview bool
	exportCollNotes   bool

	exportStixVersion      string
	exportIncludeRevoked   bool
	exportIncludeDeprec    bool
	exportIncludeMissingID bool
	exportDomainNotes      bool
	exportState            string
	exportFilter           string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Materialize a bundle from the store",
}

var exportCollectionCmd = &cobra.Command{
	Use:   "collection [collection-id]",
	Short: "Export one collection as a bundle",
	Long: `Materialize the bundle for a stored collection: the collection
object itself plus every object version its manifest names. Entries
that cannot be resolved are dropped with a warning.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := exporter.CollectionOptions{
			CollectionID: args[0],
			IncludeNotes: exportCollNotes,
			PreviewOnly:  exportCollPreview,
		}
		if exportModified != "" {
			ts, err := stix.ParseTimestamp(exportModified)
			if err != nil {
				fatal("parsing --modified", err)
			}
			opts.CollectionModified = ts
		}

		wb, err := newWorkbench()
		if err != nil {
			fatal("initializing workbench", err)
		}
		bundle, err := wb.Exporter.ExportCollection(context.Background(), opts)
		if err != nil {
			fatal("exporting collection", err)
		}
		writeBundle(bundle)
	},
}

var exportDomainCmd = &cobra.Command{
	Use:   "domain [domain]",
	Short: "Export a whole knowledge domain as a bundle",
	Long: `Materialize a consistent bundle for one knowledge domain
(enterprise-attack, mobile-attack, or ics-attack): primary objects,
the closed relationship graph among them, and the supporting identity
and marking objects, conforming to the requested interchange version.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := exporter.DomainOptions{
			Domain:                 args[0],
			StixVersion:            exportStixVersion,
			IncludeRevoked:         exportIncludeRevoked,
			IncludeDeprecated:      exportIncludeDeprec,
			IncludeMissingAttackID: exportIncludeMissingID,
			IncludeNotes:           exportDomainNotes,
			State:                  store.WorkflowState(exportState),
		}
		if exportFilter != "" {
			f, err := filter.Compile(exportFilter)
			if err != nil {
				fatal("compiling --filter", err)
			}
			opts.Filter = f
		}

		wb, err := newWorkbench()
		if err != nil {
			fatal("initializing workbench", err)
		}
		bundle, err := wb.Exporter.ExportDomain(context.Background(), opts)
		if err != nil {
			fatal("exporting domain", err)
		}
		writeBundle(bundle)
	},
}

func writeBundle(bundle *stix.Bundle) {
	out := os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			fatal("creating output file", err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(bundle); err != nil {
		fatal("encoding bundle", err)
	}
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportCollectionCmd)
	exportCmd.AddCommand(exportDomainCmd)

	exportCmd.PersistentFlags().StringVarP(&exportOutput, "output", "o", "", "Write the bundle to a file instead of stdout")

	exportCollectionCmd.Flags().StringVar(&exportModified, "modified", "", "Export an exact collection version (defaults to latest)")
	exportCollectionCmd.Flags().BoolVar(&exportCollPreview, "preview", false, "Skip recording the export against the collection")
	exportCollectionCmd.Flags().BoolVar(&exportCollNotes, "include-notes", false, "Fold in notes referencing exported objects")

	exportDomainCmd.Flags().StringVar(&exportStixVersion, "stix-version", stix.StixVersion21, "Conformance profile for output objects (2.0 or 2.1)")
	exportDomainCmd.Flags().BoolVar(&exportIncludeRevoked, "include-revoked", false, "Admit revoked objects")
	exportDomainCmd.Flags().BoolVar(&exportIncludeDeprec, "include-deprecated", false, "Admit deprecated objects")
	exportDomainCmd.Flags().BoolVar(&exportIncludeMissingID, "include-missing-attack-id", false, "Admit objects lacking an ATT&CK identifier")
	exportDomainCmd.Flags().BoolVar(&exportDomainNotes, "include-notes", false, "Fold in notes referencing exported objects")
	exportDomainCmd.Flags().StringVar(&exportState, "state", "", "Restrict to versions in the given workflow state")
	exportDomainCmd.Flags().StringVar(&exportFilter, "filter", "", "CEL expression over each object (bound as 'object')")
}
