package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/arcanum-sec/workbench/importer"
	"github.com/arcanum-sec/workbench/stix"
)

var (
	importPreview bool
	importForce   []string
)

var importCmd = &cobra.Command{
	Use:   "import [bundle.json]",
	Short: "Import a collection bundle",
	Long: `Ingest a collection bundle into the store. Every object is
categorized against the versions already held (addition, change, minor
change, revocation, deprecation, duplicate, out of date) and the
resulting summary is written to stdout.

With --preview the full categorization runs but nothing is persisted.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fatal("reading bundle", err)
		}
		bundle, err := stix.ParseBundle(data)
		if err != nil {
			fatal("parsing bundle", err)
		}
		collection, err := bundle.Collection()
		if err != nil {
			fatal("extracting collection", err)
		}

		wb, err := newWorkbench()
		if err != nil {
			fatal("initializing workbench", err)
		}

		opts := importer.Options{PreviewOnly: importPreview}
		for _, f := range importForce {
			opts.ForceImport = append(opts.ForceImport, importer.ForceFlag(f))
		}

		record, err := wb.Importer.ImportBundle(context.Background(), collection, bundle, opts)
		if err != nil {
			fatal("importing bundle", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(record.Workspace.ImportCategories); err != nil {
			fatal("encoding summary", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importPreview, "preview", false, "Categorize without persisting anything")
	importCmd.Flags().StringSliceVar(&importForce, "force", nil,
		"Overrides to apply (attack-spec-version-violations, duplicate-collection)")
}
