package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arcanum-sec/workbench/stix"
	"github.com/arcanum-sec/workbench/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate [bundle.json]",
	Short: "Validate a bundle without importing it",
	Long: `Check a bundle file for duplicate objects and unsupported spec
versions. Exits non-zero when the bundle is malformed or has issues.`,
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
		report, err := validate.Bundle(bundle)
		if err != nil {
			fatal("validating bundle", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fatal("encoding report", err)
		}
		if len(report.Issues) > 0 {
			fmt.Fprintf(os.Stderr, "%d issue(s) found\n", len(report.Issues))
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
