package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arcanum-sec/workbench/specversion"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the workbench version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("workbench %s (spec %s)\n", Version, specversion.Current)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
