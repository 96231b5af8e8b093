package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/arcanum-sec/workbench"
	"github.com/arcanum-sec/workbench/config"
)

var (
	verbose    bool
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "workbench",
	Short: "Import, validate, and export cyber knowledge-base bundles",
	Long: `Workbench manages a versioned store of adversary knowledge objects.
It ingests collection bundles with a categorized diff, and materializes
consistent bundles for a single collection or a whole knowledge domain.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig reads --config, or returns the defaults when no file is
// given.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// newWorkbench builds a workbench from --config.
func newWorkbench() (*workbench.Workbench, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return workbench.FromConfig(cfg, workbench.WithLogger(slog.Default()))
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to workbench.yaml")
}
