//-------------------------------------------------------------------------
//
// Global Retail ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for globalretail-etl.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/config"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/loader"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/logging"
	"github.com/JezzDiego/ETL-GlobalRetail/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	sourceConn string
	targetConn string
	logLevel   string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "globalretail-etl",
		Short: "Star-schema ETL for the Global Retail warehouse",
		Long: `globalretail-etl extracts the Global Retail transactional database,
cleans and standardizes its rows, resolves surrogate keys and loads
a star-schema warehouse of ten dimensions and one sales fact.

Loads are idempotent: rows whose natural key already exists in the
warehouse are skipped, so any step can be re-run safely.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./globalretail-etl.yaml)")
	rootCmd.PersistentFlags().StringVar(&sourceConn, "source", "",
		"source (transactional) PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&targetConn, "target", "",
		"target (warehouse) PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(loadersCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if sourceConn != "" {
		cfg.Source.Connection = sourceConn
	}
	if targetConn != "" {
		cfg.Target.Connection = targetConn
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}

var loadersCmd = &cobra.Command{
	Use:   "loaders",
	Short: "List available loaders",
	Long: `List the loaders that can be passed to 'globalretail-etl load'.
A full run executes them in dependency order: basic dimensions,
dependent dimensions, then the sales fact.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("Available loaders (in run order):")
		cmd.Println()
		for _, name := range runOrder() {
			l, err := loader.Get(name, &loader.Env{})
			if err != nil {
				continue
			}
			cmd.Printf("  %-18s - %s\n", name, l.Table())
		}
	},
}
