package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/logging"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/pipeline"
)

var (
	runNoRecreate bool
	runCacheKeys  bool
	runFactBatch  int
	loadCacheKeys bool
	loadFactBatch int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full ETL pipeline",
	Long: `Recreate the source and warehouse databases, create their schemas,
seed the source, then load every dimension and the sales fact, build
the warehouse indexes and print a per-table summary.

A loader that fails is rolled back and logged; the run carries on with
the next loader. The run fails only when the databases cannot be
prepared or reached.

Example:
  globalretail-etl run --source "postgres://.../vendas" --target "postgres://.../dw"
  globalretail-etl run --no-recreate --cache-keys`,
	RunE: runRun,
}

var loadCmd = &cobra.Command{
	Use:   "load <loader>...",
	Short: "Run selected loaders against prepared databases",
	Long: `Run one or more loaders against databases that already hold the
source data and the warehouse schema. Loaders run in dependency order
whatever order they are given in. Use 'globalretail-etl loaders' for
the list of names.

The fact loader commits after every --fact-batch-size source lines it
processes, skipped lines included, so a failure keeps the batches
already committed. Lines whose sale date cannot be parsed, or falls
outside the calendar range, are skipped and counted, never loaded.

Example:
  globalretail-etl load customer product
  globalretail-etl load fact --fact-batch-size 5000`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLoad,
}

func init() {
	runCmd.Flags().BoolVar(&runNoRecreate, "no-recreate", false,
		"keep the existing databases instead of dropping and recreating them")
	runCmd.Flags().BoolVar(&runCacheKeys, "cache-keys", false,
		"cache resolved surrogate keys in memory")
	runCmd.Flags().IntVar(&runFactBatch, "fact-batch-size", 0,
		"source lines processed per fact commit")

	loadCmd.Flags().BoolVar(&loadCacheKeys, "cache-keys", false,
		"cache resolved surrogate keys in memory")
	loadCmd.Flags().IntVar(&loadFactBatch, "fact-batch-size", 0,
		"source lines processed per fact commit")
}

func runRun(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if runNoRecreate {
		cfg.RecreateDatabases = false
	}
	if runCacheKeys {
		cfg.Load.CacheKeys = true
	}
	if runFactBatch > 0 {
		cfg.Load.FactBatchSize = runFactBatch
	}

	// Validate configuration
	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	logging.Info().
		Bool("recreate_databases", cfg.RecreateDatabases).
		Bool("cache_keys", cfg.Load.CacheKeys).
		Int("fact_batch_size", cfg.Load.FactBatchSize).
		Msg("Starting ETL run")

	report := pipeline.New(pipeline.NewPostgres(cfg)).Run(context.Background())
	if report.State == pipeline.Failed {
		return fmt.Errorf("run %s failed: %w", report.RunID, report.Err)
	}

	printReport(cmd, report)
	return nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	if loadCacheKeys {
		cfg.Load.CacheKeys = true
	}
	if loadFactBatch > 0 {
		cfg.Load.FactBatchSize = loadFactBatch
	}

	if err := cfg.ValidateLoad(); err != nil {
		return err
	}

	report, err := pipeline.New(pipeline.NewPostgres(cfg)).RunLoaders(context.Background(), args)
	if err != nil {
		return err
	}

	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report *pipeline.Report) {
	cmd.Println()
	cmd.Printf("Run %s: %s in %s\n", report.RunID, report.State,
		report.Finished.Sub(report.Started).Round(time.Millisecond))
	cmd.Println()
	for _, s := range report.Steps {
		status := "ok"
		if s.Err != nil {
			status = "FAILED: " + s.Err.Error()
		}
		cmd.Printf("  %-18s extracted=%-7d inserted=%-7d skipped=%-7d %s\n",
			s.Loader, s.Result.Extracted, s.Result.Inserted, s.Result.Skipped, status)
	}
	cmd.Println()
	if err := report.Summary.Print(cmd.OutOrStdout()); err != nil {
		logging.Warn().Err(err).Msg("Failed to print summary")
	}
}

func runOrder() []string {
	return pipeline.Order()
}
