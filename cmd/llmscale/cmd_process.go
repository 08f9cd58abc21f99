package main

import (
	"fmt"

	"github.com/spboyer/llmscale/internal/costfactor"
	"github.com/spboyer/llmscale/internal/dataset"
	"github.com/spboyer/llmscale/internal/reporting"
	"github.com/spf13/cobra"
)

func newProcessCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Map raw benchmark results and write processed files",
		Long: `Reads raw benchmark files, maps leaderboard aliases to model slugs,
normalizes scores to 0-100 per benchmark, estimates cost factors, and writes
processed benchmark files and cost_factors.yaml.`,
		Args: cobra.NoArgs,
		RunE: processCommandE,
	}
}

func processCommandE(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	records, err := dataset.LoadRaw(cfg.Paths.Benchmarks, cfg.Paths.Mappings)
	if err != nil {
		return err
	}

	costs, weights := dataset.RecordCosts(records)
	factors := costfactor.Estimate(costs, weights, cfg.Costs.Iterations)

	processed := reporting.BuildProcessed(records, factors)
	if err := reporting.WriteProcessed(cfg.Paths.Processed, processed); err != nil {
		return err
	}
	if err := reporting.WriteCostFactors(cfg.Paths.Processed, factors); err != nil {
		return err
	}

	defined := 0
	for _, f := range factors.Factors {
		if f != nil {
			defined++
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Processed %d benchmarks into %s (%d with cost factors)\n", len(records), cfg.Paths.Processed, defined) //nolint:errcheck
	return nil
}
