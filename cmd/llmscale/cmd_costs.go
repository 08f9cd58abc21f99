package main

import (
	"encoding/json"
	"fmt"

	"github.com/spboyer/llmscale/internal/costfactor"
	"github.com/spboyer/llmscale/internal/dataset"
	"github.com/spboyer/llmscale/internal/reporting"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newCostsCommand() *cobra.Command {
	var (
		format     string
		iterations int
	)

	cmd := &cobra.Command{
		Use:   "costs",
		Short: "Estimate per-benchmark cost normalization factors",
		Long: `Fits a weighted rank-1 model to the benchmark x model cost matrix and
prints one factor per benchmark. Multiplying a native cost by its benchmark's
factor puts it on the shared model cost scale. Benchmarks without cost data
have no factor.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "table" && format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported format %q: must be table, json or yaml", format)
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("iterations") {
				iterations = cfg.Costs.Iterations
			}

			records, err := dataset.LoadRaw(cfg.Paths.Benchmarks, cfg.Paths.Mappings)
			if err != nil {
				return err
			}
			costs, weights := dataset.RecordCosts(records)
			res := costfactor.Estimate(costs, weights, iterations)

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				data, err := json.MarshalIndent(res, "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling factors: %w", err)
				}
				fmt.Fprintln(out, string(data)) //nolint:errcheck
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(res); err != nil {
					return fmt.Errorf("encoding factors: %w", err)
				}
				return enc.Close()
			default:
				reporting.WriteFactorsTable(out, res.Factors)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json or yaml")
	cmd.Flags().IntVar(&iterations, "iterations", costfactor.DefaultIterations, "Number of alternating least squares sweeps")

	return cmd
}
