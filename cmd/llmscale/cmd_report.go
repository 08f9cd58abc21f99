package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spboyer/llmscale/internal/dataset"
	"github.com/spboyer/llmscale/internal/models"
	"github.com/spboyer/llmscale/internal/reporting"
	"github.com/spf13/cobra"
)

const leaderboardTitle = "LLM Leaderboard"

func newReportCommand() *cobra.Command {
	var (
		format  string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the leaderboard from fitted abilities",
		Long: `Builds a leaderboard from model_abilities.yaml and the processed benchmark
files. Models scored on fewer than leaderboard.min_benchmarks benchmarks are
hidden; mean normalized cost is shown once a model has costs on at least
leaderboard.min_cost_benchmarks benchmarks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "table" && format != "markdown" && format != "html" {
				return fmt.Errorf("unsupported format %q: must be table, markdown or html", format)
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			abilities, err := reporting.LoadAbilities(cfg.Paths.Processed)
			if err != nil {
				return fmt.Errorf("loading abilities (run 'llmscale fit' first): %w", err)
			}
			processed, err := dataset.LoadProcessed(cfg.Paths.Processed)
			if err != nil {
				return err
			}

			opts := reporting.LeaderboardOptions{
				MinBenchmarks:     cfg.Leaderboard.MinBenchmarks,
				MinCostBenchmarks: cfg.Leaderboard.MinCostBenchmarks,
			}
			if d := cfg.Leaderboard.Display; d != nil {
				opts.Display = models.Curve{Min: d.Min, Max: d.Max, Midpoint: d.Midpoint, Slope: d.Slope}
			}
			entries := reporting.BuildLeaderboard(abilities, processed, opts)

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("creating %s: %w", outPath, err)
				}
				defer f.Close() //nolint:errcheck
				w = f
			}

			switch format {
			case "markdown":
				_, err = io.WriteString(w, reporting.Markdown(leaderboardTitle, entries))
			case "html":
				var page string
				page, err = reporting.HTML(leaderboardTitle, reporting.Markdown(leaderboardTitle, entries))
				if err == nil {
					_, err = io.WriteString(w, page)
				}
			default:
				reporting.WriteTable(w, entries)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, markdown or html")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the report to a file instead of stdout")

	return cmd
}
