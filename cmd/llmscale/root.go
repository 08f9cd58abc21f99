package main

import (
	"log/slog"

	"github.com/spboyer/llmscale/internal/projectconfig"
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "llmscale",
		Short: "llmscale - cross-benchmark ability and cost scales for LLMs",
		Long: `llmscale turns per-benchmark scores and costs into comparable quantities.

It fits a latent ability per model jointly with a response curve per
benchmark, and a cost-normalization factor per benchmark, then writes the
results and a leaderboard.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().String("config", "", "Path to config file (default: "+projectconfig.FileName+" found from the working directory up)")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newProcessCommand())
	cmd.AddCommand(newFitCommand())
	cmd.AddCommand(newCostsCommand())
	cmd.AddCommand(newReportCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newMappingsCommand())
	cmd.AddCommand(newPublishCommand())

	return cmd
}

// loadConfig reads --config if set, otherwise searches from the working
// directory.
func loadConfig(cmd *cobra.Command) (*projectconfig.ProjectConfig, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path != "" {
		return projectconfig.LoadFile(path)
	}
	return projectconfig.Load(".")
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
