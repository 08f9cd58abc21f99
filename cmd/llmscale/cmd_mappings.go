package main

import (
	"fmt"
	"sort"

	"github.com/spboyer/llmscale/internal/dataset"
	"github.com/spboyer/llmscale/internal/wizard"
	"github.com/spf13/cobra"
)

func newMappingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Maintain leaderboard alias to model slug mappings",
	}
	cmd.AddCommand(newMappingsUpdateCommand())
	return cmd
}

func newMappingsUpdateCommand() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Add newly seen aliases to mapping files",
		Long: `Adds every alias found in raw benchmark results to its mapping file with
a null slug, keeping existing entries. With --interactive, prompts for a slug
for each alias that is still unmapped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			added, err := dataset.UpdateMappings(cfg.Paths.Benchmarks, cfg.Paths.Mappings)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(added))
			for name := range added {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "%s: %d new alias(es)\n", name, added[name]) //nolint:errcheck
			}

			unmapped, err := dataset.UnmappedAliases(cfg.Paths.Mappings)
			if err != nil {
				return err
			}
			total := 0
			for _, aliases := range unmapped {
				total += len(aliases)
			}
			if !interactive || total == 0 {
				fmt.Fprintf(out, "%d alias(es) still unmapped\n", total) //nolint:errcheck
				return nil
			}

			answers, err := wizard.RunMappingWizard(cmd.InOrStdin(), out, unmapped)
			if err != nil {
				return err
			}
			mapped := 0
			for name, slugs := range answers {
				n, err := dataset.ApplyMappings(cfg.Paths.Mappings, name, slugs)
				if err != nil {
					return err
				}
				mapped += n
			}
			fmt.Fprintf(out, "Mapped %d alias(es), %d still unmapped\n", mapped, total-mapped) //nolint:errcheck
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Prompt for slugs of unmapped aliases")

	return cmd
}
