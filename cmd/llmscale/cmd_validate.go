package main

import (
	"fmt"

	"github.com/spboyer/llmscale/internal/validation"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check raw benchmark, model and mapping files against their schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			fileErrs, err := validation.ValidateDataset(validation.Paths{
				Benchmarks: cfg.Paths.Benchmarks,
				Models:     cfg.Paths.Models,
				Mappings:   cfg.Paths.Mappings,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(fileErrs) == 0 {
				fmt.Fprintln(out, "✓ All data files are valid") //nolint:errcheck
				return nil
			}

			count := 0
			for _, name := range validation.SortedFiles(fileErrs) {
				fmt.Fprintf(out, "✗ %s\n", name) //nolint:errcheck
				for _, e := range fileErrs[name] {
					fmt.Fprintf(out, "    %s\n", e) //nolint:errcheck
					count++
				}
			}
			return &ValidationFailedError{
				Message: fmt.Sprintf("validation failed: %d error(s) in %d file(s)", count, len(fileErrs)),
			}
		},
	}
}
