package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spboyer/llmscale/internal/ability"
	"github.com/spboyer/llmscale/internal/cache"
	"github.com/spboyer/llmscale/internal/dataset"
	"github.com/spboyer/llmscale/internal/models"
	"github.com/spboyer/llmscale/internal/projectconfig"
	"github.com/spboyer/llmscale/internal/reporting"
	"github.com/spboyer/llmscale/internal/spinner"
	"github.com/spf13/cobra"
)

func newFitCommand() *cobra.Command {
	var (
		csvPath     string
		useCache    bool
		diagnostics bool
	)

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit model abilities and benchmark response curves",
		Long: `Fits one ability per base model, an offset per reasoning variant, and a
sigmoid response curve per benchmark by maximum likelihood.

Observations come from the processed benchmark files, or from a CSV with
benchmark, model and score columns when --csv is given. Variants are read
from the model files directory when it exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("cache") {
				cfg.Cache.Enabled = &useCache
			}
			return runFit(cmd.Context(), cmd, cfg, csvPath, diagnostics)
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Read observations from a CSV file instead of processed files")
	cmd.Flags().BoolVar(&useCache, "cache", false, "Reuse a cached fit when inputs and options are unchanged")
	cmd.Flags().BoolVar(&diagnostics, "diagnostics", false, "Print per-model residuals with bootstrap confidence intervals")

	return cmd
}

func fitterOptions(cfg *projectconfig.ProjectConfig) ability.Options {
	opts := ability.DefaultOptions()
	opts.Method = ability.Method(cfg.Fit.Method)
	opts.MethodParams = cfg.Fit.Optimizer
	if cfg.Fit.OffsetPenalty != nil {
		opts.OffsetPenalty = *cfg.Fit.OffsetPenalty
	}
	if cfg.Fit.MaxIterations > 0 {
		opts.MaxIterations = cfg.Fit.MaxIterations
	}
	if cfg.Fit.Restarts > 0 {
		opts.Restarts = cfg.Fit.Restarts
	}
	if cfg.Fit.Seed != nil {
		opts.Seed = *cfg.Fit.Seed
	}
	return opts
}

func loadObservations(cfg *projectconfig.ProjectConfig, csvPath string) ([]models.Observation, error) {
	if csvPath != "" {
		obs, err := dataset.LoadObservationsCSV(csvPath)
		if err != nil {
			return nil, err
		}
		return models.DedupeObservations(obs), nil
	}
	processed, err := dataset.LoadProcessed(cfg.Paths.Processed)
	if err != nil {
		return nil, err
	}
	return dataset.Observations(processed), nil
}

func loadVariants(dir string) (ability.VariantConfig, error) {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("No model files, fitting every model as its own base", "dir", dir)
		return nil, nil
	}
	return dataset.LoadVariants(dir)
}

func runFit(ctx context.Context, cmd *cobra.Command, cfg *projectconfig.ProjectConfig, csvPath string, diagnostics bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	obs, err := loadObservations(cfg, csvPath)
	if err != nil {
		return err
	}
	variants, err := loadVariants(cfg.Paths.Models)
	if err != nil {
		return err
	}

	fitter := ability.NewFitter(fitterOptions(cfg))

	var (
		c   *cache.Cache
		key string
	)
	if cfg.Cache.Enabled != nil && *cfg.Cache.Enabled {
		c = cache.New(cfg.Cache.Dir)
		key, err = cache.Key(obs, variants, fitter.Options())
		if err != nil {
			return fmt.Errorf("computing cache key: %w", err)
		}
	}

	var res *ability.Result
	if c != nil {
		if cached, ok := c.Get(key); ok {
			slog.Debug("Using cached fit", "key", key)
			res = cached
		}
	}
	if res == nil {
		stop := spinner.StartIfTerminal(cmd.ErrOrStderr(), fmt.Sprintf("Fitting %d observations", len(obs)))
		res, err = fitter.Fit(ctx, obs, variants)
		elapsed := stop()
		slog.Debug("Fit finished", "elapsed", elapsed)
		if err != nil {
			return fmt.Errorf("fitting abilities: %w", err)
		}
		if !res.Converged {
			slog.Warn("Optimizer did not converge", "status", res.Status, "iterations", res.Iterations)
		}
		if c != nil {
			if err := c.Put(key, res); err != nil {
				slog.Warn("Failed to cache fit", "error", err)
			}
		}
	}

	if err := reporting.WriteFit(cfg.Paths.Processed, res); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, reporting.FormatFitSummary(res)) //nolint:errcheck
	if diagnostics {
		fmt.Fprint(out, reporting.FormatDiagnostics(reporting.Diagnose(res, obs, fitter.Options().Seed))) //nolint:errcheck
	}
	return nil
}
