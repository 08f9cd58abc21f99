package reporting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spboyer/llmscale/internal/costfactor"
	"github.com/spboyer/llmscale/internal/dataset"
	"github.com/spboyer/llmscale/internal/models"
	"github.com/spboyer/llmscale/internal/normalize"
)

// BuildProcessed turns mapped benchmark records into processed files:
// native and min-max normalized scores, native and factor-normalized costs.
// factors may be nil, in which case no normalized costs are produced.
func BuildProcessed(records []models.BenchmarkRecord, factors *costfactor.Result) map[string]*models.ProcessedBenchmarkFile {
	out := make(map[string]*models.ProcessedBenchmarkFile, len(records))
	for _, r := range records {
		var factor *float64
		if factors != nil {
			factor = factors.Factors[r.Slug]
		}
		normScores := normalize.Scores(r.Scores)
		normCosts := normalize.Costs(r.Costs, factor)

		pf := &models.ProcessedBenchmarkFile{Results: make(map[string]models.ProcessedResult, len(r.Scores))}
		for model, score := range r.Scores {
			res := models.ProcessedResult{
				Score:           score,
				NormalizedScore: models.Float(normScores[model]),
			}
			if c, ok := r.Costs[model]; ok && models.ValidCost(c) {
				res.Cost = models.Float(c)
			}
			if nc, ok := normCosts[model]; ok {
				res.NormalizedCost = models.Float(nc)
			}
			pf.Results[model] = res
		}
		out[r.Slug] = pf
	}
	return out
}

// WriteProcessed writes processed benchmark files under root. A sigmoid
// already present in an existing file is carried over when the new file has
// none, so re-processing does not discard a previous fit.
func WriteProcessed(root string, processed map[string]*models.ProcessedBenchmarkFile) error {
	for slug, pf := range processed {
		path := dataset.ProcessedPath(root, slug)
		if pf.Sigmoid == nil {
			var prev models.ProcessedBenchmarkFile
			err := dataset.ReadYAML(path, &prev)
			switch {
			case err == nil:
				pf.Sigmoid = prev.Sigmoid
			case errors.Is(err, os.ErrNotExist):
			default:
				return err
			}
		}
		if err := dataset.WriteYAML(path, pf); err != nil {
			return err
		}
	}
	return nil
}

func processedExists(root string) bool {
	info, err := os.Stat(filepath.Join(root, dataset.ProcessedBenchmarksDir))
	return err == nil && info.IsDir()
}

func fileErr(name string, err error) error {
	return fmt.Errorf("%s: %w", name, err)
}
