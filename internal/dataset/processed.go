package dataset

import (
	"path/filepath"

	"github.com/spboyer/llmscale/internal/models"
)

// ProcessedBenchmarksDir is where processed benchmark files live, relative
// to the processed output root.
const ProcessedBenchmarksDir = "benchmarks"

// LoadProcessed reads every processed benchmark file under root, keyed by
// benchmark slug.
func LoadProcessed(root string) (map[string]*models.ProcessedBenchmarkFile, error) {
	files, err := yamlFiles(filepath.Join(root, ProcessedBenchmarksDir))
	if err != nil {
		return nil, err
	}
	out := make(map[string]*models.ProcessedBenchmarkFile, len(files))
	for _, path := range files {
		pf := &models.ProcessedBenchmarkFile{}
		if err := ReadYAML(path, pf); err != nil {
			return nil, err
		}
		if pf.Results == nil {
			pf.Results = map[string]models.ProcessedResult{}
		}
		out[Slug(path)] = pf
	}
	return out, nil
}

// ProcessedPath is the file a processed benchmark is stored in.
func ProcessedPath(root, slug string) string {
	return filepath.Join(root, ProcessedBenchmarksDir, slug+".yaml")
}

// Observations flattens processed files into score observations, sorted.
func Observations(processed map[string]*models.ProcessedBenchmarkFile) []models.Observation {
	var obs []models.Observation
	for slug, pf := range processed {
		for model, r := range pf.Results {
			obs = append(obs, models.Observation{Benchmark: slug, Model: model, Score: r.Score})
		}
	}
	models.SortObservations(obs)
	return obs
}

// Costs collects the native per-task costs of processed files. Every
// benchmark appears in the matrix, even one without costs, so that it is
// reported with an undefined factor.
func Costs(processed map[string]*models.ProcessedBenchmarkFile) models.CostMatrix {
	m := make(models.CostMatrix, len(processed))
	for slug, pf := range processed {
		m[slug] = map[string]float64{}
		for model, r := range pf.Results {
			if r.Cost != nil {
				m.Set(slug, model, *r.Cost)
			}
		}
	}
	return m
}

// RecordCosts builds the cost matrix and cost weights from raw records.
func RecordCosts(records []models.BenchmarkRecord) (models.CostMatrix, map[string]float64) {
	m := make(models.CostMatrix, len(records))
	weights := make(map[string]float64, len(records))
	for _, r := range records {
		m[r.Slug] = map[string]float64{}
		for model, c := range r.Costs {
			m.Set(r.Slug, model, c)
		}
		if r.CostWeight > 0 {
			weights[r.Slug] = r.CostWeight
		}
	}
	return m, weights
}
