package dataset

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/spboyer/llmscale/internal/models"
)

// LoadBenchmarkFiles reads every raw benchmark file in dir, keyed by slug.
func LoadBenchmarkFiles(dir string) (map[string]*models.BenchmarkFile, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*models.BenchmarkFile, len(files))
	for _, path := range files {
		var bf models.BenchmarkFile
		if err := ReadYAML(path, &bf); err != nil {
			return nil, err
		}
		if bf.Benchmark == "" {
			return nil, fmt.Errorf("invalid benchmark structure in %s: missing benchmark name", path)
		}
		out[Slug(path)] = &bf
	}
	return out, nil
}

// LoadMapping reads one alias mapping file. A missing file is an empty
// mapping.
func LoadMapping(path string) (models.MappingFile, error) {
	m := models.MappingFile{}
	if err := ReadYAML(path, &m); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.MappingFile{}, nil
		}
		return nil, err
	}
	return m, nil
}

// LoadRaw reads raw benchmark files and maps every alias to its canonical
// slug. Aliases without a slug are dropped, as are non-positive costs.
func LoadRaw(benchDir, mappingDir string) ([]models.BenchmarkRecord, error) {
	files, err := LoadBenchmarkFiles(benchDir)
	if err != nil {
		return nil, err
	}

	mappings := make(map[string]models.MappingFile)
	records := make([]models.BenchmarkRecord, 0, len(files))
	for _, slug := range sortedSlugs(files) {
		bf := files[slug]
		mapping, ok := mappings[bf.ModelNameMappingFile]
		if !ok && bf.ModelNameMappingFile != "" {
			mapping, err = LoadMapping(filepath.Join(mappingDir, bf.ModelNameMappingFile))
			if err != nil {
				return nil, err
			}
			mappings[bf.ModelNameMappingFile] = mapping
		}

		rec := models.BenchmarkRecord{
			Slug:        slug,
			ScoreWeight: bf.ScoreWeight,
			CostWeight:  bf.CostWeight,
			Scores:      make(map[string]float64),
			Costs:       make(map[string]float64),
		}
		// Aliases sharing a slug keep the higher score, and the cost always
		// comes from the alias whose score was kept. Ties go to the first
		// alias in sorted order.
		for _, alias := range sortedSlugs(bf.Results) {
			score := bf.Results[alias]
			target := mapping[alias]
			if target == nil || *target == "" {
				continue
			}
			if prev, dup := rec.Scores[*target]; dup {
				slog.Warn("duplicate slug in benchmark, keeping higher score", "benchmark", slug, "slug", *target, "alias", alias)
				if score <= prev {
					continue
				}
			}
			rec.Scores[*target] = score
			delete(rec.Costs, *target)
			if cost, ok := bf.CostPerTask[alias]; ok && models.ValidCost(cost) {
				rec.Costs[*target] = cost
			}
		}
		slog.Debug("loaded benchmark", "benchmark", slug, "results", len(bf.Results), "mapped", len(rec.Scores), "costs", len(rec.Costs))
		records = append(records, rec)
	}
	return records, nil
}

func sortedSlugs[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
