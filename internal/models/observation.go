package models

import "sort"

// Observation is one benchmark score for one model.
type Observation struct {
	Benchmark string  `yaml:"benchmark" json:"benchmark"`
	Model     string  `yaml:"model" json:"model"`
	Score     float64 `yaml:"score" json:"score"`
}

// DedupeObservations averages observations that share a (model, benchmark)
// pair. The fitter does not deduplicate, so callers with messy input should
// run this first. Output is sorted by benchmark, then model.
func DedupeObservations(obs []Observation) []Observation {
	type key struct{ bench, model string }
	sums := make(map[key]float64)
	counts := make(map[key]int)
	for _, o := range obs {
		k := key{o.Benchmark, o.Model}
		sums[k] += o.Score
		counts[k]++
	}

	out := make([]Observation, 0, len(sums))
	for k, s := range sums {
		out = append(out, Observation{
			Benchmark: k.bench,
			Model:     k.model,
			Score:     s / float64(counts[k]),
		})
	}
	SortObservations(out)
	return out
}

// SortObservations orders observations by benchmark, then model.
func SortObservations(obs []Observation) {
	sort.Slice(obs, func(i, j int) bool {
		if obs[i].Benchmark != obs[j].Benchmark {
			return obs[i].Benchmark < obs[j].Benchmark
		}
		return obs[i].Model < obs[j].Model
	})
}
