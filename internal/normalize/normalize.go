// Package normalize puts per-benchmark scores and costs on common scales.
package normalize

import (
	"math"

	"github.com/spboyer/llmscale/internal/models"
	"gonum.org/v1/gonum/floats"
)

// ZeroSpanScore is the normalized score every model gets on a benchmark
// where all models scored the same.
const ZeroSpanScore = 100.0

// Scores min-max scales scores to 0..100 within one benchmark.
func Scores(scores map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(scores))
	if len(scores) == 0 {
		return out
	}
	vals := make([]float64, 0, len(scores))
	for _, s := range scores {
		vals = append(vals, s)
	}
	lo, hi := floats.Min(vals), floats.Max(vals)
	span := hi - lo
	for m, s := range scores {
		if span == 0 {
			out[m] = ZeroSpanScore
			continue
		}
		out[m] = (s - lo) / span * 100
	}
	return out
}

// Costs applies a benchmark factor to native costs. Invalid costs are
// dropped, and a nil factor yields no normalized costs at all.
func Costs(costs map[string]float64, factor *float64) map[string]float64 {
	out := make(map[string]float64, len(costs))
	if factor == nil {
		return out
	}
	for m, c := range costs {
		if !models.ValidCost(c) {
			continue
		}
		out[m] = c * *factor
	}
	return out
}

// MeanCost averages a model's normalized costs across benchmarks, returning
// the mean and how many benchmarks contributed.
func MeanCost(normalized []map[string]float64, model string) (float64, int) {
	var vals []float64
	for _, bench := range normalized {
		if c, ok := bench[model]; ok && !math.IsNaN(c) {
			vals = append(vals, c)
		}
	}
	if len(vals) == 0 {
		return 0, 0
	}
	return floats.Sum(vals) / float64(len(vals)), len(vals)
}
