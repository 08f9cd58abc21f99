// Package statistics provides resampling estimates for fit diagnostics.
package statistics

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ConfidenceInterval holds the result of a bootstrap confidence interval computation.
type ConfidenceInterval struct {
	Lower           float64 `json:"lower" yaml:"lower"`
	Upper           float64 `json:"upper" yaml:"upper"`
	Mean            float64 `json:"mean" yaml:"mean"`
	ConfidenceLevel float64 `json:"confidence_level" yaml:"confidence_level"`
	NumBootstraps   int     `json:"num_bootstraps" yaml:"num_bootstraps"`
}

// DefaultBootstrapIterations is the number of bootstrap resamples.
const DefaultBootstrapIterations = 2000

// BootstrapCI computes a percentile bootstrap confidence interval for the
// mean of values. confidenceLevel should be in (0, 1), e.g. 0.95. The same
// seed always gives the same interval. Fewer than 2 values give a
// degenerate interval at the mean with NumBootstraps 0.
func BootstrapCI(values []float64, confidenceLevel float64, seed int64) ConfidenceInterval {
	n := len(values)
	if n < 2 {
		m := 0.0
		if n == 1 {
			m = values[0]
		}
		return ConfidenceInterval{Lower: m, Upper: m, Mean: m, ConfidenceLevel: confidenceLevel}
	}

	rng := rand.New(rand.NewSource(seed))
	iters := DefaultBootstrapIterations

	bootMeans := make([]float64, iters)
	sample := make([]float64, n)
	for i := range bootMeans {
		for j := range sample {
			sample[j] = values[rng.Intn(n)]
		}
		bootMeans[i] = stat.Mean(sample, nil)
	}
	sort.Float64s(bootMeans)

	alpha := 1.0 - confidenceLevel
	loIdx := int(math.Floor(alpha / 2.0 * float64(iters)))
	hiIdx := min(int(math.Floor((1.0-alpha/2.0)*float64(iters))), iters-1)

	return ConfidenceInterval{
		Lower:           bootMeans[loIdx],
		Upper:           bootMeans[hiIdx],
		Mean:            stat.Mean(values, nil),
		ConfidenceLevel: confidenceLevel,
		NumBootstraps:   iters,
	}
}

// IsSignificant returns true if the confidence interval does not contain zero.
func IsSignificant(ci ConfidenceInterval) bool {
	return ci.Lower > 0 || ci.Upper < 0
}
