package ability

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// minInitSigma floors the starting residual scale for constant data.
const minInitSigma = 1e-3

// initialise derives a starting point from simple score summaries. The
// objective is non-convex, so a data-driven start matters.
func initialise(l *layout) paramSet {
	nb, nv, nk := len(l.bases), len(l.variants), len(l.benchmarks)

	baseSum := make([]float64, nb)
	baseCount := make([]float64, nb)
	variantSum := make([]float64, nv)
	variantCount := make([]float64, nv)
	benchMin := make([]float64, nk)
	benchMax := make([]float64, nk)
	for k := range benchMin {
		benchMin[k] = math.Inf(1)
		benchMax[k] = math.Inf(-1)
	}

	for i, y := range l.y {
		b := l.obsBase[i]
		baseSum[b] += y
		baseCount[b]++
		if v := l.obsVariant[i]; v >= 0 {
			variantSum[v] += y
			variantCount[v]++
		}
		k := l.obsBench[i]
		benchMin[k] = math.Min(benchMin[k], y)
		benchMax[k] = math.Max(benchMax[k], y)
	}

	baseMean := make([]float64, nb)
	for b := range baseMean {
		if baseCount[b] > 0 {
			baseMean[b] = baseSum[b] / baseCount[b]
		}
	}

	p := paramSet{
		rawAbility: standardize(baseMean),
		offsets:    make([]float64, nv),
		min:        make([]float64, nk),
		logRange:   make([]float64, nk),
		midpoint:   make([]float64, nk),
		logSlope:   make([]float64, nk),
	}

	// Offsets start at the variant's mean score lift over its base, expressed
	// in the same units as the standardized abilities.
	_, scale := stat.PopMeanStdDev(baseMean, nil)
	if scale == 0 || math.IsNaN(scale) {
		scale = 1
	}
	for v := range p.offsets {
		if variantCount[v] == 0 {
			continue
		}
		b := l.variantBase[v]
		p.offsets[v] = (variantSum[v]/variantCount[v] - baseMean[b]) / scale
	}

	for k := range p.min {
		span := benchMax[k] - benchMin[k]
		if span == 0 {
			span = 1
		}
		p.min[k] = benchMin[k] - 0.1*span
		p.logRange[k] = math.Log(1.2 * span)
	}

	sigma := stat.StdDev(l.y, nil)
	if math.IsNaN(sigma) || sigma < minInitSigma {
		sigma = minInitSigma
	}
	p.logSigma = math.Log(sigma)

	return p
}

// jitter returns a perturbed copy of x for a restart.
func jitter(x []float64, scale float64, normal func() float64) []float64 {
	out := floats.ScaleTo(make([]float64, len(x)), 1, x)
	for i := range out {
		out[i] += scale * normal()
	}
	return out
}
