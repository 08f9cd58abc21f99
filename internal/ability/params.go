package ability

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// maxLogScale bounds the log-parameterized quantities so exp stays finite.
const maxLogScale = 30.0

// paramSet is the structured view of the optimizer's free parameters. The
// flat encoding only exists between pack and unpack.
type paramSet struct {
	rawAbility []float64
	offsets    []float64
	min        []float64
	logRange   []float64
	midpoint   []float64
	logSlope   []float64
	logSigma   float64
}

// pack lays the parameters out as abilities, offsets, min, log-range,
// midpoint, log-slope, then a trailing log-sigma.
func (p paramSet) pack() []float64 {
	n := len(p.rawAbility) + len(p.offsets) + 4*len(p.min) + 1
	x := make([]float64, 0, n)
	x = append(x, p.rawAbility...)
	x = append(x, p.offsets...)
	x = append(x, p.min...)
	x = append(x, p.logRange...)
	x = append(x, p.midpoint...)
	x = append(x, p.logSlope...)
	return append(x, p.logSigma)
}

// unpack slices x without copying; the returned set aliases x.
func unpack(x []float64, l *layout) paramSet {
	nb, nv, nk := len(l.bases), len(l.variants), len(l.benchmarks)
	var p paramSet
	i := 0
	next := func(n int) []float64 {
		s := x[i : i+n : i+n]
		i += n
		return s
	}
	p.rawAbility = next(nb)
	p.offsets = next(nv)
	p.min = next(nk)
	p.logRange = next(nk)
	p.midpoint = next(nk)
	p.logSlope = next(nk)
	p.logSigma = x[i]
	return p
}

// decoded holds the model quantities implied by a paramSet.
type decoded struct {
	ability  []float64
	offsets  []float64
	min      []float64
	max      []float64
	midpoint []float64
	slope    []float64
	sigma    float64
}

// decode standardizes the abilities to mean 0 and population std 1 and maps
// the log-scale parameters back to positive quantities.
func (p paramSet) decode() decoded {
	d := decoded{
		ability:  standardize(p.rawAbility),
		offsets:  p.offsets,
		min:      p.min,
		max:      make([]float64, len(p.min)),
		midpoint: p.midpoint,
		slope:    make([]float64, len(p.min)),
		sigma:    boundedExp(p.logSigma),
	}
	for k := range p.min {
		d.max[k] = p.min[k] + boundedExp(p.logRange[k])
		d.slope[k] = boundedExp(p.logSlope[k])
	}
	return d
}

// standardize re-centers and re-scales x. A zero spread only re-centers.
func standardize(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	mean, std := stat.PopMeanStdDev(x, nil)
	for i, v := range x {
		out[i] = v - mean
		if std > 0 {
			out[i] /= std
		}
	}
	return out
}

func boundedExp(v float64) float64 {
	return math.Exp(math.Max(-maxLogScale, math.Min(maxLogScale, v)))
}

// effectiveAbility is base ability plus the variant offset, if any.
func (d decoded) effectiveAbility(l *layout, i int) float64 {
	a := d.ability[l.obsBase[i]]
	if v := l.obsVariant[i]; v >= 0 {
		a += d.offsets[v]
	}
	return a
}

// predict evaluates the 4-parameter logistic for observation i.
func (d decoded) predict(l *layout, i int) float64 {
	k := l.obsBench[i]
	a := d.effectiveAbility(l, i)
	return d.min[k] + (d.max[k]-d.min[k])/(1+math.Exp(-(a-d.midpoint[k])/d.slope[k]))
}
