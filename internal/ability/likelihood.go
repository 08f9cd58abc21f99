package ability

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var logTwoPi = math.Log(2 * math.Pi)

// objective is the Gaussian negative log-likelihood of all observations under
// a shared sigma, plus the quadratic shrinkage on variant offsets.
//
// The likelihood only sees standardized abilities, so it is flat along the
// shift and scale of the raw ability vector. A gauge term that vanishes at
// raw mean 0 and std 1 pins those directions for the optimizer without
// moving the optimum.
type objective struct {
	layout        *layout
	offsetPenalty float64
}

func (o *objective) value(x []float64) float64 {
	p := unpack(x, o.layout)
	d := p.decode()
	return o.negLogLikelihood(d) + o.penalty(d) + gauge(p.rawAbility)
}

func (o *objective) negLogLikelihood(d decoded) float64 {
	l := o.layout
	logSigma := math.Log(d.sigma)
	sum := 0.0
	for i, y := range l.y {
		r := (y - d.predict(l, i)) / d.sigma
		sum += r*r + 2*logSigma + logTwoPi
	}
	return 0.5 * sum
}

func (o *objective) penalty(d decoded) float64 {
	if len(d.offsets) == 0 || o.offsetPenalty == 0 {
		return 0
	}
	return o.offsetPenalty * floats.Dot(d.offsets, d.offsets)
}

// gradient writes the derivative of value at x into grad.
func (o *objective) gradient(grad, x []float64) {
	l := o.layout
	p := unpack(x, l)
	d := p.decode()
	for i := range grad {
		grad[i] = 0
	}
	g := unpack(grad, l)

	gAbility := make([]float64, len(d.ability))
	s2 := d.sigma * d.sigma
	sumSq := 0.0
	for i, y := range l.y {
		k := l.obsBench[i]
		span := d.max[k] - d.min[k]
		z := (d.effectiveAbility(l, i) - d.midpoint[k]) / d.slope[k]
		s := 1 / (1 + math.Exp(-z))
		r := y - (d.min[k] + span*s)
		sumSq += r * r

		dPred := -r / s2
		dz := dPred * span * s * (1 - s)
		da := dz / d.slope[k]

		g.min[k] += dPred
		if unclamped(p.logRange[k]) {
			g.logRange[k] += dPred * span * s
		}
		g.midpoint[k] -= da
		if unclamped(p.logSlope[k]) {
			g.logSlope[k] -= dz * z
		}
		gAbility[l.obsBase[i]] += da
		if v := l.obsVariant[i]; v >= 0 {
			g.offsets[v] += da
		}
	}

	if o.offsetPenalty != 0 {
		for v, off := range d.offsets {
			g.offsets[v] += 2 * o.offsetPenalty * off
		}
	}

	rawGrad := standardizeGradient(p.rawAbility, d.ability, gAbility)
	gaugeGradient(rawGrad, p.rawAbility)
	copy(g.rawAbility, rawGrad)

	if unclamped(p.logSigma) {
		grad[len(grad)-1] = float64(len(l.y)) - sumSq/s2
	}
}

// standardizeGradient maps a gradient with respect to the standardized values
// z back onto the raw values they were computed from.
func standardizeGradient(raw, z, gz []float64) []float64 {
	out := make([]float64, len(raw))
	if len(raw) == 0 {
		return out
	}
	n := float64(len(raw))
	meanG := floats.Sum(gz) / n
	_, std := stat.PopMeanStdDev(raw, nil)
	if std == 0 {
		for i := range out {
			out[i] = gz[i] - meanG
		}
		return out
	}
	meanGZ := floats.Dot(gz, z) / n
	for i := range out {
		out[i] = (gz[i] - meanG - z[i]*meanGZ) / std
	}
	return out
}

// gauge is zero exactly when the raw abilities already have mean 0 and
// population std 1.
func gauge(raw []float64) float64 {
	if len(raw) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(raw, nil)
	g := mean * mean
	if len(raw) > 1 {
		g += (std - 1) * (std - 1)
	}
	return g
}

// gaugeGradient adds the derivative of gauge to grad.
func gaugeGradient(grad, raw []float64) {
	if len(raw) == 0 {
		return
	}
	n := float64(len(raw))
	mean, std := stat.PopMeanStdDev(raw, nil)
	for i, v := range raw {
		grad[i] += 2 * mean / n
		if len(raw) > 1 && std > 0 {
			grad[i] += 2 * (std - 1) * (v - mean) / (n * std)
		}
	}
}

func unclamped(v float64) bool {
	return math.Abs(v) < maxLogScale
}
