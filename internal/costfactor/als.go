// Package costfactor derives one cost-normalization factor per benchmark
// from a sparse benchmark x model cost matrix.
//
// The matrix is approximated as a weighted rank-1 product C[i][j] ~ u[i]*v[j]
// by alternating least squares. The benchmark factor is 1/u[i], which maps a
// benchmark's native cost unit (tokens, dollars, seconds) onto the shared
// model scale v.
package costfactor

import (
	"log/slog"
	"math"
	"sort"

	"github.com/spboyer/llmscale/internal/models"
)

// DefaultIterations is the fixed number of ALS sweeps. There is no early
// stopping; the rank-1 surface converges in a handful of sweeps in practice.
const DefaultIterations = 20

// Result holds the fitted factors.
type Result struct {
	// Factors is keyed by benchmark. A nil factor means the benchmark had no
	// usable cost observations.
	Factors map[string]*float64 `json:"factors" yaml:"factors"`
	// ModelCosts is each model's latent cost v[j] on the shared scale.
	ModelCosts map[string]float64 `json:"model_costs" yaml:"model_costs"`
}

// Factor returns the factor for a benchmark and whether it is defined.
func (r *Result) Factor(benchmark string) (float64, bool) {
	f := r.Factors[benchmark]
	if f == nil {
		return 0, false
	}
	return *f, true
}

// Normalize converts a native cost on benchmark to the shared scale.
func (r *Result) Normalize(benchmark string, cost float64) (float64, bool) {
	f, ok := r.Factor(benchmark)
	if !ok || !models.ValidCost(cost) {
		return 0, false
	}
	return cost * f, true
}

type cell struct {
	row, col int
	cost     float64
}

// Estimate fits the rank-1 model. weights maps benchmark to a positive
// weight, defaulting to 1; a weight w is equivalent to repeating that
// benchmark's row w times, and scaling every weight by the same constant
// changes nothing. iterations <= 0 uses DefaultIterations.
//
// Benchmarks listed in costs with no valid entries are reported with a nil
// factor.
func Estimate(costs models.CostMatrix, weights map[string]float64, iterations int) *Result {
	if iterations <= 0 {
		iterations = DefaultIterations
	}

	benchmarks := make([]string, 0, len(costs))
	modelSet := make(map[string]bool)
	for b, row := range costs {
		benchmarks = append(benchmarks, b)
		for m := range row {
			modelSet[m] = true
		}
	}
	sort.Strings(benchmarks)
	modelNames := make([]string, 0, len(modelSet))
	for m := range modelSet {
		modelNames = append(modelNames, m)
	}
	sort.Strings(modelNames)

	w := make([]float64, len(benchmarks))
	for i, b := range benchmarks {
		w[i] = benchmarkWeight(weights, b)
	}

	var cells []cell
	observedRow := make([]bool, len(benchmarks))
	for i, b := range benchmarks {
		for j, m := range modelNames {
			c, ok := costs[b][m]
			if !ok {
				continue
			}
			if !models.ValidCost(c) {
				slog.Debug("ignoring invalid cost", "benchmark", b, "model", m, "cost", c)
				continue
			}
			cells = append(cells, cell{row: i, col: j, cost: c})
			observedRow[i] = true
		}
	}

	u := ones(len(benchmarks))
	v := ones(len(modelNames))
	for range iterations {
		updateColumns(cells, w, u, v)
		updateRows(cells, u, v)
	}

	res := &Result{
		Factors:    make(map[string]*float64, len(benchmarks)),
		ModelCosts: make(map[string]float64, len(modelNames)),
	}
	for i, b := range benchmarks {
		if !observedRow[i] || u[i] == 0 || math.IsNaN(u[i]) {
			res.Factors[b] = nil
			continue
		}
		res.Factors[b] = models.Float(1 / u[i])
	}
	colSeen := make([]bool, len(modelNames))
	for _, c := range cells {
		colSeen[c.col] = true
	}
	for j, m := range modelNames {
		if colSeen[j] {
			res.ModelCosts[m] = v[j]
		}
	}

	slog.Debug("estimated cost factors", "benchmarks", len(benchmarks), "models", len(modelNames), "cells", len(cells), "iterations", iterations)
	return res
}

// updateColumns solves v[j] = sum w_i u_i C_ij / sum w_i u_i^2 over the
// benchmarks that observed model j. A zero denominator keeps v[j].
func updateColumns(cells []cell, w, u, v []float64) {
	num := make([]float64, len(v))
	den := make([]float64, len(v))
	for _, c := range cells {
		wu := w[c.row] * u[c.row]
		num[c.col] += wu * c.cost
		den[c.col] += wu * u[c.row]
	}
	for j := range v {
		if den[j] != 0 {
			v[j] = num[j] / den[j]
		}
	}
}

// updateRows solves u[i] = sum v_j C_ij / sum v_j^2 over the models observed
// on benchmark i. The row's own weight cancels out of its update.
func updateRows(cells []cell, u, v []float64) {
	num := make([]float64, len(u))
	den := make([]float64, len(u))
	for _, c := range cells {
		num[c.row] += v[c.col] * c.cost
		den[c.row] += v[c.col] * v[c.col]
	}
	for i := range u {
		if den[i] != 0 {
			u[i] = num[i] / den[i]
		}
	}
}

func benchmarkWeight(weights map[string]float64, benchmark string) float64 {
	w, ok := weights[benchmark]
	if !ok {
		return 1
	}
	if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		slog.Warn("ignoring invalid benchmark weight", "benchmark", benchmark, "weight", w)
		return 1
	}
	return w
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
