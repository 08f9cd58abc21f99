package models

import "math"

// CostMatrix holds per-task costs keyed by benchmark, then model. Entries
// with a non-positive or non-finite cost are treated as missing.
type CostMatrix map[string]map[string]float64

// Set records a cost. Invalid costs are dropped rather than stored.
func (m CostMatrix) Set(benchmark, model string, cost float64) {
	if !ValidCost(cost) {
		return
	}
	row, ok := m[benchmark]
	if !ok {
		row = make(map[string]float64)
		m[benchmark] = row
	}
	row[model] = cost
}

// ValidCost reports whether cost is usable as an observation.
func ValidCost(cost float64) bool {
	return cost > 0 && !math.IsInf(cost, 0) && !math.IsNaN(cost)
}

// Float returns a pointer to v, for nullable fields.
func Float(v float64) *float64 {
	return &v
}
