package costfactor

import (
	"math"
	"testing"

	"github.com/spboyer/llmscale/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertRelEqual(t *testing.T, want, got float64, msgAndArgs ...any) {
	t.Helper()
	assert.InEpsilon(t, want, got, 1e-6, msgAndArgs...)
}

func TestEstimate_PerfectRankOne(t *testing.T) {
	costs := models.CostMatrix{
		"b1": {"m1": 1.0, "m2": 2.0},
		"b2": {"m1": 3.0, "m2": 6.0},
	}

	res := Estimate(costs, nil, DefaultIterations)

	f1, ok := res.Factor("b1")
	require.True(t, ok)
	f2, ok := res.Factor("b2")
	require.True(t, ok)
	assertRelEqual(t, 2.0, f1)
	assertRelEqual(t, 2.0/3.0, f2)

	// The fit is exact, so every normalized cost lands on the model scale.
	assertRelEqual(t, res.ModelCosts["m1"], 1.0*f1)
	assertRelEqual(t, res.ModelCosts["m1"], 3.0*f2)
	assertRelEqual(t, res.ModelCosts["m2"], 6.0*f2)
}

func TestEstimate_WeightEqualsRepetition(t *testing.T) {
	weighted := models.CostMatrix{
		"b1": {"m1": 1.0, "m2": 5.0, "m3": 2.0},
		"b2": {"m1": 4.0, "m2": 3.0},
		"b3": {"m2": 10.0, "m3": 30.0},
	}
	repeated := models.CostMatrix{
		"b1":     {"m1": 1.0, "m2": 5.0, "m3": 2.0},
		"b1-dup": {"m1": 1.0, "m2": 5.0, "m3": 2.0},
		"b2":     {"m1": 4.0, "m2": 3.0},
		"b3":     {"m2": 10.0, "m3": 30.0},
	}

	w := Estimate(weighted, map[string]float64{"b1": 2}, 50)
	r := Estimate(repeated, nil, 50)

	for _, b := range []string{"b1", "b2", "b3"} {
		fw, ok := w.Factor(b)
		require.True(t, ok, b)
		fr, ok := r.Factor(b)
		require.True(t, ok, b)
		assertRelEqual(t, fr, fw, b)
	}
	fdup, _ := r.Factor("b1-dup")
	fb1, _ := r.Factor("b1")
	assertRelEqual(t, fb1, fdup)
}

func TestEstimate_WeightScaleInvariance(t *testing.T) {
	costs := models.CostMatrix{
		"b1": {"m1": 1.0, "m2": 5.0, "m3": 2.0},
		"b2": {"m1": 4.0, "m2": 3.0},
		"b3": {"m2": 10.0, "m3": 30.0},
	}
	base := map[string]float64{"b1": 1, "b2": 3, "b3": 0.5}

	ref := Estimate(costs, base, DefaultIterations)
	for _, c := range []float64{0.01, 2, 1000} {
		scaled := make(map[string]float64, len(base))
		for b, w := range base {
			scaled[b] = w * c
		}
		got := Estimate(costs, scaled, DefaultIterations)
		for b := range costs {
			want, _ := ref.Factor(b)
			f, ok := got.Factor(b)
			require.True(t, ok)
			assertRelEqual(t, want, f, "benchmark %s scale %v", b, c)
		}
	}
}

func TestEstimate_MissingCosts(t *testing.T) {
	costs := models.CostMatrix{
		"b1":    {"m1": 1.0, "m2": 2.0},
		"empty": {},
		"zero":  {"m1": 0, "m2": -3, "m3": math.NaN()},
	}

	res := Estimate(costs, nil, 0)

	for _, b := range []string{"empty", "zero"} {
		require.Contains(t, res.Factors, b)
		assert.Nil(t, res.Factors[b], b)
		_, ok := res.Factor(b)
		assert.False(t, ok)
	}
	assert.NotNil(t, res.Factors["b1"])
	assert.NotContains(t, res.ModelCosts, "m3")

	_, ok := res.Normalize("zero", 2)
	assert.False(t, ok)
	_, ok = res.Normalize("b1", 0)
	assert.False(t, ok)
	n, ok := res.Normalize("b1", 4)
	require.True(t, ok)
	f, _ := res.Factor("b1")
	assert.Equal(t, 4*f, n)
}

func TestEstimate_DisjointBenchmarkLeavesFactorsUnchanged(t *testing.T) {
	before := models.CostMatrix{
		"bench1": {"model-a": 0.1, "model-b": 0.2},
		"bench2": {"model-a": 0.2, "model-b": 0.4},
	}
	after := models.CostMatrix{
		"bench1": {"model-a": 0.1, "model-b": 0.2},
		"bench2": {"model-a": 0.2, "model-b": 0.4},
		"bench3": {"model-c": 0.5, "model-d": 0.7},
	}

	r1 := Estimate(before, nil, DefaultIterations)
	r2 := Estimate(after, nil, DefaultIterations)

	for _, m := range []string{"model-a", "model-b"} {
		assertRelEqual(t, r1.ModelCosts[m], r2.ModelCosts[m], m)
	}
	for _, b := range []string{"bench1", "bench2"} {
		f1, _ := r1.Factor(b)
		f2, _ := r2.Factor(b)
		assertRelEqual(t, f1, f2, b)
	}
}

func TestEstimate_InvalidWeightFallsBack(t *testing.T) {
	costs := models.CostMatrix{
		"b1": {"m1": 1.0, "m2": 5.0},
		"b2": {"m1": 4.0, "m2": 3.0},
	}
	ref := Estimate(costs, nil, DefaultIterations)
	got := Estimate(costs, map[string]float64{"b1": -2, "b2": math.Inf(1)}, DefaultIterations)
	for b := range costs {
		want, _ := ref.Factor(b)
		f, _ := got.Factor(b)
		assertRelEqual(t, want, f, b)
	}
}

func TestEstimate_Empty(t *testing.T) {
	res := Estimate(nil, nil, DefaultIterations)
	assert.Empty(t, res.Factors)
	assert.Empty(t, res.ModelCosts)
}
