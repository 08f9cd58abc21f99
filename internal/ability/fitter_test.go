package ability

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/spboyer/llmscale/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

func abilityVector(res *Result) []float64 {
	out := make([]float64, 0, len(res.Abilities))
	for _, rep := range res.Abilities {
		out = append(out, rep.Ability)
	}
	return out
}

func assertNormalized(t *testing.T, res *Result) {
	t.Helper()
	mean, std := stat.PopMeanStdDev(abilityVector(res), nil)
	assert.InDelta(t, 0.0, mean, 1e-6, "ability mean")
	assert.InDelta(t, 1.0, std, 1e-6, "ability std")
}

// syntheticObservations draws noiseless scores from known curves so the
// ordering of true abilities is recoverable.
func syntheticObservations() ([]models.Observation, []string) {
	order := []string{"m-weak", "m-low", "m-mid", "m-high", "m-top"}
	truth := []float64{-1.4, -0.7, 0.0, 0.7, 1.4}
	curves := map[string]models.Curve{
		"bench-easy": {Min: 10, Max: 95, Midpoint: -0.5, Slope: 0.6},
		"bench-hard": {Min: 0, Max: 80, Midpoint: 0.8, Slope: 0.4},
		"bench-flat": {Min: 20, Max: 60, Midpoint: 0.0, Slope: 1.5},
	}
	var obs []models.Observation
	for bench, c := range curves {
		for i, m := range order {
			obs = append(obs, models.Observation{Benchmark: bench, Model: m, Score: c.Eval(truth[i])})
		}
	}
	models.SortObservations(obs)
	return obs, order
}

// noisyObservations draws scores from known curves with seeded Gaussian
// noise: eight bases on five benchmarks, and with variants, a "-high"
// variant above four of the bases.
func noisyObservations(withVariants bool) ([]models.Observation, VariantConfig) {
	bases := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	truth := []float64{-1.6, -1.1, -0.6, -0.2, 0.2, 0.6, 1.1, 1.6}
	curves := map[string]models.Curve{
		"b1": {Min: 5, Max: 90, Midpoint: -0.4, Slope: 0.35},
		"b2": {Min: 0, Max: 75, Midpoint: 0.0, Slope: 0.4},
		"b3": {Min: 20, Max: 95, Midpoint: 0.3, Slope: 0.45},
		"b4": {Min: 10, Max: 60, Midpoint: 0.5, Slope: 0.5},
		"b5": {Min: 0, Max: 100, Midpoint: -0.2, Slope: 0.3},
	}
	benchmarks := []string{"b1", "b2", "b3", "b4", "b5"}

	rng := rand.New(rand.NewSource(3))
	var obs []models.Observation
	var variants VariantConfig
	if withVariants {
		variants = VariantConfig{}
	}
	for i, base := range bases {
		if withVariants {
			variants[base] = nil
		}
		for _, bench := range benchmarks {
			c := curves[bench]
			obs = append(obs, models.Observation{Benchmark: bench, Model: base, Score: c.Eval(truth[i]) + 1.5*rng.NormFloat64()})
			if withVariants && i%2 == 0 {
				obs = append(obs, models.Observation{Benchmark: bench, Model: base + "-high", Score: c.Eval(truth[i]+0.3) + 1.5*rng.NormFloat64()})
			}
		}
		if withVariants && i%2 == 0 {
			variants[base] = []string{base + "-high"}
		}
	}
	models.SortObservations(obs)
	return obs, variants
}

func TestFit_TwoModelExample(t *testing.T) {
	obs := []models.Observation{
		{Benchmark: "b1", Model: "m1", Score: 0.0},
		{Benchmark: "b1", Model: "m2", Score: 1.0},
		{Benchmark: "b2", Model: "m1", Score: 0.5},
		{Benchmark: "b2", Model: "m2", Score: 1.5},
	}

	res, err := NewFitter(DefaultOptions()).Fit(context.Background(), obs, nil)
	require.NoError(t, err)

	assertNormalized(t, res)
	assert.InDelta(t, -1.0, res.Abilities["m1"].Ability, 1e-6)
	assert.InDelta(t, 1.0, res.Abilities["m2"].Ability, 1e-6)
	assert.Len(t, res.Curves, 2)
	assert.Contains(t, res.Curves, "b1")
	assert.Contains(t, res.Curves, "b2")
	assert.Greater(t, res.Sigma, 0.0)
	assert.Empty(t, res.Abilities["m1"].Offsets)
	assert.NotEmpty(t, res.Status)
}

func TestFit_AbilityNormalizationAndOrdering(t *testing.T) {
	obs, order := syntheticObservations()

	res, err := NewFitter(DefaultOptions()).Fit(context.Background(), obs, nil)
	require.NoError(t, err)

	assertNormalized(t, res)
	require.Len(t, res.Abilities, len(order))
	for i := 1; i < len(order); i++ {
		assert.Less(t, res.Abilities[order[i-1]].Ability, res.Abilities[order[i]].Ability,
			"%s should rank below %s", order[i-1], order[i])
	}
}

func TestFit_CurveValidity(t *testing.T) {
	obs, _ := syntheticObservations()
	obs = append(obs,
		models.Observation{Benchmark: "bench-pair", Model: "m-low", Score: 3},
		models.Observation{Benchmark: "bench-pair", Model: "m-top", Score: 3},
	)

	for _, method := range []Method{MethodBFGS, MethodNelderMead} {
		t.Run(string(method), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Method = method
			res, err := NewFitter(opts).Fit(context.Background(), obs, nil)
			require.NoError(t, err)

			require.Len(t, res.Curves, 4)
			for name, c := range res.Curves {
				assert.Greater(t, c.Max, c.Min, "benchmark %s", name)
				assert.Greater(t, c.Slope, 0.0, "benchmark %s", name)
			}
			assert.Greater(t, res.Sigma, 0.0)
			assertNormalized(t, res)
		})
	}
}

func TestFit_Variants(t *testing.T) {
	variants := VariantConfig{
		"alpha": {"alpha-low", "alpha-high"},
		"beta":  {"beta-high", "beta-unused"},
		"gamma": {},
	}
	obs := []models.Observation{
		{Benchmark: "b1", Model: "alpha-low", Score: 20},
		{Benchmark: "b1", Model: "alpha-high", Score: 40},
		{Benchmark: "b1", Model: "beta-high", Score: 70},
		{Benchmark: "b1", Model: "gamma", Score: 50},
		{Benchmark: "b2", Model: "alpha-low", Score: 15},
		{Benchmark: "b2", Model: "alpha-high", Score: 30},
		{Benchmark: "b2", Model: "beta-high", Score: 80},
		{Benchmark: "b2", Model: "gamma", Score: 45},
		{Benchmark: "b2", Model: "rogue-model", Score: 99},
	}

	res, err := NewFitter(DefaultOptions()).Fit(context.Background(), obs, variants)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Excluded)
	require.Len(t, res.Abilities, 3)
	assert.NotContains(t, res.Abilities, "rogue-model")
	assertNormalized(t, res)

	beta := res.Abilities["beta"]
	require.Contains(t, beta.Offsets, "beta-unused")
	assert.Equal(t, 0.0, beta.Offsets["beta-unused"])

	alpha := res.Abilities["alpha"]
	require.Len(t, alpha.Offsets, 2)
	assert.Greater(t, alpha.Offsets["alpha-high"], alpha.Offsets["alpha-low"])
	assert.Empty(t, res.Abilities["gamma"].Offsets)

	assert.Equal(t, "beta", res.VariantBase["beta-unused"])

	a, ok := res.EffectiveAbility("alpha-high")
	require.True(t, ok)
	assert.InDelta(t, alpha.Ability+alpha.Offsets["alpha-high"], a, 1e-12)

	hi, ok := res.Predict("beta-high", "b2")
	require.True(t, ok)
	lo, ok := res.Predict("alpha-low", "b2")
	require.True(t, ok)
	assert.Greater(t, hi, lo)

	_, ok = res.Predict("rogue-model", "b2")
	assert.False(t, ok)
	_, ok = res.Predict("gamma", "b9")
	assert.False(t, ok)
}

func TestFit_OffsetPenaltyShrinks(t *testing.T) {
	variants := VariantConfig{"base": {"base-hi"}, "other": {}}
	obs := []models.Observation{
		{Benchmark: "b1", Model: "base", Score: 10},
		{Benchmark: "b1", Model: "base-hi", Score: 60},
		{Benchmark: "b1", Model: "other", Score: 40},
		{Benchmark: "b2", Model: "base", Score: 20},
		{Benchmark: "b2", Model: "base-hi", Score: 70},
		{Benchmark: "b2", Model: "other", Score: 50},
	}

	loose := DefaultOptions()
	loose.OffsetPenalty = 0.01
	strict := DefaultOptions()
	strict.OffsetPenalty = 1000

	resLoose, err := NewFitter(loose).Fit(context.Background(), obs, variants)
	require.NoError(t, err)
	resStrict, err := NewFitter(strict).Fit(context.Background(), obs, variants)
	require.NoError(t, err)

	assert.Less(t,
		math.Abs(resStrict.Abilities["base"].Offsets["base-hi"]),
		math.Abs(resLoose.Abilities["base"].Offsets["base-hi"]))
}

func TestFit_EmptyInput(t *testing.T) {
	f := NewFitter(DefaultOptions())

	_, err := f.Fit(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	// Everything excluded by the variant config is also empty.
	_, err = f.Fit(context.Background(),
		[]models.Observation{{Benchmark: "b", Model: "unknown", Score: 1}},
		VariantConfig{"known": {"known-v"}})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestFit_DegenerateData(t *testing.T) {
	obs := []models.Observation{
		{Benchmark: "const", Model: "a", Score: 5},
		{Benchmark: "const", Model: "b", Score: 5},
		{Benchmark: "single", Model: "a", Score: 1},
	}

	res, err := NewFitter(DefaultOptions()).Fit(context.Background(), obs, nil)
	require.NoError(t, err)

	for _, c := range res.Curves {
		assert.False(t, math.IsNaN(c.Min) || math.IsNaN(c.Max) || math.IsNaN(c.Slope))
		assert.Greater(t, c.Max, c.Min)
		assert.Greater(t, c.Slope, 0.0)
	}
	assert.Greater(t, res.Sigma, 0.0)
	assert.False(t, math.IsNaN(res.Sigma))
}

func TestFit_RestartsAreDeterministic(t *testing.T) {
	obs, _ := syntheticObservations()
	opts := DefaultOptions()
	opts.Restarts = 3
	opts.Seed = 7

	first, err := NewFitter(opts).Fit(context.Background(), obs, nil)
	require.NoError(t, err)
	second, err := NewFitter(opts).Fit(context.Background(), obs, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Restart, second.Restart)
	assert.Equal(t, first.NegLogLikelihood, second.NegLogLikelihood)
	for name, rep := range first.Abilities {
		assert.Equal(t, rep.Ability, second.Abilities[name].Ability, name)
	}
	assertNormalized(t, first)
}

func TestFit_ConvergesOnNoisyData(t *testing.T) {
	for _, tc := range []struct {
		name     string
		variants bool
	}{
		{name: "flat"},
		{name: "variants", variants: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			obs, variants := noisyObservations(tc.variants)

			res, err := NewFitter(DefaultOptions()).Fit(context.Background(), obs, variants)
			require.NoError(t, err)

			assert.True(t, res.Converged, "status %s after %d iterations", res.Status, res.Iterations)
			assertNormalized(t, res)
			assert.Less(t, res.Sigma, 5.0)
			assert.Less(t, res.Abilities["a"].Ability, res.Abilities["h"].Ability)
		})
	}
}

func TestFit_MethodsReachSameOptimum(t *testing.T) {
	obs, _ := noisyObservations(false)

	ref, err := NewFitter(DefaultOptions()).Fit(context.Background(), obs, nil)
	require.NoError(t, err)
	require.True(t, ref.Converged, "bfgs status %s", ref.Status)
	tol := 1e-2 * (1 + math.Abs(ref.NegLogLikelihood))

	for _, tc := range []struct {
		method       Method
		mustConverge bool
	}{
		{method: MethodLBFGS, mustConverge: true},
		{method: MethodNelderMead, mustConverge: true},
		{method: MethodGradientDescent},
	} {
		t.Run(string(tc.method), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Method = tc.method
			opts.MaxIterations = 200000
			opts.MaxEvaluations = 5000000

			res, err := NewFitter(opts).Fit(context.Background(), obs, nil)
			require.NoError(t, err)

			if tc.mustConverge {
				require.True(t, res.Converged, "status %s after %d iterations", res.Status, res.Iterations)
			}
			// Whatever the method, a fit reported as converged has to be at the
			// optimum, not near its starting point.
			if res.Converged {
				assert.InDelta(t, ref.NegLogLikelihood, res.NegLogLikelihood, tol)
				assert.InDelta(t, ref.Sigma, res.Sigma, 0.05*ref.Sigma)
			}
		})
	}
}

func TestMinimize_StopsWhenCanceled(t *testing.T) {
	obs, _ := noisyObservations(false)
	l, _ := buildLayout(obs, nil)
	obj := &objective{layout: l}
	x0 := initialise(l).pack()
	f := NewFitter(DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			calls++
			if calls == 10 {
				cancel()
			}
			return obj.value(x)
		},
		Grad: obj.gradient,
	}

	_, err := f.pass(ctx, problem, x0, 100000, convergeWindow)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, calls, 100)

	_, err = f.minimize(ctx, obj, x0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFit_CanceledContext(t *testing.T) {
	obs, _ := syntheticObservations()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFitter(DefaultOptions()).Fit(ctx, obs, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFit_InvalidMethod(t *testing.T) {
	obs, _ := syntheticObservations()
	opts := DefaultOptions()
	opts.Method = "simulated-annealing"

	_, err := NewFitter(opts).Fit(context.Background(), obs, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid optimizer method")
}

func TestNewFitter_Defaults(t *testing.T) {
	f := NewFitter(Options{})
	opts := f.Options()
	assert.Equal(t, MethodBFGS, opts.Method)
	assert.Equal(t, DefaultMaxIterations, opts.MaxIterations)
	assert.Equal(t, DefaultRestarts, opts.Restarts)
	assert.Equal(t, DefaultGradTolerance, opts.GradTolerance)
	assert.Equal(t, 0.0, opts.OffsetPenalty)
}
