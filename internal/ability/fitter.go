// Package ability fits a latent ability per model jointly with a logistic
// response curve per benchmark by maximum likelihood.
//
// Every observed base model gets one ability; abilities are standardized to
// mean 0 and population standard deviation 1 inside the parameterization, so
// the constraint holds exactly for every candidate the optimizer evaluates.
// Configured variants get an additive offset from their base, shrunk toward
// zero by a quadratic penalty.
package ability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/spboyer/llmscale/internal/models"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// ErrEmptyInput is returned when there are no observations left to fit.
var ErrEmptyInput = errors.New("ability: no observations to fit")

// Defaults for Options. DefaultOffsetPenalty is a tuning constant, not a
// property of the model: larger values pull sparse variants toward their base.
const (
	DefaultMethod         = MethodBFGS
	DefaultOffsetPenalty  = 1.0
	DefaultMaxIterations  = 2000
	DefaultMaxEvaluations = 500000
	DefaultTolerance      = 1e-9
	DefaultGradTolerance  = 1e-5
	DefaultRestarts       = 1
	DefaultRestartJitter  = 0.5
	DefaultSeed           = 1
)

// convergeWindow is how many iterations without improvement above the
// tolerance end a run. Nelder-Mead can hold its best vertex for many
// iterations while the simplex reshapes, so its window grows with the
// number of parameters.
const (
	convergeWindow        = 50
	simplexWindowPerParam = 20
	maxGradientPasses     = 5
	verifyRelativeImprove = 1e-7
)

// Options configures a Fitter.
type Options struct {
	Method       Method
	MethodParams map[string]any

	// OffsetPenalty multiplies the sum of squared variant offsets.
	OffsetPenalty float64

	MaxIterations  int
	MaxEvaluations int
	Tolerance      float64
	// GradTolerance is the gradient infinity norm below which a gradient
	// method counts as converged.
	GradTolerance float64

	// Restarts is the number of independent optimizer runs. Run 0 starts at
	// the data-driven initialization; the others jitter it.
	Restarts      int
	RestartJitter float64
	Seed          int64
}

// DefaultOptions returns Options with every default filled in.
func DefaultOptions() Options {
	return Options{
		Method:         DefaultMethod,
		OffsetPenalty:  DefaultOffsetPenalty,
		MaxIterations:  DefaultMaxIterations,
		MaxEvaluations: DefaultMaxEvaluations,
		Tolerance:      DefaultTolerance,
		GradTolerance:  DefaultGradTolerance,
		Restarts:       DefaultRestarts,
		RestartJitter:  DefaultRestartJitter,
		Seed:           DefaultSeed,
	}
}

// Result is the fitted ability model.
type Result struct {
	// Abilities is keyed by base model.
	Abilities map[string]models.AbilityReport `json:"abilities"`
	// Curves is keyed by benchmark.
	Curves map[string]models.Curve `json:"curves"`
	Sigma  float64                 `json:"sigma"`

	NegLogLikelihood float64 `json:"neg_log_likelihood"`

	// Status is the optimizer's termination status for the winning run.
	// A non-converged fit is still returned; callers that need a guarantee
	// check Converged.
	Status      string `json:"status"`
	Converged   bool   `json:"converged"`
	Iterations  int    `json:"iterations"`
	Evaluations int    `json:"evaluations"`
	Restart     int    `json:"restart"`

	// Excluded counts observations on models absent from the variant config.
	Excluded int `json:"excluded"`

	// VariantBase maps each reported variant to its base.
	VariantBase map[string]string `json:"variant_base,omitempty"`
}

// Predict returns the expected score of a base model or variant on a
// benchmark. ok is false if either is unknown to the fit.
func (r *Result) Predict(model, benchmark string) (score float64, ok bool) {
	curve, ok := r.Curves[benchmark]
	if !ok {
		return 0, false
	}
	a, ok := r.EffectiveAbility(model)
	if !ok {
		return 0, false
	}
	return curve.Eval(a), true
}

// EffectiveAbility is base ability plus the variant offset.
func (r *Result) EffectiveAbility(model string) (float64, bool) {
	if rep, ok := r.Abilities[model]; ok {
		return rep.Ability, true
	}
	base, ok := r.VariantBase[model]
	if !ok {
		return 0, false
	}
	rep := r.Abilities[base]
	return rep.Ability + rep.Offsets[model], true
}

// Fitter estimates abilities and response curves.
type Fitter struct {
	opts Options
}

// NewFitter creates a Fitter. Zero iteration limits, tolerance and restart
// counts fall back to defaults; OffsetPenalty is used as given.
func NewFitter(opts Options) *Fitter {
	if opts.Method == "" {
		opts.Method = DefaultMethod
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.MaxEvaluations <= 0 {
		opts.MaxEvaluations = DefaultMaxEvaluations
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.GradTolerance <= 0 {
		opts.GradTolerance = DefaultGradTolerance
	}
	if opts.Restarts <= 0 {
		opts.Restarts = DefaultRestarts
	}
	if opts.RestartJitter <= 0 {
		opts.RestartJitter = DefaultRestartJitter
	}
	return &Fitter{opts: opts}
}

// Options returns the effective options.
func (f *Fitter) Options() Options {
	return f.opts
}

// Fit estimates the model from observations. variants may be nil, in which
// case every observed model is its own base.
func (f *Fitter) Fit(ctx context.Context, obs []models.Observation, variants VariantConfig) (*Result, error) {
	if len(obs) == 0 {
		return nil, ErrEmptyInput
	}

	l, excluded := buildLayout(obs, variants)
	if len(l.y) == 0 {
		return nil, ErrEmptyInput
	}

	slog.Debug("fitting ability model",
		"observations", len(l.y),
		"bases", len(l.bases),
		"variants", len(l.variants),
		"benchmarks", len(l.benchmarks),
		"params", l.numParams(),
		"method", f.opts.Method,
		"excluded", excluded)

	obj := &objective{layout: l, offsetPenalty: f.opts.OffsetPenalty}
	x0 := initialise(l).pack()

	rng := rand.New(rand.NewSource(f.opts.Seed))
	starts := make([][]float64, f.opts.Restarts)
	starts[0] = x0
	for r := 1; r < len(starts); r++ {
		starts[r] = jitter(x0, f.opts.RestartJitter, rng.NormFloat64)
	}

	outcomes := make([]runOutcome, len(starts))
	g, gctx := errgroup.WithContext(ctx)
	for r, start := range starts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := f.minimize(gctx, obj, start)
			if err != nil {
				return err
			}
			outcomes[r] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fitting ability model: %w", err)
	}

	best := 0
	for r := range outcomes {
		slog.Debug("optimizer run finished", "restart", r, "nll", outcomes[r].f, "status", outcomes[r].status)
		if outcomes[r].f < outcomes[best].f {
			best = r
		}
	}

	res := buildResult(l, obj, outcomes[best].x)
	res.Status = outcomes[best].status.String()
	res.Converged = converged(outcomes[best].status)
	res.Iterations = outcomes[best].iterations
	res.Evaluations = outcomes[best].evaluations
	res.Restart = best
	res.Excluded = excluded
	return res, nil
}

type runOutcome struct {
	x           []float64
	f           float64
	status      optimize.Status
	iterations  int
	evaluations int
}

// minimize optimizes from x0. Optimizer failures are not errors: the best
// location found so far is kept, or x0 if the optimizer produced nothing
// usable. A gradient method whose line search fails is retried from its best
// point and then only counts as converged at a small gradient. Nelder-Mead
// only counts as converged once a restart from its own answer with a fresh
// simplex no longer improves.
func (f *Fitter) minimize(ctx context.Context, obj *objective, x0 []float64) (runOutcome, error) {
	problem := optimize.Problem{Func: obj.value}
	gradient := f.opts.Method.needsGradient()
	if gradient {
		problem.Grad = obj.gradient
	}

	window := convergeWindow
	if !gradient {
		window = max(window, simplexWindowPerParam*len(x0))
	}

	best := runOutcome{x: x0, f: obj.value(x0), status: optimize.Failure}
	for pass := 0; ; pass++ {
		remaining := f.opts.MaxIterations - best.iterations
		if remaining <= 0 {
			best.status = optimize.IterationLimit
			break
		}
		out, err := f.pass(ctx, problem, best.x, remaining, window)
		if err != nil {
			return runOutcome{}, err
		}
		best.iterations += out.iterations
		best.evaluations += out.evaluations

		improved := out.f < best.f
		gain := best.f - out.f
		if improved {
			best.x, best.f = out.x, out.f
		}
		best.status = out.status

		if gradient {
			if converged(out.status) || !improved || pass+1 >= maxGradientPasses {
				break
			}
			// A failed line search resets the Hessian estimate on the next pass.
			continue
		}

		if out.status != optimize.FunctionConvergence {
			break
		}
		if pass > 0 && gain <= verifyRelativeImprove*(1+math.Abs(best.f)) {
			break
		}
		// Not verified yet: run again from the best vertex.
		best.status = optimize.NotTerminated
	}

	if gradient && !converged(best.status) {
		grad := make([]float64, len(best.x))
		obj.gradient(grad, best.x)
		if floats.Norm(grad, math.Inf(1)) < f.opts.GradTolerance {
			best.status = optimize.GradientThreshold
		}
	}
	return best, nil
}

// pass is a single optimize.Minimize call. Cancellation of ctx stops the run
// at the next evaluation.
func (f *Fitter) pass(ctx context.Context, problem optimize.Problem, x0 []float64, iterations, window int) (runOutcome, error) {
	method, err := NewMethod(f.opts.Method, f.opts.MethodParams)
	if err != nil {
		return runOutcome{}, err
	}

	settings := &optimize.Settings{
		MajorIterations: iterations,
		FuncEvaluations: f.opts.MaxEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   f.opts.Tolerance,
			Relative:   f.opts.Tolerance,
			Iterations: window,
		},
		Recorder: contextRecorder{ctx: ctx},
	}
	if problem.Grad != nil {
		settings.GradientThreshold = f.opts.GradTolerance
	}

	start := append([]float64(nil), x0...)
	res, err := optimize.Minimize(problem, start, settings, method)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return runOutcome{}, ctxErr
	}
	if err != nil {
		slog.Debug("optimizer stopped with error", "error", err)
	}
	if res == nil || !finite(res.X) || math.IsNaN(res.F) {
		out := runOutcome{x: x0, f: math.Inf(1), status: optimize.Failure}
		if res != nil {
			out.iterations = res.MajorIterations
			out.evaluations = res.FuncEvaluations
		}
		return out, nil
	}
	return runOutcome{
		x:           res.X,
		f:           res.F,
		status:      res.Status,
		iterations:  res.MajorIterations,
		evaluations: res.FuncEvaluations,
	}, nil
}

// contextRecorder ends an optimization once its context is done.
type contextRecorder struct {
	ctx context.Context
}

func (contextRecorder) Init() error { return nil }

func (r contextRecorder) Record(*optimize.Location, optimize.Operation, *optimize.Stats) error {
	return r.ctx.Err()
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success,
		optimize.FunctionThreshold,
		optimize.FunctionConvergence,
		optimize.GradientThreshold,
		optimize.StepConvergence,
		optimize.MethodConverge:
		return true
	}
	return false
}

func finite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// buildResult decodes the winning parameters into named reports. Offsets of
// variants that never appeared in the data are reported as exactly 0.
func buildResult(l *layout, obj *objective, x []float64) *Result {
	d := unpack(x, l).decode()

	res := &Result{
		Abilities:        make(map[string]models.AbilityReport, len(l.bases)),
		Curves:           make(map[string]models.Curve, len(l.benchmarks)),
		Sigma:            d.sigma,
		NegLogLikelihood: obj.negLogLikelihood(d),
	}

	for b, name := range l.bases {
		res.Abilities[name] = models.AbilityReport{
			Ability: d.ability[b],
			Offsets: map[string]float64{},
		}
	}
	if len(l.variants) > 0 {
		res.VariantBase = make(map[string]string, len(l.variants))
	}
	for v, name := range l.variants {
		base := l.bases[l.variantBase[v]]
		offset := 0.0
		if l.observed[v] {
			offset = d.offsets[v]
		}
		res.Abilities[base].Offsets[name] = offset
		res.VariantBase[name] = base
	}

	for k, name := range l.benchmarks {
		res.Curves[name] = models.Curve{
			Min:      d.min[k],
			Max:      d.max[k],
			Midpoint: d.midpoint[k],
			Slope:    d.slope[k],
		}
	}
	return res
}
