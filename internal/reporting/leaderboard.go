package reporting

import (
	"sort"

	"github.com/spboyer/llmscale/internal/models"
	"github.com/spboyer/llmscale/internal/normalize"
)

// LeaderboardOptions filters and scales leaderboard entries.
type LeaderboardOptions struct {
	// MinBenchmarks hides models scored on fewer benchmarks.
	MinBenchmarks int
	// MinCostBenchmarks is the number of costed benchmarks a model needs
	// before its mean normalized cost is shown.
	MinCostBenchmarks int
	// Display maps ability onto the published score scale.
	Display models.Curve
}

// Entry is one leaderboard row.
type Entry struct {
	Rank           int      `json:"rank" yaml:"rank"`
	Model          string   `json:"model" yaml:"model"`
	Base           string   `json:"base" yaml:"base"`
	Ability        float64  `json:"ability" yaml:"ability"`
	Score          float64  `json:"score" yaml:"score"`
	Benchmarks     int      `json:"benchmarks" yaml:"benchmarks"`
	Cost           *float64 `json:"cost,omitempty" yaml:"cost,omitempty"`
	CostBenchmarks int      `json:"cost_benchmarks" yaml:"cost_benchmarks"`
}

// BuildLeaderboard joins abilities with benchmark coverage and normalized
// costs. Every base model and every variant with an offset gets a row; rows
// are ordered by ability, best first.
func BuildLeaderboard(abilities map[string]models.AbilityReport, processed map[string]*models.ProcessedBenchmarkFile, opts LeaderboardOptions) []Entry {
	counts := make(map[string]int)
	var costs []map[string]float64
	for _, pf := range processed {
		bench := make(map[string]float64)
		for model, r := range pf.Results {
			counts[model]++
			if r.NormalizedCost != nil {
				bench[model] = *r.NormalizedCost
			}
		}
		costs = append(costs, bench)
	}

	var entries []Entry
	add := func(model, base string, a float64) {
		if counts[model] < opts.MinBenchmarks {
			return
		}
		e := Entry{
			Model:      model,
			Base:       base,
			Ability:    a,
			Score:      opts.Display.Eval(a),
			Benchmarks: counts[model],
		}
		mean, n := normalize.MeanCost(costs, model)
		e.CostBenchmarks = n
		if n > 0 && n >= opts.MinCostBenchmarks {
			e.Cost = models.Float(mean)
		}
		entries = append(entries, e)
	}

	for base, rep := range abilities {
		add(base, base, rep.Ability)
		for variant, off := range rep.Offsets {
			add(variant, base, rep.Ability+off)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Ability != entries[j].Ability {
			return entries[i].Ability > entries[j].Ability
		}
		return entries[i].Model < entries[j].Model
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
