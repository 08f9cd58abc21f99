package models

import "time"

// BenchmarkFile is a raw benchmark result file as scraped from a leaderboard.
// Results and CostPerTask are keyed by the leaderboard's own model alias.
type BenchmarkFile struct {
	Benchmark            string             `yaml:"benchmark" json:"benchmark"`
	Description          string             `yaml:"description" json:"description"`
	Website              *string            `yaml:"website" json:"website"`
	GitHub               *string            `yaml:"github" json:"github"`
	ScoreWeight          float64            `yaml:"score_weight" json:"score_weight"`
	CostWeight           float64            `yaml:"cost_weight" json:"cost_weight"`
	Results              map[string]float64 `yaml:"results" json:"results"`
	ModelNameMappingFile string             `yaml:"model_name_mapping_file" json:"model_name_mapping_file"`
	PrivateHoldout       bool               `yaml:"private_holdout" json:"private_holdout"`
	CostPerTask          map[string]float64 `yaml:"cost_per_task,omitempty" json:"cost_per_task,omitempty"`
}

// MappingFile maps leaderboard aliases to canonical model slugs. A nil slug
// marks an alias that has been seen but not mapped yet.
type MappingFile map[string]*string

// ModelFile describes one base model and its reasoning-effort variants.
// ReasoningEfforts maps variant slug to a human readable effort label.
type ModelFile struct {
	Provider         string            `yaml:"provider" json:"provider"`
	ReasoningEfforts map[string]string `yaml:"reasoning_efforts" json:"reasoning_efforts"`
	Deprecated       bool              `yaml:"deprecated,omitempty" json:"deprecated,omitempty"`
	ReleaseDate      string            `yaml:"release_date,omitempty" json:"release_date,omitempty"`
}

// Released parses ReleaseDate. The zero time is returned when unset.
func (m ModelFile) Released() (time.Time, error) {
	if m.ReleaseDate == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, m.ReleaseDate)
}

// ProcessedResult is one model's entry in a processed benchmark file.
type ProcessedResult struct {
	Score           float64  `yaml:"score" json:"score"`
	NormalizedScore *float64 `yaml:"normalized_score,omitempty" json:"normalized_score,omitempty"`
	Cost            *float64 `yaml:"cost,omitempty" json:"cost,omitempty"`
	NormalizedCost  *float64 `yaml:"normalized_cost,omitempty" json:"normalized_cost,omitempty"`
}

// ProcessedBenchmarkFile is the slug-keyed output of the processing step,
// optionally carrying the fitted response curve.
type ProcessedBenchmarkFile struct {
	Sigmoid *Curve                     `yaml:"sigmoid,omitempty" json:"sigmoid,omitempty"`
	Results map[string]ProcessedResult `yaml:",inline" json:"results"`
}

// BenchmarkRecord is a benchmark after alias mapping: scores and costs keyed
// by canonical slug.
type BenchmarkRecord struct {
	Slug        string
	ScoreWeight float64
	CostWeight  float64
	Scores      map[string]float64
	Costs       map[string]float64
}

// Observations flattens the record's scores.
func (r BenchmarkRecord) Observations() []Observation {
	out := make([]Observation, 0, len(r.Scores))
	for model, score := range r.Scores {
		out = append(out, Observation{Benchmark: r.Slug, Model: model, Score: score})
	}
	return out
}
