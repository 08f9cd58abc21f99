package reporting

import (
	"strings"
	"testing"

	"github.com/spboyer/llmscale/internal/ability"
	"github.com/spboyer/llmscale/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestInterpretAbility(t *testing.T) {
	tests := []struct {
		name    string
		ability float64
		want    string
	}{
		{"frontier", 2.1, "Frontier (>=1.5 sd)"},
		{"frontier boundary", 1.5, "Frontier (>=1.5 sd)"},
		{"strong", 0.9, "Strong (0.5-1.5 sd)"},
		{"typical high", 0.49, "Typical (within 0.5 sd)"},
		{"typical zero", 0, "Typical (within 0.5 sd)"},
		{"behind", -0.5, "Behind (-1.5 to -0.5 sd)"},
		{"far behind", -1.5, "Far behind (<-1.5 sd)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InterpretAbility(tt.ability))
		})
	}
}

func TestInterpretSigma(t *testing.T) {
	assert.Contains(t, InterpretSigma(1.2), "Tight fit")
	assert.Contains(t, InterpretSigma(5), "Moderate fit")
	assert.Contains(t, InterpretSigma(12), "Loose fit")
}

func TestInterpretConvergence(t *testing.T) {
	got := InterpretConvergence(&ability.Result{Converged: true, Status: "FunctionConvergence", Iterations: 42})
	assert.Equal(t, "Converged (FunctionConvergence) after 42 iterations.", got)

	got = InterpretConvergence(&ability.Result{Status: "IterationLimit", Iterations: 2000})
	assert.True(t, strings.HasPrefix(got, "Did not converge (IterationLimit)"))
}

func TestFormatFitSummary(t *testing.T) {
	res := &ability.Result{
		Abilities: map[string]models.AbilityReport{
			"weak":   {Ability: -1},
			"strong": {Ability: 1, Offsets: map[string]float64{"strong-high": 0.3}},
		},
		Curves:      map[string]models.Curve{"gpqa": {}, "swe": {}},
		Sigma:       2,
		Converged:   true,
		Status:      "GradientThreshold",
		Iterations:  10,
		Excluded:    3,
		VariantBase: map[string]string{"strong-high": "strong"},
	}

	out := FormatFitSummary(res)
	assert.Contains(t, out, "2 base models, 1 variants")
	assert.Contains(t, out, "Benchmarks:    2")
	assert.Contains(t, out, "Excluded:      3")
	assert.Less(t, strings.Index(out, "strong: +1.000"), strings.Index(out, "weak: -1.000"))
}
