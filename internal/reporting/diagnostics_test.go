package reporting

import (
	"strings"
	"testing"

	"github.com/spboyer/llmscale/internal/ability"
	"github.com/spboyer/llmscale/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnose(t *testing.T) {
	res := &ability.Result{
		Abilities: map[string]models.AbilityReport{
			"over":  {Ability: 0},
			"exact": {Ability: 0},
		},
		// Flat curves predict 50 everywhere.
		Curves: map[string]models.Curve{
			"b1": {Min: 50, Max: 50, Slope: 1},
			"b2": {Min: 50, Max: 50, Slope: 1},
			"b3": {Min: 50, Max: 50, Slope: 1},
		},
	}
	obs := []models.Observation{
		{Benchmark: "b1", Model: "over", Score: 60},
		{Benchmark: "b2", Model: "over", Score: 58},
		{Benchmark: "b3", Model: "over", Score: 62},
		{Benchmark: "b1", Model: "exact", Score: 51},
		{Benchmark: "b2", Model: "exact", Score: 49},
		{Benchmark: "b3", Model: "exact", Score: 50},
		{Benchmark: "b1", Model: "unknown", Score: 10},
		{Benchmark: "b9", Model: "exact", Score: 10},
	}

	diags := Diagnose(res, obs, 1)
	require.Len(t, diags, 2)

	assert.Equal(t, "over", diags[0].Model)
	assert.Equal(t, 3, diags[0].Observations)
	assert.InDelta(t, 10, diags[0].Residual.Mean, 1e-9)
	assert.True(t, diags[0].Biased)

	assert.Equal(t, "exact", diags[1].Model)
	assert.InDelta(t, 0, diags[1].Residual.Mean, 1e-9)
	assert.False(t, diags[1].Biased)
}

func TestFormatDiagnostics(t *testing.T) {
	out := FormatDiagnostics(nil)
	assert.Contains(t, out, "No observations matched the fit.")

	res := &ability.Result{
		Abilities: map[string]models.AbilityReport{"m": {}},
		Curves:    map[string]models.Curve{"b": {Min: 50, Max: 50, Slope: 1}},
	}
	diags := Diagnose(res, []models.Observation{
		{Benchmark: "b", Model: "m", Score: 40},
	}, 1)
	out = FormatDiagnostics(diags)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "m         1    -10.00  [-10.00, -10.00]", lines[len(lines)-1])
}
