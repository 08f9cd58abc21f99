package reporting

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spboyer/llmscale/internal/ability"
)

// InterpretAbility returns a plain-language label for a standardized ability.
func InterpretAbility(a float64) string {
	switch {
	case a >= 1.5:
		return "Frontier (>=1.5 sd)"
	case a >= 0.5:
		return "Strong (0.5-1.5 sd)"
	case a > -0.5:
		return "Typical (within 0.5 sd)"
	case a > -1.5:
		return "Behind (-1.5 to -0.5 sd)"
	default:
		return "Far behind (<-1.5 sd)"
	}
}

// InterpretSigma explains the residual scale in score points.
func InterpretSigma(sigma float64) string {
	switch {
	case sigma < 3:
		return fmt.Sprintf("Tight fit (%.2f points)", sigma)
	case sigma < 8:
		return fmt.Sprintf("Moderate fit (%.2f points)", sigma)
	default:
		return fmt.Sprintf("Loose fit (%.2f points), benchmarks disagree on model ordering", sigma)
	}
}

// InterpretConvergence explains the optimizer outcome.
func InterpretConvergence(res *ability.Result) string {
	if res.Converged {
		return fmt.Sprintf("Converged (%s) after %d iterations.", res.Status, res.Iterations)
	}
	return fmt.Sprintf("Did not converge (%s) after %d iterations. Results are the best point found; consider more iterations or restarts.", res.Status, res.Iterations)
}

// FormatFitSummary produces a plain-language report of an ability fit.
func FormatFitSummary(res *ability.Result) string {
	var b strings.Builder

	b.WriteString("=== Ability Fit ===\n\n")
	b.WriteString(fmt.Sprintf("Models:        %d base models, %d variants\n", len(res.Abilities), len(res.VariantBase)))
	b.WriteString(fmt.Sprintf("Benchmarks:    %d\n", len(res.Curves)))
	b.WriteString(fmt.Sprintf("Residuals:     %s\n", InterpretSigma(res.Sigma)))
	b.WriteString(fmt.Sprintf("Optimizer:     %s\n", InterpretConvergence(res)))
	if res.Excluded > 0 {
		b.WriteString(fmt.Sprintf("Excluded:      %d observations on unconfigured models\n", res.Excluded))
	}

	if len(res.Abilities) > 0 {
		b.WriteString("\nPer-Model Interpretation:\n")
		bases := make([]string, 0, len(res.Abilities))
		for base := range res.Abilities {
			bases = append(bases, base)
		}
		sort.Slice(bases, func(i, j int) bool {
			ai, aj := res.Abilities[bases[i]].Ability, res.Abilities[bases[j]].Ability
			if ai != aj {
				return ai > aj
			}
			return bases[i] < bases[j]
		})
		for _, base := range bases {
			rep := res.Abilities[base]
			b.WriteString(fmt.Sprintf("  %s: %+.3f %s\n", base, rep.Ability, InterpretAbility(rep.Ability)))
		}
	}

	return b.String()
}
