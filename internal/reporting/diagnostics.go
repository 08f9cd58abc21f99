package reporting

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spboyer/llmscale/internal/ability"
	"github.com/spboyer/llmscale/internal/models"
	"github.com/spboyer/llmscale/internal/statistics"
)

// DiagnosticConfidence is the level of the residual confidence intervals.
const DiagnosticConfidence = 0.95

// ModelDiagnostic summarizes how a model's observed scores deviate from its
// fitted curves. A biased model is one the curves consistently over or
// under-predict.
type ModelDiagnostic struct {
	Model        string                        `json:"model" yaml:"model"`
	Observations int                           `json:"observations" yaml:"observations"`
	Residual     statistics.ConfidenceInterval `json:"residual" yaml:"residual"`
	Biased       bool                          `json:"biased" yaml:"biased"`
}

// Diagnose computes per-model residuals (observed minus predicted score)
// with bootstrap intervals. Observations on models or benchmarks unknown to
// the fit are skipped. Rows are ordered by absolute mean residual, largest
// first.
func Diagnose(res *ability.Result, obs []models.Observation, seed int64) []ModelDiagnostic {
	residuals := make(map[string][]float64)
	for _, o := range obs {
		pred, ok := res.Predict(o.Model, o.Benchmark)
		if !ok {
			continue
		}
		residuals[o.Model] = append(residuals[o.Model], o.Score-pred)
	}

	out := make([]ModelDiagnostic, 0, len(residuals))
	for model, r := range residuals {
		ci := statistics.BootstrapCI(r, DiagnosticConfidence, seed)
		out = append(out, ModelDiagnostic{
			Model:        model,
			Observations: len(r),
			Residual:     ci,
			Biased:       ci.NumBootstraps > 0 && statistics.IsSignificant(ci),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := math.Abs(out[i].Residual.Mean), math.Abs(out[j].Residual.Mean)
		if ai != aj {
			return ai > aj
		}
		return out[i].Model < out[j].Model
	})
	return out
}

// FormatDiagnostics renders diagnostics as an aligned text block.
func FormatDiagnostics(diags []ModelDiagnostic) string {
	var b strings.Builder
	b.WriteString("\n=== Residual Diagnostics ===\n\n")
	if len(diags) == 0 {
		b.WriteString("No observations matched the fit.\n")
		return b.String()
	}

	width := len("Model")
	for _, d := range diags {
		width = max(width, len([]rune(d.Model)))
	}
	b.WriteString(fmt.Sprintf("%s  %4s  %8s  %s\n", padRight("Model", width), "N", "Mean", "95% CI"))
	for _, d := range diags {
		flag := ""
		if d.Biased {
			flag = "  ⚠ biased"
		}
		b.WriteString(fmt.Sprintf("%s  %4d  %+8.2f  [%+.2f, %+.2f]%s\n",
			padRight(d.Model, width), d.Observations, d.Residual.Mean, d.Residual.Lower, d.Residual.Upper, flag))
	}
	return b.String()
}
