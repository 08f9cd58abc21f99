package reporting

import (
	"log/slog"
	"path/filepath"

	"github.com/spboyer/llmscale/internal/ability"
	"github.com/spboyer/llmscale/internal/costfactor"
	"github.com/spboyer/llmscale/internal/dataset"
	"github.com/spboyer/llmscale/internal/models"
)

// Output files written under the processed root.
const (
	AbilitiesFile   = "model_abilities.yaml"
	ResidualsFile   = "residuals.yaml"
	CostFactorsFile = "cost_factors.yaml"
)

// WriteFit writes base abilities and offsets, the residual sigma, and the
// fitted sigmoid into every processed benchmark file that has a curve.
// Benchmarks with no processed file (e.g. a CSV fit) only get their curve
// in the result.
func WriteFit(root string, res *ability.Result) error {
	if err := dataset.WriteYAML(filepath.Join(root, AbilitiesFile), res.Abilities); err != nil {
		return fileErr(AbilitiesFile, err)
	}
	if err := dataset.WriteYAML(filepath.Join(root, ResidualsFile), models.Residuals{Sigma: res.Sigma}); err != nil {
		return fileErr(ResidualsFile, err)
	}

	if !processedExists(root) {
		return nil
	}
	processed, err := dataset.LoadProcessed(root)
	if err != nil {
		return err
	}
	for slug, curve := range res.Curves {
		pf, ok := processed[slug]
		if !ok {
			slog.Debug("No processed file for fitted benchmark", "benchmark", slug)
			continue
		}
		c := curve
		pf.Sigmoid = &c
		if err := dataset.WriteYAML(dataset.ProcessedPath(root, slug), pf); err != nil {
			return err
		}
	}
	return nil
}

// LoadAbilities reads the abilities written by WriteFit.
func LoadAbilities(root string) (map[string]models.AbilityReport, error) {
	var out map[string]models.AbilityReport
	if err := dataset.ReadYAML(filepath.Join(root, AbilitiesFile), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadResiduals reads the residual sigma written by WriteFit.
func LoadResiduals(root string) (models.Residuals, error) {
	var out models.Residuals
	err := dataset.ReadYAML(filepath.Join(root, ResidualsFile), &out)
	return out, err
}

// WriteCostFactors writes one factor per benchmark; undefined factors are
// written as null.
func WriteCostFactors(root string, res *costfactor.Result) error {
	if err := dataset.WriteYAML(filepath.Join(root, CostFactorsFile), res.Factors); err != nil {
		return fileErr(CostFactorsFile, err)
	}
	return nil
}

// LoadCostFactors reads the factors written by WriteCostFactors.
func LoadCostFactors(root string) (map[string]*float64, error) {
	var out map[string]*float64
	if err := dataset.ReadYAML(filepath.Join(root, CostFactorsFile), &out); err != nil {
		return nil, err
	}
	return out, nil
}
