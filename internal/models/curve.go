package models

import "math"

// Curve is a 4-parameter logistic response curve mapping ability to an
// expected benchmark score. Max > Min and Slope > 0 for every fitted curve.
type Curve struct {
	Min      float64 `yaml:"min" json:"min"`
	Max      float64 `yaml:"max" json:"max"`
	Midpoint float64 `yaml:"midpoint" json:"midpoint"`
	Slope    float64 `yaml:"slope" json:"slope"`
}

// Eval returns the expected score at the given ability.
func (c Curve) Eval(ability float64) float64 {
	return c.Min + (c.Max-c.Min)/(1+math.Exp(-(ability-c.Midpoint)/c.Slope))
}

// AbilityReport is the fitted ability of one base model. Offsets holds one
// entry per configured variant; variants that had no observations are 0.
type AbilityReport struct {
	Ability float64            `yaml:"ability" json:"ability"`
	Offsets map[string]float64 `yaml:"offsets" json:"offsets"`
}

// Residuals is the global residual scale of the ability model.
type Residuals struct {
	Sigma float64 `yaml:"sigma" json:"sigma"`
}
