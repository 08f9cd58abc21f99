package ability

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"gonum.org/v1/gonum/optimize"
)

// Method names an unconstrained optimizer.
type Method string

const (
	MethodBFGS            Method = "bfgs"
	MethodLBFGS           Method = "lbfgs"
	MethodNelderMead      Method = "nelder-mead"
	MethodGradientDescent Method = "gradient-descent"
)

// needsGradient reports whether the method consumes a gradient. Gradient
// methods get the analytic gradient of the objective.
func (m Method) needsGradient() bool {
	return m != MethodNelderMead
}

// NewMethod creates a fresh optimizer from a method name and its free-form
// parameters, as found in the project config. Optimizers are stateful, so
// every run needs its own instance.
func NewMethod(method Method, params map[string]any) (optimize.Method, error) {
	switch method {
	case MethodBFGS, "":
		var v struct {
			GradStopThreshold float64 `mapstructure:"grad_stop_threshold"`
		}
		if err := mapstructure.Decode(params, &v); err != nil {
			return nil, fmt.Errorf("decoding %s params: %w", MethodBFGS, err)
		}
		return &optimize.BFGS{GradStopThreshold: v.GradStopThreshold}, nil
	case MethodLBFGS:
		var v struct {
			Store             int     `mapstructure:"store"`
			GradStopThreshold float64 `mapstructure:"grad_stop_threshold"`
		}
		if err := mapstructure.Decode(params, &v); err != nil {
			return nil, fmt.Errorf("decoding %s params: %w", method, err)
		}
		return &optimize.LBFGS{Store: v.Store, GradStopThreshold: v.GradStopThreshold}, nil
	case MethodNelderMead:
		var v struct {
			Reflection  float64 `mapstructure:"reflection"`
			Expansion   float64 `mapstructure:"expansion"`
			Contraction float64 `mapstructure:"contraction"`
			Shrink      float64 `mapstructure:"shrink"`
			SimplexSize float64 `mapstructure:"simplex_size"`
		}
		if err := mapstructure.Decode(params, &v); err != nil {
			return nil, fmt.Errorf("decoding %s params: %w", method, err)
		}
		return &optimize.NelderMead{
			Reflection:  v.Reflection,
			Expansion:   v.Expansion,
			Contraction: v.Contraction,
			Shrink:      v.Shrink,
			SimplexSize: v.SimplexSize,
		}, nil
	case MethodGradientDescent:
		var v struct {
			GradStopThreshold float64 `mapstructure:"grad_stop_threshold"`
		}
		if err := mapstructure.Decode(params, &v); err != nil {
			return nil, fmt.Errorf("decoding %s params: %w", method, err)
		}
		return &optimize.GradientDescent{GradStopThreshold: v.GradStopThreshold}, nil
	default:
		return nil, fmt.Errorf("'%s' is not a valid optimizer method", method)
	}
}
