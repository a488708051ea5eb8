// Package core exposes the two computations behind the analyze and
// regression commands: raw option text in, structured numbers out.
package core

import (
	"github.com/ZanzyTHEbar/calcbot/internal/analysis"
	"github.com/ZanzyTHEbar/calcbot/internal/numparse"
	"github.com/ZanzyTHEbar/calcbot/internal/regression"
)

// RegressionReport is a fitted model together with the parsed pairs it was
// fitted to.
type RegressionReport struct {
	X   []float64         `json:"x"`
	Y   []float64         `json:"y"`
	Fit regression.Result `json:"fit"`
}

// AnalyzeStatistics parses every number in rawData and computes its
// descriptive statistics. kind is "parameter" (population) or "statistic"
// (sample).
func AnalyzeStatistics(rawData, kind string) (analysis.Result, error) {
	k, err := analysis.ParseKind(kind)
	if err != nil {
		return analysis.Result{}, err
	}
	return analysis.Analyze(numparse.Parse(rawData), k)
}

// FitRegression parses the x and y option texts and fits the named model
// (linear, quadratic, cubic, quartic, exp10, log10, expe, loge).
func FitRegression(rawX, rawY, model string) (RegressionReport, error) {
	m, err := regression.ParseModel(model)
	if err != nil {
		return RegressionReport{}, err
	}

	x := numparse.Parse(rawX)
	y := numparse.Parse(rawY)
	fit, err := regression.Fit(x, y, m)
	if err != nil {
		return RegressionReport{}, err
	}

	return RegressionReport{X: x, Y: y, Fit: fit}, nil
}
