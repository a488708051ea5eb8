package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/calcbot/internal/analysis"
	"github.com/ZanzyTHEbar/calcbot/internal/core"
)

const (
	analysisColor   = 0x008080
	regressionColor = 0x020080
)

func handleAnalyze(_ context.Context, opts Options) (Response, error) {
	res, err := core.AnalyzeStatistics(opts.String("data"), opts.String("type"))
	if err != nil {
		return Response{}, err
	}

	return Response{Embeds: []Embed{AnalysisEmbed(res)}}, nil
}

// AnalysisEmbed renders descriptive statistics as the analyze reply card.
func AnalysisEmbed(res analysis.Result) Embed {
	var spread string
	if res.Kind == analysis.Population {
		spread = fmt.Sprintf("μ = %s, σ = %s, σ² = %s", fixed3(res.Mean), fixed3(res.StdDev), fixed3(res.Variance))
	} else {
		spread = fmt.Sprintf("x̄ = %s, s = %s, s² = %s", fixed3(res.Mean), fixed3(res.StdDev), fixed3(res.Variance))
	}

	return Embed{
		Title: "Statistical Analysis for a " + capitalize(res.Kind.String()),
		Color: analysisColor,
		Fields: []EmbedField{
			{Name: "Sorted Data", Value: "[" + joinShortest(res.Sorted) + "]"},
			{
				Name: "General Data",
				Value: fmt.Sprintf("∑x = %s, mode = %s, γ = %s",
					fixed3(res.Sum), listOrNone(res.Mode), fixed3(res.Skewness)),
			},
			{Name: "Mean", Value: spread},
			{
				Name: "Median",
				Value: fmt.Sprintf("5n = [%s, %s, %s, %s, %s], IQR = %s, Outliers = [%s]",
					shortest(res.Min), fixed3(res.Q1), fixed3(res.Median), fixed3(res.Q3), shortest(res.Max),
					fixed3(res.IQR), listOrNone(res.Outliers)),
			},
		},
	}
}

func handleRegression(_ context.Context, opts Options) (Response, error) {
	report, err := core.FitRegression(opts.String("x_values"), opts.String("y_values"), opts.String("type"))
	if err != nil {
		return Response{}, err
	}

	return Response{Embeds: []Embed{RegressionEmbed(report)}}, nil
}

// RegressionEmbed renders a fitted model as the regression reply card.
func RegressionEmbed(report core.RegressionReport) Embed {
	fit := report.Fit

	pairs := make([]string, len(report.X))
	for i := range report.X {
		pairs[i] = fmt.Sprintf("(%s, %s)", shortest(report.X[i]), shortest(report.Y[i]))
	}

	// List coefficients alphabetically, as they appear in the equation.
	labels := fit.Model.CoefficientLabels()
	idx := make([]int, len(fit.Coefficients))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return labels[idx[a]] < labels[idx[b]] })

	coeffs := make([]string, len(idx))
	for k, i := range idx {
		coeffs[k] = fmt.Sprintf("%s = %s", labels[i], fixed3(fit.Coefficients[i]))
	}

	return Embed{
		Title: fit.Model.Title() + " Regression",
		Color: regressionColor,
		Fields: []EmbedField{
			{Name: "Data", Value: "[" + strings.Join(pairs, ", ") + "]"},
			{Name: "General Equation", Value: fit.Formula},
			{Name: "Coefficients", Value: strings.Join(coeffs, ", ")},
			{Name: "Correlation", Value: fmt.Sprintf("r = %s, r² = %s", fixed3(fit.R), fixed3(fit.RSquared))},
		},
	}
}
