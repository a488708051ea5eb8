package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Fit fits model to the paired sample (x, y).
//
// Linear uses the closed-form simple-regression formulas; the other models
// solve the normal equations of their design matrix.
//
// Parameters:
//   - x: Independent values
//   - y: Dependent values (same length as x)
//   - model: Model family to fit
//
// Returns:
//   - Result: Coefficients, fitted values, and goodness of fit
//   - error: ErrDimensionMismatch, ErrInsufficientData, ErrUnknownModel,
//     ErrDomain, ErrDegenerateFit, ErrSingularMatrix, or
//     ErrUndefinedCorrelation
//
// Example:
//
//	res, err := regression.Fit([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8}, regression.Linear)
//	// res.Coefficients ≈ [0, 2], res.RSquared ≈ 1
func Fit(x, y []float64, model Model) (Result, error) {
	if len(x) != len(y) {
		return Result{}, fmt.Errorf("%w: %d x vs %d y", ErrDimensionMismatch, len(x), len(y))
	}
	if len(x) < 2 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInsufficientData, len(x))
	}
	if !model.Valid() {
		return Result{}, fmt.Errorf("%w: %d", ErrUnknownModel, int(model))
	}

	var coeffs []float64
	var err error
	if model == Linear {
		coeffs, err = fitLinear(x, y)
	} else {
		coeffs, err = fitDesign(x, y, model)
	}
	if err != nil {
		return Result{}, fmt.Errorf("%s regression: %w", model, err)
	}

	fitted := make([]float64, len(x))
	residuals := make([]float64, len(x))
	for i, xi := range x {
		fitted[i] = predict(model, coeffs, xi)
		residuals[i] = y[i] - fitted[i]
	}

	g, err := goodnessOfFit(y, fitted)
	if err != nil {
		return Result{}, fmt.Errorf("%s regression: %w", model, err)
	}

	return Result{
		Model:        model,
		Coefficients: coeffs,
		Formula:      model.Formula(),
		Fitted:       fitted,
		Residuals:    residuals,
		R:            g.r,
		RSquared:     g.r2,
		SSRes:        g.ssRes,
		SSTot:        g.ssTot,
		RMSE:         g.rmse,
	}, nil
}

// fitLinear fits y = a + bx with b = Sxy/Sxx and a = ȳ − b·x̄.
//
// Returns ErrDegenerateFit when every x is equal. Spread is decided on the
// values themselves; Sxx through a rounded mean can be a tiny non-zero.
func fitLinear(x, y []float64) ([]float64, error) {
	if floats.Max(x) == floats.Min(x) {
		return nil, fmt.Errorf("%w: every x equals %g", ErrDegenerateFit, x[0])
	}

	meanX := stat.Mean(x, nil)
	meanY := stat.Mean(y, nil)

	var sxy, sxx float64
	for i := range x {
		dx := x[i] - meanX
		sxy += dx * (y[i] - meanY)
		sxx += dx * dx
	}

	b := sxy / sxx
	a := meanY - b*meanX

	return []float64{a, b}, nil
}

// fitDesign fits the non-linear families through their design matrix.
func fitDesign(x, y []float64, model Model) ([]float64, error) {
	X, err := designMatrix(model, x)
	if err != nil {
		return nil, err
	}

	return solveNormalEquations(X, y)
}

// predict evaluates the fitted value of model at x.
//
// Parameters:
//   - model: Model family the coefficients belong to
//   - coeffs: Coefficient vector in design-column order
//   - x: Point to evaluate
//
// Returns:
//   - float64: ŷ; NaN for a logarithmic model at x <= 0
func predict(model Model, coeffs []float64, x float64) float64 {
	switch model {
	case Linear:
		return coeffs[0] + coeffs[1]*x
	case Exp10:
		return math.Pow(10, coeffs[0]) * math.Pow(10, coeffs[1]*x)
	case ExpE:
		return math.Exp(coeffs[0]) * math.Exp(coeffs[1]*x)
	case Log10:
		if x <= 0 {
			return math.NaN()
		}
		return coeffs[0] + coeffs[1]*math.Log10(x)
	case LogE:
		if x <= 0 {
			return math.NaN()
		}
		return coeffs[0] + coeffs[1]*math.Log(x)
	default:
		// Horner evaluation of Σ coeffs[i]·xⁱ.
		yhat := 0.0
		for i := len(coeffs) - 1; i >= 0; i-- {
			yhat = yhat*x + coeffs[i]
		}
		return yhat
	}
}
