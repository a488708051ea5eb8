// Package regression fits least-squares models to paired (x, y) samples.
//
// Eight model families are supported. Linear regression uses the closed-form
// simple-regression formulas; every other family builds a design matrix and
// solves the normal equations XᵗX·β = Xᵗy.
//
// # Model Types
//
//   - linear:    y = a + bx
//   - quadratic: y = ax² + bx + c
//   - cubic:     y = ax³ + bx² + cx + d
//   - quartic:   y = ax⁴ + bx³ + cx² + dx + e
//   - exp10:     y = a * 10^(bx)
//   - log10:     y = a + b * log₁₀(x)
//   - expe:      y = a * e^(bx)
//   - loge:      y = a + b * ln(x)
//
// Coefficients are always returned in design-column order, so for the
// polynomial families β[0] is the constant term and β[i] multiplies xⁱ.
// Use [Model.CoefficientLabels] to map them onto the letters of the general
// equation.
//
// # Exponential Families
//
// The exponential families fit the straight line β₀ + β₁x to the raw y
// values and then read the coefficients as exponents: ŷ = 10^β₀ · 10^(β₁x)
// (or e^β₀ · e^(β₁x)). y is not log-transformed before fitting. The fitted
// values therefore rarely track the data and r² is often negative; callers
// that display the result should not present it as a true exponential fit.
//
// # Goodness of Fit
//
// r² = 1 − SSres/SStot and r = √r². A sample whose y values are all equal
// has SStot = 0 and fails with [ErrUndefinedCorrelation]. When a poor fit
// drives r² below zero, r² is reported as computed and r is clamped to 0.
//
// # Usage
//
//	res, err := regression.Fit(x, y, regression.Quadratic)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Formula, res.Coefficients, res.RSquared)
//	yNext := res.Estimate(3.5)
//
// All functions are pure; results share no state and are safe to use from
// concurrent requests.
package regression
