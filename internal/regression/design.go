package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// designRow returns the design-matrix row for one observation.
//
// Parameters:
//   - m: Model whose columns are built (any model except Linear)
//   - x: Observation's independent value
//
// Returns:
//   - []float64: [1, x, x², ...] for polynomials, [1, x] for exponentials,
//     [1, log(x)] for logarithmic models
//   - error: ErrDomain when a logarithmic model receives x <= 0
func designRow(m Model, x float64) ([]float64, error) {
	switch m {
	case Quadratic, Cubic, Quartic:
		row := make([]float64, m.degree()+1)
		p := 1.0
		for i := range row {
			row[i] = p
			p *= x
		}
		return row, nil
	case Exp10, ExpE:
		return []float64{1, x}, nil
	case Log10:
		if x <= 0 {
			return nil, fmt.Errorf("%w: log10(%g)", ErrDomain, x)
		}
		return []float64{1, math.Log10(x)}, nil
	case LogE:
		if x <= 0 {
			return nil, fmt.Errorf("%w: ln(%g)", ErrDomain, x)
		}
		return []float64{1, math.Log(x)}, nil
	default:
		return nil, fmt.Errorf("%w: %d has no design matrix", ErrUnknownModel, int(m))
	}
}

// designMatrix builds the n×p design matrix for x.
func designMatrix(m Model, x []float64) (*mat.Dense, error) {
	p := m.NumCoefficients()
	data := make([]float64, 0, len(x)*p)
	for _, xi := range x {
		row, err := designRow(m, xi)
		if err != nil {
			return nil, err
		}
		data = append(data, row...)
	}

	return mat.NewDense(len(x), p, data), nil
}

// solveNormalEquations returns β = (XᵗX)⁻¹ Xᵗy.
//
// Parameters:
//   - X: n×p design matrix
//   - y: Observed values (length n)
//
// Returns:
//   - []float64: Coefficient vector of length p
//   - error: ErrSingularMatrix when XᵗX is singular or too ill-conditioned
//     to invert reliably
func solveNormalEquations(X *mat.Dense, y []float64) ([]float64, error) {
	n, p := X.Dims()

	var xtx mat.Dense
	xtx.Mul(X.T(), X)

	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularMatrix, err)
	}

	var xty mat.VecDense
	xty.MulVec(X.T(), mat.NewVecDense(n, y))

	var beta mat.VecDense
	beta.MulVec(&inv, &xty)

	coeffs := make([]float64, p)
	for i := range coeffs {
		coeffs[i] = beta.AtVec(i)
	}

	return coeffs, nil
}
