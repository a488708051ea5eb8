package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// goodness bundles the fit-quality figures of one model.
type goodness struct {
	r, r2        float64
	ssRes, ssTot float64
	rmse         float64
}

// goodnessOfFit compares observed against predicted values.
//
// Formula: r² = 1 − SSres/SStot, r = √r²
//   - SSres: Σ(y − ŷ)²
//   - SStot: Σ(y − ȳ)²
//
// r is clamped to 0 when r² is negative.
//
// Returns ErrUndefinedCorrelation when every observed value is equal
// (SStot = 0). The check compares the values, not SStot, which rounding
// can leave slightly above zero.
func goodnessOfFit(observed, predicted []float64) (goodness, error) {
	if floats.Max(observed) == floats.Min(observed) {
		return goodness{}, fmt.Errorf("%w: all %d y values equal %g", ErrUndefinedCorrelation, len(observed), observed[0])
	}

	mean := stat.Mean(observed, nil)

	var ssRes, ssTot float64
	for i, y := range observed {
		res := y - predicted[i]
		ssRes += res * res
		dev := y - mean
		ssTot += dev * dev
	}

	r2 := 1 - ssRes/ssTot
	r := 0.0
	if r2 > 0 {
		r = math.Sqrt(r2)
	}

	return goodness{
		r:     r,
		r2:    r2,
		ssRes: ssRes,
		ssTot: ssTot,
		rmse:  math.Sqrt(ssRes / float64(len(observed))),
	}, nil
}
