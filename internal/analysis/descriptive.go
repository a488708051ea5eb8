package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Analyze computes the descriptive statistics of sample. The sample is not
// modified. Skewness is left as NaN when it is undefined; every other
// failure is returned as an error.
func Analyze(sample []float64, kind Kind) (Result, error) {
	if _, ok := kindNames[kind]; !ok {
		return Result{}, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	n := len(sample)
	if n < 2 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInsufficientData, n)
	}

	sorted := append([]float64(nil), sample...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := stat.Mean(sorted, nil)

	var variance float64
	switch kind {
	case Population:
		variance = stat.PopVariance(sorted, nil)
	case Sample:
		variance = stat.Variance(sorted, nil)
	}
	stdDev := math.Sqrt(variance)

	q1, q3 := quartiles(sorted)
	lo, hi := fences(q1, q3)

	// Skewness reports NaN alongside its error.
	skew, _ := Skewness(sorted, mean, stdDev)

	return Result{
		Kind:       kind,
		Sorted:     sorted,
		N:          n,
		Sum:        sum,
		Mean:       mean,
		Median:     median(sorted),
		Mode:       mode(sorted),
		Min:        sorted[0],
		Max:        sorted[n-1],
		Range:      sorted[n-1] - sorted[0],
		Q1:         q1,
		Q3:         q3,
		IQR:        q3 - q1,
		LowerFence: lo,
		UpperFence: hi,
		Outliers:   outliers(sorted, lo, hi),
		Variance:   variance,
		StdDev:     stdDev,
		Skewness:   skew,
	}, nil
}
