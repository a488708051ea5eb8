package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrInsufficientData is returned when a sample has fewer than two values.
	ErrInsufficientData = errors.New("at least two values are required")
	// ErrUndefinedSkewness is returned when skewness has no finite value.
	ErrUndefinedSkewness = errors.New("skewness is undefined")
	// ErrUnknownKind is returned for an analysis kind other than parameter or statistic.
	ErrUnknownKind = errors.New("unknown analysis kind")
)

// tukeyK is the fence multiplier applied to the IQR.
const tukeyK = 1.5

// median expects xs sorted ascending.
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mid := len(xs) / 2
	if len(xs)%2 == 1 {
		return xs[mid]
	}
	return 0.5 * (xs[mid-1] + xs[mid])
}

// quartiles returns the medians of the lower and upper halves of sorted.
// For odd lengths the middle element belongs to neither half.
func quartiles(sorted []float64) (q1, q3 float64) {
	n := len(sorted)
	q1 = median(sorted[:n/2])
	q3 = median(sorted[(n+1)/2:])
	return q1, q3
}

// fences returns the Tukey fences for the given quartiles.
func fences(q1, q3 float64) (lo, hi float64) {
	iqr := q3 - q1
	return q1 - tukeyK*iqr, q3 + tukeyK*iqr
}

// outliers returns every element of sorted strictly outside [lo, hi],
// repeats included.
func outliers(sorted []float64, lo, hi float64) []float64 {
	out := make([]float64, 0)
	for _, v := range sorted {
		if v < lo || v > hi {
			out = append(out, v)
		}
	}
	return out
}

// mode returns the values with the highest frequency in ascending order.
// When every value occurs exactly once there is no mode and the result is
// empty.
func mode(sorted []float64) []float64 {
	freq := make(map[float64]int, len(sorted))
	maxFreq := 0
	for _, v := range sorted {
		freq[v]++
		if freq[v] > maxFreq {
			maxFreq = freq[v]
		}
	}

	out := make([]float64, 0)
	if maxFreq <= 1 {
		return out
	}
	for i, v := range sorted {
		if i > 0 && sorted[i-1] == v {
			continue
		}
		if freq[v] == maxFreq {
			out = append(out, v)
		}
	}
	return out
}

// Skewness computes the adjusted Fisher-Pearson coefficient
// n/((n-1)(n-2)) * Σ(x-mean)³ / stdDev³.
func Skewness(xs []float64, mean, stdDev float64) (float64, error) {
	n := len(xs)
	if n < 3 {
		return math.NaN(), fmt.Errorf("%w: need at least 3 values, got %d", ErrUndefinedSkewness, n)
	}
	// Constant samples are caught on the values; a variance computed from
	// a rounded mean need not cancel to exactly zero.
	if stdDev == 0 || math.IsNaN(stdDev) || floats.Max(xs) == floats.Min(xs) {
		return math.NaN(), fmt.Errorf("%w: zero spread", ErrUndefinedSkewness)
	}

	var sumCubed float64
	for _, v := range xs {
		d := v - mean
		sumCubed += d * d * d
	}

	fn := float64(n)
	return (fn / ((fn - 1) * (fn - 2))) * (sumCubed / (stdDev * stdDev * stdDev)), nil
}
