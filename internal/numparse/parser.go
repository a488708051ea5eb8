// Package numparse extracts signed decimal numbers from free-form text.
package numparse

import (
	"math"
	"regexp"
	"strconv"
)

var numberPattern = regexp.MustCompile(`-?\d+(\.\d+)?`)

// Parse returns every signed decimal number found in text, in order.
// Anything that is not part of a number acts as a delimiter. Parse never
// fails: text without numbers yields an empty slice, and callers check
// the length they need.
func Parse(text string) []float64 {
	tokens := numberPattern.FindAllString(text, -1)
	values := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		// Overlong digit runs overflow to ±Inf; drop them rather than
		// letting a non-finite value into a sample.
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		values = append(values, v)
	}
	return values
}
