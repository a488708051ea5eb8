package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Kind selects the variance divisor.
type Kind int

const (
	// Population treats the data as a whole population (divide by n).
	Population Kind = iota
	// Sample treats the data as a sample of a larger population (divide by n-1).
	Sample
)

var kindNames = map[Kind]string{
	Population: "parameter",
	Sample:     "statistic",
}

var kindFromString = map[string]Kind{
	"parameter": Population,
	"statistic": Sample,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the kind as its command choice name.
func (k Kind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(name), nil
}

// ParseKind maps a command choice ("parameter" or "statistic") to a Kind.
func ParseKind(name string) (Kind, error) {
	if k, ok := kindFromString[strings.ToLower(strings.TrimSpace(name))]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Result holds the descriptive statistics of one sample.
type Result struct {
	Kind       Kind      `json:"kind"`
	Sorted     []float64 `json:"sorted"`
	N          int       `json:"n"`
	Sum        float64   `json:"sum"`
	Mean       float64   `json:"mean"`
	Median     float64   `json:"median"`
	Mode       []float64 `json:"mode"`
	Min        float64   `json:"min"`
	Max        float64   `json:"max"`
	Range      float64   `json:"range"`
	Q1         float64   `json:"q1"`
	Q3         float64   `json:"q3"`
	IQR        float64   `json:"iqr"`
	LowerFence float64   `json:"lower_fence"`
	UpperFence float64   `json:"upper_fence"`
	Outliers   []float64 `json:"outliers"`
	Variance   float64   `json:"variance"`
	StdDev     float64   `json:"std_dev"`
	// Skewness is NaN when it is undefined (fewer than three values or
	// zero spread).
	Skewness float64 `json:"skewness"`
}

// HasSkewness reports whether Skewness carries a defined value.
func (r Result) HasSkewness() bool {
	return !math.IsNaN(r.Skewness)
}

// MarshalJSON renders an undefined skewness as null.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	out := struct {
		plain
		Skewness *float64 `json:"skewness"`
	}{plain: plain(r)}
	if r.HasSkewness() {
		s := r.Skewness
		out.Skewness = &s
	}
	return json.Marshal(out)
}
