package regression

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Result represents one fitted regression model.
//
// Fields:
//   - Model: Fitted model family
//   - Coefficients: Fitted parameters in design-column order
//   - Formula: General equation of the model (static per model)
//   - Fitted: ŷ for every input x
//   - Residuals: y − ŷ for every input pair
//   - R, RSquared: Correlation and coefficient of determination
//   - SSRes, SSTot: Residual and total sums of squares
//   - RMSE: Root mean square error of the residuals
type Result struct {
	Model        Model
	Coefficients []float64
	Formula      string
	Fitted       []float64
	Residuals    []float64
	R            float64
	RSquared     float64
	SSRes        float64
	SSTot        float64
	RMSE         float64
}

// Estimate evaluates the fitted model at x.
func (r *Result) Estimate(x float64) float64 {
	return predict(r.Model, r.Coefficients, x)
}

// String returns a one-line summary of the result.
func (r *Result) String() string {
	labels := r.Model.CoefficientLabels()
	parts := make([]string, len(r.Coefficients))
	for i, c := range r.Coefficients {
		parts[i] = fmt.Sprintf("%s=%.4f", labels[i], c)
	}

	return fmt.Sprintf("Result{Model: %s, Formula: %s, Coefficients: [%s], R²: %.4f}",
		r.Model, r.Formula, strings.Join(parts, " "), r.RSquared)
}

// MarshalJSON encodes the result with non-finite numbers as null.
//
// The exponential models can overflow ŷ for large x, which encoding/json
// would otherwise reject.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Model        Model      `json:"model"`
		Formula      string     `json:"formula"`
		Coefficients []*float64 `json:"coefficients"`
		Labels       []string   `json:"labels"`
		Fitted       []*float64 `json:"fitted"`
		Residuals    []*float64 `json:"residuals"`
		R            *float64   `json:"r"`
		RSquared     *float64   `json:"r_squared"`
		SSRes        *float64   `json:"ss_res"`
		SSTot        *float64   `json:"ss_tot"`
		RMSE         *float64   `json:"rmse"`
	}{
		Model:        r.Model,
		Formula:      r.Formula,
		Coefficients: finiteSlice(r.Coefficients),
		Labels:       r.Model.CoefficientLabels(),
		Fitted:       finiteSlice(r.Fitted),
		Residuals:    finiteSlice(r.Residuals),
		R:            finite(r.R),
		RSquared:     finite(r.RSquared),
		SSRes:        finite(r.SSRes),
		SSTot:        finite(r.SSTot),
		RMSE:         finite(r.RMSE),
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	return &v
}

func finiteSlice(vs []float64) []*float64 {
	out := make([]*float64, len(vs))
	for i, v := range vs {
		out[i] = finite(v)
	}

	return out
}
