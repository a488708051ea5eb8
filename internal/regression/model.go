package regression

import (
	"fmt"
	"strings"
)

// Model identifies a regression model family.
type Model int

const (
	// Linear represents y = a + bx, fitted in closed form.
	Linear Model = iota
	// Quadratic represents y = ax² + bx + c.
	Quadratic
	// Cubic represents y = ax³ + bx² + cx + d.
	Cubic
	// Quartic represents y = ax⁴ + bx³ + cx² + dx + e.
	Quartic
	// Exp10 represents y = a * 10^(bx).
	Exp10
	// Log10 represents y = a + b * log₁₀(x).
	Log10
	// ExpE represents y = a * e^(bx).
	ExpE
	// LogE represents y = a + b * ln(x).
	LogE
)

// modelNames maps Model to the command choice strings.
var modelNames = map[Model]string{
	Linear:    "linear",
	Quadratic: "quadratic",
	Cubic:     "cubic",
	Quartic:   "quartic",
	Exp10:     "exp10",
	Log10:     "log10",
	ExpE:      "expe",
	LogE:      "loge",
}

// modelFromString maps command choice strings to Model.
var modelFromString = map[string]Model{
	"linear":    Linear,
	"quadratic": Quadratic,
	"cubic":     Cubic,
	"quartic":   Quartic,
	"exp10":     Exp10,
	"log10":     Log10,
	"expe":      ExpE,
	"loge":      LogE,
}

// modelFormulas holds the general equation displayed for each model.
var modelFormulas = map[Model]string{
	Linear:    "y = a + bx",
	Quadratic: "y = ax² + bx + c",
	Cubic:     "y = ax³ + bx² + cx + d",
	Quartic:   "y = ax⁴ + bx³ + cx² + dx + e",
	Exp10:     "y = a * 10^(bx)",
	Log10:     "y = a + b * log₁₀(x)",
	ExpE:      "y = a * e^(bx)",
	LogE:      "y = a + b * ln(x)",
}

// modelTitles holds the display names used in command choices and titles.
var modelTitles = map[Model]string{
	Linear:    "Linear",
	Quadratic: "Quadratic",
	Cubic:     "Cubic",
	Quartic:   "Quartic",
	Exp10:     "Exponential (base 10)",
	Log10:     "Logarithmic (base 10)",
	ExpE:      "Exponential (base e)",
	LogE:      "Logarithmic (base e)",
}

// Models lists every model in declaration order.
func Models() []Model {
	return []Model{Linear, Quadratic, Cubic, Quartic, Exp10, Log10, ExpE, LogE}
}

// String returns the command choice string of the model.
func (m Model) String() string {
	if name, ok := modelNames[m]; ok {
		return name
	}

	return "unknown"
}

// Title returns the human-readable model name.
func (m Model) Title() string {
	if title, ok := modelTitles[m]; ok {
		return title
	}

	return "Unknown"
}

// ChoiceName returns the label shown for the model in command choices,
// e.g. "exponential (base 10)".
func (m Model) ChoiceName() string {
	return strings.ToLower(m.Title())
}

// Formula returns the general equation of the model.
func (m Model) Formula() string {
	return modelFormulas[m]
}

// Valid reports whether m is one of the supported models.
func (m Model) Valid() bool {
	_, ok := modelNames[m]
	return ok
}

// MarshalText encodes the model as its command choice string.
func (m Model) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownModel, int(m))
	}

	return []byte(m.String()), nil
}

// NumCoefficients returns the length of the coefficient vector for the model.
func (m Model) NumCoefficients() int {
	switch m {
	case Quadratic:
		return 3
	case Cubic:
		return 4
	case Quartic:
		return 5
	default:
		return 2
	}
}

// degree returns the polynomial degree, or 0 for non-polynomial models.
func (m Model) degree() int {
	switch m {
	case Quadratic:
		return 2
	case Cubic:
		return 3
	case Quartic:
		return 4
	default:
		return 0
	}
}

// CoefficientLabels returns, for each coefficient index, the letter it takes
// in the model's general equation.
//
// For linear, exponential, and logarithmic models β[0] is a and β[1] is b.
// For polynomial models the letters run from the highest power down, so
// β[0] (the constant term) carries the last letter.
func (m Model) CoefficientLabels() []string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	n := m.NumCoefficients()
	labels := make([]string, n)
	for i := range n {
		if m.degree() > 0 {
			labels[i] = string(letters[n-1-i])
		} else {
			labels[i] = string(letters[i])
		}
	}

	return labels
}

// ParseModel returns the Model for a command choice string.
//
// Parameters:
//   - name: One of linear, quadratic, cubic, quartic, exp10, log10, expe, loge
//     (case-insensitive)
//
// Returns:
//   - Model: The matching model
//   - error: ErrUnknownModel for any other name
func ParseModel(name string) (Model, error) {
	if m, ok := modelFromString[strings.ToLower(strings.TrimSpace(name))]; ok {
		return m, nil
	}

	return Model(-1), fmt.Errorf("%w: %q", ErrUnknownModel, name)
}
