package regression

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData is returned when fewer than two (x, y) pairs are supplied.
	ErrInsufficientData = errors.New("at least two (x, y) pairs are required")
	// ErrDimensionMismatch is returned when x and y differ in length.
	// It wraps ErrInsufficientData so callers can treat both as bad input.
	ErrDimensionMismatch = fmt.Errorf("%w: x and y differ in length", ErrInsufficientData)
	// ErrDomain is returned when a logarithmic model receives x <= 0.
	ErrDomain = errors.New("logarithm requires positive x values")
	// ErrSingularMatrix is returned when XᵗX cannot be inverted.
	ErrSingularMatrix = errors.New("normal equations are singular")
	// ErrDegenerateFit is returned by the linear model when every x is equal.
	ErrDegenerateFit = errors.New("x values have zero variance")
	// ErrUndefinedCorrelation is returned when every y is equal (SStot = 0).
	ErrUndefinedCorrelation = errors.New("correlation is undefined for constant y")
	// ErrUnknownModel is returned for an unsupported model.
	ErrUnknownModel = errors.New("unknown regression model")
)
