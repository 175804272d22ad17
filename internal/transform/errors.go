package transform

import (
	"fmt"

	"georef/pkg/geometry"
)

// InsufficientPointsError reports too few enabled points for the chosen
// algorithm.
type InsufficientPointsError struct {
	Algorithm Algorithm
	Required  int
	Got       int
}

// Shortfall returns how many more enabled points the fit needs.
func (e *InsufficientPointsError) Shortfall() int { return e.Required - e.Got }

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("%s fit needs %d enabled points, got %d (short %d)",
		e.Algorithm, e.Required, e.Got, e.Shortfall())
}

// DegenerateConfigurationError reports a singular or ill-conditioned fit,
// typically caused by collinear or near-duplicate points.
type DegenerateConfigurationError struct {
	Algorithm Algorithm
	Condition float64 // condition number of the normal equations, 0 if unknown
	Detail    string
}

func (e *DegenerateConfigurationError) Error() string {
	if e.Condition > 0 {
		return fmt.Sprintf("%s fit is degenerate: normal-equations condition %.3g exceeds threshold (%s)",
			e.Algorithm, e.Condition, e.Detail)
	}
	return fmt.Sprintf("%s fit is degenerate: %s", e.Algorithm, e.Detail)
}

// InverseConvergenceError reports that the iterative inverse failed to
// converge for one sample point. Non-fatal: the caller substitutes a
// fallback or marks the pixel no-data.
type InverseConvergenceError struct {
	Point      geometry.Point2D // the map coordinate that failed
	Iterations int
}

func (e *InverseConvergenceError) Error() string {
	return fmt.Sprintf("inverse did not converge at (%.6g, %.6g) after %d iterations",
		e.Point.X, e.Point.Y, e.Iterations)
}
