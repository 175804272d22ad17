// Package transform fits coordinate transformations from ground control
// points and evaluates them. A fit maps image pixel coordinates to map
// coordinates; the inverse direction is closed-form for order-1 fits and
// iterative for everything else.
package transform

import "fmt"

// Algorithm selects the transformation family.
type Algorithm string

const (
	// AlgorithmAffine is a first-order polynomial: rotation, scale,
	// shear, translation.
	AlgorithmAffine Algorithm = "affine"
	// AlgorithmPolynomial fits a polynomial of Spec.Order (1-3).
	AlgorithmPolynomial Algorithm = "polynomial"
	// AlgorithmTPS fits a thin plate spline through all control points.
	AlgorithmTPS Algorithm = "tps"
)

// WeightingMode selects how per-point fit weights are derived.
type WeightingMode string

const (
	WeightingNone              WeightingMode = "none"
	WeightingInverseDistance   WeightingMode = "inverse_distance"
	WeightingInverseDistanceSq WeightingMode = "inverse_distance_squared"
)

// Spec describes a transformation to fit: algorithm family, polynomial
// order, weighting mode and the TPS regularization scalar (0 means exact
// interpolation).
type Spec struct {
	Algorithm      Algorithm     `json:"algorithm" yaml:"algorithm"`
	Order          int           `json:"order,omitempty" yaml:"order"`
	Weighting      WeightingMode `json:"weighting,omitempty" yaml:"weighting"`
	Regularization float64       `json:"regularization,omitempty" yaml:"regularization"`
}

// DefaultSpec returns an affine fit with no weighting.
func DefaultSpec() Spec {
	return Spec{Algorithm: AlgorithmAffine, Order: 1, Weighting: WeightingNone}
}

// polynomialOrder returns the effective polynomial order, treating the
// affine family as order 1. Returns 0 for TPS.
func (s Spec) polynomialOrder() int {
	switch s.Algorithm {
	case AlgorithmAffine:
		return 1
	case AlgorithmPolynomial:
		return s.Order
	default:
		return 0
	}
}

// MinPoints returns the minimum number of enabled points the algorithm
// requires: one per coefficient for polynomials (3, 6, 10 for orders
// 1-3), three for TPS.
func (s Spec) MinPoints() int {
	if s.Algorithm == AlgorithmTPS {
		return 3
	}
	n := s.polynomialOrder()
	return (n + 1) * (n + 2) / 2
}

// Validate checks that the spec names a known algorithm and a supported
// polynomial order.
func (s Spec) Validate() error {
	switch s.Algorithm {
	case AlgorithmAffine, AlgorithmTPS:
	case AlgorithmPolynomial:
		if s.Order < 1 || s.Order > 3 {
			return fmt.Errorf("polynomial order %d not supported (1-3)", s.Order)
		}
	default:
		return fmt.Errorf("unknown algorithm %q", s.Algorithm)
	}
	switch s.Weighting {
	case "", WeightingNone, WeightingInverseDistance, WeightingInverseDistanceSq:
	default:
		return fmt.Errorf("unknown weighting mode %q", s.Weighting)
	}
	if s.Regularization < 0 {
		return fmt.Errorf("regularization must be >= 0, got %g", s.Regularization)
	}
	return nil
}

// Key returns a string identifying the spec for cache comparison.
func (s Spec) Key() string {
	return fmt.Sprintf("%s/%d/%s/%g", s.Algorithm, s.polynomialOrder(), s.Weighting, s.Regularization)
}

// Options carries engine tuning knobs shared by all fits.
type Options struct {
	// ConditionThreshold bounds the condition number of the
	// normal-equations matrix; fits beyond it are rejected as degenerate.
	ConditionThreshold float64 `yaml:"condition_threshold"`
	// InverseMaxIterations caps Newton iterations for nonlinear inverses.
	InverseMaxIterations int `yaml:"inverse_max_iterations"`
	// InverseTolerance is the convergence threshold in source pixels.
	InverseTolerance float64 `yaml:"inverse_tolerance"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		ConditionThreshold:   1e8,
		InverseMaxIterations: 20,
		InverseTolerance:     1e-3,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ConditionThreshold <= 0 {
		o.ConditionThreshold = d.ConditionThreshold
	}
	if o.InverseMaxIterations <= 0 {
		o.InverseMaxIterations = d.InverseMaxIterations
	}
	if o.InverseTolerance <= 0 {
		o.InverseTolerance = d.InverseTolerance
	}
	return o
}
