package transform

import (
	"math"

	"georef/internal/gcp"
)

// Fit computes weights for the snapshot and solves the transformation.
// version is the point-store version the snapshot was taken at; it is
// stamped onto the result for staleness checks.
func Fit(points []gcp.GroundControlPoint, spec Spec, version uint64, opts Options) (*Fitted, error) {
	weights := ComputeWeights(points, spec.Weighting)
	return FitWeighted(points, weights, spec, version, opts)
}

// FitWeighted solves the transformation from already-computed weights.
// Disabled points and points with weight 0 are excluded from the input
// set entirely. Returns InsufficientPointsError when fewer enabled
// points remain than the algorithm's minimum, or
// DegenerateConfigurationError when the system is singular or
// ill-conditioned.
func FitWeighted(points []gcp.GroundControlPoint, weights map[int64]float64, spec Spec, version uint64, opts Options) (*Fitted, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	var controls []control
	var w []float64
	for _, p := range points {
		if !p.Enabled {
			continue
		}
		pw, ok := weights[p.ID]
		if !ok || pw <= 0 {
			continue
		}
		controls = append(controls, control{image: p.Image, mapPt: p.Map})
		w = append(w, pw)
	}

	if min := spec.MinPoints(); len(controls) < min {
		return nil, &InsufficientPointsError{Algorithm: spec.Algorithm, Required: min, Got: len(controls)}
	}

	fitted := &Fitted{
		spec:     spec,
		opts:     opts,
		version:  version,
		controls: controls,
	}

	switch spec.Algorithm {
	case AlgorithmTPS:
		surface, err := fitTPS(controls, w, spec.Regularization, opts)
		if err != nil {
			return nil, err
		}
		fitted.tps = surface
	default:
		order := spec.polynomialOrder()
		xc, yc, err := fitPolynomial(controls, w, order, spec.Algorithm, opts)
		if err != nil {
			return nil, err
		}
		fitted.order = order
		fitted.xCoef, fitted.yCoef = xc, yc
		if order == 1 {
			if inv, ok := polyAffine(xc, yc).Inverse(); ok {
				fitted.affineInv = inv
				fitted.hasAffineInv = true
			}
		}
	}

	fitted.rms = fitRMS(fitted)
	return fitted, nil
}

func fitRMS(f *Fitted) float64 {
	if len(f.controls) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, c := range f.controls {
		sum += sq(f.Forward(c.image).Distance(c.mapPt))
	}
	return math.Sqrt(sum / float64(len(f.controls)))
}

func sq(v float64) float64 { return v * v }
