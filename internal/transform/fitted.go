package transform

import (
	"math"

	"georef/pkg/geometry"
)

// control is one enabled point's correspondence used by a fit.
type control struct {
	image geometry.Point2D
	mapPt geometry.Point2D
}

// Fitted is an immutable transformation solved from a point-set snapshot.
// It records the store version it was fit from; callers compare that
// stamp against the current store version to detect staleness and must
// re-fit rather than evaluate a stale fit against new points.
type Fitted struct {
	spec    Spec
	opts    Options
	version uint64

	order        int // polynomial order, 0 for TPS
	xCoef, yCoef []float64
	affineInv    geometry.AffineTransform
	hasAffineInv bool
	tps          *tpsSurface

	controls []control
	rms      float64
}

// Spec returns the spec the transformation was fit with.
func (f *Fitted) Spec() Spec { return f.spec }

// Version returns the point-store version the fit was taken from.
func (f *Fitted) Version() uint64 { return f.version }

// RMS returns the root-mean-square residual over the fit's input points,
// in map units.
func (f *Fitted) RMS() float64 { return f.rms }

// ControlCount returns the number of points that participated in the fit.
func (f *Fitted) ControlCount() int { return len(f.controls) }

// IsLinear reports whether the pixel-to-map mapping is exactly affine,
// in which case the inverse is closed-form and export may pass pixels
// through without resampling.
func (f *Fitted) IsLinear() bool { return f.tps == nil && f.order == 1 }

// Forward maps an image pixel coordinate to a map coordinate.
func (f *Fitted) Forward(p geometry.Point2D) geometry.Point2D {
	if f.tps != nil {
		return f.tps.eval(p)
	}
	return geometry.Point2D{
		X: evalPoly(f.xCoef, f.order, p),
		Y: evalPoly(f.yCoef, f.order, p),
	}
}

// ForwardAffine returns the pixel-to-map affine for linear fits.
func (f *Fitted) ForwardAffine() (geometry.AffineTransform, bool) {
	if !f.IsLinear() {
		return geometry.AffineTransform{}, false
	}
	return polyAffine(f.xCoef, f.yCoef), true
}

// Inverse maps a map coordinate back to an image pixel coordinate.
// Order-1 fits invert in closed form. Nonlinear fits run a Newton
// iteration on the forward mapping, seeded from the control point whose
// map coordinate is nearest the query; if the step size does not fall
// below the configured tolerance within the iteration budget, an
// InverseConvergenceError for this sample is returned and the caller
// picks a fallback (nearest mapping, or no-data for a warp pixel).
func (f *Fitted) Inverse(p geometry.Point2D) (geometry.Point2D, error) {
	if f.IsLinear() && f.hasAffineInv {
		return f.affineInv.Apply(p), nil
	}
	return f.newtonInverse(p)
}

func (f *Fitted) newtonInverse(target geometry.Point2D) (geometry.Point2D, error) {
	guess := f.nearestControl(target)
	maxIter := f.opts.InverseMaxIterations
	tol := f.opts.InverseTolerance

	for iter := 0; iter < maxIter; iter++ {
		fwd := f.Forward(guess)
		ex := target.X - fwd.X
		ey := target.Y - fwd.Y

		j := f.jacobian(guess)
		det := j[0]*j[3] - j[1]*j[2]
		if math.Abs(det) < 1e-300 {
			return geometry.Point2D{}, &InverseConvergenceError{Point: target, Iterations: iter}
		}

		dx := (ex*j[3] - ey*j[1]) / det
		dy := (ey*j[0] - ex*j[2]) / det
		guess.X += dx
		guess.Y += dy

		if math.Sqrt(dx*dx+dy*dy) < tol {
			return guess, nil
		}
	}
	return geometry.Point2D{}, &InverseConvergenceError{Point: target, Iterations: maxIter}
}

// jacobian estimates the forward map's Jacobian at p by central
// differences. Returned as [dX/dx, dX/dy, dY/dx, dY/dy].
func (f *Fitted) jacobian(p geometry.Point2D) [4]float64 {
	const h = 1e-3 // pixels
	fx1 := f.Forward(geometry.Point2D{X: p.X + h, Y: p.Y})
	fx0 := f.Forward(geometry.Point2D{X: p.X - h, Y: p.Y})
	fy1 := f.Forward(geometry.Point2D{X: p.X, Y: p.Y + h})
	fy0 := f.Forward(geometry.Point2D{X: p.X, Y: p.Y - h})
	return [4]float64{
		(fx1.X - fx0.X) / (2 * h), (fy1.X - fy0.X) / (2 * h),
		(fx1.Y - fx0.Y) / (2 * h), (fy1.Y - fy0.Y) / (2 * h),
	}
}

// nearestControl returns the image coordinate of the control point whose
// map coordinate is closest to target.
func (f *Fitted) nearestControl(target geometry.Point2D) geometry.Point2D {
	best := f.controls[0].image
	bestDist := math.Inf(1)
	for _, c := range f.controls {
		if d := c.mapPt.Distance(target); d < bestDist {
			bestDist = d
			best = c.image
		}
	}
	return best
}
