package transform

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"georef/pkg/geometry"
)

// tpsSurface holds the solved thin plate spline for both output axes:
// spline weights per control point plus the affine part a0 + a1*x + a2*y.
type tpsSurface struct {
	controls []geometry.Point2D // image-space control coordinates
	wx, wy   []float64
	ax, ay   [3]float64
}

// tpsKernel is the standard TPS radial basis U(r) = r^2 ln r, with
// U(0) = 0.
func tpsKernel(r float64) float64 {
	if r <= 0 {
		return 0
	}
	return r * r * math.Log(r)
}

// eval sums the affine part and the radial contribution of every control
// point. Cost is linear in the number of control points.
func (s *tpsSurface) eval(p geometry.Point2D) geometry.Point2D {
	x := s.ax[0] + s.ax[1]*p.X + s.ax[2]*p.Y
	y := s.ay[0] + s.ay[1]*p.X + s.ay[2]*p.Y
	for i, c := range s.controls {
		u := tpsKernel(p.Distance(c))
		x += s.wx[i] * u
		y += s.wy[i] * u
	}
	return geometry.Point2D{X: x, Y: y}
}

// fitTPS solves the bordered TPS system
//
//	| K+L  P | |w|   |v|
//	| Pt   0 | |a| = |0|
//
// where K is the pairwise kernel matrix, P rows are [1 x y], and L is
// the regularization diagonal. With zero regularization the spline
// interpolates the control points exactly. A positive regularization
// trades exactness for smoothness; each diagonal entry is divided by the
// point's weight so heavily weighted points are smoothed less.
func fitTPS(controls []control, weights []float64, regularization float64, opts Options) (*tpsSurface, error) {
	n := len(controls)
	size := n + 3

	m := mat.NewDense(size, size, nil)
	rhs := mat.NewDense(size, 2, nil)

	for i := 0; i < n; i++ {
		pi := controls[i].image
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			m.Set(i, j, tpsKernel(pi.Distance(controls[j].image)))
		}
		if regularization > 0 {
			m.Set(i, i, regularization/weights[i])
		}

		m.Set(i, n, 1)
		m.Set(i, n+1, pi.X)
		m.Set(i, n+2, pi.Y)
		m.Set(n, i, 1)
		m.Set(n+1, i, pi.X)
		m.Set(n+2, i, pi.Y)

		rhs.Set(i, 0, controls[i].mapPt.X)
		rhs.Set(i, 1, controls[i].mapPt.Y)
	}

	var sol mat.Dense
	if err := sol.Solve(m, rhs); err != nil {
		return nil, &DegenerateConfigurationError{
			Algorithm: AlgorithmTPS,
			Detail:    "singular spline system (collinear or duplicate points)",
		}
	}

	s := &tpsSurface{
		controls: make([]geometry.Point2D, n),
		wx:       make([]float64, n),
		wy:       make([]float64, n),
	}
	for i := 0; i < n; i++ {
		s.controls[i] = controls[i].image
		s.wx[i] = sol.At(i, 0)
		s.wy[i] = sol.At(i, 1)
	}
	for k := 0; k < 3; k++ {
		s.ax[k] = sol.At(n+k, 0)
		s.ay[k] = sol.At(n+k, 1)
	}
	return s, nil
}
