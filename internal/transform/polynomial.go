package transform

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"georef/pkg/geometry"
)

// numTerms returns the number of monomial terms for a 2D polynomial of
// the given order: 3, 6, 10 for orders 1, 2, 3.
func numTerms(order int) int {
	return (order + 1) * (order + 2) / 2
}

// monomials fills dst with the monomial basis at p, ordered by total
// degree: 1, x, y, x2, xy, y2, x3, x2y, xy2, y3.
func monomials(p geometry.Point2D, order int, dst []float64) {
	k := 0
	for deg := 0; deg <= order; deg++ {
		for j := 0; j <= deg; j++ {
			dst[k] = math.Pow(p.X, float64(deg-j)) * math.Pow(p.Y, float64(j))
			k++
		}
	}
}

// evalPoly evaluates one output axis of a polynomial fit at p.
func evalPoly(coef []float64, order int, p geometry.Point2D) float64 {
	terms := make([]float64, len(coef))
	monomials(p, order, terms)
	v := 0.0
	for i, c := range coef {
		v += c * terms[i]
	}
	return v
}

// fitPolynomial solves the weighted least-squares system for both output
// axes. Rows are scaled by the square root of each point's weight so the
// minimized objective is the weighted sum of squared residuals. The
// design matrix is factorized with QR; degeneracy is detected by
// comparing the squared 2-norm condition of the design matrix (equal to
// the condition of the normal equations) against the threshold.
func fitPolynomial(controls []control, weights []float64, order int, alg Algorithm, opts Options) (xCoef, yCoef []float64, err error) {
	n := len(controls)
	m := numTerms(order)

	a := mat.NewDense(n, m, nil)
	bx := mat.NewVecDense(n, nil)
	by := mat.NewVecDense(n, nil)

	row := make([]float64, m)
	for i, c := range controls {
		monomials(c.image, order, row)
		sw := math.Sqrt(weights[i])
		for j := 0; j < m; j++ {
			a.Set(i, j, row[j]*sw)
		}
		bx.SetVec(i, c.mapPt.X*sw)
		by.SetVec(i, c.mapPt.Y*sw)
	}

	cond := mat.Cond(a, 2)
	if normalCond := cond * cond; math.IsInf(normalCond, 0) || normalCond > opts.ConditionThreshold {
		return nil, nil, &DegenerateConfigurationError{
			Algorithm: alg,
			Condition: normalCond,
			Detail:    "points are collinear or nearly duplicate",
		}
	}

	var qr mat.QR
	qr.Factorize(a)

	var cx, cy mat.VecDense
	if err := qr.SolveVecTo(&cx, false, bx); err != nil {
		return nil, nil, &DegenerateConfigurationError{Algorithm: alg, Detail: err.Error()}
	}
	if err := qr.SolveVecTo(&cy, false, by); err != nil {
		return nil, nil, &DegenerateConfigurationError{Algorithm: alg, Detail: err.Error()}
	}

	return cx.RawVector().Data, cy.RawVector().Data, nil
}

// polyAffine converts order-1 coefficients (ordered 1, x, y) into an
// affine transform.
func polyAffine(xCoef, yCoef []float64) geometry.AffineTransform {
	return geometry.AffineTransform{
		A: xCoef[1], B: xCoef[2], TX: xCoef[0],
		C: yCoef[1], D: yCoef[2], TY: yCoef[0],
	}
}
