// Package gcp holds ground control points and the versioned store that
// owns them. A ground control point pairs an image pixel coordinate with
// a map coordinate in the target reference system.
package gcp

import (
	"math"

	"georef/pkg/geometry"
)

// GroundControlPoint is one image-to-map correspondence. Weight and
// Residual are derived values: the store's owner writes them back after
// each fit, and they do not participate in the version counter.
type GroundControlPoint struct {
	ID      int64            `json:"id"`
	Image   geometry.Point2D `json:"image"`
	Map     geometry.Point2D `json:"map"`
	Enabled bool             `json:"enabled"`

	// Weight is the fit weight from the last weighting pass, 0 for
	// disabled points.
	Weight float64 `json:"weight"`

	// Residual is the positional error in map units after the last fit,
	// NaN until a fit exists.
	Residual float64 `json:"residual"`
}

func newPoint(id int64, imageXY, mapXY geometry.Point2D) GroundControlPoint {
	return GroundControlPoint{
		ID:       id,
		Image:    imageXY,
		Map:      mapXY,
		Enabled:  true,
		Weight:   1,
		Residual: math.NaN(),
	}
}
