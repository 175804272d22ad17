// Package geometry provides the 2D value types shared by the
// georeferencing engine: points, extents, affine transforms and the
// GDAL-style raster geotransform.
package geometry

import (
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
// Depending on context the coordinates are either image pixels (origin
// top-left, y down) or map units in the target reference system.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint2D creates a new Point2D.
func NewPoint2D(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Add returns the sum of two points.
func (p Point2D) Add(other Point2D) Point2D {
	return Point2D{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// IsFinite reports whether both coordinates are finite (not NaN, not Inf).
func (p Point2D) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Extent is an axis-aligned bounding box in map coordinates.
type Extent struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// NewExtent creates an extent, normalizing swapped bounds.
func NewExtent(x0, y0, x1, y1 float64) Extent {
	return Extent{
		MinX: math.Min(x0, x1),
		MinY: math.Min(y0, y1),
		MaxX: math.Max(x0, x1),
		MaxY: math.Max(y0, y1),
	}
}

// Width returns the extent width in map units.
func (e Extent) Width() float64 { return e.MaxX - e.MinX }

// Height returns the extent height in map units.
func (e Extent) Height() float64 { return e.MaxY - e.MinY }

// IsEmpty reports whether the extent has no area.
func (e Extent) IsEmpty() bool { return e.MaxX <= e.MinX || e.MaxY <= e.MinY }

// Contains returns true if the point is inside the extent.
func (e Extent) Contains(p Point2D) bool {
	return p.X >= e.MinX && p.X <= e.MaxX && p.Y >= e.MinY && p.Y <= e.MaxY
}

// Union returns the smallest extent containing both extents.
func (e Extent) Union(other Extent) Extent {
	return Extent{
		MinX: math.Min(e.MinX, other.MinX),
		MinY: math.Min(e.MinY, other.MinY),
		MaxX: math.Max(e.MaxX, other.MaxX),
		MaxY: math.Max(e.MaxY, other.MaxY),
	}
}

// BoundingExtent computes the axis-aligned bounding box of a set of points.
func BoundingExtent(points []Point2D) Extent {
	if len(points) == 0 {
		return Extent{}
	}
	e := Extent{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, p := range points[1:] {
		e.MinX = math.Min(e.MinX, p.X)
		e.MinY = math.Min(e.MinY, p.Y)
		e.MaxX = math.Max(e.MaxX, p.X)
		e.MaxY = math.Max(e.MaxY, p.Y)
	}
	return e
}

// AffineTransform represents a 2x3 affine transformation matrix.
// [a b tx]
// [c d ty]
type AffineTransform struct {
	A, B, TX float64
	C, D, TY float64
}

// Identity returns the identity transform.
func Identity() AffineTransform {
	return AffineTransform{A: 1, D: 1}
}

// Apply applies the transform to a point.
func (t AffineTransform) Apply(p Point2D) Point2D {
	return Point2D{
		X: t.A*p.X + t.B*p.Y + t.TX,
		Y: t.C*p.X + t.D*p.Y + t.TY,
	}
}

// Compose returns this transform composed with another (this * other).
func (t AffineTransform) Compose(other AffineTransform) AffineTransform {
	return AffineTransform{
		A:  t.A*other.A + t.B*other.C,
		B:  t.A*other.B + t.B*other.D,
		TX: t.A*other.TX + t.B*other.TY + t.TX,
		C:  t.C*other.A + t.D*other.C,
		D:  t.C*other.B + t.D*other.D,
		TY: t.C*other.TX + t.D*other.TY + t.TY,
	}
}

// Inverse returns the inverse transform, if it exists.
func (t AffineTransform) Inverse() (AffineTransform, bool) {
	det := t.A*t.D - t.B*t.C
	if math.Abs(det) < 1e-12 {
		return AffineTransform{}, false
	}

	invDet := 1.0 / det
	return AffineTransform{
		A:  t.D * invDet,
		B:  -t.B * invDet,
		TX: (t.B*t.TY - t.D*t.TX) * invDet,
		C:  -t.C * invDet,
		D:  t.A * invDet,
		TY: (t.C*t.TX - t.A*t.TY) * invDet,
	}, true
}

// GeoTransform maps raster pixel indices to map coordinates using the
// GDAL six-coefficient convention:
//
//	mapX = GT[0] + px*GT[1] + py*GT[2]
//	mapY = GT[3] + px*GT[4] + py*GT[5]
//
// GT[0],GT[3] is the map position of the top-left corner of the top-left
// pixel; GT[1],GT[5] are the pixel sizes (GT[5] is negative for north-up
// rasters); GT[2],GT[4] are the rotation terms.
type GeoTransform [6]float64

// NorthUpGeoTransform builds a rotation-free geotransform from an output
// extent and square pixel size. Row 0 sits at the extent's top.
func NorthUpGeoTransform(extent Extent, pixelSize float64) GeoTransform {
	return GeoTransform{extent.MinX, pixelSize, 0, extent.MaxY, 0, -pixelSize}
}

// PixelToMap converts fractional pixel coordinates to map coordinates.
// Pixel (0,0) is the top-left corner of the top-left pixel, so the
// center of pixel (col,row) is PixelToMap(col+0.5, row+0.5).
func (gt GeoTransform) PixelToMap(px, py float64) Point2D {
	return Point2D{
		X: gt[0] + px*gt[1] + py*gt[2],
		Y: gt[3] + px*gt[4] + py*gt[5],
	}
}

// MapToPixel converts map coordinates to fractional pixel coordinates.
// Returns false if the geotransform is singular.
func (gt GeoTransform) MapToPixel(p Point2D) (float64, float64, bool) {
	det := gt[1]*gt[5] - gt[2]*gt[4]
	if det == 0 {
		return 0, 0, false
	}
	dx := p.X - gt[0]
	dy := p.Y - gt[3]
	px := (dx*gt[5] - dy*gt[2]) / det
	py := (dy*gt[1] - dx*gt[4]) / det
	return px, py, true
}

// IsNorthUp reports whether the geotransform has no rotation terms.
func (gt GeoTransform) IsNorthUp() bool {
	return gt[2] == 0 && gt[4] == 0
}

// ToAffine returns the geotransform as an AffineTransform from pixel
// space to map space.
func (gt GeoTransform) ToAffine() AffineTransform {
	return AffineTransform{A: gt[1], B: gt[2], TX: gt[0], C: gt[4], D: gt[5], TY: gt[3]}
}

// GeoTransformFromAffine converts a pixel-to-map affine into geotransform
// coefficient order.
func GeoTransformFromAffine(t AffineTransform) GeoTransform {
	return GeoTransform{t.TX, t.A, t.B, t.TY, t.C, t.D}
}
