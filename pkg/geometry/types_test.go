package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-9

func TestAffineInverseRoundTrip(t *testing.T) {
	tr := AffineTransform{A: 1.2, B: -0.3, TX: 40, C: 0.25, D: 0.9, TY: -7}
	inv, ok := tr.Inverse()
	require.True(t, ok)

	for _, p := range []Point2D{{0, 0}, {10, 5}, {-3.5, 120}, {1e4, -1e4}} {
		back := inv.Apply(tr.Apply(p))
		assert.InDelta(t, p.X, back.X, 1e-6)
		assert.InDelta(t, p.Y, back.Y, 1e-6)
	}
}

func TestAffineInverseSingular(t *testing.T) {
	// Rank-1 matrix has no inverse.
	tr := AffineTransform{A: 1, B: 2, C: 2, D: 4}
	_, ok := tr.Inverse()
	assert.False(t, ok)
}

func TestComposeMatchesSequentialApply(t *testing.T) {
	a := AffineTransform{A: 0.5, B: 0.1, TX: 3, C: -0.2, D: 1.1, TY: -8}
	b := AffineTransform{A: 2, B: 0, TX: -1, C: 0.3, D: 0.7, TY: 5}
	p := Point2D{X: 4, Y: -2}

	got := a.Compose(b).Apply(p)
	want := a.Apply(b.Apply(p))
	assert.InDelta(t, want.X, got.X, epsilon)
	assert.InDelta(t, want.Y, got.Y, epsilon)
}

func TestGeoTransformPixelMapRoundTrip(t *testing.T) {
	gt := NorthUpGeoTransform(NewExtent(100, 200, 150, 260), 0.5)

	// Top-left corner of the grid is the extent's top-left.
	origin := gt.PixelToMap(0, 0)
	assert.InDelta(t, 100.0, origin.X, epsilon)
	assert.InDelta(t, 260.0, origin.Y, epsilon)

	p := gt.PixelToMap(12.5, 30.25)
	px, py, ok := gt.MapToPixel(p)
	require.True(t, ok)
	assert.InDelta(t, 12.5, px, epsilon)
	assert.InDelta(t, 30.25, py, epsilon)
}

func TestGeoTransformAffineConversion(t *testing.T) {
	gt := GeoTransform{500000, 2, 0.1, 4000000, -0.1, -2}
	p := gt.PixelToMap(7, 3)
	q := gt.ToAffine().Apply(Point2D{X: 7, Y: 3})
	assert.InDelta(t, p.X, q.X, epsilon)
	assert.InDelta(t, p.Y, q.Y, epsilon)

	back := GeoTransformFromAffine(gt.ToAffine())
	assert.Equal(t, gt, back)
}

func TestBoundingExtent(t *testing.T) {
	e := BoundingExtent([]Point2D{{3, -1}, {-2, 4}, {0, 0}})
	assert.Equal(t, Extent{MinX: -2, MinY: -1, MaxX: 3, MaxY: 4}, e)
	assert.InDelta(t, 5.0, e.Width(), epsilon)
	assert.InDelta(t, 5.0, e.Height(), epsilon)
}

func TestPointIsFinite(t *testing.T) {
	assert.True(t, Point2D{1, 2}.IsFinite())
	assert.False(t, Point2D{math.NaN(), 2}.IsFinite())
	assert.False(t, Point2D{1, math.Inf(-1)}.IsFinite())
}
