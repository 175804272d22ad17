package session

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"georef/internal/export"
	"georef/internal/transform"
	"georef/internal/warp"
	"georef/pkg/geometry"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s := New(transform.DefaultOptions())
	src := warp.NewRaster(4, 4, 4)
	for i := range src.Pix {
		src.Pix[i] = 99
	}
	s.SetSource(src)
	s.SetCRS("EPSG:3857")
	return s
}

func addCorner(t *testing.T, s *Session) (ids []int64) {
	t.Helper()
	for _, q := range [][4]float64{
		{0, 0, 100, 200},
		{10, 0, 110, 200},
		{0, 10, 100, 190},
	} {
		id, err := s.AddPoint(geometry.Point2D{X: q[0], Y: q[1]}, geometry.Point2D{X: q[2], Y: q[3]})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestFitUnavailableUntilEnoughPoints(t *testing.T) {
	s := newTestSession(t)
	_, err := s.AddPoint(geometry.Point2D{}, geometry.Point2D{X: 100, Y: 200})
	require.NoError(t, err)
	_, err = s.AddPoint(geometry.Point2D{X: 10}, geometry.Point2D{X: 110, Y: 200})
	require.NoError(t, err)

	_, err = s.CurrentFit()
	var short *transform.InsufficientPointsError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 1, short.Shortfall())

	_, err = s.AddPoint(geometry.Point2D{Y: 10}, geometry.Point2D{X: 100, Y: 190})
	require.NoError(t, err)
	fitted, err := s.CurrentFit()
	require.NoError(t, err)
	assert.Equal(t, 3, fitted.ControlCount())
}

func TestMutationRefreshesDerivedState(t *testing.T) {
	s := newTestSession(t)
	ids := addCorner(t, s)

	// After the fit, residuals and weights are written back.
	for _, p := range s.Store().List() {
		assert.Equal(t, 1.0, p.Weight)
		assert.InDelta(t, 0, p.Residual, 1e-9)
	}

	// Disabling a point drops below the minimum; residuals reset.
	require.NoError(t, s.SetEnabled(ids[0], false))
	_, err := s.CurrentFit()
	require.Error(t, err)
	p, err := s.Store().Get(ids[1])
	require.NoError(t, err)
	assert.True(t, math.IsNaN(p.Residual))
}

func TestFitCacheKeyedOnVersionAndSpec(t *testing.T) {
	s := newTestSession(t)
	addCorner(t, s)

	a, err := s.CurrentFit()
	require.NoError(t, err)
	b, err := s.CurrentFit()
	require.NoError(t, err)
	assert.Same(t, a, b, "unchanged version and spec reuse the cached fit")

	_, err = s.AddPoint(geometry.Point2D{X: 10, Y: 10}, geometry.Point2D{X: 110, Y: 190})
	require.NoError(t, err)
	c, err := s.CurrentFit()
	require.NoError(t, err)
	assert.NotSame(t, a, c)

	require.NoError(t, s.SetSpec(transform.Spec{Algorithm: transform.AlgorithmTPS}))
	d, err := s.CurrentFit()
	require.NoError(t, err)
	assert.NotSame(t, c, d)
}

func TestStaleFitDetection(t *testing.T) {
	s := newTestSession(t)
	addCorner(t, s)

	fitted, err := s.CurrentFit()
	require.NoError(t, err)
	assert.False(t, s.IsStale(fitted))

	// A worker holding this fit must discard its result once the store
	// moves on.
	_, err = s.AddPoint(geometry.Point2D{X: 3, Y: 3}, geometry.Point2D{X: 103, Y: 197})
	require.NoError(t, err)
	assert.True(t, s.IsStale(fitted))
}

func TestSetSpecRejectsInvalid(t *testing.T) {
	s := newTestSession(t)
	err := s.SetSpec(transform.Spec{Algorithm: transform.AlgorithmPolynomial, Order: 9})
	assert.Error(t, err)
	assert.Equal(t, transform.DefaultSpec(), s.Spec())
}

func TestResidualReportMatchesStore(t *testing.T) {
	s := newTestSession(t)
	addCorner(t, s)

	report, err := s.Residuals()
	require.NoError(t, err)
	require.Len(t, report.PerPoint, 3)
	assert.InDelta(t, 0, report.RMS, 1e-9)
	assert.Equal(t, s.Store().Version(), report.Version)
}

func TestPreviewUsesCurrentFit(t *testing.T) {
	s := New(transform.DefaultOptions())
	src := warp.NewRaster(4, 4, 4)
	for i := range src.Pix {
		src.Pix[i] = 42
	}
	s.SetSource(src)

	// Identity-style mapping so the preview grid is easy to predict.
	for _, q := range [][4]float64{{0, 0, 0, 0}, {4, 0, 4, 0}, {0, 4, 0, 4}} {
		_, err := s.AddPoint(geometry.Point2D{X: q[0], Y: q[1]}, geometry.Point2D{X: q[2], Y: q[3]})
		require.NoError(t, err)
	}

	view := geometry.NewExtent(0, 0, 4, 4)
	result, err := s.Preview(view, 2, warp.ModeNearest)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Raster.Width)
	assert.Equal(t, 2, result.Raster.Height)
	assert.Equal(t, 0, result.NoDataCount)
	assert.Equal(t, uint8(42), result.Raster.At(0, 0, 0))
}

func TestExportPassThroughPolicy(t *testing.T) {
	s := newTestSession(t)
	addCorner(t, s)
	require.NoError(t, s.SetSpec(transform.Spec{Algorithm: transform.AlgorithmTPS}))

	_, err := s.Export(t.TempDir()+"/out.tif", export.Options{PassThrough: true})
	var unsupported *export.UnsupportedExportTransformError
	require.ErrorAs(t, err, &unsupported)
}
