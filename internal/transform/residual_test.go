package transform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"georef/internal/gcp"
	"georef/pkg/geometry"
)

func TestResidualsZeroAtExactFit(t *testing.T) {
	points := threeCorner()
	fitted, err := Fit(points, DefaultSpec(), 1, DefaultOptions())
	require.NoError(t, err)

	report := Evaluate(fitted, points)
	require.Len(t, report.PerPoint, 3)
	for _, pr := range report.PerPoint {
		assert.InDelta(t, 0, pr.Distance, tol)
	}
	assert.InDelta(t, 0, report.RMS, tol)
	assert.InDelta(t, 0, report.Max, tol)
}

func TestDisabledPointsEvaluatedButExcludedFromAggregates(t *testing.T) {
	points := append(threeCorner(), gcp.GroundControlPoint{
		ID:      4,
		Image:   geometry.Point2D{X: 5, Y: 5},
		Map:     geometry.Point2D{X: 205, Y: 195}, // 100 map units off
		Enabled: false,
	})
	fitted, err := Fit(points, DefaultSpec(), 1, DefaultOptions())
	require.NoError(t, err)

	report := Evaluate(fitted, points)
	require.Len(t, report.PerPoint, 4)

	disabled := report.PerPoint[3]
	assert.False(t, disabled.Enabled)
	assert.InDelta(t, 100, disabled.Distance, 1e-6)

	// Aggregates cover enabled points only.
	assert.InDelta(t, 0, report.RMS, tol)
	assert.InDelta(t, 0, report.Max, tol)
	assert.NotEqual(t, int64(4), report.MaxID)
}

func TestResidualAggregates(t *testing.T) {
	// Four points where an affine cannot be exact: the fourth is pulled
	// off the plane defined by the others.
	points := makePoints(
		[4]float64{0, 0, 0, 0},
		[4]float64{10, 0, 10, 0},
		[4]float64{0, 10, 0, 10},
		[4]float64{10, 10, 14, 10},
	)
	fitted, err := Fit(points, DefaultSpec(), 1, DefaultOptions())
	require.NoError(t, err)

	report := Evaluate(fitted, points)
	assert.Greater(t, report.RMS, 0.0)
	assert.GreaterOrEqual(t, report.Max, report.RMS)

	var worst float64
	var worstID int64
	for _, pr := range report.PerPoint {
		if pr.Distance > worst {
			worst = pr.Distance
			worstID = pr.ID
		}
	}
	assert.Equal(t, worstID, report.MaxID)
	assert.InDelta(t, worst, report.Max, tol)
}

func TestReportVersionStamp(t *testing.T) {
	points := threeCorner()
	fitted, err := Fit(points, DefaultSpec(), 42, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), fitted.Version())

	report := Evaluate(fitted, points)
	assert.Equal(t, uint64(42), report.Version)
}

func TestEvaluateWithNoEnabledPoints(t *testing.T) {
	points := threeCorner()
	fitted, err := Fit(points, DefaultSpec(), 1, DefaultOptions())
	require.NoError(t, err)

	for i := range points {
		points[i].Enabled = false
	}
	report := Evaluate(fitted, points)
	assert.True(t, math.IsNaN(report.RMS))
	assert.True(t, math.IsNaN(report.Max))
	require.Len(t, report.PerPoint, 3)
}
