package gcp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"georef/pkg/geometry"
)

func TestAddAssignsSequentialIDs(t *testing.T) {
	s := NewStore()
	id1, err := s.Add(geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 100, Y: 200})
	require.NoError(t, err)
	id2, err := s.Add(geometry.Point2D{X: 1, Y: 1}, geometry.Point2D{X: 101, Y: 201})
	require.NoError(t, err)

	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)
	assert.Equal(t, uint64(2), s.Version())
}

func TestIDsAreNeverReused(t *testing.T) {
	s := NewStore()
	id1, _ := s.Add(geometry.Point2D{}, geometry.Point2D{})
	require.NoError(t, s.Remove(id1))

	id2, _ := s.Add(geometry.Point2D{X: 1}, geometry.Point2D{X: 1})
	assert.Greater(t, id2, id1)
}

func TestVersionIncrementsOncePerMutation(t *testing.T) {
	s := NewStore()
	id, _ := s.Add(geometry.Point2D{}, geometry.Point2D{})
	require.Equal(t, uint64(1), s.Version())

	require.NoError(t, s.SetEnabled(id, false))
	assert.Equal(t, uint64(2), s.Version())

	newImg := geometry.Point2D{X: 5, Y: 5}
	require.NoError(t, s.Update(id, &newImg, nil))
	assert.Equal(t, uint64(3), s.Version())

	require.NoError(t, s.Remove(id))
	assert.Equal(t, uint64(4), s.Version())
}

func TestFailedMutationLeavesStoreUnchanged(t *testing.T) {
	s := NewStore()
	id, _ := s.Add(geometry.Point2D{X: 1, Y: 2}, geometry.Point2D{X: 3, Y: 4})
	before := s.Version()

	_, err := s.Add(geometry.Point2D{X: math.NaN()}, geometry.Point2D{})
	var invalid *InvalidPointError
	require.ErrorAs(t, err, &invalid)

	bad := geometry.Point2D{X: math.Inf(1)}
	err = s.Update(id, &bad, nil)
	require.ErrorAs(t, err, &invalid)

	err = s.SetEnabled(999, false)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, int64(999), invalid.ID)

	assert.Equal(t, before, s.Version())
	p, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, geometry.Point2D{X: 1, Y: 2}, p.Image)
}

func TestUpdateIsAllOrNothing(t *testing.T) {
	s := NewStore()
	id, _ := s.Add(geometry.Point2D{X: 1, Y: 1}, geometry.Point2D{X: 2, Y: 2})

	good := geometry.Point2D{X: 9, Y: 9}
	bad := geometry.Point2D{Y: math.NaN()}
	err := s.Update(id, &good, &bad)
	require.Error(t, err)

	p, _ := s.Get(id)
	assert.Equal(t, geometry.Point2D{X: 1, Y: 1}, p.Image)
	assert.Equal(t, geometry.Point2D{X: 2, Y: 2}, p.Map)
}

func TestListIsASnapshot(t *testing.T) {
	s := NewStore()
	id, _ := s.Add(geometry.Point2D{X: 1, Y: 1}, geometry.Point2D{X: 2, Y: 2})
	snap, version := s.Snapshot()

	newImg := geometry.Point2D{X: 50, Y: 50}
	require.NoError(t, s.Update(id, &newImg, nil))

	assert.Equal(t, geometry.Point2D{X: 1, Y: 1}, snap[0].Image)
	assert.NotEqual(t, version, s.Version())
}

func TestRemoveKeepsOrder(t *testing.T) {
	s := NewStore()
	a, _ := s.Add(geometry.Point2D{X: 1}, geometry.Point2D{})
	b, _ := s.Add(geometry.Point2D{X: 2}, geometry.Point2D{})
	c, _ := s.Add(geometry.Point2D{X: 3}, geometry.Point2D{})

	require.NoError(t, s.Remove(b))
	points := s.List()
	require.Len(t, points, 2)
	assert.Equal(t, a, points[0].ID)
	assert.Equal(t, c, points[1].ID)

	// Index stays consistent after the shift.
	p, err := s.Get(c)
	require.NoError(t, err)
	assert.Equal(t, 3.0, p.Image.X)
}

func TestResidualIsNaNUntilFit(t *testing.T) {
	s := NewStore()
	id, _ := s.Add(geometry.Point2D{}, geometry.Point2D{})
	p, _ := s.Get(id)
	assert.True(t, math.IsNaN(p.Residual))
}

func TestApplyDerivedDoesNotBumpVersion(t *testing.T) {
	s := NewStore()
	id, _ := s.Add(geometry.Point2D{}, geometry.Point2D{})
	before := s.Version()

	s.ApplyDerived(map[int64]float64{id: 0.5}, map[int64]float64{id: 1.25})
	assert.Equal(t, before, s.Version())

	p, _ := s.Get(id)
	assert.Equal(t, 0.5, p.Weight)
	assert.Equal(t, 1.25, p.Residual)
}
