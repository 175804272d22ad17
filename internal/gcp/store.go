package gcp

import (
	"math"

	"georef/pkg/geometry"
)

// Store owns an ordered collection of ground control points and a
// monotonically increasing version counter. Every successful mutation
// (add, remove, enable toggle, coordinate edit) increments the version
// exactly once; failed mutations leave the store untouched. The version
// is the sole staleness signal for fits and residual reports derived
// from the store.
//
// A Store is not safe for concurrent mutation; callers serialize access
// and hand immutable snapshots to workers.
type Store struct {
	points  []GroundControlPoint
	index   map[int64]int
	nextID  int64
	version uint64
}

// NewStore creates an empty store at version 0.
func NewStore() *Store {
	return &Store{index: make(map[int64]int), nextID: 1}
}

// Add inserts a new enabled point and returns its id. Ids are assigned
// sequentially and never reused for the lifetime of the store.
func (s *Store) Add(imageXY, mapXY geometry.Point2D) (int64, error) {
	if !imageXY.IsFinite() || !mapXY.IsFinite() {
		return 0, errNonFinite()
	}
	id := s.nextID
	s.nextID++
	s.index[id] = len(s.points)
	s.points = append(s.points, newPoint(id, imageXY, mapXY))
	s.version++
	return id, nil
}

// Remove deletes the point with the given id.
func (s *Store) Remove(id int64) error {
	i, ok := s.index[id]
	if !ok {
		return errUnknownID(id)
	}
	s.points = append(s.points[:i], s.points[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.points); j++ {
		s.index[s.points[j].ID] = j
	}
	s.version++
	return nil
}

// SetEnabled includes or excludes a point from fitting. Excluded points
// are retained and still reported by List.
func (s *Store) SetEnabled(id int64, enabled bool) error {
	i, ok := s.index[id]
	if !ok {
		return errUnknownID(id)
	}
	s.points[i].Enabled = enabled
	s.version++
	return nil
}

// Update edits the image and/or map coordinate of a point. A nil
// coordinate leaves that side unchanged. The update is all-or-nothing:
// if either new coordinate is non-finite, nothing is modified.
func (s *Store) Update(id int64, imageXY, mapXY *geometry.Point2D) error {
	i, ok := s.index[id]
	if !ok {
		return errUnknownID(id)
	}
	if imageXY != nil && !imageXY.IsFinite() {
		return errNonFinite()
	}
	if mapXY != nil && !mapXY.IsFinite() {
		return errNonFinite()
	}
	if imageXY != nil {
		s.points[i].Image = *imageXY
	}
	if mapXY != nil {
		s.points[i].Map = *mapXY
	}
	s.version++
	return nil
}

// List returns a copy of all points in insertion order. The copy is a
// value snapshot: later store mutations do not affect it.
func (s *Store) List() []GroundControlPoint {
	out := make([]GroundControlPoint, len(s.points))
	copy(out, s.points)
	return out
}

// Snapshot returns the point list together with the version it was
// taken at, for handing to a worker.
func (s *Store) Snapshot() ([]GroundControlPoint, uint64) {
	return s.List(), s.version
}

// Get returns the point with the given id.
func (s *Store) Get(id int64) (GroundControlPoint, error) {
	i, ok := s.index[id]
	if !ok {
		return GroundControlPoint{}, errUnknownID(id)
	}
	return s.points[i], nil
}

// Version returns the current mutation counter.
func (s *Store) Version() uint64 { return s.version }

// Len returns the number of points, enabled or not.
func (s *Store) Len() int { return len(s.points) }

// EnabledCount returns the number of points participating in fits.
func (s *Store) EnabledCount() int {
	n := 0
	for i := range s.points {
		if s.points[i].Enabled {
			n++
		}
	}
	return n
}

// ApplyDerived writes fit-derived weights and residuals back onto the
// points. Missing entries reset to weight 0 / residual NaN. Derived
// fields are presentation state, so this does not bump the version.
func (s *Store) ApplyDerived(weights, residuals map[int64]float64) {
	for i := range s.points {
		p := &s.points[i]
		if w, ok := weights[p.ID]; ok {
			p.Weight = w
		} else {
			p.Weight = 0
		}
		if r, ok := residuals[p.ID]; ok {
			p.Residual = r
		} else {
			p.Residual = math.NaN()
		}
	}
}

// addLoaded inserts a point restored from an interchange file, keeping
// its original id and enabled flag.
func (s *Store) addLoaded(p GroundControlPoint) error {
	if !p.Image.IsFinite() || !p.Map.IsFinite() {
		return errNonFinite()
	}
	if _, dup := s.index[p.ID]; dup || p.ID <= 0 {
		return &InvalidPointError{ID: p.ID, Reason: "duplicate or non-positive id"}
	}
	p.Weight = 1
	p.Residual = math.NaN()
	s.index[p.ID] = len(s.points)
	s.points = append(s.points, p)
	if p.ID >= s.nextID {
		s.nextID = p.ID + 1
	}
	s.version++
	return nil
}
