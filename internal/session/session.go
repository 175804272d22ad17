// Package session ties one point store, one transformation spec and one
// source raster together and keeps the derived state (weights, fit,
// residuals) current as points are edited. It is the seam a UI or CLI
// collaborator talks to.
//
// A session is single-threaded by contract: callers serialize mutation.
// Long work (fitting many points, warping) should be handed a snapshot
// via Snapshot or the Fitted itself and run elsewhere; results computed
// from an older store version are detected with IsStale and discarded by
// the caller.
package session

import (
	"math"

	"georef/internal/export"
	"georef/internal/gcp"
	"georef/internal/transform"
	"georef/internal/warp"
	"georef/pkg/geometry"
)

// Session owns the engine state for one document.
type Session struct {
	store *gcp.Store
	spec  transform.Spec
	opts  transform.Options

	source *warp.Raster
	crs    string

	// fit cache, keyed on (store version, spec)
	fitted  *transform.Fitted
	fitKey  string
	fitVer  uint64
	fitErr  error
	hasFit  bool
	report  transform.Report
	weights map[int64]float64
}

// New creates an empty session with the given engine options.
func New(opts transform.Options) *Session {
	return &Session{
		store: gcp.NewStore(),
		spec:  transform.DefaultSpec(),
		opts:  opts,
	}
}

// SetSource installs the image to georeference.
func (s *Session) SetSource(r *warp.Raster) { s.source = r }

// Source returns the current source raster.
func (s *Session) Source() *warp.Raster { return s.source }

// SetCRS records the opaque target reference identifier. It is passed
// through to export metadata unvalidated.
func (s *Session) SetCRS(crs string) { s.crs = crs }

// CRS returns the target reference identifier.
func (s *Session) CRS() string { return s.crs }

// SetSpec switches the transformation spec and recomputes derived state.
func (s *Session) SetSpec(spec transform.Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	s.spec = spec
	s.refresh()
	return nil
}

// Spec returns the active transformation spec.
func (s *Session) Spec() transform.Spec { return s.spec }

// Store exposes the point store for read access.
func (s *Session) Store() *gcp.Store { return s.store }

// ReplaceStore installs a store loaded from an interchange file and
// recomputes derived state.
func (s *Session) ReplaceStore(store *gcp.Store) {
	s.store = store
	s.refresh()
}

// AddPoint inserts a correspondence and recomputes derived state.
func (s *Session) AddPoint(imageXY, mapXY geometry.Point2D) (int64, error) {
	id, err := s.store.Add(imageXY, mapXY)
	if err != nil {
		return 0, err
	}
	s.refresh()
	return id, nil
}

// RemovePoint deletes a correspondence and recomputes derived state.
func (s *Session) RemovePoint(id int64) error {
	if err := s.store.Remove(id); err != nil {
		return err
	}
	s.refresh()
	return nil
}

// SetEnabled toggles a point's participation in fits.
func (s *Session) SetEnabled(id int64, enabled bool) error {
	if err := s.store.SetEnabled(id, enabled); err != nil {
		return err
	}
	s.refresh()
	return nil
}

// UpdatePoint edits a point's coordinates.
func (s *Session) UpdatePoint(id int64, imageXY, mapXY *geometry.Point2D) error {
	if err := s.store.Update(id, imageXY, mapXY); err != nil {
		return err
	}
	s.refresh()
	return nil
}

// refresh recomputes weights, fit and residuals from the current store
// contents and writes the derived per-point fields back.
func (s *Session) refresh() {
	points, version := s.store.Snapshot()
	s.weights = transform.ComputeWeights(points, s.spec.Weighting)

	fitted, err := transform.FitWeighted(points, s.weights, s.spec, version, s.opts)
	s.fitted, s.fitErr = fitted, err
	s.fitKey = s.spec.Key()
	s.fitVer = version
	s.hasFit = err == nil

	if s.hasFit {
		s.report = transform.Evaluate(fitted, points)
		s.store.ApplyDerived(s.weights, s.report.Residuals())
	} else {
		s.report = transform.Report{Version: version, RMS: math.NaN(), Max: math.NaN(), MaxID: -1}
		s.store.ApplyDerived(s.weights, nil)
	}
}

// CurrentFit returns the fit for the store's current contents,
// re-deriving it if the version or spec changed since the cached fit.
func (s *Session) CurrentFit() (*transform.Fitted, error) {
	if s.fitVer != s.store.Version() || s.fitKey != s.spec.Key() {
		s.refresh()
	}
	if s.fitErr != nil {
		return nil, s.fitErr
	}
	return s.fitted, nil
}

// Residuals returns the residual report for the current fit.
func (s *Session) Residuals() (transform.Report, error) {
	if _, err := s.CurrentFit(); err != nil {
		return transform.Report{}, err
	}
	return s.report, nil
}

// Snapshot returns the point list and the version it was taken at, for
// handing to a worker.
func (s *Session) Snapshot() ([]gcp.GroundControlPoint, uint64) {
	return s.store.Snapshot()
}

// IsStale reports whether a fit (or anything derived from it) was
// computed from an older store version and must be discarded.
func (s *Session) IsStale(f *transform.Fitted) bool {
	return f == nil || f.Version() != s.store.Version()
}

// Preview warps the source over the given view extent at the view's
// resolution. Intended to be cheap enough to re-invoke on every point
// edit; callers keep the extent and pixel count small.
func (s *Session) Preview(view geometry.Extent, pixelSize float64, mode warp.Mode) (*warp.Result, error) {
	fitted, err := s.CurrentFit()
	if err != nil {
		return nil, err
	}
	return warp.Warp(s.source, fitted, warp.Options{
		Extent:    &view,
		PixelSize: pixelSize,
		Mode:      mode,
	})
}

// Export builds and writes the georeferenced artifact for the current
// fit.
func (s *Session) Export(path string, opts export.Options) (*export.Artifact, error) {
	fitted, err := s.CurrentFit()
	if err != nil {
		return nil, err
	}
	artifact, err := export.Build(s.source, fitted, s.crs, opts)
	if err != nil {
		return nil, err
	}
	if err := export.Save(path, artifact); err != nil {
		return nil, err
	}
	return artifact, nil
}
