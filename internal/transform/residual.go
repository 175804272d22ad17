package transform

import (
	"math"

	"georef/internal/gcp"
	"georef/pkg/geometry"
)

// PointResidual is one point's positional error under a fit: the map-unit
// distance between its recorded map coordinate and the fit's forward
// evaluation at its image coordinate.
type PointResidual struct {
	ID       int64
	Enabled  bool
	Delta    geometry.Point2D // predicted minus recorded, map units
	Distance float64
}

// Report summarizes residuals for a point set. Disabled points are
// evaluated and listed so a user can judge the effect of re-enabling
// them, but the RMS and Max aggregates cover enabled points only.
type Report struct {
	Version  uint64
	PerPoint []PointResidual
	RMS      float64
	Max      float64
	MaxID    int64
}

// Evaluate applies the fit back to every point in the snapshot.
func Evaluate(f *Fitted, points []gcp.GroundControlPoint) Report {
	report := Report{Version: f.Version(), MaxID: -1}

	var sum float64
	var enabled int
	for _, p := range points {
		predicted := f.Forward(p.Image)
		delta := predicted.Sub(p.Map)
		dist := p.Map.Distance(predicted)
		report.PerPoint = append(report.PerPoint, PointResidual{
			ID:       p.ID,
			Enabled:  p.Enabled,
			Delta:    delta,
			Distance: dist,
		})
		if !p.Enabled {
			continue
		}
		enabled++
		sum += dist * dist
		if dist > report.Max {
			report.Max = dist
			report.MaxID = p.ID
		}
	}

	if enabled > 0 {
		report.RMS = math.Sqrt(sum / float64(enabled))
	} else {
		report.RMS = math.NaN()
		report.Max = math.NaN()
	}
	return report
}

// Residuals returns a per-point id to residual-distance map, for writing
// derived fields back onto a store.
func (r Report) Residuals() map[int64]float64 {
	out := make(map[int64]float64, len(r.PerPoint))
	for _, pr := range r.PerPoint {
		out[pr.ID] = pr.Distance
	}
	return out
}
