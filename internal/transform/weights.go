package transform

import (
	"math"

	"georef/internal/gcp"
)

// ComputeWeights derives a fit weight for every point in the store
// snapshot. Disabled points always get weight 0 and are excluded from
// the fit input entirely; enabled points get 1 for WeightingNone, or
// 1 / meanDistance^p (p = 1 or 2) of the mean image-space distance to
// the other enabled points for the inverse-distance modes.
//
// A point coincident with every other enabled point would produce an
// infinite weight; it is clamped to the maximum finite weight observed
// among the others instead.
func ComputeWeights(points []gcp.GroundControlPoint, mode WeightingMode) map[int64]float64 {
	weights := make(map[int64]float64, len(points))

	var enabled []gcp.GroundControlPoint
	for _, p := range points {
		if p.Enabled {
			enabled = append(enabled, p)
		} else {
			weights[p.ID] = 0
		}
	}

	power := 0.0
	switch mode {
	case WeightingInverseDistance:
		power = 1
	case WeightingInverseDistanceSq:
		power = 2
	}
	if power == 0 || len(enabled) < 2 {
		for _, p := range enabled {
			weights[p.ID] = 1
		}
		return weights
	}

	maxFinite := 0.0
	var coincident []int64
	for i, p := range enabled {
		sum := 0.0
		for j, q := range enabled {
			if i == j {
				continue
			}
			sum += p.Image.Distance(q.Image)
		}
		mean := sum / float64(len(enabled)-1)
		if mean == 0 {
			coincident = append(coincident, p.ID)
			continue
		}
		w := 1 / math.Pow(mean, power)
		weights[p.ID] = w
		if w > maxFinite {
			maxFinite = w
		}
	}

	if maxFinite == 0 {
		maxFinite = 1
	}
	for _, id := range coincident {
		weights[id] = maxFinite
	}
	return weights
}
