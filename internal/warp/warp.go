package warp

import (
	"errors"
	"fmt"
	"math"

	"georef/internal/transform"
	"georef/pkg/geometry"
)

// Mode selects the resampling kernel.
type Mode string

const (
	// ModeNearest picks the closest source pixel.
	ModeNearest Mode = "nearest"
	// ModeBilinear averages the four surrounding source pixels, clamped
	// at image borders.
	ModeBilinear Mode = "bilinear"
)

// Options controls one warp invocation.
type Options struct {
	// Extent is the output area in map coordinates. Nil derives it by
	// forward-transforming the source corners and taking their bounding
	// box.
	Extent *geometry.Extent
	// PixelSize is the output resolution in map units per pixel.
	PixelSize float64
	// Mode is the resampling kernel; defaults to nearest-neighbor.
	Mode Mode
	// Margin extends the source bounds test by this many pixels before a
	// sample is declared no-data. Default 0.
	Margin float64
}

// Result is a resampled raster with its grid geometry and validity mask.
type Result struct {
	Raster       *Raster
	Mask         []bool // per pixel, false = no-data
	GeoTransform geometry.GeoTransform
	Extent       geometry.Extent
	NoDataCount  int
}

// SourceExtent forward-transforms the four source corners and returns
// their bounding box, the default output extent.
func SourceExtent(src *Raster, fitted *transform.Fitted) geometry.Extent {
	w, h := float64(src.Width), float64(src.Height)
	corners := []geometry.Point2D{
		fitted.Forward(geometry.Point2D{X: 0, Y: 0}),
		fitted.Forward(geometry.Point2D{X: w, Y: 0}),
		fitted.Forward(geometry.Point2D{X: 0, Y: h}),
		fitted.Forward(geometry.Point2D{X: w, Y: h}),
	}
	return geometry.BoundingExtent(corners)
}

// Warp resamples src onto a north-up output grid. For every output pixel
// center it computes the map coordinate from the grid geometry, maps it
// back to source pixels through the fit's inverse, and samples there.
// Pixels whose inverse lands outside the source (beyond Margin) or whose
// inverse fails to converge are marked no-data.
//
// TPS inverse evaluation costs one forward spline sum, linear in control
// points, per Newton step; preview callers keep the extent and
// resolution small to stay interactive.
func Warp(src *Raster, fitted *transform.Fitted, opts Options) (*Result, error) {
	if src == nil || src.Width <= 0 || src.Height <= 0 {
		return nil, errors.New("warp: empty source raster")
	}
	if opts.PixelSize <= 0 || math.IsNaN(opts.PixelSize) {
		return nil, fmt.Errorf("warp: pixel size must be positive, got %g", opts.PixelSize)
	}
	if opts.Mode == "" {
		opts.Mode = ModeNearest
	}
	if opts.Mode != ModeNearest && opts.Mode != ModeBilinear {
		return nil, fmt.Errorf("warp: unknown resampling mode %q", opts.Mode)
	}

	extent := SourceExtent(src, fitted)
	if opts.Extent != nil {
		extent = *opts.Extent
	}
	if extent.IsEmpty() {
		return nil, errors.New("warp: empty output extent")
	}

	cols := int(math.Ceil(extent.Width() / opts.PixelSize))
	rows := int(math.Ceil(extent.Height() / opts.PixelSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	gt := geometry.NorthUpGeoTransform(extent, opts.PixelSize)
	out := NewRaster(cols, rows, src.Channels)
	mask := make([]bool, cols*rows)
	noData := 0

	var convErr *transform.InverseConvergenceError
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			mapPt := gt.PixelToMap(float64(col)+0.5, float64(row)+0.5)
			srcPt, err := fitted.Inverse(mapPt)
			if err != nil {
				if errors.As(err, &convErr) {
					noData++
					continue
				}
				return nil, err
			}
			if !inSourceBounds(srcPt, src, opts.Margin) {
				noData++
				continue
			}

			idx := row*cols + col
			mask[idx] = true
			if opts.Mode == ModeNearest {
				sampleNearest(src, srcPt, out, col, row)
			} else {
				sampleBilinear(src, srcPt, out, col, row)
			}
		}
	}

	return &Result{
		Raster:       out,
		Mask:         mask,
		GeoTransform: gt,
		Extent:       extent,
		NoDataCount:  noData,
	}, nil
}

func inSourceBounds(p geometry.Point2D, src *Raster, margin float64) bool {
	return p.X >= -margin && p.X <= float64(src.Width)+margin &&
		p.Y >= -margin && p.Y <= float64(src.Height)+margin
}

func clampIndex(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// sampleNearest copies the source pixel containing the sample position.
func sampleNearest(src *Raster, p geometry.Point2D, out *Raster, col, row int) {
	sx := clampIndex(int(math.Floor(p.X)), src.Width-1)
	sy := clampIndex(int(math.Floor(p.Y)), src.Height-1)
	for c := 0; c < src.Channels; c++ {
		out.Set(col, row, c, src.At(sx, sy, c))
	}
}

// sampleBilinear blends the four source pixels around the sample
// position, treating pixel centers as (i+0.5, j+0.5) and clamping at the
// borders.
func sampleBilinear(src *Raster, p geometry.Point2D, out *Raster, col, row int) {
	gx := p.X - 0.5
	gy := p.Y - 0.5
	x0 := math.Floor(gx)
	y0 := math.Floor(gy)
	fx := gx - x0
	fy := gy - y0

	ix0 := clampIndex(int(x0), src.Width-1)
	ix1 := clampIndex(int(x0)+1, src.Width-1)
	iy0 := clampIndex(int(y0), src.Height-1)
	iy1 := clampIndex(int(y0)+1, src.Height-1)

	for c := 0; c < src.Channels; c++ {
		top := (1-fx)*float64(src.At(ix0, iy0, c)) + fx*float64(src.At(ix1, iy0, c))
		bottom := (1-fx)*float64(src.At(ix0, iy1, c)) + fx*float64(src.At(ix1, iy1, c))
		v := (1-fy)*top + fy*bottom
		out.Set(col, row, c, uint8(math.Round(v)))
	}
}
