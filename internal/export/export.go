// Package export produces georeferenced raster artifacts: pixel data
// plus an affine geotransform and the opaque target reference identifier
// supplied by the caller. Nonlinear fits are resampled onto a uniform
// grid first so the written geotransform always matches the data.
package export

import (
	"fmt"

	"georef/internal/transform"
	"georef/internal/warp"
	"georef/pkg/geometry"
)

// UnsupportedExportTransformError reports a pass-through export request
// for a fit whose pixel-to-map mapping is not affine. Fatal for the
// export call only.
type UnsupportedExportTransformError struct {
	Spec transform.Spec
}

func (e *UnsupportedExportTransformError) Error() string {
	return fmt.Sprintf("cannot pass through a %s fit: pixel-to-map mapping is not affine, resample instead", e.Spec.Algorithm)
}

// Artifact is a finished georeferenced raster.
type Artifact struct {
	Raster       *warp.Raster
	Mask         []bool // nil means every pixel is valid
	GeoTransform geometry.GeoTransform
	CRS          string // opaque target reference id, recorded verbatim
}

// Options controls artifact construction.
type Options struct {
	// PixelSize is the output resolution in map units per pixel. Zero
	// derives the source's native resolution from the fit's scale at the
	// image center.
	PixelSize float64
	// Mode is the resampling kernel for the gridded path.
	Mode warp.Mode
	// PassThrough writes the source pixels unresampled with the fit's
	// own geotransform. Legal only for linear (order-1) fits; anything
	// else fails with UnsupportedExportTransformError.
	PassThrough bool
	// Extent overrides the computed output extent for the gridded path.
	Extent *geometry.Extent
	// Margin is passed through to the resampler's source bounds test.
	Margin float64
}

// Build produces the export artifact for a source raster and fit.
func Build(src *warp.Raster, fitted *transform.Fitted, crs string, opts Options) (*Artifact, error) {
	if opts.PassThrough {
		affine, ok := fitted.ForwardAffine()
		if !ok {
			return nil, &UnsupportedExportTransformError{Spec: fitted.Spec()}
		}
		return &Artifact{
			Raster:       src,
			GeoTransform: geometry.GeoTransformFromAffine(affine),
			CRS:          crs,
		}, nil
	}

	pixelSize := opts.PixelSize
	if pixelSize <= 0 {
		pixelSize = NativePixelSize(src, fitted)
	}

	result, err := warp.Warp(src, fitted, warp.Options{
		Extent:    opts.Extent,
		PixelSize: pixelSize,
		Mode:      opts.Mode,
		Margin:    opts.Margin,
	})
	if err != nil {
		return nil, fmt.Errorf("export resample: %w", err)
	}
	return &Artifact{
		Raster:       result.Raster,
		Mask:         result.Mask,
		GeoTransform: result.GeoTransform,
		CRS:          crs,
	}, nil
}

// NativePixelSize estimates the map-unit size of one source pixel from
// the fit's local scale at the image center, taking the smaller axis so
// no source detail is dropped.
func NativePixelSize(src *warp.Raster, fitted *transform.Fitted) float64 {
	center := geometry.Point2D{X: float64(src.Width) / 2, Y: float64(src.Height) / 2}
	at := fitted.Forward(center)
	dx := fitted.Forward(geometry.Point2D{X: center.X + 1, Y: center.Y}).Distance(at)
	dy := fitted.Forward(geometry.Point2D{X: center.X, Y: center.Y + 1}).Distance(at)
	if dx <= 0 || dy <= 0 {
		if dx > 0 {
			return dx
		}
		return dy
	}
	if dy < dx {
		return dy
	}
	return dx
}
