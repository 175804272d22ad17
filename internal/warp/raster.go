// Package warp resamples a source raster through a fitted transformation
// onto a map-aligned output grid. The same routine serves interactive
// preview (small extent, coarse resolution) and export (full extent,
// native resolution).
package warp

import (
	"image"
	"image/draw"
)

// Raster is an in-memory interleaved pixel buffer: Pix holds
// Width*Height*Channels bytes in row-major order.
type Raster struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewRaster allocates a zeroed raster.
func NewRaster(width, height, channels int) *Raster {
	return &Raster{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// At returns the sample at pixel (x, y), channel c. Callers must stay in
// bounds.
func (r *Raster) At(x, y, c int) uint8 {
	return r.Pix[(y*r.Width+x)*r.Channels+c]
}

// Set writes the sample at pixel (x, y), channel c.
func (r *Raster) Set(x, y, c int, v uint8) {
	r.Pix[(y*r.Width+x)*r.Channels+c] = v
}

// FromImage converts any image.Image into a 4-channel RGBA raster.
func FromImage(img image.Image) *Raster {
	b := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	return &Raster{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Channels: 4,
		Pix:      nrgba.Pix,
	}
}

// ToImage converts the raster to an NRGBA image. Single-channel rasters
// are expanded to gray, 3-channel to opaque RGB. Pixels flagged invalid
// in mask are fully transparent; a nil mask means all pixels are valid.
func (r *Raster) ToImage(mask []bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for i := 0; i < r.Width*r.Height; i++ {
		var red, green, blue, alpha uint8
		base := i * r.Channels
		switch r.Channels {
		case 1:
			red, green, blue, alpha = r.Pix[base], r.Pix[base], r.Pix[base], 255
		case 3:
			red, green, blue, alpha = r.Pix[base], r.Pix[base+1], r.Pix[base+2], 255
		default:
			red, green, blue, alpha = r.Pix[base], r.Pix[base+1], r.Pix[base+2], r.Pix[base+3]
		}
		if mask != nil && !mask[i] {
			alpha = 0
		}
		img.Pix[i*4] = red
		img.Pix[i*4+1] = green
		img.Pix[i*4+2] = blue
		img.Pix[i*4+3] = alpha
	}
	return img
}
