// Package images - Raster definition and pixel filters for the face filter toolkit.
package images

import (
	"image"
	"image/color"
	"image/draw"
)

// Raster is a fixed-size RGBA pixel grid stored as a flat buffer.
//
// Pixels are row-major with interleaved, non-premultiplied R,G,B,A bytes, the
// same layout a canvas exposes through its pixel array. len(Pix) is always
// Width*Height*4.
type Raster struct {
	// The width of the raster in pixels.
	Width int `json:"width" yaml:"width"`
	// The height of the raster in pixels.
	Height int `json:"height" yaml:"height"`
	// The pixel data.
	Pix []uint8 `json:"-" yaml:"-"`
}

// NewRaster allocates a zero-filled raster of the given size.
// Negative dimensions are treated as zero.
//
// Arguments:
// - width: Width in pixels.
// - height: Height in pixels.
//
// Returns:
// - A raster whose pixels are all (0,0,0,0).
//
// @example
// r := NewRaster(160, 120)
func NewRaster(width, height int) *Raster {
	width = max(width, 0)
	height = max(height, 0)
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// FromImage copies any image.Image into a new raster.
// The source bounds are translated so the raster origin is (0,0).
//
// Arguments:
// - img: The source image.
//
// Returns:
// - A raster holding the non-premultiplied pixels of img.
func FromImage(img image.Image) *Raster {
	if r, ok := img.(*Raster); ok {
		return r.Clone()
	}

	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)

	return &Raster{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    dst.Pix,
	}
}

// Clone returns a deep copy of the raster.
func (r *Raster) Clone() *Raster {
	out := &Raster{Width: r.Width, Height: r.Height, Pix: make([]uint8, len(r.Pix))}
	copy(out.Pix, r.Pix)
	return out
}

// Offset returns the index of the first byte of pixel (x, y).
func (r *Raster) Offset(x, y int) int {
	return (y*r.Width + x) * 4
}

// RGBAAt returns the pixel at (x, y), or the zero color if out of bounds.
func (r *Raster) RGBAAt(x, y int) color.NRGBA {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return color.NRGBA{}
	}
	i := r.Offset(x, y)
	p := r.Pix[i : i+4 : i+4]
	return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

// SetRGBA writes the pixel at (x, y). Out-of-bounds writes are ignored.
func (r *Raster) SetRGBA(x, y int, c color.NRGBA) {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return
	}
	i := r.Offset(x, y)
	p := r.Pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
}

// ColorModel implements image.Image.
func (r *Raster) ColorModel() color.Model { return color.NRGBAModel }

// Bounds implements image.Image.
func (r *Raster) Bounds() image.Rectangle { return image.Rect(0, 0, r.Width, r.Height) }

// At implements image.Image.
func (r *Raster) At(x, y int) color.Color { return r.RGBAAt(x, y) }

// ToNRGBA wraps a copy of the pixel buffer as an *image.NRGBA for encoders
// and drawing code.
func (r *Raster) ToNRGBA() *image.NRGBA {
	c := r.Clone()
	return &image.NRGBA{
		Pix:    c.Pix,
		Stride: r.Width * 4,
		Rect:   r.Bounds(),
	}
}

// Len returns the number of pixels in the raster.
func (r *Raster) Len() int { return r.Width * r.Height }
