package kernels

import (
	"sync"

	"github.com/nvr-ai/go-facefilter/images"
)

// Pool lets callers reuse output rasters to reduce GC pressure when the same
// filter runs on every frame.
type Pool struct {
	rasters sync.Pool // *images.Raster
}

// GetRaster returns a width x height raster, reusing a pooled one when the
// size matches. A nil pool always allocates. Reused rasters are not cleared.
func (p *Pool) GetRaster(width, height int) *images.Raster {
	if p == nil {
		return images.NewRaster(width, height)
	}
	if v := p.rasters.Get(); v != nil {
		r := v.(*images.Raster)
		if r.Width == width && r.Height == height {
			return r
		}
	}
	return images.NewRaster(width, height)
}

// PutRaster hands a raster back for reuse. The caller must not touch it
// afterwards.
func (p *Pool) PutRaster(r *images.Raster) {
	if p == nil || r == nil {
		return
	}
	p.rasters.Put(r)
}

// Blur applies a level x level box blur through Convolve.
//
// Color channels come from the convolution, rounded and clamped to [0, 255].
// Alpha is copied from the input so a masked crop stays transparent outside
// its region. A level of 1 or less returns a copy.
//
// Arguments:
// - img: The source raster.
// - level: The box size.
// - pool: Optional raster pool for the output; may be nil.
//
// Returns:
// - A new blurred raster.
//
// @example
// blurred := Blur(face, 10, nil)
func Blur(img *images.Raster, level int, pool *Pool) *images.Raster {
	out := pool.GetRaster(img.Width, img.Height)
	if level <= 1 {
		copy(out.Pix, img.Pix)
		return out
	}

	sums := Convolve(img, NewBoxKernel(level))
	for p, c := range sums {
		i := p * 4
		out.Pix[i+0] = images.ToByte(c[0])
		out.Pix[i+1] = images.ToByte(c[1])
		out.Pix[i+2] = images.ToByte(c[2])
		out.Pix[i+3] = img.Pix[i+3]
	}

	return out
}

// BlurFilter adapts Blur to the images.Filter signature.
func BlurFilter(level int, pool *Pool) images.Filter {
	return func(r *images.Raster) *images.Raster {
		return Blur(r, level, pool)
	}
}
