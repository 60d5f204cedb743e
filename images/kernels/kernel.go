// Package kernels implements NxN kernel convolution over images.Raster buffers.
package kernels

import (
	"github.com/nvr-ai/go-facefilter/images"
)

// Kernel is a square matrix of convolution weights.
// Values[i][j] weighs the tap at horizontal offset i and vertical offset j.
type Kernel struct {
	Values [][]float64
	Size   int
}

// NewKernel creates a kernel from a square 2D slice.
// Rows shorter than the kernel size read as zero weights.
func NewKernel(values [][]float64) *Kernel {
	return &Kernel{Values: values, Size: len(values)}
}

// NewBoxKernel returns a level x level kernel whose weights are all
// 1/level², so they sum to one.
func NewBoxKernel(level int) *Kernel {
	if level < 1 {
		level = 1
	}
	w := 1 / float64(level*level)
	values := make([][]float64, level)
	for i := range values {
		values[i] = make([]float64, level)
		for j := range values[i] {
			values[i][j] = w
		}
	}
	return NewKernel(values)
}

// Offset is the distance from the kernel's first tap to its center.
func (k *Kernel) Offset() int { return k.Size / 2 }

func (k *Kernel) weight(i, j int) float64 {
	if j >= len(k.Values[i]) {
		return 0
	}
	return k.Values[i][j]
}

// Convolve applies the kernel around every pixel and returns the weighted
// R, G, B sums in flat pixel order (index y*Width + x).
//
// Out-of-bounds taps are not clamped per coordinate. Instead the flat buffer
// index of the tap is clamped into [0, len(Pix)-offset]. Taps left of the
// image therefore read from the end of the previous row, and taps above it
// read pixel 0. The resulting slight smear along the borders is expected
// output. Bytes past the end of the buffer read as zero.
//
// No normalization is applied beyond the kernel's own weights.
//
// Arguments:
// - img: The source raster.
// - k: The kernel.
//
// Returns:
// - One [R, G, B] triple per pixel.
//
// @example
// sums := Convolve(frame, NewBoxKernel(3))
func Convolve(img *images.Raster, k *Kernel) [][3]float64 {
	out := make([][3]float64, img.Len())
	if k == nil || k.Size == 0 {
		return out
	}

	offset := k.Offset()
	upper := len(img.Pix) - offset

	at := func(i int) float64 {
		if i < len(img.Pix) {
			return float64(img.Pix[i])
		}
		return 0
	}

	images.Parallel(img.Height, func(partStart, partEnd int) {
		for y := partStart; y < partEnd; y++ {
			for x := 0; x < img.Width; x++ {
				var sum [3]float64
				for i := 0; i < k.Size; i++ {
					for j := 0; j < k.Size; j++ {
						xLoc := x + i - offset
						yLoc := y + j - offset
						idx := clampIndex((img.Width*yLoc+xLoc)*4, 0, upper)
						w := k.weight(i, j)
						sum[0] += at(idx) * w
						sum[1] += at(idx+1) * w
						sum[2] += at(idx+2) * w
					}
				}
				out[y*img.Width+x] = sum
			}
		}
	})

	return out
}

func clampIndex(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
