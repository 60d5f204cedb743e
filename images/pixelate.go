package images

import "math"

// DefaultBlockSize is the edge length of a pixelation block.
const DefaultBlockSize = 5

// PixelateOptions configures Pixelate.
type PixelateOptions struct {
	// BlockSize is the edge length of each block. Values < 1 use DefaultBlockSize.
	BlockSize int `json:"block_size" yaml:"block_size"`
	// LegacyRowBound bounds the row scan by the raster width instead of its
	// height. Earlier releases did this; on portrait rasters it leaves the rows
	// below Width un-averaged. Kept so old output can be reproduced.
	LegacyRowBound bool `json:"legacy_row_bound" yaml:"legacy_row_bound"`
}

// block is one averaging group: the flat buffer offsets of its members and
// the rounded mean RGBA painted back onto them.
type block struct {
	indices []int
	avg     [4]uint8
}

// Pixelate partitions the raster into square blocks and paints every block
// with the rounded mean of the input pixels it covers. The means are painted
// over a grayscale copy of the input.
//
// Blocks touching the right or bottom edge are clipped to the raster and may
// be smaller than BlockSize. Every pixel belongs to exactly one block unless
// LegacyRowBound leaves some rows out, in which case those rows keep their
// grayscale value.
//
// Arguments:
// - img: The source raster.
// - opt: Block size and row-bound behaviour.
//
// Returns:
// - A new pixelated raster with the same dimensions.
//
// @example
// mosaic := Pixelate(face, PixelateOptions{BlockSize: 8})
func Pixelate(img *Raster, opt PixelateOptions) *Raster {
	size := opt.BlockSize
	if size < 1 {
		size = DefaultBlockSize
	}

	out := Grayscale(img)

	rowBound := img.Height
	if opt.LegacyRowBound {
		rowBound = img.Width
	}

	blocks := make([]block, 0, (img.Width/size+1)*(rowBound/size+1))
	for x := 0; x < img.Width; x += size {
		for y := 0; y < rowBound; y += size {
			if b, ok := collectBlock(img, x, y, size); ok {
				blocks = append(blocks, b)
			}
		}
	}

	for _, b := range blocks {
		for _, idx := range b.indices {
			copy(out.Pix[idx:idx+4], b.avg[:])
		}
	}

	return out
}

// collectBlock records the members of the block whose top-left corner is
// (x0, y0) and computes their mean. It reports false when the block lies
// entirely outside the raster.
func collectBlock(img *Raster, x0, y0, size int) (block, bool) {
	xEnd := min(x0+size, img.Width)
	yEnd := min(y0+size, img.Height)
	if x0 >= xEnd || y0 >= yEnd {
		return block{}, false
	}

	b := block{indices: make([]int, 0, (xEnd-x0)*(yEnd-y0))}
	var sum [4]float64
	for i := x0; i < xEnd; i++ {
		for j := y0; j < yEnd; j++ {
			idx := img.Offset(i, j)
			b.indices = append(b.indices, idx)
			for c := 0; c < 4; c++ {
				sum[c] += float64(img.Pix[idx+c])
			}
		}
	}

	n := float64(len(b.indices))
	for c := 0; c < 4; c++ {
		b.avg[c] = uint8(math.Round(sum[c] / n))
	}

	return b, true
}
