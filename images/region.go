package images

import (
	"image"

	"github.com/nvr-ai/go-facefilter/common"
)

// CropRegion performs a masked copy of the pixels inside box.
//
// The output keeps the full canvas size: pixels outside the box are left at
// (0,0,0,0) so that a later CompositeFilteredRegion lets the base image show
// through them. The box is clipped to the raster; callers are still expected
// to pass in-bounds boxes.
//
// Arguments:
// - img: The source raster.
// - box: The region to keep.
//
// Returns:
// - A new raster with the same dimensions as img.
//
// @example
// face := CropRegion(frame, common.Box{X: 40, Y: 20, W: 60, H: 70})
func CropRegion(img *Raster, box common.Box) *Raster {
	out := NewRaster(img.Width, img.Height)

	b := box.Clip(img.Width, img.Height)
	if b.Empty() {
		return out
	}

	n := b.W * 4
	for y := b.Y; y < b.Y+b.H; y++ {
		off := img.Offset(b.X, y)
		copy(out.Pix[off:off+n], img.Pix[off:off+n])
	}

	return out
}

// CompositeFilteredRegion draws full, then overlays filtered at (x, y) using
// source-over alpha compositing.
//
// Transparent pixels of filtered leave full visible, which is what
// CropRegion's zero fill relies on. A filter that forces alpha to 255 outside
// the region would hide the base image there.
//
// Arguments:
// - full: The base raster.
// - filtered: The raster to overlay.
// - x, y: The offset of filtered relative to full.
//
// Returns:
// - A new raster with the dimensions of full.
func CompositeFilteredRegion(full, filtered *Raster, x, y int) *Raster {
	out := full.Clone()

	dst := filtered.Bounds().Add(image.Pt(x, y)).Intersect(full.Bounds())
	for dy := dst.Min.Y; dy < dst.Max.Y; dy++ {
		for dx := dst.Min.X; dx < dst.Max.X; dx++ {
			si := filtered.Offset(dx-x, dy-y)
			di := out.Offset(dx, dy)
			over(out.Pix[di:di+4:di+4], filtered.Pix[si:si+4:si+4])
		}
	}

	return out
}

// over blends the non-premultiplied src pixel onto dst in place.
// Fully transparent sources leave dst untouched and opaque sources replace
// it exactly.
func over(dst, src []uint8) {
	switch src[3] {
	case 0:
		return
	case 255:
		copy(dst, src)
		return
	}

	sa := float64(src[3]) / 255
	da := float64(dst[3]) / 255
	outA := sa + da*(1-sa)
	for c := 0; c < 3; c++ {
		v := (float64(src[c])*sa + float64(dst[c])*da*(1-sa)) / outA
		dst[c] = ToByte(v)
	}
	dst[3] = ToByte(outA * 255)
}

// ApplyToRegion runs filter on the pixels inside box only: crop, filter,
// then composite back over the untouched image.
//
// Arguments:
// - full: The source raster.
// - box: The region to filter.
// - filter: Any alpha-preserving filter.
//
// Returns:
// - A new raster where only box has been filtered.
//
// @example
// out := ApplyToRegion(frame, face.PixelBox(), Invert)
func ApplyToRegion(full *Raster, box common.Box, filter Filter) *Raster {
	if filter == nil {
		return full.Clone()
	}
	return CompositeFilteredRegion(full, filter(CropRegion(full, box)), 0, 0)
}
