package images

import (
	"math"
	"strings"
)

// ColorSpace selects the encoding produced by TransformColorSpace.
type ColorSpace string

const (
	// HSV stores hue (degrees), saturation (0..1) and value (0..255) as R,G,B.
	HSV ColorSpace = "HSV"
	// HSI stores hue (degrees), saturation (0..1) and intensity (0..255) as R,G,B.
	HSI ColorSpace = "HSI"
	// Passthrough copies R,G,B unchanged.
	Passthrough ColorSpace = "RGB"
)

// ParseColorSpace maps "HSV" and "HSI" (any case) to their ColorSpace.
// Every other value maps to Passthrough.
func ParseColorSpace(s string) ColorSpace {
	switch ColorSpace(strings.ToUpper(strings.TrimSpace(s))) {
	case HSV:
		return HSV
	case HSI:
		return HSI
	default:
		return Passthrough
	}
}

// TransformColorSpace re-encodes every pixel into another color space.
//
// The three computed components are written directly into the R, G and B
// bytes. They are not converted back to displayable RGB, so the output is a
// visualization of the raw numbers: hue saturates at 255 and saturation, being
// a fraction, rounds to 0 or 1.
//
// When threshold is non-nil each component is binarized independently
// (strictly greater than *threshold becomes 255, everything else 0) before
// storage. Alpha is always passed through.
//
// Arguments:
// - img: The source raster.
// - space: HSV, HSI or Passthrough.
// - threshold: Optional binarization threshold.
//
// Returns:
// - A new raster holding the encoded components.
//
// @example
// t := uint8(125)
// hsv := TransformColorSpace(frame, HSV, &t)
func TransformColorSpace(img *Raster, space ColorSpace, threshold *uint8) *Raster {
	var convert func(r, g, b float64) (float64, float64, float64)
	switch space {
	case HSV:
		convert = RGBToHSV
	case HSI:
		convert = RGBToHSI
	default:
		convert = func(r, g, b float64) (float64, float64, float64) { return r, g, b }
	}

	return mapPixels(img, func(dst, src []uint8) {
		c0, c1, c2 := convert(float64(src[0]), float64(src[1]), float64(src[2]))
		if threshold != nil {
			t := float64(*threshold)
			dst[0], dst[1], dst[2] = binarize(c0, t), binarize(c1, t), binarize(c2, t)
		} else {
			dst[0], dst[1], dst[2] = ToByte(c0), ToByte(c1), ToByte(c2)
		}
		dst[3] = src[3]
	})
}

// RGBToHSV converts 8-bit channel values to hue in degrees [0, 360),
// saturation in [0, 1] and value in [0, 255].
//
// Black (max == 0) and grays (max == min) have no defined hue or saturation;
// both are reported as 0.
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	v = maxC

	if maxC == 0 || maxC == minC {
		return 0, 0, v
	}
	s = (maxC - minC) / maxC

	delta := maxC - minC
	rp := (maxC - r) / delta
	gp := (maxC - g) / delta
	bp := (maxC - b) / delta

	switch {
	case r == maxC && g == minC:
		h = 5 + bp
	case r == maxC:
		h = 1 - gp
	case g == maxC && b == minC:
		h = 1 + rp
	case g == maxC:
		h = 3 - bp
	case r == minC:
		h = 3 + gp
	default:
		h = 5 - rp
	}

	return math.Mod(h*60, 360), s, v
}

// RGBToHSI converts 8-bit channel values to hue in degrees [0, 360],
// saturation in [0, 1] and intensity in [0, 255].
//
// Achromatic pixels make the hue denominator vanish and black makes the
// saturation denominator vanish; both report 0 for the undefined component.
func RGBToHSI(r, g, b float64) (h, s, i float64) {
	sum := r + g + b
	i = sum / 3
	if sum == 0 {
		return 0, 0, 0
	}
	s = 1 - (3/sum)*math.Min(r, math.Min(g, b))

	den := math.Sqrt((r-g)*(r-g) + (r-b)*(g-b))
	if den == 0 || s == 0 {
		return 0, s, i
	}

	// The numerator weights only R-G by one half. The ratio can leave
	// [-1, 1] for strongly blue pixels, so it is clamped before acos.
	cos := Clamp((0.5*(r-g)+(r-b))/den, -1, 1)
	h = math.Acos(cos) * 180 / math.Pi
	if b > g {
		h = 360 - h
	}

	return h, s, i
}
