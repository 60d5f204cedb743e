package gallery

import (
	"strings"

	"github.com/nvr-ai/go-facefilter/config"
	"github.com/nvr-ai/go-facefilter/images"
	"github.com/nvr-ai/go-facefilter/images/kernels"
	"github.com/pkg/errors"
)

// Mode is the filter applied to the detected face region.
type Mode int

const (
	// ModeNone outlines the face instead of filtering it.
	ModeNone Mode = iota
	ModeGrayscale
	ModeBlur
	ModeColorSpace
	ModePixelated
	ModeInverted
)

var modeNames = map[Mode]string{
	ModeNone:       "none",
	ModeGrayscale:  "grayscale",
	ModeBlur:       "blur",
	ModeColorSpace: "colorSpace",
	ModePixelated:  "pixelated",
	ModeInverted:   "inverted",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return ModeNone, errors.Errorf("unknown filter mode %q", s)
}

// Next returns the mode selected by key. Keys '1' to '5' pick grayscale, blur,
// colorSpace, pixelated and inverted; '6' turns filtering off. Any other key
// keeps the current mode.
func (m Mode) Next(key rune) Mode {
	switch key {
	case '1':
		return ModeGrayscale
	case '2':
		return ModeBlur
	case '3':
		return ModeColorSpace
	case '4':
		return ModePixelated
	case '5':
		return ModeInverted
	case '6':
		return ModeNone
	default:
		return m
	}
}

// ModeFilter returns the filter for m, or nil for ModeNone.
//
// Arguments:
// - m: The selected mode.
// - cfg: Blur level and pixelation settings.
// - pool: Output rasters for the blur; may be nil.
//
// Returns:
// - The filter to pass to images.ApplyToRegion.
func ModeFilter(m Mode, cfg config.Filters, pool *kernels.Pool) images.Filter {
	switch m {
	case ModeGrayscale:
		return images.Grayscale
	case ModeBlur:
		return kernels.BlurFilter(cfg.BlurLevel, pool)
	case ModeColorSpace:
		return func(img *images.Raster) *images.Raster {
			return images.TransformColorSpace(img, images.HSV, nil)
		}
	case ModePixelated:
		opt := images.PixelateOptions{BlockSize: cfg.BlockSize, LegacyRowBound: cfg.LegacyRowBound}
		return func(img *images.Raster) *images.Raster {
			return images.Pixelate(img, opt)
		}
	case ModeInverted:
		return images.Invert
	default:
		return nil
	}
}
