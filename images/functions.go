// Package images - provides pure, non-mutating pixel filters over Raster buffers.
package images

import (
	"math"
	"runtime"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Brightness is the factor applied to the channel average by Grayscale.
const Brightness = 1.2

// Filter is any raster-to-raster transformation. Implementations must not
// mutate their input.
type Filter func(*Raster) *Raster

// Channel selects one of the color channels of a pixel.
type Channel int

const (
	// Red is the first channel of a pixel.
	Red Channel = iota
	// Green is the second channel of a pixel.
	Green
	// Blue is the third channel of a pixel.
	Blue
)

// String returns the lower-case channel name.
func (c Channel) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	default:
		return "unknown"
	}
}

// Valid reports whether c names one of the color channels.
func (c Channel) Valid() bool {
	return c >= Red && c <= Blue
}

// ParseChannel converts "red", "green" or "blue" (any case) into a Channel.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red", "r":
		return Red, nil
	case "green", "g":
		return Green, nil
	case "blue", "b":
		return Blue, nil
	}
	return Red, errors.Errorf("unknown channel %q", s)
}

// Invert replaces every color channel with its complement (255 - v).
// Alpha is passed through unchanged, so transparent pixels stay transparent.
//
// Arguments:
// - img: The source raster.
//
// Returns:
// - A new inverted raster with the same dimensions.
//
// @example
// negative := Invert(frame)
func Invert(img *Raster) *Raster {
	return mapPixels(img, func(dst, src []uint8) {
		dst[0] = 255 - src[0]
		dst[1] = 255 - src[1]
		dst[2] = 255 - src[2]
		dst[3] = src[3]
	})
}

// Grayscale averages the color channels and brightens the result by 20%.
//
// The average (R+G+B)/3 is multiplied by Brightness and clamped to 255. Only
// the upper bound is clamped: the average can never be negative.
//
// Arguments:
// - img: The source raster.
//
// Returns:
// - A new raster where R == G == B for every pixel, alpha preserved.
//
// @example
// gray := Grayscale(frame)
func Grayscale(img *Raster) *Raster {
	return mapPixels(img, func(dst, src []uint8) {
		avg := (float64(src[0]) + float64(src[1]) + float64(src[2])) / 3
		avg *= Brightness
		if avg > 255 {
			avg = 255
		}
		v := uint8(math.Round(avg))
		dst[0], dst[1], dst[2] = v, v, v
		dst[3] = src[3]
	})
}

// ChannelIsolate keeps the selected channel and zeroes the other two.
// An unknown channel zeroes all three.
//
// Arguments:
// - img: The source raster.
// - channel: The channel to keep.
//
// Returns:
// - A new raster containing a single color channel, alpha preserved.
//
// @example
// reds := ChannelIsolate(frame, Red)
func ChannelIsolate(img *Raster, channel Channel) *Raster {
	return mapPixels(img, func(dst, src []uint8) {
		dst[0], dst[1], dst[2] = 0, 0, 0
		if channel.Valid() {
			dst[channel] = src[channel]
		}
		dst[3] = src[3]
	})
}

// Threshold isolates a channel and binarizes it: values strictly greater
// than t become 255, everything else 0. An unknown channel yields the same
// all-zero color as ChannelIsolate.
//
// Arguments:
// - img: The source raster.
// - channel: The channel to keep.
// - t: The threshold in [0, 255].
//
// Returns:
// - A new raster whose selected channel holds only 0 or 255.
//
// @example
// mask := Threshold(frame, Green, 125)
func Threshold(img *Raster, channel Channel, t uint8) *Raster {
	if !channel.Valid() {
		return ChannelIsolate(img, channel)
	}
	return mapPixels(ChannelIsolate(img, channel), func(dst, src []uint8) {
		copy(dst, src)
		dst[channel] = binarize(float64(src[channel]), float64(t))
	})
}

// binarize maps v to 255 when strictly above t and to 0 otherwise.
func binarize(v, t float64) uint8 {
	if v > t {
		return 255
	}
	return 0
}

// mapPixels allocates an output raster and applies fn to every pixel.
// dst and src are the 4-byte RGBA slices of the same pixel.
func mapPixels(img *Raster, fn func(dst, src []uint8)) *Raster {
	out := NewRaster(img.Width, img.Height)
	stride := img.Width * 4

	Parallel(img.Height, func(partStart, partEnd int) {
		for y := partStart; y < partEnd; y++ {
			row := y * stride
			for i := row; i < row+stride; i += 4 {
				fn(out.Pix[i:i+4:i+4], img.Pix[i:i+4:i+4])
			}
		}
	})

	return out
}

// Clamp restricts a value to the specified range [min, max].
// This is used to prevent overflow in color calculations.
//
// Arguments:
// - value: The value to Clamp.
// - min: Minimum allowed value.
// - max: Maximum allowed value.
//
// Returns:
// - The clamped value within [min, max].
//
// @example
// clamped := Clamp(300.5, 0, 255) // Returns 255
// clamped := Clamp(-10.0, 0, 255) // Returns 0
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ToByte converts a channel value to 8 bits the way a canvas pixel array
// does for filter output: NaN becomes 0, the value is clamped to [0, 255]
// and rounded to nearest.
func ToByte(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	return uint8(math.Round(Clamp(v, 0, 255)))
}

// Parallel executes a function in Parallel across multiple goroutines.
// Each partition receives a disjoint [partStart, partEnd) range, so filters
// writing one output row per index never race.
//
// Arguments:
// - dataSize: The size of the data to process.
// - fn: Function to execute for each partition (receives start and end indices).
//
// @example
//
//	Parallel(height, func(start, end int) {
//	    for y := start; y < end; y++ {
//	        // Process row y
//	    }
//	})
func Parallel(dataSize int, fn func(partStart, partEnd int)) {
	numGoroutines := runtime.NumCPU()

	// Small rasters are not worth the goroutine overhead.
	if dataSize < numGoroutines*2 {
		fn(0, dataSize)
		return
	}

	partSize := dataSize / numGoroutines

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		partStart := i * partSize
		partEnd := partStart + partSize

		// Last partition gets any remaining data.
		if i == numGoroutines-1 {
			partEnd = dataSize
		}

		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(partStart, partEnd)
	}

	wg.Wait()
}
