package images

import (
	"bytes"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"

	"github.com/chai2010/webp"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
)

var (
	// ErrEmptyImage is returned when decoding produced no pixels.
	ErrEmptyImage = errors.New("image has no pixels")
	// ErrUnsupportedFormat is returned for data no registered decoder accepts.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Decode decodes encoded image bytes into a raster.
// WebP is detected by its RIFF header; everything else goes through the
// image package registry (png, jpeg, gif, bmp, tiff).
//
// Arguments:
//   - data: The encoded image.
//
// Returns:
//   - *Raster: The decoded pixels.
//   - ImageFormat: The detected format.
//   - error: An error if the bytes cannot be decoded.
func Decode(data []byte) (*Raster, ImageFormat, error) {
	var (
		img    image.Image
		format ImageFormat
		err    error
	)

	if isWebP(data) {
		img, err = webp.Decode(bytes.NewReader(data))
		format = FormatWebP
	} else {
		var name string
		img, name, err = image.Decode(bytes.NewReader(data))
		format = ImageFormat(name)
		if errors.Is(err, image.ErrFormat) {
			return nil, "", ErrUnsupportedFormat
		}
	}
	if err != nil {
		return nil, "", errors.Wrapf(err, "failed to decode %s image", format)
	}
	if img.Bounds().Empty() {
		return nil, format, ErrEmptyImage
	}

	return FromImage(img), format, nil
}

// EncodePNG encodes a raster as PNG.
func EncodePNG(r *Raster) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, r.ToNRGBA()); err != nil {
		return nil, errors.Wrap(err, "failed to encode png")
	}
	return buf.Bytes(), nil
}

// Resize scales a raster to width x height with Lanczos resampling.
// Returns a copy when the size already matches.
//
// Arguments:
//   - r: The source raster.
//   - width: The target width.
//   - height: The target height.
//
// Returns:
//   - *Raster: The resized raster.
//   - error: An error if the target size is not positive.
func Resize(r *Raster, width, height int) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid target size %dx%d", width, height)
	}
	if r.Width == width && r.Height == height {
		return r.Clone(), nil
	}

	resized := resize.Resize(uint(width), uint(height), r.ToNRGBA(), resize.Lanczos3)
	return FromImage(resized), nil
}

// isWebP reports whether data starts with a RIFF/WEBP header.
func isWebP(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}
