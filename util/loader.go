package util

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nvr-ai/go-facefilter/images"
	"github.com/pkg/errors"
)

// framePrefix is the file name prefix of numbered snapshots.
const framePrefix = "frame-"

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
	// Frame is the frame number parsed from a "frame-N" name.
	Frame int
}

// Raster decodes the file contents.
func (f ImageFile) Raster() (*images.Raster, error) {
	r, _, err := images.Decode(f.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", f.Path)
	}
	return r, nil
}

func isImageExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff", ".webp":
		return true
	}
	return false
}

// LoadDirectoryImageFiles reads all "frame-N" image files from a directory,
// ordered by frame number.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: Slice of ImageFile, each containing the raw bytes of an image file.
// - error: Error if loading fails or a file name has no frame number.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory %s", dir)
	}

	var frames []ImageFile
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		ext := filepath.Ext(file.Name())
		if !isImageExt(ext) {
			continue
		}

		frame, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(file.Name(), framePrefix), ext))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid frame file name %s", file.Name())
		}

		imgPath := filepath.Join(dir, file.Name())
		data, err := os.ReadFile(imgPath)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", imgPath)
		}

		frames = append(frames, ImageFile{
			Path:  imgPath,
			Data:  data,
			Frame: frame,
		})
	}

	sort.Slice(frames, func(i, j int) bool {
		return frames[i].Frame < frames[j].Frame
	})

	return frames, nil
}

// NextFramePath returns the path of the next numbered snapshot in dir,
// creating dir if needed.
func NextFramePath(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create %s", dir)
	}

	frames, err := LoadDirectoryImageFiles(dir)
	if err != nil {
		return "", err
	}

	next := 0
	if len(frames) > 0 {
		next = frames[len(frames)-1].Frame + 1
	}
	return filepath.Join(dir, fmt.Sprintf("%s%d.png", framePrefix, next)), nil
}

// LoadRaster reads and decodes an image file.
//
// Arguments:
// - path: Any format images.Decode supports.
//
// Returns:
// - *images.Raster: The decoded pixels.
// - error: Error if the file cannot be read or decoded.
func LoadRaster(path string) (*images.Raster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return ImageFile{Path: path, Data: data}.Raster()
}

// SaveRaster encodes r by the extension of path (.png, .jpg or .jpeg) and
// writes it.
func SaveRaster(path string, r *images.Raster) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		data, err = images.EncodePNG(r)
	case ".jpg", ".jpeg":
		var buf bytes.Buffer
		err = jpeg.Encode(&buf, r.ToNRGBA(), &jpeg.Options{Quality: 90})
		data = buf.Bytes()
	default:
		return errors.Wrapf(images.ErrUnsupportedFormat, "cannot encode %s", path)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", path)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
