package detector

import (
	"context"
	"image"
	"sort"
	"sync"

	"github.com/nvr-ai/go-facefilter/common"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ErrCascadeLoad is returned when a Haar cascade file cannot be loaded.
var ErrCascadeLoad = errors.New("failed to load cascade classifier")

// CascadeConfig configures the Haar cascade detector.
type CascadeConfig struct {
	// FaceCascade is the path to a frontal face cascade XML file.
	FaceCascade string
	// EyeCascade is an optional path to an eye cascade XML file. Without it,
	// eye positions are estimated from the face box.
	EyeCascade string
	// ScaleFactor is the image pyramid step (default 1.1).
	ScaleFactor float64
	// MinNeighbors is the number of overlapping hits required (default 3).
	MinNeighbors int
	// MinSize is the smallest face considered, in pixels.
	MinSize int
}

// Cascade detects the largest face in a frame with OpenCV Haar cascades and
// derives the landmark regions the overlay needs.
//
// Cascades give rectangles only, so the oval is the face box itself, the eyes
// come from the eye cascade when two are found in the upper half of the face,
// and the lips are placed proportionally.
//
// Cascade is safe for concurrent use; calls are serialized.
type Cascade struct {
	mu     sync.Mutex
	cfg    CascadeConfig
	face   gocv.CascadeClassifier
	eyes   gocv.CascadeClassifier
	hasEye bool
}

// NewCascade loads the configured cascade files.
//
// Arguments:
// - cfg: Cascade paths and detection parameters.
//
// Returns:
// - *Cascade: The detector. Call Close when finished.
// - error: ErrCascadeLoad (wrapped) if a file cannot be loaded.
func NewCascade(cfg CascadeConfig) (*Cascade, error) {
	if cfg.ScaleFactor <= 1 {
		cfg.ScaleFactor = 1.1
	}
	if cfg.MinNeighbors <= 0 {
		cfg.MinNeighbors = 3
	}

	c := &Cascade{cfg: cfg, face: gocv.NewCascadeClassifier()}
	if !c.face.Load(cfg.FaceCascade) {
		c.face.Close()
		return nil, errors.Wrapf(ErrCascadeLoad, "face cascade %q", cfg.FaceCascade)
	}

	if cfg.EyeCascade != "" {
		c.eyes = gocv.NewCascadeClassifier()
		if !c.eyes.Load(cfg.EyeCascade) {
			c.face.Close()
			c.eyes.Close()
			return nil, errors.Wrapf(ErrCascadeLoad, "eye cascade %q", cfg.EyeCascade)
		}
		c.hasEye = true
	}

	return c, nil
}

// Close releases the native classifiers.
func (c *Cascade) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.face.Close()
	if c.hasEye {
		if e := c.eyes.Close(); err == nil {
			err = e
		}
	}
	return err
}

// Detect implements Detector.
func (c *Cascade) Detect(ctx context.Context, img image.Image) (*common.FaceRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert frame to mat")
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorRGBToGray)

	c.mu.Lock()
	defer c.mu.Unlock()

	minSize := image.Pt(c.cfg.MinSize, c.cfg.MinSize)
	faces := c.face.DetectMultiScaleWithParams(gray, c.cfg.ScaleFactor, c.cfg.MinNeighbors, 0, minSize, image.Point{})
	if len(faces) == 0 {
		return nil, nil
	}

	// Single-face mode: keep the largest detection.
	sort.Slice(faces, func(i, j int) bool {
		return area(faces[i]) > area(faces[j])
	})
	faceRect := faces[0].Intersect(img.Bounds().Sub(img.Bounds().Min))

	var eyes []image.Rectangle
	if c.hasEye {
		roi := gray.Region(faceRect)
		for _, e := range c.eyes.DetectMultiScaleWithParams(roi, c.cfg.ScaleFactor, c.cfg.MinNeighbors, 0, image.Point{}, image.Point{}) {
			eyes = append(eyes, e.Add(faceRect.Min))
		}
		roi.Close()
	}

	return EstimateLandmarks(faceRect, eyes), nil
}

// EstimateLandmarks builds a FaceRegion from a face rectangle and any eye
// rectangles found inside it.
//
// The two largest eyes in the upper half of the face are used when present;
// otherwise the eyes are placed at fixed proportions of the face box. The
// left eye is the subject's left, which is the right-hand eye in an
// unmirrored frame.
//
// Arguments:
// - face: The face bounding box.
// - eyes: Candidate eye boxes in frame coordinates; may be empty.
//
// Returns:
// - The face region with all landmarks set.
func EstimateLandmarks(face image.Rectangle, eyes []image.Rectangle) *common.FaceRegion {
	w, h := float64(face.Dx()), float64(face.Dy())
	x0, y0 := float64(face.Min.X), float64(face.Min.Y)

	proportional := func(cx, cy, ew, eh float64) common.Landmark {
		return common.Landmark{CenterX: x0 + cx*w, CenterY: y0 + cy*h, Width: ew * w, Height: eh * h}
	}

	region := &common.FaceRegion{
		XMin:     x0,
		YMin:     y0,
		Width:    w,
		Height:   h,
		FaceOval: common.LandmarkFromRect(face),
		RightEye: proportional(0.30, 0.38, 0.18, 0.10),
		LeftEye:  proportional(0.70, 0.38, 0.18, 0.10),
		Lips:     proportional(0.50, 0.78, 0.36, 0.12),
	}

	upper := image.Rect(face.Min.X, face.Min.Y, face.Max.X, face.Min.Y+face.Dy()/2)
	var candidates []image.Rectangle
	for _, e := range eyes {
		if e.Min.Add(e.Size().Div(2)).In(upper) {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) < 2 {
		return region
	}

	sort.Slice(candidates, func(i, j int) bool {
		return area(candidates[i]) > area(candidates[j])
	})
	a, b := candidates[0], candidates[1]
	if a.Min.X > b.Min.X {
		a, b = b, a
	}
	region.RightEye = common.LandmarkFromRect(a)
	region.LeftEye = common.LandmarkFromRect(b)

	return region
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}
