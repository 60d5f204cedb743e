package common

import (
	"fmt"
	"image"
	"math"
)

// Landmark is a named sub-region of a face, described by its center and size.
type Landmark struct {
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// Rect returns the landmark as an integer rectangle.
func (l Landmark) Rect() image.Rectangle {
	x0 := int(math.Floor(l.CenterX - l.Width/2))
	y0 := int(math.Floor(l.CenterY - l.Height/2))
	return image.Rect(x0, y0, x0+int(math.Ceil(l.Width)), y0+int(math.Ceil(l.Height)))
}

// LandmarkFromRect describes a rectangle as a Landmark.
func LandmarkFromRect(r image.Rectangle) Landmark {
	return Landmark{
		CenterX: float64(r.Min.X) + float64(r.Dx())/2,
		CenterY: float64(r.Min.Y) + float64(r.Dy())/2,
		Width:   float64(r.Dx()),
		Height:  float64(r.Dy()),
	}
}

// FaceRegion is the geometric descriptor a face detector produces for a
// single face: a bounding box plus the landmark regions the overlay uses.
//
// A nil *FaceRegion means no face was detected.
type FaceRegion struct {
	// XMin, YMin is the top-left corner of the bounding box.
	XMin float64 `json:"xMin"`
	YMin float64 `json:"yMin"`
	// Width, Height is the extent of the bounding box.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	FaceOval Landmark `json:"faceOval"`
	LeftEye  Landmark `json:"leftEye"`
	RightEye Landmark `json:"rightEye"`
	Lips     Landmark `json:"lips"`
}

// PixelBox converts the floating point bounding box to pixel units.
// The origin is floored and the extent is rounded up, so the box never
// loses a partially covered pixel. A nil region yields the zero Box.
func (f *FaceRegion) PixelBox() Box {
	if f == nil {
		return Box{}
	}
	return Box{
		X: int(math.Floor(f.XMin)),
		Y: int(math.Floor(f.YMin)),
		W: int(math.Ceil(f.Width)),
		H: int(math.Ceil(f.Height)),
	}
}

// BoxOr returns the face's pixel box, or a box covering the whole
// width x height canvas when no face is present.
func (f *FaceRegion) BoxOr(width, height int) Box {
	if f == nil {
		return Box{W: width, H: height}
	}
	return f.PixelBox()
}

func (f *FaceRegion) String() string {
	if f == nil {
		return "face(none)"
	}
	return fmt.Sprintf("face(%.1f,%.1f %.1fx%.1f)", f.XMin, f.YMin, f.Width, f.Height)
}

// Scale returns a copy of the region with every coordinate multiplied by
// sx horizontally and sy vertically. A nil region stays nil.
func (f *FaceRegion) Scale(sx, sy float64) *FaceRegion {
	if f == nil {
		return nil
	}
	scale := func(l Landmark) Landmark {
		return Landmark{CenterX: l.CenterX * sx, CenterY: l.CenterY * sy, Width: l.Width * sx, Height: l.Height * sy}
	}
	return &FaceRegion{
		XMin:     f.XMin * sx,
		YMin:     f.YMin * sy,
		Width:    f.Width * sx,
		Height:   f.Height * sy,
		FaceOval: scale(f.FaceOval),
		LeftEye:  scale(f.LeftEye),
		RightEye: scale(f.RightEye),
		Lips:     scale(f.Lips),
	}
}
