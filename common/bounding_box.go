package common

import (
	"fmt"
	"image"
)

// Box is an integer, axis-aligned region given by its top-left corner and
// extent. The covered pixels are [X, X+W) x [Y, Y+H).
type Box struct {
	X, Y, W, H int
}

// String formats the box for logs.
func (b Box) String() string {
	return fmt.Sprintf("box(%d,%d %dx%d)", b.X, b.Y, b.W, b.H)
}

// ToRect converts the box to an image.Rectangle.
//
// Returns:
// - An image.Rectangle with canonicalized coordinates.
//
// @example
// box := Box{X: 10, Y: 20, W: 30, H: 40}
// rect := box.ToRect() // (10,20)-(40,60)
func (b Box) ToRect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H).Canon()
}

// Empty reports whether the box covers no pixels.
func (b Box) Empty() bool {
	return b.W <= 0 || b.H <= 0
}

// Clip returns the part of the box inside a width x height canvas.
//
// Arguments:
// - width: Canvas width.
// - height: Canvas height.
//
// Returns:
// - The intersection, or the zero Box when they do not overlap.
func (b Box) Clip(width, height int) Box {
	r := image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H).Intersect(image.Rect(0, 0, width, height))
	if r.Empty() {
		return Box{}
	}
	return BoxFromRect(r)
}

// BoxFromRect converts an image.Rectangle to a Box.
func BoxFromRect(r image.Rectangle) Box {
	r = r.Canon()
	return Box{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}
