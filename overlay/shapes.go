// Package overlay draws the stylized cartoon face that follows a detected
// face region: an oval, two eyes with brows, and a nose and mouth made of arcs.
package overlay

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-facefilter/common"
)

// Kind identifies how a Shape is drawn.
type Kind int

const (
	// Ellipse is a filled ellipse.
	Ellipse Kind = iota
	// Arc is a stroked, open elliptical arc.
	Arc
	// Line is a stroked straight segment.
	Line
)

func (k Kind) String() string {
	switch k {
	case Ellipse:
		return "ellipse"
	case Arc:
		return "arc"
	case Line:
		return "line"
	default:
		return "unknown"
	}
}

const (
	quarterPi = math32.Pi / 4
	twoPi     = 2 * math32.Pi
)

// Shape is one primitive of the face overlay.
//
// Ellipses and arcs are centered on (X, Y) with diameters W and H. Arc angles
// are radians measured clockwise from the +x axis (y points down); when Stop
// is less than Start the sweep wraps through 2π. A Line runs from (X, Y) to
// (X2, Y2).
type Shape struct {
	Kind   Kind
	X, Y   float32
	W, H   float32
	X2, Y2 float32
	Start  float32
	Stop   float32
	Stroke float32
	Color  color.NRGBA
}

// Sweep returns the arc's angular extent in (0, 2π], or 0 for an empty arc.
func (s Shape) Sweep() float32 {
	stop := s.Stop
	for stop < s.Start {
		stop += twoPi
	}
	return stop - s.Start
}

var (
	ovalColor   = color.NRGBA{R: 255, A: 255}
	whiteColor  = color.NRGBA{R: 250, G: 250, B: 250, A: 255}
	lidColor    = color.NRGBA{R: 253, G: 224, B: 71, A: 255}
	darkColor   = color.NRGBA{R: 50, G: 50, B: 50, A: 255}
	shadowColor = color.NRGBA{R: 218, G: 197, B: 183, A: 255}
)

func circle(x, y, d float32, c color.NRGBA) Shape {
	return Shape{Kind: Ellipse, X: x, Y: y, W: d, H: d, Color: c}
}

func arc(x, y, w, h, start, stop, stroke float32, c color.NRGBA) Shape {
	return Shape{Kind: Arc, X: x, Y: y, W: w, H: h, Start: start, Stop: stop, Stroke: stroke, Color: c}
}

// Compose builds the overlay shapes for face, translated by offset.
//
// The result is deterministic for a given region and is recomputed every
// frame, so the overlay follows the latest detection. A nil face yields no
// shapes.
//
// Arguments:
// - face: The detected face, or nil.
// - offset: The origin of the target cell on the canvas.
//
// Returns:
// - The shapes in paint order.
//
// @example
// shapes := overlay.Compose(face, image.Pt(320, 480))
func Compose(face *common.FaceRegion, offset image.Point) []Shape {
	if face == nil {
		return nil
	}

	ox, oy := float32(offset.X), float32(offset.Y)

	shapes := make([]Shape, 0, 19)
	shapes = append(shapes, oval(face.FaceOval, ox, oy)...)
	shapes = append(shapes, eye(face.LeftEye, ox+4, oy+4, math32.Pi+quarterPi, quarterPi)...)
	shapes = append(shapes, eye(face.RightEye, ox-4, oy+4, math32.Pi-quarterPi, twoPi-quarterPi)...)
	shapes = append(shapes, mouth(face.Lips, ox, oy)...)

	return shapes
}

// oval is two concentric circles sized from the oval width.
func oval(l common.Landmark, ox, oy float32) []Shape {
	x := ox + float32(l.CenterX)
	y := oy + float32(l.CenterY)
	d := float32(l.Width) * 1.4

	return []Shape{
		circle(x, y, d, ovalColor),
		circle(x, y, d*0.9, whiteColor),
	}
}

// eye is lid, sclera and iris plus a brow arc from browStart to browStop.
func eye(l common.Landmark, ox, oy, browStart, browStop float32) []Shape {
	x := ox + float32(l.CenterX)
	y := oy + float32(l.CenterY)
	d := float32(l.Width) * 2

	return []Shape{
		circle(x, y, d, lidColor),
		circle(x, y, d*0.8, whiteColor),
		circle(x, y, d*0.6, darkColor),
		arc(x, y, d*1.3, d*1.3, browStart, browStop, 2, darkColor),
	}
}

// mouth is the nose shadow, nostrils, lips and the four shading strokes, all
// scaled by the lips width.
func mouth(l common.Landmark, ox, oy float32) []Shape {
	x := ox + float32(l.CenterX)
	y := oy + float32(l.CenterY) - 4
	w := float32(l.Width) * 1.5
	s := w * 0.4

	return []Shape{
		{Kind: Ellipse, X: x, Y: y, W: w, H: 2, Color: shadowColor},

		arc(x-w/4, y, w/3, w/3*1.3, math32.Pi, 0, 1, ovalColor),
		arc(x+w/4, y, w/3, w/3*1.3, math32.Pi, 0, 1, ovalColor),
		arc(x, y+6, w*1.2, 4, math32.Pi, 0, 1, ovalColor),

		arc(x+w*0.65, y+4, s, s, math32.Pi+quarterPi, math32.Pi-quarterPi, 3, darkColor),
		arc(x-w*0.65, y+4, s, s, quarterPi, twoPi-quarterPi, 3, darkColor),

		arc(x-w*0.3, y+14, s, s, -quarterPi, math32.Pi-quarterPi, 3, darkColor),
		{Kind: Line, X: x, Y: y + 10, X2: x, Y2: y + 10 + s, Stroke: 3, Color: darkColor},
		arc(x+w*0.3, y+14, s, s, quarterPi, math32.Pi+quarterPi, 3, darkColor),
	}
}
