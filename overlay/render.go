package overlay

import (
	"image"
	"image/draw"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-facefilter/common"
	"golang.org/x/image/vector"
)

// segmentLength is the target chord length, in pixels, when flattening
// curves into polygons.
const segmentLength = 2

// Render rasterizes shapes onto dst in order with source-over blending.
// Shapes outside dst are clipped.
//
// Arguments:
// - dst: The canvas to draw on.
// - shapes: The shapes to draw, usually from Compose.
func Render(dst draw.Image, shapes []Shape) {
	b := dst.Bounds()
	if b.Empty() {
		return
	}

	z := vector.NewRasterizer(b.Dx(), b.Dy())
	ox, oy := float32(b.Min.X), float32(b.Min.Y)

	for _, s := range shapes {
		z.Reset(b.Dx(), b.Dy())
		z.DrawOp = draw.Over

		s.X -= ox
		s.Y -= oy
		s.X2 -= ox
		s.Y2 -= oy

		switch s.Kind {
		case Ellipse:
			fillEllipse(z, s)
		case Arc:
			strokeArc(z, s)
		case Line:
			strokeLine(z, s)
		default:
			continue
		}

		z.Draw(dst, b, image.NewUniform(s.Color), image.Point{})
	}
}

// Draw composes the overlay for face and renders it onto dst.
// A nil face draws nothing.
func Draw(dst draw.Image, face *common.FaceRegion, offset image.Point) {
	Render(dst, Compose(face, offset))
}

// segments returns how many chords approximate an arc of the given radii and
// sweep.
func segments(rx, ry, sweep float32) int {
	r := math32.Max(math32.Abs(rx), math32.Abs(ry))
	n := int(math32.Ceil(r * sweep / segmentLength))
	return min(max(n, 8), 512)
}

func fillEllipse(z *vector.Rasterizer, s Shape) {
	rx, ry := s.W/2, s.H/2
	if rx <= 0 || ry <= 0 {
		return
	}

	n := segments(rx, ry, twoPi)
	z.MoveTo(s.X+rx, s.Y)
	for i := 1; i < n; i++ {
		a := twoPi * float32(i) / float32(n)
		z.LineTo(s.X+rx*math32.Cos(a), s.Y+ry*math32.Sin(a))
	}
	z.ClosePath()
}

// strokeArc fills the band between the arc offset outward and inward by half
// the stroke width.
func strokeArc(z *vector.Rasterizer, s Shape) {
	sweep := s.Sweep()
	if sweep <= 0 || s.Stroke <= 0 {
		return
	}

	rx, ry := s.W/2, s.H/2
	half := s.Stroke / 2
	n := segments(rx+half, ry+half, sweep)

	point := func(i int, d float32) (float32, float32) {
		a := s.Start + sweep*float32(i)/float32(n)
		return s.X + math32.Max(rx+d, 0)*math32.Cos(a), s.Y + math32.Max(ry+d, 0)*math32.Sin(a)
	}

	z.MoveTo(point(0, half))
	for i := 1; i <= n; i++ {
		z.LineTo(point(i, half))
	}
	for i := n; i >= 0; i-- {
		z.LineTo(point(i, -half))
	}
	z.ClosePath()
}

func strokeLine(z *vector.Rasterizer, s Shape) {
	dx, dy := s.X2-s.X, s.Y2-s.Y
	l := math32.Hypot(dx, dy)
	if l == 0 || s.Stroke <= 0 {
		return
	}

	// Unit normal scaled to half the stroke width.
	nx, ny := -dy/l*s.Stroke/2, dx/l*s.Stroke/2

	z.MoveTo(s.X+nx, s.Y+ny)
	z.LineTo(s.X2+nx, s.Y2+ny)
	z.LineTo(s.X2-nx, s.Y2-ny)
	z.LineTo(s.X-nx, s.Y-ny)
	z.ClosePath()
}
