package gallery

import (
	"image"
	"image/color"
	"image/draw"
	"sync/atomic"

	"github.com/nvr-ai/go-facefilter/common"
	"github.com/nvr-ai/go-facefilter/config"
	"github.com/nvr-ai/go-facefilter/images"
	"github.com/nvr-ai/go-facefilter/images/kernels"
	"github.com/nvr-ai/go-facefilter/overlay"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Kind selects how a Cell renders.
type Kind int

const (
	// KindPlain draws the current frame, optionally through a filter.
	KindPlain Kind = iota
	// KindChannel isolates one color channel, optionally thresholded.
	KindChannel
	// KindColorSpace re-encodes the frame as HSV or HSI, optionally thresholded.
	KindColorSpace
	// KindFaceFilter filters the detected face region with the active Mode.
	KindFaceFilter
	// KindFaceOverlay draws the live frame with the cartoon face on top.
	KindFaceOverlay
)

// Slider supplies a threshold that is read every time a cell draws.
type Slider interface {
	Value() int
}

// StaticSlider is a Slider held in memory and adjusted from key events.
// Values are kept in [0, 255].
type StaticSlider struct {
	v atomic.Int32
}

// NewStaticSlider returns a slider starting at v.
func NewStaticSlider(v int) *StaticSlider {
	s := &StaticSlider{}
	s.Set(v)
	return s
}

// Value implements Slider.
func (s *StaticSlider) Value() int { return int(s.v.Load()) }

// Set stores v clamped to [0, 255].
func (s *StaticSlider) Set(v int) {
	s.v.Store(int32(min(max(v, 0), 255)))
}

// Add moves the slider by delta.
func (s *StaticSlider) Add(delta int) {
	s.Set(s.Value() + delta)
}

// Cell is one tile of the gallery. Only the fields for its Kind are used.
type Cell struct {
	Kind   Kind
	Title  string
	Origin image.Point

	// Filter is applied by KindPlain cells when set.
	Filter images.Filter
	// Channel is the channel a KindChannel cell keeps.
	Channel images.Channel
	// Space is the encoding of a KindColorSpace cell.
	Space images.ColorSpace
	// Slider enables thresholding for channel and color space cells.
	Slider Slider
}

const (
	titleHeight  = 20
	instructions = "Try keys from 1 to 6"
)

var (
	barColor  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	textColor = color.RGBA{A: 255}
	boxColor  = color.RGBA{G: 250, A: 255}
)

// Render draws the cell onto dst using the frame in ctx.
//
// Arguments:
// - dst: The gallery canvas.
// - ctx: The frame being drawn.
// - size: The cell size.
// - filters: Settings for the face filter.
// - pool: Scratch rasters for the face filter; may be nil.
func (c *Cell) Render(dst *image.RGBA, ctx FrameContext, size image.Point, filters config.Filters, pool *kernels.Pool) {
	rect := image.Rectangle{Min: c.Origin, Max: c.Origin.Add(size)}

	switch c.Kind {
	case KindPlain:
		if ctx.Current == nil {
			return
		}
		img := ctx.Current
		if c.Filter != nil {
			img = c.Filter(img)
		}
		blit(dst, rect, img)

	case KindChannel:
		if ctx.Current == nil {
			return
		}
		if c.Slider != nil {
			blit(dst, rect, images.Threshold(ctx.Current, c.Channel, uint8(c.Slider.Value())))
		} else {
			blit(dst, rect, images.ChannelIsolate(ctx.Current, c.Channel))
		}

	case KindColorSpace:
		if ctx.Current == nil {
			return
		}
		var threshold *uint8
		if c.Slider != nil {
			t := uint8(c.Slider.Value())
			threshold = &t
		}
		blit(dst, rect, images.TransformColorSpace(ctx.Current, c.Space, threshold))

	case KindFaceFilter:
		if ctx.Current == nil {
			return
		}
		c.renderFaceFilter(dst, rect, ctx, filters, pool)
		drawBar(dst, image.Rect(rect.Min.X, rect.Max.Y-titleHeight, rect.Max.X, rect.Max.Y), instructions)

	case KindFaceOverlay:
		live := ctx.Live
		if live == nil {
			live = ctx.Current
		}
		if live == nil {
			return
		}
		blit(dst, rect, live)
		overlay.Draw(dst.SubImage(rect).(*image.RGBA), ctx.LiveFace, c.Origin)
	}

	drawBar(dst, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+titleHeight), c.title(ctx))
}

func (c *Cell) title(ctx FrameContext) string {
	if c.Kind == KindFaceFilter {
		return c.Title + ": " + ctx.Mode.String()
	}
	return c.Title
}

// renderFaceFilter draws the frame and then either outlines the face or
// filters it, depending on the mode. Without a face only the frame is drawn.
// The filtered crop is handed back to pool once it has been composited.
func (c *Cell) renderFaceFilter(dst *image.RGBA, rect image.Rectangle, ctx FrameContext, filters config.Filters, pool *kernels.Pool) {
	if ctx.Face == nil {
		blit(dst, rect, ctx.Current)
		return
	}

	box := ctx.Face.PixelBox()

	filter := ModeFilter(ctx.Mode, filters, pool)
	if filter == nil {
		blit(dst, rect, ctx.Current)
		outline(dst.SubImage(rect).(*image.RGBA), box, c.Origin)
		return
	}

	crop := images.CropRegion(ctx.Current, box)
	filtered := filter(crop)
	blit(dst, rect, images.CompositeFilteredRegion(ctx.Current, filtered, 0, 0))
	if filtered != crop {
		pool.PutRaster(filtered)
	}
}

// blit draws img at rect.Min, clipped to rect, blending over the canvas.
func blit(dst *image.RGBA, rect image.Rectangle, img *images.Raster) {
	draw.Draw(dst, rect, img.ToNRGBA(), image.Point{}, draw.Over)
}

// outline strokes box, shifted by origin, with a 2px line centered on its edges.
func outline(dst *image.RGBA, box common.Box, origin image.Point) {
	r := box.ToRect().Add(origin)
	src := image.NewUniform(boxColor)

	edges := []image.Rectangle{
		image.Rect(r.Min.X-1, r.Min.Y-1, r.Max.X+1, r.Min.Y+1),
		image.Rect(r.Min.X-1, r.Max.Y-1, r.Max.X+1, r.Max.Y+1),
		image.Rect(r.Min.X-1, r.Min.Y-1, r.Min.X+1, r.Max.Y+1),
		image.Rect(r.Max.X-1, r.Min.Y-1, r.Max.X+1, r.Max.Y+1),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
}

// drawBar fills rect white and writes text on it in black.
func drawBar(dst *image.RGBA, rect image.Rectangle, text string) {
	draw.Draw(dst, rect, image.NewUniform(barColor), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst.SubImage(rect).(*image.RGBA),
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(rect.Min.X+4, rect.Min.Y+14),
	}
	d.DrawString(text)
}
