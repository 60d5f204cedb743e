// Package gallery lays out the filtered views of a frame as a grid of cells
// and renders them onto one canvas.
package gallery

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/nvr-ai/go-facefilter/common"
	"github.com/nvr-ai/go-facefilter/config"
	"github.com/nvr-ai/go-facefilter/images"
	"github.com/nvr-ai/go-facefilter/images/kernels"
	"github.com/pkg/errors"
)

// FrameContext is everything a render reads. It replaces global frame state:
// the caller builds one per frame and the gallery never mutates it.
type FrameContext struct {
	// Current is the still image most cells are computed from.
	Current *images.Raster
	// Face is the latest detection on Current, or nil.
	Face *common.FaceRegion
	// Live is the latest camera frame for the overlay cell. Current is used
	// when it is nil.
	Live *images.Raster
	// LiveFace is the latest detection on Live, or nil.
	LiveFace *common.FaceRegion
	// Mode is the filter applied to the face cell.
	Mode Mode
}

// Gallery is the fixed grid of cells.
type Gallery struct {
	cfg     config.Gallery
	filters config.Filters
	cells   []Cell
	sliders []*StaticSlider
	// pool recycles the face filter rasters between frames.
	pool *kernels.Pool
}

var background = color.RGBA{R: 245, G: 245, B: 245, A: 255}

// New builds the default layout: original and grayscale, the three channels,
// the thresholded channels, the two color spaces with and without threshold,
// the face filter, and the live overlay in the top right.
//
// Arguments:
// - cfg: Cell size and grid dimensions.
// - filters: Threshold slider start value and face filter settings.
//
// Returns:
// - The gallery.
func New(cfg config.Gallery, filters config.Filters) *Gallery {
	g := &Gallery{cfg: cfg, filters: filters, pool: &kernels.Pool{}}

	at := func(col, row int) image.Point {
		return image.Pt(col*cfg.CellWidth, row*cfg.CellHeight)
	}
	slider := func() Slider {
		s := NewStaticSlider(filters.Threshold)
		g.sliders = append(g.sliders, s)
		return s
	}
	channel := func(title string, ch images.Channel, col, row int, s Slider) Cell {
		return Cell{Kind: KindChannel, Title: title, Origin: at(col, row), Channel: ch, Slider: s}
	}
	space := func(title string, cs images.ColorSpace, col, row int, s Slider) Cell {
		return Cell{Kind: KindColorSpace, Title: title, Origin: at(col, row), Space: cs, Slider: s}
	}

	g.cells = []Cell{
		{Kind: KindPlain, Title: "Webcam image", Origin: at(0, 0)},
		{Kind: KindPlain, Title: "Grayscale + brightness", Origin: at(1, 0), Filter: images.Grayscale},
		{Kind: KindFaceOverlay, Title: "Daruma", Origin: at(2, 0)},

		channel("Red", images.Red, 0, 1, nil),
		channel("Green", images.Green, 1, 1, nil),
		channel("Blue", images.Blue, 2, 1, nil),

		channel("Red + control", images.Red, 0, 2, slider()),
		channel("Green + control", images.Green, 1, 2, slider()),
		channel("Blue + control", images.Blue, 2, 2, slider()),

		{Kind: KindPlain, Title: "Repeat original", Origin: at(0, 3)},
		space("Color Space (HSV)", images.HSV, 1, 3, nil),
		space("Color Space (HSI)", images.HSI, 2, 3, nil),

		{Kind: KindFaceFilter, Title: "Face detection", Origin: at(0, 4)},
		space("Color Space (HSV) + control", images.HSV, 1, 4, slider()),
		space("Color Space (HSI) + control", images.HSI, 2, 4, slider()),
	}

	return g
}

// Cells returns the layout.
func (g *Gallery) Cells() []Cell {
	return g.cells
}

// Size returns the canvas size.
func (g *Gallery) Size() image.Point {
	return image.Pt(g.cfg.Columns*g.cfg.CellWidth, g.cfg.Rows*g.cfg.CellHeight)
}

// CellSize returns the size of one cell.
func (g *Gallery) CellSize() image.Point {
	return image.Pt(g.cfg.CellWidth, g.cfg.CellHeight)
}

// AdjustThreshold moves every threshold slider by delta.
func (g *Gallery) AdjustThreshold(delta int) {
	for _, s := range g.sliders {
		s.Add(delta)
	}
}

// Threshold returns the value of the first threshold slider.
func (g *Gallery) Threshold() int {
	if len(g.sliders) == 0 {
		return g.filters.Threshold
	}
	return g.sliders[0].Value()
}

// Fit scales img to the cell size. Detection should run on the fitted
// raster so face coordinates match what the cells draw.
func (g *Gallery) Fit(img image.Image) (*images.Raster, error) {
	r, err := images.Resize(images.FromImage(img), g.cfg.CellWidth, g.cfg.CellHeight)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fit frame to cell")
	}
	return r, nil
}

// Render draws every cell for ctx onto a new canvas.
//
// Arguments:
// - ctx: The frame to draw.
//
// Returns:
// - The canvas, Size() pixels large.
//
// @example
// canvas := g.Render(gallery.FrameContext{Current: still, Face: face, Mode: gallery.ModeBlur})
func (g *Gallery) Render(ctx FrameContext) *image.RGBA {
	canvas := image.NewRGBA(image.Rectangle{Max: g.Size()})
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	size := g.CellSize()
	for i := range g.cells {
		g.cells[i].Render(canvas, ctx, size, g.filters, g.pool)
	}

	return canvas
}
