package gallery

import (
	"image"
	"image/color"
	"testing"

	"github.com/nvr-ai/go-facefilter/common"
	"github.com/nvr-ai/go-facefilter/config"
	"github.com/nvr-ai/go-facefilter/images"
	"github.com/nvr-ai/go-facefilter/images/kernels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFrame(width, height int) *images.Raster {
	r := images.NewRaster(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r.SetRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: 90,
				A: 255,
			})
		}
	}
	return r
}

func rgba(c color.NRGBA) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func newGallery() *Gallery {
	cfg := config.Default()
	return New(cfg.Gallery, cfg.Filters)
}

func TestModeNext(t *testing.T) {
	tests := []struct {
		from Mode
		key  rune
		want Mode
	}{
		{ModeNone, '1', ModeGrayscale},
		{ModeNone, '2', ModeBlur},
		{ModeNone, '3', ModeColorSpace},
		{ModeNone, '4', ModePixelated},
		{ModeNone, '5', ModeInverted},
		{ModeBlur, '6', ModeNone},
		{ModeBlur, 'x', ModeBlur},
		{ModeInverted, '7', ModeInverted},
		{ModePixelated, ' ', ModePixelated},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+string(tt.key), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.Next(tt.key))
		})
	}
}

func TestParseMode(t *testing.T) {
	for m := range modeNames {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	got, err := ParseMode("COLORSPACE")
	require.NoError(t, err)
	assert.Equal(t, ModeColorSpace, got)

	_, err = ParseMode("sepia")
	assert.Error(t, err)
}

func TestModeFilter(t *testing.T) {
	filters := config.Default().Filters
	frame := newFrame(20, 20)

	assert.Nil(t, ModeFilter(ModeNone, filters, nil))
	for m := ModeGrayscale; m <= ModeInverted; m++ {
		f := ModeFilter(m, filters, nil)
		require.NotNil(t, f, m.String())
		out := f(frame)
		assert.Equal(t, frame.Width, out.Width)
		assert.Equal(t, frame.Height, out.Height)
	}

	assert.Equal(t, images.Invert(frame).Pix, ModeFilter(ModeInverted, filters, nil)(frame).Pix)
	assert.Equal(t, images.Grayscale(frame).Pix, ModeFilter(ModeGrayscale, filters, nil)(frame).Pix)
}

func TestStaticSliderClamps(t *testing.T) {
	s := NewStaticSlider(300)
	assert.Equal(t, 255, s.Value())

	s.Add(-400)
	assert.Equal(t, 0, s.Value())

	s.Set(125)
	assert.Equal(t, 125, s.Value())
}

func TestNewLayout(t *testing.T) {
	g := newGallery()

	cells := g.Cells()
	require.Len(t, cells, 15)
	assert.Equal(t, image.Pt(480, 600), g.Size())

	seen := map[image.Point]bool{}
	for _, c := range cells {
		assert.False(t, seen[c.Origin], "two cells at %v", c.Origin)
		seen[c.Origin] = true
	}

	assert.Equal(t, KindFaceOverlay, cells[2].Kind)
	assert.Equal(t, image.Pt(320, 0), cells[2].Origin)
	assert.Equal(t, KindFaceFilter, cells[12].Kind)
	assert.Equal(t, image.Pt(0, 480), cells[12].Origin)
	assert.Equal(t, 125, g.Threshold())
}

func TestAdjustThreshold(t *testing.T) {
	g := newGallery()
	g.AdjustThreshold(10)
	assert.Equal(t, 135, g.Threshold())

	for _, c := range g.Cells() {
		if c.Slider != nil {
			assert.Equal(t, 135, c.Slider.Value())
		}
	}
}

func TestRenderPlainCells(t *testing.T) {
	g := newGallery()
	frame := newFrame(160, 120)

	canvas := g.Render(FrameContext{Current: frame})

	// Below the title bar the first cell is the frame itself.
	assert.Equal(t, rgba(frame.RGBAAt(30, 60)), canvas.RGBAAt(30, 60))
	// The repeat cell shows it again.
	assert.Equal(t, rgba(frame.RGBAAt(30, 60)), canvas.RGBAAt(30, 360+60))
	// Title bar.
	assert.Equal(t, barColor, canvas.RGBAAt(150, 2))

	gray := images.Grayscale(frame)
	assert.Equal(t, rgba(gray.RGBAAt(30, 60)), canvas.RGBAAt(160+30, 60))
}

func TestRenderFaceCellWithoutFace(t *testing.T) {
	g := newGallery()
	frame := newFrame(160, 120)

	canvas := g.Render(FrameContext{Current: frame, Mode: ModeInverted})

	assert.Equal(t, rgba(frame.RGBAAt(50, 50)), canvas.RGBAAt(50, 480+50))
}

func TestRenderFaceCellOutline(t *testing.T) {
	g := newGallery()
	frame := newFrame(160, 120)
	face := &common.FaceRegion{XMin: 40, YMin: 30, Width: 60, Height: 60}

	canvas := g.Render(FrameContext{Current: frame, Face: face, Mode: ModeNone})

	assert.Equal(t, boxColor, canvas.RGBAAt(40, 480+50))
	assert.Equal(t, boxColor, canvas.RGBAAt(99+1, 480+50))
	assert.Equal(t, rgba(frame.RGBAAt(70, 60)), canvas.RGBAAt(70, 480+60))
}

func TestRenderFaceCellFiltersOnlyTheFace(t *testing.T) {
	g := newGallery()
	frame := newFrame(160, 120)
	face := &common.FaceRegion{XMin: 40, YMin: 30, Width: 60, Height: 60}

	canvas := g.Render(FrameContext{Current: frame, Face: face, Mode: ModeInverted})

	inverted := images.Invert(frame)
	assert.Equal(t, rgba(inverted.RGBAAt(70, 60)), canvas.RGBAAt(70, 480+60))
	assert.Equal(t, rgba(frame.RGBAAt(10, 60)), canvas.RGBAAt(10, 480+60))
	assert.Equal(t, rgba(frame.RGBAAt(130, 60)), canvas.RGBAAt(130, 480+60))
}

func TestRenderFaceCellBlurReusesRasters(t *testing.T) {
	g := newGallery()
	frame := newFrame(160, 120)
	face := &common.FaceRegion{XMin: 40, YMin: 30, Width: 60, Height: 60}
	ctx := FrameContext{Current: frame, Face: face, Mode: ModeBlur}

	want := images.ApplyToRegion(frame, face.PixelBox(), kernels.BlurFilter(g.filters.BlurLevel, nil))

	// The second and third renders draw from the pool filled by the first.
	for i := 0; i < 3; i++ {
		canvas := g.Render(ctx)
		for _, p := range []image.Point{{70, 60}, {41, 31}, {99, 89}, {10, 60}} {
			require.Equal(t, rgba(want.RGBAAt(p.X, p.Y)), canvas.RGBAAt(p.X, 480+p.Y), "render %d pixel %v", i, p)
		}
	}
}

func TestRenderOverlayCell(t *testing.T) {
	g := newGallery()
	frame := newFrame(160, 120)
	face := &common.FaceRegion{
		XMin: 50, YMin: 30, Width: 60, Height: 60,
		FaceOval: common.Landmark{CenterX: 80, CenterY: 60, Width: 50, Height: 60},
		LeftEye:  common.Landmark{CenterX: 92, CenterY: 50, Width: 6, Height: 4},
		RightEye: common.Landmark{CenterX: 68, CenterY: 50, Width: 6, Height: 4},
		Lips:     common.Landmark{CenterX: 80, CenterY: 75, Width: 14, Height: 5},
	}

	without := g.Render(FrameContext{Current: frame})
	with := g.Render(FrameContext{Current: frame, LiveFace: face})

	// Red ring of the oval, 33px right of its center, inside the overlay cell.
	assert.Equal(t, color.RGBA{R: 255, A: 255}, with.RGBAAt(320+80+33, 60))
	assert.NotEqual(t, without.RGBAAt(320+80+33, 60), with.RGBAAt(320+80+33, 60))
	// The overlay never leaks into the neighbouring cell.
	assert.Equal(t, without.RGBAAt(319, 60), with.RGBAAt(319, 60))
}

func TestFit(t *testing.T) {
	g := newGallery()

	r, err := g.Fit(image.NewRGBA(image.Rect(0, 0, 640, 480)))
	require.NoError(t, err)
	assert.Equal(t, 160, r.Width)
	assert.Equal(t, 120, r.Height)
}
