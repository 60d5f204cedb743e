package images

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSolid creates a width x height raster filled with c.
func newSolid(width, height int, c color.NRGBA) *Raster {
	r := NewRaster(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r.SetRGBA(x, y, c)
		}
	}
	return r
}

// newPattern creates a deterministic raster where every pixel differs.
func newPattern(width, height int) *Raster {
	r := NewRaster(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r.SetRGBA(x, y, color.NRGBA{
				R: uint8((x*37 + y*11) % 256),
				G: uint8((x*7 + y*53) % 256),
				B: uint8((x*91 + y*3) % 256),
				A: uint8(128 + (x+y)%128),
			})
		}
	}
	return r
}

func TestWhiteScenario(t *testing.T) {
	white := newSolid(2, 2, color.NRGBA{255, 255, 255, 255})

	inverted := Invert(white)
	gray := Grayscale(white)
	red := ChannelIsolate(white, Red)

	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			assert.Equal(t, color.NRGBA{0, 0, 0, 255}, inverted.RGBAAt(x, y))
			assert.Equal(t, color.NRGBA{255, 255, 255, 255}, gray.RGBAAt(x, y))
			assert.Equal(t, color.NRGBA{255, 0, 0, 255}, red.RGBAAt(x, y))
		}
	}
}

func TestInvertIsInvolution(t *testing.T) {
	src := newPattern(23, 17)
	twice := Invert(Invert(src))
	assert.Equal(t, src.Pix, twice.Pix)
}

func TestInvertKeepsAlpha(t *testing.T) {
	src := newSolid(3, 3, color.NRGBA{10, 20, 30, 0})
	out := Invert(src)
	assert.Equal(t, color.NRGBA{245, 235, 225, 0}, out.RGBAAt(1, 1))
}

func TestGrayscale(t *testing.T) {
	src := newPattern(31, 29)
	out := Grayscale(src)

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			in := src.RGBAAt(x, y)
			got := out.RGBAAt(x, y)
			avg := (float64(in.R) + float64(in.G) + float64(in.B)) / 3
			want := uint8(math.Min(255, math.Round(avg*1.2)))

			require.Equal(t, got.R, got.G)
			require.Equal(t, got.G, got.B)
			require.Equal(t, want, got.R, "pixel (%d,%d)", x, y)
			require.Equal(t, in.A, got.A)
		}
	}
}

func TestChannelIsolate(t *testing.T) {
	src := newPattern(12, 9)

	tests := []struct {
		channel Channel
		keep    func(color.NRGBA) uint8
	}{
		{Red, func(c color.NRGBA) uint8 { return c.R }},
		{Green, func(c color.NRGBA) uint8 { return c.G }},
		{Blue, func(c color.NRGBA) uint8 { return c.B }},
	}

	for _, tt := range tests {
		t.Run(tt.channel.String(), func(t *testing.T) {
			out := ChannelIsolate(src, tt.channel)
			for i := 0; i < len(out.Pix); i += 4 {
				for c := 0; c < 3; c++ {
					if Channel(c) == tt.channel {
						require.Equal(t, src.Pix[i+c], out.Pix[i+c])
					} else {
						require.Zero(t, out.Pix[i+c])
					}
				}
				require.Equal(t, src.Pix[i+3], out.Pix[i+3])
			}
		})
	}
}

func TestThreshold(t *testing.T) {
	src := newPattern(16, 16)

	for _, th := range []uint8{0, 1, 125, 254, 255} {
		out := Threshold(src, Green, th)
		for i := 0; i < len(out.Pix); i += 4 {
			want := uint8(0)
			if src.Pix[i+1] > th {
				want = 255
			}
			require.Equal(t, want, out.Pix[i+1], "threshold %d", th)
			require.Zero(t, out.Pix[i])
			require.Zero(t, out.Pix[i+2])
			require.Equal(t, src.Pix[i+3], out.Pix[i+3])
		}
	}
}

func TestThresholdBoundaryIsStrict(t *testing.T) {
	src := newSolid(1, 1, color.NRGBA{125, 126, 0, 255})
	assert.Equal(t, uint8(0), Threshold(src, Red, 125).Pix[0])
	assert.Equal(t, uint8(255), Threshold(src, Green, 125).Pix[1])
}

func TestUnknownChannelZeroesColor(t *testing.T) {
	src := newSolid(2, 2, color.NRGBA{200, 150, 100, 77})
	want := color.NRGBA{0, 0, 0, 77}

	for _, ch := range []Channel{Channel(3), Channel(4), Channel(-1)} {
		assert.False(t, ch.Valid())
		assert.NotPanics(t, func() {
			assert.Equal(t, want, ChannelIsolate(src, ch).RGBAAt(1, 1))
			assert.Equal(t, want, Threshold(src, ch, 10).RGBAAt(1, 1))
		})
	}
	assert.True(t, Blue.Valid())
}

func TestFiltersDoNotMutateInput(t *testing.T) {
	src := newPattern(40, 30)
	before := Checksum(src)

	filters := map[string]Filter{
		"invert":    Invert,
		"grayscale": Grayscale,
		"red":       func(r *Raster) *Raster { return ChannelIsolate(r, Red) },
		"threshold": func(r *Raster) *Raster { return Threshold(r, Blue, 100) },
		"hsv":       func(r *Raster) *Raster { return TransformColorSpace(r, HSV, nil) },
		"hsi":       func(r *Raster) *Raster { return TransformColorSpace(r, HSI, nil) },
		"pixelate":  func(r *Raster) *Raster { return Pixelate(r, PixelateOptions{}) },
	}

	for name, f := range filters {
		t.Run(name, func(t *testing.T) {
			out := f(src)
			assert.Equal(t, before, Checksum(src))
			assert.Equal(t, src.Width, out.Width)
			assert.Equal(t, src.Height, out.Height)
			assert.Len(t, out.Pix, src.Width*src.Height*4)
		})
	}
}

func TestParseChannel(t *testing.T) {
	c, err := ParseChannel("Green")
	require.NoError(t, err)
	assert.Equal(t, Green, c)

	_, err = ParseChannel("alpha")
	assert.Error(t, err)
}

func TestToByte(t *testing.T) {
	assert.Equal(t, uint8(0), ToByte(math.NaN()))
	assert.Equal(t, uint8(0), ToByte(-3))
	assert.Equal(t, uint8(255), ToByte(300))
	assert.Equal(t, uint8(128), ToByte(127.6))
}

func TestParallelCoversRange(t *testing.T) {
	seen := make([]int, 1000)
	Parallel(len(seen), func(start, end int) {
		for i := start; i < end; i++ {
			seen[i]++
		}
	})
	for i, n := range seen {
		require.Equal(t, 1, n, "index %d", i)
	}
}
