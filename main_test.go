package main

import (
	"image/color"
	"testing"

	"github.com/nvr-ai/go-facefilter/common"
	"github.com/nvr-ai/go-facefilter/config"
	"github.com/nvr-ai/go-facefilter/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBox(t *testing.T) {
	box, err := parseBox("10, 20,30,40")
	require.NoError(t, err)
	assert.Equal(t, common.Box{X: 10, Y: 20, W: 30, H: 40}, box)

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "1,2,0,4"} {
		_, err := parseBox(bad)
		assert.Error(t, err, bad)
	}
}

func TestValidateOptions(t *testing.T) {
	valid := Options{ImagePath: "in.png", Filter: "blur", Threshold: -1}
	assert.NoError(t, validateOptions(valid))

	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"missing image", func(o *Options) { o.ImagePath = "" }},
		{"unknown filter", func(o *Options) { o.Filter = "sepia" }},
		{"threshold too high", func(o *Options) { o.Threshold = 256 }},
		{"detect with region", func(o *Options) { o.Detect = true; o.Region = "0,0,1,1" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := valid
			tt.mutate(&o)
			assert.Error(t, validateOptions(o))
		})
	}
}

func TestApplyFilterRegion(t *testing.T) {
	img := images.NewRaster(4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}

	out, err := applyFilter(img, nil, Options{Filter: "invert", Region: "1,1,2,2"}, config.Default())
	require.NoError(t, err)

	assert.Equal(t, color.NRGBA{R: 245, G: 235, B: 225, A: 255}, out.RGBAAt(1, 1))
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, out.RGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, out.RGBAAt(3, 3))
}

func TestApplyFilterDetectWithoutFace(t *testing.T) {
	img := images.NewRaster(2, 2)
	img.SetRGBA(0, 0, color.NRGBA{R: 200, A: 255})

	out, err := applyFilter(img, nil, Options{Filter: "invert", Detect: true}, config.Default())
	require.NoError(t, err)
	assert.Equal(t, images.Invert(img).Pix, out.Pix)
}

func TestBuildFilterThreshold(t *testing.T) {
	img := images.NewRaster(1, 1)
	img.SetRGBA(0, 0, color.NRGBA{R: 130, A: 255})
	cfg := config.Default().Filters

	f, err := buildFilter(Options{Filter: "threshold", Channel: "red", Threshold: -1}, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), f(img).Pix[0])

	f, err = buildFilter(Options{Filter: "threshold", Channel: "red", Threshold: 130}, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), f(img).Pix[0])

	_, err = buildFilter(Options{Filter: "channel", Channel: "purple"}, cfg)
	assert.Error(t, err)

	f, err = buildFilter(Options{Filter: "none"}, cfg)
	require.NoError(t, err)
	assert.Nil(t, f)
}
