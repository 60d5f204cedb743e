package kernels

import (
	"math/rand"
	"testing"

	"github.com/nvr-ai/go-facefilter/common"
	"github.com/nvr-ai/go-facefilter/images"
)

func genRaster(w, h int) *images.Raster {
	r := images.NewRaster(w, h)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < len(r.Pix); i += 4 {
		r.Pix[i+0] = uint8(rng.Intn(256))
		r.Pix[i+1] = uint8(rng.Intn(256))
		r.Pix[i+2] = uint8(rng.Intn(256))
		r.Pix[i+3] = 255
	}
	return r
}

func BenchmarkBlur_160x120_l10(b *testing.B) {
	img := genRaster(160, 120)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Blur(img, 10, nil)
	}
}

func BenchmarkBlurPooled_160x120_l10(b *testing.B) {
	img := genRaster(160, 120)
	pool := &Pool{}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		pool.PutRaster(Blur(img, 10, pool))
	}
}

func BenchmarkBlur_640x480_l3(b *testing.B) {
	img := genRaster(640, 480)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Blur(img, 3, nil)
	}
}

// Face cell: blur only the detected region of a gallery frame.
func BenchmarkBlurFaceRegion_160x120(b *testing.B) {
	img := genRaster(160, 120)
	box := common.Box{X: 50, Y: 30, W: 60, H: 70}
	filter := BlurFilter(10, nil)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = images.ApplyToRegion(img, box, filter)
	}
}

func BenchmarkPixelate_640x480(b *testing.B) {
	img := genRaster(640, 480)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = images.Pixelate(img, images.PixelateOptions{})
	}
}

func BenchmarkColorSpaceHSI_640x480(b *testing.B) {
	img := genRaster(640, 480)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = images.TransformColorSpace(img, images.HSI, nil)
	}
}
