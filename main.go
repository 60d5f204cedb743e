package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nvr-ai/go-facefilter/common"
	"github.com/nvr-ai/go-facefilter/config"
	"github.com/nvr-ai/go-facefilter/detector"
	"github.com/nvr-ai/go-facefilter/gallery"
	"github.com/nvr-ai/go-facefilter/images"
	"github.com/nvr-ai/go-facefilter/images/kernels"
	"github.com/nvr-ai/go-facefilter/logging"
	"github.com/nvr-ai/go-facefilter/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	// DefaultOutputPath is where the filtered image is written.
	DefaultOutputPath = "out.png"
	// detectTimeout bounds the face detection of a still image.
	detectTimeout = 10 * time.Second
)

// filterNames lists the values accepted by -filter.
var filterNames = []string{
	"none", "grayscale", "invert", "channel", "threshold", "hsv", "hsi", "blur", "pixelate",
}

// Options holds the parsed command line.
type Options struct {
	ConfigPath     string
	ImagePath      string
	OutputPath     string
	Filter         string
	Channel        string
	Threshold      int
	Region         string
	Detect         bool
	Gallery        bool
	Mode           string
	LegacyRowBound bool
}

func main() {
	var opts Options
	flag.StringVar(&opts.ConfigPath, "config", "", "Path to a YAML config file")
	flag.StringVar(&opts.ImagePath, "image", "", "Path to the input image (png, jpeg, gif, bmp, tiff, webp)")
	flag.StringVar(&opts.OutputPath, "output", DefaultOutputPath, "Path to the output image (.png, .jpg)")
	flag.StringVar(&opts.Filter, "filter", "grayscale", "Filter: "+strings.Join(filterNames, ", "))
	flag.StringVar(&opts.Channel, "channel", "red", "Channel for the channel and threshold filters")
	flag.IntVar(&opts.Threshold, "threshold", -1, "Binarization threshold 0-255; -1 uses the config value for threshold and none for color spaces")
	flag.StringVar(&opts.Region, "region", "", "Only filter this region, as x,y,w,h")
	flag.BoolVar(&opts.Detect, "detect", false, "Only filter the face found by the cascade detector")
	flag.BoolVar(&opts.Gallery, "gallery", false, "Render the whole gallery instead of a single filter")
	flag.StringVar(&opts.Mode, "mode", "none", "Face filter mode for -gallery")
	flag.BoolVar(&opts.LegacyRowBound, "legacy-row-bound", false, "Bound pixelation rows by width")
	flag.Parse()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if opts.LegacyRowBound {
		cfg.Filters.LegacyRowBound = true
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(opts, cfg, logger); err != nil {
		logger.Fatal("face filter failed", zap.Error(err))
	}
}

// run loads the input, applies the requested filter and writes the result.
func run(opts Options, cfg *config.Config, logger *zap.Logger) error {
	if err := validateOptions(opts); err != nil {
		return err
	}

	img, err := util.LoadRaster(opts.ImagePath)
	if err != nil {
		return err
	}
	logger.Info("loaded image",
		zap.String("path", opts.ImagePath),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height))

	var face *common.FaceRegion
	if opts.Detect || opts.Gallery {
		face, err = detectFace(img, cfg.Detector, logger)
		if err != nil {
			return err
		}
	}

	var out *images.Raster
	if opts.Gallery {
		out, err = renderGallery(img, face, opts, cfg)
	} else {
		out, err = applyFilter(img, face, opts, cfg)
	}
	if err != nil {
		return err
	}

	if err := util.SaveRaster(opts.OutputPath, out); err != nil {
		return err
	}
	logger.Info("wrote image",
		zap.String("path", opts.OutputPath),
		zap.String("checksum", images.Checksum(out)))

	return nil
}

// validateOptions checks the flags that cannot be checked by flag itself.
func validateOptions(opts Options) error {
	if opts.ImagePath == "" {
		return errors.New("-image is required")
	}
	if opts.Threshold > 255 {
		return errors.Errorf("-threshold must be at most 255, got %d", opts.Threshold)
	}
	if opts.Detect && opts.Region != "" {
		return errors.New("-detect and -region are mutually exclusive")
	}

	for _, name := range filterNames {
		if opts.Filter == name {
			return nil
		}
	}
	return errors.Errorf("unknown filter %q", opts.Filter)
}

// detectFace runs the cascade detector once. A missing face is not an error.
func detectFace(img *images.Raster, cfg config.Detector, logger *zap.Logger) (*common.FaceRegion, error) {
	cascade, err := detector.NewCascade(detector.CascadeConfig{
		FaceCascade:  cfg.FaceCascade,
		EyeCascade:   cfg.EyeCascade,
		ScaleFactor:  cfg.ScaleFactor,
		MinNeighbors: cfg.MinNeighbors,
		MinSize:      cfg.MinSize,
	})
	if err != nil {
		return nil, err
	}
	defer cascade.Close()

	ctx, cancel := context.WithTimeout(context.Background(), detectTimeout)
	defer cancel()

	tracker := detector.NewTracker(cascade, logger)
	res, err := tracker.Request(ctx, img).Wait(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "face detection did not finish")
	}
	logger.Info("face detection",
		zap.Stringer("face", res.Face),
		zap.Duration("elapsed", res.Elapsed))

	return tracker.Latest(), nil
}

// applyFilter applies the selected filter to the whole image, the -region box
// or the detected face.
func applyFilter(img *images.Raster, face *common.FaceRegion, opts Options, cfg *config.Config) (*images.Raster, error) {
	filter, err := buildFilter(opts, cfg.Filters)
	if err != nil {
		return nil, err
	}

	switch {
	case opts.Region != "":
		box, err := parseBox(opts.Region)
		if err != nil {
			return nil, err
		}
		return images.ApplyToRegion(img, box, filter), nil
	case opts.Detect:
		return images.ApplyToRegion(img, face.BoxOr(img.Width, img.Height), filter), nil
	case filter == nil:
		return img.Clone(), nil
	default:
		return filter(img), nil
	}
}

func buildFilter(opts Options, cfg config.Filters) (images.Filter, error) {
	var threshold *uint8
	if opts.Threshold >= 0 {
		t := uint8(opts.Threshold)
		threshold = &t
	}

	switch opts.Filter {
	case "none":
		return nil, nil
	case "grayscale":
		return images.Grayscale, nil
	case "invert":
		return images.Invert, nil
	case "channel", "threshold":
		ch, err := images.ParseChannel(opts.Channel)
		if err != nil {
			return nil, err
		}
		if opts.Filter == "channel" {
			return func(r *images.Raster) *images.Raster { return images.ChannelIsolate(r, ch) }, nil
		}
		t := uint8(cfg.Threshold)
		if threshold != nil {
			t = *threshold
		}
		return func(r *images.Raster) *images.Raster { return images.Threshold(r, ch, t) }, nil
	case "hsv", "hsi":
		space := images.ParseColorSpace(opts.Filter)
		return func(r *images.Raster) *images.Raster {
			return images.TransformColorSpace(r, space, threshold)
		}, nil
	case "blur":
		return kernels.BlurFilter(cfg.BlurLevel, nil), nil
	case "pixelate":
		po := images.PixelateOptions{BlockSize: cfg.BlockSize, LegacyRowBound: cfg.LegacyRowBound}
		return func(r *images.Raster) *images.Raster { return images.Pixelate(r, po) }, nil
	}
	return nil, errors.Errorf("unknown filter %q", opts.Filter)
}

// renderGallery fits the image to a gallery cell and renders every cell.
// Detection ran on the full image, so the face is scaled to the cell.
func renderGallery(img *images.Raster, face *common.FaceRegion, opts Options, cfg *config.Config) (*images.Raster, error) {
	mode, err := gallery.ParseMode(opts.Mode)
	if err != nil {
		return nil, err
	}

	g := gallery.New(cfg.Gallery, cfg.Filters)
	still, err := g.Fit(img)
	if err != nil {
		return nil, err
	}
	scaled := face.Scale(
		float64(still.Width)/float64(img.Width),
		float64(still.Height)/float64(img.Height))

	canvas := g.Render(gallery.FrameContext{
		Current:  still,
		Face:     scaled,
		LiveFace: scaled,
		Mode:     mode,
	})
	return images.FromImage(canvas), nil
}

// parseBox parses "x,y,w,h".
func parseBox(s string) (common.Box, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return common.Box{}, errors.Errorf("region %q must be x,y,w,h", s)
	}

	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return common.Box{}, errors.Wrapf(err, "region %q", s)
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return common.Box{}, errors.Errorf("region %q must have a positive size", s)
	}

	return common.Box{X: v[0], Y: v[1], W: v[2], H: v[3]}, nil
}
