package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nvr-ai/go-facefilter/config"
	"github.com/nvr-ai/go-facefilter/detector"
	"github.com/nvr-ai/go-facefilter/gallery"
	"github.com/nvr-ai/go-facefilter/images"
	"github.com/nvr-ai/go-facefilter/logging"
	"github.com/nvr-ai/go-facefilter/profiler"
	"github.com/nvr-ai/go-facefilter/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

const (
	keyEscape = 27
	keySpace  = 32
	// thresholdStep is how far '+' and '-' move the threshold sliders.
	thresholdStep = 5
)

func main() {
	var (
		configPath string
		stillPath  string
		deviceID   int
	)
	flag.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flag.StringVar(&stillPath, "image", "", "Still image for the gallery; defaults to the first camera frame")
	flag.IntVar(&deviceID, "device", -1, "Video capture device; overrides the config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if deviceID >= 0 {
		cfg.Capture.DeviceID = deviceID
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, stillPath, logger); err != nil {
		logger.Fatal("webcam loop failed", zap.Error(err))
	}
}

// loop holds the state of the capture loop between frames.
type loop struct {
	cfg     *config.Config
	logger  *zap.Logger
	prof    *profiler.Profiler
	gallery *gallery.Gallery

	still        *images.Raster
	stillTracker *detector.Tracker
	liveTracker  *detector.Tracker
	pending      *detector.Handle

	mode gallery.Mode
}

func run(ctx context.Context, cfg *config.Config, stillPath string, logger *zap.Logger) error {
	prof := profiler.New(logger, profiler.Options{ReportInterval: cfg.Profiler.Interval})
	if cfg.Profiler.Enabled {
		prof.Start()
		defer prof.Stop()
	}

	cascade, err := detector.NewCascade(detector.CascadeConfig{
		FaceCascade:  cfg.Detector.FaceCascade,
		EyeCascade:   cfg.Detector.EyeCascade,
		ScaleFactor:  cfg.Detector.ScaleFactor,
		MinNeighbors: cfg.Detector.MinNeighbors,
		MinSize:      cfg.Detector.MinSize,
	})
	if err != nil {
		return err
	}
	defer cascade.Close()

	l := &loop{
		cfg:          cfg,
		logger:       logger,
		prof:         prof,
		gallery:      gallery.New(cfg.Gallery, cfg.Filters),
		stillTracker: detector.NewTracker(cascade, logger.Named("still")),
		liveTracker:  detector.NewTracker(cascade, logger.Named("live")),
	}
	defer l.stillTracker.Wait()
	defer l.liveTracker.Wait()

	if stillPath != "" {
		img, err := util.LoadRaster(stillPath)
		if err != nil {
			return err
		}
		if err := l.setStill(ctx, img); err != nil {
			return err
		}
	}

	webcam, err := gocv.OpenVideoCapture(cfg.Capture.DeviceID)
	if err != nil {
		return errors.Wrapf(err, "failed to open capture device %d", cfg.Capture.DeviceID)
	}
	defer webcam.Close()

	window := gocv.NewWindow("Face Filter")
	defer window.Close()

	mat := gocv.NewMat()
	defer mat.Close()

	logger.Info("start reading camera device", zap.Int("device", cfg.Capture.DeviceID))

	frameCount := 0
	lastTime := time.Now()

	for frame := 0; ; frame++ {
		if ctx.Err() != nil {
			return nil
		}

		if ok := webcam.Read(&mat); !ok {
			return errors.Errorf("cannot read device %d", cfg.Capture.DeviceID)
		}
		if mat.Empty() {
			continue
		}

		live, err := l.fit(mat)
		if err != nil {
			logger.Warn("dropping frame", zap.Error(err))
			continue
		}

		if l.still == nil {
			if err := l.setStill(ctx, live); err != nil {
				return err
			}
		}
		if frame%cfg.Capture.DetectEvery == 0 {
			l.requestLive(ctx, live)
		}

		if err := l.show(window, live); err != nil {
			return err
		}

		frameCount++
		if elapsed := time.Since(lastTime).Seconds(); elapsed >= 1.0 {
			prof.RecordMetric("fps", float64(frameCount)/elapsed)
			frameCount = 0
			lastTime = time.Now()
		}

		if quit := l.handleKey(ctx, window.WaitKey(1), live); quit {
			return nil
		}
	}
}

// fit converts a captured frame to a cell-sized raster.
func (l *loop) fit(mat gocv.Mat) (*images.Raster, error) {
	defer l.prof.StartOperation("frame.fit")()

	img, err := mat.ToImage()
	if err != nil {
		return nil, err
	}
	return l.gallery.Fit(img)
}

// setStill replaces the gallery image and detects its face in the background.
func (l *loop) setStill(ctx context.Context, img *images.Raster) error {
	still, err := l.gallery.Fit(img)
	if err != nil {
		return err
	}
	l.still = still
	l.stillTracker.Set(nil)
	l.stillTracker.Request(ctx, still)
	return nil
}

// requestLive starts a live detection unless one is still running, so a slow
// detector never queues up frames.
func (l *loop) requestLive(ctx context.Context, live *images.Raster) {
	if l.pending != nil {
		select {
		case <-l.pending.Done():
		default:
			return
		}
	}
	l.pending = l.liveTracker.Request(ctx, live)
}

// show renders the gallery for the current frame and displays it.
func (l *loop) show(window *gocv.Window, live *images.Raster) error {
	done := l.prof.StartOperation("gallery.render")
	canvas := l.gallery.Render(gallery.FrameContext{
		Current:  l.still,
		Face:     l.stillTracker.Latest(),
		Live:     live,
		LiveFace: l.liveTracker.Latest(),
		Mode:     l.mode,
	})
	done()

	out, err := gocv.ImageToMatRGBA(canvas)
	if err != nil {
		return errors.Wrap(err, "failed to convert canvas")
	}
	defer out.Close()

	window.IMShow(out)
	return nil
}

// handleKey applies a key press and reports whether the loop should exit.
func (l *loop) handleKey(ctx context.Context, key int, live *images.Raster) bool {
	switch key {
	case -1:
		return false
	case keyEscape, 'q':
		return true
	case keySpace:
		l.snapshot(ctx, live)
	case '+', '=':
		l.gallery.AdjustThreshold(thresholdStep)
		l.logger.Info("threshold", zap.Int("value", l.gallery.Threshold()))
	case '-':
		l.gallery.AdjustThreshold(-thresholdStep)
		l.logger.Info("threshold", zap.Int("value", l.gallery.Threshold()))
	default:
		if next := l.mode.Next(rune(key)); next != l.mode {
			l.logger.Info("face filter mode", zap.Stringer("from", l.mode), zap.Stringer("to", next))
			l.mode = next
		}
	}
	return false
}

// snapshot makes the live frame the new still image and saves it.
func (l *loop) snapshot(ctx context.Context, live *images.Raster) {
	if err := l.setStill(ctx, live); err != nil {
		l.logger.Warn("snapshot failed", zap.Error(err))
		return
	}

	path, err := util.NextFramePath(l.cfg.Capture.Snapshot)
	if err == nil {
		err = util.SaveRaster(path, l.still)
	}
	if err != nil {
		l.logger.Warn("failed to save snapshot", zap.Error(err))
		return
	}
	l.logger.Info("saved snapshot", zap.String("path", path))
}
