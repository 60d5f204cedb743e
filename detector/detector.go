// Package detector defines the face detector boundary and the single-slot
// tracker that keeps the latest detection result for the render loop.
package detector

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nvr-ai/go-facefilter/common"
	"go.uber.org/zap"
)

// Detector finds at most one face in an image.
//
// A nil region with a nil error means no face was found. Implementations may
// be slow; callers that must not block go through a Tracker.
type Detector interface {
	Detect(ctx context.Context, img image.Image) (*common.FaceRegion, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, img image.Image) (*common.FaceRegion, error)

// Detect implements Detector.
func (f DetectorFunc) Detect(ctx context.Context, img image.Image) (*common.FaceRegion, error) {
	return f(ctx, img)
}

// Result is the outcome of one detection request.
type Result struct {
	Face *common.FaceRegion
	Err  error
	// Seq is the request's sequence number, starting at 1.
	Seq uint64
	// Elapsed is how long the detector ran.
	Elapsed time.Duration
}

// Handle refers to an in-flight detection request.
type Handle struct {
	seq    uint64
	done   chan struct{}
	result Result
}

// Seq returns the request's sequence number.
func (h *Handle) Seq() uint64 { return h.seq }

// Done is closed once the request has completed and the tracker slot has
// been updated.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the request completes or ctx is done.
func (h *Handle) Wait(ctx context.Context) (Result, error) {
	select {
	case <-h.done:
		return h.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Tracker runs detections in the background and keeps the most recently
// completed result in a single slot.
//
// Requests are never cancelled: whichever request completes last overwrites
// the slot, even if it was issued earlier than the current value. Latest
// never blocks, so a render loop can read it every frame and tolerate a stale
// or missing face.
type Tracker struct {
	detector Detector
	logger   *zap.Logger

	seq     atomic.Uint64
	latest  atomic.Pointer[common.FaceRegion]
	pending sync.WaitGroup
}

// NewTracker creates a tracker around d. A nil logger disables logging.
func NewTracker(d Detector, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{detector: d, logger: logger.Named("detector")}
}

// Request starts a detection of img on its own goroutine and returns
// immediately. The caller must not modify img until the handle is done.
//
// A detector error is logged and clears the slot: the frame is treated as
// having no face.
func (t *Tracker) Request(ctx context.Context, img image.Image) *Handle {
	h := &Handle{seq: t.seq.Add(1), done: make(chan struct{})}

	t.pending.Add(1)
	go func() {
		defer t.pending.Done()
		defer close(h.done)

		start := time.Now()
		face, err := t.detector.Detect(ctx, img)
		h.result = Result{Face: face, Err: err, Seq: h.seq, Elapsed: time.Since(start)}

		if err != nil {
			t.logger.Warn("face detection failed",
				zap.Uint64("seq", h.seq),
				zap.Error(err))
			t.latest.Store(nil)
			return
		}

		t.logger.Debug("face detection completed",
			zap.Uint64("seq", h.seq),
			zap.Stringer("face", face),
			zap.Duration("elapsed", h.result.Elapsed))
		t.latest.Store(face)
	}()

	return h
}

// Latest returns the most recently stored face region, or nil.
func (t *Tracker) Latest() *common.FaceRegion {
	return t.latest.Load()
}

// Set overwrites the slot directly, for callers that obtain regions from
// somewhere other than the detector.
func (t *Tracker) Set(face *common.FaceRegion) {
	t.latest.Store(face)
}

// Wait blocks until every request issued so far has completed.
func (t *Tracker) Wait() {
	t.pending.Wait()
}
