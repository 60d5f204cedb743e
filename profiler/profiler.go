// Package profiler keeps rolling timings of the per-frame pipeline stages and
// periodically logs a summary.
package profiler

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Options configures a Profiler.
type Options struct {
	// ReportInterval is how often a summary is logged (default: 10s).
	ReportInterval time.Duration
	// MaxSamples is the rolling window per operation (default: 600).
	MaxSamples int
}

// Profiler records how long named operations take, such as "filter.blur" or
// "gallery.render", plus free-form metrics such as frames per second.
//
// It is safe for concurrent use.
type Profiler struct {
	logger   *zap.Logger
	interval time.Duration
	window   int

	mu         sync.Mutex
	operations map[string]*tracker
	metrics    map[string]*tracker
	startTime  time.Time

	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// tracker is a rolling window of samples.
type tracker struct {
	samples []float64
	sum     float64
	min     float64
	max     float64
	count   int64
}

func (t *tracker) add(v float64, window int) {
	if t.count == 0 || v < t.min {
		t.min = v
	}
	if t.count == 0 || v > t.max {
		t.max = v
	}
	t.count++

	t.samples = append(t.samples, v)
	t.sum += v
	if len(t.samples) > window {
		t.sum -= t.samples[0]
		t.samples = t.samples[1:]
	}
}

func (t *tracker) stat() Stat {
	s := Stat{Min: t.min, Max: t.max, Count: t.count, Samples: len(t.samples)}
	if len(t.samples) > 0 {
		s.Avg = t.sum / float64(len(t.samples))
	}
	return s
}

// Stat summarizes one operation or metric. Durations are in milliseconds.
type Stat struct {
	Avg     float64
	Min     float64
	Max     float64
	Count   int64
	Samples int
}

// Stats is a snapshot of everything recorded.
type Stats struct {
	Uptime     time.Duration
	Goroutines int
	HeapAlloc  uint64
	NumGC      uint32
	Operations map[string]Stat
	Metrics    map[string]Stat
}

// New creates a profiler. A nil logger disables reporting.
//
// Arguments:
// - logger: Destination of the periodic summaries.
// - opts: Report interval and window size.
//
// Returns:
// - A stopped profiler; timings are recorded even before Start.
func New(logger *zap.Logger, opts Options) *Profiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = 10 * time.Second
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 600
	}

	return &Profiler{
		logger:     logger.Named("profiler"),
		interval:   opts.ReportInterval,
		window:     opts.MaxSamples,
		operations: make(map[string]*tracker),
		metrics:    make(map[string]*tracker),
		startTime:  time.Now(),
	}
}

// Start begins periodic reporting. Calling Start twice has no effect.
func (p *Profiler) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go func(done chan struct{}) {
		defer close(done)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Report()
			}
		}
	}(p.done)
}

// Stop ends reporting and waits for the reporter to exit.
func (p *Profiler) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	cancel()
	<-done
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The operation name.
//
// Returns:
// - A function to call when the operation completes.
//
// @example
// defer prof.StartOperation("gallery.render")()
func (p *Profiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		p.RecordDuration(name, time.Since(start))
	}
}

// RecordDuration adds one timing sample for name.
func (p *Profiler) RecordDuration(name string, d time.Duration) {
	p.record(p.operations, name, float64(d)/float64(time.Millisecond))
}

// RecordMetric adds one sample of a free-form metric.
func (p *Profiler) RecordMetric(name string, v float64) {
	p.record(p.metrics, name, v)
}

func (p *Profiler) record(m map[string]*tracker, name string, v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := m[name]
	if !ok {
		t = &tracker{}
		m[name] = t
	}
	t.add(v, p.window)
}

// Stats returns a snapshot of the recorded timings and runtime counters.
func (p *Profiler) Stats() Stats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	p.mu.Lock()
	defer p.mu.Unlock()

	s := Stats{
		Uptime:     time.Since(p.startTime),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  mem.HeapAlloc,
		NumGC:      mem.NumGC,
		Operations: make(map[string]Stat, len(p.operations)),
		Metrics:    make(map[string]Stat, len(p.metrics)),
	}
	for name, t := range p.operations {
		s.Operations[name] = t.stat()
	}
	for name, t := range p.metrics {
		s.Metrics[name] = t.stat()
	}
	return s
}

// Report logs the current Stats at info level, one line per operation.
func (p *Profiler) Report() {
	s := p.Stats()

	p.logger.Info("runtime",
		zap.Duration("uptime", s.Uptime.Truncate(time.Millisecond)),
		zap.Int("goroutines", s.Goroutines),
		zap.Uint64("heap_alloc", s.HeapAlloc),
		zap.Uint32("gc_cycles", s.NumGC))

	for _, name := range sortedKeys(s.Operations) {
		st := s.Operations[name]
		p.logger.Info("operation",
			zap.String("name", name),
			zap.Float64("avg_ms", st.Avg),
			zap.Float64("min_ms", st.Min),
			zap.Float64("max_ms", st.Max),
			zap.Int64("count", st.Count))
	}
	for _, name := range sortedKeys(s.Metrics) {
		st := s.Metrics[name]
		p.logger.Info("metric",
			zap.String("name", name),
			zap.Float64("avg", st.Avg),
			zap.Float64("min", st.Min),
			zap.Float64("max", st.Max))
	}
}

func sortedKeys(m map[string]Stat) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
