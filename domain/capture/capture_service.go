package capture

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const captureStatsLogInterval = 5 * time.Second

// CaptureService drives a Backend from a single capture goroutine: capture a
// frame, save it, wait for the next tick. It is the only writer of the raw
// log. Use NewCaptureService to construct an instance.
type CaptureService interface {
	Start()
	Stop()
	Pause()
	Resume()
	Running() bool
	Paused() bool
	Stats() CaptureStats
	// Err returns the error that ended the loop, if any.
	Err() error
	// Done is closed when the loop exits on its own or after Stop.
	Done() <-chan struct{}
}

type captureService struct {
	backend    Backend
	logger     *slog.Logger
	interval   time.Duration
	withCursor bool

	mu      sync.Mutex
	running atomic.Bool
	paused  atomic.Bool
	quit    chan struct{}
	done    chan struct{}
	err     atomic.Pointer[error]
}

func newCaptureService(logger *slog.Logger, backend Backend, interval time.Duration, withCursor bool) *captureService {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Second / 15
	}
	done := make(chan struct{})
	close(done)
	return &captureService{backend: backend, logger: logger, interval: interval, withCursor: withCursor, done: done}
}

// NewCaptureService constructs a capture service around a started backend.
func NewCaptureService(logger *slog.Logger, backend Backend, interval time.Duration, withCursor bool) CaptureService {
	return newCaptureService(logger, backend, interval, withCursor)
}

func (s *captureService) Running() bool { return s.running.Load() }

func (s *captureService) Paused() bool { return s.paused.Load() }

func (s *captureService) Stats() CaptureStats { return s.backend.Stats() }

func (s *captureService) Err() error {
	if p := s.err.Load(); p != nil {
		return *p
	}
	return nil
}

func (s *captureService) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *captureService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running.Load() {
		return
	}
	s.running.Store(true)
	s.quit = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.quit, s.done)
}

// Stop ends the loop, waits for the in-flight frame and stops the backend.
// A frame still blocked after one interval is interrupted.
func (s *captureService) Stop() {
	s.mu.Lock()
	quit, done := s.quit, s.done
	if s.running.Load() && quit != nil {
		close(quit)
		s.quit = nil
	}
	s.mu.Unlock()
	grace := time.NewTimer(s.interval)
	select {
	case <-done:
	case <-grace.C:
		s.logger.Warn("capture frame still blocked, interrupting device")
		s.backend.Interrupt()
		<-done
	}
	grace.Stop()
	s.running.Store(false)
	s.backend.Stop()
}

func (s *captureService) Pause() {
	if !s.running.Load() || s.paused.Swap(true) {
		return
	}
	s.backend.Pause()
}

func (s *captureService) Resume() {
	if !s.running.Load() || !s.paused.Load() {
		return
	}
	s.backend.Resume()
	s.paused.Store(false)
}

func (s *captureService) loop(quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	logTicker := time.NewTicker(captureStatsLogInterval)
	defer logTicker.Stop()
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-quit:
			return
		case <-logTicker.C:
			s.logStats()
			continue
		case <-timer.C:
		}

		start := time.Now()
		if !s.paused.Load() && s.backend.State() == StateCapturing {
			if err := s.captureOne(); err != nil {
				s.logger.Error("capture save", "error", err)
				s.err.Store(&err)
				s.running.Store(false)
				return
			}
		}
		next := s.interval - time.Since(start)
		if next < 0 {
			next = 0
		}
		timer.Reset(next)
	}
}

func (s *captureService) captureOne() error {
	frame := &RecordingFrame{}
	before := s.backend.FrameCount()
	if s.backend.CaptureFrame(frame, s.withCursor) == before {
		return nil
	}
	return s.backend.Save(frame)
}

func (s *captureService) logStats() {
	stats := s.Stats()
	s.logger.Debug("capture.stats",
		"frames", stats.Frames,
		"saved", stats.Saved,
		"dropped", stats.Dropped,
		"skipped", stats.Skipped,
		"cursor_shapes", stats.CursorShapes,
		"key_events", stats.KeyEvents,
		"avg_capture", stats.AvgCapture,
	)
}
