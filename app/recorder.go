package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/soocke/pixel-recorder-go/config"
	"github.com/soocke/pixel-recorder-go/domain/capture"
	"github.com/soocke/pixel-recorder-go/domain/input"
	"github.com/soocke/pixel-recorder-go/domain/project"
)

var (
	ErrSessionActive    = errors.New("app: a recording is in progress")
	ErrPendingRecording = errors.New("app: convert or discard the previous recording first")
	ErrNoRecording      = errors.New("app: no recording")
)

// BackendFactory builds a capture backend for one session.
type BackendFactory func(opts capture.Options) capture.Backend

// HookFactory builds the global input hook for one session.
type HookFactory func() input.Hook

// Converter narrows what the recorder needs from project conversion.
type Converter interface {
	Convert(ctx context.Context, rec *capture.RawRecording) (*project.CachedProject, error)
}

// Status is a point-in-time view of the recorder.
type Status struct {
	State    string
	Frames   int
	Segment  time.Duration
	Total    time.Duration
	Segments int
	Pending  bool // a stopped recording awaits Convert or Discard
}

// Recorder runs one capture session at a time: it owns the backend, the
// capture loop and the input hook, and hands stopped recordings to the
// converter. All methods are safe for concurrent use and idempotent.
type Recorder struct {
	cfg       *config.Config
	logger    *slog.Logger
	backends  BackendFactory
	hooks     HookFactory
	converter Converter
	now       func() time.Time

	mu      sync.Mutex
	timer   SessionTimer
	backend capture.Backend
	svc     capture.CaptureService
	hook    input.Hook
	rec     *capture.RawRecording
	pending *capture.RawRecording
}

func NewRecorder(cfg *config.Config, logger *slog.Logger, backends BackendFactory, hooks HookFactory, converter Converter) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{cfg: cfg, logger: logger, backends: backends, hooks: hooks, converter: converter, now: time.Now}
}

// RecordingsDir is where raw recordings are written.
func RecordingsDir(cfg *config.Config) string {
	return filepath.Join(cfg.TempFolder, "ScreenToGif", "Recording")
}

func (r *Recorder) source() capture.Source {
	if r.cfg.Source == config.SourceWebcam {
		return capture.SourceWebcam
	}
	return capture.SourceScreen
}

// region returns the logical capture region and its DPI scale.
func (r *Recorder) region() (capture.Region, float64) {
	if r.source() == capture.SourceWebcam {
		return capture.Region{Width: r.cfg.WebcamWidth, Height: r.cfg.WebcamHeight}, 1
	}
	return capture.Region{
		Left:   r.cfg.RegionLeft,
		Top:    r.cfg.RegionTop,
		Width:  r.cfg.RegionWidth,
		Height: r.cfg.RegionHeight,
	}, r.cfg.DPIScale
}

// Start begins a new recording.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.svc != nil {
		return ErrSessionActive
	}
	if r.pending != nil {
		return ErrPendingRecording
	}

	rec, err := capture.NewRawRecording(RecordingsDir(r.cfg), r.source())
	if err != nil {
		return err
	}
	backend := r.backends(capture.Options{
		PreventBlackFrames: r.cfg.PreventBlackFrames,
		FixedRate:          r.cfg.FixedFrameRate,
		LayeredWindows:     !(r.cfg.RemoteSessionImprovement && capture.RemoteSession()),
		Logger:             r.logger,
	})
	region, scale := r.region()
	if err := backend.Start(r.cfg.IntervalMs, region, scale, rec); err != nil {
		if derr := rec.Discard(); derr != nil {
			r.logger.Warn("discard recording after failed start", "error", derr)
		}
		return fmt.Errorf("start capture: %w", err)
	}

	interval := time.Duration(r.cfg.IntervalMs) * time.Millisecond
	svc := capture.NewCaptureService(r.logger, backend, interval, r.cfg.ShowCursor)
	svc.Start()

	r.backend, r.svc, r.rec = backend, svc, rec
	r.timer.Reset()
	r.timer.Update(true, r.now())

	if r.cfg.CaptureInput && r.hooks != nil && r.source() == capture.SourceScreen {
		phys := region.Scale(scale)
		hook := r.hooks()
		if err := hook.Start(backend, image.Pt(phys.Left, phys.Top)); err != nil {
			if errors.Is(err, capture.ErrNotImplemented) {
				r.logger.Debug("input hooks unavailable", "error", err)
			} else {
				r.logger.Warn("input hooks failed", "error", err)
			}
		} else {
			r.hook = hook
		}
	}
	r.logger.Info("recording started", "recording", rec.ID.String(), "source", rec.Source.String(), "path", rec.CacheRootPath)
	return nil
}

// Pause suspends capture; the session clock stops with it.
func (r *Recorder) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.svc == nil || r.svc.Paused() {
		return
	}
	r.svc.Pause()
	r.timer.Update(false, r.now())
}

// Resume continues a paused recording.
func (r *Recorder) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.svc == nil || !r.svc.Paused() {
		return
	}
	r.svc.Resume()
	r.timer.Update(true, r.now())
}

// TogglePause flips between Pause and Resume.
func (r *Recorder) TogglePause() {
	r.mu.Lock()
	paused := r.svc != nil && r.svc.Paused()
	r.mu.Unlock()
	if paused {
		r.Resume()
		return
	}
	r.Pause()
}

// Stop ends the recording and keeps it pending for Convert or Discard. It
// returns the error that ended the capture loop early, if any.
func (r *Recorder) Stop() (*capture.RawRecording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLocked()
}

func (r *Recorder) stopLocked() (*capture.RawRecording, error) {
	if r.svc == nil {
		return r.pending, nil
	}
	if r.hook != nil {
		if err := r.hook.Stop(); err != nil {
			r.logger.Warn("stop input hooks", "error", err)
		}
		r.hook = nil
	}
	r.svc.Stop()
	err := r.svc.Err()
	r.timer.Update(false, r.now())
	_, total := r.timer.Values()
	r.logger.Info("recording stopped",
		"recording", r.rec.ID.String(),
		"frames", r.rec.FrameCount(),
		"duration", total,
		"segments", r.timer.Segments())

	r.pending = r.rec
	r.backend, r.svc, r.rec = nil, nil, nil
	return r.pending, err
}

// Discard stops any active recording and deletes the pending one.
func (r *Recorder) Discard() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.stopLocked(); err != nil {
		r.logger.Warn("capture ended with error", "error", err)
	}
	if r.pending == nil {
		return nil
	}
	rec := r.pending
	r.pending = nil
	if err := rec.Discard(); err != nil {
		return err
	}
	r.logger.Info("recording discarded", "recording", rec.ID.String())
	return nil
}

// Convert stops any active recording and converts the pending one into a
// cached project. The raw recording is deleted once the project exists; on
// failure it stays pending so conversion can be retried.
func (r *Recorder) Convert(ctx context.Context) (*project.CachedProject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.stopLocked(); err != nil {
		r.logger.Warn("capture ended with error", "error", err)
	}
	if r.pending == nil {
		return nil, ErrNoRecording
	}
	p, err := r.converter.Convert(ctx, r.pending)
	if err != nil {
		return nil, err
	}
	if err := r.pending.Discard(); err != nil {
		r.logger.Warn("remove raw recording", "error", err)
	}
	r.pending = nil
	return p, nil
}

// Mark injects a key event into the active recording.
func (r *Recorder) Mark(key uint8, modifiers capture.ModifierKeys) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.backend == nil || r.backend.State() != capture.StateCapturing {
		return false
	}
	r.backend.RegisterKeyEvent(key, modifiers, false, true)
	return true
}

// Stats returns the counters of the active recording.
func (r *Recorder) Stats() (capture.CaptureStats, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.svc == nil {
		return capture.CaptureStats{}, false
	}
	return r.svc.Stats(), true
}

// Status reports the recorder state.
func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.svc != nil && !r.svc.Paused() {
		r.timer.Update(true, r.now())
	}
	segment, total := r.timer.Values()
	st := Status{
		State:    capture.StateIdle.String(),
		Segment:  segment,
		Total:    total,
		Segments: r.timer.Segments(),
		Pending:  r.pending != nil,
	}
	switch {
	case r.svc != nil:
		st.State = r.backend.State().String()
		st.Frames = r.backend.FrameCount()
	case r.pending != nil:
		st.State = capture.StateStopped.String()
		st.Frames = r.pending.FrameCount()
	}
	return st
}
