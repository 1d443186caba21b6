package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// State is the backend lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateCapturing
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Backend captures frames from a Device into a RawRecording and stamps input
// events on the same clock. CaptureFrame, Save, Pause, Resume and Stop are
// driven by one capture goroutine; the Register methods may be called from
// any goroutine.
type Backend interface {
	Start(delayMs int, region Region, dpiScale float64, rec *RawRecording) error
	// CaptureFrame fills frame and returns the frame count. A count equal to
	// the previous one means nothing was captured and frame must not be
	// saved.
	CaptureFrame(frame *RecordingFrame, withCursor bool) int
	Save(frame *RecordingFrame) error
	Stop()
	// Interrupt unblocks an in-flight CaptureFrame on devices that can stall.
	// It does not wait for the capture goroutine and the frame is dropped.
	Interrupt()
	Pause()
	Resume()
	FrameCount() int
	State() State
	Stats() CaptureStats
	Clock() *Clock

	RegisterCursorEvent(x, y int32, buttons MouseButtons, wheelDelta int16)
	RegisterCursorDataEvent(shape CursorShape, x, y int32)
	RegisterKeyEvent(key uint8, modifiers ModifierKeys, isUppercase, wasInjected bool)
}

// Options configures a backend.
type Options struct {
	// PreventBlackFrames treats a frame whose first byte is zero and whose
	// pixels are all zero as skipped.
	PreventBlackFrames bool
	// FixedRate stamps every frame with the configured delay instead of the
	// measured one.
	FixedRate      bool
	LayeredWindows bool
	// Clock is shared with input producers. A nil clock gets a private one.
	Clock  *Clock
	Logger *slog.Logger
}

type recorder struct {
	device Device
	opts   Options
	logger *slog.Logger
	timer  *FrameTimer

	mu         sync.Mutex // serializes capture goroutine calls
	state      atomic.Int32
	rec        atomic.Pointer[RawRecording]
	region     Region
	delayMs    int
	byteLength int
	grabBuf    []byte
	incomplete bool
	frameCount int

	frames       atomic.Uint64
	saved        atomic.Uint64
	dropped      atomic.Uint64
	skipped      atomic.Uint64
	lostDelay    atomic.Uint64
	cursorShapes atomic.Uint64
	cursorEvents atomic.Uint64
	keyEvents    atomic.Uint64
	captureNanos atomic.Uint64
	lastCapture  atomic.Int64
}

func newRecorder(device Device, opts Options) *recorder {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &recorder{
		device: device,
		opts:   opts,
		logger: logger,
		timer:  NewFrameTimer(opts.Clock),
	}
}

// NewBackend returns a backend capturing from device.
func NewBackend(device Device, opts Options) Backend {
	return newRecorder(device, opts)
}

// NewScreenBackend captures the screen with the platform device.
func NewScreenBackend(opts Options) Backend {
	return newRecorder(NewScreenDevice(), opts)
}

// NewWebcamBackend captures frames from a raw stream.
func NewWebcamBackend(open StreamOpener, opts Options) Backend {
	return newRecorder(NewStreamDevice(open), opts)
}

func (r *recorder) State() State { return State(r.state.Load()) }

func (r *recorder) Clock() *Clock { return r.timer.Clock() }

func (r *recorder) FrameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameCount
}

func (r *recorder) Start(delayMs int, region Region, dpiScale float64, rec *RawRecording) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.State() != StateIdle {
		return ErrAlreadyStarted
	}
	if rec == nil {
		return errors.New("capture: nil recording")
	}
	if region.Empty() {
		return fmt.Errorf("%w: %dx%d", ErrInvalidRegion, region.Width, region.Height)
	}
	if delayMs <= 0 {
		return fmt.Errorf("capture: invalid delay %d ms", delayMs)
	}

	src := region.Scale(dpiScale)
	cfg := DeviceConfig{
		Source:         src,
		Width:          src.Width,
		Height:         src.Height,
		BitCount:       32,
		LayeredWindows: r.opts.LayeredWindows,
	}
	if err := r.device.Open(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrResourceAcquisition, err)
	}

	rec.setGeometry(cfg.Width, cfg.Height, dpiScale)
	r.rec.Store(rec)
	r.region = src
	r.delayMs = delayMs
	r.byteLength = cfg.BufferSize()
	r.grabBuf = make([]byte, r.byteLength)
	r.frameCount = 0
	r.timer.Start(delayMs, r.opts.FixedRate)
	r.state.Store(int32(StateCapturing))
	r.logger.Info("capture started",
		"recording", rec.ID.String(),
		"left", src.Left, "top", src.Top,
		"width", src.Width, "height", src.Height,
		"delay_ms", delayMs, "fixed_rate", r.opts.FixedRate)

	// Prime the cursor so the first frame has a shape to draw.
	r.captureCursor()
	return nil
}

func (r *recorder) CaptureFrame(frame *RecordingFrame, withCursor bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if frame == nil || r.State() != StateCapturing {
		return r.frameCount
	}

	start := time.Now()
	if !r.grab() {
		r.dropped.Add(1)
		return r.frameCount
	}
	if withCursor {
		r.captureCursor()
	}

	r.frameCount++
	r.frames.Add(1)
	frame.Ticks = r.timer.ElapsedTicks()
	frame.Delay = r.timer.NextDelay()
	frame.Skipped = r.incomplete
	if !frame.Skipped {
		frame.Pixels = acquirePixels(r.byteLength)
		copy(frame.Pixels, r.grabBuf)
	}
	r.captureNanos.Add(uint64(time.Since(start).Nanoseconds()))
	r.lastCapture.Store(time.Now().UnixNano())
	return r.frameCount
}

// grab reads the device into grabBuf. It reports false for a dropped frame.
// r.incomplete is set when the frame should be counted but skipped.
func (r *recorder) grab() (ok bool) {
	r.incomplete = false
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("capture frame panic", "panic", p)
			ok = false
		}
	}()
	err := r.device.Grab(r.grabBuf)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrFrameIncomplete):
		r.incomplete = true
		return true
	default:
		r.logger.Debug("capture frame dropped", "error", err)
		return false
	}
}

func (r *recorder) Save(frame *RecordingFrame) error {
	if frame == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.releasePixels(frame)

	rec := r.rec.Load()
	if rec == nil || r.State() == StateStopped || r.State() == StateIdle {
		return ErrNotCapturing
	}
	if r.opts.PreventBlackFrames && !frame.Skipped && isBlack(frame.Pixels) {
		frame.Skipped = true
	}
	if frame.Skipped || len(frame.Pixels) == 0 {
		r.skipped.Add(1)
		if !rec.foldDelay(frame.Delay) && frame.Delay > 0 {
			r.lostDelay.Add(uint64(frame.Delay))
		}
		return nil
	}
	if err := rec.appendFrame(frame); err != nil {
		return err
	}
	r.saved.Add(1)
	return nil
}

func (r *recorder) releasePixels(frame *RecordingFrame) {
	recyclePixels(frame.Pixels)
	frame.Pixels = nil
}

func isBlack(pixels []byte) bool {
	if len(pixels) == 0 || pixels[0] != 0 {
		return false
	}
	for _, b := range pixels {
		if b != 0 {
			return false
		}
	}
	return true
}

func (r *recorder) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.CompareAndSwap(int32(StateCapturing), int32(StatePaused)) {
		return
	}
	r.timer.Stop()
	if rec := r.rec.Load(); rec != nil {
		if err := rec.Flush(); err != nil {
			r.logger.Warn("flush raw log on pause", "error", err)
		}
	}
	r.logger.Info("capture paused", "frames", r.frameCount)
}

func (r *recorder) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.State() != StatePaused {
		return
	}
	r.timer.Start(r.delayMs, r.opts.FixedRate)
	r.state.Store(int32(StateCapturing))
	r.logger.Info("capture resumed", "frames", r.frameCount)
}

// Stop freezes the recording and releases every native resource. It is a
// no-op on a backend that never started or already stopped.
func (r *recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := State(r.state.Load())
	if prev == StateIdle || prev == StateStopped {
		return
	}
	r.state.Store(int32(StateStopped))
	r.timer.Stop()
	if rec := r.rec.Load(); rec != nil {
		if err := rec.Freeze(); err != nil {
			r.logger.Error("freeze recording", "error", err)
		}
	}
	for _, err := range splitErrors(r.device.Close()) {
		r.logger.Error("release capture resource", "error", err)
	}
	r.grabBuf = nil
	r.logger.Info("capture stopped", "frames", r.frameCount, "saved", r.saved.Load(), "dropped", r.dropped.Load(), "skipped", r.skipped.Load())
}

func (r *recorder) Interrupt() {
	in, ok := r.device.(Interrupter)
	if !ok {
		return
	}
	if err := in.Interrupt(); err != nil {
		r.logger.Warn("interrupt capture device", "error", err)
	}
}

// captureCursor reads the cursor from the device and records its shape and
// position. Failures are logged and never affect the frame.
func (r *recorder) captureCursor() {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("cursor capture panic", "panic", p)
		}
	}()
	snap, err := r.device.Cursor()
	if err != nil {
		if !errors.Is(err, ErrCursorUnsupported) {
			r.logger.Debug("cursor capture failed", "error", err)
		}
		return
	}
	if !snap.Visible {
		return
	}
	x := int32(snap.X - r.region.Left)
	y := int32(snap.Y - r.region.Top)
	shape, ok := selectCursorShape(snap)
	if !ok {
		return
	}
	r.RegisterCursorDataEvent(shape, x, y)
	r.RegisterCursorEvent(x, y, snap.Buttons, 0)
}

// recording returns the active recording while events are accepted.
func (r *recorder) recording() *RawRecording {
	if r.State() != StateCapturing {
		return nil
	}
	return r.rec.Load()
}

func (r *recorder) RegisterCursorEvent(x, y int32, buttons MouseButtons, wheelDelta int16) {
	rec := r.recording()
	if rec == nil {
		return
	}
	e := CursorEvent{Ticks: r.timer.ElapsedTicks(), X: x, Y: y, Buttons: buttons, MouseDelta: wheelDelta}
	if rec.appendEvent(e) {
		r.cursorEvents.Add(1)
	}
}

func (r *recorder) RegisterCursorDataEvent(shape CursorShape, x, y int32) {
	rec := r.recording()
	if rec == nil {
		return
	}
	e := CursorDataEvent{
		Ticks:      r.timer.ElapsedTicks(),
		CursorType: shape.Type,
		X:          x,
		Y:          y,
		Width:      shape.Width,
		Height:     shape.Height,
		XHotspot:   shape.XHotspot,
		YHotspot:   shape.YHotspot,
	}
	if err := rec.appendCursorData(e, shape.Pixels); err != nil {
		r.logger.Warn("record cursor shape", "error", err)
		return
	}
	r.cursorShapes.Add(1)
}

func (r *recorder) RegisterKeyEvent(key uint8, modifiers ModifierKeys, isUppercase, wasInjected bool) {
	rec := r.recording()
	if rec == nil {
		return
	}
	e := KeyEvent{Ticks: r.timer.ElapsedTicks(), Key: key, Modifiers: modifiers, IsUppercase: isUppercase, WasInjected: wasInjected}
	if rec.appendEvent(e) {
		r.keyEvents.Add(1)
	}
}

func (r *recorder) Stats() CaptureStats {
	frames := r.frames.Load()
	total := r.captureNanos.Load()
	var avg time.Duration
	avgMicros := 0.0
	if frames > 0 && total > 0 {
		avg = time.Duration(total / frames)
		avgMicros = float64(avg) / float64(time.Microsecond)
	}
	var last time.Time
	if ns := r.lastCapture.Load(); ns > 0 {
		last = time.Unix(0, ns)
	}
	return CaptureStats{
		Frames:           frames,
		Saved:            r.saved.Load(),
		Dropped:          r.dropped.Load(),
		Skipped:          r.skipped.Load(),
		LostDelayMs:      r.lostDelay.Load(),
		CursorShapes:     r.cursorShapes.Load(),
		CursorEvents:     r.cursorEvents.Load(),
		KeyEvents:        r.keyEvents.Load(),
		AvgCapture:       avg,
		AvgCaptureMicros: avgMicros,
		LastCapture:      last,
	}
}
