package app

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/soocke/pixel-recorder-go/config"
	"github.com/soocke/pixel-recorder-go/domain/capture"
	"github.com/soocke/pixel-recorder-go/domain/input"
	"github.com/soocke/pixel-recorder-go/domain/project"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type fakeDevice struct {
	openErr error
	grabs   atomic.Int64
	closed  atomic.Int64
}

func (d *fakeDevice) Open(capture.DeviceConfig) error { return d.openErr }
func (d *fakeDevice) Grab(dst []byte) error {
	v := byte(d.grabs.Add(1))
	for i := range dst {
		dst[i] = v | 1
	}
	return nil
}
func (d *fakeDevice) Cursor() (capture.CursorSnapshot, error) { return capture.CursorSnapshot{}, nil }
func (d *fakeDevice) Close() error                            { d.closed.Add(1); return nil }

type fakeHook struct {
	sink    input.Sink
	origin  image.Point
	started int
	stopped int
}

func (h *fakeHook) Start(sink input.Sink, origin image.Point) error {
	h.started++
	h.sink, h.origin = sink, origin
	return nil
}
func (h *fakeHook) Stop() error { h.stopped++; return nil }

type fakeConverter struct {
	err   error
	calls int
	got   *capture.RawRecording
}

func (c *fakeConverter) Convert(_ context.Context, rec *capture.RawRecording) (*project.CachedProject, error) {
	c.calls++
	c.got = rec
	if c.err != nil {
		return nil, c.err
	}
	return &project.CachedProject{CacheRootPath: "converted"}, nil
}

type recorderFixture struct {
	cfg  *config.Config
	dev  *fakeDevice
	hook *fakeHook
	conv *fakeConverter
	r    *Recorder
}

func newRecorderFixture(t *testing.T) *recorderFixture {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.TempFolder = t.TempDir()
	cfg.IntervalMs = 5
	cfg.RegionLeft, cfg.RegionTop = 10, 20
	cfg.RegionWidth, cfg.RegionHeight = 4, 2
	cfg.ShowCursor = false
	_ = cfg.Validate()
	f := &recorderFixture{cfg: cfg, dev: &fakeDevice{}, hook: &fakeHook{}, conv: &fakeConverter{}}
	f.r = NewRecorder(cfg, discardLogger(), func(opts capture.Options) capture.Backend {
		return capture.NewBackend(f.dev, opts)
	}, func() input.Hook { return f.hook }, f.conv)
	return f
}

func waitFrames(t *testing.T, r *Recorder, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for r.Status().Frames < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d frames, status %+v", n, r.Status())
		}
		time.Sleep(time.Millisecond)
	}
}

func recordingDirs(t *testing.T, cfg *config.Config) int {
	t.Helper()
	entries, err := os.ReadDir(RecordingsDir(cfg))
	if err != nil {
		return 0
	}
	return len(entries)
}

func TestRecorder_Lifecycle(t *testing.T) {
	f := newRecorderFixture(t)
	r := f.r

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.Start(); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("second start: expected ErrSessionActive, got %v", err)
	}
	if f.hook.started != 1 || f.hook.origin != image.Pt(10, 20) || f.hook.sink == nil {
		t.Fatalf("hook not started with backend and origin: %+v", f.hook)
	}
	waitFrames(t, r, 2)

	if !r.Mark('M', capture.ModControl) {
		t.Fatalf("mark while capturing must succeed")
	}

	r.Pause()
	if st := r.Status(); st.State != "paused" {
		t.Fatalf("expected paused, got %+v", st)
	}
	if r.Mark('N', 0) {
		t.Fatalf("mark while paused must be ignored")
	}
	r.TogglePause()
	if st := r.Status(); st.State != "capturing" || st.Segments != 2 {
		t.Fatalf("expected capturing in a second segment, got %+v", st)
	}

	rec, err := r.Stop()
	if err != nil || rec == nil {
		t.Fatalf("stop: rec=%v err=%v", rec, err)
	}
	if !rec.Frozen() || f.dev.closed.Load() != 1 || f.hook.stopped != 1 {
		t.Fatalf("stop did not release: frozen=%v closed=%d hookStopped=%d", rec.Frozen(), f.dev.closed.Load(), f.hook.stopped)
	}
	again, err := r.Stop()
	if err != nil || again != rec || f.dev.closed.Load() != 1 {
		t.Fatalf("stop must be idempotent")
	}
	if st := r.Status(); st.State != "stopped" || !st.Pending || st.Frames < 2 {
		t.Fatalf("status after stop %+v", st)
	}
	var marks int
	for _, e := range rec.Events() {
		if k, ok := e.(capture.KeyEvent); ok && k.Key == 'M' && k.WasInjected && k.Modifiers == capture.ModControl {
			marks++
		}
	}
	if marks != 1 {
		t.Fatalf("expected one injected mark, got %d", marks)
	}
	if err := r.Start(); !errors.Is(err, ErrPendingRecording) {
		t.Fatalf("start with pending recording: expected ErrPendingRecording, got %v", err)
	}

	p, err := r.Convert(context.Background())
	if err != nil || p == nil || f.conv.got != rec {
		t.Fatalf("convert: p=%v err=%v", p, err)
	}
	if _, err := os.Stat(rec.CacheRootPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("raw recording must be removed after conversion: %v", err)
	}
	if _, err := r.Convert(context.Background()); !errors.Is(err, ErrNoRecording) {
		t.Fatalf("expected ErrNoRecording, got %v", err)
	}
	if st := r.Status(); st.State != "idle" || st.Pending {
		t.Fatalf("status after convert %+v", st)
	}
}

func TestRecorder_StartFailureLeavesNothing(t *testing.T) {
	f := newRecorderFixture(t)
	f.dev.openErr = errors.New("no display")
	err := f.r.Start()
	if !errors.Is(err, capture.ErrResourceAcquisition) {
		t.Fatalf("expected ErrResourceAcquisition, got %v", err)
	}
	if n := recordingDirs(t, f.cfg); n != 0 {
		t.Fatalf("failed start left %d recording dirs", n)
	}
	if f.hook.started != 0 {
		t.Fatalf("hook must not start after a failed start")
	}
	if st := f.r.Status(); st.State != "idle" || st.Pending {
		t.Fatalf("status after failed start %+v", st)
	}
}

func TestRecorder_Discard(t *testing.T) {
	f := newRecorderFixture(t)
	if err := f.r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFrames(t, f.r, 1)
	if err := f.r.Discard(); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if n := recordingDirs(t, f.cfg); n != 0 {
		t.Fatalf("discard left %d recording dirs", n)
	}
	if err := f.r.Discard(); err != nil {
		t.Fatalf("second discard: %v", err)
	}
	if f.conv.calls != 0 {
		t.Fatalf("discard must not convert")
	}
}

func TestRecorder_ConvertFailureKeepsRecording(t *testing.T) {
	f := newRecorderFixture(t)
	f.conv.err = errors.New("disk full")
	if err := f.r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFrames(t, f.r, 1)
	if _, err := f.r.Convert(context.Background()); err == nil {
		t.Fatalf("expected conversion error")
	}
	if st := f.r.Status(); !st.Pending {
		t.Fatalf("failed conversion must keep the recording pending")
	}
	f.conv.err = nil
	if _, err := f.r.Convert(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if f.conv.calls != 2 {
		t.Fatalf("expected 2 conversion attempts, got %d", f.conv.calls)
	}
}

func TestBuildContainer_WiresRealConverter(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TempFolder = t.TempDir()
	c := BuildContainer(cfg, discardLogger())
	if c.Recorder == nil || c.Converter == nil {
		t.Fatalf("container incomplete: %+v", c)
	}
	if _, err := c.Recorder.Convert(context.Background()); !errors.Is(err, ErrNoRecording) {
		t.Fatalf("expected ErrNoRecording, got %v", err)
	}
}
