package capture

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soocke/pixel-recorder-go/domain/codec"
)

// FramesCacheName is the raw log file name inside a recording directory.
const FramesCacheName = "Frames.cache"

const logBufferSize = 1 << 20

// ErrRecordingFrozen is returned when appending to a recording after Freeze.
var ErrRecordingFrozen = errors.New("capture: recording is frozen")

// RawRecording is a capture session's output: an append-only raw log on disk
// plus the in-memory frame and event index. The capture goroutine appends
// frames and cursor shapes; input hooks append events from their own
// goroutines. After Freeze the recording is read-only and may be handed to a
// converter.
type RawRecording struct {
	ID              uuid.UUID
	CacheRootPath   string
	FramesCachePath string
	Source          Source
	CreationDate    time.Time
	Width           int
	Height          int
	HorizontalDpi   float64
	VerticalDpi     float64
	ChannelCount    uint8
	BitsPerChannel  uint8

	mu     sync.Mutex
	frames []RecordingFrame
	events []Event
	frozen bool

	logMu sync.Mutex
	file  *os.File
	buf   *bufio.Writer
	w     *codec.Writer
}

// NewRawRecording creates <root>/<id>/ and an empty raw log inside it.
func NewRawRecording(root string, source Source) (*RawRecording, error) {
	id := uuid.New()
	dir := filepath.Join(root, id.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("capture: create recording dir: %w", err)
	}
	path := filepath.Join(dir, FramesCacheName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("capture: create raw log: %w", err)
	}
	buf := bufio.NewWriterSize(f, logBufferSize)
	return &RawRecording{
		ID:              id,
		CacheRootPath:   dir,
		FramesCachePath: path,
		Source:          source,
		CreationDate:    time.Now(),
		HorizontalDpi:   96,
		VerticalDpi:     96,
		ChannelCount:    4,
		BitsPerChannel:  8,
		file:            f,
		buf:             buf,
		w:               codec.NewWriter(buf, 0),
	}, nil
}

// setGeometry is called by the backend on Start.
func (r *RawRecording) setGeometry(width, height int, dpiScale float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Width = width
	r.Height = height
	if dpiScale > 0 {
		r.HorizontalDpi = 96 * dpiScale
		r.VerticalDpi = 96 * dpiScale
	}
}

// appendFrame writes f to the raw log and adds its metadata to the index.
func (r *RawRecording) appendFrame(f *RecordingFrame) error {
	r.logMu.Lock()
	if r.w == nil {
		r.logMu.Unlock()
		return ErrRecordingFrozen
	}
	f.StreamPosition = r.w.Offset()
	f.PixelsLength = uint64(len(f.Pixels))
	writeFrameRecord(r.w, f)
	err := r.w.Err()
	r.logMu.Unlock()
	if err != nil {
		return fmt.Errorf("capture: write frame: %w", err)
	}

	meta := *f
	meta.Pixels = nil
	r.mu.Lock()
	r.frames = append(r.frames, meta)
	r.mu.Unlock()
	return nil
}

// appendCursorData writes a cursor shape record and indexes it.
func (r *RawRecording) appendCursorData(e CursorDataEvent, pixels []byte) error {
	r.logMu.Lock()
	if r.w == nil {
		r.logMu.Unlock()
		return ErrRecordingFrozen
	}
	e.StreamPosition = r.w.Offset()
	e.PixelsLength = uint64(len(pixels))
	writeCursorDataRecord(r.w, &e, pixels)
	err := r.w.Err()
	r.logMu.Unlock()
	if err != nil {
		return fmt.Errorf("capture: write cursor data: %w", err)
	}
	r.appendEvent(e)
	return nil
}

// appendEvent adds an index-only event. Events after Freeze are dropped.
func (r *RawRecording) appendEvent(e Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return false
	}
	r.events = append(r.events, e)
	return true
}

// foldDelay adds delay to the most recent saved frame. It reports false when
// there is no frame to absorb it.
func (r *RawRecording) foldDelay(delay int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return false
	}
	r.frames[len(r.frames)-1].Delay += delay
	return true
}

// Flush pushes buffered log bytes to the file.
func (r *RawRecording) Flush() error {
	r.logMu.Lock()
	defer r.logMu.Unlock()
	if r.buf == nil {
		return nil
	}
	return r.buf.Flush()
}

// Freeze flushes and closes the raw log. Further appends fail. Calling it
// more than once is harmless.
func (r *RawRecording) Freeze() error {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()

	r.logMu.Lock()
	defer r.logMu.Unlock()
	if r.file == nil {
		return nil
	}
	var errs []error
	if err := r.buf.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush raw log: %w", err))
	}
	if err := r.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close raw log: %w", err))
	}
	r.file, r.buf, r.w = nil, nil, nil
	return errors.Join(errs...)
}

// Frozen reports whether Freeze was called.
func (r *RawRecording) Frozen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frozen
}

// Discard freezes the recording and deletes its directory.
func (r *RawRecording) Discard() error {
	ferr := r.Freeze()
	if err := os.RemoveAll(r.CacheRootPath); err != nil {
		return errors.Join(ferr, fmt.Errorf("capture: remove recording: %w", err))
	}
	return ferr
}

// Frames returns a copy of the frame index.
func (r *RawRecording) Frames() []RecordingFrame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordingFrame, len(r.frames))
	copy(out, r.frames)
	return out
}

// Duration is the playback length: the last frame's timestamp plus its delay.
func (r *RawRecording) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return 0
	}
	last := r.frames[len(r.frames)-1]
	return TicksToDuration(last.Ticks + last.Delay*TicksPerMillisecond)
}

// Events returns a copy of the event index in arrival order.
func (r *RawRecording) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// FrameCount returns the number of saved frames.
func (r *RawRecording) FrameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Open opens the raw log for reading.
func (r *RawRecording) Open() (*os.File, error) {
	f, err := os.Open(r.FramesCachePath)
	if err != nil {
		return nil, fmt.Errorf("capture: open raw log: %w", err)
	}
	return f, nil
}
