package capture

import (
	"bytes"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/soocke/pixel-recorder-go/domain/codec"
)

func TestRawRecording_LayoutAndFreeze(t *testing.T) {
	rec, err := NewRawRecording(t.TempDir(), SourceWebcam)
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID.String() == "" || rec.ChannelCount != 4 || rec.BitsPerChannel != 8 {
		t.Fatalf("unexpected defaults %+v", rec)
	}
	if err := rec.appendCursorData(CursorDataEvent{Ticks: 5, CursorType: CursorMask, Width: 1, Height: 2}, []byte{0xAA, 0xBB}); err != nil {
		t.Fatal(err)
	}
	frame := &RecordingFrame{Ticks: 9, Delay: 33, Pixels: []byte{1, 2, 3, 4}}
	if err := rec.appendFrame(frame); err != nil {
		t.Fatal(err)
	}
	if frame.StreamPosition != CursorDataHeaderSize+2 || frame.PixelsLength != 4 {
		t.Fatalf("frame position %d length %d", frame.StreamPosition, frame.PixelsLength)
	}
	if err := rec.Freeze(); err != nil {
		t.Fatal(err)
	}
	if d := rec.Duration(); d != 33*time.Millisecond+900*time.Nanosecond {
		t.Fatalf("duration %v", d)
	}
	if err := rec.Freeze(); err != nil {
		t.Fatalf("second freeze: %v", err)
	}
	if err := rec.appendFrame(&RecordingFrame{Pixels: []byte{1}}); !errors.Is(err, ErrRecordingFrozen) {
		t.Fatalf("expected ErrRecordingFrozen, got %v", err)
	}
	if rec.appendEvent(KeyEvent{Key: 'A'}) {
		t.Fatalf("events after freeze must be dropped")
	}

	raw, err := os.ReadFile(rec.FramesCachePath)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != CursorDataHeaderSize+2+FrameHeaderSize+4 {
		t.Fatalf("raw log size %d", len(raw))
	}
	// Byte-exact frame header.
	r := codec.NewReader(bytes.NewReader(raw[frame.StreamPosition:]), frame.StreamPosition)
	if tag := r.Byte(); tag != byte(EventFrame) {
		t.Fatalf("frame tag %d", tag)
	}
	if r.Int64() != 9 || r.Int64() != 33 || r.Uint64() != 4 {
		t.Fatalf("frame header mismatch")
	}
	if px := r.Bytes(4); !bytes.Equal(px, []byte{1, 2, 3, 4}) {
		t.Fatalf("frame pixels %v", px)
	}
	// Cursor record: shape byte follows ticks, pixels follow the 42-byte header.
	if raw[0] != byte(EventCursorData) || raw[9] != byte(CursorMask) {
		t.Fatalf("cursor header mismatch % x", raw[:10])
	}
	if raw[CursorDataHeaderSize] != 0xAA {
		t.Fatalf("cursor pixels not at header end")
	}
}

func TestRawRecording_FoldDelay(t *testing.T) {
	rec, err := NewRawRecording(t.TempDir(), SourceScreen)
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Discard()
	if rec.foldDelay(16) {
		t.Fatalf("fold without a frame must report false")
	}
	if rec.Duration() != 0 {
		t.Fatalf("empty recording has no duration")
	}
	rec.appendFrame(&RecordingFrame{Delay: 10, Pixels: []byte{1}})
	if !rec.foldDelay(16) {
		t.Fatalf("fold should succeed")
	}
	if got := rec.Frames()[0].Delay; got != 26 {
		t.Fatalf("folded delay %d", got)
	}
	// Frames returns a copy.
	rec.Frames()[0].Delay = 0
	if rec.Frames()[0].Delay != 26 {
		t.Fatalf("index mutated through copy")
	}
}

func TestRawRecording_Discard(t *testing.T) {
	rec, err := NewRawRecording(t.TempDir(), SourceScreen)
	if err != nil {
		t.Fatal(err)
	}
	rec.appendFrame(&RecordingFrame{Pixels: []byte{1, 2}})
	if err := rec.Discard(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(rec.CacheRootPath); !os.IsNotExist(err) {
		t.Fatalf("recording directory should be gone, stat err=%v", err)
	}
}

func TestScanLog_Errors(t *testing.T) {
	var buf bytes.Buffer
	w := codec.NewWriter(&buf, 0)
	writeFrameRecord(w, &RecordingFrame{Ticks: 1, Delay: 2, Pixels: []byte{9, 9}})
	valid := append([]byte(nil), buf.Bytes()...)

	t.Run("empty", func(t *testing.T) {
		calls := 0
		if err := ScanLog(bytes.NewReader(nil), func(LogRecord) error { calls++; return nil }); err != nil || calls != 0 {
			t.Fatalf("empty log: err=%v calls=%d", err, calls)
		}
	})
	t.Run("unknown tag", func(t *testing.T) {
		data := append(append([]byte(nil), valid...), 0x7F)
		err := ScanLog(bytes.NewReader(data), func(LogRecord) error { return nil })
		if !errors.Is(err, ErrUnknownRecord) {
			t.Fatalf("expected ErrUnknownRecord, got %v", err)
		}
	})
	t.Run("truncated", func(t *testing.T) {
		err := ScanLog(bytes.NewReader(valid[:len(valid)-1]), func(LogRecord) error { return nil })
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatalf("expected unexpected EOF, got %v", err)
		}
	})
	t.Run("callback error stops", func(t *testing.T) {
		stop := errors.New("stop")
		if err := ScanLog(bytes.NewReader(valid), func(LogRecord) error { return stop }); !errors.Is(err, stop) {
			t.Fatalf("expected callback error, got %v", err)
		}
	})
}
