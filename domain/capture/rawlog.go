package capture

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/soocke/pixel-recorder-go/domain/codec"
)

// Raw log layout. Records are appended back to back, little-endian:
//
//	frame:       type(1) ticks(8) delay(8) length(8) pixels
//	cursor data: type(1) ticks(8) shape(1) width(4) height(4) left(4) top(4)
//	             xhotspot(4) yhotspot(4) length(8) pixels
//
// The delay stored for a frame is the one known at write time. Delays folded
// in afterwards only live in the recording index, which is authoritative.
const (
	FrameHeaderSize      = 1 + 8 + 8 + 8
	CursorDataHeaderSize = 1 + 8 + 1 + 4*6 + 8
)

// ErrUnknownRecord is returned when the raw log holds an unexpected type tag.
var ErrUnknownRecord = errors.New("capture: unknown raw log record")

func writeFrameRecord(w *codec.Writer, f *RecordingFrame) {
	w.Byte(byte(EventFrame))
	w.Int64(f.Ticks)
	w.Int64(f.Delay)
	w.Uint64(uint64(len(f.Pixels)))
	w.Bytes(f.Pixels)
}

func writeCursorDataRecord(w *codec.Writer, e *CursorDataEvent, pixels []byte) {
	w.Byte(byte(EventCursorData))
	w.Int64(e.Ticks)
	w.Byte(byte(e.CursorType))
	w.Int32(e.Width)
	w.Int32(e.Height)
	w.Int32(e.X)
	w.Int32(e.Y)
	w.Int32(e.XHotspot)
	w.Int32(e.YHotspot)
	w.Uint64(uint64(len(pixels)))
	w.Bytes(pixels)
}

// LogRecord is one entry decoded by ScanLog. Exactly one of Frame and
// CursorData is set. Pixels are not loaded.
type LogRecord struct {
	Frame      *RecordingFrame
	CursorData *CursorDataEvent
}

// ScanLog walks the raw log in r and calls fn for each record in order.
// Pixel payloads are skipped.
func ScanLog(r io.Reader, fn func(LogRecord) error) error {
	rd := codec.NewReader(bufio.NewReader(r), 0)
	for {
		start := rd.Offset()
		tag := rd.Byte()
		if err := rd.Err(); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) && rd.Offset() == start {
				return nil
			}
			return err
		}
		var rec LogRecord
		switch EventType(tag) {
		case EventFrame:
			f := &RecordingFrame{StreamPosition: start}
			f.Ticks = rd.Int64()
			f.Delay = rd.Int64()
			f.PixelsLength = rd.Uint64()
			rec.Frame = f
			rd.Skip(int64(f.PixelsLength))
		case EventCursorData:
			e := &CursorDataEvent{StreamPosition: start}
			e.Ticks = rd.Int64()
			e.CursorType = CursorShapeType(rd.Byte())
			e.Width = rd.Int32()
			e.Height = rd.Int32()
			e.X = rd.Int32()
			e.Y = rd.Int32()
			e.XHotspot = rd.Int32()
			e.YHotspot = rd.Int32()
			e.PixelsLength = rd.Uint64()
			rec.CursorData = e
			rd.Skip(int64(e.PixelsLength))
		default:
			return fmt.Errorf("%w: tag %d at offset %d", ErrUnknownRecord, tag, start)
		}
		if err := rd.Err(); err != nil {
			return fmt.Errorf("capture: truncated record at offset %d: %w", start, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}
