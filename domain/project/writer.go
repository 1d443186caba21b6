package project

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/soocke/pixel-recorder-go/domain/capture"
	"github.com/soocke/pixel-recorder-go/domain/codec"
)

// Track cache layout (little-endian):
//
//	track:    id(2) name(1+n) visible(1) locked(1) sequenceCount(2)
//	sequence: id(2) type(1) start(8) end(8) opacity(f4) background(4+n) effects(1)
//	          left(4) top(4) width(2) height(2) angle(f4) hdpi(f4) vdpi(f4)
//	raster:   origin(1) channels(1) bitsPerChannel(1) frameCount(4) frame records
//	cursor:   count(4) cursor records
//	key:      count(4) key records
//
// Record headers are listed below; frame and cursor records are followed by
// PixelsLength payload bytes.
const (
	// type(1) ticks(8) delay(8) length(8)
	FrameRecordHeaderSize = 1 + 8 + 8 + 8
	// type(1) ticks(8) shape(1) left(4) top(4) width(2) height(2)
	// xhotspot(2) yhotspot(2) buttons(5) wheel(2) length(8)
	CursorRecordHeaderSize = 1 + 8 + 1 + 4 + 4 + 2*4 + 5 + 2 + 8
	// type(1) ticks(8) key(1) modifiers(1) uppercase(1) injected(1)
	KeyRecordSize = 1 + 8 + 4
)

// ErrMissingPayload is returned when a record declares payload bytes but no
// source provides them.
var ErrMissingPayload = errors.New("project: payload source missing")

// PayloadSource locates the payload of record rec in sequence seq: the bytes
// start at off in src. A nil src means the record has no payload.
type PayloadSource func(seq, rec int) (src io.ReaderAt, off int64)

// WriteTrack encodes t into w. StreamPosition fields of the sequences and
// their records are updated to the offsets written. Payload bytes are copied
// through from payloads without being interpreted.
func WriteTrack(ctx context.Context, w io.Writer, t *Track, payloads PayloadSource) error {
	bw := bufio.NewWriterSize(w, 256<<10)
	cw := codec.NewWriter(bw, 0)

	cw.Uint16(t.ID)
	cw.PascalString(t.Name)
	cw.Bool(t.IsVisible)
	cw.Bool(t.IsLocked)
	cw.Uint16(uint16(len(t.Sequences)))

	for si, s := range t.Sequences {
		writeSequenceHeader(cw, s)
		recs := SubSequences(s)
		if seq, ok := s.(*RasterSequence); ok {
			cw.Byte(byte(seq.Origin))
			cw.Byte(seq.ChannelCount)
			cw.Byte(seq.BitsPerChannel)
		}
		cw.Uint32(uint32(len(recs)))

		for ri, r := range recs {
			if ri%64 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			n := writeRecord(cw, r)
			if n == 0 {
				continue
			}
			var src io.ReaderAt
			var off int64
			if payloads != nil {
				src, off = payloads(si, ri)
			}
			if src == nil {
				return fmt.Errorf("%w: track %d sequence %d record %d", ErrMissingPayload, t.ID, si, ri)
			}
			cw.CopyRange(src, off, int64(n))
			if err := cw.Err(); err != nil {
				return fmt.Errorf("project: copy payload of record %d: %w", ri, err)
			}
		}
	}
	if err := cw.Err(); err != nil {
		return fmt.Errorf("project: write track %d: %w", t.ID, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("project: flush track %d: %w", t.ID, err)
	}
	return nil
}

func writeSequenceHeader(cw *codec.Writer, s Sequence) {
	b := s.base()
	b.StreamPosition = cw.Offset()
	cw.Uint16(b.ID)
	cw.Byte(byte(s.Type()))
	cw.Int64(b.StartTime)
	cw.Int64(b.EndTime)
	cw.Float32(b.Opacity)
	cw.PascalStringUint32(b.Background)
	cw.Byte(0) // effects
	cw.Int32(b.Left)
	cw.Int32(b.Top)
	cw.Uint16(b.Width)
	cw.Uint16(b.Height)
	cw.Float32(b.Angle)
	cw.Float32(b.HorizontalDpi)
	cw.Float32(b.VerticalDpi)
}

// writeRecord writes the header of r and returns the payload length that
// must follow it.
func writeRecord(cw *codec.Writer, r SubSequence) uint64 {
	switch s := r.(type) {
	case *FrameSubSequence:
		s.StreamPosition = cw.Offset()
		cw.Byte(byte(SubSequenceFrame))
		cw.Int64(s.TimeStamp)
		cw.Int64(s.Delay)
		cw.Uint64(s.PixelsLength)
		return s.PixelsLength
	case *CursorSubSequence:
		s.StreamPosition = cw.Offset()
		cw.Byte(byte(SubSequenceCursor))
		cw.Int64(s.TimeStamp)
		cw.Byte(byte(s.CursorType))
		cw.Int32(s.Left)
		cw.Int32(s.Top)
		cw.Uint16(s.Width)
		cw.Uint16(s.Height)
		cw.Uint16(s.XHotspot)
		cw.Uint16(s.YHotspot)
		writeButtons(cw, s.Buttons)
		cw.Int16(s.MouseWheelDelta)
		cw.Uint64(s.PixelsLength)
		return s.PixelsLength
	case *KeySubSequence:
		s.StreamPosition = cw.Offset()
		cw.Byte(byte(SubSequenceKey))
		cw.Int64(s.TimeStamp)
		cw.Byte(s.Key)
		cw.Byte(byte(s.Modifiers))
		cw.Bool(s.IsUppercase)
		cw.Bool(s.WasInjected)
	}
	return 0
}

func writeButtons(cw *codec.Writer, b capture.MouseButtons) {
	cw.Bool(b.Left)
	cw.Bool(b.Right)
	cw.Bool(b.Middle)
	cw.Bool(b.FirstExtra)
	cw.Bool(b.SecondExtra)
}
