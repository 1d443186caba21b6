package project

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/soocke/pixel-recorder-go/domain/capture"
	"github.com/soocke/pixel-recorder-go/domain/codec"
)

var (
	ErrUnknownSequence    = errors.New("project: unknown sequence type")
	ErrUnexpectedRecord   = errors.New("project: record type does not match sequence")
	ErrUnsupportedEffects = errors.New("project: sequence effects are not supported")
)

// ReadTrack decodes a track cache. Payloads are skipped; every record's
// StreamPosition is set so payloads can be fetched with OpenPayload.
func ReadTrack(r io.Reader) (*Track, error) {
	rd := codec.NewReader(bufio.NewReaderSize(r, 64<<10), 0)
	t := &Track{}
	t.ID = rd.Uint16()
	t.Name = rd.PascalString()
	t.IsVisible = rd.Bool()
	t.IsLocked = rd.Bool()
	count := rd.Uint16()
	if err := rd.Err(); err != nil {
		return nil, fmt.Errorf("project: read track header: %w", err)
	}
	for i := 0; i < int(count); i++ {
		s, err := readSequence(rd)
		if err != nil {
			return nil, fmt.Errorf("project: track %d sequence %d: %w", t.ID, i, err)
		}
		t.Sequences = append(t.Sequences, s)
	}
	return t, nil
}

// ReadTrackFile decodes the track cache at path and sets its CachePath.
func ReadTrackFile(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("project: open track: %w", err)
	}
	defer f.Close()
	t, err := ReadTrack(f)
	if err != nil {
		return nil, err
	}
	t.CachePath = path
	return t, nil
}

func readSequence(rd *codec.Reader) (Sequence, error) {
	var b SequenceBase
	b.StreamPosition = rd.Offset()
	b.ID = rd.Uint16()
	typ := SequenceType(rd.Byte())
	b.StartTime = rd.Int64()
	b.EndTime = rd.Int64()
	b.Opacity = rd.Float32()
	b.Background = rd.PascalStringUint32()
	effects := rd.Byte()
	if err := rd.Err(); err != nil {
		return nil, err
	}
	if effects != 0 {
		return nil, fmt.Errorf("%w: %d effects", ErrUnsupportedEffects, effects)
	}
	b.Left = rd.Int32()
	b.Top = rd.Int32()
	b.Width = rd.Uint16()
	b.Height = rd.Uint16()
	b.Angle = rd.Float32()
	b.HorizontalDpi = rd.Float32()
	b.VerticalDpi = rd.Float32()

	var seq Sequence
	var want SubSequenceType
	switch typ {
	case SequenceRaster:
		rs := &RasterSequence{SequenceBase: b}
		rs.Origin = RasterOrigin(rd.Byte())
		rs.ChannelCount = rd.Byte()
		rs.BitsPerChannel = rd.Byte()
		seq, want = rs, SubSequenceFrame
	case SequenceCursor:
		seq, want = &CursorSequence{SequenceBase: b}, SubSequenceCursor
	case SequenceKey:
		seq, want = &KeySequence{SequenceBase: b}, SubSequenceKey
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownSequence, typ)
	}

	n := rd.Uint32()
	if err := rd.Err(); err != nil {
		return nil, err
	}
	for i := uint32(0); i < n; i++ {
		pos := rd.Offset()
		if got := SubSequenceType(rd.Byte()); rd.Err() == nil && got != want {
			return nil, fmt.Errorf("%w: record %d at offset %d has type %d, want %d", ErrUnexpectedRecord, i, pos, got, want)
		}
		base := SubSequenceBase{StreamPosition: pos, TimeStamp: rd.Int64()}
		switch s := seq.(type) {
		case *RasterSequence:
			f := &FrameSubSequence{SubSequenceBase: base}
			f.Delay = rd.Int64()
			f.PixelsLength = rd.Uint64()
			rd.Skip(int64(f.PixelsLength))
			s.Frames = append(s.Frames, f)
		case *CursorSequence:
			c := &CursorSubSequence{SubSequenceBase: base}
			c.CursorType = capture.CursorShapeType(rd.Byte())
			c.Left = rd.Int32()
			c.Top = rd.Int32()
			c.Width = rd.Uint16()
			c.Height = rd.Uint16()
			c.XHotspot = rd.Uint16()
			c.YHotspot = rd.Uint16()
			c.Buttons = capture.MouseButtons{
				Left:        rd.Bool(),
				Right:       rd.Bool(),
				Middle:      rd.Bool(),
				FirstExtra:  rd.Bool(),
				SecondExtra: rd.Bool(),
			}
			c.MouseWheelDelta = rd.Int16()
			c.PixelsLength = rd.Uint64()
			rd.Skip(int64(c.PixelsLength))
			s.CursorEvents = append(s.CursorEvents, c)
		case *KeySequence:
			k := &KeySubSequence{SubSequenceBase: base}
			k.Key = rd.Byte()
			k.Modifiers = capture.ModifierKeys(rd.Byte())
			k.IsUppercase = rd.Bool()
			k.WasInjected = rd.Bool()
			s.KeyEvents = append(s.KeyEvents, k)
		}
		if err := rd.Err(); err != nil {
			return nil, fmt.Errorf("record %d at offset %d: %w", i, pos, err)
		}
	}
	return seq, nil
}
