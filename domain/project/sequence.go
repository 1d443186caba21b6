package project

import "github.com/soocke/pixel-recorder-go/domain/capture"

// Sequence is one of *RasterSequence, *CursorSequence or *KeySequence.
type Sequence interface {
	Type() SequenceType
	Base() SequenceBase
	base() *SequenceBase
}

// SequenceBase holds the fields every sequence carries.
type SequenceBase struct {
	ID         uint16
	StartTime  int64 // ticks
	EndTime    int64 // ticks, exclusive
	Opacity    float64
	Background string
	// StreamPosition is the offset of the sequence header in the track cache.
	StreamPosition int64

	Left          int32
	Top           int32
	Width         uint16
	Height        uint16
	Angle         float64
	HorizontalDpi float64
	VerticalDpi   float64
}

func defaultSequenceBase() SequenceBase {
	return SequenceBase{Opacity: 1, HorizontalDpi: 96, VerticalDpi: 96}
}

func (b *SequenceBase) Base() SequenceBase  { return *b }
func (b *SequenceBase) base() *SequenceBase { return b }

// Duration returns EndTime - StartTime in ticks.
func (b *SequenceBase) Duration() int64 { return b.EndTime - b.StartTime }

type RasterSequence struct {
	SequenceBase
	Origin         RasterOrigin
	ChannelCount   uint8
	BitsPerChannel uint8
	Frames         []*FrameSubSequence
}

func (*RasterSequence) Type() SequenceType { return SequenceRaster }

type CursorSequence struct {
	SequenceBase
	CursorEvents []*CursorSubSequence
}

func (*CursorSequence) Type() SequenceType { return SequenceCursor }

type KeySequence struct {
	SequenceBase
	KeyEvents []*KeySubSequence
}

func (*KeySequence) Type() SequenceType { return SequenceKey }

// SubSequence is one of *FrameSubSequence, *CursorSubSequence or
// *KeySubSequence.
type SubSequence interface {
	Type() SubSequenceType
	Base() SubSequenceBase
	subSequence()
}

// SubSequenceBase holds the timestamp and the offset of the record in the
// track cache. Payload bytes, if any, follow the record header.
type SubSequenceBase struct {
	TimeStamp      int64
	StreamPosition int64
}

func (b *SubSequenceBase) Base() SubSequenceBase { return *b }
func (*SubSequenceBase) subSequence()            {}

type FrameSubSequence struct {
	SubSequenceBase
	Delay        int64 // ms
	PixelsLength uint64
}

func (*FrameSubSequence) Type() SubSequenceType { return SubSequenceFrame }

type CursorSubSequence struct {
	SubSequenceBase
	CursorType      capture.CursorShapeType
	Left            int32
	Top             int32
	Width           uint16
	Height          uint16
	XHotspot        uint16
	YHotspot        uint16
	Buttons         capture.MouseButtons
	MouseWheelDelta int16
	PixelsLength    uint64
}

func (*CursorSubSequence) Type() SubSequenceType { return SubSequenceCursor }

type KeySubSequence struct {
	SubSequenceBase
	Key         uint8
	Modifiers   capture.ModifierKeys
	IsUppercase bool
	WasInjected bool
}

func (*KeySubSequence) Type() SubSequenceType { return SubSequenceKey }

// SubSequences returns the sequence's records in order.
func SubSequences(s Sequence) []SubSequence {
	var out []SubSequence
	switch seq := s.(type) {
	case *RasterSequence:
		for _, f := range seq.Frames {
			out = append(out, f)
		}
	case *CursorSequence:
		for _, c := range seq.CursorEvents {
			out = append(out, c)
		}
	case *KeySequence:
		for _, k := range seq.KeyEvents {
			out = append(out, k)
		}
	}
	return out
}
