package capture

import "math"

// Source identifies what produced a recording.
type Source uint8

const (
	SourceScreen Source = iota
	SourceWebcam
)

func (s Source) String() string {
	switch s {
	case SourceScreen:
		return "screen"
	case SourceWebcam:
		return "webcam"
	default:
		return "unknown"
	}
}

// EventType tags records in the raw log and entries in the event index.
type EventType uint8

const (
	EventFrame      EventType = 1
	EventCursor     EventType = 2
	EventCursorData EventType = 3
	EventKey        EventType = 4
)

// CursorShapeType tells how cursor pixels are encoded.
type CursorShapeType uint8

const (
	// CursorMask is a monochrome AND/XOR mask stacked vertically (1 bpp).
	CursorMask CursorShapeType = 1
	// CursorColor is 32 bpp BGRA.
	CursorColor CursorShapeType = 2
)

// ModifierKeys is the bit set of modifiers held during a key press.
type ModifierKeys uint8

const (
	ModAlt     ModifierKeys = 1
	ModControl ModifierKeys = 2
	ModShift   ModifierKeys = 4
	ModWindows ModifierKeys = 8
)

// MouseButtons is the pressed state of each mouse button.
type MouseButtons struct {
	Left        bool
	Right       bool
	Middle      bool
	FirstExtra  bool
	SecondExtra bool
}

// Region is a rectangle in screen coordinates.
type Region struct {
	Left, Top, Width, Height int
}

// Empty reports whether the region has no area.
func (r Region) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Scale converts a region expressed in logical units to physical pixels.
func (r Region) Scale(scale float64) Region {
	if scale <= 0 || scale == 1 {
		return r
	}
	round := func(v int) int { return int(math.Round(float64(v) * scale)) }
	return Region{Left: round(r.Left), Top: round(r.Top), Width: round(r.Width), Height: round(r.Height)}
}

// RecordingFrame is one captured frame. Pixels is only set between
// CaptureFrame and Save; the recording index keeps metadata only.
type RecordingFrame struct {
	Ticks          int64
	Delay          int64
	StreamPosition int64
	PixelsLength   uint64
	Skipped        bool
	Pixels         []byte
}

// Event is an entry in a recording's event index.
type Event interface {
	Type() EventType
	TimeStamp() int64
}

// CursorEvent is a cursor position and button state change.
type CursorEvent struct {
	Ticks      int64
	X, Y       int32
	Buttons    MouseButtons
	MouseDelta int16
}

func (e CursorEvent) Type() EventType   { return EventCursor }
func (e CursorEvent) TimeStamp() int64 { return e.Ticks }

// CursorDataEvent records a cursor shape. Its pixels live in the raw log at
// StreamPosition + CursorDataHeaderSize.
type CursorDataEvent struct {
	Ticks          int64
	CursorType     CursorShapeType
	X, Y           int32
	Width, Height  int32
	XHotspot       int32
	YHotspot       int32
	StreamPosition int64
	PixelsLength   uint64
}

func (e CursorDataEvent) Type() EventType   { return EventCursorData }
func (e CursorDataEvent) TimeStamp() int64 { return e.Ticks }

// KeyEvent is a key press. Key is the platform virtual-key code.
type KeyEvent struct {
	Ticks       int64
	Key         uint8
	Modifiers   ModifierKeys
	IsUppercase bool
	WasInjected bool
}

func (e KeyEvent) Type() EventType   { return EventKey }
func (e KeyEvent) TimeStamp() int64 { return e.Ticks }

// CursorShape is a cursor image ready to be recorded.
type CursorShape struct {
	Type          CursorShapeType
	Width, Height int32
	XHotspot      int32
	YHotspot      int32
	Pixels        []byte
}

// CursorBitmap is a raw cursor bitmap as read from the platform.
type CursorBitmap struct {
	Width, Height int
	Pixels        []byte
}

// CursorSnapshot is the cursor state read by a Device. Color and Mask are
// nil when the platform did not provide that representation.
type CursorSnapshot struct {
	Visible  bool
	X, Y     int
	XHotspot int
	YHotspot int
	Buttons  MouseButtons
	Color    *CursorBitmap
	Mask     *CursorBitmap
}
