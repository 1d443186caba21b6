package input

import (
	"image"
	"testing"

	"github.com/soocke/pixel-recorder-go/domain/capture"
)

type cursorCall struct {
	x, y    int32
	buttons capture.MouseButtons
	wheel   int16
}

type keyCall struct {
	key      uint8
	mods     capture.ModifierKeys
	upper    bool
	injected bool
}

type recordingSink struct {
	cursors []cursorCall
	keys    []keyCall
}

func (s *recordingSink) RegisterCursorEvent(x, y int32, b capture.MouseButtons, wheel int16) {
	s.cursors = append(s.cursors, cursorCall{x, y, b, wheel})
}

func (s *recordingSink) RegisterKeyEvent(key uint8, mods capture.ModifierKeys, upper, injected bool) {
	s.keys = append(s.keys, keyCall{key, mods, upper, injected})
}

func TestMouseMessages(t *testing.T) {
	sink := &recordingSink{}
	var st buttonState
	origin := image.Pt(100, 50)

	st.mouseMessage(sink, origin, wmMouseMove, 110, 60, 0)
	st.mouseMessage(sink, origin, wmLButtonDown, 110, 60, 0)
	st.mouseMessage(sink, origin, wmXButtonDown, 110, 60, xButton2<<16)
	st.mouseMessage(sink, origin, wmMouseWheel, 110, 60, uint32(uint16(0xFF88))<<16) // -120
	st.mouseMessage(sink, origin, wmLButtonUp, 90, 40, 0)
	st.mouseMessage(sink, origin, 0x0001, 0, 0, 0) // not a mouse message

	if len(sink.cursors) != 5 {
		t.Fatalf("expected 5 cursor events, got %d", len(sink.cursors))
	}
	if c := sink.cursors[0]; c.x != 10 || c.y != 10 || c.buttons != (capture.MouseButtons{}) {
		t.Fatalf("move relative to origin: %+v", c)
	}
	if !sink.cursors[1].buttons.Left {
		t.Fatalf("left button should be down: %+v", sink.cursors[1])
	}
	if b := sink.cursors[2].buttons; !b.Left || !b.SecondExtra || b.FirstExtra {
		t.Fatalf("x button state: %+v", b)
	}
	if sink.cursors[3].wheel != -120 {
		t.Fatalf("wheel delta %d", sink.cursors[3].wheel)
	}
	if c := sink.cursors[4]; c.buttons.Left || c.x != -10 || c.y != -10 {
		t.Fatalf("left button should be up, position may be negative: %+v", c)
	}
}

func TestKeyMessages(t *testing.T) {
	sink := &recordingSink{}
	keyMessage(sink, wmKeyDown, 'A', false, keyState{shift: true})
	keyMessage(sink, 0x0101, 'A', false, keyState{}) // key up ignored
	keyMessage(sink, wmSysKeyDown, 0x73, true, keyState{alt: true, control: true, windows: true, capsLock: true})
	keyMessage(sink, wmKeyDown, 'b', false, keyState{shift: true, capsLock: true})

	want := []keyCall{
		{key: 'A', mods: capture.ModShift, upper: true},
		{key: 0x73, mods: capture.ModAlt | capture.ModControl | capture.ModWindows, upper: true, injected: true},
		{key: 'b', mods: capture.ModShift, upper: false},
	}
	if len(sink.keys) != len(want) {
		t.Fatalf("expected %d key events, got %d", len(want), len(sink.keys))
	}
	for i := range want {
		if sink.keys[i] != want[i] {
			t.Fatalf("key %d = %+v, want %+v", i, sink.keys[i], want[i])
		}
	}
}
