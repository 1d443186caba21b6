// Package input feeds OS keyboard and mouse activity into a capture backend.
package input

import (
	"image"

	"github.com/soocke/pixel-recorder-go/domain/capture"
)

// Sink receives input events. capture.Backend satisfies it.
type Sink interface {
	RegisterCursorEvent(x, y int32, buttons capture.MouseButtons, wheelDelta int16)
	RegisterKeyEvent(key uint8, modifiers capture.ModifierKeys, isUppercase, wasInjected bool)
}

// Hook delivers global input to a Sink until stopped. Cursor positions are
// reported relative to origin.
type Hook interface {
	Start(sink Sink, origin image.Point) error
	Stop() error
}

var _ Sink = (capture.Backend)(nil)

// buttonState tracks pressed mouse buttons across hook callbacks.
type buttonState struct {
	buttons capture.MouseButtons
}

// apply updates the state for a button transition and reports whether the
// message was a button message.
func (s *buttonState) apply(msg uint32, xbutton uint16) bool {
	switch msg {
	case wmLButtonDown, wmLButtonUp:
		s.buttons.Left = msg == wmLButtonDown
	case wmRButtonDown, wmRButtonUp:
		s.buttons.Right = msg == wmRButtonDown
	case wmMButtonDown, wmMButtonUp:
		s.buttons.Middle = msg == wmMButtonDown
	case wmXButtonDown, wmXButtonUp:
		down := msg == wmXButtonDown
		switch xbutton {
		case xButton1:
			s.buttons.FirstExtra = down
		case xButton2:
			s.buttons.SecondExtra = down
		}
	default:
		return false
	}
	return true
}

// Mouse and keyboard message identifiers as delivered by low-level hooks.
const (
	wmKeyDown     = 0x0100
	wmSysKeyDown  = 0x0104
	wmMouseMove   = 0x0200
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208
	wmMouseWheel  = 0x020A
	wmXButtonDown = 0x020B
	wmXButtonUp   = 0x020C

	xButton1 = 0x0001
	xButton2 = 0x0002
)

// mouseMessage converts one low-level mouse message into a sink call.
func (s *buttonState) mouseMessage(sink Sink, origin image.Point, msg uint32, x, y int32, mouseData uint32) {
	hi := uint16(mouseData >> 16)
	var wheel int16
	switch {
	case msg == wmMouseWheel:
		wheel = int16(hi)
	case msg == wmMouseMove:
	case s.apply(msg, hi):
	default:
		return
	}
	sink.RegisterCursorEvent(x-int32(origin.X), y-int32(origin.Y), s.buttons, wheel)
}

// keyState is what the keyboard hook reads besides the key itself.
type keyState struct {
	alt, control, shift, windows bool
	capsLock                     bool
}

func (k keyState) modifiers() capture.ModifierKeys {
	var m capture.ModifierKeys
	if k.alt {
		m |= capture.ModAlt
	}
	if k.control {
		m |= capture.ModControl
	}
	if k.shift {
		m |= capture.ModShift
	}
	if k.windows {
		m |= capture.ModWindows
	}
	return m
}

// uppercase follows the usual Caps Lock XOR Shift rule.
func (k keyState) uppercase() bool { return k.capsLock != k.shift }

// keyMessage converts one low-level keyboard message into a sink call. Only
// key-down messages are recorded.
func keyMessage(sink Sink, msg uint32, vk uint32, injected bool, st keyState) {
	if msg != wmKeyDown && msg != wmSysKeyDown {
		return
	}
	sink.RegisterKeyEvent(uint8(vk), st.modifiers(), st.uppercase(), injected)
}
