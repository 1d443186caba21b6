package capture

import (
	"errors"
	"strings"
	"testing"
)

func TestSelectCursorShape(t *testing.T) {
	px := make([]byte, 8)
	cases := []struct {
		name string
		snap CursorSnapshot
		ok   bool
		typ  CursorShapeType
	}{
		{"color wins", CursorSnapshot{Color: &CursorBitmap{Width: 1, Height: 2, Pixels: px}, Mask: &CursorBitmap{Width: 1, Height: 4, Pixels: px}}, true, CursorColor},
		{"tall mask", CursorSnapshot{Mask: &CursorBitmap{Width: 32, Height: 64, Pixels: px}}, true, CursorMask},
		{"square mask", CursorSnapshot{Mask: &CursorBitmap{Width: 32, Height: 32, Pixels: px}}, false, 0},
		{"wide mask", CursorSnapshot{Mask: &CursorBitmap{Width: 64, Height: 32, Pixels: px}}, false, 0},
		{"empty color falls back to mask", CursorSnapshot{Color: &CursorBitmap{Width: 1, Height: 0}, Mask: &CursorBitmap{Width: 1, Height: 2, Pixels: px}}, true, CursorMask},
		{"nothing", CursorSnapshot{}, false, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			shape, ok := selectCursorShape(c.snap)
			if ok != c.ok || shape.Type != c.typ {
				t.Fatalf("got ok=%v type=%d, want ok=%v type=%d", ok, shape.Type, c.ok, c.typ)
			}
		})
	}
}

func TestReleaseStack_AttemptsEveryRelease(t *testing.T) {
	var order []string
	var s releaseStack
	s.push("dc", func() error { order = append(order, "dc"); return nil })
	s.push("bitmap", func() error { order = append(order, "bitmap"); return errors.New("busy") })
	s.push("selection", func() error { order = append(order, "selection"); panic("bad handle") })

	err := s.releaseAll()
	if strings.Join(order, ",") != "selection,bitmap,dc" {
		t.Fatalf("release order %v", order)
	}
	errs := splitErrors(err)
	if len(errs) != 2 {
		t.Fatalf("expected 2 release errors, got %v", err)
	}
	if !strings.Contains(errs[0].Error(), "selection") || !strings.Contains(errs[1].Error(), "bitmap") {
		t.Fatalf("errors should name the resource: %v", errs)
	}
	if s.len() != 0 || s.releaseAll() != nil {
		t.Fatalf("stack should be empty after release")
	}
}

func TestKeys(t *testing.T) {
	cases := map[string]uint8{"F3": 0x72, "f12": 0x7B, "F24": 0x87, "r": 'R', "7": '7', "Space": 0x20, " escape ": 0x1B}
	for name, want := range cases {
		got, ok := ParseKey(name)
		if !ok || got != want {
			t.Fatalf("ParseKey(%q) = %#x,%v want %#x", name, got, ok, want)
		}
	}
	if _, ok := ParseKey("F25"); ok {
		t.Fatalf("F25 should not parse")
	}
	if KeyName(0x72) != "F3" || KeyName('Q') != "Q" || KeyName(0x20) != "SPACE" || KeyName(0xFF) != "0xFF" {
		t.Fatalf("KeyName mismatch: %s %s %s %s", KeyName(0x72), KeyName('Q'), KeyName(0x20), KeyName(0xFF))
	}
	if got := (ModShift | ModControl).String(); got != "Ctrl+Shift" {
		t.Fatalf("modifier string %q", got)
	}
}
