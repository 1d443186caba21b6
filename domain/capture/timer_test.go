package capture

import (
	"testing"
	"time"
)

// manualTime is a hand-advanced time source.
type manualTime struct{ t time.Time }

func newManualTime() *manualTime { return &manualTime{t: time.Unix(1_700_000_000, 0)} }
func (m *manualTime) Now() time.Time { return m.t }
func (m *manualTime) Advance(d time.Duration) { m.t = m.t.Add(d) }

func TestClock_NeverStarted(t *testing.T) {
	c := NewClock(newManualTime().Now)
	if got := c.Ticks(); got != -1 {
		t.Fatalf("expected -1 before start, got %d", got)
	}
	var nilClock *Clock
	if nilClock.Ticks() != -1 || nilClock.Running() {
		t.Fatalf("nil clock should report -1 and not running")
	}
}

func TestClock_PauseFreezes(t *testing.T) {
	mt := newManualTime()
	c := NewClock(mt.Now)
	c.Start()
	mt.Advance(10 * time.Millisecond)
	if got := c.Ticks(); got != 10*TicksPerMillisecond {
		t.Fatalf("expected 10ms of ticks, got %d", got)
	}
	c.Pause()
	mt.Advance(time.Second)
	if got := c.Ticks(); got != 10*TicksPerMillisecond {
		t.Fatalf("paused clock advanced: %d", got)
	}
	c.Start()
	mt.Advance(5 * time.Millisecond)
	if got := c.Ticks(); got != 15*TicksPerMillisecond {
		t.Fatalf("resumed clock expected 15ms of ticks, got %d", got)
	}
	// Start on a running clock must not reset the origin.
	c.Start()
	if got := c.Ticks(); got != 15*TicksPerMillisecond {
		t.Fatalf("second start changed ticks: %d", got)
	}
}

func TestFrameTimer_Fixed(t *testing.T) {
	mt := newManualTime()
	ft := NewFrameTimer(NewClock(mt.Now))
	if ft.ElapsedTicks() != -1 {
		t.Fatalf("expected -1 before start")
	}
	ft.Start(16, true)
	for i := 0; i < 3; i++ {
		mt.Advance(40 * time.Millisecond)
		if d := ft.NextDelay(); d != 16 {
			t.Fatalf("frame %d: fixed delay expected 16, got %d", i, d)
		}
	}
	if got := ft.ElapsedTicks(); got != 120*TicksPerMillisecond {
		t.Fatalf("elapsed ticks mismatch: %d", got)
	}
}

func TestFrameTimer_Adaptive(t *testing.T) {
	mt := newManualTime()
	ft := NewFrameTimer(NewClock(mt.Now))
	ft.Start(33, false)
	if d := ft.NextDelay(); d != 33 {
		t.Fatalf("first delay after start should be the interval, got %d", d)
	}
	mt.Advance(50 * time.Millisecond)
	if d := ft.NextDelay(); d != 50 {
		t.Fatalf("adaptive delay expected 50, got %d", d)
	}

	// Sub-millisecond remainders carry over so delays add up to wall time.
	var sum int64
	for i := 0; i < 10; i++ {
		mt.Advance(16*time.Millisecond + 700*time.Microsecond)
		sum += ft.NextDelay()
	}
	if sum != 167 {
		t.Fatalf("expected 167ms over 10 frames, got %d", sum)
	}
}

func TestFrameTimer_StopRestarts(t *testing.T) {
	mt := newManualTime()
	ft := NewFrameTimer(NewClock(mt.Now))
	ft.Start(20, false)
	ft.NextDelay()
	mt.Advance(30 * time.Millisecond)
	ft.Stop()
	mt.Advance(time.Minute)
	ft.Start(20, false)
	if d := ft.NextDelay(); d != 20 {
		t.Fatalf("first delay after restart should be the interval, got %d", d)
	}
	if got := ft.ElapsedTicks(); got != 30*TicksPerMillisecond {
		t.Fatalf("paused time leaked into ticks: %d", got)
	}
}

func TestTickConversions(t *testing.T) {
	if DurationToTicks(time.Millisecond) != TicksPerMillisecond {
		t.Fatalf("1ms should be %d ticks", TicksPerMillisecond)
	}
	if TicksToDuration(25*TicksPerMillisecond) != 25*time.Millisecond {
		t.Fatalf("tick round trip mismatch")
	}
}
