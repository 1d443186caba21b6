package capture

import "time"

// FrameTimer measures the delay attached to each captured frame. In fixed
// mode every frame gets the configured interval; in adaptive mode a frame
// gets the wall time elapsed since the previous frame. It is driven only by
// the capture goroutine and is not safe for concurrent use.
type FrameTimer struct {
	clock    *Clock
	now      func() time.Time
	interval int64
	fixed    bool
	restart  bool
	last     time.Time
	carry    time.Duration // sub-millisecond remainder not yet attributed
}

// NewFrameTimer returns a timer stamping ticks from clock. A nil clock gets
// a private one.
func NewFrameTimer(clock *Clock) *FrameTimer {
	if clock == nil {
		clock = NewClock(nil)
	}
	return &FrameTimer{clock: clock, now: clock.now, restart: true}
}

// Clock returns the tick source shared with input producers.
func (t *FrameTimer) Clock() *Clock { return t.clock }

// Start configures the interval and mode, restarts the delay stopwatch and
// resumes the tick clock.
func (t *FrameTimer) Start(intervalMs int, fixedRate bool) {
	t.interval = int64(intervalMs)
	t.fixed = fixedRate
	t.restart = true
	t.carry = 0
	t.clock.Start()
}

// NextDelay returns the delay in milliseconds for the frame being captured.
// The first call after Start returns the interval since nothing has elapsed
// yet.
func (t *FrameTimer) NextDelay() int64 {
	if t.restart {
		t.restart = false
		t.last = t.now()
		return t.interval
	}
	if t.fixed {
		return t.interval
	}
	now := t.now()
	elapsed := now.Sub(t.last) + t.carry
	t.last = now
	ms := elapsed.Milliseconds()
	t.carry = elapsed - time.Duration(ms)*time.Millisecond
	return ms
}

// ElapsedTicks returns the session tick count, or -1 before the first Start.
func (t *FrameTimer) ElapsedTicks() int64 { return t.clock.Ticks() }

// Stop freezes the clock; the next Start begins a fresh delay measurement.
func (t *FrameTimer) Stop() {
	t.clock.Pause()
	t.restart = true
}
