package capture

import (
	"sync"
	"time"
)

// TicksPerMillisecond is the number of 100 ns ticks in one millisecond. All
// recording timestamps use this unit.
const TicksPerMillisecond = 10_000

const tickDuration = 100 * time.Nanosecond

// DurationToTicks converts d to 100 ns ticks.
func DurationToTicks(d time.Duration) int64 { return int64(d / tickDuration) }

// TicksToDuration converts 100 ns ticks to a time.Duration.
func TicksToDuration(ticks int64) time.Duration { return time.Duration(ticks) * tickDuration }

// Clock is the session-wide monotonic tick source. The capture goroutine owns
// Start and Pause; every producer (capture loop, input hooks) only reads
// Ticks, so frames and input events are ordered on the same time base.
// Paused intervals do not advance the clock.
type Clock struct {
	mu      sync.RWMutex
	now     func() time.Time
	started bool
	running bool
	base    time.Duration
	since   time.Time
}

// NewClock returns a stopped clock. now defaults to time.Now, whose values
// carry a monotonic reading.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Start starts the clock or resumes it after Pause.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.started = true
	c.running = true
	c.since = c.now()
}

// Pause freezes the clock at its current value.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.base += c.now().Sub(c.since)
	c.running = false
}

// Running reports whether the clock is advancing.
func (c *Clock) Running() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

// Ticks returns the elapsed running time in ticks, or -1 if the clock was
// never started.
func (c *Clock) Ticks() int64 {
	if c == nil {
		return -1
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.started {
		return -1
	}
	elapsed := c.base
	if c.running {
		elapsed += c.now().Sub(c.since)
	}
	return DurationToTicks(elapsed)
}
