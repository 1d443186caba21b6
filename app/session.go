package app

import (
	"time"
)

// SessionTimer accounts for the time a recording spent capturing. Each
// resume starts a new segment; paused time is not counted. The zero value is
// ready to use.
type SessionTimer struct {
	active       bool
	segmentStart time.Time
	segment      time.Duration
	accumulated  time.Duration
	segments     int
}

// Update records the capture state at now. Call it on every state change.
func (m *SessionTimer) Update(capturing bool, now time.Time) {
	if m == nil {
		return
	}
	if capturing {
		if !m.active { // paused/stopped -> capturing
			m.active = true
			m.segmentStart = now
			m.segment = 0
			m.segments++
		}
		m.segment = now.Sub(m.segmentStart)
	} else if m.active { // capturing -> paused/stopped
		m.segment = now.Sub(m.segmentStart)
		m.accumulated += m.segment
		m.active = false
	}
}

// Values returns the current segment duration and the total captured time.
// The total includes the ongoing segment when active.
func (m *SessionTimer) Values() (segment, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	segment = m.segment
	total = m.accumulated
	if m.active {
		total += segment
	}
	return
}

// Segments returns how many capturing segments were started.
func (m *SessionTimer) Segments() int {
	if m == nil {
		return 0
	}
	return m.segments
}

// Reset clears all accounting for a new recording.
func (m *SessionTimer) Reset() {
	if m == nil {
		return
	}
	*m = SessionTimer{}
}
