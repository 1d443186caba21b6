package capture

import "time"

// CaptureStats summarises capture loop behaviour for instrumentation.
type CaptureStats struct {
	Frames           uint64 // frames counted by CaptureFrame
	Saved            uint64
	Dropped          uint64 // grab failures, not counted
	Skipped          uint64 // counted but folded into the previous frame
	LostDelayMs      uint64 // skipped delay with no previous frame to absorb it
	CursorShapes     uint64
	CursorEvents     uint64
	KeyEvents        uint64
	AvgCapture       time.Duration
	AvgCaptureMicros float64
	LastCapture      time.Time
}

// Any reports whether anything was counted.
func (s CaptureStats) Any() bool { return s.Frames > 0 || s.Dropped > 0 }
