package app

import (
	"testing"
	"time"
)

func TestSessionTimer_PauseResume(t *testing.T) {
	var m SessionTimer
	base := time.Unix(0, 0)

	// Capture for 5s.
	m.Update(true, base)
	m.Update(true, base.Add(5*time.Second))
	segment, total := m.Values()
	if segment != 5*time.Second || total != 5*time.Second {
		t.Fatalf("expected 5s segment & total; got segment=%v total=%v", segment, total)
	}

	// Pause at 5s, stay paused until 9s.
	m.Update(false, base.Add(5*time.Second))
	m.Update(false, base.Add(9*time.Second))
	segment2, total2 := m.Values()
	if segment2 != segment || total2 != total {
		t.Fatalf("paused time must not count: segment=%v total=%v", segment2, total2)
	}

	// Resume at 9s for 3s.
	m.Update(true, base.Add(9*time.Second))
	m.Update(true, base.Add(12*time.Second))
	s3, t3 := m.Values()
	if s3 != 3*time.Second || t3 != 8*time.Second {
		t.Fatalf("expected 3s segment and 8s total; got segment=%v total=%v", s3, t3)
	}
	if m.Segments() != 2 {
		t.Fatalf("expected 2 segments, got %d", m.Segments())
	}

	// Stop at 12s.
	m.Update(false, base.Add(12*time.Second))
	if _, tFinal := m.Values(); tFinal != 8*time.Second {
		t.Fatalf("final total %v", tFinal)
	}

	m.Reset()
	if s, tot := m.Values(); s != 0 || tot != 0 || m.Segments() != 0 {
		t.Fatalf("reset left segment=%v total=%v segments=%d", s, tot, m.Segments())
	}
}

func TestSessionTimer_Nil(t *testing.T) {
	var m *SessionTimer
	m.Update(true, time.Now())
	if s, tot := m.Values(); s != 0 || tot != 0 {
		t.Fatalf("nil timer should report zero")
	}
}
