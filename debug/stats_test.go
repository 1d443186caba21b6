package debug

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/soocke/pixel-recorder-go/domain/capture"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStatsLogger_LogsUntilCancelled(t *testing.T) {
	var out syncBuffer
	logger := slog.New(slog.NewTextHandler(&out, nil))
	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan struct{}, 16)
	done := StartStatsLogger(ctx, 5*time.Millisecond, logger, func() (capture.CaptureStats, bool) {
		select {
		case calls <- struct{}{}:
		default:
		}
		return capture.CaptureStats{Frames: 3, Saved: 2, Skipped: 1, LastCapture: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}, true
	})

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatalf("stats func never called")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("logger did not stop after cancel")
	}
	logs := out.String()
	if !strings.Contains(logs, "memstats") || !strings.Contains(logs, "capture-stats") || !strings.Contains(logs, "saved=2") ||
		!strings.Contains(logs, "last_capture=2024-05-01T12:00:00") {
		t.Fatalf("unexpected log output:\n%s", logs)
	}
}
