package debug

// Periodic diagnostics logger. Started only when config.Debug is true.
// Emits goroutine count, heap and stack usage, resident set size where the
// platform reports it, and the capture counters of the active session.

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/metrics"
	"time"

	"github.com/soocke/pixel-recorder-go/domain/capture"
)

// StatsFunc returns the counters of the active capture session. ok is false
// when nothing is recording.
type StatsFunc func() (stats capture.CaptureStats, ok bool)

// StartStatsLogger launches a ticker that logs runtime and capture stats
// until ctx is done. The returned channel is closed when the goroutine exits.
func StartStatsLogger(ctx context.Context, interval time.Duration, logger *slog.Logger, stats StatsFunc) <-chan struct{} {
	if interval <= 0 {
		interval = time.Second
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(interval)
		defer t.Stop()
		samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
		var rssErrLogged bool
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			logRuntime(logger, samples, &rssErrLogged)
			if stats == nil {
				continue
			}
			if s, ok := stats(); ok && s.Any() {
				logger.Info("capture-stats",
					slog.Uint64("frames", s.Frames),
					slog.Uint64("saved", s.Saved),
					slog.Uint64("dropped", s.Dropped),
					slog.Uint64("skipped", s.Skipped),
					slog.Uint64("lost_delay_ms", s.LostDelayMs),
					slog.Uint64("cursor_shapes", s.CursorShapes),
					slog.Uint64("cursor_events", s.CursorEvents),
					slog.Uint64("key_events", s.KeyEvents),
					slog.Float64("avg_capture_us", s.AvgCaptureMicros),
					slog.Time("last_capture", s.LastCapture),
				)
			}
		}
	}()
	return done
}

func logRuntime(logger *slog.Logger, samples []metrics.Sample, rssErrLogged *bool) {
	metrics.Read(samples)
	var goroutines uint64
	if samples[0].Value.Kind() == metrics.KindUint64 {
		goroutines = samples[0].Value.Uint64()
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	rss, err := residentSetSize()
	if err != nil && !*rssErrLogged {
		logger.Warn("memlog: resident set size unavailable", slog.String("err", err.Error()))
		*rssErrLogged = true
	}
	logger.Info("memstats",
		slog.Uint64("goroutines", goroutines),
		slog.Uint64("stack_inuse", ms.StackInuse),
		slog.Uint64("heap_alloc", ms.HeapAlloc),
		slog.Uint64("heap_inuse", ms.HeapInuse),
		slog.Uint64("heap_sys", ms.HeapSys),
		slog.Uint64("next_gc", ms.NextGC),
		slog.Uint64("rss", rss),
		slog.Uint64("num_gc", uint64(ms.NumGC)),
	)
}
