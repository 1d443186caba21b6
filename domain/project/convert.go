package project

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/soocke/pixel-recorder-go/domain/capture"
)

// ErrNotFrozen is returned when converting a recording that is still
// being captured.
var ErrNotFrozen = errors.New("project: recording is not frozen")

// Default cursor geometry used until the first shape is seen.
const (
	defaultCursorWidth  = 32
	defaultCursorHeight = 32
)

// Converter turns a frozen RawRecording into a CachedProject.
type Converter struct {
	logger   *slog.Logger
	tempRoot string
	now      func() time.Time
}

// NewConverter returns a converter that creates projects under
// ProjectsDir(tempRoot).
func NewConverter(logger *slog.Logger, tempRoot string) *Converter {
	return &Converter{logger: logger, tempRoot: tempRoot, now: time.Now}
}

// trackBuild is one track with the function that fills and writes it.
type trackBuild struct {
	track *Track
	build func(ctx context.Context, t *Track) error
}

// Convert builds the Frames, Cursor Events and Key Events tracks of rec.
// Categories without entries get no track. Track ids are assigned before
// the builders run, so they do not depend on which builder finishes first.
// On any error, or if ctx is cancelled, the project directory is removed.
func (c *Converter) Convert(ctx context.Context, rec *capture.RawRecording) (*CachedProject, error) {
	if !rec.Frozen() {
		return nil, ErrNotFrozen
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frames := rec.Frames()
	var cursorEvents, keyEvents []capture.Event
	for _, e := range rec.Events() {
		switch e.Type() {
		case capture.EventCursor, capture.EventCursorData:
			cursorEvents = append(cursorEvents, e)
		case capture.EventKey:
			keyEvents = append(keyEvents, e)
		}
	}

	p, err := Create(c.tempRoot, c.now())
	if err != nil {
		return nil, err
	}
	p.Width = rec.Width
	p.Height = rec.Height
	p.HorizontalDpi = rec.HorizontalDpi
	p.VerticalDpi = rec.VerticalDpi
	p.ChannelCount = rec.ChannelCount
	p.BitsPerChannel = rec.BitsPerChannel

	raw, err := rec.Open()
	if err != nil {
		return nil, errors.Join(err, p.Remove())
	}
	defer raw.Close()

	var firstDelay int64
	if len(frames) > 0 {
		firstDelay = frames[0].Delay
	}

	var builds []trackBuild
	add := func(name string, build func(context.Context, *Track) error) {
		id := p.NextTrackID()
		t := NewTrack(id, name, p.TrackCachePath(id))
		p.AddTrack(t)
		builds = append(builds, trackBuild{track: t, build: build})
	}
	if len(frames) > 0 {
		add(FramesTrackName, func(ctx context.Context, t *Track) error {
			return buildFramesTrack(ctx, t, rec, frames, raw)
		})
	}
	if len(cursorEvents) > 0 {
		add(CursorTrackName, func(ctx context.Context, t *Track) error {
			return buildCursorTrack(ctx, t, rec, cursorEvents, firstDelay, raw)
		})
	}
	if len(keyEvents) > 0 {
		add(KeyTrackName, func(ctx context.Context, t *Track) error {
			return buildKeyTrack(ctx, t, rec, keyEvents, firstDelay)
		})
	}

	errs := make([]error, len(builds))
	var wg sync.WaitGroup
	for i, b := range builds {
		i, b := i, b
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := b.build(ctx, b.track); err != nil {
				errs[i] = fmt.Errorf("build track %q: %w", b.track.Name, err)
			}
		}()
	}
	wg.Wait()

	err = errors.Join(errs...)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		if rerr := p.Remove(); rerr != nil {
			err = errors.Join(err, rerr)
		}
		if c.logger != nil {
			c.logger.Error("project conversion failed", "recording", rec.ID, "error", err)
		}
		return nil, err
	}
	if c.logger != nil {
		c.logger.Info("project converted",
			"recording", rec.ID,
			"project", p.CacheRootPath,
			"tracks", len(p.Tracks),
			"frames", len(frames),
			"cursor_events", len(cursorEvents),
			"key_events", len(keyEvents),
		)
	}
	return p, nil
}

// sizedBase returns a sequence base sized to the recording.
func sizedBase(rec *capture.RawRecording, start, end int64) SequenceBase {
	b := defaultSequenceBase()
	b.StartTime = start
	b.EndTime = end
	b.Width = uint16(rec.Width)
	b.Height = uint16(rec.Height)
	b.HorizontalDpi = rec.HorizontalDpi
	b.VerticalDpi = rec.VerticalDpi
	return b
}

func rasterOrigin(s capture.Source) RasterOrigin {
	if s == capture.SourceWebcam {
		return OriginWebcam
	}
	return OriginScreen
}

func buildFramesTrack(ctx context.Context, t *Track, rec *capture.RawRecording, frames []capture.RecordingFrame, raw io.ReaderAt) error {
	last := frames[len(frames)-1]
	seq := &RasterSequence{
		SequenceBase:   sizedBase(rec, 0, last.Ticks+last.Delay*capture.TicksPerMillisecond),
		Origin:         rasterOrigin(rec.Source),
		ChannelCount:   rec.ChannelCount,
		BitsPerChannel: rec.BitsPerChannel,
		Frames:         make([]*FrameSubSequence, len(frames)),
	}
	for i, f := range frames {
		seq.Frames[i] = &FrameSubSequence{
			SubSequenceBase: SubSequenceBase{TimeStamp: f.Ticks},
			Delay:           f.Delay,
			PixelsLength:    f.PixelsLength,
		}
	}
	t.AddSequence(seq)
	return writeTrackFile(ctx, t, func(_, i int) (io.ReaderAt, int64) {
		return raw, frames[i].StreamPosition + capture.FrameHeaderSize
	})
}

// mergeCursorEvents folds cursor state and shape events into snapshots, one
// per event, in time order. Each snapshot carries the latest state and the
// latest shape seen so far. It also returns, per snapshot, the raw log
// offset of the shape payload.
func mergeCursorEvents(events []capture.Event) ([]*CursorSubSequence, []int64) {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b capture.Event) int {
		return cmp.Compare(a.TimeStamp(), b.TimeStamp())
	})

	var state capture.CursorEvent
	shape := capture.CursorDataEvent{Width: defaultCursorWidth, Height: defaultCursorHeight}
	out := make([]*CursorSubSequence, 0, len(sorted))
	offsets := make([]int64, 0, len(sorted))
	for _, e := range sorted {
		switch ev := e.(type) {
		case capture.CursorEvent:
			state = ev
		case capture.CursorDataEvent:
			shape = ev
		default:
			continue
		}
		out = append(out, &CursorSubSequence{
			SubSequenceBase: SubSequenceBase{TimeStamp: e.TimeStamp()},
			CursorType:      shape.CursorType,
			Left:            state.X,
			Top:             state.Y,
			Width:           uint16(shape.Width),
			Height:          uint16(shape.Height),
			XHotspot:        uint16(shape.XHotspot),
			YHotspot:        uint16(shape.YHotspot),
			Buttons:         state.Buttons,
			MouseWheelDelta: state.MouseDelta,
			PixelsLength:    shape.PixelsLength,
		})
		offsets = append(offsets, shape.StreamPosition+capture.CursorDataHeaderSize)
	}
	return out, offsets
}

func buildCursorTrack(ctx context.Context, t *Track, rec *capture.RawRecording, events []capture.Event, firstDelay int64, raw io.ReaderAt) error {
	snaps, offsets := mergeCursorEvents(events)
	var end int64
	if len(snaps) > 0 {
		end = snaps[len(snaps)-1].TimeStamp + firstDelay*capture.TicksPerMillisecond
	}
	seq := &CursorSequence{SequenceBase: sizedBase(rec, 0, end), CursorEvents: snaps}
	t.AddSequence(seq)
	return writeTrackFile(ctx, t, func(_, i int) (io.ReaderAt, int64) {
		return raw, offsets[i]
	})
}

func buildKeyTrack(ctx context.Context, t *Track, rec *capture.RawRecording, events []capture.Event, firstDelay int64) error {
	keys := make([]*KeySubSequence, 0, len(events))
	for _, e := range events {
		k, ok := e.(capture.KeyEvent)
		if !ok {
			continue
		}
		keys = append(keys, &KeySubSequence{
			SubSequenceBase: SubSequenceBase{TimeStamp: k.Ticks},
			Key:             k.Key,
			Modifiers:       k.Modifiers,
			IsUppercase:     k.IsUppercase,
			WasInjected:     k.WasInjected,
		})
	}
	slices.SortStableFunc(keys, func(a, b *KeySubSequence) int {
		return cmp.Compare(a.TimeStamp, b.TimeStamp)
	})
	var end int64
	if len(keys) > 0 {
		end = keys[len(keys)-1].TimeStamp + firstDelay*capture.TicksPerMillisecond
	}
	t.AddSequence(&KeySequence{SequenceBase: sizedBase(rec, 0, end), KeyEvents: keys})
	return writeTrackFile(ctx, t, nil)
}

func writeTrackFile(ctx context.Context, t *Track, payloads PayloadSource) error {
	f, err := os.Create(t.CachePath)
	if err != nil {
		return fmt.Errorf("create track cache: %w", err)
	}
	if err := WriteTrack(ctx, f, t, payloads); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close track cache: %w", err)
	}
	return nil
}
