package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/soocke/pixel-recorder-go/app"
	"github.com/soocke/pixel-recorder-go/domain/capture"
)

const helpText = `commands:
  start              begin a recording
  pause | resume     suspend or continue capture
  toggle             flip between pause and resume
  stop               end the recording and keep it for convert/discard
  convert [timeout]  build a cached project from the recording (e.g. convert 30s)
  discard            delete the current recording
  mark <chord>       inject a key event, e.g. mark Ctrl+Shift+F5
  status             show recorder state
  stats              show capture counters
  level <name>       set log level (debug, info, warn, error)
  exit | quit        stop, then leave`

var errQuit = errors.New("quit")

// console executes prompt commands against a recorder.
type console struct {
	rec   *app.Recorder
	level *slog.LevelVar
	out   io.Writer
}

// run reads commands from in until EOF or exit.
func (c *console) run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	fmt.Fprintln(c.out, "Type commands. 'help' for information or 'exit' to quit.")
	for {
		fmt.Fprint(c.out, "> ")
		if !sc.Scan() {
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		args, err := shellquote.Split(line)
		if err != nil {
			fmt.Fprintln(c.out, "parse error:", err)
			continue
		}
		err = c.execute(ctx, args)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(c.out, "error:", err)
		}
	}
}

func (c *console) execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}
	switch strings.ToLower(args[0]) {
	case "help", "?":
		fmt.Fprintln(c.out, helpText)
	case "start":
		if err := c.rec.Start(); err != nil {
			return err
		}
		c.printStatus()
	case "pause":
		c.rec.Pause()
		c.printStatus()
	case "resume":
		c.rec.Resume()
		c.printStatus()
	case "toggle":
		c.rec.TogglePause()
		c.printStatus()
	case "stop":
		rec, err := c.rec.Stop()
		if rec != nil {
			fmt.Fprintf(c.out, "recording %s: %d frames, %s in %s\n", rec.ID, rec.FrameCount(), rec.Duration().Round(time.Millisecond), rec.CacheRootPath)
		}
		return err
	case "discard":
		return c.rec.Discard()
	case "convert":
		cctx := ctx
		if len(args) > 1 {
			d, err := time.ParseDuration(args[1])
			if err != nil {
				return fmt.Errorf("convert timeout: %w", err)
			}
			var cancel context.CancelFunc
			cctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		p, err := c.rec.Convert(cctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "project %s (%d tracks)\n", p.CacheRootPath, len(p.Tracks))
		for _, t := range p.Tracks {
			fmt.Fprintf(c.out, "  track %d %q -> %s\n", t.ID, t.Name, t.CachePath)
		}
	case "mark":
		if len(args) < 2 {
			return errors.New("usage: mark <chord>")
		}
		key, mods, err := parseChord(args[1])
		if err != nil {
			return err
		}
		if !c.rec.Mark(key, mods) {
			return errors.New("not capturing")
		}
	case "status":
		c.printStatus()
	case "stats":
		s, ok := c.rec.Stats()
		if !ok {
			fmt.Fprintln(c.out, "no active recording")
			return nil
		}
		fmt.Fprintln(c.out, formatStats(s, time.Now()))
	case "level":
		if len(args) < 2 {
			return errors.New("usage: level <debug|info|warn|error>")
		}
		c.level.Set(parseLevel(args[1]))
		fmt.Fprintln(c.out, "log level", c.level.Level())
	case "exit", "quit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q (try 'help')", args[0])
	}
	return nil
}

func (c *console) printStatus() {
	st := c.rec.Status()
	fmt.Fprintf(c.out, "state=%s frames=%d segment=%s total=%s pending=%t\n",
		st.State, st.Frames, st.Segment.Round(time.Millisecond), st.Total.Round(time.Millisecond), st.Pending)
}

func formatStats(s capture.CaptureStats, now time.Time) string {
	last := "never"
	if !s.LastCapture.IsZero() {
		last = now.Sub(s.LastCapture).Round(time.Millisecond).String() + " ago"
	}
	return fmt.Sprintf("frames=%d saved=%d dropped=%d skipped=%d lost_delay_ms=%d cursor_shapes=%d cursor_events=%d key_events=%d avg_capture=%s last_capture=%s",
		s.Frames, s.Saved, s.Dropped, s.Skipped, s.LostDelayMs, s.CursorShapes, s.CursorEvents, s.KeyEvents, s.AvgCapture, last)
}

// parseChord parses "Ctrl+Shift+A" style text into a key and modifiers.
func parseChord(s string) (uint8, capture.ModifierKeys, error) {
	parts := strings.Split(s, "+")
	var mods capture.ModifierKeys
	for _, p := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "ctrl", "control":
			mods |= capture.ModControl
		case "alt":
			mods |= capture.ModAlt
		case "shift":
			mods |= capture.ModShift
		case "win", "windows":
			mods |= capture.ModWindows
		default:
			return 0, 0, fmt.Errorf("unknown modifier %q", p)
		}
	}
	key, ok := capture.ParseKey(parts[len(parts)-1])
	if !ok {
		return 0, 0, fmt.Errorf("unknown key %q", parts[len(parts)-1])
	}
	return key, mods, nil
}
