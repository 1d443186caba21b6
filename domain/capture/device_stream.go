package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/kballard/go-shellquote"
)

// ErrInvalidStream is returned when a stream does not match the requested
// frame geometry.
var ErrInvalidStream = errors.New("capture: invalid frame stream")

// Stream is a raw frame source. Read yields back-to-back BGRA frames of
// Width x Height pixels, top-down.
type Stream struct {
	io.ReadCloser
	Width  int
	Height int
}

// StreamOpener opens a stream for the given geometry.
type StreamOpener func(cfg DeviceConfig) (*Stream, error)

// streamDevice reads frames from a Stream, e.g. a webcam pipeline. It has no
// cursor.
type streamDevice struct {
	open StreamOpener
	size int

	mu          sync.Mutex // guards stream against Interrupt
	stream      *Stream
	interrupted bool
}

// NewStreamDevice returns a device fed by open.
func NewStreamDevice(open StreamOpener) Device { return &streamDevice{open: open} }

func (d *streamDevice) Open(cfg DeviceConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stream != nil {
		return ErrAlreadyStarted
	}
	if d.open == nil {
		return fmt.Errorf("%w: no opener", ErrInvalidStream)
	}
	if cfg.BitCount != 32 {
		return fmt.Errorf("%w: %d bits per pixel", ErrInvalidStream, cfg.BitCount)
	}
	s, err := d.open(cfg)
	if err != nil {
		return err
	}
	if s.Width != cfg.Width || s.Height != cfg.Height {
		_ = s.Close()
		return fmt.Errorf("%w: got %dx%d want %dx%d", ErrInvalidStream, s.Width, s.Height, cfg.Width, cfg.Height)
	}
	d.stream = s
	d.interrupted = false
	d.size = cfg.BufferSize()
	return nil
}

func (d *streamDevice) Grab(dst []byte) error {
	d.mu.Lock()
	s, interrupted := d.stream, d.interrupted
	d.mu.Unlock()
	if s == nil || interrupted {
		return ErrNotCapturing
	}
	if len(dst) < d.size {
		return fmt.Errorf("capture: buffer too small got=%d want=%d", len(dst), d.size)
	}
	if _, err := io.ReadFull(s, dst[:d.size]); err != nil {
		return fmt.Errorf("capture: read stream frame: %w", err)
	}
	return nil
}

func (d *streamDevice) Cursor() (CursorSnapshot, error) {
	return CursorSnapshot{}, ErrCursorUnsupported
}

// Interrupt closes the stream so a Grab blocked on a stalled source returns.
// It may be called from any goroutine while Grab runs.
func (d *streamDevice) Interrupt() error {
	d.mu.Lock()
	s := d.stream
	if s == nil || d.interrupted {
		d.mu.Unlock()
		return nil
	}
	d.interrupted = true
	d.mu.Unlock()
	return s.Close()
}

func (d *streamDevice) Close() error {
	d.mu.Lock()
	s, interrupted := d.stream, d.interrupted
	d.stream = nil
	d.interrupted = false
	d.mu.Unlock()
	if s == nil || interrupted {
		return nil
	}
	var rel releaseStack
	rel.push("frame stream", s.Close)
	return rel.releaseAll()
}

// CommandStream returns an opener that runs command and reads frames from its
// standard output. The command line is split with shell quoting rules;
// {width} and {height} are replaced with the frame size, e.g.
//
//	ffmpeg -f v4l2 -video_size {width}x{height} -i /dev/video0 -f rawvideo -pix_fmt bgra -
func CommandStream(command string) StreamOpener {
	return func(cfg DeviceConfig) (*Stream, error) {
		args, err := shellquote.Split(command)
		if err != nil {
			return nil, fmt.Errorf("%w: parse command: %w", ErrInvalidStream, err)
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("%w: empty command", ErrInvalidStream)
		}
		r := strings.NewReplacer("{width}", strconv.Itoa(cfg.Width), "{height}", strconv.Itoa(cfg.Height))
		for i := range args {
			args[i] = r.Replace(args[i])
		}
		cmd := exec.Command(args[0], args[1:]...)
		out, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("capture: stream stdout: %w", err)
		}
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("capture: start stream command %q: %w", args[0], err)
		}
		return &Stream{ReadCloser: &commandReader{ReadCloser: out, cmd: cmd}, Width: cfg.Width, Height: cfg.Height}, nil
	}
}

type commandReader struct {
	io.ReadCloser
	cmd *exec.Cmd
}

// Close stops the command. A killed process is the expected outcome, so
// only pipe and kill failures are reported.
func (c *commandReader) Close() error {
	var errs []error
	if err := c.ReadCloser.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.cmd.Process != nil {
		if err := c.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			errs = append(errs, err)
		}
		_ = c.cmd.Wait()
	}
	return errors.Join(errs...)
}
