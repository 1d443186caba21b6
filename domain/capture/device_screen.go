//go:build linux

package capture

import (
	"fmt"
	"image"

	"github.com/vova616/screenshot"
)

// screenDevice grabs through the X server. The library returns a fresh RGBA
// image per call; Grab converts it into the caller's BGRA buffer.
type screenDevice struct {
	cfg  DeviceConfig
	rect image.Rectangle
	open bool
}

// NewScreenDevice returns the X11 screen device.
func NewScreenDevice() Device { return &screenDevice{} }

// RemoteSession is always false outside Windows.
func RemoteSession() bool { return false }

func (d *screenDevice) Open(cfg DeviceConfig) error {
	if d.open {
		return ErrAlreadyStarted
	}
	if cfg.Source.Empty() || cfg.Width != cfg.Source.Width || cfg.Height != cfg.Source.Height {
		return fmt.Errorf("%w: %+v to %dx%d", ErrInvalidRegion, cfg.Source, cfg.Width, cfg.Height)
	}
	screen, err := screenshot.ScreenRect()
	if err != nil {
		return fmt.Errorf("capture: screen rect: %w", err)
	}
	rect := image.Rect(cfg.Source.Left, cfg.Source.Top, cfg.Source.Left+cfg.Source.Width, cfg.Source.Top+cfg.Source.Height)
	if !rect.In(screen) {
		return fmt.Errorf("%w: selection out of bounds sel=%v screen=%v", ErrInvalidRegion, rect, screen)
	}
	d.cfg, d.rect, d.open = cfg, rect, true
	return nil
}

func (d *screenDevice) Grab(dst []byte) error {
	if !d.open {
		return ErrNotCapturing
	}
	img, err := screenshot.CaptureRect(d.rect)
	if err != nil {
		return fmt.Errorf("capture: grab: %w", err)
	}
	return rgbaToBGRA(dst, img, d.cfg)
}

func (d *screenDevice) Cursor() (CursorSnapshot, error) {
	return CursorSnapshot{}, ErrCursorUnsupported
}

func (d *screenDevice) Close() error {
	d.open = false
	return nil
}

// rgbaToBGRA copies img into dst row by row, swapping red and blue and
// forcing opaque alpha.
func rgbaToBGRA(dst []byte, img *image.RGBA, cfg DeviceConfig) error {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w != cfg.Width || h != cfg.Height {
		return fmt.Errorf("%w: got %dx%d want %dx%d", ErrFrameIncomplete, w, h, cfg.Width, cfg.Height)
	}
	stride := cfg.Stride()
	if len(dst) < stride*h {
		return fmt.Errorf("capture: buffer too small got=%d want=%d", len(dst), stride*h)
	}
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+w*4]
		row := dst[y*stride : y*stride+w*4]
		for i := 0; i < len(src); i += 4 {
			row[i+0] = src[i+2]
			row[i+1] = src[i+1]
			row[i+2] = src[i+0]
			row[i+3] = 0xFF
		}
	}
	return nil
}
