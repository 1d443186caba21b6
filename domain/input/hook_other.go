//go:build !windows

package input

import (
	"image"
	"log/slog"

	"github.com/soocke/pixel-recorder-go/domain/capture"
)

type noopHook struct{ logger *slog.Logger }

// NewHook returns a hook that cannot start: global input hooks are only
// implemented on Windows.
func NewHook(logger *slog.Logger) Hook {
	if logger == nil {
		logger = slog.Default()
	}
	return noopHook{logger: logger}
}

func (h noopHook) Start(Sink, image.Point) error {
	h.logger.Debug("input hooks unavailable on this platform")
	return capture.ErrNotImplemented
}

func (noopHook) Stop() error { return nil }
