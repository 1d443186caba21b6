package capture

import "errors"

var (
	// ErrResourceAcquisition wraps failures to acquire native capture
	// resources in Start. The backend stays idle.
	ErrResourceAcquisition = errors.New("capture: resource acquisition failed")
	// ErrFrameIncomplete is returned by Device.Grab when the copy happened
	// but the pixels could not be read back. The frame is counted and
	// skipped.
	ErrFrameIncomplete = errors.New("capture: frame pixels unavailable")
	// ErrCursorUnsupported is returned by devices with no cursor access.
	ErrCursorUnsupported = errors.New("capture: cursor capture unsupported")
	// ErrNotImplemented is returned on platforms without a device.
	ErrNotImplemented = errors.New("capture: not implemented on this platform")
	ErrInvalidRegion  = errors.New("capture: invalid region")
	ErrAlreadyStarted = errors.New("capture: already started")
	ErrNotCapturing   = errors.New("capture: not capturing")
)

// DeviceConfig is what a Device needs to open. Source is the physical
// region to read; Width and Height are the output frame size.
type DeviceConfig struct {
	Source   Region
	Width    int
	Height   int
	BitCount int
	// LayeredWindows includes layered (translucent) windows in the copy.
	// Some remote sessions render poorly with it set.
	LayeredWindows bool
}

// Stride is the row size in bytes, padded to 32 bits.
func (c DeviceConfig) Stride() int { return ((c.Width*c.BitCount + 31) / 32) * 4 }

// BufferSize is the byte length of one frame.
func (c DeviceConfig) BufferSize() int { return c.Stride() * c.Height }

// Device is a platform pixel source. Open acquires every native resource or
// none; Close releases whatever Open acquired and is safe to call more than
// once. Grab fills dst (BufferSize bytes, BGRA, top-down).
type Device interface {
	Open(cfg DeviceConfig) error
	Grab(dst []byte) error
	Cursor() (CursorSnapshot, error)
	Close() error
}

// Interrupter is implemented by devices whose Grab can block on an external
// source. Interrupt unblocks a pending Grab without waiting for it and must
// not take locks held across Grab.
type Interrupter interface {
	Interrupt() error
}
