//go:build !windows && !linux

package capture

type unsupportedDevice struct{}

// NewScreenDevice returns a device whose Open always fails on this platform.
func NewScreenDevice() Device { return unsupportedDevice{} }

func RemoteSession() bool { return false }

func (unsupportedDevice) Open(DeviceConfig) error { return ErrNotImplemented }
func (unsupportedDevice) Grab([]byte) error       { return ErrNotImplemented }
func (unsupportedDevice) Cursor() (CursorSnapshot, error) {
	return CursorSnapshot{}, ErrCursorUnsupported
}
func (unsupportedDevice) Close() error { return nil }
