//go:build windows

package capture

// GDI screen device. Open acquires the window DC, a compatible memory DC and
// a compatible bitmap once per session; every Grab StretchBlt's the source
// region into the bitmap and reads it back as a top-down 32-bit DIB into the
// caller's buffer.

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Win32 constants
const (
	srccopy        = 0x00CC0020
	captureblt     = 0x40000000
	dibRGBColors   = 0
	biRgb          = 0
	cursorShowing  = 0x00000001
	smRemoteSesion = 0x1000
	gdiError       = ^uintptr(0)

	vkLButton  = 0x01
	vkRButton  = 0x02
	vkMButton  = 0x04
	vkXButton1 = 0x05
	vkXButton2 = 0x06
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	gdi32  = windows.NewLazySystemDLL("gdi32.dll")

	procGetWindowDC      = user32.NewProc("GetWindowDC")
	procReleaseDC        = user32.NewProc("ReleaseDC")
	procGetSystemMetrics = user32.NewProc("GetSystemMetrics")
	procGetCursorInfo    = user32.NewProc("GetCursorInfo")
	procCopyIcon         = user32.NewProc("CopyIcon")
	procDestroyIcon      = user32.NewProc("DestroyIcon")
	procGetIconInfo      = user32.NewProc("GetIconInfo")
	procGetAsyncKeyState = user32.NewProc("GetAsyncKeyState")

	procCreateCompatibleDC     = gdi32.NewProc("CreateCompatibleDC")
	procCreateCompatibleBitmap = gdi32.NewProc("CreateCompatibleBitmap")
	procDeleteDC               = gdi32.NewProc("DeleteDC")
	procSelectObject           = gdi32.NewProc("SelectObject")
	procStretchBlt             = gdi32.NewProc("StretchBlt")
	procGetDIBits              = gdi32.NewProc("GetDIBits")
	procDeleteObject           = gdi32.NewProc("DeleteObject")
)

// BITMAPINFO structures (Win32 layout).
type bitmapInfoHeader struct {
	BiSize          uint32
	BiWidth         int32
	BiHeight        int32
	BiPlanes        uint16
	BiBitCount      uint16
	BiCompression   uint32
	BiSizeImage     uint32
	BiXPelsPerMeter int32
	BiYPelsPerMeter int32
	BiClrUsed       uint32
	BiClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [256]uint32 // room for the palette GetDIBits writes for 1 bpp
}

type point struct{ X, Y int32 }

type cursorInfo struct {
	CbSize      uint32
	Flags       uint32
	HCursor     windows.Handle
	PtScreenPos point
}

type iconInfo struct {
	FIcon    int32
	XHotspot uint32
	YHotspot uint32
	HbmMask  windows.Handle
	HbmColor windows.Handle
}

type gdiDevice struct {
	cfg      DeviceConfig
	windowDC uintptr
	memDC    uintptr
	bitmap   uintptr
	rop      uintptr
	info     bitmapInfo
	releases releaseStack
}

// NewScreenDevice returns the GDI screen device.
func NewScreenDevice() Device { return &gdiDevice{} }

// RemoteSession reports whether the process runs in a remote desktop session.
func RemoteSession() bool {
	v, _, _ := procGetSystemMetrics.Call(smRemoteSesion)
	return v != 0
}

func (d *gdiDevice) Open(cfg DeviceConfig) error {
	if d.releases.len() > 0 {
		return ErrAlreadyStarted
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Source.Empty() {
		return fmt.Errorf("%w: %+v", ErrInvalidRegion, cfg.Source)
	}

	dc, _, e := procGetWindowDC.Call(0)
	if dc == 0 {
		return d.fail(fmt.Errorf("capture: GetWindowDC failed winerr=%v", e))
	}
	d.releases.push("window dc", func() error {
		if r, _, e := procReleaseDC.Call(0, dc); r == 0 {
			return fmt.Errorf("ReleaseDC winerr=%v", e)
		}
		return nil
	})

	mem, _, e := procCreateCompatibleDC.Call(dc)
	if mem == 0 {
		return d.fail(fmt.Errorf("capture: CreateCompatibleDC failed winerr=%v", e))
	}
	d.releases.push("memory dc", func() error {
		if r, _, e := procDeleteDC.Call(mem); r == 0 {
			return fmt.Errorf("DeleteDC winerr=%v", e)
		}
		return nil
	})

	bmp, _, e := procCreateCompatibleBitmap.Call(dc, uintptr(cfg.Width), uintptr(cfg.Height))
	if bmp == 0 {
		return d.fail(fmt.Errorf("capture: CreateCompatibleBitmap failed w=%d h=%d winerr=%v", cfg.Width, cfg.Height, e))
	}
	d.releases.push("frame bitmap", deleteObject(bmp))

	prev, _, e := procSelectObject.Call(mem, bmp)
	if prev == 0 || prev == gdiError {
		return d.fail(fmt.Errorf("capture: SelectObject failed winerr=%v", e))
	}
	d.releases.push("bitmap selection", func() error {
		if r, _, e := procSelectObject.Call(mem, prev); r == 0 || r == gdiError {
			return fmt.Errorf("SelectObject winerr=%v", e)
		}
		return nil
	})

	d.cfg = cfg
	d.windowDC, d.memDC, d.bitmap = dc, mem, bmp
	d.rop = srccopy
	if cfg.LayeredWindows {
		d.rop |= captureblt
	}
	d.info = bitmapInfo{}
	d.info.Header.BiSize = uint32(unsafe.Sizeof(d.info.Header))
	d.info.Header.BiWidth = int32(cfg.Width)
	d.info.Header.BiHeight = -int32(cfg.Height) // top-down
	d.info.Header.BiPlanes = 1
	d.info.Header.BiBitCount = uint16(cfg.BitCount)
	d.info.Header.BiCompression = biRgb
	d.info.Header.BiSizeImage = uint32(cfg.BufferSize())
	return nil
}

// fail releases everything acquired so far and returns err with any release
// failures attached.
func (d *gdiDevice) fail(err error) error {
	if rerr := d.releases.releaseAll(); rerr != nil {
		return errors.Join(err, rerr)
	}
	return err
}

func (d *gdiDevice) Grab(dst []byte) error {
	if d.memDC == 0 {
		return ErrNotCapturing
	}
	c := d.cfg
	if len(dst) < c.BufferSize() {
		return fmt.Errorf("capture: buffer too small got=%d want=%d", len(dst), c.BufferSize())
	}
	ok, _, e := procStretchBlt.Call(d.memDC, 0, 0, uintptr(c.Width), uintptr(c.Height),
		d.windowDC, uintptr(c.Source.Left), uintptr(c.Source.Top), uintptr(c.Source.Width), uintptr(c.Source.Height), d.rop)
	if ok == 0 {
		return fmt.Errorf("capture: StretchBlt failed x=%d y=%d w=%d h=%d winerr=%v",
			c.Source.Left, c.Source.Top, c.Source.Width, c.Source.Height, e)
	}
	lines, _, _ := procGetDIBits.Call(d.windowDC, d.bitmap, 0, uintptr(c.Height),
		uintptr(unsafe.Pointer(&dst[0])), uintptr(unsafe.Pointer(&d.info)), dibRGBColors)
	if lines == 0 {
		return ErrFrameIncomplete
	}
	return nil
}

func (d *gdiDevice) Cursor() (snap CursorSnapshot, err error) {
	if d.windowDC == 0 {
		return snap, ErrNotCapturing
	}
	var ci cursorInfo
	ci.CbSize = uint32(unsafe.Sizeof(ci))
	if r, _, e := procGetCursorInfo.Call(uintptr(unsafe.Pointer(&ci))); r == 0 {
		return snap, fmt.Errorf("capture: GetCursorInfo failed winerr=%v", e)
	}
	if ci.Flags != cursorShowing {
		return snap, nil
	}

	var rel releaseStack
	defer func() {
		if rerr := rel.releaseAll(); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()

	icon, _, e := procCopyIcon.Call(uintptr(ci.HCursor))
	if icon == 0 {
		return snap, fmt.Errorf("capture: CopyIcon failed winerr=%v", e)
	}
	rel.push("cursor icon", func() error {
		if r, _, e := procDestroyIcon.Call(icon); r == 0 {
			return fmt.Errorf("DestroyIcon winerr=%v", e)
		}
		return nil
	})

	var ii iconInfo
	if r, _, e := procGetIconInfo.Call(icon, uintptr(unsafe.Pointer(&ii))); r == 0 {
		return snap, fmt.Errorf("capture: GetIconInfo failed winerr=%v", e)
	}
	if ii.HbmMask != 0 {
		rel.push("cursor mask", deleteObject(uintptr(ii.HbmMask)))
	}
	if ii.HbmColor != 0 {
		rel.push("cursor color", deleteObject(uintptr(ii.HbmColor)))
	}

	snap.Visible = true
	snap.X, snap.Y = int(ci.PtScreenPos.X), int(ci.PtScreenPos.Y)
	snap.XHotspot, snap.YHotspot = int(ii.XHotspot), int(ii.YHotspot)
	snap.Buttons = asyncMouseButtons()

	switch {
	case ii.HbmColor != 0:
		snap.Color, err = d.readBitmap(uintptr(ii.HbmColor), 32)
	case ii.HbmMask != 0:
		snap.Mask, err = d.readBitmap(uintptr(ii.HbmMask), 1)
	}
	return snap, err
}

// readBitmap reads hbm top-down at the given bit depth.
func (d *gdiDevice) readBitmap(hbm uintptr, bitCount int) (*CursorBitmap, error) {
	var bi bitmapInfo
	bi.Header.BiSize = uint32(unsafe.Sizeof(bi.Header))
	if r, _, e := procGetDIBits.Call(d.windowDC, hbm, 0, 0, 0, uintptr(unsafe.Pointer(&bi)), dibRGBColors); r == 0 {
		return nil, fmt.Errorf("capture: GetDIBits header failed winerr=%v", e)
	}
	w, h := int(bi.Header.BiWidth), int(bi.Header.BiHeight)
	if h < 0 {
		h = -h
	}
	if w <= 0 || h <= 0 {
		return nil, nil
	}
	cfg := DeviceConfig{Width: w, Height: h, BitCount: bitCount}
	bi.Header.BiHeight = -int32(h)
	bi.Header.BiBitCount = uint16(bitCount)
	bi.Header.BiCompression = biRgb
	bi.Header.BiSizeImage = uint32(cfg.BufferSize())
	pixels := make([]byte, cfg.BufferSize())
	lines, _, e := procGetDIBits.Call(d.windowDC, hbm, 0, uintptr(h),
		uintptr(unsafe.Pointer(&pixels[0])), uintptr(unsafe.Pointer(&bi)), dibRGBColors)
	if lines == 0 {
		return nil, fmt.Errorf("capture: GetDIBits cursor failed winerr=%v", e)
	}
	return &CursorBitmap{Width: w, Height: h, Pixels: pixels}, nil
}

func (d *gdiDevice) Close() error {
	err := d.releases.releaseAll()
	d.windowDC, d.memDC, d.bitmap = 0, 0, 0
	return err
}

func deleteObject(h uintptr) func() error {
	return func() error {
		if r, _, e := procDeleteObject.Call(h); r == 0 {
			return fmt.Errorf("DeleteObject winerr=%v", e)
		}
		return nil
	}
}

func asyncMouseButtons() MouseButtons {
	down := func(vk uintptr) bool {
		v, _, _ := procGetAsyncKeyState.Call(vk)
		return v&0x8000 != 0
	}
	return MouseButtons{
		Left:        down(vkLButton),
		Right:       down(vkRButton),
		Middle:      down(vkMButton),
		FirstExtra:  down(vkXButton1),
		SecondExtra: down(vkXButton2),
	}
}
