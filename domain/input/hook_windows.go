//go:build windows

package input

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	whKeyboardLL  = 13
	whMouseLL     = 14
	wmQuit        = 0x0012
	llkhfInjected = 0x00000010

	vkShift   = 0x10
	vkControl = 0x11
	vkMenu    = 0x12
	vkCapital = 0x14
	vkLWin    = 0x5B
	vkRWin    = 0x5C
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procGetAsyncKeyState    = user32.NewProc("GetAsyncKeyState")
	procGetKeyState         = user32.NewProc("GetKeyState")
	procGetModuleHandleW    = kernel32.NewProc("GetModuleHandleW")
)

type kbdLLHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msLLHookStruct struct {
	X, Y        int32
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	X, Y    int32
}

// Callbacks created with windows.NewCallback are never freed, so they are
// created once and dispatch to whichever hook is active.
var (
	callbacksOnce sync.Once
	keyboardCB    uintptr
	mouseCB       uintptr
	active        struct {
		sync.RWMutex
		h *llHook
	}
)

// llHook installs WH_KEYBOARD_LL and WH_MOUSE_LL on a dedicated, locked OS
// thread running a message loop. Stop posts WM_QUIT to that thread.
type llHook struct {
	logger  *slog.Logger
	sink    Sink
	origin  image.Point
	buttons buttonState

	mu       sync.Mutex
	threadID uint32
	done     chan error
}

// NewHook returns the Windows low-level input hook.
func NewHook(logger *slog.Logger) Hook {
	if logger == nil {
		logger = slog.Default()
	}
	return &llHook{logger: logger}
}

func (h *llHook) Start(sink Sink, origin image.Point) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done != nil {
		return errors.New("input: hook already started")
	}
	callbacksOnce.Do(func() {
		keyboardCB = windows.NewCallback(keyboardProc)
		mouseCB = windows.NewCallback(mouseProc)
	})
	h.sink, h.origin = sink, origin

	ready := make(chan error, 1)
	done := make(chan error, 1)
	go h.run(ready, done)
	if err := <-ready; err != nil {
		return err
	}
	h.done = done
	return nil
}

func (h *llHook) run(ready, done chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	active.Lock()
	active.h = h
	active.Unlock()
	defer func() {
		active.Lock()
		if active.h == h {
			active.h = nil
		}
		active.Unlock()
	}()

	mod, _, _ := procGetModuleHandleW.Call(0)
	kb, _, e := procSetWindowsHookExW.Call(whKeyboardLL, keyboardCB, mod, 0)
	if kb == 0 {
		ready <- fmt.Errorf("input: SetWindowsHookEx keyboard winerr=%v", e)
		close(done)
		return
	}
	ms, _, e := procSetWindowsHookExW.Call(whMouseLL, mouseCB, mod, 0)
	if ms == 0 {
		procUnhookWindowsHookEx.Call(kb)
		ready <- fmt.Errorf("input: SetWindowsHookEx mouse winerr=%v", e)
		close(done)
		return
	}

	h.mu.Lock()
	h.threadID = windows.GetCurrentThreadId()
	h.mu.Unlock()
	h.logger.Info("input hooks installed", "thread", h.threadID)
	ready <- nil

	var m msg
	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(r) <= 0 { // WM_QUIT or error
			break
		}
	}

	var errs []error
	if r, _, e := procUnhookWindowsHookEx.Call(ms); r == 0 {
		errs = append(errs, fmt.Errorf("input: unhook mouse winerr=%v", e))
	}
	if r, _, e := procUnhookWindowsHookEx.Call(kb); r == 0 {
		errs = append(errs, fmt.Errorf("input: unhook keyboard winerr=%v", e))
	}
	h.logger.Info("input hooks removed")
	done <- errors.Join(errs...)
	close(done)
}

func (h *llHook) Stop() error {
	h.mu.Lock()
	done, tid := h.done, h.threadID
	h.done = nil
	h.mu.Unlock()
	if done == nil {
		return nil
	}
	if r, _, e := procPostThreadMessageW.Call(uintptr(tid), wmQuit, 0, 0); r == 0 {
		return fmt.Errorf("input: PostThreadMessage winerr=%v", e)
	}
	return <-done
}

func current() *llHook {
	active.RLock()
	defer active.RUnlock()
	return active.h
}

func keyboardProc(code int, wParam uintptr, lParam uintptr) uintptr {
	if h := current(); code >= 0 && h != nil && lParam != 0 {
		k := (*kbdLLHookStruct)(unsafe.Pointer(lParam))
		keyMessage(h.sink, uint32(wParam), k.VkCode, k.Flags&llkhfInjected != 0, readKeyState())
	}
	r, _, _ := procCallNextHookEx.Call(0, uintptr(code), wParam, lParam)
	return r
}

func mouseProc(code int, wParam uintptr, lParam uintptr) uintptr {
	if h := current(); code >= 0 && h != nil && lParam != 0 {
		m := (*msLLHookStruct)(unsafe.Pointer(lParam))
		h.buttons.mouseMessage(h.sink, h.origin, uint32(wParam), m.X, m.Y, m.MouseData)
	}
	r, _, _ := procCallNextHookEx.Call(0, uintptr(code), wParam, lParam)
	return r
}

func readKeyState() keyState {
	down := func(vk uintptr) bool {
		v, _, _ := procGetAsyncKeyState.Call(vk)
		return v&0x8000 != 0
	}
	caps, _, _ := procGetKeyState.Call(vkCapital)
	return keyState{
		alt:      down(vkMenu),
		control:  down(vkControl),
		shift:    down(vkShift),
		windows:  down(vkLWin) || down(vkRWin),
		capsLock: caps&1 != 0,
	}
}
