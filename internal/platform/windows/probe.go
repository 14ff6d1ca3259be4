//go:build windows

package windows

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/gonutz/w32"
	"github.com/kbinani/screenshot"
	winapi "golang.org/x/sys/windows"

	"github.com/mj1618/wizard-pilot/internal/model"
)

// Probe captures the desktop and enumerates windows.
type Probe struct {
	seq atomic.Uint64
}

// NewProbe returns a Probe.
func NewProbe() *Probe {
	return &Probe{}
}

// CaptureFrame grabs the union of all active displays.
func (p *Probe) CaptureFrame(ctx context.Context) (*model.ScreenFrame, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays")
	}
	var all image.Rectangle
	for i := 0; i < n; i++ {
		all = all.Union(screenshot.GetDisplayBounds(i))
	}
	img, err := screenshot.CaptureRect(all)
	if err != nil {
		return nil, fmt.Errorf("capturing screen: %w", err)
	}
	return &model.ScreenFrame{
		Seq:        p.seq.Add(1),
		Pixels:     img,
		Origin:     model.Point{X: all.Min.X, Y: all.Min.Y},
		CapturedAt: time.Now(),
	}, nil
}

// Enumeration callbacks are created once; windows caps the number of
// callbacks a process may create.
var (
	enumMu       sync.Mutex
	enumWindows  []model.Window
	enumControls []model.Control
	enumParent   model.Handle

	enumWindowsCB = winapi.NewCallback(func(hwnd winapi.HWND, _ uintptr) uintptr {
		var pid uint32
		winapi.GetWindowThreadProcessId(hwnd, &pid)
		enumWindows = append(enumWindows, model.Window{
			Handle:  model.Handle(hwnd),
			Title:   windowText(hwnd),
			Class:   className(hwnd),
			PID:     int(pid),
			Rect:    windowRect(model.Handle(hwnd)),
			Visible: winapi.IsWindowVisible(hwnd),
		})
		return 1
	})

	enumChildCB = winapi.NewCallback(func(hwnd winapi.HWND, _ uintptr) uintptr {
		h := model.Handle(hwnd)
		class := className(hwnd)
		enumControls = append(enumControls, model.Control{
			Handle:  h,
			Parent:  enumParent,
			Class:   class,
			Role:    model.MapRole(class),
			Text:    messageText(h),
			Rect:    windowRect(h),
			Visible: winapi.IsWindowVisible(hwnd),
			Enabled: w32.IsWindowEnabled(w32.HWND(hwnd)),
		})
		return 1
	})
)

// ListWindows returns top-level windows in z-order.
func (p *Probe) ListWindows(ctx context.Context) ([]model.Window, error) {
	enumMu.Lock()
	defer enumMu.Unlock()
	enumWindows = nil
	if err := winapi.EnumWindows(enumWindowsCB, nil); err != nil {
		return nil, fmt.Errorf("enumerating windows: %w", err)
	}
	out := enumWindows
	enumWindows = nil
	return out, nil
}

// ListControls returns every descendant of parent, text read with
// WM_GETTEXT so edit contents of other processes are visible.
func (p *Probe) ListControls(ctx context.Context, parent model.Handle) ([]model.Control, error) {
	enumMu.Lock()
	defer enumMu.Unlock()
	enumControls, enumParent = nil, parent
	winapi.EnumChildWindows(winapi.HWND(parent), enumChildCB, unsafe.Pointer(nil))
	out := enumControls
	enumControls = nil
	return out, ctx.Err()
}

func className(hwnd winapi.HWND) string {
	buf := make([]uint16, 256)
	n, err := winapi.GetClassName(hwnd, &buf[0], int32(len(buf)))
	if err != nil {
		return ""
	}
	return winapi.UTF16ToString(buf[:n])
}

func windowText(hwnd winapi.HWND) string {
	return w32.GetWindowText(w32.HWND(hwnd))
}

func messageText(h model.Handle) string {
	hwnd := w32.HWND(h)
	n := w32.SendMessage(hwnd, wmGetTextLength, 0, 0)
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	got := w32.SendMessage(hwnd, wmGetText, uintptr(len(buf)), uintptr(unsafe.Pointer(&buf[0])))
	return winapi.UTF16ToString(buf[:got])
}

func windowRect(h model.Handle) model.Rect {
	r := w32.GetWindowRect(w32.HWND(h))
	if r == nil {
		return model.Rect{}
	}
	return model.Rect{Left: int(r.Left), Top: int(r.Top), Right: int(r.Right), Bottom: int(r.Bottom)}
}
