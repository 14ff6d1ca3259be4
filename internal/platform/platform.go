package platform

import (
	"context"

	"github.com/mj1618/wizard-pilot/internal/model"
)

// ScreenProbe reads the current screen and window state. All methods are
// side-effect free.
type ScreenProbe interface {
	// CaptureFrame grabs the full virtual desktop.
	CaptureFrame(ctx context.Context) (*model.ScreenFrame, error)

	// ListWindows returns the top-level windows in z-order.
	ListWindows(ctx context.Context) ([]model.Window, error)

	// ListControls returns every descendant control of parent.
	ListControls(ctx context.Context, parent model.Handle) ([]model.Control, error)
}

// Inputter simulates mouse and keyboard input at the OS level.
type Inputter interface {
	Click(x, y int, button MouseButton, count int) error
	MoveMouse(x, y int) error
	TypeText(text string, delayMs int) error
	KeyCombo(keys []string) error
}

// ControlMessenger talks to native controls through window messages,
// without moving the pointer.
type ControlMessenger interface {
	// PostClick posts the control's activate message (BM_CLICK).
	PostClick(h model.Handle) error
	SetText(h model.Handle, text string) error
	GetText(h model.Handle) (string, error)
	// SendKey delivers a single key press (down then up) to the control.
	SendKey(h model.Handle, key string) error
	// Focus brings the control's top-level window to the foreground.
	Focus(h model.Handle) error
}

// Launcher starts the installer process.
type Launcher interface {
	// Launch starts path without waiting for it and returns the PID.
	Launch(ctx context.Context, path string) (int, error)
}

// ProcessLister enumerates running processes for post-install checks.
type ProcessLister interface {
	Processes(ctx context.Context) ([]model.Process, error)
	FileInfo(path string) (model.FileInfo, error)
}

// Elevation reports whether the current process runs with admin rights.
type Elevation interface {
	IsElevated() bool
}
