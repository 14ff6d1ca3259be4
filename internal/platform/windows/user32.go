//go:build windows

package windows

import (
	winapi "golang.org/x/sys/windows"
)

var (
	user32 = winapi.NewLazySystemDLL("user32.dll")

	procSetCursorPos       = user32.NewProc("SetCursorPos")
	procMouseEvent         = user32.NewProc("mouse_event")
	procKeybdEvent         = user32.NewProc("keybd_event")
	procVkKeyScanW         = user32.NewProc("VkKeyScanW")
	procGetAncestor        = user32.NewProc("GetAncestor")
	procSetProcessDPIAware = user32.NewProc("SetProcessDPIAware")
)

// Window messages and flags used by the backends.
const (
	wmSetText       = 0x000C
	wmGetText       = 0x000D
	wmGetTextLength = 0x000E
	wmKeyDown       = 0x0100
	wmKeyUp         = 0x0101
	bmClick         = 0x00F5

	gaRoot = 2

	keyEventExtended = 0x0001
	keyEventKeyUp    = 0x0002

	mouseLeftDown   = 0x0002
	mouseLeftUp     = 0x0004
	mouseRightDown  = 0x0008
	mouseRightUp    = 0x0010
	mouseMiddleDown = 0x0020
	mouseMiddleUp   = 0x0040
)

// setDPIAware makes window rects and capture pixels agree on scaled
// displays. Errors are ignored; older systems simply stay unaware.
func setDPIAware() {
	if procSetProcessDPIAware.Find() == nil {
		procSetProcessDPIAware.Call()
	}
}

func keyEvent(vk uint16, up bool) {
	var flags uintptr
	if IsExtended(vk) {
		flags |= keyEventExtended
	}
	if up {
		flags |= keyEventKeyUp
	}
	procKeybdEvent.Call(uintptr(vk), 0, flags, 0)
}
