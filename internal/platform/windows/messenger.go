//go:build windows

package windows

import (
	"fmt"
	"unsafe"

	"github.com/gonutz/w32"
	winapi "golang.org/x/sys/windows"

	"github.com/mj1618/wizard-pilot/internal/model"
)

// Messenger drives controls with window messages.
type Messenger struct{}

// NewMessenger returns a Messenger.
func NewMessenger() *Messenger {
	return &Messenger{}
}

func (m *Messenger) PostClick(h model.Handle) error {
	if !w32.PostMessage(w32.HWND(h), bmClick, 0, 0) {
		return fmt.Errorf("BM_CLICK to %s: %w", h, winapi.GetLastError())
	}
	return nil
}

func (m *Messenger) SetText(h model.Handle, text string) error {
	p, err := winapi.UTF16PtrFromString(text)
	if err != nil {
		return err
	}
	if w32.SendMessage(w32.HWND(h), wmSetText, 0, uintptr(unsafe.Pointer(p))) == 0 {
		return fmt.Errorf("WM_SETTEXT to %s refused", h)
	}
	return nil
}

func (m *Messenger) GetText(h model.Handle) (string, error) {
	return messageText(h), nil
}

func (m *Messenger) SendKey(h model.Handle, key string) error {
	vk, err := VirtualKey(key)
	if err != nil {
		return err
	}
	hwnd := w32.HWND(h)
	if !w32.PostMessage(hwnd, wmKeyDown, uintptr(vk), 1) {
		return fmt.Errorf("WM_KEYDOWN to %s: %w", h, winapi.GetLastError())
	}
	if !w32.PostMessage(hwnd, wmKeyUp, uintptr(vk), 1|3<<30) {
		return fmt.Errorf("WM_KEYUP to %s: %w", h, winapi.GetLastError())
	}
	return nil
}

func (m *Messenger) Focus(h model.Handle) error {
	root, _, _ := procGetAncestor.Call(uintptr(h), gaRoot)
	if root == 0 {
		root = uintptr(h)
	}
	if !w32.SetForegroundWindow(w32.HWND(root)) {
		return fmt.Errorf("could not bring %s to the foreground", model.Handle(root))
	}
	return nil
}
