//go:build windows

package windows

import (
	"fmt"
	"time"

	"github.com/mj1618/wizard-pilot/internal/platform"
)

// Inputter synthesizes pointer and keyboard events.
type Inputter struct{}

// NewInputter returns an Inputter.
func NewInputter() *Inputter {
	return &Inputter{}
}

func (in *Inputter) MoveMouse(x, y int) error {
	if r, _, err := procSetCursorPos.Call(uintptr(x), uintptr(y)); r == 0 {
		return fmt.Errorf("SetCursorPos(%d,%d): %w", x, y, err)
	}
	return nil
}

func (in *Inputter) Click(x, y int, button platform.MouseButton, count int) error {
	if err := in.MoveMouse(x, y); err != nil {
		return err
	}
	down, up := uintptr(mouseLeftDown), uintptr(mouseLeftUp)
	switch button {
	case platform.MouseRight:
		down, up = mouseRightDown, mouseRightUp
	case platform.MouseMiddle:
		down, up = mouseMiddleDown, mouseMiddleUp
	}
	for i := 0; i < max(count, 1); i++ {
		procMouseEvent.Call(down, 0, 0, 0, 0)
		procMouseEvent.Call(up, 0, 0, 0, 0)
		time.Sleep(30 * time.Millisecond)
	}
	return nil
}

// TypeText types printable ASCII through the active keyboard layout.
func (in *Inputter) TypeText(text string, delayMs int) error {
	for _, r := range text {
		if r < 0x20 || r > 0x7E {
			return fmt.Errorf("cannot type %q: only printable ASCII is supported", r)
		}
		res, _, _ := procVkKeyScanW.Call(uintptr(r))
		if int16(res) == -1 {
			return fmt.Errorf("no key for %q in the current layout", r)
		}
		vk := uint16(res & 0xFF)
		shift := res&0x100 != 0
		if shift {
			keyEvent(0x10, false)
		}
		keyEvent(vk, false)
		keyEvent(vk, true)
		if shift {
			keyEvent(0x10, true)
		}
		if delayMs > 0 {
			time.Sleep(time.Duration(delayMs) * time.Millisecond)
		}
	}
	return nil
}

// KeyCombo presses keys in order and releases them in reverse.
func (in *Inputter) KeyCombo(keys []string) error {
	vks, err := VirtualKeys(keys)
	if err != nil {
		return err
	}
	for _, vk := range vks {
		keyEvent(vk, false)
	}
	for i := len(vks) - 1; i >= 0; i-- {
		keyEvent(vks[i], true)
	}
	return nil
}
