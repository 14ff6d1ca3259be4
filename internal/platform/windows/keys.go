package windows

import (
	"fmt"
	"strings"
)

// Virtual-key codes of the named keys accepted in combos.
var namedKeys = map[string]uint16{
	"backspace": 0x08,
	"tab":       0x09,
	"enter":     0x0D,
	"return":    0x0D,
	"shift":     0x10,
	"ctrl":      0x11,
	"control":   0x11,
	"alt":       0x12,
	"pause":     0x13,
	"esc":       0x1B,
	"escape":    0x1B,
	"space":     0x20,
	"pageup":    0x21,
	"pagedown":  0x22,
	"end":       0x23,
	"home":      0x24,
	"left":      0x25,
	"up":        0x26,
	"right":     0x27,
	"down":      0x28,
	"insert":    0x2D,
	"delete":    0x2E,
	"win":       0x5B,
	"super":     0x5B,
}

// VirtualKey maps a key name ("alt", "n", "f5", "enter") to its
// virtual-key code.
func VirtualKey(name string) (uint16, error) {
	k := strings.ToLower(name)
	if vk, ok := namedKeys[k]; ok {
		return vk, nil
	}
	if len(k) == 1 {
		c := k[0]
		switch {
		case c >= 'a' && c <= 'z':
			return uint16(c - 'a' + 'A'), nil
		case c >= '0' && c <= '9':
			return uint16(c), nil
		}
	}
	var n int
	if _, err := fmt.Sscanf(k, "f%d", &n); err == nil && n >= 1 && n <= 24 && k == fmt.Sprintf("f%d", n) {
		return uint16(0x70 + n - 1), nil
	}
	return 0, fmt.Errorf("unknown key %q", name)
}

// VirtualKeys maps every key of a combo.
func VirtualKeys(keys []string) ([]uint16, error) {
	out := make([]uint16, len(keys))
	for i, k := range keys {
		vk, err := VirtualKey(k)
		if err != nil {
			return nil, err
		}
		out[i] = vk
	}
	return out, nil
}

// IsExtended reports whether vk needs KEYEVENTF_EXTENDEDKEY.
func IsExtended(vk uint16) bool {
	switch vk {
	case 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27, 0x28, 0x2D, 0x2E, 0x5B:
		return true
	}
	return false
}
