package platform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mj1618/wizard-pilot/internal/model"
)

// MouseButton represents a mouse button.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// ParseMouseButton converts a string flag value to MouseButton.
func ParseMouseButton(s string) (MouseButton, error) {
	switch strings.ToLower(s) {
	case "left":
		return MouseLeft, nil
	case "right":
		return MouseRight, nil
	case "middle":
		return MouseMiddle, nil
	default:
		return MouseLeft, fmt.Errorf("unknown mouse button: %q (expected left, right, or middle)", s)
	}
}

func parseInts(s string, n int, what string) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("invalid %s %q: expected %d comma-separated integers", what, s, n)
	}
	vals := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", what, s, err)
		}
		vals[i] = v
	}
	return vals, nil
}

// ParseBBox parses a "x,y,w,h" string into a screen rectangle.
func ParseBBox(s string) (*model.Rect, error) {
	vals, err := parseInts(s, 4, "bbox")
	if err != nil {
		return nil, err
	}
	r := model.RectFromBounds(vals[0], vals[1], vals[2], vals[3])
	return &r, nil
}

// ParsePoint parses an "x,y" string.
func ParsePoint(s string) (model.Point, error) {
	vals, err := parseInts(s, 2, "point")
	if err != nil {
		return model.Point{}, err
	}
	return model.Point{X: vals[0], Y: vals[1]}, nil
}

// Modifiers are the key names treated as modifiers in a combo.
var Modifiers = map[string]bool{
	"shift": true, "ctrl": true, "control": true, "alt": true, "win": true, "super": true,
}

// ParseKeyCombo splits "alt+n" into ["alt", "n"], lowercasing every key.
// A combo must contain exactly one non-modifier key.
func ParseKeyCombo(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("empty key combo")
	}
	var keys []string
	main := 0
	for _, k := range strings.Split(s, "+") {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			return nil, fmt.Errorf("invalid key combo %q: empty key", s)
		}
		if !Modifiers[k] {
			main++
		}
		keys = append(keys, k)
	}
	if main != 1 {
		return nil, fmt.Errorf("invalid key combo %q: expected exactly one non-modifier key, got %d", s, main)
	}
	return keys, nil
}

// ComboString joins keys back into "alt+n" form.
func ComboString(keys []string) string {
	return strings.Join(keys, "+")
}
