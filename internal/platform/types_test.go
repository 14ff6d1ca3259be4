package platform

import (
	"testing"

	"github.com/mj1618/wizard-pilot/internal/model"
)

func TestParseBBox_Valid(t *testing.T) {
	b, err := ParseBBox("10,20,300,400")
	if err != nil {
		t.Fatal(err)
	}
	want := model.Rect{Left: 10, Top: 20, Right: 310, Bottom: 420}
	if *b != want {
		t.Errorf("got %v, want %v", *b, want)
	}
}

func TestParseBBox_WithSpaces(t *testing.T) {
	b, err := ParseBBox("10, 20, 300, 400")
	if err != nil {
		t.Fatal(err)
	}
	if b.Left != 10 || b.Top != 20 || b.Width() != 300 || b.Height() != 400 {
		t.Errorf("got %v, want 300x400 at (10,20)", *b)
	}
}

func TestParseBBox_Invalid(t *testing.T) {
	tests := []string{
		"",
		"10,20,300",
		"10,20,300,400,500",
		"a,b,c,d",
		"10,20,abc,400",
	}
	for _, s := range tests {
		_, err := ParseBBox(s)
		if err == nil {
			t.Errorf("ParseBBox(%q) should fail", s)
		}
	}
}

func TestParsePoint(t *testing.T) {
	p, err := ParsePoint("640, 480")
	if err != nil {
		t.Fatal(err)
	}
	if p != (model.Point{X: 640, Y: 480}) {
		t.Errorf("got %+v", p)
	}
	for _, s := range []string{"", "1", "1,2,3", "x,2"} {
		if _, err := ParsePoint(s); err == nil {
			t.Errorf("ParsePoint(%q) should fail", s)
		}
	}
}

func TestParseMouseButton_Valid(t *testing.T) {
	tests := []struct {
		input string
		want  MouseButton
	}{
		{"left", MouseLeft},
		{"Left", MouseLeft},
		{"LEFT", MouseLeft},
		{"right", MouseRight},
		{"Right", MouseRight},
		{"middle", MouseMiddle},
		{"Middle", MouseMiddle},
	}
	for _, tt := range tests {
		got, err := ParseMouseButton(tt.input)
		if err != nil {
			t.Errorf("ParseMouseButton(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseMouseButton(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestParseMouseButton_Invalid(t *testing.T) {
	_, err := ParseMouseButton("invalid")
	if err == nil {
		t.Error("ParseMouseButton(\"invalid\") should fail")
	}
}

func TestParseKeyCombo(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"alt+n", "alt+n"},
		{"Alt + N", "alt+n"},
		{"ctrl+a", "ctrl+a"},
		{"win+d", "win+d"},
		{"tab", "tab"},
		{"shift+ctrl+f4", "shift+ctrl+f4"},
	}
	for _, tt := range tests {
		keys, err := ParseKeyCombo(tt.input)
		if err != nil {
			t.Errorf("ParseKeyCombo(%q): %v", tt.input, err)
			continue
		}
		if got := ComboString(keys); got != tt.want {
			t.Errorf("ParseKeyCombo(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseKeyCombo_Invalid(t *testing.T) {
	for _, s := range []string{"", "alt", "alt+", "a+b", "ctrl+shift"} {
		if _, err := ParseKeyCombo(s); err == nil {
			t.Errorf("ParseKeyCombo(%q) should fail", s)
		}
	}
}
