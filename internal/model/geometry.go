package model

import "fmt"

// Handle is an opaque native window handle. The engine only ever holds a
// weak reference: it never creates or destroys the window behind it.
type Handle uintptr

// String formats the handle the way Win32 tooling prints HWNDs.
func (h Handle) String() string {
	return fmt.Sprintf("0x%X", uintptr(h))
}

// Point is a screen-absolute pixel coordinate.
type Point struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

// Rect is a screen-absolute rectangle with exclusive Right/Bottom edges,
// matching the Win32 RECT convention.
type Rect struct {
	Left   int `yaml:"l" json:"l"`
	Top    int `yaml:"t" json:"t"`
	Right  int `yaml:"r" json:"r"`
	Bottom int `yaml:"b" json:"b"`
}

// RectFromBounds builds a Rect from an origin and a size.
func RectFromBounds(x, y, w, h int) Rect {
	return Rect{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

func (r Rect) Width() int  { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

// Center returns the midpoint, rounding toward the top-left.
func (r Rect) Center() Point {
	return Point{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Top && p.Y < r.Bottom
}

// Intersects reports whether the two rectangles overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.Left < o.Right && r.Right > o.Left && r.Top < o.Bottom && r.Bottom > o.Top
}

// Union returns the smallest rectangle containing both r and o.
// An empty operand is ignored.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return Rect{
		Left:   min(r.Left, o.Left),
		Top:    min(r.Top, o.Top),
		Right:  max(r.Right, o.Right),
		Bottom: max(r.Bottom, o.Bottom),
	}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.Left, r.Top, r.Right, r.Bottom)
}
