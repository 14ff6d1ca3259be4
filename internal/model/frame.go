package model

import (
	"image"
	"time"
)

// ScreenFrame is an immutable capture of the screen. Coordinates derived
// from a frame are only valid against that frame; Seq lets callers tell
// frames apart without comparing pixels.
type ScreenFrame struct {
	Seq        uint64
	Pixels     *image.RGBA
	Origin     Point
	CapturedAt time.Time
}

// Bounds returns the screen-absolute rectangle the frame covers.
func (f *ScreenFrame) Bounds() Rect {
	if f == nil || f.Pixels == nil {
		return Rect{}
	}
	b := f.Pixels.Bounds()
	return RectFromBounds(f.Origin.X, f.Origin.Y, b.Dx(), b.Dy())
}

// ToScreen converts a pixel position within the frame to screen coordinates.
func (f *ScreenFrame) ToScreen(x, y int) Point {
	b := f.Pixels.Bounds()
	return Point{X: f.Origin.X + x - b.Min.X, Y: f.Origin.Y + y - b.Min.Y}
}
