// Package ocr finds text on captured screen frames.
package ocr

import (
	"context"
	"fmt"
	"image"

	"github.com/mj1618/wizard-pilot/internal/model"
)

// Word is one recognised word with its box in image coordinates (or screen
// coordinates once returned by Locator.Read).
type Word struct {
	Text       string
	Box        model.Rect
	Confidence float64 // 0..1
	Block      int
	Par        int
	Line       int
}

// Engine recognises words in an image.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) ([]Word, error)
}

// Locator runs an Engine over screen frames.
type Locator struct {
	Engine Engine
	// Scale is the upscale factor applied during preprocessing. Values
	// below 1 are treated as 1.
	Scale int
	// Alpha and Beta are the contrast gain and brightness offset.
	Alpha float64
	Beta  float64
}

// NewLocator returns a Locator with the default preprocessing settings.
func NewLocator(e Engine) *Locator {
	return &Locator{Engine: e, Scale: 2, Alpha: 1.5, Beta: 30}
}

// Read preprocesses frame, recognises it and returns words with boxes in
// screen coordinates.
func (l *Locator) Read(ctx context.Context, frame *model.ScreenFrame) ([]Word, error) {
	if frame == nil || frame.Pixels == nil {
		return nil, fmt.Errorf("ocr: empty frame")
	}
	scale := l.Scale
	if scale < 1 {
		scale = 1
	}
	img := Preprocess(frame.Pixels, l.Alpha, l.Beta, scale)
	words, err := l.Engine.Recognize(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}
	for i := range words {
		words[i].Box = toScreen(words[i].Box, frame, scale)
	}
	return words, nil
}

func toScreen(r model.Rect, frame *model.ScreenFrame, scale int) model.Rect {
	o := frame.Origin
	return model.Rect{
		Left:   o.X + r.Left/scale,
		Top:    o.Y + r.Top/scale,
		Right:  o.X + ceilDiv(r.Right, scale),
		Bottom: o.Y + ceilDiv(r.Bottom, scale),
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
