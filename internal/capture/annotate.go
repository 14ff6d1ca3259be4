package capture

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mj1618/wizard-pilot/internal/model"
)

// Mark is one box to draw, in screen coordinates.
type Mark struct {
	Rect  model.Rect
	Label string
}

var (
	boxColor     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	textColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor = color.RGBA{R: 0, G: 0, B: 0, A: 200}
)

// MarkFor describes a located element for annotation.
func MarkFor(el *model.LocatedElement) Mark {
	r := el.Bounds
	if r.Empty() {
		r = model.Rect{Left: el.Point.X - 6, Top: el.Point.Y - 6, Right: el.Point.X + 6, Bottom: el.Point.Y + 6}
	}
	return Mark{Rect: r, Label: fmt.Sprintf("%s %.2f (%d,%d)", el.Strategy, el.Confidence, el.Point.X, el.Point.Y)}
}

// Annotate copies img and draws each mark's box with its label centred
// above it. origin is the screen position of img's top-left pixel.
func Annotate(img image.Image, origin model.Point, marks []Mark) *image.RGBA {
	rgba := ImageToRGBA(img)
	b := rgba.Bounds()
	for _, m := range marks {
		x1 := m.Rect.Left - origin.X + b.Min.X
		y1 := m.Rect.Top - origin.Y + b.Min.Y
		x2 := m.Rect.Right - origin.X + b.Min.X
		y2 := m.Rect.Bottom - origin.Y + b.Min.Y
		drawRectangle(rgba, x1, y1, x2, y2, boxColor)
		drawRectangle(rgba, x1-1, y1-1, x2+1, y2+1, boxColor)
		if m.Label != "" {
			drawTextWithOutline(rgba, m.Label, (x1+x2)/2, y1-4, textColor, outlineColor)
		}
	}
	return rgba
}

// ImageToRGBA converts any image to RGBA.
func ImageToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

func isWithinBounds(bounds image.Rectangle, x, y int) bool {
	return x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y
}

// drawRectangle draws a rectangle outline, clamped to the image.
func drawRectangle(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	bounds := img.Bounds()
	x1, y1 = max(x1, bounds.Min.X), max(y1, bounds.Min.Y)
	x2, y2 = min(x2, bounds.Max.X), min(y2, bounds.Max.Y)
	if x2 <= x1 || y2 <= y1 {
		return
	}

	for x := x1; x < x2; x++ {
		img.Set(x, y1, c)
		img.Set(x, y2-1, c)
	}
	for y := y1; y < y2; y++ {
		img.Set(x1, y, c)
		img.Set(x2-1, y, c)
	}
}

// drawTextWithOutline draws text centred on x with its baseline at y.
func drawTextWithOutline(img *image.RGBA, text string, x, y int, textColor, outlineColor color.Color) {
	// basicfont.Face7x13 glyphs are 7 pixels wide.
	offsetX := x - len(text)*7/2
	if y < 13 {
		y = 13
	}

	stamp := func(dx, dy int, c color.Color) {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(c),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(offsetX+dx, y+dy),
		}
		d.DrawString(text)
	}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx != 0 || dy != 0 {
				stamp(dx, dy, outlineColor)
			}
		}
	}
	stamp(0, 0, textColor)
}
