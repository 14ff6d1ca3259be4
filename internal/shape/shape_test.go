package shape

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/mj1618/wizard-pilot/internal/model"
)

var accent = color.RGBA{R: 0, G: 120, B: 215, A: 255}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func TestRGBToHSV(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    model.HSV
	}{
		{"red", 255, 0, 0, model.HSV{H: 0, S: 1, V: 1}},
		{"green", 0, 255, 0, model.HSV{H: 120, S: 1, V: 1}},
		{"blue", 0, 0, 255, model.HSV{H: 240, S: 1, V: 1}},
		{"magenta", 255, 0, 255, model.HSV{H: 300, S: 1, V: 1}},
		{"gray", 128, 128, 128, model.HSV{H: 0, S: 0, V: 128.0 / 255}},
		{"black", 0, 0, 0, model.HSV{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RGBToHSV(tt.r, tt.g, tt.b)
			if math.Abs(got.H-tt.want.H) > 0.5 || math.Abs(got.S-tt.want.S) > 0.01 || math.Abs(got.V-tt.want.V) > 0.01 {
				t.Errorf("RGBToHSV(%d,%d,%d) = %+v, want %+v", tt.r, tt.g, tt.b, got, tt.want)
			}
		})
	}
}

func TestAccentIsInDefaultSignature(t *testing.T) {
	hsv := RGBToHSV(accent.R, accent.G, accent.B)
	if !InRange(hsv, DefaultButtonSignature.Lower, DefaultButtonSignature.Upper) {
		t.Errorf("accent blue %+v not in default signature", hsv)
	}
}

func TestInRange_HueWrap(t *testing.T) {
	lo, hi := model.HSV{H: 350, S: 0.5, V: 0.5}, model.HSV{H: 10, S: 1, V: 1}
	if !InRange(model.HSV{H: 355, S: 0.8, V: 0.8}, lo, hi) {
		t.Error("355 should be in wrapped range")
	}
	if !InRange(model.HSV{H: 5, S: 0.8, V: 0.8}, lo, hi) {
		t.Error("5 should be in wrapped range")
	}
	if InRange(model.HSV{H: 180, S: 0.8, V: 0.8}, lo, hi) {
		t.Error("180 should be outside wrapped range")
	}
}

func TestDetect_PicksLargestButtonShape(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	fill(img, img.Bounds(), color.RGBA{R: 240, G: 240, B: 240, A: 255})
	fill(img, image.Rect(300, 250, 380, 275), accent) // 80x25 button
	fill(img, image.Rect(20, 20, 32, 28), accent)     // 12x8, below MinArea
	fill(img, image.Rect(100, 100, 120, 160), accent) // tall, fails aspect

	comps := Detect(img, DefaultButtonSignature)
	if len(comps) != 1 {
		t.Fatalf("got %d components, want 1: %+v", len(comps), comps)
	}
	c := comps[0]
	if c.Box != (model.Rect{Left: 300, Top: 250, Right: 380, Bottom: 275}) {
		t.Errorf("box = %v", c.Box)
	}
	if c.Area != 80*25 || c.Fill != 1 {
		t.Errorf("area = %d fill = %v", c.Area, c.Fill)
	}
	if c.Centroid != (model.Point{X: 339, Y: 262}) {
		t.Errorf("centroid = %+v", c.Centroid)
	}
	if c.Confidence() != 1 {
		t.Errorf("confidence = %v, want 1", c.Confidence())
	}
}

func TestDetect_OutlineHasLowConfidence(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	fill(img, image.Rect(100, 100, 180, 122), accent)
	fill(img, image.Rect(101, 101, 179, 121), color.RGBA{R: 240, G: 240, B: 240, A: 255})

	comps := Detect(img, DefaultButtonSignature)
	if len(comps) != 1 {
		t.Fatalf("got %d components, want 1", len(comps))
	}
	c := comps[0]
	if c.Area != 2*80+2*20 {
		t.Errorf("area = %d", c.Area)
	}
	if got, want := c.Confidence(), 200.0/(80*22); got != want {
		t.Errorf("confidence = %v, want %v", got, want)
	}
}

func TestDetect_NothingInRange(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	if comps := Detect(img, DefaultButtonSignature); len(comps) != 0 {
		t.Errorf("expected no components, got %d", len(comps))
	}
}

func TestLargest_ScreenCoordinates(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	fill(img, image.Rect(100, 50, 180, 75), accent)
	frame := &model.ScreenFrame{Pixels: img, Origin: model.Point{X: 1920, Y: 0}}

	c, ok := Largest(frame, DefaultButtonSignature)
	if !ok {
		t.Fatal("expected a component")
	}
	if c.Box.Left != 2020 || c.Box.Top != 50 {
		t.Errorf("box = %v, want origin-shifted", c.Box)
	}
	if !c.Box.Contains(c.Centroid) {
		t.Errorf("centroid %+v outside box %v", c.Centroid, c.Box)
	}
}
