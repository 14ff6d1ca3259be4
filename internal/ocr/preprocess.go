package ocr

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// Preprocess converts img to grayscale, applies a linear contrast stretch
// (|alpha*v + beta| saturated to 0..255) and upscales by scale with
// Catmull-Rom resampling. The result starts at (0,0).
func Preprocess(img image.Image, alpha, beta float64, scale int) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			gray.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: stretch(g.Y, alpha, beta)})
		}
	}
	if scale <= 1 {
		return gray
	}
	out := image.NewGray(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.CatmullRom.Scale(out, out.Bounds(), gray, gray.Bounds(), draw.Src, nil)
	return out
}

func stretch(v uint8, alpha, beta float64) uint8 {
	f := math.Abs(alpha*float64(v) + beta)
	if f > 255 {
		return 255
	}
	return uint8(math.Round(f))
}
