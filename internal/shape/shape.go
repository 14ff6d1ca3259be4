// Package shape locates solid-coloured UI primitives, such as a wizard's
// default push button, by HSV thresholding and connected-component analysis.
package shape

import (
	"image"
	"math"
	"sort"

	"github.com/mj1618/wizard-pilot/internal/model"
)

// DefaultButtonSignature matches the accent-blue fill Windows uses for the
// default push button.
var DefaultButtonSignature = model.ShapeSignature{
	Lower:     model.HSV{H: 195, S: 0.6, V: 0.5},
	Upper:     model.HSV{H: 215, S: 1, V: 1},
	MinArea:   150,
	MinAspect: 1.5,
	MaxAspect: 8,
}

// Component is one 4-connected region of in-range pixels.
type Component struct {
	Box      model.Rect  // in image coordinates
	Area     int         // pixel count
	Centroid model.Point // mean pixel position, in image coordinates
	Fill     float64     // Area / box area
}

// Confidence is the fill ratio clamped to [0, 1]: a solid rectangle
// scores 1, an outline or sparse blob scores near 0.
func (c Component) Confidence() float64 {
	return math.Min(1, math.Max(0, c.Fill))
}

// RGBToHSV converts 8-bit RGB to HSV with H in degrees.
func RGBToHSV(r, g, b uint8) model.HSV {
	rf, gf, bf := float64(r)/255, float64(g)/255, float64(b)/255
	mx := math.Max(rf, math.Max(gf, bf))
	mn := math.Min(rf, math.Min(gf, bf))
	d := mx - mn

	var h float64
	switch {
	case d == 0:
		h = 0
	case mx == rf:
		h = 60 * math.Mod((gf-bf)/d, 6)
	case mx == gf:
		h = 60 * ((bf-rf)/d + 2)
	default:
		h = 60 * ((rf-gf)/d + 4)
	}
	if h < 0 {
		h += 360
	}
	s := 0.0
	if mx > 0 {
		s = d / mx
	}
	return model.HSV{H: h, S: s, V: mx}
}

// InRange reports whether c lies within [lo, hi]. A hue range with
// lo.H > hi.H wraps through 0.
func InRange(c, lo, hi model.HSV) bool {
	if c.S < lo.S || c.S > hi.S || c.V < lo.V || c.V > hi.V {
		return false
	}
	if lo.H <= hi.H {
		return c.H >= lo.H && c.H <= hi.H
	}
	return c.H >= lo.H || c.H <= hi.H
}

// Detect returns the components of img matching sig that pass the area and
// aspect filters, largest first.
func Detect(img *image.RGBA, sig model.ShapeSignature) []Component {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	mask := make([]bool, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+3]
			mask[y*w+x] = InRange(RGBToHSV(p[0], p[1], p[2]), sig.Lower, sig.Upper)
		}
	}

	seen := make([]bool, w*h)
	var comps []Component
	queue := make([]int, 0, 256)
	for start := range mask {
		if !mask[start] || seen[start] {
			continue
		}
		seen[start] = true
		queue = append(queue[:0], start)
		minX, minY, maxX, maxY := w, h, -1, -1
		sumX, sumY, area := 0, 0, 0
		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := i%w, i/w
			area++
			sumX += x
			sumY += y
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
			for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
				nx, ny := n[0], n[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if mask[j] && !seen[j] {
					seen[j] = true
					queue = append(queue, j)
				}
			}
		}

		if area < sig.MinArea {
			continue
		}
		box := model.Rect{Left: minX + b.Min.X, Top: minY + b.Min.Y, Right: maxX + 1 + b.Min.X, Bottom: maxY + 1 + b.Min.Y}
		aspect := float64(box.Width()) / float64(box.Height())
		if sig.MinAspect > 0 && aspect < sig.MinAspect {
			continue
		}
		if sig.MaxAspect > 0 && aspect > sig.MaxAspect {
			continue
		}
		comps = append(comps, Component{
			Box:      box,
			Area:     area,
			Centroid: model.Point{X: sumX/area + b.Min.X, Y: sumY/area + b.Min.Y},
			Fill:     float64(area) / float64(box.Width()*box.Height()),
		})
	}

	sort.SliceStable(comps, func(i, j int) bool { return comps[i].Area > comps[j].Area })
	return comps
}

// Largest returns the biggest matching component of the frame, with its box
// and centroid converted to screen coordinates.
func Largest(frame *model.ScreenFrame, sig model.ShapeSignature) (Component, bool) {
	if frame == nil || frame.Pixels == nil {
		return Component{}, false
	}
	comps := Detect(frame.Pixels, sig)
	if len(comps) == 0 {
		return Component{}, false
	}
	c := comps[0]
	tl := frame.ToScreen(c.Box.Left, c.Box.Top)
	c.Box = model.RectFromBounds(tl.X, tl.Y, c.Box.Width(), c.Box.Height())
	c.Centroid = frame.ToScreen(c.Centroid.X, c.Centroid.Y)
	return c, true
}
