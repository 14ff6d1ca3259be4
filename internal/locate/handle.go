package locate

import (
	"context"

	"github.com/mj1618/wizard-pilot/internal/model"
	"github.com/mj1618/wizard-pilot/internal/textmatch"
)

// HandleStrategy matches native controls of the bound installer window by
// class and caption.
type HandleStrategy struct {
	Min float64
}

func (s *HandleStrategy) Name() string           { return StrategyHandle }
func (s *HandleStrategy) MinConfidence() float64 { return s.Min }

func (s *HandleStrategy) TryLocate(ctx context.Context, scene *Scene, q model.ElementQuery) (*model.LocatedElement, error) {
	if len(q.Texts) == 0 {
		return nil, notFound(q, StrategyHandle)
	}
	controls, err := scene.Controls(ctx)
	if err != nil {
		return nil, err
	}
	c, score := MatchControl(controls, q)
	if c == nil {
		return nil, notFound(q, StrategyHandle)
	}
	return &model.LocatedElement{
		Kind:       model.TargetHandle,
		Point:      c.Rect.Center(),
		Control:    c,
		Bounds:     c.Rect,
		Strategy:   StrategyHandle,
		Confidence: score,
		Text:       c.Text,
	}, nil
}

// MatchControl returns the visible, enabled control best matching q and its
// score. Earlier controls win ties.
func MatchControl(controls []model.Control, q model.ElementQuery) (*model.Control, float64) {
	var best *model.Control
	bestScore := 0.0
	for i := range controls {
		c := &controls[i]
		if !c.Visible || !c.Enabled || c.Text == "" {
			continue
		}
		if len(q.Classes) > 0 {
			if !model.ClassMatches(c.Class, q.Classes) {
				continue
			}
		} else if q.Role != "" && c.Role != q.Role {
			continue
		}
		if textmatch.ContainsAny(c.Text, q.Exclude) {
			continue
		}
		if score, _ := textmatch.Best(c.Text, q.Texts); score > bestScore {
			best, bestScore = c, score
		}
	}
	if best == nil {
		return nil, 0
	}
	found := *best
	return &found, bestScore
}

// InputControls returns the visible, enabled text-entry controls ordered
// top-to-bottom then left-to-right.
func InputControls(controls []model.Control) []model.Control {
	var inputs []model.Control
	for _, c := range controls {
		if c.Visible && c.Enabled && model.IsInputClass(c.Class) {
			inputs = append(inputs, c)
		}
	}
	model.SortByPosition(inputs, rowTolerance)
	return inputs
}

// rowTolerance is how far apart two control tops may be while still being
// treated as the same row.
const rowTolerance = 5

// nearMaxRadius is the maximum edge-to-edge pixel gap between a label and
// the input it describes.
const nearMaxRadius = 200

// NearestInput finds the input control closest to a label: first to its
// right, then below it, then in any direction within nearMaxRadius.
func NearestInput(controls []model.Control, label model.Rect) *model.Control {
	inputs := InputControls(controls)
	maxDistSq := int64(nearMaxRadius) * int64(nearMaxRadius)

	findBest := func(dirFilter func(r model.Rect) bool) *model.Control {
		var best *model.Control
		bestDist := int64(1<<62 - 1)
		for i := range inputs {
			r := inputs[i].Rect
			dx := int64(max(0, r.Left-label.Right, label.Left-r.Right))
			dy := int64(max(0, r.Top-label.Bottom, label.Top-r.Bottom))
			dist := dx*dx + dy*dy
			if dist > maxDistSq || !dirFilter(r) {
				continue
			}
			if dist < bestDist {
				bestDist = dist
				best = &inputs[i]
			}
		}
		return best
	}

	if best := findBest(func(r model.Rect) bool {
		c := r.Center()
		return r.Left >= label.Right && c.Y >= label.Top-rowTolerance && c.Y < label.Bottom+rowTolerance
	}); best != nil {
		return best
	}
	if best := findBest(func(r model.Rect) bool { return r.Top >= label.Bottom }); best != nil {
		return best
	}
	return findBest(func(model.Rect) bool { return true })
}

// LabelOffset is where an input is assumed to sit relative to its label's
// center when no native input control can be found.
var LabelOffset = model.Point{X: 0, Y: 25}
