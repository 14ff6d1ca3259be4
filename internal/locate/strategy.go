// Package locate resolves declarative element queries to actionable targets
// by running an ordered chain of independent strategies.
package locate

import (
	"context"
	"strings"

	"github.com/mj1618/wizard-pilot/internal/model"
	"github.com/mj1618/wizard-pilot/internal/ocr"
	"github.com/mj1618/wizard-pilot/internal/shape"
	"github.com/mj1618/wizard-pilot/internal/textmatch"
)

// Strategy names, in default priority order.
const (
	StrategyHandle      = "handle"
	StrategyOCR         = "ocr"
	StrategyShape       = "shape"
	StrategyCoordinates = "coordinates"
	StrategyShortcut    = "shortcut"
	StrategyDryRun      = "dry-run"
)

// Strategy is one detection method. TryLocate returns an error wrapping
// model.ErrNotFound when nothing matched, or any other error when the
// underlying platform call failed.
type Strategy interface {
	Name() string
	MinConfidence() float64
	TryLocate(ctx context.Context, scene *Scene, q model.ElementQuery) (*model.LocatedElement, error)
}

// Thresholds are the per-strategy minimum confidences.
type Thresholds struct {
	Handle float64
	OCR    float64
	Shape  float64
}

// DefaultThresholds are the confidences below which a strategy's best
// candidate is discarded.
var DefaultThresholds = Thresholds{Handle: 0.85, OCR: 0.8, Shape: 0.5}

// DefaultStrategies returns the full chain in priority order.
func DefaultStrategies(t Thresholds) []Strategy {
	return []Strategy{
		&HandleStrategy{Min: t.Handle},
		&OCRStrategy{Min: t.OCR},
		&ShapeStrategy{Min: t.Shape},
		CoordinatesStrategy{},
		ShortcutStrategy{},
	}
}

func notFound(q model.ElementQuery, strategy string) error {
	return &model.NotFoundError{Query: q.String(), Tried: []string{strategy}}
}

// OCRStrategy searches recognised text on a fresh frame.
type OCRStrategy struct {
	Min float64
}

func (s *OCRStrategy) Name() string           { return StrategyOCR }
func (s *OCRStrategy) MinConfidence() float64 { return s.Min }

func (s *OCRStrategy) TryLocate(ctx context.Context, scene *Scene, q model.ElementQuery) (*model.LocatedElement, error) {
	if len(q.Texts) == 0 {
		return nil, notFound(q, StrategyOCR)
	}
	frame, err := scene.Frame(ctx)
	if err != nil {
		return nil, err
	}
	words, err := scene.Words(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range ocr.FindText(words, q.Texts) {
		if textmatch.ContainsAny(m.LineText, q.Exclude) {
			continue
		}
		return &model.LocatedElement{
			Kind:       model.TargetPoint,
			Point:      m.Box.Center(),
			Bounds:     m.Box,
			Strategy:   StrategyOCR,
			Confidence: m.Confidence,
			Text:       m.Text,
			FrameSeq:   frame.Seq,
		}, nil
	}
	return nil, notFound(q, StrategyOCR)
}

// ShapeStrategy looks for the query's colour signature.
type ShapeStrategy struct {
	Min float64
}

func (s *ShapeStrategy) Name() string           { return StrategyShape }
func (s *ShapeStrategy) MinConfidence() float64 { return s.Min }

func (s *ShapeStrategy) TryLocate(ctx context.Context, scene *Scene, q model.ElementQuery) (*model.LocatedElement, error) {
	if q.Shape == nil {
		return nil, notFound(q, StrategyShape)
	}
	frame, err := scene.Frame(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := shape.Largest(frame, *q.Shape)
	if !ok {
		return nil, notFound(q, StrategyShape)
	}
	return &model.LocatedElement{
		Kind:       model.TargetPoint,
		Point:      c.Centroid,
		Bounds:     c.Box,
		Strategy:   StrategyShape,
		Confidence: c.Confidence(),
		FrameSeq:   frame.Seq,
	}, nil
}

// CoordinatesStrategy returns the first literal fallback point that lies
// on the current frame.
type CoordinatesStrategy struct{}

// CoordinatesConfidence is the fixed confidence of a literal fallback.
const CoordinatesConfidence = 0.5

func (CoordinatesStrategy) Name() string           { return StrategyCoordinates }
func (CoordinatesStrategy) MinConfidence() float64 { return CoordinatesConfidence }

func (CoordinatesStrategy) TryLocate(ctx context.Context, scene *Scene, q model.ElementQuery) (*model.LocatedElement, error) {
	if len(q.Fallback) == 0 {
		return nil, notFound(q, StrategyCoordinates)
	}
	frame, err := scene.Frame(ctx)
	if err != nil {
		return nil, err
	}
	bounds := frame.Bounds()
	for _, p := range q.Fallback {
		if !bounds.Contains(p) {
			continue
		}
		return &model.LocatedElement{
			Kind:       model.TargetPoint,
			Point:      p,
			Bounds:     model.RectFromBounds(p.X, p.Y, 1, 1),
			Strategy:   StrategyCoordinates,
			Confidence: CoordinatesConfidence,
			FrameSeq:   frame.Seq,
		}, nil
	}
	return nil, notFound(q, StrategyCoordinates)
}

// ShortcutConfidence is the fixed confidence of a keyboard accelerator.
const ShortcutConfidence = 0.3

// ShortcutKeywords maps a keyword in the query name to the accelerator
// Windows Installer wizards bind to that button.
var ShortcutKeywords = []struct {
	Keyword string
	Keys    []string
}{
	{"next", []string{"alt", "n"}},
	{"accept", []string{"alt", "a"}},
	{"install", []string{"alt", "i"}},
	{"finish", []string{"alt", "f"}},
	{"close", []string{"alt", "c"}},
}

// ShortcutStrategy maps the query to a keyboard accelerator. It never
// probes the screen.
type ShortcutStrategy struct{}

func (ShortcutStrategy) Name() string           { return StrategyShortcut }
func (ShortcutStrategy) MinConfidence() float64 { return ShortcutConfidence }

func (ShortcutStrategy) TryLocate(ctx context.Context, scene *Scene, q model.ElementQuery) (*model.LocatedElement, error) {
	keys := ShortcutFor(q)
	if len(keys) == 0 {
		return nil, notFound(q, StrategyShortcut)
	}
	return &model.LocatedElement{
		Kind:       model.TargetShortcut,
		Keys:       keys,
		Strategy:   StrategyShortcut,
		Confidence: ShortcutConfidence,
	}, nil
}

// ShortcutFor returns the query's explicit shortcut, or the accelerator
// keyed off a keyword in its name.
func ShortcutFor(q model.ElementQuery) []string {
	if len(q.Shortcut) > 0 {
		return q.Shortcut
	}
	name := strings.ToLower(q.Name)
	for _, k := range ShortcutKeywords {
		if strings.Contains(name, k.Keyword) {
			return k.Keys
		}
	}
	return nil
}
