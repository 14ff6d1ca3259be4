package locate

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mj1618/wizard-pilot/internal/model"
	"github.com/mj1618/wizard-pilot/internal/platform"
)

// Resolver runs the strategy chain for one query at a time.
type Resolver struct {
	Probe      platform.ScreenProbe
	Text       TextReader
	Binding    *Binding
	Strategies []Strategy
	Log        *zap.Logger
	DryRun     bool
}

// NewResolver returns a resolver using the default strategy chain.
func NewResolver(probe platform.ScreenProbe, text TextReader, binding *Binding, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		Probe:      probe,
		Text:       text,
		Binding:    binding,
		Strategies: DefaultStrategies(DefaultThresholds),
		Log:        log,
	}
}

type resolveOptions struct {
	only    map[string]bool
	without map[string]bool
}

// ResolveOption narrows the strategy chain for one call.
type ResolveOption func(*resolveOptions)

// WithStrategies restricts the chain to the named strategies, keeping the
// resolver's priority order.
func WithStrategies(names ...string) ResolveOption {
	return func(o *resolveOptions) {
		o.only = map[string]bool{}
		for _, n := range names {
			o.only[n] = true
		}
	}
}

// WithoutStrategies drops the named strategies from the chain.
func WithoutStrategies(names ...string) ResolveOption {
	return func(o *resolveOptions) {
		if o.without == nil {
			o.without = map[string]bool{}
		}
		for _, n := range names {
			o.without[n] = true
		}
	}
}

func (o resolveOptions) allows(name string) bool {
	if o.only != nil && !o.only[name] {
		return false
	}
	return !o.without[name]
}

// NewScene starts a fresh snapshot bound to the resolver's probe.
func (r *Resolver) NewScene() *Scene {
	return NewScene(r.Probe, r.Text, r.Binding)
}

// Resolve tries each strategy in priority order against one fresh scene and
// returns the first result at or above that strategy's threshold. Strategy
// errors are logged and skipped. When nothing qualifies the error is a
// *model.NotFoundError.
func (r *Resolver) Resolve(ctx context.Context, q model.ElementQuery, opts ...ResolveOption) (*model.LocatedElement, error) {
	log := r.Log.With(zap.String("query", q.String()))
	if r.DryRun {
		log.Info("dry-run: would locate element", zap.Strings("texts", q.Texts))
		el := &model.LocatedElement{Kind: model.TargetPoint, Strategy: StrategyDryRun, Confidence: 1}
		if len(q.Texts) > 0 {
			el.Text = q.Texts[0]
		}
		return el, nil
	}

	var o resolveOptions
	for _, opt := range opts {
		opt(&o)
	}

	scene := r.NewScene()
	var tried []string
	for _, s := range r.Strategies {
		name := s.Name()
		if !o.allows(name) {
			continue
		}
		if name == StrategyHandle && r.Binding.PixelOnly() {
			log.Debug("skipping handle strategy, window binding lost")
			continue
		}
		tried = append(tried, name)
		slog := log.With(zap.String("strategy", name))

		el, err := s.TryLocate(ctx, scene, q)
		switch {
		case err == nil && el != nil && el.Confidence >= s.MinConfidence():
			slog.Info("element located",
				zap.Stringer("target", el),
				zap.Float64("confidence", el.Confidence))
			return el, nil
		case err == nil && el != nil:
			slog.Debug("candidate below threshold",
				zap.Float64("confidence", el.Confidence),
				zap.Float64("threshold", s.MinConfidence()))
		case err == nil || errors.Is(err, model.ErrNotFound):
			slog.Debug("no match")
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(err, model.ErrBindingLost):
			slog.Info("strategy unavailable", zap.Error(err))
		default:
			slog.Warn("strategy failed", zap.Error(err))
		}
	}
	return nil, &model.NotFoundError{Query: q.String(), Tried: tried}
}

// LocateField finds a text input by its label: the label is resolved
// through the chain, then the nearest native input control is preferred,
// falling back to a point at LabelOffset from the label.
func (r *Resolver) LocateField(ctx context.Context, label model.ElementQuery, opts ...ResolveOption) (*model.LocatedElement, error) {
	lbl, err := r.Resolve(ctx, label, opts...)
	if err != nil || r.DryRun {
		return lbl, err
	}
	log := r.Log.With(zap.String("query", label.String()))

	if !r.Binding.PixelOnly() {
		scene := r.NewScene()
		controls, err := scene.Controls(ctx)
		if err != nil {
			log.Debug("no controls near label", zap.Error(err))
		} else if c := NearestInput(controls, lbl.Bounds); c != nil {
			log.Info("input located next to label", zap.Stringer("handle", c.Handle))
			return &model.LocatedElement{
				Kind:       model.TargetHandle,
				Point:      c.Rect.Center(),
				Control:    c,
				Bounds:     c.Rect,
				Strategy:   lbl.Strategy + "+nearest",
				Confidence: lbl.Confidence,
				Text:       lbl.Text,
			}, nil
		}
	}

	if lbl.Kind != model.TargetPoint && lbl.Kind != model.TargetHandle {
		return nil, &model.NotFoundError{Query: label.String(), Tried: []string{lbl.Strategy}}
	}
	c := lbl.Bounds.Center()
	p := model.Point{X: c.X + LabelOffset.X, Y: c.Y + LabelOffset.Y}
	log.Info("input assumed below label", zap.Int("x", p.X), zap.Int("y", p.Y))
	return &model.LocatedElement{
		Kind:       model.TargetPoint,
		Point:      p,
		Bounds:     model.RectFromBounds(p.X, p.Y, 1, 1),
		Strategy:   lbl.Strategy + "+offset",
		Confidence: lbl.Confidence,
		Text:       lbl.Text,
		FrameSeq:   lbl.FrameSeq,
	}, nil
}
