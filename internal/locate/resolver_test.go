package locate

import (
	"context"
	"errors"
	"image"
	"image/color"
	"regexp"
	"testing"

	"go.uber.org/zap"

	"github.com/mj1618/wizard-pilot/internal/model"
	"github.com/mj1618/wizard-pilot/internal/ocr"
	"github.com/mj1618/wizard-pilot/internal/platform/fake"
	"github.com/mj1618/wizard-pilot/internal/shape"
)

var titlePattern = regexp.MustCompile(`.*TEHTRIS EDR Setup.*`)

var nextQuery = model.ElementQuery{
	Name:    "Next button",
	Texts:   []string{"Next", ">", "Next >"},
	Classes: []string{"Button"},
}

func newResolver(d *fake.Desktop) *Resolver {
	return NewResolver(d, d, NewBinding(titlePattern), zap.NewNop())
}

func TestResolve_HandleFirst(t *testing.T) {
	d := fake.NewInstaller(nil)
	d.Switch(fake.ScreenWelcome)
	r := newResolver(d)

	el, err := r.Resolve(context.Background(), nextQuery)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if el.Strategy != StrategyHandle || el.Kind != model.TargetHandle {
		t.Fatalf("got %v, want handle strategy", el)
	}
	if el.Control.Handle != fake.WelcomeNext {
		t.Errorf("handle = %v, want %v", el.Control.Handle, fake.WelcomeNext)
	}
	if el.Confidence < DefaultThresholds.Handle {
		t.Errorf("confidence = %v", el.Confidence)
	}
	if w, ok := r.Binding.Window(); !ok || w.Handle != fake.WizardWindow {
		t.Errorf("binding = %+v %v, want wizard window", w, ok)
	}
}

// Each case removes the capability every earlier strategy relies on, so
// the winner must be the first strategy still able to satisfy the query.
func TestResolve_StrategyPriority(t *testing.T) {
	accent := color.RGBA{R: 0, G: 120, B: 215, A: 255}
	withButton := image.NewRGBA(image.Rect(0, 0, 800, 600))
	for y := 350; y < 372; y++ {
		for x := 300; x < 380; x++ {
			withButton.SetRGBA(x, y, accent)
		}
	}
	sig := shape.DefaultButtonSignature

	tests := []struct {
		name    string
		setup   func(d *fake.Desktop, r *Resolver)
		query   model.ElementQuery
		want    string
		wantPt  model.Point
		checkPt bool
	}{
		{
			name:  "handle",
			setup: func(d *fake.Desktop, r *Resolver) {},
			query: nextQuery,
			want:  StrategyHandle,
		},
		{
			name:    "ocr when pixel-only",
			setup:   func(d *fake.Desktop, r *Resolver) { r.Binding.Lose() },
			query:   nextQuery,
			want:    StrategyOCR,
			wantPt:  model.Point{X: 337, Y: 361},
			checkPt: true,
		},
		{
			name: "shape when no text anywhere",
			setup: func(d *fake.Desktop, r *Resolver) {
				r.Binding.Lose()
				d.Screens[fake.ScreenWelcome].Words = nil
				d.Screens[fake.ScreenWelcome].Pixels = withButton
			},
			query: func() model.ElementQuery { q := nextQuery; q.Shape = &sig; return q }(),
			want:  StrategyShape,
		},
		{
			name: "coordinates when nothing detectable",
			setup: func(d *fake.Desktop, r *Resolver) {
				r.Binding.Lose()
				d.Screens[fake.ScreenWelcome].Words = nil
			},
			query: func() model.ElementQuery {
				q := nextQuery
				q.Shape = &sig
				q.Fallback = []model.Point{{X: 5000, Y: 5000}, {X: 340, Y: 361}}
				return q
			}(),
			want:    StrategyCoordinates,
			wantPt:  model.Point{X: 340, Y: 361},
			checkPt: true,
		},
		{
			name: "shortcut last",
			setup: func(d *fake.Desktop, r *Resolver) {
				r.Binding.Lose()
				d.Screens[fake.ScreenWelcome].Words = nil
			},
			query: nextQuery,
			want:  StrategyShortcut,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := fake.NewInstaller(nil)
			d.Switch(fake.ScreenWelcome)
			r := newResolver(d)
			tt.setup(d, r)

			el, err := r.Resolve(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if el.Strategy != tt.want {
				t.Errorf("strategy = %q, want %q", el.Strategy, tt.want)
			}
			if tt.checkPt && el.Point != tt.wantPt {
				t.Errorf("point = %+v, want %+v", el.Point, tt.wantPt)
			}
			if el.Kind == model.TargetPoint && el.FrameSeq == 0 {
				t.Error("point element should carry the frame it came from")
			}
		})
	}
}

func TestResolve_SparseShapeFallsThrough(t *testing.T) {
	accent := color.RGBA{R: 0, G: 120, B: 215, A: 255}
	outline := image.NewRGBA(image.Rect(0, 0, 800, 600))
	for x := 300; x < 380; x++ {
		outline.SetRGBA(x, 350, accent)
		outline.SetRGBA(x, 371, accent)
	}
	for y := 350; y < 372; y++ {
		outline.SetRGBA(300, y, accent)
		outline.SetRGBA(379, y, accent)
	}

	d := fake.NewInstaller(nil)
	d.Switch(fake.ScreenWelcome)
	d.Screens[fake.ScreenWelcome].Words = nil
	d.Screens[fake.ScreenWelcome].Pixels = outline
	r := newResolver(d)
	r.Binding.Lose()

	sig := shape.DefaultButtonSignature
	q := nextQuery
	q.Shape = &sig
	q.Fallback = []model.Point{{X: 340, Y: 361}}

	c, ok := shape.Largest(&model.ScreenFrame{Pixels: outline}, sig)
	if !ok || c.Confidence() >= DefaultThresholds.Shape {
		t.Fatalf("outline component = %+v (ok=%v), want one below the shape threshold", c, ok)
	}

	el, err := r.Resolve(context.Background(), q)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if el.Strategy != StrategyCoordinates {
		t.Errorf("strategy = %q, want %q", el.Strategy, StrategyCoordinates)
	}
	if el.Point != (model.Point{X: 340, Y: 361}) {
		t.Errorf("point = %+v", el.Point)
	}
}

func TestResolve_NextButtonScenario(t *testing.T) {
	d := fake.New(nil)
	d.Current = "s"
	rect := model.Rect{Left: 100, Top: 200, Right: 180, Bottom: 220}
	d.Screens["s"] = &fake.Screen{
		Windows: []model.Window{{Handle: 1, Title: "TEHTRIS EDR Setup", Visible: true}},
		Controls: map[model.Handle][]model.Control{1: {
			{Handle: 7, Class: "Button", Role: "btn", Text: "Next >", Rect: rect, Visible: true, Enabled: true},
		}},
		Words: []ocr.Word{
			{Text: "Next", Box: model.Rect{Left: 100, Top: 200, Right: 160, Bottom: 220}, Confidence: 0.95, Block: 1, Par: 1, Line: 1},
			{Text: ">", Box: model.Rect{Left: 165, Top: 200, Right: 180, Bottom: 220}, Confidence: 0.9, Block: 1, Par: 1, Line: 1},
		},
	}
	q := model.ElementQuery{Name: "Next button", Texts: []string{"Next", ">", "Next >"}}

	for _, pixelOnly := range []bool{false, true} {
		r := newResolver(d)
		if pixelOnly {
			r.Binding.Lose()
		}
		el, err := r.Resolve(context.Background(), q)
		if err != nil {
			t.Fatalf("pixelOnly=%v: %v", pixelOnly, err)
		}
		if el.Confidence < 0.8 {
			t.Errorf("pixelOnly=%v: confidence %v < 0.8", pixelOnly, el.Confidence)
		}
		switch el.Kind {
		case model.TargetHandle:
			if el.Control.Handle != 7 {
				t.Errorf("handle = %v, want 7", el.Control.Handle)
			}
		case model.TargetPoint:
			if el.Point != (model.Point{X: 140, Y: 210}) {
				t.Errorf("point = %+v, want {140 210}", el.Point)
			}
		default:
			t.Errorf("unexpected kind %v", el.Kind)
		}
	}
}

func TestResolve_AmpersandIdempotent(t *testing.T) {
	d := fake.NewInstaller(nil)
	d.Switch(fake.ScreenWelcome)
	plain, err := newResolver(d).Resolve(context.Background(), nextQuery.WithTexts("Next"))
	if err != nil {
		t.Fatal(err)
	}
	amp, err := newResolver(d).Resolve(context.Background(), nextQuery.WithTexts("&Next"))
	if err != nil {
		t.Fatal(err)
	}
	if plain.Control.Handle != amp.Control.Handle || plain.Confidence != amp.Confidence {
		t.Errorf("ampersand changed the result: %v vs %v", plain, amp)
	}
}

func TestResolve_ExcludesNegatedCaption(t *testing.T) {
	d := fake.NewInstaller(nil)
	d.Switch(fake.ScreenLicense)
	q := model.ElementQuery{Name: "Accept", Texts: []string{"I accept", "accept"}, Classes: []string{"Button"}, Exclude: []string{"not"}}

	el, err := newResolver(d).Resolve(context.Background(), q, WithStrategies(StrategyHandle))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if el.Control.Handle != fake.LicenseAccept {
		t.Errorf("handle = %v, want accept %v", el.Control.Handle, fake.LicenseAccept)
	}
}

func TestResolve_NotFound(t *testing.T) {
	d := fake.NewInstaller(nil)
	d.Switch(fake.ScreenWelcome)
	q := model.ElementQuery{Name: "Repair", Texts: []string{"Repair"}}

	_, err := newResolver(d).Resolve(context.Background(), q)
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var nf *model.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatal("expected *NotFoundError")
	}
	want := []string{StrategyHandle, StrategyOCR, StrategyShape, StrategyCoordinates, StrategyShortcut}
	if len(nf.Tried) != len(want) {
		t.Fatalf("tried = %v, want %v", nf.Tried, want)
	}
	for i := range want {
		if nf.Tried[i] != want[i] {
			t.Errorf("tried[%d] = %q, want %q", i, nf.Tried[i], want[i])
		}
	}
}

func TestResolve_StrategyErrorFallsThrough(t *testing.T) {
	d := fake.NewInstaller(nil)
	d.Switch(fake.ScreenWelcome)
	d.CaptureErr = errors.New("capture failed")
	r := newResolver(d)
	r.Binding.Lose()

	el, err := r.Resolve(context.Background(), nextQuery)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if el.Strategy != StrategyShortcut {
		t.Errorf("strategy = %q, want shortcut after capture errors", el.Strategy)
	}
}

func TestResolve_OneFramePerCall(t *testing.T) {
	d := fake.NewInstaller(nil)
	d.Switch(fake.ScreenWelcome)
	r := newResolver(d)
	r.Binding.Lose()
	q := model.ElementQuery{Name: "Repair", Texts: []string{"Repair"}, Shape: &shape.DefaultButtonSignature, Fallback: []model.Point{{X: -1, Y: -1}}}

	r.Resolve(context.Background(), q)
	if got := len(d.CallsWithPrefix("CaptureFrame")); got != 1 {
		t.Errorf("first resolve captured %d frames, want 1", got)
	}
	r.Resolve(context.Background(), q)
	if got := len(d.CallsWithPrefix("CaptureFrame")); got != 2 {
		t.Errorf("second resolve should capture a fresh frame, total %d", got)
	}
}

func TestResolve_WithAndWithoutStrategies(t *testing.T) {
	d := fake.NewInstaller(nil)
	d.Switch(fake.ScreenWelcome)
	r := newResolver(d)

	el, err := r.Resolve(context.Background(), nextQuery, WithStrategies(StrategyShortcut))
	if err != nil || el.Strategy != StrategyShortcut {
		t.Fatalf("WithStrategies(shortcut) = %v, %v", el, err)
	}
	if len(d.Calls()) != 0 {
		t.Errorf("shortcut-only resolve should not probe, calls = %v", d.Calls())
	}

	el, err = r.Resolve(context.Background(), nextQuery, WithoutStrategies(StrategyHandle))
	if err != nil || el.Strategy != StrategyOCR {
		t.Errorf("WithoutStrategies(handle) = %v, %v", el, err)
	}

	_, err = r.Resolve(context.Background(), nextQuery, WithoutStrategies(StrategyHandle, StrategyOCR, StrategyShortcut))
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestResolve_RebindsByTitle(t *testing.T) {
	d := fake.NewInstaller(nil)
	d.Switch(fake.ScreenWelcome)
	r := newResolver(d)
	r.Binding.Bind(model.Window{Handle: 0xdead, Title: "stale"})

	el, err := r.Resolve(context.Background(), nextQuery, WithStrategies(StrategyHandle))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if w, _ := r.Binding.Window(); w.Handle != fake.WizardWindow {
		t.Errorf("rebound to %v, want %v", w.Handle, fake.WizardWindow)
	}
	if el.Control.Parent != fake.WizardWindow {
		t.Errorf("control parent = %v", el.Control.Parent)
	}
}

func TestResolve_BindingLostFallsThrough(t *testing.T) {
	d := fake.NewInstaller(nil)
	d.Switch(fake.ScreenWelcome)
	r := NewResolver(d, d, NewBinding(regexp.MustCompile(`Other Product`)), zap.NewNop())

	el, err := r.Resolve(context.Background(), nextQuery)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if el.Strategy != StrategyOCR {
		t.Errorf("strategy = %q, want ocr", el.Strategy)
	}
	if r.Binding.PixelOnly() {
		t.Error("a missing window during one resolve must not force pixel-only mode")
	}
}

func TestResolve_DryRun(t *testing.T) {
	d := fake.NewInstaller(nil)
	r := newResolver(d)
	r.DryRun = true

	el, err := r.Resolve(context.Background(), nextQuery)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if el.Strategy != StrategyDryRun {
		t.Errorf("strategy = %q", el.Strategy)
	}
	if _, err := r.LocateField(context.Background(), model.ElementQuery{Texts: []string{"Tag"}}); err != nil {
		t.Errorf("LocateField: %v", err)
	}
	if calls := d.Calls(); len(calls) != 0 {
		t.Errorf("dry-run probed the desktop: %v", calls)
	}
}

func TestLocateField(t *testing.T) {
	tagLabel := model.ElementQuery{Name: "Tag label", Texts: []string{"Tag", "Étiquette"}, Classes: []string{"Static"}}

	t.Run("nearest input", func(t *testing.T) {
		d := fake.NewInstaller(nil)
		d.Switch(fake.ScreenActivation)
		el, err := newResolver(d).LocateField(context.Background(), tagLabel)
		if err != nil {
			t.Fatalf("LocateField: %v", err)
		}
		if el.Kind != model.TargetHandle || el.Control.Handle != fake.ActivationTag {
			t.Errorf("got %v, want tag input handle", el)
		}
	})

	t.Run("offset when pixel-only", func(t *testing.T) {
		d := fake.NewInstaller(nil)
		d.Switch(fake.ScreenActivation)
		r := newResolver(d)
		r.Binding.Lose()
		el, err := r.LocateField(context.Background(), tagLabel)
		if err != nil {
			t.Fatalf("LocateField: %v", err)
		}
		// OCR reads "Tag" at (30,150)-(60,166).
		if el.Kind != model.TargetPoint || el.Point != (model.Point{X: 45, Y: 183}) {
			t.Errorf("got %v, want point 25px below the label text", el)
		}
		if el.Strategy != StrategyOCR+"+offset" {
			t.Errorf("strategy = %q", el.Strategy)
		}
	})
}
