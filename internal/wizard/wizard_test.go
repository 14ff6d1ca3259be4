package wizard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mj1618/wizard-pilot/internal/clock"
	"github.com/mj1618/wizard-pilot/internal/model"
	"github.com/mj1618/wizard-pilot/internal/platform/fake"
	"github.com/mj1618/wizard-pilot/internal/retry"
)

var testInstall = model.InstallationConfig{
	ServerAddress: "h.example.net",
	Tag:           "XPG_TEST",
	LicenseKey:    "AAAA-BBBB",
}

type harness struct {
	desktop *fake.Desktop
	clock   *clock.Fake
	session *Session
}

func newHarness(t *testing.T, dryRun bool, mutate func(o *Options, d *fake.Desktop)) *harness {
	t.Helper()
	c := clock.NewFake(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	d := fake.NewInstaller(c)
	d.Auto[fake.ScreenProgress] = fake.AutoSwitch{After: 30 * time.Second, Next: fake.ScreenFinish}

	msi := filepath.Join(t.TempDir(), "tehtris_edr.msi")
	if err := os.WriteFile(msi, []byte("msi"), 0o644); err != nil {
		t.Fatal(err)
	}
	opts := DefaultOptions()
	opts.InstallerPath = msi
	opts.Install = testInstall
	if mutate != nil {
		mutate(&opts, d)
	}

	s, err := NewSession(opts, d.Provider(), d, c, zap.NewNop(), dryRun)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return &harness{desktop: d, clock: c, session: s}
}

func indexOf(calls []string, want string) int {
	for i, c := range calls {
		if c == want {
			return i
		}
	}
	return -1
}

func TestRun_HappyPath(t *testing.T) {
	h := newHarness(t, false, nil)
	report, err := NewController(h.session, Hooks{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Final != StateDone {
		t.Errorf("final = %v, want Done", report.Final)
	}

	want := []State{StateLaunched, StateWelcome, StateLicense, StateActivation, StateInstalling, StateAwaitingCompletion, StateVerified, StateDone}
	if len(report.Visited) != len(want) {
		t.Fatalf("visited = %v, want %v", report.Visited, want)
	}
	for i := range want {
		if report.Visited[i] != want[i] {
			t.Errorf("visited[%d] = %v, want %v", i, report.Visited[i], want[i])
		}
	}
	for _, st := range report.Steps {
		if st.Attempts != 1 || st.Error != "" || st.Soft {
			t.Errorf("step %v: %+v, want one clean attempt", st.State, st)
		}
	}
	if len(report.Warnings) != 0 {
		t.Errorf("warnings = %v", report.Warnings)
	}
	if h.desktop.Screen() != fake.ScreenDesktop {
		t.Errorf("installer still showing %q", h.desktop.Screen())
	}
	if len(h.desktop.CallsWithPrefix("KeyCombo")) != 0 {
		t.Errorf("no keyboard fallback expected, got %v", h.desktop.CallsWithPrefix("KeyCombo"))
	}
}

func TestActivation_FillsFieldsInOrderThenNext(t *testing.T) {
	h := newHarness(t, false, nil)
	h.desktop.Switch(fake.ScreenActivation)
	h.session.Attempts[StateActivation] = 1

	if err := activation(context.Background(), h.session); err != nil {
		t.Fatalf("activation: %v", err)
	}
	calls := h.desktop.Calls()
	server := indexOf(calls, `SetText 0x121 "h.example.net"`)
	tag := indexOf(calls, `SetText 0x122 "XPG_TEST"`)
	key := indexOf(calls, `SetText 0x123 "AAAA-BBBB"`)
	next := indexOf(calls, "PostClick 0x124")
	if server < 0 || tag < 0 || key < 0 || next < 0 {
		t.Fatalf("missing calls in %q", calls)
	}
	if !(server < tag && tag < key && key < next) {
		t.Errorf("order server=%d tag=%d license=%d next=%d, want increasing", server, tag, key, next)
	}
	for _, h2 := range []model.Handle{fake.ActivationServer, fake.ActivationTag, fake.ActivationKey} {
		if i := indexOf(calls, "SendKey "+h2.String()+" tab"); i < 0 || i > next {
			t.Errorf("no focus-advance key for %v before Next", h2)
		}
	}
	if h.desktop.Screen() != fake.ScreenReady {
		t.Errorf("screen = %q, want ready", h.desktop.Screen())
	}
}

func TestActivation_FieldFailureBlocksNext(t *testing.T) {
	h := newHarness(t, false, func(o *Options, d *fake.Desktop) {
		d.RejectText[fake.ActivationTag] = true
	})
	h.desktop.Switch(fake.ScreenActivation)
	h.session.Attempts[StateActivation] = 1

	err := activation(context.Background(), h.session)
	if !errors.Is(err, model.ErrActionRejected) {
		t.Fatalf("err = %v, want ErrActionRejected", err)
	}
	calls := h.desktop.Calls()
	if indexOf(calls, `SetText 0x123 "AAAA-BBBB"`) < 0 {
		t.Error("license field should still be attempted after the tag failed")
	}
	if indexOf(calls, "PostClick 0x124") >= 0 {
		t.Error("Next must not be clicked while a field failed")
	}
}

func TestActivation_MissingInputStillFillsOthers(t *testing.T) {
	h := newHarness(t, false, func(o *Options, d *fake.Desktop) {
		screen := d.Screens[fake.ScreenActivation]
		var kept []model.Control
		for _, c := range screen.Controls[fake.WizardWindow] {
			if c.Handle != fake.ActivationKey {
				kept = append(kept, c)
			}
		}
		screen.Controls[fake.WizardWindow] = kept
	})
	h.desktop.Switch(fake.ScreenActivation)
	h.session.Attempts[StateActivation] = 1

	err := activation(context.Background(), h.session)
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	calls := h.desktop.Calls()
	for _, want := range []string{`SetText 0x121 "h.example.net"`, `SetText 0x122 "XPG_TEST"`} {
		if indexOf(calls, want) < 0 {
			t.Errorf("missing %s in %q", want, calls)
		}
	}
	if len(h.desktop.CallsWithPrefix("SetText 0x123")) != 0 {
		t.Error("absent license input was written")
	}
	if indexOf(calls, "PostClick 0x124") >= 0 {
		t.Error("Next must not be clicked while a field is missing")
	}
}

func TestActivation_FallbackOnFinalAttempt(t *testing.T) {
	h := newHarness(t, false, func(o *Options, d *fake.Desktop) {
		d.RejectText[fake.ActivationTag] = true
	})
	h.desktop.Switch(fake.ScreenActivation)
	c := &Controller{Session: h.session, Steps: []Step{
		{State: StateActivation, Name: "activation fields", Run: activation, Retry: h.session.Options.Retry},
	}}

	report, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := report.Steps[0].Attempts; got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
	if h.desktop.Screen() != fake.ScreenReady {
		t.Errorf("screen = %q, want Next clicked by fallback", h.desktop.Screen())
	}
	found := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "tag field not filled") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want tag field warning", report.Warnings)
	}
	// Linear backoff between the three attempts.
	slept := h.clock.Slept()
	if indexOfDuration(slept, 2*time.Second) < 0 || indexOfDuration(slept, 4*time.Second) < 0 {
		t.Errorf("slept = %v, want 2s and 4s retry delays", slept)
	}
}

func indexOfDuration(ds []time.Duration, want time.Duration) int {
	for i, d := range ds {
		if d == want {
			return i
		}
	}
	return -1
}

func TestAwaitCompletion_SoftSuccessAtCeiling(t *testing.T) {
	h := newHarness(t, false, nil)
	h.desktop.Auto = map[string]fake.AutoSwitch{}
	h.desktop.Switch(fake.ScreenProgress)
	start := h.clock.Now()

	if err := awaitCompletion(context.Background(), h.session); err != nil {
		t.Fatalf("awaitCompletion: %v", err)
	}
	if !h.session.soft {
		t.Error("expected a soft success")
	}
	combos := h.desktop.CallsWithPrefix("KeyCombo")
	if len(combos) != 1 || combos[0] != "KeyCombo alt+f" {
		t.Fatalf("keyboard calls = %v, want exactly one alt+f", combos)
	}
	slept := h.clock.Slept()
	var beforeShortcut time.Duration
	for _, d := range slept[:len(slept)-1] {
		beforeShortcut += d
	}
	if beforeShortcut != 180*time.Second {
		t.Errorf("shortcut pressed after %v, want 180s", beforeShortcut)
	}
	if got := h.clock.Now().Sub(start); got != 180*time.Second+h.session.Options.Settle {
		t.Errorf("step took %v", got)
	}
}

func TestAwaitCompletion_FinishAppears(t *testing.T) {
	h := newHarness(t, false, nil)
	h.desktop.Switch(fake.ScreenProgress)
	h.desktop.SwitchAfter(h.clock, 31*time.Second, fake.ScreenFinish)

	if err := awaitCompletion(context.Background(), h.session); err != nil {
		t.Fatalf("awaitCompletion: %v", err)
	}
	if h.session.soft {
		t.Error("should not be soft when Finish was clicked")
	}
	if indexOf(h.desktop.Calls(), "PostClick 0x141") < 0 {
		t.Errorf("Finish not clicked: %v", h.desktop.Calls())
	}
	if len(h.desktop.CallsWithPrefix("KeyCombo")) != 0 {
		t.Error("no keyboard fallback expected")
	}
}

func TestRun_CompletionTimeoutIsSoft(t *testing.T) {
	h := newHarness(t, false, func(o *Options, d *fake.Desktop) {
		o.CompletionTimeout = 20 * time.Second
	})
	report, err := NewController(h.session, Hooks{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var st StepReport
	for _, s := range report.Steps {
		if s.State == StateAwaitingCompletion {
			st = s
		}
	}
	if !st.Soft {
		t.Errorf("awaiting completion step = %+v, want soft", st)
	}
	if report.Final != StateDone {
		t.Errorf("final = %v", report.Final)
	}
}

func TestRun_LaunchFailure(t *testing.T) {
	h := newHarness(t, false, func(o *Options, d *fake.Desktop) {
		d.LaunchErr = errors.New("access denied")
	})
	var failed []State
	hooks := Hooks{OnFailure: []HookFunc{func(_ context.Context, _ *Session, st State, err error) error {
		failed = append(failed, st)
		return nil
	}}}

	report, err := NewController(h.session, hooks).Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if report.Final != StateFailed {
		t.Errorf("final = %v, want Failed", report.Final)
	}
	if len(report.Visited) != 2 || report.Visited[0] != StateLaunched || report.Visited[1] != StateFailed {
		t.Errorf("visited = %v", report.Visited)
	}
	if len(failed) != 1 || failed[0] != StateLaunched {
		t.Errorf("OnFailure calls = %v", failed)
	}
}

func TestRun_ExhaustedStepStopsSequence(t *testing.T) {
	h := newHarness(t, false, nil)
	calls := 0
	reached := false
	c := &Controller{Session: h.session, Steps: []Step{
		{State: StateWelcome, Name: "always missing", Retry: retry.Policy{MaxAttempts: 3, Delay: time.Second}, Run: func(ctx context.Context, s *Session) error {
			calls++
			return &model.NotFoundError{Query: "Next"}
		}},
		{State: StateLicense, Name: "never reached", Retry: retry.Once, Run: func(ctx context.Context, s *Session) error {
			reached = true
			return nil
		}},
	}}

	report, err := c.Run(context.Background())
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if calls != 3 {
		t.Errorf("step ran %d times, want 3", calls)
	}
	if reached {
		t.Error("later state ran after a failed step")
	}
	if report.Final != StateFailed || report.Steps[0].Attempts != 3 {
		t.Errorf("report = %+v", report)
	}
}

func TestRun_PreflightRejectsTag(t *testing.T) {
	h := newHarness(t, false, func(o *Options, d *fake.Desktop) {
		o.Install.Tag = "TEST"
	})
	report, err := NewController(h.session, Hooks{}).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "XPG_") {
		t.Fatalf("err = %v, want tag prefix error", err)
	}
	if len(report.Visited) != 1 || report.Visited[0] != StateFailed {
		t.Errorf("visited = %v, want only Failed", report.Visited)
	}
	if len(h.desktop.CallsWithPrefix("Launch")) != 0 {
		t.Error("installer launched despite failed preflight")
	}
}

func TestRun_NotElevatedWarns(t *testing.T) {
	h := newHarness(t, false, func(o *Options, d *fake.Desktop) {
		d.Elevated = false
	})
	report, err := NewController(h.session, Hooks{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0], "administrator") {
		t.Errorf("warnings = %v", report.Warnings)
	}
}

func TestRun_VerificationIsAdvisory(t *testing.T) {
	h := newHarness(t, false, func(o *Options, d *fake.Desktop) {
		d.Procs = nil
	})
	report, err := NewController(h.session, Hooks{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Final != StateDone {
		t.Errorf("final = %v, want Done despite failed verification", report.Final)
	}
	last := report.Steps[len(report.Steps)-1]
	if last.State != StateVerified || last.Error == "" || last.Attempts != 3 {
		t.Errorf("verified step = %+v", last)
	}
	if len(report.Warnings) == 0 {
		t.Error("expected a verification warning")
	}
}

func TestRun_DryRunTouchesNothing(t *testing.T) {
	h := newHarness(t, true, func(o *Options, d *fake.Desktop) {
		o.InstallerPath = `C:\does\not\exist.msi`
		o.MinimizeWindows = true
	})
	report, err := NewController(h.session, Hooks{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Final != StateDone || !report.DryRun {
		t.Errorf("report = %+v", report)
	}
	if calls := h.desktop.Calls(); len(calls) != 0 {
		t.Errorf("dry-run touched the desktop: %v", calls)
	}
}

func TestRun_DryRunWithoutProvider(t *testing.T) {
	opts := DefaultOptions()
	opts.InstallerPath = "agent.msi"
	opts.Install = testInstall
	s, err := NewSession(opts, nil, nil, clock.NewFake(time.Time{}), nil, true)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	report, err := NewController(s, Hooks{}).Run(context.Background())
	if err != nil || report.Final != StateDone {
		t.Errorf("report = %+v, err = %v", report, err)
	}

	if _, err := NewSession(opts, nil, nil, nil, nil, false); err == nil {
		t.Error("a real run without a provider should be rejected")
	}
}

func TestLaunch_BindingFailureDegrades(t *testing.T) {
	h := newHarness(t, false, func(o *Options, d *fake.Desktop) {
		o.TitlePattern = regexp.MustCompile(`Some Other Product`)
	})
	start := h.clock.Now()
	if err := launch(context.Background(), h.session); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if !h.session.Binding.PixelOnly() {
		t.Fatal("expected pixel-only mode after failing to bind")
	}
	if got := h.clock.Now().Sub(start); got < 35*time.Second {
		t.Errorf("gave up after %v, want launch wait plus 30s window timeout", got)
	}
	if len(h.session.warnings) != 1 {
		t.Errorf("warnings = %v", h.session.warnings)
	}

	if err := welcome(context.Background(), h.session); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if h.session.Last.Strategy != "ocr" {
		t.Errorf("welcome used %q, want ocr in pixel-only mode", h.session.Last.Strategy)
	}
	if len(h.desktop.CallsWithPrefix("ListControls")) != 0 {
		t.Error("handle enumeration used in pixel-only mode")
	}
}

func TestLaunch_MinimizesFirst(t *testing.T) {
	h := newHarness(t, false, func(o *Options, d *fake.Desktop) {
		o.MinimizeWindows = true
	})
	if err := launch(context.Background(), h.session); err != nil {
		t.Fatal(err)
	}
	calls := h.desktop.Calls()
	if indexOf(calls, "KeyCombo win+d") < 0 || indexOf(calls, "KeyCombo win+d") > indexOf(calls, "Launch "+h.session.Options.InstallerPath) {
		t.Errorf("calls = %v, want win+d before launch", calls)
	}
	if w, ok := h.session.Binding.Window(); !ok || w.Handle != fake.WizardWindow {
		t.Errorf("binding = %+v, %v", w, ok)
	}
	if indexOf(calls, "Focus 0x100") < 0 {
		t.Error("bound window not focused")
	}
}

func TestLicense_AcceptThenNext(t *testing.T) {
	h := newHarness(t, false, nil)
	h.desktop.Switch(fake.ScreenLicense)
	if err := license(context.Background(), h.session); err != nil {
		t.Fatal(err)
	}
	calls := h.desktop.Calls()
	accept, next := indexOf(calls, "PostClick 0x111"), indexOf(calls, "PostClick 0x113")
	if accept < 0 || next < accept {
		t.Errorf("calls = %v, want accept then next", calls)
	}
	if indexOf(calls, "PostClick 0x112") >= 0 {
		t.Error("clicked the decline option")
	}
}

func TestHooks_OrderAndErrorsIgnored(t *testing.T) {
	h := newHarness(t, false, nil)
	var events []string
	rec := func(phase string) HookFunc {
		return func(_ context.Context, _ *Session, st State, _ error) error {
			events = append(events, phase+" "+st.String())
			return errors.New("disk full")
		}
	}
	c := &Controller{
		Session: h.session,
		Steps: []Step{
			{State: StateIdle, Name: "preflight", Run: preflight, Retry: retry.Once},
			{State: StateLaunched, Name: "launch", Run: launch, Retry: retry.Once},
		},
		Hooks: Hooks{PreStep: []HookFunc{rec("pre")}, PostStep: []HookFunc{rec("post")}},
	}
	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"pre Idle", "post Idle", "pre Launched", "post Launched"}
	if strings.Join(events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestQueriesOverride(t *testing.T) {
	q := DefaultQueries()
	err := q.Override(
		map[string][]string{"next": {"Weiter >"}, "tag": {"Kennung"}},
		map[string][]string{"finish": {"640,480"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if q.Next.Texts[0] != "Weiter >" || len(q.Next.Texts) != 1 {
		t.Errorf("next texts = %v", q.Next.Texts)
	}
	if q.TagLabel.Texts[0] != "Kennung" {
		t.Errorf("tag texts = %v", q.TagLabel.Texts)
	}
	if len(q.Finish.Fallback) != 1 || q.Finish.Fallback[0] != (model.Point{X: 640, Y: 480}) {
		t.Errorf("finish fallback = %v", q.Finish.Fallback)
	}
	if err := q.Override(map[string][]string{"back": {"Back"}}, nil); err == nil {
		t.Error("expected error for unknown query key")
	}
	if err := q.Override(nil, map[string][]string{"next": {"x"}}); err == nil {
		t.Error("expected error for bad point")
	}
	q.DisableShapes()
	if q.Next.Shape != nil || q.Install.Shape != nil {
		t.Error("shapes not disabled")
	}
}

func TestStateString(t *testing.T) {
	if StateAwaitingCompletion.String() != "AwaitingCompletion" {
		t.Errorf("got %q", StateAwaitingCompletion.String())
	}
	if State(99).String() != "State(99)" {
		t.Errorf("got %q", State(99).String())
	}
	if !StateFailed.Terminal() || StateVerified.Terminal() {
		t.Error("Terminal mismatch")
	}
}
