package wizard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mj1618/wizard-pilot/internal/actuate"
	"github.com/mj1618/wizard-pilot/internal/locate"
	"github.com/mj1618/wizard-pilot/internal/model"
	"github.com/mj1618/wizard-pilot/internal/retry"
)

// Step is one node of the install sequence.
type Step struct {
	State State
	Name  string
	Run   func(ctx context.Context, s *Session) error
	Retry retry.Policy
	// Advisory steps never fail the run; exhaustion becomes a warning.
	Advisory bool
}

// DefaultSteps returns the fixed TEHTRIS EDR wizard sequence.
func DefaultSteps(opts Options) []Step {
	return []Step{
		{State: StateIdle, Name: "preflight", Run: preflight, Retry: retry.Once},
		{State: StateLaunched, Name: "launch installer", Run: launch, Retry: retry.Once},
		{State: StateWelcome, Name: "welcome screen", Run: welcome, Retry: opts.Retry},
		{State: StateLicense, Name: "license agreement", Run: license, Retry: opts.Retry},
		{State: StateActivation, Name: "activation fields", Run: activation, Retry: opts.Retry},
		{State: StateInstalling, Name: "start install", Run: installing, Retry: opts.Retry},
		{State: StateAwaitingCompletion, Name: "await completion", Run: awaitCompletion, Retry: retry.Once},
		{State: StateVerified, Name: "verify agent", Run: verified, Retry: opts.VerifyRetry, Advisory: true},
	}
}

func preflight(ctx context.Context, s *Session) error {
	o := s.Options
	if o.InstallerPath == "" {
		return retry.Permanent(errors.New("no installer path given"))
	}
	if !s.DryRun {
		if _, err := os.Stat(o.InstallerPath); err != nil {
			return retry.Permanent(fmt.Errorf("installer not found: %w", err))
		}
	}
	if o.TagPrefix != "" && (o.Install.Tag != "" || !s.DryRun) && !strings.HasPrefix(o.Install.Tag, o.TagPrefix) {
		return retry.Permanent(fmt.Errorf("tag %q must start with %q", o.Install.Tag, o.TagPrefix))
	}
	if s.Provider.Elevation != nil && !s.Provider.Elevation.IsElevated() {
		s.Warn("not running as administrator; the installer may prompt for elevation")
	}
	s.Log.Info("preflight passed", zap.String("installer", o.InstallerPath))
	return nil
}

func launch(ctx context.Context, s *Session) error {
	o := s.Options
	if s.DryRun {
		s.Log.Info("dry-run: would launch installer", zap.String("path", o.InstallerPath))
		return nil
	}
	if o.MinimizeWindows {
		if err := s.Actuator.Keys(ctx, "win", "d"); err != nil {
			s.Warn("could not minimize windows: %v", err)
		}
	}

	pid, err := s.Provider.Launcher.Launch(ctx, o.InstallerPath)
	if err != nil {
		return fmt.Errorf("launching %s: %w", o.InstallerPath, err)
	}
	s.PID = pid
	s.Log.Info("installer started", zap.Int("pid", pid))
	if err := s.Clock.Sleep(ctx, o.LaunchWait); err != nil {
		return err
	}

	w, err := bindWindow(ctx, s)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.Binding.Lose()
		s.Warn("%v; continuing with pixel-only strategies", err)
		return nil
	}
	s.Log.Info("bound installer window", zap.Stringer("handle", w.Handle), zap.String("title", w.Title))
	if err := s.Provider.Messenger.Focus(w.Handle); err != nil {
		s.Log.Debug("could not focus installer window", zap.Error(err))
	}
	return nil
}

// bindWindow polls the window list until a window matches the binding's
// title pattern or WindowTimeout elapses.
func bindWindow(ctx context.Context, s *Session) (model.Window, error) {
	deadline := s.Clock.Now().Add(s.Options.WindowTimeout)
	for {
		windows, err := s.Provider.Probe.ListWindows(ctx)
		if err != nil {
			s.Log.Debug("listing windows failed", zap.Error(err))
		} else if w, ok := s.Binding.Match(windows); ok {
			s.Binding.Bind(w)
			return w, nil
		}
		remaining := deadline.Sub(s.Clock.Now())
		if remaining <= 0 {
			return model.Window{}, fmt.Errorf("%w: no installer window within %s", model.ErrBindingLost, s.Options.WindowTimeout)
		}
		if err := s.Clock.Sleep(ctx, min(time.Second, remaining)); err != nil {
			return model.Window{}, err
		}
	}
}

func welcome(ctx context.Context, s *Session) error {
	return s.Click(ctx, s.Options.Queries.Next)
}

func license(ctx context.Context, s *Session) error {
	q := s.Options.Queries
	if err := s.Click(ctx, q.Accept); err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			return err
		}
		s.Log.Info("no license acceptance control, continuing", zap.Error(err))
	}
	return s.Click(ctx, q.Next)
}

type field struct {
	name  string
	label model.ElementQuery
	value string
}

func activationFields(s *Session) []field {
	q, in := s.Options.Queries, s.Options.Install
	return []field{
		{"server", q.ServerLabel, in.ServerAddress},
		{"tag", q.TagLabel, in.Tag},
		{"license", q.LicenseLabel, in.LicenseKey},
	}
}

func activation(ctx context.Context, s *Session) error {
	fields := activationFields(s)
	err := fillPositional(ctx, s, fields)
	if err == nil {
		return s.Click(ctx, s.Options.Queries.Next)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if s.Attempts[StateActivation] < s.Options.Retry.MaxAttempts {
		return err
	}

	s.Warn("positional field fill failed (%v); falling back to label search", err)
	for _, f := range fields {
		el, err := s.Resolver.LocateField(ctx, f.label)
		if err != nil {
			s.Warn("%s field not found: %v", f.name, err)
			continue
		}
		s.Last = el
		if err := s.Actuator.Activate(ctx, el, actuate.Type(f.value)); err != nil {
			s.Warn("%s field not filled: %v", f.name, err)
		}
	}
	return s.Click(ctx, s.Options.Queries.Next)
}

// fillPositional fills the wizard's input controls in screen order with
// server, tag and license. Every field is attempted even if an earlier one
// fails.
func fillPositional(ctx context.Context, s *Session, fields []field) error {
	if s.DryRun {
		for _, f := range fields {
			el := &model.LocatedElement{Kind: model.TargetHandle, Strategy: locate.StrategyDryRun, Text: f.name}
			if err := s.Actuator.Activate(ctx, el, actuate.Type(f.value)); err != nil {
				return err
			}
		}
		return nil
	}

	controls, err := s.Resolver.NewScene().Controls(ctx)
	if err != nil {
		return err
	}
	inputs := locate.InputControls(controls)

	var errs []error
	for i, f := range fields {
		if i >= len(inputs) {
			errs = append(errs, &model.NotFoundError{
				Query: fmt.Sprintf("%s field (input %d of %d)", f.name, i+1, len(inputs)),
				Tried: []string{locate.StrategyHandle},
			})
			continue
		}
		c := inputs[i]
		el := &model.LocatedElement{
			Kind:       model.TargetHandle,
			Point:      c.Rect.Center(),
			Control:    &c,
			Bounds:     c.Rect,
			Strategy:   locate.StrategyHandle,
			Confidence: 1,
			Text:       f.name,
		}
		s.Last = el
		if err := s.Actuator.Activate(ctx, el, actuate.Type(f.value)); err != nil {
			errs = append(errs, fmt.Errorf("%s field: %w", f.name, err))
			continue
		}
		s.Log.Info("field filled", zap.String("field", f.name), zap.Stringer("handle", c.Handle))
	}
	return errors.Join(errs...)
}

func installing(ctx context.Context, s *Session) error {
	return s.Click(ctx, s.Options.Queries.Install)
}

// awaitCompletion polls for Finish or Close until CompletionTimeout. On
// timeout it presses Finish's keyboard accelerator once and treats that as
// a soft success, since a still-running installer cannot be told apart
// from an unreachable button.
func awaitCompletion(ctx context.Context, s *Session) error {
	o := s.Options
	deadline := s.Clock.Now().Add(o.CompletionTimeout)
	polling := locate.WithoutStrategies(locate.StrategyShortcut, locate.StrategyCoordinates)

	for polls := 1; ; polls++ {
		for _, q := range []model.ElementQuery{o.Queries.Finish, o.Queries.Close} {
			el, err := s.Locate(ctx, q, polling)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				continue
			}
			s.Log.Info("installation complete", zap.String("button", q.String()), zap.Int("polls", polls))
			return s.Actuator.Activate(ctx, el, actuate.Click())
		}

		remaining := deadline.Sub(s.Clock.Now())
		if remaining <= 0 {
			break
		}
		if err := s.Clock.Sleep(ctx, min(o.PollInterval, remaining)); err != nil {
			return err
		}
	}

	s.Warn("no Finish or Close button after %s; pressing the Finish accelerator", o.CompletionTimeout)
	el, err := s.Locate(ctx, o.Queries.Finish, locate.WithStrategies(locate.StrategyShortcut))
	if err != nil {
		return err
	}
	if err := s.Actuator.Activate(ctx, el, actuate.Click()); err != nil {
		return err
	}
	s.MarkSoft()
	return nil
}

func verified(ctx context.Context, s *Session) error {
	if s.DryRun {
		s.Log.Info("dry-run: would verify agent process", zap.String("name_contains", s.Options.Verify.NameContains))
		return nil
	}
	res, err := s.Verifier.Check(ctx)
	if err != nil {
		return err
	}
	for _, p := range res.Found {
		s.Log.Info("agent verified", zap.Int("pid", p.PID), zap.String("name", p.Name), zap.String("version", p.Version))
	}
	return nil
}
