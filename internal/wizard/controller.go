// Package wizard drives a fixed installer sequence as a state machine,
// resolving and activating each screen's controls with retries.
package wizard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mj1618/wizard-pilot/internal/retry"
)

// HookFunc observes a step. err is the step's error for PostStep and
// OnFailure hooks, nil otherwise. Hook errors are logged and ignored.
type HookFunc func(ctx context.Context, s *Session, state State, err error) error

// Hooks are called around every step.
type Hooks struct {
	PreStep   []HookFunc
	PostStep  []HookFunc
	OnFailure []HookFunc
}

// StepReport summarises one step of a run.
type StepReport struct {
	State    State         `yaml:"state"           json:"state"`
	Attempts int           `yaml:"attempts"        json:"attempts"`
	Elapsed  time.Duration `yaml:"elapsed"         json:"elapsed"`
	Error    string        `yaml:"error,omitempty" json:"error,omitempty"`
	// Soft is set when the step was deemed complete by policy.
	Soft bool `yaml:"soft,omitempty" json:"soft,omitempty"`
}

// Report is the outcome of a run.
type Report struct {
	RunID    string        `yaml:"run_id"             json:"run_id"`
	DryRun   bool          `yaml:"dry_run,omitempty"  json:"dry_run,omitempty"`
	Final    State         `yaml:"final"              json:"final"`
	Visited  []State       `yaml:"visited"            json:"visited"`
	Steps    []StepReport  `yaml:"steps"              json:"steps"`
	Warnings []string      `yaml:"warnings,omitempty" json:"warnings,omitempty"`
	Started  time.Time     `yaml:"started"            json:"started"`
	Elapsed  time.Duration `yaml:"elapsed"            json:"elapsed"`
}

// Controller walks Steps in order. A step advances only when it succeeds;
// exhausting a non-advisory step's retries ends the run in StateFailed.
type Controller struct {
	Session *Session
	Steps   []Step
	Hooks   Hooks
}

// NewController returns a controller over the default step sequence.
func NewController(s *Session, hooks Hooks) *Controller {
	return &Controller{Session: s, Steps: DefaultSteps(s.Options), Hooks: hooks}
}

// Run drives the wizard to Done or Failed. The returned error is non-nil
// exactly when the report's Final state is StateFailed.
func (c *Controller) Run(ctx context.Context) (*Report, error) {
	s := c.Session
	started := s.Clock.Now()
	report := &Report{RunID: s.RunID, DryRun: s.DryRun, Started: started}
	finish := func(final State) {
		report.Final = final
		report.Visited = append(report.Visited, final)
		report.Warnings = append([]string(nil), s.warnings...)
		report.Elapsed = s.Clock.Now().Sub(started)
	}

	s.Log.Info("wizard run starting", zap.Bool("dry_run", s.DryRun), zap.Int("steps", len(c.Steps)))
	for _, step := range c.Steps {
		s.State = step.State
		s.soft = false
		if step.State != StateIdle {
			report.Visited = append(report.Visited, step.State)
		}
		log := s.Log.With(zap.Stringer("state", step.State))
		log.Info("entering state", zap.String("step", step.Name))
		c.fire(ctx, c.Hooks.PreStep, step.State, nil)

		stepStart := s.Clock.Now()
		n, err := s.Runner.Run(ctx, step.Name, step.Retry, func(ctx context.Context, attempt int) error {
			s.Attempts[step.State] = attempt
			return step.Run(ctx, s)
		})
		sr := StepReport{State: step.State, Attempts: n, Elapsed: s.Clock.Now().Sub(stepStart), Soft: s.soft}
		if err != nil {
			sr.Error = err.Error()
		}
		report.Steps = append(report.Steps, sr)

		switch {
		case err == nil:
			log.Info("state complete", zap.Int("attempts", n), zap.Bool("soft", s.soft))
			c.fire(ctx, c.Hooks.PostStep, step.State, nil)
		case step.Advisory && ctx.Err() == nil:
			s.Warn("%s did not confirm: %v", step.Name, err)
			c.fire(ctx, c.Hooks.PostStep, step.State, err)
		default:
			log.Error("state failed", zap.Int("attempts", n), zap.Error(err))
			c.fire(ctx, c.Hooks.OnFailure, step.State, err)
			finish(StateFailed)
			return report, fmt.Errorf("%s: %w", step.State, err)
		}
	}

	finish(StateDone)
	s.State = StateDone
	s.Log.Info("wizard run complete", zap.Duration("elapsed", report.Elapsed), zap.Int("warnings", len(report.Warnings)))
	return report, nil
}

func (c *Controller) fire(ctx context.Context, hooks []HookFunc, state State, stepErr error) {
	for _, h := range hooks {
		if err := h(ctx, c.Session, state, stepErr); err != nil {
			c.Session.Log.Warn("hook failed", zap.Stringer("state", state), zap.Error(err))
		}
	}
}

// Policy returns the retry policy of the step driving state, if any.
func (c *Controller) Policy(state State) (retry.Policy, bool) {
	for _, st := range c.Steps {
		if st.State == state {
			return st.Retry, true
		}
	}
	return retry.Policy{}, false
}
