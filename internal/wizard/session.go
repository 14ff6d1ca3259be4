package wizard

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mj1618/wizard-pilot/internal/actuate"
	"github.com/mj1618/wizard-pilot/internal/clock"
	"github.com/mj1618/wizard-pilot/internal/locate"
	"github.com/mj1618/wizard-pilot/internal/model"
	"github.com/mj1618/wizard-pilot/internal/platform"
	"github.com/mj1618/wizard-pilot/internal/retry"
	"github.com/mj1618/wizard-pilot/internal/verify"
)

// Options configure one wizard run.
type Options struct {
	InstallerPath string
	Install       model.InstallationConfig
	TagPrefix     string
	TitlePattern  *regexp.Regexp
	// MinimizeWindows sends Win+D before launching so the wizard opens on a
	// clear desktop.
	MinimizeWindows bool

	LaunchWait        time.Duration
	WindowTimeout     time.Duration
	CompletionTimeout time.Duration
	PollInterval      time.Duration
	Settle            time.Duration

	// Retry is the policy of every screen step.
	Retry retry.Policy
	// VerifyRetry is the policy of the advisory verification step.
	VerifyRetry retry.Policy
	Verify      verify.Options
	Thresholds  locate.Thresholds

	Queries Queries
}

// DefaultOptions returns the timings used against the TEHTRIS EDR wizard.
func DefaultOptions() Options {
	return Options{
		TagPrefix:         "XPG_",
		TitlePattern:      regexp.MustCompile(`.*TEHTRIS EDR Setup.*`),
		LaunchWait:        5 * time.Second,
		WindowTimeout:     30 * time.Second,
		CompletionTimeout: 180 * time.Second,
		PollInterval:      2 * time.Second,
		Settle:            500 * time.Millisecond,
		Retry:             retry.Policy{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: retry.Linear},
		VerifyRetry:       retry.Policy{MaxAttempts: 3, Delay: 5 * time.Second, Backoff: retry.Fixed},
		Verify:            verify.Options{NameContains: "agent", Marker: "tehtris"},
		Thresholds:        locate.DefaultThresholds,
		Queries:           DefaultQueries(),
	}
}

// Session is the explicit context threaded through every step: the bound
// window, attempt counters and collaborators of one run.
type Session struct {
	RunID   string
	Options Options
	DryRun  bool

	Provider *platform.Provider
	Resolver *locate.Resolver
	Actuator *actuate.Actuator
	Verifier *verify.Verifier
	Runner   *retry.Runner
	Clock    clock.Clock
	Log      *zap.Logger
	Binding  *locate.Binding

	// State is the state currently being driven.
	State State
	// Attempts is the latest attempt number per state.
	Attempts map[State]int
	// Last is the most recently located element.
	Last *model.LocatedElement
	// PID of the launched installer, zero until launched.
	PID int

	soft     bool
	warnings []string
}

// NewSession wires the collaborators for one run. p may be nil in dry-run
// mode, where nothing touches the platform.
func NewSession(opts Options, p *platform.Provider, text locate.TextReader, c clock.Clock, log *zap.Logger, dryRun bool) (*Session, error) {
	if p == nil && !dryRun {
		return nil, fmt.Errorf("a platform provider is required unless running dry")
	}
	if c == nil {
		c = clock.Real{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if p == nil {
		p = &platform.Provider{}
	}
	runID := uuid.NewString()
	log = log.With(zap.String("run_id", runID))

	binding := locate.NewBinding(opts.TitlePattern)
	res := locate.NewResolver(p.Probe, text, binding, log.Named("locate"))
	res.Strategies = locate.DefaultStrategies(opts.Thresholds)
	res.DryRun = dryRun

	act := actuate.New(p.Inputter, p.Messenger, c, log.Named("actuate"))
	act.Settle = opts.Settle
	act.DryRun = dryRun

	return &Session{
		RunID:    runID,
		Options:  opts,
		DryRun:   dryRun,
		Provider: p,
		Resolver: res,
		Actuator: act,
		Verifier: verify.New(p.Processes, opts.Verify, log.Named("verify")),
		Runner:   retry.NewRunner(c, log.Named("retry")),
		Clock:    c,
		Log:      log,
		Binding:  binding,
		Attempts: map[State]int{},
	}, nil
}

// Warn records a non-fatal problem for the run report.
func (s *Session) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.warnings = append(s.warnings, fmt.Sprintf("%s: %s", s.State, msg))
	s.Log.Warn(msg, zap.Stringer("state", s.State))
}

// MarkSoft flags the current step as completed by policy rather than by
// observed success.
func (s *Session) MarkSoft() {
	s.soft = true
}

// Locate resolves q against a fresh scene and remembers the result.
func (s *Session) Locate(ctx context.Context, q model.ElementQuery, opts ...locate.ResolveOption) (*model.LocatedElement, error) {
	el, err := s.Resolver.Resolve(ctx, q, opts...)
	if err == nil {
		s.Last = el
	}
	return el, err
}

// Click resolves q and clicks it.
func (s *Session) Click(ctx context.Context, q model.ElementQuery, opts ...locate.ResolveOption) error {
	el, err := s.Locate(ctx, q, opts...)
	if err != nil {
		return err
	}
	return s.Actuator.Activate(ctx, el, actuate.Click())
}
