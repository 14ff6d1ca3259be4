// Package capture saves annotated screenshots around wizard steps.
package capture

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mj1618/wizard-pilot/internal/model"
	"github.com/mj1618/wizard-pilot/internal/platform"
	"github.com/mj1618/wizard-pilot/internal/wizard"
)

// Phases name when a screenshot was taken.
const (
	PhasePre     = "pre"
	PhasePost    = "post"
	PhaseFailure = "failure"
)

// Saver writes <Dir>/<run id>/<nn>_<state>_<phase>.png for every hook
// call. Capture failures are logged and never fail the run.
type Saver struct {
	Dir   string
	Probe platform.ScreenProbe
	Log   *zap.Logger

	mu  sync.Mutex
	seq int
}

// NewSaver returns a Saver writing under dir.
func NewSaver(dir string, probe platform.ScreenProbe, log *zap.Logger) *Saver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Saver{Dir: dir, Probe: probe, Log: log}
}

// Hooks returns controller hooks that capture before and after every step
// and on failure.
func (s *Saver) Hooks() wizard.Hooks {
	return wizard.Hooks{
		PreStep:   []wizard.HookFunc{s.Hook(PhasePre)},
		PostStep:  []wizard.HookFunc{s.Hook(PhasePost)},
		OnFailure: []wizard.HookFunc{s.Hook(PhaseFailure)},
	}
}

// Hook returns a HookFunc saving one screenshot tagged with phase. The
// session's last located element is outlined on post and failure shots.
func (s *Saver) Hook(phase string) wizard.HookFunc {
	return func(ctx context.Context, sess *wizard.Session, state wizard.State, _ error) error {
		if sess.DryRun || s.Probe == nil {
			return nil
		}
		path, err := s.save(ctx, sess, state, phase)
		if err != nil {
			s.Log.Warn("screenshot failed", zap.Stringer("state", state), zap.String("phase", phase), zap.Error(err))
			return nil
		}
		s.Log.Debug("screenshot saved", zap.String("path", path))
		return nil
	}
}

func (s *Saver) save(ctx context.Context, sess *wizard.Session, state wizard.State, phase string) (string, error) {
	frame, err := s.Probe.CaptureFrame(ctx)
	if err != nil {
		return "", err
	}
	var marks []Mark
	if phase != PhasePre && sess.Last != nil && sess.Last.Kind != model.TargetShortcut {
		marks = append(marks, MarkFor(sess.Last))
	}

	s.mu.Lock()
	s.seq++
	name := fmt.Sprintf("%02d_%s_%s.png", s.seq, strings.ToLower(state.String()), phase)
	s.mu.Unlock()

	dir := filepath.Join(s.Dir, sess.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	var img image.Image = frame.Pixels
	if len(marks) > 0 {
		img = Annotate(frame.Pixels, frame.Origin, marks)
	}
	return path, WritePNG(path, img)
}

// WritePNG encodes img to path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
