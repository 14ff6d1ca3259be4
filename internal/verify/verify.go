// Package verify confirms an install by looking for the product's agent
// process after the wizard closes.
package verify

import (
	"context"
	"fmt"
	"strings"

	version "github.com/hashicorp/go-version"
	"go.uber.org/zap"

	"github.com/mj1618/wizard-pilot/internal/model"
	"github.com/mj1618/wizard-pilot/internal/platform"
)

// Options describe which process counts as the installed agent.
type Options struct {
	// NameContains must appear in the process name (case-insensitive).
	NameContains string
	// Marker must appear in the executable's file description or path.
	Marker string
	// MinVersion, when set, is the lowest acceptable product version.
	MinVersion string
}

// Result lists the matching processes.
type Result struct {
	Found []model.Process `yaml:"found" json:"found"`
}

// Verifier checks running processes against Options.
type Verifier struct {
	Processes platform.ProcessLister
	Options   Options
	Log       *zap.Logger
}

// New returns a Verifier.
func New(pl platform.ProcessLister, opts Options, log *zap.Logger) *Verifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Verifier{Processes: pl, Options: opts, Log: log}
}

// Check scans the process list once. It returns an error wrapping
// model.ErrVerificationInconclusive when no process qualifies or the list
// cannot be read.
func (v *Verifier) Check(ctx context.Context) (Result, error) {
	var minVer *version.Version
	if v.Options.MinVersion != "" {
		mv, err := version.NewVersion(v.Options.MinVersion)
		if err != nil {
			return Result{}, fmt.Errorf("invalid minimum version %q: %w", v.Options.MinVersion, err)
		}
		minVer = mv
	}

	procs, err := v.Processes.Processes(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: listing processes: %v", model.ErrVerificationInconclusive, err)
	}

	name := strings.ToLower(v.Options.NameContains)
	marker := strings.ToLower(v.Options.Marker)
	var res Result
	for _, p := range procs {
		if name != "" && !strings.Contains(strings.ToLower(p.Name), name) {
			continue
		}
		log := v.Log.With(zap.Int("pid", p.PID), zap.String("name", p.Name))

		if p.Exe != "" {
			if info, err := v.Processes.FileInfo(p.Exe); err != nil {
				log.Debug("no version info", zap.Error(err))
			} else {
				p.Description = info.Description
				p.Version = info.ProductVersion
			}
		}

		if marker != "" &&
			!strings.Contains(strings.ToLower(p.Description), marker) &&
			!strings.Contains(strings.ToLower(p.Exe), marker) {
			log.Debug("candidate process lacks marker", zap.String("exe", p.Exe))
			continue
		}

		if minVer != nil {
			have, err := version.NewVersion(p.Version)
			if err != nil {
				log.Debug("unparseable product version", zap.String("version", p.Version), zap.Error(err))
				continue
			}
			if have.LessThan(minVer) {
				log.Info("agent older than required",
					zap.String("version", have.String()),
					zap.String("min_version", minVer.String()))
				continue
			}
		}

		log.Info("agent process found", zap.String("exe", p.Exe), zap.String("version", p.Version))
		res.Found = append(res.Found, p)
	}

	if len(res.Found) == 0 {
		return res, fmt.Errorf("%w: no process named *%s* with marker %q", model.ErrVerificationInconclusive, v.Options.NameContains, v.Options.Marker)
	}
	return res, nil
}
