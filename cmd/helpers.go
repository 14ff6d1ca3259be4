package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mj1618/wizard-pilot/internal/clock"
	"github.com/mj1618/wizard-pilot/internal/config"
	"github.com/mj1618/wizard-pilot/internal/locate"
	"github.com/mj1618/wizard-pilot/internal/logging"
	"github.com/mj1618/wizard-pilot/internal/model"
	"github.com/mj1618/wizard-pilot/internal/ocr"
	"github.com/mj1618/wizard-pilot/internal/platform"
)

// Seams swapped by tests.
var (
	newProvider   = platform.NewProvider
	newTextReader = func(s *config.Settings) locate.TextReader {
		l := ocr.NewLocator(&ocr.Tesseract{Binary: s.OCR.Binary, Language: s.OCR.Language, PSM: s.OCR.PSM})
		l.Scale = s.OCR.Scale
		return l
	}
	newClock = func() clock.Clock { return clock.Real{} }
)

// flagKeys maps command flags to config keys.
var flagKeys = map[string]string{
	"msi-path":           "installer",
	"dry-run":            "dry_run",
	"server":             "install.server",
	"tag":                "install.tag",
	"license":            "install.license",
	"screenshots":        "screenshots",
	"window-title":       "window_title",
	"completion-timeout": "timeouts.completion",
	"minimize":           "minimize_windows",
	"log-level":          "log.level",
	"log-file":           "log.file",
}

// loadSettings layers defaults, the config file, WIZARD_PILOT_* variables
// and explicitly set flags.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	v := viper.New()
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return nil, bindErr
	}
	path, _ := cmd.Flags().GetString("config")
	return config.Load(v, path)
}

func newLogger(s *config.Settings) (*zap.Logger, func(), error) {
	return logging.New(logging.Options{Level: s.Log.Level, File: s.Log.File})
}

// signalContext cancels on Ctrl+C so a run stops between attempts.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}

// bindInstaller returns a binding to the installer window if one is open,
// otherwise a pixel-only binding.
func bindInstaller(ctx context.Context, p *platform.Provider, s *config.Settings) (*locate.Binding, error) {
	title, err := s.TitlePattern()
	if err != nil {
		return nil, err
	}
	b := locate.NewBinding(title)
	windows, err := p.Probe.ListWindows(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing windows: %w", err)
	}
	if w, ok := b.Match(windows); ok {
		b.Bind(w)
	} else {
		b.Lose()
	}
	return b, nil
}

// queryFromFlags builds an ElementQuery from find/screenshot flags.
func queryFromFlags(cmd *cobra.Command) (model.ElementQuery, error) {
	texts, _ := cmd.Flags().GetStringSlice("text")
	role, _ := cmd.Flags().GetString("role")
	classes, _ := cmd.Flags().GetStringSlice("class")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	fallbacks, _ := cmd.Flags().GetStringSlice("fallback")
	shortcut, _ := cmd.Flags().GetString("shortcut")

	if len(texts) == 0 && len(fallbacks) == 0 && shortcut == "" {
		return model.ElementQuery{}, errors.New("at least one of --text, --fallback or --shortcut is required")
	}
	q := model.ElementQuery{Role: role, Texts: texts, Classes: classes, Exclude: exclude}
	for _, f := range fallbacks {
		pt, err := platform.ParsePoint(f)
		if err != nil {
			return q, err
		}
		q.Fallback = append(q.Fallback, pt)
	}
	if shortcut != "" {
		keys, err := platform.ParseKeyCombo(shortcut)
		if err != nil {
			return q, err
		}
		q.Shortcut = keys
	}
	return q, nil
}

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("text", nil, "Caption variant to match (repeatable, first is preferred)")
	cmd.Flags().String("role", "", "Accepted role: btn, input, txt, lnk, list")
	cmd.Flags().StringSlice("class", nil, "Accepted window classes, e.g. Button")
	cmd.Flags().StringSlice("exclude", nil, "Reject captions containing these words")
	cmd.Flags().StringSlice("fallback", nil, "Fixed \"x,y\" point to use when nothing else matches")
	cmd.Flags().String("shortcut", "", "Keyboard accelerator, e.g. alt+n")
}
