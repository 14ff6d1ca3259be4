// Package config loads run settings from flags, a YAML file and
// WIZARD_PILOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mj1618/wizard-pilot/internal/locate"
	"github.com/mj1618/wizard-pilot/internal/model"
	"github.com/mj1618/wizard-pilot/internal/retry"
	"github.com/mj1618/wizard-pilot/internal/verify"
	"github.com/mj1618/wizard-pilot/internal/wizard"
)

// EnvPrefix namespaces environment overrides, e.g. WIZARD_PILOT_INSTALL_TAG.
const EnvPrefix = "WIZARD_PILOT"

// Timeouts of the wizard run.
type Timeouts struct {
	LaunchWait   time.Duration `mapstructure:"launch_wait"   yaml:"launch_wait"`
	Window       time.Duration `mapstructure:"window"        yaml:"window"`
	Completion   time.Duration `mapstructure:"completion"    yaml:"completion"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	Settle       time.Duration `mapstructure:"settle"        yaml:"settle"`
}

// RetrySettings apply to every screen step.
type RetrySettings struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	Delay       time.Duration `mapstructure:"delay"        yaml:"delay"`
	Backoff     string        `mapstructure:"backoff"      yaml:"backoff"`
}

// OCRSettings configure the tesseract text locator.
type OCRSettings struct {
	Binary        string  `mapstructure:"binary"         yaml:"binary"`
	Language      string  `mapstructure:"language"       yaml:"language"`
	PSM           int     `mapstructure:"psm"            yaml:"psm"`
	Scale         int     `mapstructure:"scale"          yaml:"scale"`
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
}

// ShapeSettings configure the colour-signature locator.
type ShapeSettings struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Signature overrides the default button signature when MinArea is set.
	Signature     model.ShapeSignature `mapstructure:"signature"      yaml:"signature"`
	MinConfidence float64              `mapstructure:"min_confidence" yaml:"min_confidence"`
}

// VerifySettings describe the post-install process check.
type VerifySettings struct {
	NameContains string        `mapstructure:"name_contains" yaml:"name_contains"`
	Marker       string        `mapstructure:"marker"        yaml:"marker"`
	MinVersion   string        `mapstructure:"min_version"   yaml:"min_version"`
	Attempts     int           `mapstructure:"attempts"      yaml:"attempts"`
	Delay        time.Duration `mapstructure:"delay"         yaml:"delay"`
}

// LogSettings select the console level and the JSON log file.
type LogSettings struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file"  yaml:"file"`
}

// Settings is everything a run needs.
type Settings struct {
	InstallerPath   string                   `mapstructure:"installer"        yaml:"installer"`
	DryRun          bool                     `mapstructure:"dry_run"          yaml:"dry_run"`
	Install         model.InstallationConfig `mapstructure:"install"          yaml:"install"`
	TagPrefix       string                   `mapstructure:"tag_prefix"       yaml:"tag_prefix"`
	WindowTitle     string                   `mapstructure:"window_title"     yaml:"window_title"`
	MinimizeWindows bool                     `mapstructure:"minimize_windows" yaml:"minimize_windows"`
	Screenshots     string                   `mapstructure:"screenshots"      yaml:"screenshots"`
	HandleMin       float64                  `mapstructure:"handle_min_confidence" yaml:"handle_min_confidence"`

	Timeouts Timeouts       `mapstructure:"timeouts" yaml:"timeouts"`
	Retry    RetrySettings  `mapstructure:"retry"    yaml:"retry"`
	OCR      OCRSettings    `mapstructure:"ocr"      yaml:"ocr"`
	Shape    ShapeSettings  `mapstructure:"shape"    yaml:"shape"`
	Verify   VerifySettings `mapstructure:"verify"   yaml:"verify"`
	Log      LogSettings    `mapstructure:"log"      yaml:"log"`

	// Texts and Fallbacks override caption variants and fallback points per
	// query key (next, accept, install, finish, close, server, tag, license).
	Texts     map[string][]string `mapstructure:"texts"     yaml:"texts,omitempty"`
	Fallbacks map[string][]string `mapstructure:"fallbacks" yaml:"fallbacks,omitempty"`
}

// SetDefaults registers every key with its default so environment
// variables can override keys absent from the config file.
func SetDefaults(v *viper.Viper) {
	d := wizard.DefaultOptions()
	v.SetDefault("installer", "")
	v.SetDefault("dry_run", false)
	v.SetDefault("install.server", "")
	v.SetDefault("install.tag", "")
	v.SetDefault("install.license", "")
	v.SetDefault("tag_prefix", d.TagPrefix)
	v.SetDefault("window_title", d.TitlePattern.String())
	v.SetDefault("minimize_windows", false)
	v.SetDefault("screenshots", "")
	v.SetDefault("handle_min_confidence", d.Thresholds.Handle)

	v.SetDefault("timeouts.launch_wait", d.LaunchWait)
	v.SetDefault("timeouts.window", d.WindowTimeout)
	v.SetDefault("timeouts.completion", d.CompletionTimeout)
	v.SetDefault("timeouts.poll_interval", d.PollInterval)
	v.SetDefault("timeouts.settle", d.Settle)

	v.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("retry.delay", d.Retry.Delay)
	v.SetDefault("retry.backoff", "linear")

	v.SetDefault("ocr.binary", "tesseract")
	v.SetDefault("ocr.language", "eng+fra")
	v.SetDefault("ocr.psm", 11)
	v.SetDefault("ocr.scale", 2)
	v.SetDefault("ocr.min_confidence", d.Thresholds.OCR)

	v.SetDefault("shape.enabled", true)
	v.SetDefault("shape.min_confidence", d.Thresholds.Shape)

	v.SetDefault("verify.name_contains", d.Verify.NameContains)
	v.SetDefault("verify.marker", d.Verify.Marker)
	v.SetDefault("verify.min_version", "")
	v.SetDefault("verify.attempts", d.VerifyRetry.MaxAttempts)
	v.SetDefault("verify.delay", d.VerifyRetry.Delay)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "wizard-pilot.log")
}

// Load reads path (or ./wizard-pilot.yaml when path is empty and the file
// exists) over the defaults and environment, and decodes the result.
func Load(v *viper.Viper, path string) (*Settings, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("wizard-pilot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &s, nil
}

// TitlePattern compiles the window title regexp.
func (s *Settings) TitlePattern() (*regexp.Regexp, error) {
	re, err := regexp.Compile(s.WindowTitle)
	if err != nil {
		return nil, fmt.Errorf("window_title: %w", err)
	}
	return re, nil
}

// Validate checks the settings a run cannot start without. Activation
// values may be blank in dry-run mode.
func (s *Settings) Validate() error {
	var errs []error
	if s.InstallerPath == "" {
		errs = append(errs, errors.New("installer path is required"))
	}
	if !s.DryRun {
		if s.Install.ServerAddress == "" {
			errs = append(errs, errors.New("install.server is required"))
		}
		if s.Install.LicenseKey == "" {
			errs = append(errs, errors.New("install.license is required"))
		}
		if s.Install.Tag == "" {
			errs = append(errs, errors.New("install.tag is required"))
		}
	}
	if s.Install.Tag != "" && s.TagPrefix != "" && !strings.HasPrefix(s.Install.Tag, s.TagPrefix) {
		errs = append(errs, fmt.Errorf("install.tag %q must start with %q", s.Install.Tag, s.TagPrefix))
	}
	for name, d := range map[string]time.Duration{
		"timeouts.window":        s.Timeouts.Window,
		"timeouts.completion":    s.Timeouts.Completion,
		"timeouts.poll_interval": s.Timeouts.PollInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if s.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be at least 1, got %d", s.Retry.MaxAttempts))
	}
	if _, err := retry.ParseBackoff(s.Retry.Backoff); err != nil {
		errs = append(errs, fmt.Errorf("retry.backoff: %w", err))
	}
	if _, err := s.TitlePattern(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// WizardOptions converts validated settings into controller options.
func (s *Settings) WizardOptions() (wizard.Options, error) {
	o := wizard.DefaultOptions()
	title, err := s.TitlePattern()
	if err != nil {
		return o, err
	}
	backoff, err := retry.ParseBackoff(s.Retry.Backoff)
	if err != nil {
		return o, err
	}

	o.InstallerPath = s.InstallerPath
	o.Install = s.Install
	o.TagPrefix = s.TagPrefix
	o.TitlePattern = title
	o.MinimizeWindows = s.MinimizeWindows
	o.LaunchWait = s.Timeouts.LaunchWait
	o.WindowTimeout = s.Timeouts.Window
	o.CompletionTimeout = s.Timeouts.Completion
	o.PollInterval = s.Timeouts.PollInterval
	o.Settle = s.Timeouts.Settle
	o.Retry = retry.Policy{MaxAttempts: s.Retry.MaxAttempts, Delay: s.Retry.Delay, Backoff: backoff}
	o.VerifyRetry = retry.Policy{MaxAttempts: s.Verify.Attempts, Delay: s.Verify.Delay, Backoff: retry.Fixed}
	o.Verify = verify.Options{NameContains: s.Verify.NameContains, Marker: s.Verify.Marker, MinVersion: s.Verify.MinVersion}
	o.Thresholds = locate.Thresholds{Handle: s.HandleMin, OCR: s.OCR.MinConfidence, Shape: s.Shape.MinConfidence}

	if err := o.Queries.Override(s.Texts, s.Fallbacks); err != nil {
		return o, err
	}
	switch {
	case !s.Shape.Enabled:
		o.Queries.DisableShapes()
	case s.Shape.Signature.MinArea > 0:
		sig := s.Shape.Signature
		o.Queries.Next.Shape = &sig
		o.Queries.Install.Shape = &sig
	}
	return o, nil
}
