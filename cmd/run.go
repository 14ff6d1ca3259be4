package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mj1618/wizard-pilot/internal/capture"
	"github.com/mj1618/wizard-pilot/internal/output"
	"github.com/mj1618/wizard-pilot/internal/platform"
	"github.com/mj1618/wizard-pilot/internal/wizard"
)

var runCmd = &cobra.Command{
	Use:   "run [installer.msi]",
	Short: "Drive the installer wizard from launch to finish",
	Long: "Launch the installer, click through welcome and license, fill the activation " +
		"fields, install, wait for Finish and verify the agent process. Prints a run report " +
		"and exits non-zero if the run ends in Failed.",
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	f := runCmd.Flags()
	f.String("msi-path", "", "Installer to launch")
	f.Bool("dry-run", false, "Log every action without launching or touching the desktop")
	f.String("server", "", "Activation server address")
	f.String("tag", "", "Activation tag (must carry the configured prefix)")
	f.String("license", "", "Activation license key")
	f.String("screenshots", "", "Directory for per-step screenshots")
	f.String("window-title", "", "Regexp matching the installer window title")
	f.Duration("completion-timeout", 0, "How long to wait for the Finish button")
	f.Bool("minimize", false, "Minimize all windows before launching")
}

func runRun(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		s.InstallerPath = args[0]
	}
	if err := s.Validate(); err != nil {
		return err
	}
	opts, err := s.WizardOptions()
	if err != nil {
		return err
	}

	log, cleanup, err := newLogger(s)
	if err != nil {
		return err
	}
	defer cleanup()

	provider, err := newProvider()
	if err != nil {
		if !s.DryRun || !errors.Is(err, platform.ErrUnsupported) {
			return err
		}
		log.Info("no platform backend, dry-run continues without one")
		provider = nil
	}

	sess, err := wizard.NewSession(opts, provider, newTextReader(s), newClock(), log, s.DryRun)
	if err != nil {
		return err
	}
	var hooks wizard.Hooks
	if s.Screenshots != "" && provider != nil {
		hooks = capture.NewSaver(s.Screenshots, provider.Probe, log.Named("capture")).Hooks()
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()
	log.Info("starting", zap.String("installer", s.InstallerPath), zap.String("run_id", sess.RunID))
	report, runErr := wizard.NewController(sess, hooks).Run(ctx)
	if err := output.Print(report); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("run failed in %w", runErr)
	}
	return nil
}
