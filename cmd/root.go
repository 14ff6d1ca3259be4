package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mj1618/wizard-pilot/internal/output"
	"github.com/mj1618/wizard-pilot/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "wizard-pilot",
	Short: "Drive a Windows installer wizard unattended",
	Long: "wizard-pilot launches an MSI setup wizard and clicks through it, locating each control " +
		"by window handle, OCR, colour shape, fixed coordinates or keyboard shortcut, whichever works first.",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	pf := rootCmd.PersistentFlags()
	pf.String("format", "yaml", "Output format: yaml, json")
	pf.Bool("pretty", false, "Indent JSON output")
	pf.String("config", "", "Config file (default ./wizard-pilot.yaml if present)")
	pf.String("log-level", "", "Console log level: debug, info, warn, error")
	pf.String("log-file", "", "JSON log file, always written at debug level")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, _ := rootCmd.PersistentFlags().GetString("format")
		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		output.OutputFormat = f
		output.PrettyOutput, _ = rootCmd.PersistentFlags().GetBool("pretty")
		output.Writer = cmd.OutOrStdout()
		return nil
	}
}
