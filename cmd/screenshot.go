package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/wizard-pilot/internal/capture"
	"github.com/mj1618/wizard-pilot/internal/locate"
	"github.com/mj1618/wizard-pilot/internal/output"
)

var screenshotCmd = &cobra.Command{
	Use:   "screenshot",
	Short: "Capture the screen to a PNG",
	Long:  "Capture the whole desktop. With --text, the element resolved for that caption is outlined with its strategy and confidence.",
	RunE:  runScreenshot,
}

func init() {
	rootCmd.AddCommand(screenshotCmd)
	screenshotCmd.Flags().String("output", "screenshot.png", "Output file path")
	addQueryFlags(screenshotCmd)
}

type screenshotResult struct {
	Path    string `yaml:"path"              json:"path"`
	Width   int    `yaml:"width"             json:"width"`
	Height  int    `yaml:"height"            json:"height"`
	Located string `yaml:"located,omitempty" json:"located,omitempty"`
}

func runScreenshot(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("output")
	texts, _ := cmd.Flags().GetStringSlice("text")

	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	provider, err := newProvider()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd)
	defer cancel()

	frame, err := provider.Probe.CaptureFrame(ctx)
	if err != nil {
		return err
	}
	img := frame.Pixels
	res := screenshotResult{Path: path, Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}

	if len(texts) > 0 {
		q, err := queryFromFlags(cmd)
		if err != nil {
			return err
		}
		binding, err := bindInstaller(ctx, provider, s)
		if err != nil {
			return err
		}
		log, cleanup, err := newLogger(s)
		if err != nil {
			return err
		}
		defer cleanup()
		r := locate.NewResolver(provider.Probe, newTextReader(s), binding, log.Named("locate"))
		el, err := r.Resolve(ctx, q)
		if err != nil {
			return fmt.Errorf("annotating: %w", err)
		}
		res.Located = el.String()
		img = capture.Annotate(img, frame.Origin, []capture.Mark{capture.MarkFor(el)})
	}

	if err := capture.WritePNG(path, img); err != nil {
		return err
	}
	return output.Print(res)
}
