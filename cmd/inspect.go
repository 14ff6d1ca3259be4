package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/wizard-pilot/internal/model"
	"github.com/mj1618/wizard-pilot/internal/output"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Dump the installer window's controls and OCR text",
	Long:  "Find the installer window by title and print every child control (class, role, text, rect). With --ocr, also print the recognised text lines of the screen.",
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().String("window-title", "", "Regexp matching the installer window title")
	inspectCmd.Flags().Bool("ocr", false, "Include OCR lines of the current screen")
	inspectCmd.Flags().Bool("all", false, "Include hidden and disabled controls")
}

func runInspect(cmd *cobra.Command, args []string) error {
	withOCR, _ := cmd.Flags().GetBool("ocr")
	all, _ := cmd.Flags().GetBool("all")

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

	binding, err := bindInstaller(ctx, provider, s)
	if err != nil {
		return err
	}
	res := output.InspectResult{PixelOnly: binding.PixelOnly(), Controls: []model.Control{}}
	if w, ok := binding.Window(); ok {
		res.Window = &w
		controls, err := provider.Probe.ListControls(ctx, w.Handle)
		if err != nil {
			return err
		}
		if !all {
			controls = model.FilterControls(controls, nil, nil, true)
		}
		model.SortByPosition(controls, 5)
		res.Controls = append(res.Controls, controls...)
	}

	if withOCR {
		frame, err := provider.Probe.CaptureFrame(ctx)
		if err != nil {
			return err
		}
		words, err := newTextReader(s).Read(ctx, frame)
		if err != nil {
			return err
		}
		res.Lines = output.OCRLines(words)
	}
	return output.Print(res)
}
