// Package output prints command results as YAML or JSON.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/mj1618/wizard-pilot/internal/model"
	"github.com/mj1618/wizard-pilot/internal/ocr"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// OutputFormat is the current output format, set by the root command's --format flag.
var OutputFormat Format = FormatYAML

// PrettyOutput enables pretty-printing for JSON output.
var PrettyOutput bool

// Writer is where Print writes; tests swap it.
var Writer io.Writer = os.Stdout

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatYAML:
		return FormatYAML, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported format: %s (use yaml or json)", s)
}

// InspectResult is the output of the `inspect` command.
type InspectResult struct {
	Window    *model.Window   `yaml:"window,omitempty"    json:"window,omitempty"`
	PixelOnly bool            `yaml:"pixel_only,omitempty" json:"pixel_only,omitempty"`
	Controls  []model.Control `yaml:"controls"            json:"controls"`
	Lines     []string        `yaml:"ocr_lines,omitempty" json:"ocr_lines,omitempty"`
}

// FindResult is the output of the `find` command.
type FindResult struct {
	Query   string                `yaml:"query"             json:"query"`
	Element *model.LocatedElement `yaml:"element,omitempty" json:"element,omitempty"`
	Tried   []string              `yaml:"tried,omitempty"   json:"tried,omitempty"`
	Error   string                `yaml:"error,omitempty"   json:"error,omitempty"`
}

// OCRLines renders recognised words as one string per line.
func OCRLines(words []ocr.Word) []string {
	lines := ocr.Lines(words)
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, fmt.Sprintf("%s %s", l.Box, l.Text))
	}
	return out
}

// Print serializes v to Writer in the current output format.
func Print(v interface{}) error {
	switch OutputFormat {
	case FormatJSON:
		if PrettyOutput {
			return PrintPrettyJSON(Writer, v)
		}
		return PrintJSON(Writer, v)
	case FormatYAML:
		return PrintYAML(Writer, v)
	default:
		return fmt.Errorf("unsupported output format: %s", OutputFormat)
	}
}
