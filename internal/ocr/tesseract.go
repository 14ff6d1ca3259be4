package ocr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mj1618/wizard-pilot/internal/model"
)

// Tesseract shells out to the tesseract CLI and parses its TSV output.
type Tesseract struct {
	Binary   string // defaults to "tesseract"
	Language string // defaults to "eng"
	PSM      int    // page segmentation mode, 0 leaves the tesseract default
}

// Recognize implements Engine.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) ([]Word, error) {
	var in bytes.Buffer
	if err := png.Encode(&in, img); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	bin := t.Binary
	if bin == "" {
		bin = "tesseract"
	}
	lang := t.Language
	if lang == "" {
		lang = "eng"
	}
	args := []string{"stdin", "stdout", "-l", lang}
	if t.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.PSM))
	}
	args = append(args, "tsv")

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = &in
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("running %s: %w: %s", bin, err, strings.TrimSpace(stderr.String()))
	}
	return ParseTSV(&stdout)
}

// ParseTSV parses tesseract's TSV output, returning word-level rows with a
// non-empty text and a non-negative confidence.
func ParseTSV(r io.Reader) ([]Word, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var words []Word
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if lineNo == 1 && strings.HasPrefix(line, "level") {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 11 {
			return nil, fmt.Errorf("tsv line %d: expected 12 columns, got %d", lineNo, len(cols))
		}
		text := ""
		if len(cols) >= 12 {
			text = strings.TrimSpace(cols[11])
		}
		if cols[0] != "5" || text == "" {
			continue
		}
		nums := make([]int, 10)
		for i := 0; i < 10; i++ {
			n, err := strconv.Atoi(cols[i])
			if err != nil {
				return nil, fmt.Errorf("tsv line %d column %d: %w", lineNo, i+1, err)
			}
			nums[i] = n
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil {
			return nil, fmt.Errorf("tsv line %d confidence: %w", lineNo, err)
		}
		if conf < 0 {
			continue
		}
		words = append(words, Word{
			Text:       text,
			Box:        model.RectFromBounds(nums[6], nums[7], nums[8], nums[9]),
			Confidence: conf / 100,
			Block:      nums[2],
			Par:        nums[3],
			Line:       nums[4],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return words, nil
}
