package ocr

import (
	"sort"
	"strings"

	"github.com/mj1618/wizard-pilot/internal/model"
	"github.com/mj1618/wizard-pilot/internal/textmatch"
)

// Scores for OCR span matches. Tesseract often glues punctuation to the
// preceding word ("Next>") or splits a caption oddly, so near-misses are
// accepted at a discount.
const (
	scoreCompact   = 0.95
	scoreSubstring = 0.85
)

// Line is a run of words sharing a tesseract block/paragraph/line id.
type Line struct {
	Text  string
	Words []Word
	Box   model.Rect
}

// Lines groups words into lines, preserving recognition order.
func Lines(words []Word) []Line {
	type key struct{ b, p, l int }
	index := map[key]int{}
	var lines []Line
	for _, w := range words {
		k := key{w.Block, w.Par, w.Line}
		i, ok := index[k]
		if !ok {
			i = len(lines)
			index[k] = i
			lines = append(lines, Line{})
		}
		lines[i].Words = append(lines[i].Words, w)
		lines[i].Box = lines[i].Box.Union(w.Box)
	}
	for i := range lines {
		texts := make([]string, len(lines[i].Words))
		for j, w := range lines[i].Words {
			texts[j] = w.Text
		}
		lines[i].Text = strings.Join(texts, " ")
	}
	return lines
}

// Match is a span of consecutive words on one line that matched a variant.
type Match struct {
	Text     string // the matched span
	Variant  string // the variant it matched
	LineText string
	Box      model.Rect
	// Score is the textual match quality, Confidence is Score scaled by the
	// lowest word confidence in the span.
	Score      float64
	Confidence float64

	words int
}

// FindText searches every line for spans matching any of variants and
// returns the best match per line, best first.
func FindText(words []Word, variants []string) []Match {
	maxSpan := 1
	for _, v := range variants {
		if n := len(textmatch.Tokens(v)); n+1 > maxSpan {
			maxSpan = n + 1
		}
	}

	var matches []Match
	for _, line := range Lines(words) {
		var best *Match
		for i := range line.Words {
			for j := i; j < len(line.Words) && j-i < maxSpan; j++ {
				span := line.Words[i : j+1]
				m, ok := scoreSpan(span, variants)
				if !ok {
					continue
				}
				m.LineText = line.Text
				m.words = len(span)
				if best == nil || better(m, *best) {
					mm := m
					best = &mm
				}
			}
		}
		if best != nil {
			matches = append(matches, *best)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return better(matches[i], matches[j])
	})
	return matches
}

// better ranks by textual score, then by span length so that the whole
// caption wins over a fragment of it, then by confidence.
func better(a, b Match) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.words != b.words {
		return a.words > b.words
	}
	return a.Confidence > b.Confidence
}

func scoreSpan(span []Word, variants []string) (Match, bool) {
	texts := make([]string, len(span))
	minConf := 1.0
	var box model.Rect
	for i, w := range span {
		texts[i] = w.Text
		minConf = min(minConf, w.Confidence)
		box = box.Union(w.Box)
	}
	text := strings.Join(texts, " ")

	bestScore, bestVariant := 0.0, ""
	for _, v := range variants {
		s := textmatch.Score(text, v)
		if s == 0 && compact(text) == compact(v) && compact(v) != "" {
			s = scoreCompact
		}
		if s == 0 && len(span) == 1 && len([]rune(compact(v))) >= 3 && strings.Contains(compact(text), compact(v)) {
			s = scoreSubstring
		}
		if s > bestScore {
			bestScore, bestVariant = s, v
		}
	}
	if bestScore == 0 {
		return Match{}, false
	}
	return Match{
		Text:       text,
		Variant:    bestVariant,
		Box:        box,
		Score:      bestScore,
		Confidence: bestScore * minConf,
	}, true
}

func compact(s string) string {
	return strings.ReplaceAll(textmatch.Normalize(s), " ", "")
}
