// Package textmatch normalizes control captions and OCR output so that
// accelerator markers, accents, case and spacing do not affect matching.
package textmatch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// ScoreExact is the score for captions equal after normalization.
	ScoreExact = 1.0
	// ScoreContains is the score for a variant found as a whole-word run.
	ScoreContains = 0.9
)

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'", "´", "'")

// Normalize lowercases s, folds accents, strips single '&' accelerator
// markers ("&&" is kept as a literal '&'), unifies apostrophes and collapses
// runs of whitespace.
func Normalize(s string) string {
	s = stripAccelerators(s)
	s = apostrophes.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func stripAccelerators(s string) string {
	if !strings.ContainsRune(s, '&') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		if rs[i] == '&' {
			if i+1 < len(rs) && rs[i+1] == '&' {
				b.WriteRune('&')
				i++
			}
			continue
		}
		b.WriteRune(rs[i])
	}
	return b.String()
}

// Tokens splits the normalized form of s into words.
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

// Score rates how well candidate matches variant: ScoreExact when equal
// after normalization, ScoreContains when every word of variant appears
// contiguously in candidate, otherwise 0.
func Score(candidate, variant string) float64 {
	c, v := Normalize(candidate), Normalize(variant)
	if v == "" || c == "" {
		return 0
	}
	if c == v {
		return ScoreExact
	}
	if containsRun(strings.Fields(c), strings.Fields(v)) {
		return ScoreContains
	}
	return 0
}

// Best returns the highest score of candidate against any variant and the
// variant that produced it. Earlier variants win ties.
func Best(candidate string, variants []string) (float64, string) {
	best, which := 0.0, ""
	for _, v := range variants {
		if s := Score(candidate, v); s > best {
			best, which = s, v
		}
	}
	return best, which
}

// ContainsAny reports whether any of words appears as a whole word in text.
func ContainsAny(text string, words []string) bool {
	if len(words) == 0 {
		return false
	}
	tokens := Tokens(text)
	for _, w := range words {
		if containsRun(tokens, Tokens(w)) {
			return true
		}
	}
	return false
}

func containsRun(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j := range needle {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return true
	}
	return false
}

// Variants returns texts followed by their accelerator-free forms, with
// duplicates removed while preserving order.
func Variants(texts ...string) []string {
	seen := make(map[string]bool, len(texts))
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		for _, v := range []string{t, stripAccelerators(t)} {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
