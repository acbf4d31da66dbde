// Package autojudge derives key-word judgments from a listener's typed or
// transcribed response.
//
// Matching runs in two passes so that fuzzy candidates never take a
// response word an exact match needs:
//
//  1. Exact: the normalized key word equals an unused response word.
//  2. Approximate: among unused response words, the one with the highest
//     Jaro-Winkler similarity is accepted when its Double Metaphone codes
//     overlap the key word's and the score reaches the phonetic threshold,
//     or, without a phonetic overlap, when the score reaches the fuzzy
//     threshold.
//
// Each response word satisfies at most one key word.
package autojudge

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"

	"github.com/verte-zerg/speechtasker/internal/model"
)

const (
	defaultPhoneticThreshold = 0.80
	defaultFuzzyThreshold    = 0.92
)

// Option configures a Judge.
type Option func(*Judge)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score for a
// phonetically matching word. Default: 0.80.
func WithPhoneticThreshold(threshold float64) Option {
	return func(j *Judge) {
		j.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score for a word without
// a phonetic match. Default: 0.92.
func WithFuzzyThreshold(threshold float64) Option {
	return func(j *Judge) {
		j.fuzzyThreshold = threshold
	}
}

// WithPhonetic enables or disables the approximate pass. Default: enabled.
func WithPhonetic(enabled bool) Option {
	return func(j *Judge) {
		j.approximate = enabled
	}
}

// Judge matches responses against key words. It is read-only after
// construction and safe for concurrent use.
type Judge struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
	approximate       bool
}

// New returns a Judge configured with opts.
func New(opts ...Option) *Judge {
	j := &Judge{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
		approximate:       true,
	}
	for _, o := range opts {
		o(j)
	}
	return j
}

type responseWord struct {
	text string
	used bool
}

// Judge returns a judgment for every key word, keyed by sentence position.
func (j *Judge) Judge(keyWords []model.KeyWord, response string) map[int]bool {
	out := make(map[int]bool, len(keyWords))
	words := tokenize(response)

	pending := make([]model.KeyWord, 0, len(keyWords))
	for _, kw := range keyWords {
		target := normalize(kw.Text)
		out[kw.Position] = false
		if idx := exactMatch(words, target); idx >= 0 {
			words[idx].used = true
			out[kw.Position] = true
			continue
		}
		pending = append(pending, kw)
	}
	if !j.approximate {
		return out
	}
	for _, kw := range pending {
		if idx := j.approximateMatch(words, normalize(kw.Text)); idx >= 0 {
			words[idx].used = true
			out[kw.Position] = true
		}
	}
	return out
}

func exactMatch(words []responseWord, target string) int {
	if target == "" {
		return -1
	}
	for i, w := range words {
		if !w.used && w.text == target {
			return i
		}
	}
	return -1
}

func (j *Judge) approximateMatch(words []responseWord, target string) int {
	if target == "" {
		return -1
	}
	tp, ts := matchr.DoubleMetaphone(target)
	best := -1
	bestScore := 0.0
	for i, w := range words {
		if w.used {
			continue
		}
		score := matchr.JaroWinkler(target, w.text, false)
		threshold := j.fuzzyThreshold
		wp, ws := matchr.DoubleMetaphone(w.text)
		if codesOverlap(tp, ts, wp, ws) {
			threshold = j.phoneticThreshold
		}
		if score >= threshold && score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best
}

func codesOverlap(ap, as, bp, bs string) bool {
	for _, a := range []string{ap, as} {
		if a == "" {
			continue
		}
		if a == bp || a == bs {
			return true
		}
	}
	return false
}

func tokenize(response string) []responseWord {
	fields := strings.Fields(response)
	out := make([]responseWord, 0, len(fields))
	for _, f := range fields {
		if n := normalize(f); n != "" {
			out = append(out, responseWord{text: n})
		}
	}
	return out
}

func normalize(word string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(word) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "'")
}
