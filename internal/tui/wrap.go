package tui

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/speechtasker/internal/model"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildSentenceRunes styles each token of sentence. Key words show their
// judgment and a one-based number for the toggle keys; the focused key word
// is underlined.
func buildSentenceRunes(sentence string, keyWords []model.KeyWord, judgments map[int]bool, focus int) []styledRune {
	ordinal := make(map[int]int, len(keyWords))
	for i, kw := range keyWords {
		ordinal[kw.Position] = i
	}

	tokens := strings.Fields(sentence)
	out := make([]styledRune, 0, len(sentence)+len(keyWords)*2)
	for pos, token := range tokens {
		if pos > 0 {
			out = append(out, styledRune{s: " ", width: 1, isSpace: true})
		}
		style := plainWordStyle
		idx, isKey := ordinal[pos]
		if isKey {
			style = incorrectStyle
			if judgments[pos] {
				style = correctStyle
			}
			if idx == focus {
				style = style.Underline(true)
			}
			if idx < maxToggleKeys {
				label := strconv.Itoa(idx + 1)
				out = appendRunes(out, label, numberStyle.Render)
			}
		}
		out = appendRunes(out, token, style.Render)
	}
	return out
}

func appendRunes(out []styledRune, text string, render func(...string) string) []styledRune {
	for _, r := range text {
		out = append(out, styledRune{
			s:     render(string(r)),
			width: runewidth.RuneWidth(r),
		})
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
