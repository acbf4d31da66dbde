package stimulus

import (
	"strings"
	"unicode"

	"github.com/verte-zerg/speechtasker/internal/model"
)

// KeyWords returns the fully upper-cased tokens of sentence with their positions.
func KeyWords(sentence string) []model.KeyWord {
	var out []model.KeyWord
	for i, token := range strings.Fields(sentence) {
		if IsKeyWord(token) {
			out = append(out, model.KeyWord{Position: i, Text: token})
		}
	}
	return out
}

// IsKeyWord reports whether token has at least one letter and no lower-case letters.
func IsKeyWord(token string) bool {
	hasLetter := false
	for _, r := range token {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.IsLower(r) {
			return false
		}
		hasLetter = true
	}
	return hasLetter
}
