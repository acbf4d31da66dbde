// Package scoring classifies per-word judgments into trial scores.
package scoring

import (
	"fmt"
	"strings"

	"github.com/verte-zerg/speechtasker/internal/model"
)

// UnscoredPolicy decides how a key word without a judgment is counted.
type UnscoredPolicy int

const (
	// UnscoredExclude leaves unjudged key words out of both word lists.
	UnscoredExclude UnscoredPolicy = iota
	// UnscoredIncorrect counts unjudged key words as incorrect.
	UnscoredIncorrect
)

func (p UnscoredPolicy) String() string {
	if p == UnscoredIncorrect {
		return "incorrect"
	}
	return "exclude"
}

// ParseUnscoredPolicy parses "exclude" or "incorrect".
func ParseUnscoredPolicy(s string) (UnscoredPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exclude":
		return UnscoredExclude, nil
	case "incorrect":
		return UnscoredIncorrect, nil
	default:
		return UnscoredExclude, fmt.Errorf("unknown unscored policy %q (want exclude or incorrect)", s)
	}
}

// Scorer scores trials. The zero value excludes unjudged key words.
type Scorer struct {
	Unscored UnscoredPolicy
}

// Score scores one trial with the default policy.
func Score(keyWords []model.KeyWord, judgments map[int]bool) model.ScoreRecord {
	return Scorer{}.Score(keyWords, judgments)
}

// Score walks the key words in sentence order. judgments is keyed by the
// key word's sentence position; true marks the word as repeated correctly.
// Judgments for positions that are not key words are ignored. The trial
// passes only when no key word is incorrect.
func (s Scorer) Score(keyWords []model.KeyWord, judgments map[int]bool) model.ScoreRecord {
	rec := model.ScoreRecord{
		Correct:    []string{},
		Incorrect:  []string{},
		TotalWords: len(keyWords),
	}
	for _, kw := range keyWords {
		ok, judged := judgments[kw.Position]
		switch {
		case judged && ok:
			rec.Correct = append(rec.Correct, kw.Text)
		case judged:
			rec.Incorrect = append(rec.Incorrect, kw.Text)
		case s.Unscored == UnscoredIncorrect:
			rec.Incorrect = append(rec.Incorrect, kw.Text)
		}
	}
	rec.NumCorrect = len(rec.Correct)
	rec.Outcome = model.OutcomeFail
	if len(rec.Incorrect) == 0 {
		rec.Outcome = model.OutcomePass
	}
	return rec
}
