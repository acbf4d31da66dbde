package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/speechtasker/internal/model"
	"github.com/verte-zerg/speechtasker/internal/stimulus"
)

func TestScoreExample(t *testing.T) {
	keyWords := stimulus.KeyWords("THE boy SAW the RED ball")
	require.Len(t, keyWords, 3)

	rec := Score(keyWords, map[int]bool{0: true, 2: false, 4: true})
	assert.Equal(t, []string{"THE", "RED"}, rec.Correct)
	assert.Equal(t, []string{"SAW"}, rec.Incorrect)
	assert.Equal(t, 2, rec.NumCorrect)
	assert.Equal(t, 3, rec.TotalWords)
	assert.Equal(t, model.OutcomeFail, rec.Outcome)
	assert.Equal(t, "fail", rec.Outcome.String())
}

func TestScoreAllCorrectPasses(t *testing.T) {
	keyWords := stimulus.KeyWords("THE boy SAW the RED ball")
	rec := Score(keyWords, map[int]bool{0: true, 2: true, 4: true})
	assert.Equal(t, model.OutcomePass, rec.Outcome)
	assert.Empty(t, rec.Incorrect)
	assert.Equal(t, 3, rec.NumCorrect)
}

func TestScoreUnscoredPolicies(t *testing.T) {
	keyWords := stimulus.KeyWords("THE boy SAW the RED ball")
	judgments := map[int]bool{0: true, 1: false}

	excluded := Scorer{Unscored: UnscoredExclude}.Score(keyWords, judgments)
	assert.Equal(t, []string{"THE"}, excluded.Correct)
	assert.Empty(t, excluded.Incorrect)
	assert.Equal(t, 3, excluded.TotalWords)
	assert.Equal(t, model.OutcomePass, excluded.Outcome)

	incorrect := Scorer{Unscored: UnscoredIncorrect}.Score(keyWords, judgments)
	assert.Equal(t, []string{"SAW", "RED"}, incorrect.Incorrect)
	assert.Equal(t, model.OutcomeFail, incorrect.Outcome)
}

func TestScoreIsIdempotent(t *testing.T) {
	keyWords := stimulus.KeyWords("A BIG dog BARKED")
	judgments := map[int]bool{0: true, 1: false, 3: true}
	s := Scorer{}
	assert.Equal(t, s.Score(keyWords, judgments), s.Score(keyWords, judgments))
}

func TestScoreNoKeyWords(t *testing.T) {
	rec := Score(nil, nil)
	assert.Equal(t, 0, rec.TotalWords)
	assert.Equal(t, model.OutcomePass, rec.Outcome)
}

func TestParseUnscoredPolicy(t *testing.T) {
	p, err := ParseUnscoredPolicy("Incorrect")
	require.NoError(t, err)
	assert.Equal(t, UnscoredIncorrect, p)

	p, err = ParseUnscoredPolicy("")
	require.NoError(t, err)
	assert.Equal(t, UnscoredExclude, p)

	_, err = ParseUnscoredPolicy("maybe")
	assert.Error(t, err)
}
