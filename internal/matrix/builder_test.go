package matrix

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/speechtasker/internal/model"
	"github.com/verte-zerg/speechtasker/internal/stimulus"
)

func writeBank(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("list_num,sentence_num,sentence,file\n")
	for _, list := range []int{1, 2, 7} {
		for s := 1; s <= 3; s++ {
			fmt.Fprintf(&b, "%d,%d,THE boy SAW the RED ball %d,l%02ds%02d.wav\n", list, s, s, list, s)
		}
	}
	path := filepath.Join(dir, "bank.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func createParams(t *testing.T, dir string) model.CreateParams {
	return model.CreateParams{
		SentenceFile:     writeBank(t, dir),
		Lists:            []int{2, 7},
		SentencesPerList: 2,
		Levels:           []float64{60, 70},
		Speakers:         []int{3, 6},
		Presentations:    3,
		OutputDir:        dir,
	}
}

func TestCreateExample(t *testing.T) {
	dir := t.TempDir()
	trials, err := NewBuilder().Create(context.Background(), createParams(t, dir))
	require.NoError(t, err)
	require.Len(t, trials, 12)

	for i, tr := range trials {
		assert.Equal(t, i, tr.TrialIndex)
		switch tr.ListNum {
		case 2:
			assert.Equal(t, 60.0, tr.Level)
			assert.Equal(t, 3, tr.Speaker)
		case 7:
			assert.Equal(t, 70.0, tr.Level)
			assert.Equal(t, 6, tr.Speaker)
		default:
			t.Fatalf("unexpected list %d", tr.ListNum)
		}
	}

	// Three contiguous blocks of four rows that differ only by index and presentation.
	ignore := cmpopts.IgnoreFields(model.TrialRow{}, "TrialIndex", "Presentation")
	block := trials[:4]
	for p := 1; p < 3; p++ {
		next := trials[p*4 : (p+1)*4]
		if diff := cmp.Diff(block, next, ignore); diff != "" {
			t.Fatalf("block %d differs (-first +block):\n%s", p+1, diff)
		}
		for _, tr := range next {
			assert.Equal(t, p+1, tr.Presentation)
		}
	}

	_, err = os.Stat(OutputPath(dir))
	assert.True(t, errors.Is(err, os.ErrNotExist), "matrix must not be written without the write flag")
}

func TestCreateBroadcastsSingleValues(t *testing.T) {
	dir := t.TempDir()
	p := createParams(t, dir)
	p.Levels = []float64{65}
	p.Speakers = []int{1}
	p.Presentations = 1

	trials, err := NewBuilder().Create(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, trials, 4)
	for _, tr := range trials {
		assert.Equal(t, 65.0, tr.Level)
		assert.Equal(t, 1, tr.Speaker)
	}
}

func TestCreateRandomizedWritesImportableMatrix(t *testing.T) {
	dir := t.TempDir()
	p := createParams(t, dir)
	p.Randomize = true
	seed := int64(11)
	p.Seed = &seed
	p.Write = true

	trials, err := NewBuilder().Create(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, trials, 12)
	for i, tr := range trials {
		assert.Equal(t, i, tr.TrialIndex)
	}

	written, err := stimulus.LoadMatrix(OutputPath(dir))
	require.NoError(t, err)
	require.Len(t, written, len(trials))
	for i := range trials {
		assert.Equal(t, trials[i].Sentence, written[i].Sentence)
		assert.Equal(t, trials[i].Level, written[i].Level)
		assert.Equal(t, trials[i].Speaker, written[i].Speaker)
	}

	reimported, err := NewBuilder().Import(context.Background(), model.ImportParams{
		MatrixFile:    OutputPath(dir),
		Presentations: 2,
	})
	require.NoError(t, err)
	assert.Len(t, reimported, 24)
}

func TestCreateWriteOverwrites(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(OutputPath(dir), []byte("stale"), 0o644))

	p := createParams(t, dir)
	p.Presentations = 1
	p.Write = true
	_, err := NewBuilder().Create(context.Background(), p)
	require.NoError(t, err)

	written, err := stimulus.LoadMatrix(OutputPath(dir))
	require.NoError(t, err)
	assert.Len(t, written, 4)
}

func TestCreateFailuresWrapStage(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.CreateParams)
		stage  string
		target any
	}{
		{"unknown list", func(p *model.CreateParams) { p.Lists = []int{2, 9}; p.Levels = []float64{60}; p.Speakers = []int{1} }, stageSubset, new(*UnknownListError)},
		{"too many sentences", func(p *model.CreateParams) { p.SentencesPerList = 5 }, stageTruncate, new(*InsufficientSentencesError)},
		{"level cardinality", func(p *model.CreateParams) { p.Levels = []float64{1, 2, 3} }, stageValidate, new(*CardinalityMismatchError)},
		{"speaker cardinality", func(p *model.CreateParams) { p.Speakers = nil }, stageValidate, new(*CardinalityMismatchError)},
		{"presentations", func(p *model.CreateParams) { p.Presentations = 0 }, stageValidate, new(*InvalidParameterError)},
		{"duplicate lists", func(p *model.CreateParams) { p.Lists = []int{2, 2} }, stageValidate, new(*InvalidParameterError)},
		{"malformed table", func(p *model.CreateParams) {
			bad := filepath.Join(filepath.Dir(p.SentenceFile), "bad.csv")
			require.NoError(t, os.WriteFile(bad, []byte("list_num,sentence\n1,HI\n"), 0o644))
			p.SentenceFile = bad
		}, stageLoad, new(*stimulus.MalformedTableError)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			p := createParams(t, dir)
			p.Write = true
			tc.mutate(&p)

			trials, err := NewBuilder().Create(context.Background(), p)
			require.Error(t, err)
			assert.Nil(t, trials)

			var buildErr *MatrixBuildError
			require.ErrorAs(t, err, &buildErr)
			assert.Equal(t, tc.stage, buildErr.Stage)
			assert.Equal(t, model.ModeCreate, buildErr.Mode)
			assert.ErrorAs(t, err, tc.target)

			_, statErr := os.Stat(OutputPath(dir))
			assert.True(t, errors.Is(statErr, os.ErrNotExist), "failed build must not write a matrix")
		})
	}
}

func TestImportExpandsInFileOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matrix.csv")
	require.NoError(t, os.WriteFile(path, []byte("trial,list_num,sentence_num,sentence,level,speaker\n"+
		"5,1,1,HELLO world,60,1\n"+
		"9,4,2,GOOD bye,72.5,2\n"), 0o644))

	trials, err := NewBuilder().Build(context.Background(), Request{
		Mode:   model.ModeImport,
		Import: model.ImportParams{MatrixFile: path, Presentations: 2},
	})
	require.NoError(t, err)
	require.Len(t, trials, 4)
	assert.Equal(t, []int{1, 4, 1, 4}, []int{trials[0].ListNum, trials[1].ListNum, trials[2].ListNum, trials[3].ListNum})
	assert.Equal(t, 72.5, trials[1].Level)
	assert.Equal(t, 3, trials[3].TrialIndex)
}

func TestImportFailures(t *testing.T) {
	_, err := NewBuilder().Import(context.Background(), model.ImportParams{MatrixFile: filepath.Join(t.TempDir(), "missing.csv"), Presentations: 1})
	var buildErr *MatrixBuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, stageLoad, buildErr.Stage)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = NewBuilder().Import(context.Background(), model.ImportParams{MatrixFile: "ignored.csv", Presentations: 0})
	var invalid *InvalidParameterError
	require.ErrorAs(t, err, &invalid)
}

func TestBuildUnknownMode(t *testing.T) {
	_, err := NewBuilder().Build(context.Background(), Request{Mode: model.Mode(9)})
	var buildErr *MatrixBuildError
	require.ErrorAs(t, err, &buildErr)
}
