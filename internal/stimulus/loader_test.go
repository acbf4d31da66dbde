package stimulus

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write table: %v", err)
	}
	return path
}

func TestLoadStimuli(t *testing.T) {
	path := writeTable(t, "list_num,sentence_num,sentence,file\n"+
		"2,1,THE boy SAW the RED ball,l02s01.wav\n"+
		"\n"+
		"2,2,A DOG ran,l02s02.wav\n")

	rows, err := LoadStimuli(path)
	if err != nil {
		t.Fatalf("LoadStimuli failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	first := rows[0]
	if first.ListNum != 2 || first.SentenceNum != 1 || first.File != "l02s01.wav" {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if len(first.KeyWords) != 3 {
		t.Fatalf("expected 3 key words, got %+v", first.KeyWords)
	}
	if first.KeyWords[1].Text != "SAW" || first.KeyWords[1].Position != 2 {
		t.Fatalf("unexpected key word: %+v", first.KeyWords[1])
	}
}

func TestLoadStimuliHeaderVariants(t *testing.T) {
	path := writeTable(t, "\ufeffList Number, Sentence_Num ,Sentence\n1,4,HELLO there\n")
	rows, err := LoadStimuli(path)
	if err != nil {
		t.Fatalf("LoadStimuli failed: %v", err)
	}
	if rows[0].ListNum != 1 || rows[0].SentenceNum != 4 {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
}

func TestLoadStimuliMissingColumn(t *testing.T) {
	path := writeTable(t, "list_num,sentence\n1,HELLO\n")
	_, err := LoadStimuli(path)
	var malformed *MalformedTableError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedTableError, got %v", err)
	}
	if malformed.Column != ColSentenceNum {
		t.Fatalf("expected missing %s, got %q", ColSentenceNum, malformed.Column)
	}
}

func TestLoadStimuliNonIntegerIdentifier(t *testing.T) {
	path := writeTable(t, "list_num,sentence_num,sentence\n1,1,OK\nx,2,BAD\n")
	_, err := LoadStimuli(path)
	var malformed *MalformedTableError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedTableError, got %v", err)
	}
	if malformed.Line != 3 || malformed.Column != ColListNum {
		t.Fatalf("unexpected error location: %+v", malformed)
	}
}

func TestLoadStimuliEmpty(t *testing.T) {
	for name, content := range map[string]string{
		"no header": "",
		"no rows":   "list_num,sentence_num,sentence\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadStimuli(writeTable(t, content))
			var malformed *MalformedTableError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected MalformedTableError, got %v", err)
			}
		})
	}
}

func TestLoadStimuliMissingFile(t *testing.T) {
	_, err := LoadStimuli(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoadMatrixRequiresLevelAndSpeaker(t *testing.T) {
	path := writeTable(t, "list_num,sentence_num,sentence,level\n1,1,HI,60\n")
	_, err := LoadMatrix(path)
	var malformed *MalformedTableError
	if !errors.As(err, &malformed) || malformed.Column != ColSpeaker {
		t.Fatalf("expected missing speaker column, got %v", err)
	}
}

func TestWriteMatrixRoundTrip(t *testing.T) {
	src := writeTable(t, "list_num,sentence_num,sentence,level,speaker,file\n"+
		"2,1,\"THE boy, SAW\",60.5,3,a.wav\n"+
		"7,1,RED ball,70,6,b.wav\n")
	trials, err := LoadMatrix(src)
	if err != nil {
		t.Fatalf("LoadMatrix failed: %v", err)
	}

	out := filepath.Join(t.TempDir(), "out", MatrixFileName)
	if err := WriteMatrix(out, trials); err != nil {
		t.Fatalf("WriteMatrix failed: %v", err)
	}
	again, err := LoadMatrix(out)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(again) != len(trials) {
		t.Fatalf("expected %d trials, got %d", len(trials), len(again))
	}
	for i := range trials {
		a, b := trials[i], again[i]
		if a.Sentence != b.Sentence || a.Level != b.Level || a.Speaker != b.Speaker || a.File != b.File {
			t.Fatalf("row %d differs: %+v vs %+v", i, a, b)
		}
	}
}
