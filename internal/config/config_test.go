package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", `
[session]
subject = "101"
presentations = 2
randomize = true
unscored = "incorrect"

[create]
lists = [1, 4]
levels = [65.0, 70.5]
speakers = [2]

[import]
matrix-file = "/tmp/matrix_file.csv"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Session.Subject == nil || *cfg.Session.Subject != "101" {
		t.Fatalf("unexpected subject: %v", cfg.Session.Subject)
	}
	if cfg.Session.Condition != nil {
		t.Fatalf("expected condition unset")
	}
	if cfg.Session.Presentations == nil || *cfg.Session.Presentations != 2 {
		t.Fatalf("unexpected presentations: %v", cfg.Session.Presentations)
	}
	if len(cfg.Create.Lists) != 2 || cfg.Create.Levels[1] != 70.5 || len(cfg.Create.Speakers) != 1 {
		t.Fatalf("unexpected create section: %+v", cfg.Create)
	}
	if cfg.Import.MatrixFile == nil || *cfg.Import.MatrixFile != "/tmp/matrix_file.csv" {
		t.Fatalf("unexpected matrix file: %v", cfg.Import.MatrixFile)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Session.Subject != nil {
		t.Fatalf("expected empty config")
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", "[session]\nsubjct = \"1\"\n")
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "subjct") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "speechtasker", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "speechtasker", "speechtasker.db") {
		t.Fatalf("unexpected db path %q", got)
	}
	if got := DefaultDataDir(); got != filepath.Join("/data", "speechtasker", "data") {
		t.Fatalf("unexpected data dir %q", got)
	}
}

func TestLoadProtocol(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "hint.yaml", `
name: HINT quiet
sentence_file: bank.csv
lists: [2, 7]
sentences_per_list: 10
levels: [60, 70]
speakers: [3]
randomize: true
seed: 42
`)
	p, err := LoadProtocol(path)
	if err != nil {
		t.Fatalf("LoadProtocol failed: %v", err)
	}
	if p.SentenceFile != filepath.Join(dir, "bank.csv") {
		t.Fatalf("sentence file not resolved: %q", p.SentenceFile)
	}
	params := p.CreateParams()
	if params.Presentations != 1 || !params.Randomize || params.Seed == nil || *params.Seed != 42 {
		t.Fatalf("unexpected params: %+v", params)
	}
	if len(params.Levels) != 2 || params.Speakers[0] != 3 {
		t.Fatalf("unexpected attributes: %+v", params)
	}
	if p.Presentations != nil {
		t.Fatalf("expected omitted presentations to stay unset, got %d", *p.Presentations)
	}
}

func TestLoadProtocolRejectsZeroPresentations(t *testing.T) {
	_, err := LoadProtocolFromReader(strings.NewReader(`
sentence_file: bank.csv
lists: [1]
sentences_per_list: 2
levels: [60]
speakers: [1]
presentations: 0
`))
	if err == nil || !strings.Contains(err.Error(), "presentations") {
		t.Fatalf("expected presentations error, got %v", err)
	}
}

func TestLoadProtocolValidationJoinsErrors(t *testing.T) {
	_, err := LoadProtocolFromReader(strings.NewReader(`
lists: [1, 1]
sentences_per_list: 0
levels: [60, 65, 70]
speakers: [1]
`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"sentence_file", "duplicate", "sentences_per_list", "levels"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestLoadProtocolUnknownField(t *testing.T) {
	_, err := LoadProtocolFromReader(strings.NewReader("sentence_file: a.csv\nlist: [1]\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}
