package report

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/speechtasker/internal/model"
	"github.com/verte-zerg/speechtasker/internal/store"
)

func TestSessionsFromStore(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "speechtasker.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	for i, id := range []string{"aaaaaaaa-1", "bbbbbbbb-2", "cccccccc-3"} {
		info := model.SessionInfo{
			ID:        id,
			Subject:   "101",
			Condition: "quiet",
			Mode:      model.ModeCreate,
			StartedAt: time.Unix(0, 0).Add(time.Duration(i) * time.Hour),
			Trials:    2,
		}
		if err := st.InsertSession(ctx, info); err != nil {
			t.Fatalf("insert session: %v", err)
		}
		row := model.ResultRow{SessionID: id, Trial: 1, Outcome: model.OutcomePass, RecordedAt: info.StartedAt}
		if err := st.InsertResult(ctx, row); err != nil {
			t.Fatalf("insert result: %v", err)
		}
	}

	sessions, err := Sessions(ctx, st, model.SessionFilter{Subject: "101", Last: 2})
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != "bbbbbbbb-2" {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}

	var buf bytes.Buffer
	if err := RenderSessions(&buf, sessions, Options{Window: 2}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Sessions: 2", "Trials recorded: 2", "Pass rate: 100.00%", "bbbbbbbb", "1/2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSessionsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSessions(&buf, nil, Options{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.String() != "No sessions found.\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestRenderResults(t *testing.T) {
	rows := []model.ResultRow{
		{SessionID: "s1", Subject: "101", Condition: "quiet", Trial: 1, ListNum: 2, SentenceNum: 1, Speaker: 3, Level: 62.5,
			Correct: []string{"THE", "BOY"}, Incorrect: []string{}, NumCorrect: 2, TotalWords: 2, Outcome: model.OutcomePass},
		{SessionID: "s1", Subject: "101", Condition: "quiet", Trial: 2, ListNum: 7, SentenceNum: 4, Speaker: 6, Level: 70,
			Correct: []string{}, Incorrect: []string{"RED"}, NumCorrect: 0, TotalWords: 1, Outcome: model.OutcomeFail},
	}
	var buf bytes.Buffer
	if err := RenderResults(&buf, rows, Options{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Session s1", "62.5", "THE BOY", "0/1", "fail", "Passed 1 of 2 trials"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 50, 100}); got != " +@" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{5, 5}); got != "++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{0, 100, 50}, 2)
	want := []float64{0, 50, 75}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestRenderTrials(t *testing.T) {
	trials := model.TrialSet{
		{StimulusRow: model.StimulusRow{ListNum: 2, SentenceNum: 1, Sentence: "THE boy"}, Level: 60, Speaker: 3, Presentation: 1, TrialIndex: 0},
		{StimulusRow: model.StimulusRow{ListNum: 7, SentenceNum: 2, Sentence: "A DOG"}, Level: 72.5, Speaker: 6, Presentation: 2, TrialIndex: 1},
	}
	var buf bytes.Buffer
	if err := RenderTrials(&buf, trials); err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.HasSuffix(lines[2], "A DOG") || !strings.Contains(lines[2], "72.5") {
		t.Fatalf("unexpected row: %q", lines[2])
	}
}
