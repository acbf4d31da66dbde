package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/speechtasker/internal/model"
	"github.com/verte-zerg/speechtasker/internal/session"
	"github.com/verte-zerg/speechtasker/internal/stimulus"
)

type memRecorder struct {
	rows []model.ResultRow
	fail error
}

func (r *memRecorder) Record(_ context.Context, row model.ResultRow) error {
	if r.fail != nil {
		return r.fail
	}
	r.rows = append(r.rows, row)
	return nil
}

func (r *memRecorder) Close() error { return nil }

func newTestModel(t *testing.T, rec *memRecorder, sentences ...string) *Model {
	t.Helper()
	trials := make(model.TrialSet, len(sentences))
	for i, s := range sentences {
		trials[i] = model.TrialRow{
			StimulusRow: model.StimulusRow{ListNum: 1, SentenceNum: i + 1, Sentence: s, KeyWords: stimulus.KeyWords(s)},
			Level:       65,
			Speaker:     1,
			TrialIndex:  i,
		}
	}
	sess, err := session.New(model.SessionInfo{Subject: "101"}, trials, session.Options{Recorder: rec})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := sess.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return NewModel(context.Background(), sess, nil, nil)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func TestKeyWordsStartIncorrect(t *testing.T) {
	m := newTestModel(t, &memRecorder{}, "THE boy SAW the RED ball")
	if len(m.judgments) != 3 {
		t.Fatalf("expected 3 judgments, got %v", m.judgments)
	}
	for pos, ok := range m.judgments {
		if ok {
			t.Fatalf("key word at %d should start incorrect", pos)
		}
	}
}

func TestToggleAndScore(t *testing.T) {
	rec := &memRecorder{}
	m := newTestModel(t, rec, "THE boy SAW the RED ball", "A DOG ran")

	press(m, runes("1"), runes("3"), tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeySpace})
	if !m.judgments[0] || !m.judgments[2] || !m.judgments[4] {
		t.Fatalf("expected all key words correct, got %v", m.judgments)
	}
	press(m, runes("2"))
	if m.judgments[2] {
		t.Fatalf("expected second key word toggled back to incorrect")
	}

	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(rec.rows) != 1 {
		t.Fatalf("expected 1 recorded row, got %d", len(rec.rows))
	}
	if rec.rows[0].Outcome != model.OutcomeFail || rec.rows[0].NumCorrect != 2 {
		t.Fatalf("unexpected result row: %+v", rec.rows[0])
	}
	if m.position != 2 || m.trial.Sentence != "A DOG ran" {
		t.Fatalf("expected second trial, got %d %q", m.position, m.trial.Sentence)
	}
	if len(m.judgments) != 2 || m.judgments[0] || m.judgments[1] {
		t.Fatalf("expected fresh judgments, got %v", m.judgments)
	}

	press(m, runes("1"), runes("2"))
	cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Done() || cmd == nil {
		t.Fatalf("expected completion and quit")
	}
	if !strings.Contains(m.View(), "Task complete") {
		t.Fatalf("expected completion view, got %q", m.View())
	}
	if rec.rows[1].Outcome != model.OutcomePass {
		t.Fatalf("expected pass, got %+v", rec.rows[1])
	}
}

func TestTypedResponseAutoJudges(t *testing.T) {
	m := newTestModel(t, &memRecorder{}, "THE boy SAW the RED ball")
	press(m, runes("t"))
	if !m.typing {
		t.Fatalf("expected typing mode")
	}
	press(m, runes("the boy saw a bed"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.typing {
		t.Fatalf("expected typing mode to end")
	}
	if !m.judgments[0] || !m.judgments[2] || m.judgments[4] {
		t.Fatalf("unexpected judgments: %v", m.judgments)
	}
}

func TestTypingCancel(t *testing.T) {
	m := newTestModel(t, &memRecorder{}, "THE boy")
	press(m, runes("t"), runes("the"), tea.KeyMsg{Type: tea.KeyEsc})
	if m.typing || m.judgments[0] {
		t.Fatalf("expected cancel without judging, got typing=%v judgments=%v", m.typing, m.judgments)
	}
}

func TestRecordFailureKeepsTrialAndToggles(t *testing.T) {
	rec := &memRecorder{fail: errors.New("disk full")}
	m := newTestModel(t, rec, "THE boy", "A DOG")

	press(m, runes("1"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.errMsg == "" || !strings.Contains(m.errMsg, "disk full") {
		t.Fatalf("expected inline error, got %q", m.errMsg)
	}
	if m.position != 1 || !m.judgments[0] {
		t.Fatalf("expected same trial with toggles kept, got %d %v", m.position, m.judgments)
	}

	rec.fail = nil
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.position != 2 || m.errMsg != "" {
		t.Fatalf("expected retry to advance, got %d %q", m.position, m.errMsg)
	}
}

func TestRenderFooterShowsProgress(t *testing.T) {
	m := newTestModel(t, &memRecorder{}, "THE boy SAW")
	press(m, runes("1"))
	out := m.renderFooter()
	if !strings.Contains(out, "Correct 1/2") {
		t.Fatalf("footer missing count: %s", out)
	}
	view := m.View()
	if !strings.Contains(view, "Trial 1 of 1") {
		t.Fatalf("view missing header: %s", view)
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, &memRecorder{}, "THE boy")
	if cmd := press(m, runes("q")); cmd == nil {
		t.Fatalf("expected quit command")
	}
}
