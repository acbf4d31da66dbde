package sequencer

import (
	"errors"
	"testing"

	"github.com/verte-zerg/speechtasker/internal/model"
)

func trialSet(n int) model.TrialSet {
	out := make(model.TrialSet, n)
	for i := range out {
		out[i] = model.TrialRow{TrialIndex: i, StimulusRow: model.StimulusRow{SentenceNum: i + 1}}
	}
	return out
}

func TestAdvanceVisitsEveryTrialOnce(t *testing.T) {
	const n = 5
	seq := New(trialSet(n))
	if seq.State() != NotStarted {
		t.Fatalf("expected NotStarted, got %s", seq.State())
	}
	for i := 0; i < n; i++ {
		if err := seq.Advance(); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
		cur, err := seq.Current()
		if err != nil {
			t.Fatalf("current %d: %v", i, err)
		}
		if cur.TrialIndex != i {
			t.Fatalf("expected trial %d, got %d", i, cur.TrialIndex)
		}
		if seq.Remaining() != n-i-1 {
			t.Fatalf("expected %d remaining, got %d", n-i-1, seq.Remaining())
		}
	}
	if err := seq.Advance(); !errors.Is(err, ErrSequenceExhausted) {
		t.Fatalf("expected ErrSequenceExhausted, got %v", err)
	}
	if seq.State() != Exhausted {
		t.Fatalf("expected Exhausted, got %s", seq.State())
	}
	if err := seq.Advance(); !errors.Is(err, ErrSequenceExhausted) {
		t.Fatalf("expected ErrSequenceExhausted again, got %v", err)
	}
	if seq.Position() != n {
		t.Fatalf("expected position %d, got %d", n, seq.Position())
	}
}

func TestCurrentWithoutTrial(t *testing.T) {
	seq := New(trialSet(1))
	if _, err := seq.Current(); !errors.Is(err, ErrNoCurrentTrial) {
		t.Fatalf("expected ErrNoCurrentTrial before start, got %v", err)
	}
	if err := seq.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := seq.Advance(); !errors.Is(err, ErrSequenceExhausted) {
		t.Fatalf("expected ErrSequenceExhausted, got %v", err)
	}
	if _, err := seq.Current(); !errors.Is(err, ErrNoCurrentTrial) {
		t.Fatalf("expected ErrNoCurrentTrial after end, got %v", err)
	}
}

func TestCurrentIsRepeatable(t *testing.T) {
	seq := New(trialSet(3))
	if err := seq.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	a, _ := seq.Current()
	b, _ := seq.Current()
	if a.TrialIndex != b.TrialIndex || seq.Position() != 0 {
		t.Fatalf("current must not move the cursor")
	}
}

func TestEmptySet(t *testing.T) {
	seq := New(nil)
	if err := seq.Advance(); !errors.Is(err, ErrSequenceExhausted) {
		t.Fatalf("expected ErrSequenceExhausted, got %v", err)
	}
}

func TestNewCopiesTrials(t *testing.T) {
	trials := trialSet(2)
	seq := New(trials)
	trials[0].SentenceNum = 99
	if err := seq.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	cur, _ := seq.Current()
	if cur.SentenceNum == 99 {
		t.Fatalf("sequencer must not share the caller's slice")
	}
}
