// Package sequencer walks a finished trial set one trial at a time.
package sequencer

import (
	"errors"

	"github.com/verte-zerg/speechtasker/internal/model"
)

var (
	// ErrSequenceExhausted signals that every trial has been visited. It marks
	// the end of the task, not a failure.
	ErrSequenceExhausted = errors.New("trial sequence exhausted")

	// ErrNoCurrentTrial is returned by Current before the first Advance or
	// after the sequence is exhausted.
	ErrNoCurrentTrial = errors.New("no current trial")
)

// State is the position of a Sequencer.
type State int

const (
	NotStarted State = iota
	OnTrial
	Exhausted
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case OnTrial:
		return "on trial"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Sequencer holds a trial set and a forward-only cursor over it.
type Sequencer struct {
	trials model.TrialSet
	cursor int
}

// New returns a Sequencer positioned before the first trial. The trial set
// is copied.
func New(trials model.TrialSet) *Sequencer {
	own := make(model.TrialSet, len(trials))
	copy(own, trials)
	return &Sequencer{trials: own, cursor: -1}
}

// Advance moves to the next trial. Moving past the last trial puts the
// sequencer in the Exhausted state and returns ErrSequenceExhausted, as does
// every later call.
func (s *Sequencer) Advance() error {
	if s.cursor >= len(s.trials) {
		return ErrSequenceExhausted
	}
	s.cursor++
	if s.cursor >= len(s.trials) {
		return ErrSequenceExhausted
	}
	return nil
}

// Current returns the trial at the cursor.
func (s *Sequencer) Current() (model.TrialRow, error) {
	if s.State() != OnTrial {
		return model.TrialRow{}, ErrNoCurrentTrial
	}
	return s.trials[s.cursor], nil
}

// State reports where the cursor is.
func (s *Sequencer) State() State {
	switch {
	case s.cursor < 0:
		return NotStarted
	case s.cursor >= len(s.trials):
		return Exhausted
	default:
		return OnTrial
	}
}

// Position returns the zero-based cursor: -1 before the first trial and
// Len once exhausted.
func (s *Sequencer) Position() int {
	return s.cursor
}

// Len returns the number of trials.
func (s *Sequencer) Len() int {
	return len(s.trials)
}

// Remaining returns how many trials have not been reached yet.
func (s *Sequencer) Remaining() int {
	left := len(s.trials) - s.cursor - 1
	if left < 0 {
		return 0
	}
	return left
}
