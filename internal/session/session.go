// Package session drives a test session: present a trial, score the
// operator's judgments, record the result and move on.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verte-zerg/speechtasker/internal/model"
	"github.com/verte-zerg/speechtasker/internal/observe"
	"github.com/verte-zerg/speechtasker/internal/recorder"
	"github.com/verte-zerg/speechtasker/internal/scoring"
	"github.com/verte-zerg/speechtasker/internal/sequencer"
)

var (
	// ErrComplete is returned once the last trial has been recorded.
	// errors.Is(ErrComplete, sequencer.ErrSequenceExhausted) holds.
	ErrComplete = fmt.Errorf("task complete: %w", sequencer.ErrSequenceExhausted)

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("session already started")
)

// Presenter delivers a trial to the listener. Audio playback lives outside
// this package.
type Presenter interface {
	Present(ctx context.Context, trial model.TrialRow) error
}

// Options configures a Session.
type Options struct {
	Recorder  recorder.Recorder
	Presenter Presenter
	Scorer    scoring.Scorer
	Metrics   *observe.Metrics
	Logger    *zap.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Session owns the sequencer for one run through a trial set.
type Session struct {
	info      model.SessionInfo
	seq       *sequencer.Sequencer
	rec       recorder.Recorder
	presenter Presenter
	scorer    scoring.Scorer
	metrics   *observe.Metrics
	log       *zap.Logger
	now       func() time.Time

	mu          sync.Mutex
	presentedAt time.Time
	recorded    int
	passed      int
}

// New prepares a session over trials. A missing info.ID gets a random UUID
// and a zero info.StartedAt is set from the clock.
func New(info model.SessionInfo, trials model.TrialSet, opts Options) (*Session, error) {
	if opts.Recorder == nil {
		return nil, fmt.Errorf("session: recorder is required")
	}
	s := &Session{
		rec:       opts.Recorder,
		presenter: opts.Presenter,
		scorer:    opts.Scorer,
		metrics:   opts.Metrics,
		log:       opts.Logger,
		now:       opts.Clock,
	}
	if s.presenter == nil {
		s.presenter = nopPresenter{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if info.ID == "" {
		info.ID = uuid.NewString()
	}
	if info.StartedAt.IsZero() {
		info.StartedAt = s.now()
	}
	info.Trials = len(trials)
	s.info = info
	s.seq = sequencer.New(trials)
	s.log = s.log.With(zap.String("session_id", info.ID))
	return s, nil
}

// Info returns the session header.
func (s *Session) Info() model.SessionInfo {
	return s.info
}

// Start moves to the first trial and presents it. An empty trial set
// returns ErrComplete.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seq.State() != sequencer.NotStarted {
		return ErrAlreadyStarted
	}
	s.log.Info("session started",
		zap.String("subject", s.info.Subject),
		zap.String("condition", s.info.Condition),
		zap.Int("trials", s.info.Trials))
	if err := s.seq.Advance(); err != nil {
		return ErrComplete
	}
	return s.present(ctx, false)
}

// Current returns the trial awaiting judgment.
func (s *Session) Current() (model.TrialRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq.Current()
}

// Repeat presents the current trial again without moving.
func (s *Session) Repeat(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.seq.Current(); err != nil {
		return err
	}
	return s.present(ctx, true)
}

// Next scores the current trial from judgments (keyed by key-word sentence
// position), records the result and presents the following trial. When
// recording fails the error is returned and the session stays on the trial
// so it can be retried. After the last trial Next returns the score and
// ErrComplete.
func (s *Session) Next(ctx context.Context, judgments map[int]bool) (model.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trial, err := s.seq.Current()
	if err != nil {
		return model.ScoreRecord{}, err
	}
	score := s.scorer.Score(trial.KeyWords, judgments)
	row := s.resultRow(trial, score)

	if err := s.rec.Record(ctx, row); err != nil {
		s.metrics.RecordResultError(ctx)
		s.log.Error("failed to record trial", zap.Int("trial", row.Trial), zap.Error(err))
		return score, fmt.Errorf("record trial %d: %w", row.Trial, err)
	}
	s.metrics.RecordScored(ctx, score.Outcome.String(), s.now().Sub(s.presentedAt))
	s.recorded++
	if score.Outcome == model.OutcomePass {
		s.passed++
	}
	s.log.Debug("trial scored",
		zap.Int("trial", row.Trial),
		zap.Stringer("outcome", score.Outcome),
		zap.Int("num_correct", score.NumCorrect),
		zap.Int("total_words", score.TotalWords))

	if err := s.seq.Advance(); err != nil {
		s.log.Info("session complete", zap.Int("recorded", s.recorded), zap.Int("passed", s.passed))
		return score, ErrComplete
	}
	return score, s.present(ctx, false)
}

// Progress reports the one-based number of the current trial and the total.
// Before Start the current number is 0; once complete it equals total.
func (s *Session) Progress() (current, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total = s.seq.Len()
	switch s.seq.State() {
	case sequencer.NotStarted:
		return 0, total
	case sequencer.Exhausted:
		return total, total
	default:
		return s.seq.Position() + 1, total
	}
}

// Summary returns how many trials were recorded and how many passed.
func (s *Session) Summary() (recorded, passed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorded, s.passed
}

// Close closes the recorder.
func (s *Session) Close() error {
	return s.rec.Close()
}

func (s *Session) present(ctx context.Context, repeat bool) error {
	trial, err := s.seq.Current()
	if err != nil {
		return err
	}
	s.presentedAt = s.now()
	s.metrics.RecordPresented(ctx, repeat)
	if err := s.presenter.Present(ctx, trial); err != nil {
		s.log.Warn("failed to present trial", zap.Int("trial", s.seq.Position()+1), zap.Error(err))
		return fmt.Errorf("present trial %d: %w", s.seq.Position()+1, err)
	}
	return nil
}

func (s *Session) resultRow(trial model.TrialRow, score model.ScoreRecord) model.ResultRow {
	return model.ResultRow{
		SessionID:   s.info.ID,
		Trial:       s.seq.Position() + 1,
		Subject:     s.info.Subject,
		Condition:   s.info.Condition,
		File:        trial.File,
		ListNum:     trial.ListNum,
		SentenceNum: trial.SentenceNum,
		Speaker:     trial.Speaker,
		Level:       trial.Level,
		Correct:     score.Correct,
		Incorrect:   score.Incorrect,
		TotalWords:  score.TotalWords,
		NumCorrect:  score.NumCorrect,
		Outcome:     score.Outcome,
		RecordedAt:  s.now(),
	}
}

type nopPresenter struct{}

func (nopPresenter) Present(context.Context, model.TrialRow) error { return nil }
