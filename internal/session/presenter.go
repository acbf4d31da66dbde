package session

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/verte-zerg/speechtasker/internal/model"
)

// LogPresenter resolves a trial's audio file and logs it. Playback is left
// to the operator's audio chain.
type LogPresenter struct {
	AudioDir string
	Log      *zap.Logger
}

// AudioPath returns the audio file for trial, or "" when the trial has none.
func (p LogPresenter) AudioPath(trial model.TrialRow) string {
	if trial.File == "" {
		return ""
	}
	if p.AudioDir == "" || filepath.IsAbs(trial.File) {
		return trial.File
	}
	return filepath.Join(p.AudioDir, trial.File)
}

// Present logs the trial.
func (p LogPresenter) Present(_ context.Context, trial model.TrialRow) error {
	log := p.Log
	if log == nil {
		return nil
	}
	log.Info("present trial",
		zap.String("audio", p.AudioPath(trial)),
		zap.Int("list_num", trial.ListNum),
		zap.Int("sentence_num", trial.SentenceNum),
		zap.Int("speaker", trial.Speaker),
		zap.Float64("level", trial.Level),
		zap.Int("presentation", trial.Presentation))
	return nil
}
