package stimulus

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/verte-zerg/speechtasker/internal/model"
)

// MatrixFileName is the fixed name used when a built matrix is persisted.
const MatrixFileName = "matrix_file.csv"

var matrixHeader = []string{
	ColTrial,
	ColListNum,
	ColSentenceNum,
	ColFile,
	ColSentence,
	ColLevel,
	ColSpeaker,
	ColPresentation,
}

// WriteMatrix writes trials to path, replacing any existing file. The file is
// written to a temporary sibling first so a failed write leaves the previous
// file untouched.
func WriteMatrix(path string, trials model.TrialSet) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create matrix dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "matrix-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp matrix: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := csv.NewWriter(tmpFile)
	if err := writer.Write(matrixHeader); err != nil {
		return fmt.Errorf("failed to write matrix header: %w", err)
	}
	for _, trial := range trials {
		if err := writer.Write(matrixRecord(trial)); err != nil {
			return fmt.Errorf("failed to write matrix row %d: %w", trial.TrialIndex, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush matrix: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close matrix: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write matrix %s: %w", path, err)
	}
	return nil
}

func matrixRecord(trial model.TrialRow) []string {
	return []string{
		strconv.Itoa(trial.TrialIndex),
		strconv.Itoa(trial.ListNum),
		strconv.Itoa(trial.SentenceNum),
		trial.File,
		trial.Sentence,
		strconv.FormatFloat(trial.Level, 'f', -1, 64),
		strconv.Itoa(trial.Speaker),
		strconv.Itoa(trial.Presentation),
	}
}
