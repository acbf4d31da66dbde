package recorder

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/verte-zerg/speechtasker/internal/model"
)

// Result file columns.
const (
	ColTrial       = "trial"
	ColSubject     = "subject"
	ColCondition   = "condition"
	ColFile        = "file"
	ColListNum     = "list_num"
	ColSentenceNum = "sentence_num"
	ColSpeaker     = "speaker"
	ColLevel       = "desired_level_dB"
	ColCorrect     = "correct"
	ColIncorrect   = "incorrect"
	ColTotalWords  = "total_words"
	ColNumCorrect  = "num_correct"
	ColOutcome     = "outcome"
	ColSessionID   = "session_id"
	ColRecordedAt  = "recorded_at"
)

// DefaultColumns is the column order of result files.
var DefaultColumns = []string{
	ColTrial,
	ColSubject,
	ColCondition,
	ColFile,
	ColListNum,
	ColSentenceNum,
	ColSpeaker,
	ColLevel,
	ColCorrect,
	ColIncorrect,
	ColTotalWords,
	ColNumCorrect,
	ColOutcome,
	ColSessionID,
}

var columnValues = map[string]func(model.ResultRow) string{
	ColTrial:       func(r model.ResultRow) string { return strconv.Itoa(r.Trial) },
	ColSubject:     func(r model.ResultRow) string { return r.Subject },
	ColCondition:   func(r model.ResultRow) string { return r.Condition },
	ColFile:        func(r model.ResultRow) string { return r.File },
	ColListNum:     func(r model.ResultRow) string { return strconv.Itoa(r.ListNum) },
	ColSentenceNum: func(r model.ResultRow) string { return strconv.Itoa(r.SentenceNum) },
	ColSpeaker:     func(r model.ResultRow) string { return strconv.Itoa(r.Speaker) },
	ColLevel:       func(r model.ResultRow) string { return strconv.FormatFloat(r.Level, 'f', -1, 64) },
	ColCorrect:     func(r model.ResultRow) string { return strings.Join(r.Correct, " ") },
	ColIncorrect:   func(r model.ResultRow) string { return strings.Join(r.Incorrect, " ") },
	ColTotalWords:  func(r model.ResultRow) string { return strconv.Itoa(r.TotalWords) },
	ColNumCorrect:  func(r model.ResultRow) string { return strconv.Itoa(r.NumCorrect) },
	ColOutcome:     func(r model.ResultRow) string { return strconv.Itoa(int(r.Outcome)) },
	ColSessionID:   func(r model.ResultRow) string { return r.SessionID },
	ColRecordedAt:  func(r model.ResultRow) string { return r.RecordedAt.Format(time.RFC3339) },
}

// FileName returns the result file name for a session started at t.
func FileName(subject, condition string, t time.Time) string {
	return fmt.Sprintf("%s_%s_%s.csv", subject, condition, t.Format("2006_Jan_02_1504"))
}

// CSVRecorder appends one row per trial to a result file. The file is opened
// and closed for every row, so each recorded row is on disk when Record
// returns. Recording the last written trial again is a no-op.
type CSVRecorder struct {
	path    string
	columns []string

	mu      sync.Mutex
	last    trialKey
	hasLast bool
}

type trialKey struct {
	session string
	trial   int
}

// NewCSV returns a recorder writing to path with the given column order.
// An empty columns slice selects DefaultColumns.
func NewCSV(path string, columns []string) (*CSVRecorder, error) {
	if path == "" {
		return nil, fmt.Errorf("result file path is empty")
	}
	if len(columns) == 0 {
		columns = DefaultColumns
	}
	for _, c := range columns {
		if _, ok := columnValues[c]; !ok {
			return nil, fmt.Errorf("unknown result column %q", c)
		}
	}
	return &CSVRecorder{path: path, columns: append([]string(nil), columns...)}, nil
}

// Path returns the result file location.
func (r *CSVRecorder) Path() string {
	return r.path
}

// Record appends row, writing the header first when the file is new or empty.
func (r *CSVRecorder) Record(_ context.Context, row model.ResultRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := trialKey{session: row.SessionID, trial: row.Trial}
	if r.hasLast && key == r.last {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create result dir for %s: %w", r.path, err)
	}
	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open result file %s: %w", r.path, err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to stat result file %s: %w", r.path, err)
	}

	writer := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := writer.Write(r.columns); err != nil {
			_ = file.Close()
			return fmt.Errorf("failed to write result header to %s: %w", r.path, err)
		}
	}
	record := make([]string, len(r.columns))
	for i, c := range r.columns {
		record[i] = columnValues[c](row)
	}
	if err := writer.Write(record); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write trial %d to %s: %w", row.Trial, r.path, err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write trial %d to %s: %w", row.Trial, r.path, err)
	}
	r.last, r.hasLast = key, true
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to sync result file %s: %w", r.path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close result file %s: %w", r.path, err)
	}
	return nil
}

// Close is a no-op; the file is closed after every row.
func (r *CSVRecorder) Close() error {
	return nil
}
