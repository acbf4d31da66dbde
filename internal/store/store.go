// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/speechtasker/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// wordSep joins word lists in a single column. Key words never contain spaces.
const wordSep = " "

// Store wraps SQLite access for sessions and trial results.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			subject TEXT NOT NULL,
			condition TEXT NOT NULL,
			mode TEXT NOT NULL,
			source_path TEXT NOT NULL,
			trials INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			session_id TEXT NOT NULL,
			trial INTEGER NOT NULL,
			file TEXT NOT NULL,
			list_num INTEGER NOT NULL,
			sentence_num INTEGER NOT NULL,
			speaker INTEGER NOT NULL,
			level REAL NOT NULL,
			correct TEXT NOT NULL,
			incorrect TEXT NOT NULL,
			total_words INTEGER NOT NULL,
			num_correct INTEGER NOT NULL,
			outcome INTEGER NOT NULL,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (session_id, trial)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_subject ON sessions(subject);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores the header of a session.
func (s *Store) InsertSession(ctx context.Context, info model.SessionInfo) error {
	if info.ID == "" {
		return fmt.Errorf("insert session: empty id")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at, subject, condition, mode, source_path, trials)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		info.ID,
		info.StartedAt.UTC().Format(time.RFC3339Nano),
		info.Subject,
		info.Condition,
		info.Mode.String(),
		info.SourcePath,
		info.Trials,
	)
	return err
}

// InsertResult stores one trial result. Recording the same trial twice
// replaces the earlier row.
func (s *Store) InsertResult(ctx context.Context, row model.ResultRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO results (session_id, trial, file, list_num, sentence_num, speaker, level, correct, incorrect, total_words, num_correct, outcome, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.SessionID,
		row.Trial,
		row.File,
		row.ListNum,
		row.SentenceNum,
		row.Speaker,
		row.Level,
		strings.Join(row.Correct, wordSep),
		strings.Join(row.Incorrect, wordSep),
		row.TotalWords,
		row.NumCorrect,
		int(row.Outcome),
		row.RecordedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// ListSessions returns session aggregates matching filter, oldest first.
// filter.Last keeps only the most recent N sessions.
func (s *Store) ListSessions(ctx context.Context, filter model.SessionFilter) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Subject != "" {
		clauses = append(clauses, "s.subject = ?")
		args = append(args, filter.Subject)
	}
	if filter.Condition != "" {
		clauses = append(clauses, "s.condition = ?")
		args = append(args, filter.Condition)
	}
	if filter.Since != nil {
		clauses = append(clauses, "s.started_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.RFC3339Nano))
	}
	limit := -1
	if filter.Last > 0 {
		limit = filter.Last
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT * FROM (
		SELECT s.id, s.started_at, s.subject, s.condition, s.mode, s.trials,
			COUNT(r.trial) AS recorded,
			COALESCE(SUM(CASE WHEN r.outcome > 0 THEN 1 ELSE 0 END), 0) AS passed,
			COALESCE(SUM(r.num_correct), 0) AS words_correct,
			COALESCE(SUM(r.total_words), 0) AS words_total
		FROM sessions s
		LEFT JOIN results r ON r.session_id = s.id
		WHERE %s
		GROUP BY s.id
		ORDER BY s.started_at DESC
		LIMIT ?
	) ORDER BY started_at ASC`, strings.Join(clauses, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var startedAt string
		if err := rows.Scan(&agg.ID, &startedAt, &agg.Subject, &agg.Condition, &agg.Mode, &agg.Trials, &agg.Recorded, &agg.Passed, &agg.WordsCorrect, &agg.WordsTotal); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, err
		}
		agg.StartedAt = parsed
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListResults returns the recorded rows of a session in trial order.
func (s *Store) ListResults(ctx context.Context, sessionID string) ([]model.ResultRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.session_id, r.trial, s.subject, s.condition, r.file, r.list_num, r.sentence_num,
			r.speaker, r.level, r.correct, r.incorrect, r.total_words, r.num_correct, r.outcome, r.recorded_at
		FROM results r
		JOIN sessions s ON s.id = r.session_id
		WHERE r.session_id = ?
		ORDER BY r.trial ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ResultRow
	for rows.Next() {
		var row model.ResultRow
		var correct, incorrect, recordedAt string
		var outcome int
		if err := rows.Scan(&row.SessionID, &row.Trial, &row.Subject, &row.Condition, &row.File,
			&row.ListNum, &row.SentenceNum, &row.Speaker, &row.Level, &correct, &incorrect,
			&row.TotalWords, &row.NumCorrect, &outcome, &recordedAt); err != nil {
			return nil, err
		}
		row.Correct = splitWords(correct)
		row.Incorrect = splitWords(incorrect)
		row.Outcome = model.Outcome(outcome)
		parsed, err := time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, err
		}
		row.RecordedAt = parsed
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// FindSession resolves a session by its full id or a unique id prefix.
func (s *Store) FindSession(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("session id is empty")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sessions WHERE id LIKE ? || '%' LIMIT 2`, prefix)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("no session matches %q", prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("session id %q is ambiguous", prefix)
	}
}

func splitWords(s string) []string {
	fields := strings.Fields(s)
	if fields == nil {
		return []string{}
	}
	return fields
}
