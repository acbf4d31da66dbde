// Package model defines shared data structures.
package model

import "time"

// KeyWord is a scorable token of a sentence.
type KeyWord struct {
	// Position is the zero-based index of the token in the whitespace-split sentence.
	Position int
	Text     string
}

// StimulusRow is one sentence from a stimulus table.
type StimulusRow struct {
	ListNum     int
	SentenceNum int
	Sentence    string
	// File is the audio file name for the sentence, when the table provides one.
	File     string
	KeyWords []KeyWord
}

// TrialRow is a stimulus row scheduled for presentation.
type TrialRow struct {
	StimulusRow
	Level   float64
	Speaker int
	// Presentation is the one-based repetition copy the row came from.
	Presentation int
	TrialIndex   int
}

// TrialSet is the ordered sequence of trials for a session.
type TrialSet []TrialRow

// Number constrains assignable attribute values.
type Number interface {
	~int | ~float64
}

// AssignmentSpec maps attribute values onto lists.
// Values holds either one value for every list or one value per target list.
type AssignmentSpec[T Number] struct {
	Values      []T
	TargetLists []int
}

// Outcome is the all-or-nothing result of a trial.
type Outcome int

const (
	OutcomeFail Outcome = -1
	OutcomePass Outcome = 1
)

func (o Outcome) String() string {
	if o == OutcomePass {
		return "pass"
	}
	return "fail"
}

// ScoreRecord captures the scoring of one trial.
type ScoreRecord struct {
	Correct    []string
	Incorrect  []string
	NumCorrect int
	TotalWords int
	Outcome    Outcome
}

// Mode selects how a matrix is produced.
type Mode int

const (
	ModeCreate Mode = iota
	ModeImport
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeImport:
		return "import"
	default:
		return "unknown"
	}
}

// CreateParams configures building a matrix from a sentence bank.
type CreateParams struct {
	SentenceFile     string
	Lists            []int
	SentencesPerList int
	Levels           []float64
	Speakers         []int
	Presentations    int
	Randomize        bool
	// Seed makes randomization reproducible when set.
	Seed *int64
	// Write persists the finished matrix to OutputDir.
	Write     bool
	OutputDir string
}

// ImportParams configures loading a pre-built matrix.
type ImportParams struct {
	MatrixFile    string
	Presentations int
	Randomize     bool
	Seed          *int64
	Write         bool
	OutputDir     string
}

// SessionInfo identifies a test session.
type SessionInfo struct {
	ID         string
	Subject    string
	Condition  string
	Mode       Mode
	SourcePath string
	StartedAt  time.Time
	Trials     int
}

// ResultRow is the persisted record of one completed trial.
type ResultRow struct {
	SessionID   string
	Trial       int
	Subject     string
	Condition   string
	File        string
	ListNum     int
	SentenceNum int
	Speaker     int
	Level       float64
	Correct     []string
	Incorrect   []string
	TotalWords  int
	NumCorrect  int
	Outcome     Outcome
	RecordedAt  time.Time
}

// SessionAggregate summarizes a stored session for listing.
type SessionAggregate struct {
	ID        string
	Subject   string
	Condition string
	Mode      string
	StartedAt time.Time
	Trials    int
	Recorded  int
	Passed    int
	// WordsCorrect and WordsTotal sum the scored key words of recorded trials.
	WordsCorrect int
	WordsTotal   int
}

// SessionFilter narrows stored session listings.
type SessionFilter struct {
	Subject   string
	Condition string
	Since     *time.Time
	Last      int
}
