// Package stimulus loads and writes sentence tables.
package stimulus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/verte-zerg/speechtasker/internal/model"
)

// Column names understood by the loaders.
const (
	ColTrial        = "trial"
	ColListNum      = "list_num"
	ColSentenceNum  = "sentence_num"
	ColSentence     = "sentence"
	ColFile         = "file"
	ColLevel        = "level"
	ColSpeaker      = "speaker"
	ColPresentation = "presentation"
)

var stimulusColumns = []string{ColListNum, ColSentenceNum, ColSentence}

var matrixColumns = []string{ColListNum, ColSentenceNum, ColSentence, ColLevel, ColSpeaker}

var headerAliases = map[string]string{
	"list":             ColListNum,
	"list_number":      ColListNum,
	"sentence_number":  ColSentenceNum,
	"sentence_text":    ColSentence,
	"desired_level_db": ColLevel,
	"level_db":         ColLevel,
}

type table struct {
	path    string
	columns map[string]int
	records []record
}

type record struct {
	line   int
	fields []string
}

func (t *table) value(rec record, column string) string {
	idx, ok := t.columns[column]
	if !ok || idx >= len(rec.fields) {
		return ""
	}
	return strings.TrimSpace(rec.fields[idx])
}

func (t *table) intValue(rec record, column string) (int, error) {
	raw := t.value(rec, column)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &MalformedTableError{Path: t.path, Line: rec.line, Column: column, Reason: fmt.Sprintf("%q is not an integer", raw)}
	}
	return v, nil
}

func (t *table) floatValue(rec record, column string) (float64, error) {
	raw := t.value(rec, column)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &MalformedTableError{Path: t.path, Line: rec.line, Column: column, Reason: fmt.Sprintf("%q is not a number", raw)}
	}
	return v, nil
}

// LoadStimuli reads a sentence bank. The table must carry list_num,
// sentence_num and sentence columns; a file column is optional.
func LoadStimuli(path string) ([]model.StimulusRow, error) {
	tbl, err := readTable(path, stimulusColumns)
	if err != nil {
		return nil, err
	}
	rows := make([]model.StimulusRow, 0, len(tbl.records))
	for _, rec := range tbl.records {
		row, err := tbl.stimulusRow(rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadMatrix reads a complete trial matrix. In addition to the stimulus
// columns it requires level and speaker. Trial indexes in the file are ignored.
func LoadMatrix(path string) (model.TrialSet, error) {
	tbl, err := readTable(path, matrixColumns)
	if err != nil {
		return nil, err
	}
	trials := make(model.TrialSet, 0, len(tbl.records))
	for i, rec := range tbl.records {
		row, err := tbl.stimulusRow(rec)
		if err != nil {
			return nil, err
		}
		level, err := tbl.floatValue(rec, ColLevel)
		if err != nil {
			return nil, err
		}
		speaker, err := tbl.intValue(rec, ColSpeaker)
		if err != nil {
			return nil, err
		}
		trials = append(trials, model.TrialRow{
			StimulusRow:  row,
			Level:        level,
			Speaker:      speaker,
			Presentation: 1,
			TrialIndex:   i,
		})
	}
	return trials, nil
}

func (t *table) stimulusRow(rec record) (model.StimulusRow, error) {
	listNum, err := t.intValue(rec, ColListNum)
	if err != nil {
		return model.StimulusRow{}, err
	}
	sentenceNum, err := t.intValue(rec, ColSentenceNum)
	if err != nil {
		return model.StimulusRow{}, err
	}
	sentence := t.value(rec, ColSentence)
	if sentence == "" {
		return model.StimulusRow{}, &MalformedTableError{Path: t.path, Line: rec.line, Column: ColSentence, Reason: "sentence is empty"}
	}
	return model.StimulusRow{
		ListNum:     listNum,
		SentenceNum: sentenceNum,
		Sentence:    sentence,
		File:        t.value(rec, ColFile),
		KeyWords:    KeyWords(sentence),
	}, nil
}

func readTable(path string, required []string) (*table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only table.
			_ = cerr
		}
	}()
	return parseTable(path, file, required)
}

func parseTable(path string, r io.Reader, required []string) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &MalformedTableError{Path: path, Reason: "table is empty"}
		}
		return nil, &MalformedTableError{Path: path, Line: 1, Reason: err.Error()}
	}

	tbl := &table{path: path, columns: make(map[string]int, len(header))}
	for i, name := range header {
		key := normalizeHeader(name, i == 0)
		if _, dup := tbl.columns[key]; dup {
			continue
		}
		tbl.columns[key] = i
	}
	for _, col := range required {
		if _, ok := tbl.columns[col]; !ok {
			return nil, &MalformedTableError{Path: path, Column: col, Reason: "required column is missing"}
		}
	}

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := 0
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				line = perr.Line
			}
			return nil, &MalformedTableError{Path: path, Line: line, Reason: err.Error()}
		}
		line, _ := reader.FieldPos(0)
		if blankRecord(fields) {
			continue
		}
		tbl.records = append(tbl.records, record{line: line, fields: fields})
	}
	if len(tbl.records) == 0 {
		return nil, &MalformedTableError{Path: path, Reason: "table has no rows"}
	}
	return tbl, nil
}

func normalizeHeader(name string, first bool) string {
	if first {
		name = strings.TrimPrefix(name, "\ufeff")
	}
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.Join(strings.Fields(key), "_")
	if alias, ok := headerAliases[key]; ok {
		return alias
	}
	return key
}

func blankRecord(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
