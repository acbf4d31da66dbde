package matrix

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/verte-zerg/speechtasker/internal/model"
)

// UnknownListError reports requested lists with no rows in the stimulus table.
type UnknownListError struct {
	Lists []int
}

func (e *UnknownListError) Error() string {
	return fmt.Sprintf("unknown list(s): %s", joinInts(e.Lists))
}

// InsufficientSentencesError reports a list shorter than the requested count.
type InsufficientSentencesError struct {
	List int
	Have int
	Want int
}

func (e *InsufficientSentencesError) Error() string {
	return fmt.Sprintf("list %d has %d sentence(s), need %d", e.List, e.Have, e.Want)
}

// CardinalityMismatchError reports an assignment whose value count is neither
// one nor the number of target lists.
type CardinalityMismatchError struct {
	Field  string
	Values int
	Lists  int
}

func (e *CardinalityMismatchError) Error() string {
	return fmt.Sprintf("%s: got %d value(s) for %d list(s); need 1 or %d", e.Field, e.Values, e.Lists, e.Lists)
}

// InvalidParameterError reports a build parameter outside its valid range.
type InvalidParameterError struct {
	Name   string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Name, e.Reason)
}

// MatrixBuildError wraps any failure raised while building a matrix.
type MatrixBuildError struct {
	Mode  model.Mode
	Stage string
	Err   error
}

func (e *MatrixBuildError) Error() string {
	return fmt.Sprintf("build matrix (%s): %s: %v", e.Mode, e.Stage, e.Err)
}

func (e *MatrixBuildError) Unwrap() error {
	return e.Err
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
