package matrix

import (
	"fmt"

	"github.com/verte-zerg/speechtasker/internal/model"
)

// Assign attaches a value from assignment to every trial through set. A single
// value is broadcast to all trials; otherwise TargetLists[i] receives
// Values[i]. The input slice is not modified.
func Assign[T model.Number](trials []model.TrialRow, assignment model.AssignmentSpec[T], field string, set func(*model.TrialRow, T)) ([]model.TrialRow, error) {
	if len(assignment.Values) != 1 && len(assignment.Values) != len(assignment.TargetLists) || len(assignment.Values) == 0 {
		return nil, &CardinalityMismatchError{Field: field, Values: len(assignment.Values), Lists: len(assignment.TargetLists)}
	}

	out := make([]model.TrialRow, len(trials))
	copy(out, trials)

	if len(assignment.Values) == 1 {
		for i := range out {
			set(&out[i], assignment.Values[0])
		}
		return out, nil
	}

	byList := make(map[int]T, len(assignment.TargetLists))
	for i, list := range assignment.TargetLists {
		if _, dup := byList[list]; dup {
			return nil, &InvalidParameterError{Name: field, Reason: fmt.Sprintf("list %d is targeted more than once", list)}
		}
		byList[list] = assignment.Values[i]
	}
	for i := range out {
		v, ok := byList[out[i].ListNum]
		if !ok {
			return nil, &InvalidParameterError{Name: field, Reason: fmt.Sprintf("no value for list %d", out[i].ListNum)}
		}
		set(&out[i], v)
	}
	return out, nil
}

func setLevel(t *model.TrialRow, v float64) { t.Level = v }

func setSpeaker(t *model.TrialRow, v int) { t.Speaker = v }
