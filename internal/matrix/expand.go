package matrix

import "github.com/verte-zerg/speechtasker/internal/model"

// Expand concatenates presentations copies of trials. Copy k (one-based) is
// tagged with Presentation k and copies are never interleaved. Trial indexes
// are assigned by position in the result.
func Expand(trials []model.TrialRow, presentations int) (model.TrialSet, error) {
	if presentations < 1 {
		return nil, &InvalidParameterError{Name: "presentations", Reason: "must be >= 1"}
	}
	out := make(model.TrialSet, 0, len(trials)*presentations)
	for p := 1; p <= presentations; p++ {
		for _, t := range trials {
			t.Presentation = p
			t.TrialIndex = len(out)
			out = append(out, t)
		}
	}
	return out, nil
}

func reindex(trials model.TrialSet) {
	for i := range trials {
		trials[i].TrialIndex = i
	}
}

func toTrials(rows []model.StimulusRow) []model.TrialRow {
	out := make([]model.TrialRow, len(rows))
	for i, row := range rows {
		out[i] = model.TrialRow{StimulusRow: row, TrialIndex: i}
	}
	return out
}
