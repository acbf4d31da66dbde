// Package matrix builds ordered trial sets from stimulus tables.
package matrix

import (
	"sort"

	"github.com/verte-zerg/speechtasker/internal/model"
)

// Subset keeps the rows whose list is in lists, preserving source order.
func Subset(rows []model.StimulusRow, lists []int) ([]model.StimulusRow, error) {
	if len(lists) == 0 {
		return nil, &InvalidParameterError{Name: "lists", Reason: "at least one list is required"}
	}
	wanted := make(map[int]int, len(lists))
	for _, l := range lists {
		wanted[l] = 0
	}

	out := make([]model.StimulusRow, 0, len(rows))
	for _, row := range rows {
		if _, ok := wanted[row.ListNum]; !ok {
			continue
		}
		wanted[row.ListNum]++
		out = append(out, row)
	}

	var missing []int
	for l, n := range wanted {
		if n == 0 {
			missing = append(missing, l)
		}
	}
	if len(missing) > 0 {
		sort.Ints(missing)
		return nil, &UnknownListError{Lists: missing}
	}
	return out, nil
}

// Truncate keeps the first perList rows of every list, ranked by sentence
// number. Kept rows are returned in source order.
func Truncate(rows []model.StimulusRow, perList int) ([]model.StimulusRow, error) {
	if perList < 1 {
		return nil, &InvalidParameterError{Name: "sentences per list", Reason: "must be >= 1"}
	}

	var order []int
	byList := map[int][]int{}
	for i, row := range rows {
		if _, ok := byList[row.ListNum]; !ok {
			order = append(order, row.ListNum)
		}
		byList[row.ListNum] = append(byList[row.ListNum], i)
	}

	keep := make([]bool, len(rows))
	for _, list := range order {
		idxs := byList[list]
		if len(idxs) < perList {
			return nil, &InsufficientSentencesError{List: list, Have: len(idxs), Want: perList}
		}
		sort.SliceStable(idxs, func(a, b int) bool {
			return rows[idxs[a]].SentenceNum < rows[idxs[b]].SentenceNum
		})
		for _, idx := range idxs[:perList] {
			keep[idx] = true
		}
	}

	out := make([]model.StimulusRow, 0, len(order)*perList)
	for i, row := range rows {
		if keep[i] {
			out = append(out, row)
		}
	}
	return out, nil
}
