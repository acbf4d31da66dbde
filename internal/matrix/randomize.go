package matrix

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/speechtasker/internal/model"
)

// Randomizer permutes trial sets.
type Randomizer struct {
	rnd *rand.Rand
}

// NewRandomizer returns a Randomizer seeded with the current time.
func NewRandomizer() *Randomizer {
	return &Randomizer{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededRandomizer returns a Randomizer with a fixed seed.
func NewSeededRandomizer(seed int64) *Randomizer {
	return &Randomizer{rnd: rand.New(rand.NewSource(seed))}
}

func randomizerFor(seed *int64) *Randomizer {
	if seed != nil {
		return NewSeededRandomizer(*seed)
	}
	return NewRandomizer()
}

// Shuffle returns a uniformly random permutation of the whole set. Trial
// indexes are carried over unchanged; the input is not modified.
func (r *Randomizer) Shuffle(trials model.TrialSet) model.TrialSet {
	out := make(model.TrialSet, len(trials))
	copy(out, trials)
	r.rnd.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
