package pasio

import "fmt"

// RoundReducer applies a base reducer repeatedly until a round removes no
// candidate or the round budget is spent.
type RoundReducer struct {
	base Reducer
	// numRounds <= 0 means up to len(counts) rounds, which is always enough
	// to converge.
	numRounds int
}

// NewRoundReducer creates a RoundReducer.  numRounds <= 0 runs until
// convergence.
func NewRoundReducer(base Reducer, numRounds int) *RoundReducer {
	return &RoundReducer{base: base, numRounds: numRounds}
}

// ReduceCandidates implements Reducer.  It panics if a round returns more
// candidates than it was given.
func (r *RoundReducer) ReduceCandidates(lc LogContext, counts, candidates []int) ([]int, error) {
	numRounds := r.numRounds
	if numRounds <= 0 {
		numRounds = len(counts)
	}
	if numRounds < 1 {
		numRounds = 1
	}
	for round := 1; round <= numRounds; round++ {
		rlc := lc.WithRound(round)
		rlc.Debugf("starting round, num_candidates %d", len(candidates))
		reduced, err := r.base.ReduceCandidates(rlc, counts, candidates)
		if err != nil {
			return nil, err
		}
		if intsEqual(reduced, candidates) {
			rlc.Debugf("no split points removed, finishing")
			return reduced, nil
		}
		if len(reduced) >= len(candidates) {
			panic(fmt.Sprintf("internal error: round %d did not shrink the candidate set (%d --> %d)",
				round, len(candidates), len(reduced)))
		}
		rlc.Debugf("finishing round, num_candidates %d", len(reduced))
		candidates = reduced
	}
	lc.Printf("splitting finished in %d rounds, number of split points %d", numRounds, len(candidates))
	return candidates, nil
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
