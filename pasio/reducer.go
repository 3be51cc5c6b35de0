package pasio

// Reducer shrinks a set of split candidates.  The result must be a subset
// of candidates that still contains 0 and len(counts).
type Reducer interface {
	ReduceCandidates(lc LogContext, counts, candidates []int) ([]int, error)
}

// Splitter is a Reducer that can also report the score of the segmentation
// it selects, and build a Scorer for any candidate set.
type Splitter interface {
	Reducer
	// Split returns the total score of the selected segmentation and its
	// boundaries, which start with 0 and end with len(counts).
	Split(lc LogContext, counts, candidates []int) (score float64, splits []int, err error)
	// Scorer returns a Scorer for counts segmented at candidates.
	Scorer(counts, candidates []int) (*Scorer, error)
}

// NotZeroReducer collapses an all-zero array to the single segment
// [0, len(counts)) and leaves any other input unchanged.
type NotZeroReducer struct{}

// ReduceCandidates implements Reducer.
func (NotZeroReducer) ReduceCandidates(lc LogContext, counts, candidates []int) ([]int, error) {
	for _, c := range counts {
		if c != 0 {
			lc.Debugf("not zeros, interval not reduced")
			return candidates, nil
		}
	}
	lc.Debugf("just zeros: %d --> 2 split points", len(candidates))
	return []int{0, len(counts)}, nil
}

// NotConstantReducer drops every candidate that lies inside a run of equal
// counts.  Splitting such a run never improves the score, so the optimum is
// preserved.
type NotConstantReducer struct{}

// ReduceCandidates implements Reducer.
func (NotConstantReducer) ReduceCandidates(lc LogContext, counts, candidates []int) ([]int, error) {
	n := len(counts)
	reduced := make([]int, 0, len(candidates))
	reduced = append(reduced, 0)
	for _, c := range candidates {
		if c > 0 && c < n && counts[c-1] != counts[c] {
			reduced = append(reduced, c)
		}
	}
	reduced = append(reduced, n)
	lc.Debugf("constants reduced: %d --> %d split points", len(candidates), len(reduced))
	return reduced, nil
}
