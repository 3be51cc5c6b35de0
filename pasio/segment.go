package pasio

// Segment is one piece [Start, Stop) of a segmentation, in the coordinates
// of the count array it was computed from.
type Segment struct {
	Start, Stop           int
	MeanCount             float64
	LogMarginalLikelihood float64
}

// Len returns Stop - Start.
func (s Segment) Len() int { return s.Stop - s.Start }

// Segmentation is the result of segmenting one count array.  Segments are
// contiguous and cover [0, len(counts)).
type Segmentation struct {
	// Score is the objective maximized by the splitter.
	Score float64
	// LogLikelihood is Score minus the sum of log(count!) over all positions.
	LogLikelihood float64
	// Splits holds the segment boundaries, starting with 0 and ending with
	// len(counts).
	Splits   []int
	Segments []Segment
}

// AllCandidates returns {0, 1, ..., n}.
func AllCandidates(n int) []int {
	candidates := make([]int, n+1)
	for i := range candidates {
		candidates[i] = i
	}
	return candidates
}

// SegmentCounts segments counts with splitter, starting from every position
// as a split candidate.
func SegmentCounts(lc LogContext, splitter Splitter, counts []int) (Segmentation, error) {
	if err := checkCounts(counts); err != nil {
		return Segmentation{}, err
	}
	score, splits, err := splitter.Split(lc, counts, AllCandidates(len(counts)))
	if err != nil {
		return Segmentation{}, err
	}
	scorer, err := splitter.Scorer(counts, splits)
	if err != nil {
		return Segmentation{}, err
	}
	means := scorer.MeanCounts()
	lmls := scorer.LogMarginalLikelihoods()
	seg := Segmentation{
		Score:         score,
		LogLikelihood: score - scorer.TotalSumLogFac(),
		Splits:        splits,
		Segments:      make([]Segment, len(means)),
	}
	for i := range seg.Segments {
		seg.Segments[i] = Segment{
			Start:                 splits[i],
			Stop:                  splits[i+1],
			MeanCount:             means[i],
			LogMarginalLikelihood: lmls[i],
		}
	}
	return seg, nil
}
