package pasio

import (
	"fmt"
	"math"

	"github.com/grailbio/base/errors"
	"gonum.org/v1/gonum/floats"
)

// RegularizationFunc maps a segment length, or a number of splits, to a
// penalty that is scaled by a multiplier and subtracted from the score.
type RegularizationFunc func(x float64) float64

// Identity returns x.
func Identity(x float64) float64 { return x }

// RevLog returns 1/log(1+x).
func RevLog(x float64) float64 { return 1 / math.Log(x+1) }

// NegLog returns -log(1+x).
func NegLog(x float64) float64 { return -math.Log(x + 1) }

// Names accepted by RegularizationFuncByName.
const (
	RegularizationNone   = "none"
	RegularizationRevLog = "revlog"
	RegularizationNegLog = "neglog"
)

// RegularizationFuncByName returns the function named by one of the
// Regularization* constants.  "none" maps to Identity; it is only meaningful
// together with a zero multiplier.
func RegularizationFuncByName(name string) (RegularizationFunc, error) {
	switch name {
	case RegularizationNone:
		return Identity, nil
	case RegularizationRevLog:
		return RevLog, nil
	case RegularizationNegLog:
		return NegLog, nil
	}
	return nil, errors.E(errors.Invalid, fmt.Sprintf("pasio: unknown regularization function %q", name))
}

// SquareSplitterOpts configures the optional regularization terms of
// SquareSplitter.  A zero multiplier disables the corresponding term; nil
// functions default to Identity.
type SquareSplitterOpts struct {
	// LengthMultiplier scales LengthFunc(segment length), subtracted once per
	// segment.
	LengthMultiplier float64
	LengthFunc       RegularizationFunc
	// SplitNumberMultiplier scales SplitNumberFunc(number of splits so far),
	// subtracted every time a segment is appended after a split.
	SplitNumberMultiplier float64
	SplitNumberFunc       RegularizationFunc
}

// SquareSplitter finds the best-scoring segmentation over a candidate set by
// dynamic programming over candidate indices.  It takes O(m^2) time for m
// candidates.
type SquareSplitter struct {
	factory *ScorerFactory
	opts    SquareSplitterOpts
}

// NewSquareSplitter creates a SquareSplitter scoring with factory.
func NewSquareSplitter(factory *ScorerFactory, opts SquareSplitterOpts) *SquareSplitter {
	if opts.LengthFunc == nil {
		opts.LengthFunc = Identity
	}
	if opts.SplitNumberFunc == nil {
		opts.SplitNumberFunc = Identity
	}
	return &SquareSplitter{factory: factory, opts: opts}
}

// Scorer implements Splitter.
func (s *SquareSplitter) Scorer(counts, candidates []int) (*Scorer, error) {
	return s.factory.NewScorer(counts, candidates)
}

// ReduceCandidates implements Reducer.  It returns the optimal split
// positions and drops the score.
func (s *SquareSplitter) ReduceCandidates(lc LogContext, counts, candidates []int) ([]int, error) {
	_, splits, err := s.Split(lc, counts, candidates)
	return splits, err
}

// Split implements Splitter.  Ties between equally good previous splits are
// resolved towards the lowest candidate index.
func (s *SquareSplitter) Split(lc LogContext, counts, candidates []int) (float64, []int, error) {
	scorer, err := s.Scorer(counts, candidates)
	if err != nil {
		return 0, nil, err
	}
	var (
		prefixScores   []float64
		previousSplits []int
	)
	if s.opts.SplitNumberMultiplier == 0 && s.opts.LengthMultiplier == 0 {
		prefixScores, previousSplits = s.solve(scorer)
	} else {
		prefixScores, previousSplits = s.solveRegularized(scorer)
	}
	return prefixScores[len(prefixScores)-1], collectSplitPoints(previousSplits, candidates), nil
}

// solve fills prefixScores[i], the best score of [0, candidates[i]), and
// previousSplits[i], the index of the last split before i in that
// segmentation.
func (s *SquareSplitter) solve(scorer *Scorer) (prefixScores []float64, previousSplits []int) {
	m := len(scorer.candidates)
	prefixScores = make([]float64, m)
	previousSplits = make([]int, m)
	cost := scorer.creationCost
	var scores []float64
	for end := 1; end < m; end++ {
		scores = scorer.AllSuffixesSelfScore(end, scores)
		floats.Add(scores, prefixScores[:end])
		best := floats.MaxIdx(scores)
		previousSplits[end] = best
		prefixScores[end] = scores[best] + cost
	}
	return
}

func (s *SquareSplitter) solveRegularized(scorer *Scorer) (prefixScores []float64, previousSplits []int) {
	candidates := scorer.candidates
	m := len(candidates)
	prefixScores = make([]float64, m)
	previousSplits = make([]int, m)
	numSplits := make([]float64, m)
	cost := scorer.creationCost
	opts := s.opts
	var scores []float64
	for end := 1; end < m; end++ {
		scores = scorer.AllSuffixesSelfScore(end, scores)
		floats.Add(scores, prefixScores[:end])
		if opts.SplitNumberMultiplier != 0 {
			for prev := range scores {
				scores[prev] -= opts.SplitNumberMultiplier * opts.SplitNumberFunc(numSplits[prev]+1)
			}
			// A segment starting at 0 follows no split.
			scores[0] += opts.SplitNumberMultiplier * opts.SplitNumberFunc(1)
		}
		if opts.LengthMultiplier != 0 {
			for prev := range scores {
				scores[prev] -= opts.LengthMultiplier * opts.LengthFunc(float64(candidates[end]-candidates[prev]))
			}
		}
		best := floats.MaxIdx(scores)
		previousSplits[end] = best
		if best != 0 {
			numSplits[end] = numSplits[best] + 1
		}
		prefixScores[end] = scores[best] + cost
	}
	return
}

// collectSplitPoints backtracks from the last candidate and returns the
// chosen positions in increasing order.
func collectSplitPoints(previousSplits []int, candidates []int) []int {
	idx := len(previousSplits) - 1
	splits := []int{candidates[idx]}
	for idx != 0 {
		idx = previousSplits[idx]
		splits = append(splits, candidates[idx])
	}
	for i, j := 0, len(splits)-1; i < j; i, j = i+1, j-1 {
		splits[i], splits[j] = splits[j], splits[i]
	}
	return splits
}
