package pasio

import (
	"github.com/grailbio/base/errors"
	"gonum.org/v1/gonum/floats"
)

// Pipeline runs a fixed sequence of reducers followed by an optional
// terminal splitter.  A Pipeline built by NewReducerChain has no splitter;
// Split and Scorer then fail with errors.Precondition.
type Pipeline struct {
	reducers []Reducer
	splitter Splitter
}

// NewPipeline returns a pipeline that applies reducers in order and then
// splitter.
func NewPipeline(splitter Splitter, reducers ...Reducer) *Pipeline {
	if splitter == nil {
		panic("pasio.NewPipeline: nil splitter, use NewReducerChain")
	}
	return &Pipeline{reducers: reducers, splitter: splitter}
}

// NewReducerChain returns a reduce-only pipeline.
func NewReducerChain(reducers ...Reducer) *Pipeline {
	return &Pipeline{reducers: reducers}
}

func (p *Pipeline) reduce(lc LogContext, counts, candidates []int) ([]int, error) {
	var err error
	for _, r := range p.reducers {
		if candidates, err = r.ReduceCandidates(lc, counts, candidates); err != nil {
			return nil, err
		}
	}
	return candidates, nil
}

// ReduceCandidates implements Reducer.  The terminal splitter, if any, is
// applied as a reducer too.
func (p *Pipeline) ReduceCandidates(lc LogContext, counts, candidates []int) ([]int, error) {
	candidates, err := p.reduce(lc, counts, candidates)
	if err != nil || p.splitter == nil {
		return candidates, err
	}
	return p.splitter.ReduceCandidates(lc, counts, candidates)
}

// Split implements Splitter.
func (p *Pipeline) Split(lc LogContext, counts, candidates []int) (float64, []int, error) {
	if p.splitter == nil {
		return 0, nil, errors.E(errors.Precondition, "pasio: pipeline has no splitter at its end, splitting is not possible")
	}
	candidates, err := p.reduce(lc, counts, candidates)
	if err != nil {
		return 0, nil, err
	}
	return p.splitter.Split(lc, counts, candidates)
}

// Scorer implements Splitter.
func (p *Pipeline) Scorer(counts, candidates []int) (*Scorer, error) {
	if p.splitter == nil {
		return nil, errors.E(errors.Precondition, "pasio: pipeline has no splitter at its end, scoring is not possible; terminate it with a NopSplitter")
	}
	return p.splitter.Scorer(counts, candidates)
}

// NopSplitter keeps its candidates as they are.  It turns a reduce-only
// chain into a Splitter that reports the score of the reduced set.
type NopSplitter struct {
	factory *ScorerFactory
}

// NewNopSplitter creates a NopSplitter scoring with factory.
func NewNopSplitter(factory *ScorerFactory) *NopSplitter {
	return &NopSplitter{factory: factory}
}

// Scorer implements Splitter.
func (s *NopSplitter) Scorer(counts, candidates []int) (*Scorer, error) {
	return s.factory.NewScorer(counts, candidates)
}

// ReduceCandidates implements Reducer.
func (s *NopSplitter) ReduceCandidates(lc LogContext, counts, candidates []int) ([]int, error) {
	return candidates, nil
}

// Split implements Splitter.  The score is the sum of the segment scores.
func (s *NopSplitter) Split(lc LogContext, counts, candidates []int) (float64, []int, error) {
	scorer, err := s.Scorer(counts, candidates)
	if err != nil {
		return 0, nil, err
	}
	return floats.Sum(scorer.Scores()), candidates, nil
}
