package pasio

import (
	"fmt"
	"math"

	"github.com/autosome-ru/papolarity/logcache"
	"github.com/grailbio/base/errors"
	"gonum.org/v1/gonum/floats"
)

// ScorerFactory holds the model parameters and the lookup tables shared by
// every Scorer it creates.  It is read-only after construction and may be
// shared across goroutines.
type ScorerFactory struct {
	alpha float64
	beta  float64
	// intAlpha is set when alpha has an integral value; scorers then evaluate
	// lgamma(count + alpha) through logGamma with a known upper bound.
	intAlpha bool
	alphaInt int

	logBeta       *logcache.Table // log(x + beta)
	logGamma      *logcache.Table // lgamma(x)
	logGammaAlpha *logcache.Table // lgamma(x + alpha)
}

// NewScorerFactory creates a ScorerFactory with tables of
// logcache.DefaultCacheSize entries.
func NewScorerFactory(alpha, beta float64) (*ScorerFactory, error) {
	return NewScorerFactoryWithCache(alpha, beta, logcache.DefaultCacheSize)
}

// NewScorerFactoryWithCache creates a ScorerFactory whose tables hold
// cacheSize entries each.
func NewScorerFactoryWithCache(alpha, beta float64, cacheSize int) (*ScorerFactory, error) {
	if !(alpha >= 0) || math.IsInf(alpha, 1) {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("pasio.NewScorerFactory: alpha must be a finite non-negative number, got %v", alpha))
	}
	if !(beta >= 0) || math.IsInf(beta, 1) {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("pasio.NewScorerFactory: beta must be a finite non-negative number, got %v", beta))
	}
	f := &ScorerFactory{
		alpha:         alpha,
		beta:          beta,
		logBeta:       logcache.NewLogTable(beta, cacheSize),
		logGamma:      logcache.NewLogGammaTable(0, cacheSize),
		logGammaAlpha: logcache.NewLogGammaTable(alpha, cacheSize),
	}
	if alpha == math.Trunc(alpha) && alpha <= math.MaxInt32 {
		f.intAlpha = true
		f.alphaInt = int(alpha)
	}
	return f, nil
}

// Alpha returns the shape of the Gamma prior.
func (f *ScorerFactory) Alpha() float64 { return f.alpha }

// Beta returns the rate of the Gamma prior.
func (f *ScorerFactory) Beta() float64 { return f.beta }

// SegmentCreationCost is alpha*log(beta) - lgamma(alpha).
func (f *ScorerFactory) SegmentCreationCost() float64 {
	return f.alpha*f.logBeta.Compute(0) - f.logGammaAlpha.Compute(0)
}

// NewScorer validates counts and candidates and returns a Scorer over them.
// Neither slice may be modified while the Scorer is in use.
func (f *ScorerFactory) NewScorer(counts, candidates []int) (*Scorer, error) {
	if err := checkCounts(counts); err != nil {
		return nil, err
	}
	if err := checkCandidates(candidates, len(counts)); err != nil {
		return nil, err
	}
	s := &Scorer{
		f:            f,
		counts:       counts,
		candidates:   candidates,
		cumsum:       make([]int, len(candidates)),
		creationCost: f.SegmentCreationCost(),
	}
	sum, pos := 0, 0
	for i, c := range candidates {
		for ; pos < c; pos++ {
			sum += counts[pos]
		}
		s.cumsum[i] = sum
	}
	return s, nil
}

func checkCounts(counts []int) error {
	if len(counts) == 0 {
		return errors.E(errors.Invalid, "pasio: empty count array")
	}
	for i, c := range counts {
		if c < 0 {
			return errors.E(errors.Invalid, fmt.Sprintf("pasio: negative count %d at position %d", c, i))
		}
	}
	return nil
}

func checkCandidates(candidates []int, n int) error {
	if len(candidates) < 2 {
		return errors.E(errors.Invalid, fmt.Sprintf("pasio: split candidates %v must contain at least 0 and %d", candidates, n))
	}
	if candidates[0] != 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("pasio: first split candidate is %d, want 0", candidates[0]))
	}
	if last := candidates[len(candidates)-1]; last != n {
		return errors.E(errors.Invalid, fmt.Sprintf("pasio: last split candidate is %d, want %d", last, n))
	}
	for i := 1; i < len(candidates); i++ {
		if candidates[i] <= candidates[i-1] {
			return errors.E(errors.Invalid, fmt.Sprintf("pasio: split candidates not strictly increasing at index %d (%d after %d)", i, candidates[i], candidates[i-1]))
		}
	}
	return nil
}

// Scorer evaluates segment scores over one count array.  Segments are
// addressed by indices into the candidate array: (i, j) denotes
// [candidates[i], candidates[j]).
//
// A Scorer reuses internal buffers and is not safe for concurrent use.
type Scorer struct {
	f            *ScorerFactory
	counts       []int
	candidates   []int
	cumsum       []int // count sum of [0, candidates[i])
	creationCost float64

	logfacCumsum []float64 // computed on first use

	ints    []int
	lengths []int
	logs    []float64
}

// Candidates returns the candidate array the scorer was built with.
func (s *Scorer) Candidates() []int { return s.candidates }

// SegmentCreationCost returns the constant charged once per segment.
func (s *Scorer) SegmentCreationCost() float64 { return s.creationCost }

// SelfScore returns the score of segment (start, stop) without the creation
// cost.
func (s *Scorer) SelfScore(start, stop int) float64 {
	count := s.cumsum[stop] - s.cumsum[start]
	length := s.candidates[stop] - s.candidates[start]
	return s.f.logGammaAlpha.Compute(count) - (float64(count)+s.f.alpha)*s.f.logBeta.Compute(length)
}

// Score returns the score of segment (start, stop) including the creation
// cost.
func (s *Scorer) Score(start, stop int) float64 {
	return s.SelfScore(start, stop) + s.creationCost
}

// SelfScoreNoSplits is SelfScore of the whole array.
func (s *Scorer) SelfScoreNoSplits() float64 {
	return s.SelfScore(0, len(s.candidates)-1)
}

// ScoreNoSplits is Score of the whole array.
func (s *Scorer) ScoreNoSplits() float64 {
	return s.SelfScoreNoSplits() + s.creationCost
}

// AllSuffixesSelfScore stores SelfScore(i, stop) in dst[i] for every i < stop
// and returns dst resized to stop.
func (s *Scorer) AllSuffixesSelfScore(stop int, dst []float64) []float64 {
	f := s.f
	stopPos := s.candidates[stop]
	s.lengths = resizeInts(s.lengths, stop)
	for i, c := range s.candidates[:stop] {
		s.lengths[i] = stopPos - c
	}
	s.logs = f.logBeta.ComputeArray(s.logs, s.lengths, stopPos)

	s.ints = resizeInts(s.ints, stop)
	if f.intAlpha {
		// ints holds count + alpha, which is integral.
		total := f.alphaInt + s.cumsum[stop]
		for i, c := range s.cumsum[:stop] {
			s.ints[i] = total - c
		}
		dst = f.logGamma.ComputeArray(dst, s.ints, total)
		for i, v := range s.ints {
			dst[i] -= float64(v) * s.logs[i]
		}
		return dst
	}
	total := s.cumsum[stop]
	for i, c := range s.cumsum[:stop] {
		s.ints[i] = total - c
	}
	dst = f.logGammaAlpha.ComputeArray(dst, s.ints, total)
	for i, v := range s.ints {
		dst[i] -= (float64(v) + f.alpha) * s.logs[i]
	}
	return dst
}

// Scores returns Score for every consecutive pair of candidates.
func (s *Scorer) Scores() []float64 {
	n := len(s.candidates) - 1
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = s.Score(i, i+1)
	}
	return scores
}

// MeanCounts returns the mean count of every consecutive pair of candidates.
func (s *Scorer) MeanCounts() []float64 {
	n := len(s.candidates) - 1
	means := make([]float64, n)
	for i := range means {
		means[i] = float64(s.cumsum[i+1]-s.cumsum[i]) / float64(s.candidates[i+1]-s.candidates[i])
	}
	return means
}

func (s *Scorer) initLogfac() {
	if s.logfacCumsum != nil {
		return
	}
	plusOne := make([]int, len(s.counts))
	for i, c := range s.counts {
		plusOne[i] = c + 1
	}
	logfacs := s.f.logGamma.ComputeArrayUnbound(nil, plusOne)
	s.logfacCumsum = make([]float64, len(s.candidates))
	sum, pos := 0.0, 0
	for i, c := range s.candidates {
		for ; pos < c; pos++ {
			sum += logfacs[pos]
		}
		s.logfacCumsum[i] = sum
	}
}

// TotalSumLogFac returns the sum of log(count!) over the whole array.
// Subtracting it from a score yields a log-likelihood.
func (s *Scorer) TotalSumLogFac() float64 {
	s.initLogfac()
	return s.logfacCumsum[len(s.logfacCumsum)-1]
}

// LogMarginalLikelihoods returns, for every consecutive pair of candidates,
// the segment score minus the sum of log(count!) inside the segment.
func (s *Scorer) LogMarginalLikelihoods() []float64 {
	s.initLogfac()
	lml := s.Scores()
	segmentLogfacs := make([]float64, len(lml))
	for i := range segmentLogfacs {
		segmentLogfacs[i] = s.logfacCumsum[i+1] - s.logfacCumsum[i]
	}
	floats.Sub(lml, segmentLogfacs)
	return lml
}

func resizeInts(dst []int, n int) []int {
	if cap(dst) < n {
		return make([]int, n)
	}
	return dst[:n]
}
