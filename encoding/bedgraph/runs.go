package bedgraph

import (
	"github.com/pkg/errors"
	"v.io/x/lib/vlog"
)

// Run is a dense count array covering [Start, Start+len(Counts)) of Chrom.
type Run struct {
	Chrom  string
	Start  int
	Counts []int
}

// Stop returns the end of the run.
func (r Run) Stop() int { return r.Start + len(r.Counts) }

// sortedSource rejects overlapping or unsorted intervals and contigs split
// across the stream.
type sortedSource struct {
	src  IntervalSource
	seen map[string]bool
	prev Interval
	has  bool
	err  error
}

func (s *sortedSource) Scan() bool {
	if s.err != nil || !s.src.Scan() {
		return false
	}
	cur := s.src.Interval()
	if s.has && cur.Chrom == s.prev.Chrom {
		if cur.Start < s.prev.Stop {
			s.err = errors.Errorf("bedgraph: unsorted or overlapping input: %s [%d, %d) follows [%d, %d)",
				cur.Chrom, cur.Start, cur.Stop, s.prev.Start, s.prev.Stop)
			return false
		}
	} else {
		if s.seen[cur.Chrom] {
			s.err = errors.Errorf("bedgraph: unsorted input (split chromosome %s)", cur.Chrom)
			return false
		}
		s.seen[cur.Chrom] = true
	}
	s.prev = cur
	s.has = true
	return true
}

func (s *sortedSource) Interval() Interval { return s.prev }

func (s *sortedSource) Err() error {
	if s.err != nil {
		return s.err
	}
	return s.src.Err()
}

// RunReader groups intervals into runs.  By default a run spans a whole
// contig, from its first to its last interval, with uncovered positions
// filled with zero counts.  With splitAtGaps, every uncovered stretch ends
// the run instead, and no counts are invented.  Contig ends are never
// padded, since contig lengths are unknown.
type RunReader struct {
	groups *SliceWhen
	run    Run
}

// NewRunReader creates a RunReader over src.
func NewRunReader(src IntervalSource, splitAtGaps bool) *RunReader {
	split := func(prev, cur Interval) bool { return prev.Chrom != cur.Chrom }
	if splitAtGaps {
		split = func(prev, cur Interval) bool { return prev.Chrom != cur.Chrom || prev.Stop != cur.Start }
	}
	sorted := &sortedSource{src: src, seen: map[string]bool{}}
	return &RunReader{groups: NewSliceWhen(sorted, split)}
}

// Scan advances to the next run.
func (r *RunReader) Scan() bool {
	if !r.groups.Next() {
		return false
	}
	group := r.groups.Group()
	first, last := group[0], group[len(group)-1]
	r.run = Run{
		Chrom:  first.Chrom,
		Start:  first.Start,
		Counts: make([]int, last.Stop-first.Start),
	}
	for _, iv := range group {
		counts := r.run.Counts[iv.Start-first.Start : iv.Stop-first.Start]
		for i := range counts {
			counts[i] = iv.Count
		}
	}
	vlog.VI(1).Infof("bedgraph: run %s:%d-%d from %d intervals", r.run.Chrom, r.run.Start, r.run.Stop(), len(group))
	return true
}

// Run returns the current run.
func (r *RunReader) Run() Run { return r.run }

// Err returns the error that stopped Scan, if any.
func (r *RunReader) Err() error { return r.groups.Err() }

// ReadRuns reads all runs from src.
func ReadRuns(src IntervalSource, splitAtGaps bool) ([]Run, error) {
	reader := NewRunReader(src, splitAtGaps)
	var runs []Run
	for reader.Scan() {
		runs = append(runs, reader.Run())
	}
	return runs, reader.Err()
}
