package bedgraph

type sliceState int

const (
	// accumulating: the current group is being filled from the source.
	accumulating sliceState = iota
	// emitting: a group is complete and the interval that closed it is held
	// back as the start of the next group.
	emitting
	// finished: the source is drained.
	finished
)

// SliceWhen splits an interval stream into maximal groups of consecutive
// intervals, starting a new group between prev and cur whenever
// split(prev, cur) holds.  Groups are produced lazily, one per Next call.
type SliceWhen struct {
	src   IntervalSource
	split func(prev, cur Interval) bool
	state sliceState

	pending Interval // valid in state emitting
	group   []Interval
	err     error
}

// NewSliceWhen creates a SliceWhen over src.
func NewSliceWhen(src IntervalSource, split func(prev, cur Interval) bool) *SliceWhen {
	return &SliceWhen{src: src, split: split, state: accumulating}
}

// Reset restarts grouping over a new source.
func (s *SliceWhen) Reset(src IntervalSource) {
	s.src = src
	s.state = accumulating
	s.group = nil
	s.err = nil
}

// Next advances to the next group.  It returns false once the source is
// exhausted or has failed; Err distinguishes the two.
func (s *SliceWhen) Next() bool {
	if s.err != nil {
		return false
	}
	// Groups are handed out to the caller, so never reuse their storage.
	s.group = nil
	switch s.state {
	case finished:
		return false
	case emitting:
		s.group = append(s.group, s.pending)
		s.state = accumulating
	}
	for s.state == accumulating {
		if !s.src.Scan() {
			s.err = s.src.Err()
			s.state = finished
			break
		}
		cur := s.src.Interval()
		if n := len(s.group); n > 0 && s.split(s.group[n-1], cur) {
			s.pending = cur
			s.state = emitting
			break
		}
		s.group = append(s.group, cur)
	}
	return s.err == nil && len(s.group) > 0
}

// Group returns the group produced by the last successful Next.
func (s *SliceWhen) Group() []Interval { return s.group }

// Err returns the source error that stopped grouping, if any.
func (s *SliceWhen) Err() error { return s.err }
