package bedgraph

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"github.com/autosome-ru/papolarity/interval"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/pkg/errors"
	"v.io/x/lib/vlog"
)

// Interval is one bedGraph record.
type Interval struct {
	Chrom       string
	Start, Stop int
	Count       int
}

// Len returns Stop - Start.
func (iv Interval) Len() int { return iv.Stop - iv.Start }

// IntervalSource is a stream of intervals.  Scanner implements it.
type IntervalSource interface {
	// Scan advances to the next interval, returning false at the end of the
	// stream or on error.
	Scan() bool
	// Interval returns the current interval.
	Interval() Interval
	// Err returns the first error encountered, if any.
	Err() error
}

// Scanner parses bedGraph lines.
type Scanner struct {
	sc      *bufio.Scanner
	tokens  [4][]byte
	lineIdx int
	cur     Interval
	err     error
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), 1<<24)
	return &Scanner{sc: sc}
}

var (
	trackPrefix   = []byte("track")
	browserPrefix = []byte("browser")
)

func isHeader(token []byte) bool {
	return token[0] == '#' || bytes.Equal(token, trackPrefix) || bytes.Equal(token, browserPrefix)
}

// Scan implements IntervalSource.  Zero-length intervals are skipped.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	for s.sc.Scan() {
		s.lineIdx++
		line := s.sc.Bytes()
		nToken := interval.GetTokens(s.tokens[:], line)
		if nToken == 0 || isHeader(s.tokens[0]) {
			continue
		}
		if nToken != len(s.tokens) {
			s.err = errors.Errorf("bedgraph: line %d has %d fields, want at least %d", s.lineIdx, nToken, len(s.tokens))
			return false
		}
		var iv Interval
		var err error
		if iv.Start, err = strconv.Atoi(gunsafe.BytesToString(s.tokens[1])); err != nil {
			s.err = errors.Wrapf(err, "bedgraph: line %d: start", s.lineIdx)
			return false
		}
		if iv.Stop, err = strconv.Atoi(gunsafe.BytesToString(s.tokens[2])); err != nil {
			s.err = errors.Wrapf(err, "bedgraph: line %d: stop", s.lineIdx)
			return false
		}
		if iv.Count, err = strconv.Atoi(gunsafe.BytesToString(s.tokens[3])); err != nil {
			s.err = errors.Wrapf(err, "bedgraph: line %d: count must be an integer", s.lineIdx)
			return false
		}
		if iv.Start < 0 || iv.Stop < iv.Start {
			s.err = errors.Errorf("bedgraph: line %d: invalid interval [%d, %d)", s.lineIdx, iv.Start, iv.Stop)
			return false
		}
		if iv.Count < 0 {
			s.err = errors.Errorf("bedgraph: line %d: negative count %d", s.lineIdx, iv.Count)
			return false
		}
		if iv.Start == iv.Stop {
			vlog.VI(1).Infof("bedgraph: line %d: skipping empty interval", s.lineIdx)
			continue
		}
		// Chromosome names repeat on consecutive lines; only copy on change.
		if gunsafe.BytesToString(s.tokens[0]) == s.cur.Chrom {
			iv.Chrom = s.cur.Chrom
		} else {
			iv.Chrom = string(s.tokens[0])
		}
		s.cur = iv
		return true
	}
	s.err = s.sc.Err()
	return false
}

// Interval implements IntervalSource.
func (s *Scanner) Interval() Interval { return s.cur }

// Err implements IntervalSource.
func (s *Scanner) Err() error { return s.err }

// LineIdx returns the 1-based number of the last line read.
func (s *Scanner) LineIdx() int { return s.lineIdx }
