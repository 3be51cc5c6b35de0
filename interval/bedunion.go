package interval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/klauspost/compress/gzip"
)

// GetTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.  The tokens alias curLine.
func GetTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// NewBEDOpts defines behavior of this package's BED-loading function(s).
type NewBEDOpts struct {
	// Invert causes the complement of the interval-union to be returned.  The
	// complement extends down to position -1 at the beginning of each
	// chromosome, and 2^31 - 1 (exclusive) at the end.  Only chromosomes
	// mentioned in the BED are included; a single empty interval qualifies as
	// a mention.
	Invert bool
	// OneBasedInput interprets the BED interval boundaries as one-based [start,
	// end] instead of the usual zero-based [start, end).
	OneBasedInput bool
}

// PosType is BEDUnion's coordinate type.
type PosType int32

const posTypeMax = math.MaxInt32

// searchPosType returns the index of x in a[], or the position where x would
// be inserted if x isn't in a (this could be len(a)).  It's exactly the same
// as sort.SearchInts(), except for PosType.
func searchPosType(a []PosType, x PosType) int {
	return sort.Search(len(a), func(i int) bool { return a[i] >= x })
}

// BEDUnion is a per-chromosome collection of length-2N endpoint sequences:
// the start of interval #k is element [2k], its (exclusive) end is element
// [2k+1], and intervals are disjoint and increasing.  Inversion is then just
// a matter of adding sentinels at both ends.
//
// A BEDUnion is immutable after construction.
type BEDUnion struct {
	nameMap map[string][]PosType
}

// Chromosomes returns the number of chromosomes mentioned.
func (u *BEDUnion) Chromosomes() int { return len(u.nameMap) }

// Clip appends the intersection of the (0-based) interval [start, end) on
// chrName with the BEDUnion to dst[:0], as {start, end} endpoint pairs in
// increasing order, and returns the result.  It is empty when chrName is not
// mentioned in the union.
func (u *BEDUnion) Clip(dst []PosType, chrName string, start, end PosType) []PosType {
	dst = dst[:0]
	chrIntervals := u.nameMap[chrName]
	if chrIntervals == nil || end <= start {
		return dst
	}
	// idx is the first endpoint > start.  An odd idx is an interval end, so
	// start is inside the interval beginning at idx-1.
	idx := searchPosType(chrIntervals, start+1)
	idx &^= 1
	for ; idx < len(chrIntervals); idx += 2 {
		s, e := chrIntervals[idx], chrIntervals[idx+1]
		if s >= end {
			break
		}
		if s < start {
			s = start
		}
		if e > end {
			e = end
		}
		if s < e {
			dst = append(dst, s, e)
		}
	}
	return dst
}

// unionBuilder merges sorted intervals into a BEDUnion, one chromosome at a
// time.
type unionBuilder struct {
	opts         NewBEDOpts
	caller       string
	bedUnion     BEDUnion
	prevChr      string
	prevStart    PosType
	prevEnd      PosType
	chrIntervals []PosType
	totBases     int
}

func newUnionBuilder(caller string, opts NewBEDOpts) *unionBuilder {
	return &unionBuilder{
		opts:     opts,
		caller:   caller,
		bedUnion: BEDUnion{nameMap: make(map[string][]PosType)},
	}
}

// finishChr stores the intervals of prevChr.
func (b *unionBuilder) finishChr() {
	if b.prevChr == "" {
		return
	}
	if b.prevEnd != -1 {
		b.chrIntervals = append(b.chrIntervals, b.prevStart, b.prevEnd)
	}
	if b.opts.Invert {
		b.chrIntervals = append(b.chrIntervals, posTypeMax)
	}
	b.bedUnion.nameMap[b.prevChr] = b.chrIntervals
}

// add merges [start, end) on chr into the union.  chr must be safe to
// retain.
func (b *unionBuilder) add(chr string, start, end PosType) error {
	if chr != b.prevChr {
		b.finishChr()
		b.prevChr = chr
		if _, found := b.bedUnion.nameMap[chr]; found {
			return fmt.Errorf("%s: unsorted input (split chromosome %v)", b.caller, chr)
		}
		b.chrIntervals = []PosType{}
		if b.opts.Invert {
			b.chrIntervals = append(b.chrIntervals, -1)
		}
		if end == start {
			// Distinguish between 'mentioned' chromosomes without any covered
			// bases and unmentioned chromosomes.
			b.prevStart = -1
			b.prevEnd = -1
			return nil
		}
		b.prevStart = start
		b.prevEnd = end
		b.totBases += int(end - start)
		return nil
	}
	if end == start {
		return nil
	}
	if b.prevEnd == -1 {
		b.prevStart = start
		b.prevEnd = end
		b.totBases += int(end - start)
		return nil
	}
	if start > b.prevEnd {
		b.chrIntervals = append(b.chrIntervals, b.prevStart, b.prevEnd)
		b.prevStart = start
		b.prevEnd = end
		b.totBases += int(end - start)
		return nil
	}
	if start < b.prevStart {
		return fmt.Errorf("%s: unsorted input", b.caller)
	}
	// Intervals overlap or touch, merge them.
	if end > b.prevEnd {
		b.totBases += int(end - b.prevEnd)
		b.prevEnd = end
	}
	return nil
}

func (b *unionBuilder) finish() BEDUnion {
	b.finishChr()
	return b.bedUnion
}

func scanBEDUnion(scanner *bufio.Scanner, opts NewBEDOpts) (bedUnion BEDUnion, err error) {
	const caller = "interval.scanBEDUnion"
	builder := newUnionBuilder(caller, opts)

	var startSubtract int
	if opts.OneBasedInput {
		startSubtract++
	}

	var tokens [3][]byte
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		nToken := GetTokens(tokens[:], curLine)
		if nToken == 0 || tokens[0][0] == '#' {
			continue
		}
		if nToken != 3 {
			err = fmt.Errorf("%s: line %d has fewer tokens than expected", caller, lineIdx)
			return
		}

		var parsedStart int
		if parsedStart, err = strconv.Atoi(gunsafe.BytesToString(tokens[1])); err != nil {
			return
		}
		parsedStart -= startSubtract
		if parsedStart < 0 {
			err = fmt.Errorf("%s: negative start coordinate %s on line %d", caller, tokens[1], lineIdx)
			return
		}
		var parsedEnd int
		if parsedEnd, err = strconv.Atoi(gunsafe.BytesToString(tokens[2])); err != nil {
			return
		}
		if (parsedEnd < parsedStart) || (parsedEnd >= posTypeMax) {
			err = fmt.Errorf("%s: invalid coordinate pair on line %d", caller, lineIdx)
			return
		}
		chr := builder.prevChr
		if gunsafe.BytesToString(tokens[0]) != chr {
			// tokens[0] points into the scanner buffer; the map key needs a copy.
			chr = string(tokens[0])
		}
		if err = builder.add(chr, PosType(parsedStart), PosType(parsedEnd)); err != nil {
			return
		}
	}
	if err = scanner.Err(); err != nil {
		return
	}
	log.Printf("BED loaded, %d base(s) covered.\n", builder.totBases)
	bedUnion = builder.finish()
	return
}

// NewBEDUnion loads just the intervals from a sorted (by first coordinate)
// interval-BED, merging touching/overlapping intervals and eliminating empty
// ones in the process.  Lines starting with '#' are skipped.
func NewBEDUnion(reader io.Reader, opts NewBEDOpts) (BEDUnion, error) {
	return scanBEDUnion(bufio.NewScanner(reader), opts)
}

// NewBEDUnionFromPath is a wrapper for NewBEDUnion that takes a path instead
// of an io.Reader.  Paths ending in .gz are decompressed.
func NewBEDUnionFromPath(ctx context.Context, path string, opts NewBEDOpts) (bedUnion BEDUnion, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, infile, &err)
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(reader); err != nil {
			return
		}
		defer gz.Close()
		reader = gz
	}
	return NewBEDUnion(reader, opts)
}

// Entry represents a single interval, with 0-based coordinates.
type Entry struct {
	ChrName string
	Start0  PosType
	End     PosType
}

// ParseRegionString parses a region string of one of the forms
//   [contig ID]:[1-based first pos]-[last pos]
//   [contig ID]:[1-based pos]
//   [contig ID]
// returning a contig ID and 0-based interval boundaries.  The interval
// [0, posTypeMax - 1) is returned if there is no positional restriction.
func ParseRegionString(region string) (result Entry, err error) {
	if len(region) == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty region string")
		return
	}
	colonPos := strings.IndexByte(region, ':')
	if colonPos == -1 {
		result.ChrName = region
		result.Start0 = 0
		result.End = posTypeMax - 1
		return
	}
	if colonPos == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty contig ID")
		return
	}
	result.ChrName = region[0:colonPos]
	rangeStr := region[colonPos+1:]
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		var pos1 int64
		if pos1, err = strconv.ParseInt(rangeStr, 10, 32); err != nil {
			return
		}
		if pos1 <= 0 {
			err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr)
			return
		}
		result.Start0 = PosType(pos1 - 1)
		result.End = PosType(pos1)
		return
	}
	start1Str := rangeStr[:dashPos]
	endStr := rangeStr[dashPos+1:]
	var start1 int
	if start1, err = strconv.Atoi(start1Str); err != nil {
		return
	}
	if start1 <= 0 {
		err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", start1Str)
		return
	}
	var end0 int
	if end0, err = strconv.Atoi(endStr); err != nil {
		return
	}
	// end0 == posTypeMax is excluded so that an inverted union never
	// contains repeated endpoints.
	if end0 < start1 || end0 >= posTypeMax {
		err = fmt.Errorf("interval.ParseRegionString: invalid range string %v", rangeStr)
		return
	}
	result.Start0 = PosType(start1 - 1)
	result.End = PosType(end0)
	return
}

// NewBEDUnionFromEntries initializes a BEDUnion from a sorted []Entry.
// This ignores opts.OneBasedInput, since Start0 is defined to be zero-based.
func NewBEDUnionFromEntries(entries []Entry, opts NewBEDOpts) (BEDUnion, error) {
	const caller = "interval.NewBEDUnionFromEntries"
	builder := newUnionBuilder(caller, opts)
	for _, entry := range entries {
		if entry.Start0 < 0 {
			return BEDUnion{}, fmt.Errorf("%s: negative start coordinate", caller)
		}
		if (entry.End < entry.Start0) || (entry.End >= posTypeMax) {
			return BEDUnion{}, fmt.Errorf("%s: invalid coordinate pair [%d, %d)", caller, entry.Start0, entry.End)
		}
		if err := builder.add(entry.ChrName, entry.Start0, entry.End); err != nil {
			return BEDUnion{}, err
		}
	}
	return builder.finish(), nil
}
