package pasio

import (
	"context"
	"fmt"
	"io"
	"math"
	"runtime"

	"github.com/autosome-ru/papolarity/encoding/bedgraph"
	"github.com/autosome-ru/papolarity/interval"
	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/syncqueue"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/hts/bgzf"
)

type outputFormat int

const (
	formatTSV outputFormat = iota
	formatTSVBgz
	formatRio
)

func parseFormat(format string) (outputFormat, error) {
	switch format {
	case "tsv":
		return formatTSV, nil
	case "tsv-bgz":
		return formatTSVBgz, nil
	case "rio":
		return formatRio, nil
	}
	return 0, errors.E(errors.Invalid, fmt.Sprintf("pasio: unrecognized format %q", format))
}

// regionSource restricts an interval stream to a BEDUnion.  An interval
// partially covered by the union is cut into its covered pieces.
type regionSource struct {
	src     bedgraph.IntervalSource
	union   *interval.BEDUnion
	clipped []interval.PosType
	pending []bedgraph.Interval
	cur     bedgraph.Interval
	err     error
}

func (r *regionSource) Scan() bool {
	for len(r.pending) == 0 {
		if r.err != nil || !r.src.Scan() {
			return false
		}
		iv := r.src.Interval()
		if iv.Stop >= math.MaxInt32 {
			r.err = errors.E(errors.Invalid, fmt.Sprintf("pasio: %s:%d-%d is out of range for region restriction", iv.Chrom, iv.Start, iv.Stop))
			return false
		}
		r.clipped = r.union.Clip(r.clipped, iv.Chrom, interval.PosType(iv.Start), interval.PosType(iv.Stop))
		for i := 0; i < len(r.clipped); i += 2 {
			r.pending = append(r.pending, bedgraph.Interval{
				Chrom: iv.Chrom,
				Start: int(r.clipped[i]),
				Stop:  int(r.clipped[i+1]),
				Count: iv.Count,
			})
		}
	}
	r.cur = r.pending[0]
	r.pending = r.pending[1:]
	return true
}

func (r *regionSource) Interval() bedgraph.Interval { return r.cur }

func (r *regionSource) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.src.Err()
}

// NewRegionSource restricts src to the intervals of union.  Stretches cut
// away behave like uncovered positions.
func NewRegionSource(src bedgraph.IntervalSource, union *interval.BEDUnion) bedgraph.IntervalSource {
	return &regionSource{src: src, union: union}
}

// segmentRun segments one run and converts the result to output records in
// absolute coordinates.
func segmentRun(splitter Splitter, run bedgraph.Run) ([]bedgraph.SegmentRecord, error) {
	lc := LogContext{Contig: run.Chrom}
	lc.Printf("starting run at %d of length %d", run.Start, len(run.Counts))
	seg, err := SegmentCounts(lc, splitter, run.Counts)
	if err != nil {
		return nil, errors.E(fmt.Sprintf("pasio: segmenting %s:%d-%d", run.Chrom, run.Start, run.Stop()), err)
	}
	lc.Printf("finished, score %f, number of splits %d, log likelihood %f",
		seg.Score, len(seg.Splits), seg.LogLikelihood)
	recs := make([]bedgraph.SegmentRecord, len(seg.Segments))
	for i, s := range seg.Segments {
		recs[i] = bedgraph.SegmentRecord{
			Chrom:                 run.Chrom,
			Start:                 int64(run.Start + s.Start),
			Stop:                  int64(run.Start + s.Stop),
			MeanCount:             s.MeanCount,
			Length:                int64(s.Len()),
			LogMarginalLikelihood: s.LogMarginalLikelihood,
		}
	}
	return recs, nil
}

type runJob struct {
	idx int
	run bedgraph.Run
}

// Process reads intervals from src, segments every run (a contig, or a
// gap-free stretch of one with opts.SplitAtGaps) and writes the segments to
// out in input order.  Runs are built one at a time and handed to
// opts.Parallelism workers, so at most about 2*Parallelism dense count
// arrays are alive at once.
func Process(ctx context.Context, src bedgraph.IntervalSource, out bedgraph.SegmentWriter, opts Opts) error {
	splitter, err := NewSplitter(opts)
	if err != nil {
		return err
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	log.Printf("pasio.Process: segmenting runs with %d jobs", parallelism)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := syncqueue.NewOrderedQueue(2 * parallelism)
	var errs errors.Once
	written := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			entry, ok, err := queue.Next()
			if err != nil {
				errs.Set(err)
				return
			}
			if !ok {
				return
			}
			recs := entry.([]bedgraph.SegmentRecord)
			for i := range recs {
				if err := out.Write(&recs[i]); err != nil {
					errs.Set(err)
					queue.Close(err)
					return
				}
			}
			written++
		}
	}()

	jobs := make(chan runJob, parallelism)
	var readErr error
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer close(jobs)
		reader := bedgraph.NewRunReader(src, opts.SplitAtGaps)
		for idx := 0; reader.Scan(); idx++ {
			select {
			case jobs <- runJob{idx: idx, run: reader.Run()}:
			case <-ctx.Done():
				readErr = ctx.Err()
				return
			}
		}
		readErr = reader.Err()
	}()

	err = traverse.Each(parallelism, func(int) error {
		for job := range jobs {
			if err := ctx.Err(); err != nil {
				queue.Close(err)
				return err
			}
			recs, err := segmentRun(splitter, job.run)
			if err != nil {
				queue.Close(err)
				return err
			}
			if err := queue.Insert(job.idx, recs); err != nil {
				return err
			}
		}
		return nil
	})
	// Unblocks the reader if the workers stopped early.
	cancel()
	<-readDone
	switch {
	case err != nil:
	case readErr != nil:
		err = readErr
		queue.Close(err)
	default:
		err = queue.Close(nil)
	}
	<-done
	errs.Set(err)
	if errs.Err() == nil {
		log.Printf("pasio.Process: wrote segments of %d runs", written)
	}
	return errs.Err()
}

// ProcessPaths segments the bedGraph file at inPath (optionally compressed)
// and writes the segments to outPath in opts.Format.
func ProcessPaths(ctx context.Context, inPath, outPath string, opts Opts) (err error) {
	if err = opts.Validate(); err != nil {
		return
	}
	var format outputFormat
	if format, err = parseFormat(opts.Format); err != nil {
		return
	}
	var union *interval.BEDUnion
	if opts.BedPath != "" {
		var u interval.BEDUnion
		if u, err = interval.NewBEDUnionFromPath(ctx, opts.BedPath, interval.NewBEDOpts{
			Invert:        opts.InvertBed,
			OneBasedInput: opts.BedOneBased,
		}); err != nil {
			return
		}
		union = &u
	} else if opts.Region != "" {
		var entry interval.Entry
		if entry, err = interval.ParseRegionString(opts.Region); err != nil {
			return
		}
		var u interval.BEDUnion
		if u, err = interval.NewBEDUnionFromEntries([]interval.Entry{entry}, interval.NewBEDOpts{Invert: opts.InvertBed}); err != nil {
			return
		}
		union = &u
	}

	var infile file.File
	if infile, err = file.Open(ctx, inPath); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, infile, &err)
	reader, _ := compress.NewReader(infile.Reader(ctx))
	defer func() {
		if e := reader.Close(); e != nil && err == nil {
			err = e
		}
	}()
	var src bedgraph.IntervalSource = bedgraph.NewScanner(reader)
	if union != nil {
		src = NewRegionSource(src, union)
	}

	var dst file.File
	if dst, err = file.Create(ctx, outPath); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, dst, &err)
	var w io.Writer = dst.Writer(ctx)
	if format == formatTSVBgz {
		bgzfWriter := bgzf.NewWriter(w, runtime.NumCPU())
		defer func() {
			if e := bgzfWriter.Close(); e != nil && err == nil {
				err = e
			}
		}()
		w = bgzfWriter
	}
	var out bedgraph.SegmentWriter
	if format == formatRio {
		out = bedgraph.NewRioWriter(w)
	} else {
		out = bedgraph.NewTSVWriter(w)
	}
	defer func() {
		if e := out.Close(); e != nil && err == nil {
			err = e
		}
	}()
	log.Printf("pasio.ProcessPaths: reading %s, writing %s", inPath, outPath)
	return Process(ctx, src, out, opts)
}
