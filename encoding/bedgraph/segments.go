package bedgraph

import (
	"encoding/binary"
	"io"
	"math"
	"strconv"

	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
	"github.com/grailbio/base/tsv"
	"github.com/pkg/errors"
)

func init() {
	recordiozstd.Init()
}

// SegmentRecord is one output line: a segment in absolute contig
// coordinates.
type SegmentRecord struct {
	Chrom                 string  `tsv:"chrom"`
	Start                 int64   `tsv:"start"`
	Stop                  int64   `tsv:"stop"`
	MeanCount             float64 `tsv:"mean_count"`
	Length                int64   `tsv:"length"`
	LogMarginalLikelihood float64 `tsv:"log_marginal_likelihood"`
}

// SegmentWriter consumes segment records.  Close flushes buffered output; it
// does not close the underlying writer.
type SegmentWriter interface {
	Write(rec *SegmentRecord) error
	Close() error
}

// TSVWriter writes segment records as tab-separated lines
//
//   chrom  start  stop  mean_count  length  log_marginal_likelihood
//
// without a header line.  Floats are written with six decimals.
type TSVWriter struct {
	w *tsv.Writer
}

// NewTSVWriter creates a TSVWriter.
func NewTSVWriter(w io.Writer) *TSVWriter {
	return &TSVWriter{w: tsv.NewWriter(w)}
}

// Write implements SegmentWriter.
func (t *TSVWriter) Write(rec *SegmentRecord) error {
	t.w.WriteString(rec.Chrom)
	t.w.WriteInt64(rec.Start)
	t.w.WriteInt64(rec.Stop)
	t.w.WriteString(strconv.FormatFloat(rec.MeanCount, 'f', 6, 64))
	t.w.WriteInt64(rec.Length)
	t.w.WriteString(strconv.FormatFloat(rec.LogMarginalLikelihood, 'f', 6, 64))
	return t.w.EndLine()
}

// Close implements SegmentWriter.
func (t *TSVWriter) Close() error {
	return t.w.Flush()
}

// ReadSegmentsTSV reads records written by TSVWriter.  Lines starting with
// '#' are ignored.
func ReadSegmentsTSV(r io.Reader) ([]SegmentRecord, error) {
	tsvReader := tsv.NewReader(r)
	tsvReader.Comment = '#'

	var recs []SegmentRecord
	for {
		var rec SegmentRecord
		if err := tsvReader.Read(&rec); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

const (
	segmentsVersionHeader = "pasio_segments_version"
	segmentsVersion       = "1"
	// chrom length, start, stop, mean, length, lml
	segmentFixedSize = 4 + 8*5
)

// RioWriter writes segment records to a zstd-compressed recordio file.
type RioWriter struct {
	w recordio.Writer
}

// NewRioWriter creates a RioWriter.
func NewRioWriter(out io.Writer) *RioWriter {
	w := recordio.NewWriter(out, recordio.WriterOpts{
		Marshal:      marshalSegment,
		Transformers: []string{recordiozstd.Name},
	})
	w.AddHeader(segmentsVersionHeader, segmentsVersion)
	return &RioWriter{w: w}
}

// Write implements SegmentWriter.
func (r *RioWriter) Write(rec *SegmentRecord) error {
	r.w.Append(rec)
	return nil
}

// Close implements SegmentWriter.
func (r *RioWriter) Close() error {
	return r.w.Finish()
}

func marshalSegment(scratch []byte, v interface{}) ([]byte, error) {
	rec := v.(*SegmentRecord)
	n := segmentFixedSize + len(rec.Chrom)
	t := scratch
	if cap(t) < n {
		t = make([]byte, n)
	}
	t = t[:n]
	binary.LittleEndian.PutUint32(t[0:4], uint32(len(rec.Chrom)))
	binary.LittleEndian.PutUint64(t[4:12], uint64(rec.Start))
	binary.LittleEndian.PutUint64(t[12:20], uint64(rec.Stop))
	binary.LittleEndian.PutUint64(t[20:28], math.Float64bits(rec.MeanCount))
	binary.LittleEndian.PutUint64(t[28:36], uint64(rec.Length))
	binary.LittleEndian.PutUint64(t[36:44], math.Float64bits(rec.LogMarginalLikelihood))
	copy(t[segmentFixedSize:], rec.Chrom)
	return t, nil
}

func unmarshalSegment(in []byte) (interface{}, error) {
	if len(in) < segmentFixedSize {
		return nil, errors.Errorf("bedgraph: segment record too short (%d bytes)", len(in))
	}
	chromLen := int(binary.LittleEndian.Uint32(in[0:4]))
	if len(in) != segmentFixedSize+chromLen {
		return nil, errors.Errorf("bedgraph: segment record has %d bytes, want %d", len(in), segmentFixedSize+chromLen)
	}
	return &SegmentRecord{
		Chrom:                 string(in[segmentFixedSize:]),
		Start:                 int64(binary.LittleEndian.Uint64(in[4:12])),
		Stop:                  int64(binary.LittleEndian.Uint64(in[12:20])),
		MeanCount:             math.Float64frombits(binary.LittleEndian.Uint64(in[20:28])),
		Length:                int64(binary.LittleEndian.Uint64(in[28:36])),
		LogMarginalLikelihood: math.Float64frombits(binary.LittleEndian.Uint64(in[36:44])),
	}, nil
}

// ReadSegmentsRio reads records written by RioWriter.
func ReadSegmentsRio(rs io.ReadSeeker) ([]SegmentRecord, error) {
	scanner := recordio.NewScanner(rs, recordio.ScannerOpts{
		Unmarshal: unmarshalSegment,
	})
	version := ""
	for _, kv := range scanner.Header() {
		if kv.Key == segmentsVersionHeader {
			version, _ = kv.Value.(string)
		}
	}
	if version != segmentsVersion {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, errors.Errorf("bedgraph: unrecognized segments version %q, want %q", version, segmentsVersion)
	}
	var recs []SegmentRecord
	for scanner.Scan() {
		recs = append(recs, *scanner.Get().(*SegmentRecord))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}
