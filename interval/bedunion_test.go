package interval

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

const testBED = `# comment
chr1	2488104	2488172
chr1	2488172	2488200
chr1	2489165	2489273
chr1	2489200	2489250

chr2	100	100
chr2	300	400
chr3	5	5
`

func TestLoadSortedBEDIntervals(t *testing.T) {
	tests := []struct {
		invert, oneBasedInput bool
		want                  map[string][]PosType
	}{
		{
			false,
			false,
			map[string][]PosType{
				"chr1": {2488104, 2488200, 2489165, 2489273},
				"chr2": {300, 400},
				"chr3": {},
			},
		},
		{
			true,
			true,
			map[string][]PosType{
				"chr1": {-1, 2488103, 2488200, 2489164, 2489273, math.MaxInt32},
				// One-based [100, 100] is a single base.
				"chr2": {-1, 99, 100, 299, 400, math.MaxInt32},
				"chr3": {-1, 4, 5, math.MaxInt32},
			},
		},
	}

	for _, tt := range tests {
		result, err := NewBEDUnion(strings.NewReader(testBED), NewBEDOpts{
			Invert:        tt.invert,
			OneBasedInput: tt.oneBasedInput,
		})
		expect.NoError(t, err)
		if !reflect.DeepEqual(result.nameMap, tt.want) {
			t.Errorf("invert=%v: wanted: %v  got: %v", tt.invert, tt.want, result.nameMap)
		}
	}
}

func TestLoadUnsortedBED(t *testing.T) {
	for _, bed := range []string{
		"chr1\t10\t20\nchr2\t0\t5\nchr1\t30\t40\n",
		"chr1\t10\t20\nchr1\t5\t8\n",
		"chr1\t10\t20\nchr1\t5\n",
		"chr1\t10\t5\n",
	} {
		_, err := NewBEDUnion(strings.NewReader(bed), NewBEDOpts{})
		expect.NotNil(t, err, bed)
	}
}

func TestNewBEDUnionFromPathGzip(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	path := filepath.Join(tmpdir, "regions.bed.gz")
	f, err := os.Create(path)
	assert.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(testBED))
	assert.NoError(t, err)
	assert.NoError(t, gz.Close())
	assert.NoError(t, f.Close())

	result, err := NewBEDUnionFromPath(context.Background(), path, NewBEDOpts{})
	assert.NoError(t, err)
	expect.EQ(t, result.Chromosomes(), 3)
	expect.EQ(t, result.nameMap["chr2"], []PosType{300, 400})
}

func TestClip(t *testing.T) {
	plain, err := NewBEDUnion(strings.NewReader("chr1\t10\t20\nchr1\t30\t40\nchr1\t50\t60\n"), NewBEDOpts{})
	assert.NoError(t, err)
	inverted, err := NewBEDUnion(strings.NewReader("chr1\t10\t20\nchr1\t30\t40\nchr1\t50\t60\n"), NewBEDOpts{Invert: true})
	assert.NoError(t, err)

	tests := []struct {
		u          *BEDUnion
		chr        string
		start, end PosType
		want       []PosType
	}{
		{&plain, "chr1", 0, 100, []PosType{10, 20, 30, 40, 50, 60}},
		{&plain, "chr1", 15, 35, []PosType{15, 20, 30, 35}},
		{&plain, "chr1", 20, 30, []PosType{}},
		{&plain, "chr1", 19, 31, []PosType{19, 20, 30, 31}},
		{&plain, "chr1", 60, 70, []PosType{}},
		{&plain, "chr1", 10, 20, []PosType{10, 20}},
		{&plain, "chr2", 0, 100, []PosType{}},
		{&inverted, "chr1", 0, 100, []PosType{0, 10, 20, 30, 40, 50, 60, 100}},
		{&inverted, "chr1", 15, 35, []PosType{20, 30}},
		{&inverted, "chr1", 12, 18, []PosType{}},
	}
	for _, tt := range tests {
		got := tt.u.Clip(nil, tt.chr, tt.start, tt.end)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Clip(%s, %d, %d): got %v, want %v", tt.chr, tt.start, tt.end, got, tt.want)
		}
	}
}

func TestParseRegionString(t *testing.T) {
	tests := []struct {
		region  string
		chrName string
		start0  PosType
		end     PosType
	}{
		{"chr1:1-1000", "chr1", 0, 1000},
		{"chr1:1000", "chr1", 999, 1000},
		{"chr1", "chr1", 0, math.MaxInt32 - 1},
	}

	for _, tt := range tests {
		result, err := ParseRegionString(tt.region)
		expect.NoError(t, err)
		expect.EQ(t, tt.chrName, result.ChrName)
		expect.EQ(t, tt.start0, result.Start0)
		expect.EQ(t, tt.end, result.End)
	}

	for _, bad := range []string{"", ":1-5", "chr1:0", "chr1:5-3", "chr1:x-3"} {
		_, err := ParseRegionString(bad)
		expect.NotNil(t, err, bad)
	}
}

func TestNewBEDUnionFromEntries(t *testing.T) {
	entry, err := ParseRegionString("chr7:101-200")
	assert.NoError(t, err)
	u, err := NewBEDUnionFromEntries([]Entry{entry}, NewBEDOpts{})
	assert.NoError(t, err)
	expect.EQ(t, u.Clip(nil, "chr7", 0, 1000), []PosType{100, 200})

	_, err = NewBEDUnionFromEntries([]Entry{{"chr1", 5, 10}, {"chr2", 0, 1}, {"chr1", 20, 30}}, NewBEDOpts{})
	expect.NotNil(t, err)
}

func TestGetTokens(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"  \t ", nil},
		{"chr1\t0\t10", []string{"chr1", "0", "10"}},
		{"  chr1   0 10\t\textra more", []string{"chr1", "0", "10"}},
		{"chr1 5", []string{"chr1", "5"}},
	}
	for _, tt := range tests {
		var tokens [3][]byte
		n := GetTokens(tokens[:], []byte(tt.line))
		var got []string
		for _, tok := range tokens[:n] {
			got = append(got, string(tok))
		}
		expect.EQ(t, got, tt.want, tt.line)
	}
}
