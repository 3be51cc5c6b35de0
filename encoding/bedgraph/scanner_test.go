package bedgraph

import (
	"strings"
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func scanAll(input string) ([]Interval, error) {
	s := NewScanner(strings.NewReader(input))
	var ivs []Interval
	for s.Scan() {
		ivs = append(ivs, s.Interval())
	}
	return ivs, s.Err()
}

func TestScanner(t *testing.T) {
	input := `browser position chr1:1-100
track type=bedGraph name=coverage
# comment

chr1	0	10	5
chr1 10 12 0 extra
chr1	12	12	8
chr2	5	7	100
`
	ivs, err := scanAll(input)
	expect.NoError(t, err)
	expect.EQ(t, ivs, []Interval{
		{"chr1", 0, 10, 5},
		{"chr1", 10, 12, 0},
		{"chr2", 5, 7, 100},
	})
	expect.EQ(t, ivs[2].Len(), 2)
}

func TestScannerErrors(t *testing.T) {
	tests := []struct {
		input  string
		errStr string
	}{
		{"chr1\t0\t10\n", "line 1 has 3 fields"},
		{"chr1\t0\t10\t5\nchr1\tx\t12\t5\n", "line 2: start"},
		{"chr1\t0\t10\t5\n\nchr1\t10\t12\t2.5\n", "line 3: count must be an integer"},
		{"chr1\t0\t10\t-1\n", "line 1: negative count -1"},
		{"chr1\t10\t5\t1\n", "line 1: invalid interval [10, 5)"},
		{"chr1\t-3\t5\t1\n", "line 1: invalid interval [-3, 5)"},
	}
	for _, tt := range tests {
		_, err := scanAll(tt.input)
		assert.NotNil(t, err, tt.input)
		assert.HasSubstr(t, err.Error(), tt.errStr)
	}
}

func TestScannerLineIdx(t *testing.T) {
	s := NewScanner(strings.NewReader("track\nchr1\t0\t1\t1\n\nchr1\t1\t2\t1\n"))
	expect.True(t, s.Scan())
	expect.EQ(t, s.LineIdx(), 2)
	expect.True(t, s.Scan())
	expect.EQ(t, s.LineIdx(), 4)
	expect.False(t, s.Scan())
	expect.NoError(t, s.Err())
}
