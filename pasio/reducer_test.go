package pasio

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	testifyassert "github.com/stretchr/testify/assert"
)

func TestNotZeroReducer(t *testing.T) {
	tests := []struct {
		counts, candidates, want []int
	}{
		{[]int{0, 0, 0, 0}, []int{0, 1, 2, 3, 4}, []int{0, 4}},
		{[]int{0}, []int{0, 1}, []int{0, 1}},
		{[]int{0, 0, 1, 0}, []int{0, 1, 2, 3, 4}, []int{0, 1, 2, 3, 4}},
		{[]int{0, 0, 1, 0}, []int{0, 2, 4}, []int{0, 2, 4}},
	}
	for _, tt := range tests {
		got, err := NotZeroReducer{}.ReduceCandidates(LogContext{}, tt.counts, tt.candidates)
		assert.NoError(t, err)
		expect.EQ(t, got, tt.want)
	}
}

func TestNotConstantReducer(t *testing.T) {
	tests := []struct {
		counts, candidates, want []int
	}{
		{[]int{7, 7, 7}, []int{0, 1, 2, 3}, []int{0, 3}},
		{[]int{1, 2, 2, 3}, []int{0, 1, 2, 3, 4}, []int{0, 1, 3, 4}},
		{[]int{1, 2, 2, 3}, []int{0, 2, 4}, []int{0, 4}},
		{[]int{5}, []int{0, 1}, []int{0, 1}},
	}
	for _, tt := range tests {
		got, err := NotConstantReducer{}.ReduceCandidates(LogContext{}, tt.counts, tt.candidates)
		assert.NoError(t, err)
		expect.EQ(t, got, tt.want)
	}
}

func TestNotConstantReducerRandom(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for iter := 0; iter < 100; iter++ {
		counts := make([]int, 1+r.Intn(40))
		for i := range counts {
			counts[i] = r.Intn(3)
		}
		got, err := NotConstantReducer{}.ReduceCandidates(LogContext{}, counts, AllCandidates(len(counts)))
		assert.NoError(t, err)
		want := []int{0}
		for i := 1; i < len(counts); i++ {
			if counts[i-1] != counts[i] {
				want = append(want, i)
			}
		}
		want = append(want, len(counts))
		expect.EQ(t, got, want, "counts=%v", counts)
	}
}

func TestConstantReductionPreservesOptimum(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	f := newTestFactory(t, 2, 1)
	splitter := NewSquareSplitter(f, SquareSplitterOpts{})
	combined := NewPipeline(splitter, NotConstantReducer{})
	for iter := 0; iter < 30; iter++ {
		counts := make([]int, 60)
		for i := range counts {
			counts[i] = r.Intn(3) * (i / 15)
		}
		wantScore, _, err := splitter.Split(LogContext{}, counts, AllCandidates(len(counts)))
		assert.NoError(t, err)
		gotScore, _, err := combined.Split(LogContext{}, counts, AllCandidates(len(counts)))
		assert.NoError(t, err)
		testifyassert.InDelta(t, wantScore, gotScore, 1e-6)
	}
}

func TestSlidingWindowWindows(t *testing.T) {
	tests := []struct {
		window SlidingWindow
		n      int
		want   []Window
	}{
		{SlidingWindow{3, 2}, 8, []Window{{0, 4, 0.5}, {2, 6, 0.75}, {4, 8, 1}, {6, 8, 1}}},
		{SlidingWindow{10, 5}, 2, []Window{{0, 2, 1}}},
		{SlidingWindow{2, 1}, 3, []Window{{0, 3, 1}, {1, 3, 1}}},
	}
	for _, tt := range tests {
		expect.EQ(t, tt.window.Windows(tt.n), tt.want, fmt.Sprint(tt.window))
	}
}

// recordingReducer keeps every other candidate and records what it saw.
type recordingReducer struct {
	calls [][]int
}

func (r *recordingReducer) ReduceCandidates(lc LogContext, counts, candidates []int) ([]int, error) {
	r.calls = append(r.calls, append([]int(nil), candidates...))
	if candidates[0] != 0 || candidates[len(candidates)-1] != len(counts) {
		return nil, fmt.Errorf("window not in local coordinates: %v over %d counts", candidates, len(counts))
	}
	kept := []int{0}
	for i := 2; i < len(candidates)-1; i += 2 {
		kept = append(kept, candidates[i])
	}
	return append(kept, len(counts)), nil
}

func TestSlidingWindowReducer(t *testing.T) {
	counts := make([]int, 20)
	candidates := []int{0, 2, 3, 5, 8, 9, 12, 15, 16, 20}
	base := &recordingReducer{}
	reducer, err := NewSlidingWindowReducer(SlidingWindow{Size: 4, Shift: 3}, base)
	assert.NoError(t, err)
	got, err := reducer.ReduceCandidates(LogContext{Contig: "chr1"}, counts, candidates)
	assert.NoError(t, err)
	expect.EQ(t, base.calls, [][]int{
		{0, 2, 3, 5, 8},
		{0, 3, 4, 7, 10},
		{0, 3, 4, 8},
	})
	// Window results translated back: {0,3,8}, {5,9,15}, {12,16,20}.
	expect.EQ(t, got, []int{0, 3, 5, 8, 9, 12, 15, 16, 20})

	_, err = NewSlidingWindowReducer(SlidingWindow{Size: 4, Shift: 0}, base)
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestSlidingWindowReducerKeepsBoundaries(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	f := newTestFactory(t, 1, 1)
	base := NewPipeline(NewSquareSplitter(f, SquareSplitterOpts{}), NotZeroReducer{})
	reducer, err := NewSlidingWindowReducer(SlidingWindow{Size: 16, Shift: 8}, base)
	assert.NoError(t, err)
	for iter := 0; iter < 10; iter++ {
		counts := make([]int, 100)
		for i := range counts {
			counts[i] = r.Intn(2) * 10 * ((i / 20) % 2)
		}
		candidates := AllCandidates(len(counts))
		got, err := reducer.ReduceCandidates(LogContext{}, counts, candidates)
		assert.NoError(t, err)
		expect.EQ(t, got[0], 0)
		expect.EQ(t, got[len(got)-1], len(counts))
		expect.LE(t, len(got), len(candidates))
		for i := 1; i < len(got); i++ {
			expect.True(t, got[i] > got[i-1])
		}
	}
}
