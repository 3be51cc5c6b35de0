package pasio

import (
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	testifyassert "github.com/stretchr/testify/assert"
)

// dropOneReducer removes the first interior candidate on every call.
type dropOneReducer struct {
	calls int
}

func (r *dropOneReducer) ReduceCandidates(lc LogContext, counts, candidates []int) ([]int, error) {
	r.calls++
	if len(candidates) <= 2 {
		return candidates, nil
	}
	return append([]int{candidates[0]}, candidates[2:]...), nil
}

type identityReducer struct {
	calls int
}

func (r *identityReducer) ReduceCandidates(lc LogContext, counts, candidates []int) ([]int, error) {
	r.calls++
	return candidates, nil
}

type growingReducer struct{}

func (growingReducer) ReduceCandidates(lc LogContext, counts, candidates []int) ([]int, error) {
	return []int{0, 1, 2, 3, len(counts)}, nil
}

func TestRoundReducerConverges(t *testing.T) {
	counts := make([]int, 10)
	base := &dropOneReducer{}
	got, err := NewRoundReducer(base, 0).ReduceCandidates(LogContext{}, counts, AllCandidates(len(counts)))
	assert.NoError(t, err)
	expect.EQ(t, got, []int{0, 10})
	// Nine interior candidates take nine shrinking rounds plus one that
	// leaves the set unchanged.
	expect.EQ(t, base.calls, 10)
}

func TestRoundReducerBudget(t *testing.T) {
	counts := make([]int, 10)
	base := &dropOneReducer{}
	got, err := NewRoundReducer(base, 3).ReduceCandidates(LogContext{}, counts, AllCandidates(len(counts)))
	assert.NoError(t, err)
	expect.EQ(t, got, []int{0, 4, 5, 6, 7, 8, 9, 10})
	expect.EQ(t, base.calls, 3)
}

func TestRoundReducerIdentity(t *testing.T) {
	counts := make([]int, 10)
	base := &identityReducer{}
	got, err := NewRoundReducer(base, 5).ReduceCandidates(LogContext{}, counts, AllCandidates(len(counts)))
	assert.NoError(t, err)
	expect.EQ(t, got, AllCandidates(len(counts)))
	expect.EQ(t, base.calls, 1)
}

func TestRoundReducerGrowthPanics(t *testing.T) {
	counts := make([]int, 10)
	testifyassert.Panics(t, func() {
		NewRoundReducer(growingReducer{}, 0).ReduceCandidates(LogContext{}, counts, []int{0, 10}) // nolint: errcheck
	})
}

func TestRoundReducerWithSplitter(t *testing.T) {
	counts := []int{0, 0, 1, 0, 5, 6, 5, 7, 0, 0, 0, 1, 9, 9, 8, 9, 0, 0}
	f := newTestFactory(t, 1, 1)
	exact := NewSquareSplitter(f, SquareSplitterOpts{})
	window, err := NewSlidingWindowReducer(SlidingWindow{Size: 6, Shift: 3}, exact)
	assert.NoError(t, err)
	reducer := NewRoundReducer(window, 0)
	got, err := reducer.ReduceCandidates(LogContext{Contig: "chrT"}, counts, AllCandidates(len(counts)))
	assert.NoError(t, err)
	expect.EQ(t, got[0], 0)
	expect.EQ(t, got[len(got)-1], len(counts))
	// The result is a fixed point of one more window pass.
	again, err := window.ReduceCandidates(LogContext{}, counts, got)
	assert.NoError(t, err)
	expect.EQ(t, again, got)
}
