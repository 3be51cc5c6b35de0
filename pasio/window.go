package pasio

import (
	"fmt"

	"github.com/biogo/store/llrb"
	"github.com/grailbio/base/errors"
)

// SlidingWindow describes overlapping windows over a candidate array.  Each
// window spans Size+1 candidates (Size segments between them) and
// consecutive windows start Shift candidates apart.
type SlidingWindow struct {
	Size  int
	Shift int
}

// Window is the candidate index range [Lo, Hi) of one window.  Completion is
// the fraction of the candidate array covered once this window is done.
type Window struct {
	Lo, Hi     int
	Completion float64
}

// Windows returns the windows over a candidate array of length n.
func (w SlidingWindow) Windows(n int) []Window {
	var windows []Window
	for lo := 0; lo < n-1; lo += w.Shift {
		hi := lo + w.Size + 1
		if hi > n {
			hi = n
		}
		windows = append(windows, Window{Lo: lo, Hi: hi, Completion: float64(hi) / float64(n)})
	}
	return windows
}

func (w SlidingWindow) validate() error {
	if w.Size <= 0 || w.Shift <= 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("pasio: window size %d and shift %d must be positive", w.Size, w.Shift))
	}
	return nil
}

// SlidingWindowReducer runs Base inside every window of a candidate array,
// in window-local coordinates, and returns the union of what Base keeps.
// One pass is a heuristic: splits near window edges are only revisited
// through overlap with the next window.
type SlidingWindowReducer struct {
	window SlidingWindow
	base   Reducer
}

// NewSlidingWindowReducer creates a SlidingWindowReducer.
func NewSlidingWindowReducer(window SlidingWindow, base Reducer) (*SlidingWindowReducer, error) {
	if err := window.validate(); err != nil {
		return nil, err
	}
	return &SlidingWindowReducer{window: window, base: base}, nil
}

type position int

// Compare implements llrb.Comparable.
func (p position) Compare(c llrb.Comparable) int {
	return int(p) - int(c.(position))
}

// ReduceCandidates implements Reducer.
func (r *SlidingWindowReducer) ReduceCandidates(lc LogContext, counts, candidates []int) ([]int, error) {
	var kept llrb.Tree
	kept.Insert(position(0))
	kept.Insert(position(len(counts)))
	var local []int
	for _, w := range r.window.Windows(len(candidates)) {
		inWindow := candidates[w.Lo:w.Hi]
		start, stop := inWindow[0], inWindow[len(inWindow)-1]
		wlc := lc.WithWindow(start, stop)
		local = resizeInts(local, len(inWindow))
		for i, c := range inWindow {
			local[i] = c - start
		}
		reduced, err := r.base.ReduceCandidates(wlc, counts[start:stop], local)
		if err != nil {
			return nil, err
		}
		for _, c := range reduced {
			kept.Insert(position(c + start))
		}
		wlc.Debugf("sliding (completion: %.2f %%): %d --> %d split-points",
			100*w.Completion, len(inWindow), len(reduced))
	}
	result := make([]int, 0, kept.Len())
	kept.Do(func(c llrb.Comparable) bool {
		result = append(result, int(c.(position)))
		return false
	})
	return result, nil
}
