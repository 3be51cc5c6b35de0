// Package logcache provides lookup tables for log(x+shift) and
// lgamma(x+shift) over non-negative integers x.
//
// Values beyond the end of a table are evaluated directly with the same
// expression used to fill it, so a Table returns bit-identical results on
// both sides of its boundary.
package logcache

import "math"

// DefaultCacheSize is the number of precomputed entries in a table built by
// the pasio scorers unless configured otherwise.
const DefaultCacheSize = 1 << 20

// Table holds f(x+shift) for x in [0, Size()).  It is immutable after
// construction and safe for concurrent use.
type Table struct {
	shift  float64
	fn     func(float64) float64
	values []float64
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

func newTable(fn func(float64) float64, shift float64, size int) *Table {
	if size < 0 {
		size = 0
	}
	t := &Table{
		shift:  shift,
		fn:     fn,
		values: make([]float64, size),
	}
	for i := range t.values {
		t.values[i] = fn(float64(i) + shift)
	}
	return t
}

// NewLogTable returns a table of log(x+shift) for x in [0, size).
func NewLogTable(shift float64, size int) *Table {
	return newTable(math.Log, shift, size)
}

// NewLogGammaTable returns a table of lgamma(x+shift) for x in [0, size).
func NewLogGammaTable(shift float64, size int) *Table {
	return newTable(lgamma, shift, size)
}

// Size returns the number of precomputed entries.
func (t *Table) Size() int {
	return len(t.values)
}

// Shift returns the constant added to every argument.
func (t *Table) Shift() float64 {
	return t.shift
}

// Compute returns f(x+shift).  x must be non-negative.
func (t *Table) Compute(x int) float64 {
	if x < len(t.values) {
		return t.values[x]
	}
	return t.fn(float64(x) + t.shift)
}

// ComputeArray stores f(x[i]+shift) in dst[i] and returns dst, resized to
// len(x).  maxValue must be an upper bound on the elements of x; when it is
// inside the table, no per-element bounds decision is made.
func (t *Table) ComputeArray(dst []float64, x []int, maxValue int) []float64 {
	if maxValue >= len(t.values) {
		return t.ComputeArrayUnbound(dst, x)
	}
	dst = resize(dst, len(x))
	values := t.values
	for i, v := range x {
		dst[i] = values[v]
	}
	return dst
}

// ComputeArrayUnbound is like ComputeArray, without a known bound on x.
func (t *Table) ComputeArrayUnbound(dst []float64, x []int) []float64 {
	dst = resize(dst, len(x))
	for i, v := range x {
		dst[i] = t.Compute(v)
	}
	return dst
}

func resize(dst []float64, n int) []float64 {
	if cap(dst) < n {
		return make([]float64, n)
	}
	return dst[:n]
}
