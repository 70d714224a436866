// Package token models closed intervals of the 64-bit partitioner token ring.
//
// A Range never wraps: a ring segment that crosses math.MaxInt64 is represented
// by two ranges, one ending at math.MaxInt64 and one starting at math.MinInt64.
package token

import (
	"cmp"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidRange is returned when a range would have its lower bound above
	// its upper bound.
	ErrInvalidRange = errors.New("invalid token range")

	// ErrIncompatibleRanges is returned by Merge for ranges that neither overlap
	// nor touch.
	ErrIncompatibleRanges = errors.New("incompatible token ranges")
)

// Full is the whole ring.
var Full = Range{Lower: math.MinInt64, Upper: math.MaxInt64}

// Range is the closed interval [Lower, Upper] of ring tokens.
// Lower <= Upper always holds for ranges built through New or the With* methods.
type Range struct {
	Lower int64
	Upper int64
}

// New returns the range [lower, upper].
func New(lower, upper int64) (Range, error) {
	if lower > upper {
		return Range{}, fmt.Errorf("%w: lower bound %d cannot be greater than upper bound %d",
			ErrInvalidRange, lower, upper)
	}
	return Range{Lower: lower, Upper: upper}, nil
}

// MustNew is New for bounds known to be ordered. Panics otherwise.
func MustNew(lower, upper int64) Range {
	r, err := New(lower, upper)
	if err != nil {
		panic(err)
	}
	return r
}

// Contains reports whether t lies within the range, bounds included.
func (r Range) Contains(t int64) bool {
	return r.Lower <= t && t <= r.Upper
}

// CanIntersect reports whether bound, bound-1 or bound+1 is contained.
//
// The one-token tolerance lets contiguous ranges such as [0;10] and [11;20]
// count as intersecting so they can be merged. The ring extremes do not wrap.
func (r Range) CanIntersect(bound int64) bool {
	if r.Contains(bound) {
		return true
	}
	if bound > math.MinInt64 && r.Contains(bound-1) {
		return true
	}
	return bound < math.MaxInt64 && r.Contains(bound+1)
}

// Intersects reports whether either bound of other can intersect r.
func (r Range) Intersects(other Range) bool {
	return r.CanIntersect(other.Lower) || r.CanIntersect(other.Upper)
}

// Merge returns the smallest range covering both r and other.
// It fails with ErrIncompatibleRanges unless r.Intersects(other).
func (r Range) Merge(other Range) (Range, error) {
	if !r.Intersects(other) {
		return Range{}, fmt.Errorf("%w: cannot merge ranges %s and %s as they are not contiguous",
			ErrIncompatibleRanges, r, other)
	}
	return Range{Lower: min(r.Lower, other.Lower), Upper: max(r.Upper, other.Upper)}, nil
}

// WithLower returns a copy of r starting at lower.
func (r Range) WithLower(lower int64) (Range, error) {
	return New(lower, r.Upper)
}

// WithUpper returns a copy of r ending at upper.
func (r Range) WithUpper(upper int64) (Range, error) {
	return New(r.Lower, upper)
}

// IsFull reports whether r covers the whole ring.
func (r Range) IsFull() bool {
	return r == Full
}

// Width returns the number of tokens between the bounds, i.e. Upper-Lower
// computed without overflow. The full ring has width math.MaxUint64.
func (r Range) Width() uint64 {
	return uint64(r.Upper) - uint64(r.Lower)
}

// String renders the range as [lower;upper].
func (r Range) String() string {
	return fmt.Sprintf("[%d;%d]", r.Lower, r.Upper)
}

// Compare orders ranges by lower bound, then upper bound.
func Compare(a, b Range) int {
	if c := cmp.Compare(a.Lower, b.Lower); c != 0 {
		return c
	}
	return cmp.Compare(a.Upper, b.Upper)
}
