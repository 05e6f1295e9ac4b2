package mem

import "fmt"

// Range is an inclusive [First, Last] address interval.
//
// The zero value {0, 0} is a placeholder and never describes a live
// allocation or an installed table entry.
type Range struct {
	First uintptr
	Last  uintptr
}

// NewRange returns the range [first, last].
func NewRange(first, last uintptr) Range {
	return Range{First: first, Last: last}
}

// RangeOf returns the range of size bytes starting at first.
// size must be at least 1.
func RangeOf(first, size uintptr) Range {
	return Range{First: first, Last: first + size - 1}
}

// Valid reports whether First <= Last.
func (r Range) Valid() bool {
	return r.First <= r.Last
}

// ContainsRange reports whether o lies entirely within r.
func (r Range) ContainsRange(o Range) bool {
	return o.First >= r.First && o.Last <= r.Last
}

// OverlapsRange reports whether the closed intervals r and o intersect.
func (r Range) OverlapsRange(o Range) bool {
	return r.First <= o.Last && o.First <= r.Last
}

// Contains reports whether addr lies within r.
func (r Range) Contains(addr uintptr) bool {
	return addr >= r.First && addr <= r.Last
}

// Len returns the number of addresses in r.
// A range spanning the whole address space wraps to 0.
func (r Range) Len() uintptr {
	return r.Last - r.First + 1
}

func (r Range) String() string {
	return fmt.Sprintf("[%#x,%#x]", r.First, r.Last)
}
