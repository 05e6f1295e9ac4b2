package mem

import "fmt"

// Layout is the size and alignment of an allocation request.
type Layout struct {
	Size  uintptr
	Align uintptr
}

// NewLayout validates and returns a Layout. size must be non-zero and align
// a power of two; an align of 0 means byte alignment.
func NewLayout(size, align uintptr) (Layout, error) {
	if align == 0 {
		align = 1
	}
	if size == 0 {
		return Layout{}, fmt.Errorf("%w: zero size", ErrInvalidLayout)
	}
	if !IsPowerOfTwo(align) {
		return Layout{}, fmt.Errorf("%w: alignment %d is not a power of two", ErrInvalidLayout, align)
	}
	return Layout{Size: size, Align: align}, nil
}

// MustLayout is like NewLayout but panics on an invalid layout.
func MustLayout(size, align uintptr) Layout {
	l, err := NewLayout(size, align)
	if err != nil {
		panic(err)
	}
	return l
}

func (l Layout) String() string {
	return fmt.Sprintf("size=%d align=%d", l.Size, l.Align)
}
