// Package physmem backs declared memory regions with real bytes.
//
// The allocator in kernel/mem deals only in address ranges. A Region owns the
// memory behind one table entry and is the single place where an allocated
// range turns into a byte slice.
package physmem

import (
	"errors"
	"fmt"
	"math"

	"github.com/joshuapare/emurs/kernel/mem"
)

var (
	// ErrOutOfRegion indicates a range that is not inside the region.
	ErrOutOfRegion = errors.New("physmem: range outside region")

	// ErrClosed indicates use of a region after Close.
	ErrClosed = errors.New("physmem: region closed")

	// ErrTooLarge indicates a region that cannot be mapped on this host.
	ErrTooLarge = errors.New("physmem: region too large")
)

// Region is host memory standing in for one physical table entry.
type Region struct {
	entry mem.TableEntry
	data  []byte
	unmap func([]byte) error
}

// Map allocates host memory for entry. Every region is mapped read-write
// whatever its Permissions say: table permissions describe the hardware and
// are not enforced. Execute is never granted.
func Map(entry mem.TableEntry) (*Region, error) {
	if !entry.Range.Valid() {
		return nil, fmt.Errorf("map %s: %w", entry.Range, mem.ErrInvalidRange)
	}
	size := entry.Range.Len()
	if size == 0 || uint64(size) > math.MaxInt {
		return nil, fmt.Errorf("map %s: %w", entry.Range, ErrTooLarge)
	}

	data, unmap, err := mapAnon(int(size))
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", entry.Range, err)
	}
	return &Region{entry: entry, data: data, unmap: unmap}, nil
}

// Entry returns the table entry the region backs.
func (r *Region) Entry() mem.TableEntry { return r.entry }

// Size returns the number of bytes in the region.
func (r *Region) Size() int { return len(r.data) }

// Contains reports whether rng lies inside the region.
func (r *Region) Contains(rng mem.Range) bool {
	return r.entry.Range.ContainsRange(rng)
}

// Bytes returns the memory behind rng. The slice aliases the region and is
// valid until Close.
func (r *Region) Bytes(rng mem.Range) ([]byte, error) {
	if r.data == nil {
		return nil, ErrClosed
	}
	if !rng.Valid() || !r.Contains(rng) {
		return nil, fmt.Errorf("%s in %s: %w", rng, r.entry.Range, ErrOutOfRegion)
	}
	off := rng.First - r.entry.Range.First
	end := off + rng.Len()
	return r.data[off:end:end], nil
}

// Close releases the host memory. Calling Close twice is a no-op.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	data := r.data
	r.data = nil
	if r.unmap == nil {
		return nil
	}
	return r.unmap(data)
}
