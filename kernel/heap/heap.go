// Package heap gives kernel code memory it can actually touch.
//
// A Heap pairs the range allocator with the regions backing its table, so
// every Block it returns is both reserved in the allocator and readable as a
// byte slice. Containers built on top (such as Bytes) route all growth
// through the same Alloc/Free pair.
package heap

import (
	"fmt"

	"github.com/joshuapare/emurs/kernel/mem"
	"github.com/joshuapare/emurs/kernel/physmem"
)

// Block is one live allocation.
type Block struct {
	Addr   uintptr
	Layout mem.Layout
	Data   []byte
}

// Range returns the address range covered by b.
func (b Block) Range() mem.Range {
	return mem.RangeOf(b.Addr, b.Layout.Size)
}

// Heap allocates Blocks from an Allocator whose table entries are backed by
// regions.
type Heap struct {
	alloc   *mem.Allocator
	regions []*physmem.Region
}

// New returns a Heap over a and the regions backing its table entries.
func New(a *mem.Allocator, regions ...*physmem.Region) *Heap {
	return &Heap{alloc: a, regions: regions}
}

// Allocator returns the underlying range allocator.
func (h *Heap) Allocator() *mem.Allocator { return h.alloc }

// Alloc reserves memory for l. Like mem.Allocator.Alloc it panics with a
// *mem.Fault when the request cannot be served, and it panics when the
// reserved range has no backing region.
func (h *Heap) Alloc(l mem.Layout) Block {
	addr := h.alloc.Alloc(l)
	rng := mem.RangeOf(addr, l.Size)

	data, err := h.bytes(rng)
	if err != nil {
		h.alloc.Dealloc(addr, l)
		panic(fmt.Errorf("heap: %w", err))
	}
	return Block{Addr: addr, Layout: l, Data: data}
}

// Free releases b. Freeing a block twice panics with a *mem.Fault.
func (h *Heap) Free(b Block) {
	h.alloc.Dealloc(b.Addr, b.Layout)
}

func (h *Heap) bytes(rng mem.Range) ([]byte, error) {
	for _, r := range h.regions {
		if r.Contains(rng) {
			return r.Bytes(rng)
		}
	}
	return nil, fmt.Errorf("no region backs %s", rng)
}
