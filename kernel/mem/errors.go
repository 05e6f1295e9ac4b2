package mem

import (
	"errors"
	"fmt"
)

var (
	// ErrUninitialized indicates an allocation before any memory table entry was installed.
	ErrUninitialized = errors.New("mem: allocator has no memory table")

	// ErrOutOfMemory indicates that no free range is large enough for the request.
	ErrOutOfMemory = errors.New("mem: out of memory")

	// ErrSlabCapacityExceeded indicates that the live-allocation tracker is full.
	ErrSlabCapacityExceeded = errors.New("mem: slab capacity exceeded")

	// ErrInvalidFree indicates a free of an address that starts no live allocation
	// (foreign pointer or double free).
	ErrInvalidFree = errors.New("mem: address is not a live allocation")

	// ErrTableCapacityExceeded indicates more than TableCapacity entries were installed.
	ErrTableCapacityExceeded = errors.New("mem: memory table capacity exceeded")

	// ErrInvalidRange indicates a table entry whose First is greater than its Last.
	ErrInvalidRange = errors.New("mem: invalid memory range")

	// ErrInvalidLayout indicates a zero size or a non power-of-two alignment.
	ErrInvalidLayout = errors.New("mem: invalid layout")
)

// Fault describes a fatal allocator failure. Alloc, Dealloc and
// AddMemoryTableEntries panic with a *Fault; TryAlloc and TryDealloc return it.
type Fault struct {
	Op     string // "alloc", "dealloc" or "configure"
	Err    error  // one of the Err* sentinels
	Layout Layout
	Addr   uintptr
}

func (f *Fault) Error() string {
	switch f.Op {
	case "alloc":
		return fmt.Sprintf("%s: %v (size=%d align=%d)", f.Op, f.Err, f.Layout.Size, f.Layout.Align)
	case "dealloc":
		return fmt.Sprintf("%s: %v (addr=%#x size=%d)", f.Op, f.Err, f.Addr, f.Layout.Size)
	default:
		return fmt.Sprintf("%s: %v", f.Op, f.Err)
	}
}

func (f *Fault) Unwrap() error { return f.Err }
