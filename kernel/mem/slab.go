package mem

// DefaultSlabCapacity is the number of live allocations an Allocator tracks
// unless WithSlabCapacity says otherwise.
const DefaultSlabCapacity = 16

// Slab records the range handed out by one allocation.
type Slab struct {
	Coverage Range
}

// SlabTracker is a fixed-capacity set of live slabs. Its storage is sized
// once by NewSlabTracker and never grows. Slab coverages never overlap.
type SlabTracker struct {
	slabs []Slab
}

// NewSlabTracker returns an empty tracker that holds at most capacity slabs.
func NewSlabTracker(capacity int) SlabTracker {
	if capacity < 1 {
		capacity = 1
	}
	return SlabTracker{slabs: make([]Slab, 0, capacity)}
}

// Len returns the number of live slabs.
func (st *SlabTracker) Len() int { return len(st.slabs) }

// Cap returns the maximum number of live slabs.
func (st *SlabTracker) Cap() int { return cap(st.slabs) }

// Full reports whether another slab would exceed capacity.
func (st *SlabTracker) Full() bool { return len(st.slabs) == cap(st.slabs) }

// Push records s, or returns ErrSlabCapacityExceeded when the tracker is full.
func (st *SlabTracker) Push(s Slab) error {
	if st.Full() {
		return ErrSlabCapacityExceeded
	}
	st.slabs = append(st.slabs, s)
	return nil
}

// IndexOf returns the index of the slab starting at addr, or -1.
func (st *SlabTracker) IndexOf(addr uintptr) int {
	for i := range st.slabs {
		if st.slabs[i].Coverage.First == addr {
			return i
		}
	}
	return -1
}

// Remove deletes slab i, shifting later slabs down so order is preserved.
func (st *SlabTracker) Remove(i int) Slab {
	s := st.slabs[i]
	copy(st.slabs[i:], st.slabs[i+1:])
	st.slabs[len(st.slabs)-1] = Slab{}
	st.slabs = st.slabs[:len(st.slabs)-1]
	return s
}

// Slabs returns a copy of the live slabs in insertion order.
func (st *SlabTracker) Slabs() []Slab {
	out := make([]Slab, len(st.slabs))
	copy(out, st.slabs)
	return out
}

func (st *SlabTracker) view() []Slab {
	return st.slabs
}
