// Package mem provides the kernel heap allocator.
//
// # Overview
//
// The allocator turns a small, boot-supplied table of physical memory regions
// into a general-purpose allocation service. It never owns the memory it hands
// out: it only tracks which address ranges are in use. There is no
// pre-existing heap to lean on, so all bookkeeping lives in fixed-capacity
// storage sized once at construction.
//
// # Data Model
//
//   - Range: an inclusive [First, Last] address interval
//   - TableEntry: a region declared by the boot environment (permissions,
//     range, kind)
//   - Table: up to TableCapacity entries, appended once during bring-up
//   - Slab: the exact range occupied by one live allocation
//   - SlabTracker: fixed-capacity set of live slabs
//
// # Free Space Resolution
//
// Free space is never stored. Every allocation recomputes it by subtracting
// the live slabs from each table entry:
//
//	entry:     [0 ........................................ 999]
//	slab:                 [100 ...... 199]
//	free:      [0 ... 95]                  [200 .......... 999]   (align 8)
//
// A slab overlapping a candidate splits it into a head (trimmed so it ends
// just before the aligned slab start) and a tail (starting at the next aligned
// address after the slab). Fragments are never merged, so fragmentation is
// deterministic and reproducible.
//
// # Allocation
//
// Alloc takes the first free range large enough for the request (first fit)
// and records a slab truncated to the requested size:
//
//	a := mem.New(mem.WithSlabCapacity(32))
//	a.AddMemoryTableEntries(mem.TableEntry{
//	    Permissions: mem.Permission{Read: true, Write: true},
//	    Range:       mem.NewRange(0x2000000, 0x203ffff),
//	    Kind:        mem.KindWork,
//	})
//
//	addr := a.Alloc(mem.MustLayout(256, 8))
//	defer a.Dealloc(addr, mem.MustLayout(256, 8))
//
// # Failure Semantics
//
// A heap with no fallback cannot report failure to most callers in a useful
// way, so Alloc and Dealloc panic with a *Fault whose error identifies the
// case (ErrUninitialized, ErrOutOfMemory, ErrSlabCapacityExceeded,
// ErrInvalidFree). TryAlloc and TryDealloc return the same Fault as an error
// for callers that can degrade, such as diagnostics tooling. A failed call
// never modifies allocator state.
//
// # Concurrency
//
// The table and the slabs share one lock. The lock is not reentrant: nothing
// reachable from inside Alloc or Dealloc may call back into the same
// Allocator. SpinLock can replace the default sync.Mutex on targets without a
// scheduler-backed blocking primitive.
package mem
