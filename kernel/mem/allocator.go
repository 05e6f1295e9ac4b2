package mem

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Runtime allocation logging, controlled by the EMURS_LOG_ALLOC env var.
var logAlloc = os.Getenv("EMURS_LOG_ALLOC") != ""

// Allocator tracks allocations over the regions of a memory table.
//
// The table and the live slabs are guarded by a single lock. The zero value
// is not usable; construct with New.
type Allocator struct {
	mu sync.Locker

	table Table
	slabs SlabTracker

	// keep filters table entries out of the free pool (nil keeps all).
	keep func(TableEntry) bool

	// scratch is reused by Alloc to resolve free ranges without allocating.
	scratch []Range

	// sealed is set by the first successful allocation.
	sealed bool

	stats Stats
	log   *slog.Logger
}

// Stats holds allocator counters.
type Stats struct {
	AllocCalls   int     // successful allocations
	FreeCalls    int     // successful frees
	Failures     int     // faults raised by Alloc, TryAlloc, Dealloc or TryDealloc
	BytesInUse   uintptr // sum of live slab lengths
	PeakBytes    uintptr // highest BytesInUse seen
	LiveSlabs    int
	SlabCapacity int
	TableEntries int
	TableBytes   uintptr // sum of table entry lengths
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithSlabCapacity sets how many live allocations the allocator can track.
func WithSlabCapacity(n int) Option {
	return func(a *Allocator) {
		a.slabs = NewSlabTracker(n)
	}
}

// WithLocker replaces the default sync.Mutex, e.g. with a *SpinLock.
func WithLocker(l sync.Locker) Option {
	return func(a *Allocator) {
		a.mu = l
	}
}

// WithLogger sets the logger used for allocation tracing and warnings.
func WithLogger(l *slog.Logger) Option {
	return func(a *Allocator) {
		if l != nil {
			a.log = l
		}
	}
}

// WithEntryFilter restricts the free pool to entries for which keep returns
// true. By default every table entry is allocatable.
func WithEntryFilter(keep func(TableEntry) bool) Option {
	return func(a *Allocator) {
		a.keep = keep
	}
}

// AllocatableKinds returns an entry filter accepting only the given kinds.
func AllocatableKinds(kinds ...Kind) func(TableEntry) bool {
	var allowed [len(kindNames)]bool
	for _, k := range kinds {
		if int(k) < len(allowed) {
			allowed[k] = true
		}
	}
	return func(e TableEntry) bool {
		return int(e.Kind) < len(allowed) && allowed[e.Kind]
	}
}

// New returns an unconfigured Allocator. Install memory with
// AddMemoryTableEntries before the first allocation.
func New(opts ...Option) *Allocator {
	a := &Allocator{
		mu:    &sync.Mutex{},
		slabs: NewSlabTracker(DefaultSlabCapacity),
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AddMemoryTableEntries appends entries to the memory table.
//
// It must only be called during bring-up, before the first allocation; adding
// entries afterwards races with in-flight allocations and is not supported.
// A late call is logged but not refused.
//
// It panics with a *Fault wrapping ErrInvalidRange for an entry whose First
// is above its Last, or ErrTableCapacityExceeded when the table is full.
// Entries before the offending one stay installed.
func (a *Allocator) AddMemoryTableEntries(entries ...TableEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed {
		a.log.Warn("memory table modified after first allocation", "entries", len(entries))
	}
	for _, e := range entries {
		if !e.Range.Valid() {
			panic(&Fault{Op: "configure", Err: ErrInvalidRange})
		}
		if err := a.table.push(e); err != nil {
			panic(&Fault{Op: "configure", Err: err})
		}
		a.stats.TableEntries++
		a.stats.TableBytes += e.Range.Len()
	}
}

// Alloc reserves a range for l and returns its first address.
// It panics with a *Fault on any failure; see TryAlloc.
func (a *Allocator) Alloc(l Layout) uintptr {
	addr, err := a.TryAlloc(l)
	if err != nil {
		panic(err)
	}
	return addr
}

// TryAlloc is like Alloc but returns the *Fault instead of panicking.
// State is unchanged when an error is returned.
func (a *Allocator) TryAlloc(l Layout) (uintptr, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	r, err := a.allocLocked(l)
	if err != nil {
		a.stats.Failures++
		if logAlloc {
			a.log.Error("alloc failed", "size", l.Size, "align", l.Align, "err", err)
		}
		return 0, &Fault{Op: "alloc", Err: err, Layout: l}
	}
	if logAlloc {
		a.log.Debug("alloc", "range", r.String(), "size", l.Size, "align", l.Align)
	}
	return r.First, nil
}

func (a *Allocator) allocLocked(l Layout) (Range, error) {
	if a.table.Empty() {
		return Range{}, ErrUninitialized
	}
	if l.Size == 0 || (l.Align != 0 && !IsPowerOfTwo(l.Align)) {
		return Range{}, ErrInvalidLayout
	}

	r, ok := a.freeBlockLocked(l)
	if !ok {
		return Range{}, ErrOutOfMemory
	}
	if err := a.slabs.Push(Slab{Coverage: r}); err != nil {
		return Range{}, err
	}

	a.sealed = true
	a.stats.AllocCalls++
	a.stats.BytesInUse += r.Len()
	if a.stats.BytesInUse > a.stats.PeakBytes {
		a.stats.PeakBytes = a.stats.BytesInUse
	}
	return r, nil
}

// Dealloc releases the allocation starting at addr. The layout is the one
// passed to Alloc; only its address is used to find the allocation.
// It panics with a *Fault wrapping ErrInvalidFree when addr starts no live
// allocation.
func (a *Allocator) Dealloc(addr uintptr, l Layout) {
	if err := a.TryDealloc(addr, l); err != nil {
		panic(err)
	}
}

// TryDealloc is like Dealloc but returns the *Fault instead of panicking.
func (a *Allocator) TryDealloc(addr uintptr, l Layout) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.slabs.IndexOf(addr)
	if i < 0 {
		a.stats.Failures++
		return &Fault{Op: "dealloc", Err: ErrInvalidFree, Layout: l, Addr: addr}
	}
	s := a.slabs.Remove(i)

	a.stats.FreeCalls++
	a.stats.BytesInUse -= s.Coverage.Len()
	if logAlloc {
		a.log.Debug("dealloc", "range", s.Coverage.String())
	}
	if l.Size != 0 && l.Size != s.Coverage.Len() {
		a.log.Warn("dealloc size mismatch", "range", s.Coverage.String(), "size", l.Size)
	}
	return nil
}

// FreeRanges returns the ranges currently free when allocating with align.
func (a *Allocator) FreeRanges(align uintptr) []Range {
	return a.AppendFreeRanges(nil, align)
}

// AppendFreeRanges appends the free ranges for align to dst.
func (a *Allocator) AppendFreeRanges(dst []Range, align uintptr) []Range {
	a.mu.Lock()
	defer a.mu.Unlock()
	return resolveFree(dst, a.table.view(), a.slabs.view(), align, a.keep)
}

// FreeBlock returns the range the next allocation of l would occupy, without
// reserving it. ok is false when nothing fits.
func (a *Allocator) FreeBlock(l Layout) (Range, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.freeBlockLocked(l)
}

func (a *Allocator) freeBlockLocked(l Layout) (Range, bool) {
	a.scratch = resolveFree(a.scratch[:0], a.table.view(), a.slabs.view(), l.Align, a.keep)
	return firstFit(a.scratch, l.Size)
}

// Entries returns a copy of the memory table.
func (a *Allocator) Entries() []TableEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.table.Entries()
}

// Slabs returns a copy of the live slabs in allocation order.
func (a *Allocator) Slabs() []Slab {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.slabs.Slabs()
}

// Configured reports whether the memory table has any entries.
func (a *Allocator) Configured() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.table.Empty()
}

// Stats returns a snapshot of the allocator counters.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.stats
	s.LiveSlabs = a.slabs.Len()
	s.SlabCapacity = a.slabs.Cap()
	return s
}
