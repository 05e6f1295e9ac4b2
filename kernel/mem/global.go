package mem

import "sync"

var (
	globalOnce sync.Once
	global     *Allocator
)

// Global returns the process-wide allocator, constructing it with
// DefaultSlabCapacity on first use. It lives for the rest of the process.
func Global() *Allocator {
	globalOnce.Do(func() {
		global = New()
	})
	return global
}

// InitGlobal constructs the process-wide allocator with opts. It reports
// false, leaving the existing allocator untouched, when Global or InitGlobal
// already ran.
func InitGlobal(opts ...Option) (*Allocator, bool) {
	created := false
	globalOnce.Do(func() {
		global = New(opts...)
		created = true
	})
	return global, created
}

// AddMemoryTableEntries installs entries into the process-wide allocator.
// Call it during bring-up only, before any allocation.
func AddMemoryTableEntries(entries ...TableEntry) {
	Global().AddMemoryTableEntries(entries...)
}

// Alloc allocates from the process-wide allocator.
func Alloc(l Layout) uintptr {
	return Global().Alloc(l)
}

// Dealloc frees an allocation made with Alloc.
func Dealloc(addr uintptr, l Layout) {
	Global().Dealloc(addr, l)
}
