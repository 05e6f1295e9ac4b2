package mem

import (
	"runtime"
	"sync/atomic"
)

// SpinLock is a busy-waiting sync.Locker for targets without a blocking
// primitive. It is not reentrant: locking it twice from the same goroutine
// deadlocks.
type SpinLock struct {
	state atomic.Uint32
}

// Lock spins until the lock is acquired.
func (l *SpinLock) Lock() {
	for !l.state.CompareAndSwap(0, 1) {
		runtime.Gosched()
	}
}

// TryLock acquires the lock if it is free and reports whether it did.
func (l *SpinLock) TryLock() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Unlock releases the lock. Unlocking an unlocked SpinLock panics.
func (l *SpinLock) Unlock() {
	if l.state.Swap(0) == 0 {
		panic("mem: unlock of unlocked SpinLock")
	}
}
