package mem

// AlignUp returns the smallest multiple of align that is >= addr.
// align must be a power of two; 0 is treated as 1.
// The result wraps to 0 when no such multiple fits in a uintptr.
func AlignUp(align, addr uintptr) uintptr {
	if align <= 1 {
		return addr
	}
	mask := align - 1
	return (addr + mask) &^ mask
}

// AlignDown returns the largest multiple of align that is <= addr.
// align must be a power of two; 0 is treated as 1.
func AlignDown(align, addr uintptr) uintptr {
	if align <= 1 {
		return addr
	}
	return addr &^ (align - 1)
}

// IsPowerOfTwo reports whether x is a non-zero power of two.
func IsPowerOfTwo(x uintptr) bool {
	return x != 0 && x&(x-1) == 0
}
