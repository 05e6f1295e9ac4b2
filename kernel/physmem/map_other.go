//go:build !unix

package physmem

// mapAnon falls back to Go heap memory where mmap is not available.
func mapAnon(size int) ([]byte, func([]byte) error, error) {
	return make([]byte, size), nil, nil
}
