//go:build !unix

package host

// pageSize returns 0 so that Alloc always takes the heap path.
func pageSize() int {
	return 0
}

func mapAnonymous(size int) ([]byte, func([]byte) error, error) {
	panic("host: mmap not supported on this platform")
}
