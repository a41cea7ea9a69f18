//go:build linux || darwin || freebsd || netbsd || openbsd

package tensor

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// allocNative maps an anonymous, private region outside the Go heap.
func allocNative(size int) ([]byte, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap %d bytes: %w", size, err)
	}
	return data, nil
}

// freeNative unmaps a region returned by allocNative.
func freeNative(data []byte) error {
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}
