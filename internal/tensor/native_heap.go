//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package tensor

// allocNative falls back to the Go heap where anonymous mmap is unavailable.
func allocNative(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func freeNative(_ []byte) error {
	return nil
}
