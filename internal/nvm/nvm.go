// Package nvm provides the non-volatile byte region the config store lives in.
// The real implementation is a small file on persistent storage.
// The in-memory implementation allows testing without a filesystem.
package nvm

import "fmt"

// Storage reads and writes raw bytes at fixed offsets.
type Storage interface {
	ReadBytes(offset, length int) ([]byte, error)
	WriteBytes(offset int, data []byte) error
}

// RangeError is returned for accesses outside the region.
type RangeError struct {
	Offset, Length, Size int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("nvm: access [%d:%d] outside region of %d bytes", e.Offset, e.Offset+e.Length, e.Size)
}

func checkRange(offset, length, size int) error {
	if offset < 0 || length < 0 || offset+length > size {
		return &RangeError{Offset: offset, Length: length, Size: size}
	}
	return nil
}
