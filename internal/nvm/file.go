package nvm

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// File is a Storage backed by a fixed-size file. Every write is synced before
// returning so a completed WriteBytes survives power loss.
type File struct {
	f    *os.File
	size int
}

// OpenFile opens (or creates) the region file at path. A new or short file is
// extended with 0xFF bytes to size.
func OpenFile(path string, size int) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open nvm file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat nvm file: %w", err)
	}

	if have := int(info.Size()); have < size {
		pad := make([]byte, size-have)
		for i := range pad {
			pad[i] = 0xFF
		}
		if _, err := f.WriteAt(pad, int64(have)); err != nil {
			f.Close()
			return nil, fmt.Errorf("extend nvm file: %w", err)
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return nil, fmt.Errorf("sync nvm file: %w", err)
		}
	}

	return &File{f: f, size: size}, nil
}

// ReadBytes reads length bytes at offset.
func (s *File) ReadBytes(offset, length int) ([]byte, error) {
	if err := checkRange(offset, length, s.size); err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	if _, err := s.f.ReadAt(buf, int64(offset)); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read nvm: %w", err)
	}
	return buf, nil
}

// WriteBytes writes data at offset and syncs.
func (s *File) WriteBytes(offset int, data []byte) error {
	if err := checkRange(offset, len(data), s.size); err != nil {
		return err
	}
	if _, err := s.f.WriteAt(data, int64(offset)); err != nil {
		return fmt.Errorf("write nvm: %w", err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("sync nvm: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (s *File) Close() error {
	return s.f.Close()
}
