//go:build !linux

package gpio

import "errors"

// RealLines is not available on non-Linux platforms.
type RealLines struct{}

// NewRealLines returns an error on non-Linux platforms.
func NewRealLines(chipName string, outputs, inputs []int) (*RealLines, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// NewReadOnlyLines returns an error on non-Linux platforms.
func NewReadOnlyLines(chipName string, lines []int) (*RealLines, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Assert is not implemented on non-Linux platforms.
func (r *RealLines) Assert(line int) error {
	return errors.New("gpio: not supported")
}

// Deassert is not implemented on non-Linux platforms.
func (r *RealLines) Deassert(line int) error {
	return errors.New("gpio: not supported")
}

// Read is not implemented on non-Linux platforms.
func (r *RealLines) Read(line int) (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealLines) Close() error {
	return nil
}
