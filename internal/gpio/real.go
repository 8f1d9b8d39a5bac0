//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealLines drives lines on a Linux GPIO character device.
type RealLines struct {
	chip     *gpiocdev.Chip
	lines    map[int]*gpiocdev.Line
	outputs  []int
	readOnly bool
}

// NewRealLines requests outputs and inputs on the named chip (e.g. "gpiochip0").
// Outputs start high, which is the stop level for every actuator.
func NewRealLines(chipName string, outputs, inputs []int) (*RealLines, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("station-controller"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealLines{
		chip:    chip,
		lines:   make(map[int]*gpiocdev.Line),
		outputs: outputs,
	}

	for _, offset := range outputs {
		l, err := chip.RequestLine(offset, gpiocdev.AsOutput(1))
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request output %d: %w", offset, err)
		}
		r.lines[offset] = l
	}

	// Pull-down so a disconnected interlock reads disengaged.
	for _, offset := range inputs {
		l, err := chip.RequestLine(offset, gpiocdev.AsInput, gpiocdev.WithPullDown)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request input %d: %w", offset, err)
		}
		r.lines[offset] = l
	}

	return r, nil
}

// NewReadOnlyLines requests lines as-is, leaving direction and level alone,
// so the current state can be read without disturbing the actuators.
// Assert and Deassert fail with ErrReadOnly; Close only releases.
func NewReadOnlyLines(chipName string, lines []int) (*RealLines, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("station-controller"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealLines{
		chip:     chip,
		lines:    make(map[int]*gpiocdev.Line),
		readOnly: true,
	}
	for _, offset := range lines {
		l, err := chip.RequestLine(offset, gpiocdev.AsIs)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request line %d: %w", offset, err)
		}
		r.lines[offset] = l
	}
	return r, nil
}

// Assert drives line high.
func (r *RealLines) Assert(line int) error {
	return r.set(line, 1)
}

// Deassert drives line low.
func (r *RealLines) Deassert(line int) error {
	return r.set(line, 0)
}

func (r *RealLines) set(line, v int) error {
	if r.readOnly {
		return ErrReadOnly
	}
	l, ok := r.lines[line]
	if !ok {
		return fmt.Errorf("gpio: line %d not requested", line)
	}
	if err := l.SetValue(v); err != nil {
		return fmt.Errorf("set line %d: %w", line, err)
	}
	return nil
}

// Read returns the raw level of line.
func (r *RealLines) Read(line int) (bool, error) {
	l, ok := r.lines[line]
	if !ok {
		return false, fmt.Errorf("gpio: line %d not requested", line)
	}
	v, err := l.Value()
	if err != nil {
		return false, fmt.Errorf("read line %d: %w", line, err)
	}
	return v == 1, nil
}

// Close drives every output to the stop level and releases the lines.
func (r *RealLines) Close() error {
	var errs []error

	if !r.readOnly {
		for _, offset := range r.outputs {
			l, ok := r.lines[offset]
			if !ok {
				continue
			}
			if err := l.SetValue(1); err != nil {
				errs = append(errs, fmt.Errorf("stop line %d: %w", offset, err))
			}
		}
	}
	for offset, l := range r.lines {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", offset, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	return errors.Join(errs...)
}
