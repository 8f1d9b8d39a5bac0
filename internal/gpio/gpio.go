// Package gpio drives the station's digital control lines.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "errors"

// ErrReadOnly is returned when driving a line on a read-only handle.
var ErrReadOnly = errors.New("gpio: lines opened read-only")

// Lines sets and reads digital lines by offset.
//
// Assert drives a line high, Deassert drives it low. Read returns the
// current raw level (true = high) for both inputs and outputs.
type Lines interface {
	Assert(line int) error
	Deassert(line int) error
	Read(line int) (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Default line offsets
const (
	PinProdCO2           = 2
	PinFan               = 3
	PinHeatModule        = 5
	PinCO2Neutralization = 6
	PinPumpValve         = 7
	PinCameras           = 8
	PinLightControl      = 9
	PinPresReliefValve   = 10
	PinRelayBlock        = 14 // actuator interlock, high = engaged
	PinHatch             = 15 // high = hatch open
)
