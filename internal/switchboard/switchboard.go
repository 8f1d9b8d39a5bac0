// Package switchboard maps logical subsystems to control lines and gates
// every actuator change on the relay-block interlock.
//
// Lines are active-low: run = low, stop = high.
package switchboard

import (
	"errors"
	"fmt"
	"log"

	"github.com/sweeney/station-controller/internal/gpio"
)

// Subsystem identifies a controllable unit of the station.
type Subsystem int

const (
	PumpValve Subsystem = iota
	PressureReliefValve
	CO2Production
	CO2Neutralization
	Heater
	Fan
	Cameras
	Light
	AutoLight // virtual: no control line
)

var subsystemNames = map[Subsystem]string{
	PumpValve:           "pump_valve",
	PressureReliefValve: "pres_relief_valve",
	CO2Production:       "prod_co2",
	CO2Neutralization:   "co2_neutralization",
	Heater:              "heat_module",
	Fan:                 "fan",
	Cameras:             "cameras",
	Light:               "light",
	AutoLight:           "auto_light",
}

func (s Subsystem) String() string {
	if name, ok := subsystemNames[s]; ok {
		return name
	}
	return fmt.Sprintf("subsystem(%d)", int(s))
}

// Errors
var (
	ErrInterlockDisengaged = errors.New("switchboard: interlock disengaged")
	ErrUnknownSubsystem    = errors.New("switchboard: unknown subsystem")
	ErrGuarded             = errors.New("switchboard: subsystem requires interlock")
)

// Pins maps the line-backed subsystems to control lines.
type Pins struct {
	PumpValve           int
	PressureReliefValve int
	CO2Production       int
	CO2Neutralization   int
	Heater              int
	Fan                 int
	Cameras             int
	Light               int
	Interlock           int
}

// DefaultPins returns the stock wiring.
func DefaultPins() Pins {
	return Pins{
		PumpValve:           gpio.PinPumpValve,
		PressureReliefValve: gpio.PinPresReliefValve,
		CO2Production:       gpio.PinProdCO2,
		CO2Neutralization:   gpio.PinCO2Neutralization,
		Heater:              gpio.PinHeatModule,
		Fan:                 gpio.PinFan,
		Cameras:             gpio.PinCameras,
		Light:               gpio.PinLightControl,
		Interlock:           gpio.PinRelayBlock,
	}
}

// Outputs lists the actuator lines.
func (p Pins) Outputs() []int {
	return []int{
		p.PumpValve, p.PressureReliefValve, p.CO2Production, p.CO2Neutralization,
		p.Heater, p.Fan, p.Cameras, p.Light,
	}
}

// SubsystemState is a copy of one subsystem's record.
type SubsystemState struct {
	ID      Subsystem
	Line    int
	HasLine bool
	Enabled bool // last commanded state
	Sensed  bool // last readback, valid after Refresh
}

// Switchboard owns all actuator state. Not safe for concurrent use; the
// station loop is its only caller.
type Switchboard struct {
	lines     gpio.Lines
	interlock int
	states    map[Subsystem]*SubsystemState
	level     uint8
}

// New creates a switchboard over lines. All subsystems start disabled;
// call StopAll to bring the lines to a known level.
func New(lines gpio.Lines, pins Pins) *Switchboard {
	sb := &Switchboard{
		lines:     lines,
		interlock: pins.Interlock,
		states:    make(map[Subsystem]*SubsystemState),
	}

	wired := map[Subsystem]int{
		PumpValve:           pins.PumpValve,
		PressureReliefValve: pins.PressureReliefValve,
		CO2Production:       pins.CO2Production,
		CO2Neutralization:   pins.CO2Neutralization,
		Heater:              pins.Heater,
		Fan:                 pins.Fan,
		Cameras:             pins.Cameras,
		Light:               pins.Light,
	}
	for id, line := range wired {
		sb.states[id] = &SubsystemState{ID: id, Line: line, HasLine: true}
	}
	sb.states[AutoLight] = &SubsystemState{ID: AutoLight}

	return sb
}

// Interlock reads the relay-block line. It is never cached.
func (sb *Switchboard) Interlock() (bool, error) {
	engaged, err := sb.lines.Read(sb.interlock)
	if err != nil {
		return false, fmt.Errorf("read interlock: %w", err)
	}
	return engaged, nil
}

// SetEnabled changes a subsystem's state. The interlock is read first and,
// if disengaged, nothing is touched.
func (sb *Switchboard) SetEnabled(id Subsystem, enabled bool) error {
	st, ok := sb.states[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSubsystem, int(id))
	}

	engaged, err := sb.Interlock()
	if err != nil {
		return err
	}
	if !engaged {
		return ErrInterlockDisengaged
	}

	return sb.apply(st, enabled)
}

// SetUnguarded changes Light or AutoLight without consulting the interlock.
func (sb *Switchboard) SetUnguarded(id Subsystem, enabled bool) error {
	st, ok := sb.states[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSubsystem, int(id))
	}
	if id != Light && id != AutoLight {
		return ErrGuarded
	}
	return sb.apply(st, enabled)
}

// apply drives the line for st. The relays run when their line is pulled
// low: run is Deassert (low), stop is Assert (high).
func (sb *Switchboard) apply(st *SubsystemState, enabled bool) error {
	if st.HasLine {
		var err error
		if enabled {
			err = sb.lines.Deassert(st.Line)
		} else {
			err = sb.lines.Assert(st.Line)
		}
		if err != nil {
			return fmt.Errorf("drive %s: %w", st.ID, err)
		}
	}
	st.Enabled = enabled
	if st.ID == Light && !enabled {
		sb.level = 0
	}
	return nil
}

// SetLightLevel sets the lighting level. The control line is on/off, so any
// non-zero level runs the light.
func (sb *Switchboard) SetLightLevel(level uint8) error {
	if err := sb.SetUnguarded(Light, level > 0); err != nil {
		return err
	}
	sb.level = level
	return nil
}

// LightLevel returns the last level set.
func (sb *Switchboard) LightLevel() uint8 {
	return sb.level
}

// State returns the last commanded state of id.
func (sb *Switchboard) State(id Subsystem) (bool, error) {
	st, ok := sb.states[id]
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrUnknownSubsystem, int(id))
	}
	return st.Enabled, nil
}

// Refresh reads back every control line into Sensed.
func (sb *Switchboard) Refresh() error {
	for _, st := range sb.states {
		if !st.HasLine {
			st.Sensed = st.Enabled
			continue
		}
		high, err := sb.lines.Read(st.Line)
		if err != nil {
			return fmt.Errorf("read %s: %w", st.ID, err)
		}
		st.Sensed = !high
	}
	return nil
}

// Snapshot returns a copy of every subsystem, ordered by id.
func (sb *Switchboard) Snapshot() []SubsystemState {
	out := make([]SubsystemState, 0, len(sb.states))
	for id := PumpValve; id <= AutoLight; id++ {
		if st, ok := sb.states[id]; ok {
			out = append(out, *st)
		}
	}
	return out
}

// StopAll drives every line to stop and disables everything, auto-light
// included. It does not consult the interlock. Errors are logged and the
// remaining lines are still stopped; the first error is returned.
func (sb *Switchboard) StopAll() error {
	var first error
	for _, st := range sb.Snapshot() {
		if err := sb.apply(sb.states[st.ID], false); err != nil {
			log.Printf("switchboard: stop %s: %v", st.ID, err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}
