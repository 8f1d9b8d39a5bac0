// Package dispatch turns received frames into actions and reply frames.
// It owns the opcode table; the station loop owns the byte stream.
package dispatch

import (
	"errors"
	"fmt"
	"log"

	"github.com/sweeney/station-controller/internal/logic"
	"github.com/sweeney/station-controller/internal/protocol"
	"github.com/sweeney/station-controller/internal/sensor"
	"github.com/sweeney/station-controller/internal/switchboard"
)

// Actuators is the part of the switchboard the dispatcher drives.
type Actuators interface {
	SetEnabled(id switchboard.Subsystem, enabled bool) error
	SetUnguarded(id switchboard.Subsystem, enabled bool) error
	State(id switchboard.Subsystem) (bool, error)
	SetLightLevel(level uint8) error
	LightLevel() uint8
}

// ConfigStore holds the persisted schedule.
type ConfigStore interface {
	DayTime() (uint32, error)
	NightTime() (uint32, error)
	SetDayTime(v uint32) error
	SetNightTime(v uint32) error
}

// Clock is the settable station clock.
type Clock interface {
	Set(unix uint32)
	Unix() uint32
}

// Deps are the collaborators a Dispatcher needs.
type Deps struct {
	Actuators Actuators
	Store     ConfigStore
	Sensors   sensor.Reader
	Clock     Clock
}

// State is the dispatcher's position in the per-frame cycle.
type State int

const (
	AwaitingFrame State = iota
	Decoding
	Dispatching
	Replying
)

func (s State) String() string {
	switch s {
	case AwaitingFrame:
		return "awaiting_frame"
	case Decoding:
		return "decoding"
	case Dispatching:
		return "dispatching"
	case Replying:
		return "replying"
	}
	return "unknown"
}

// Counters tracks frame handling since startup.
type Counters struct {
	Frames              int
	FrameErrors         int
	UnknownOpcodes      int
	InterlockRejections int
	NotReady            int
	Replies             int
}

// handler executes one opcode. send=false suppresses the reply.
type handler func(p protocol.Packet) (reply protocol.Opcode, payload []byte, send bool)

// Dispatcher maps opcodes to handlers. Not safe for concurrent use.
type Dispatcher struct {
	deps     Deps
	handlers map[protocol.Opcode]handler
	state    State
	counters Counters
}

var sensorKinds = map[protocol.Opcode]sensor.Kind{
	protocol.OpReqCO2:         sensor.CO2,
	protocol.OpReqHumidity:    sensor.Humidity,
	protocol.OpReqTemperature: sensor.Temperature,
	protocol.OpReqPressure:    sensor.Pressure,
	protocol.OpReqBatteryVolt: sensor.BatteryVoltage,
	protocol.OpReqEnergyUsage: sensor.EnergyUsage,
	protocol.OpReqEnergyGen:   sensor.EnergyGeneration,
}

// switch opcode -> status opcode pairs share a subsystem
var switchSubsystems = map[protocol.Opcode]switchboard.Subsystem{
	protocol.OpSwitchPumpValve:         switchboard.PumpValve,
	protocol.OpSwitchPresReliefValve:   switchboard.PressureReliefValve,
	protocol.OpSwitchProdCO2:           switchboard.CO2Production,
	protocol.OpSwitchCO2Neutralization: switchboard.CO2Neutralization,
	protocol.OpSwitchHeatModule:        switchboard.Heater,
	protocol.OpSwitchFan:               switchboard.Fan,
	protocol.OpSwitchCameras:           switchboard.Cameras,
	protocol.OpSwitchAutoLight:         switchboard.AutoLight,
}

var statusSubsystems = map[protocol.Opcode]switchboard.Subsystem{
	protocol.OpStatusPumpValve:         switchboard.PumpValve,
	protocol.OpStatusPresReliefValve:   switchboard.PressureReliefValve,
	protocol.OpStatusProdCO2:           switchboard.CO2Production,
	protocol.OpStatusCO2Neutralization: switchboard.CO2Neutralization,
	protocol.OpStatusHeatModule:        switchboard.Heater,
	protocol.OpStatusFan:               switchboard.Fan,
	protocol.OpStatusCameras:           switchboard.Cameras,
	protocol.OpStatusAutoLight:         switchboard.AutoLight,
}

// New builds the opcode table. It fails if any known opcode has no handler.
func New(deps Deps) (*Dispatcher, error) {
	if deps.Actuators == nil || deps.Store == nil || deps.Sensors == nil || deps.Clock == nil {
		return nil, errors.New("dispatch: missing dependency")
	}

	d := &Dispatcher{
		deps:     deps,
		handlers: make(map[protocol.Opcode]handler),
	}

	for op, kind := range sensorKinds {
		d.handlers[op] = d.readSensor(kind)
	}
	for op, id := range switchSubsystems {
		d.handlers[op] = d.switchSubsystem(id)
	}
	for op, id := range statusSubsystems {
		d.handlers[op] = d.statusSubsystem(id)
	}

	d.handlers[protocol.OpSetLight] = d.setLight
	d.handlers[protocol.OpGetLight] = d.getLight
	d.handlers[protocol.OpSetTime] = d.setTime
	d.handlers[protocol.OpGetTime] = d.getTime
	d.handlers[protocol.OpSetDayTime] = d.setSchedule(deps.Store.SetDayTime)
	d.handlers[protocol.OpSetNightTime] = d.setSchedule(deps.Store.SetNightTime)
	d.handlers[protocol.OpGetDayTime] = d.getSchedule(deps.Store.DayTime)
	d.handlers[protocol.OpGetNightTime] = d.getSchedule(deps.Store.NightTime)

	for _, op := range protocol.Opcodes() {
		switch op.Family() {
		case protocol.FamilyLifecycle, protocol.FamilyAlert:
			d.handlers[op] = rejectInbound
		case protocol.FamilyException:
			d.handlers[op] = ignoreException
		}
	}

	for _, op := range protocol.Opcodes() {
		if _, ok := d.handlers[op]; !ok {
			return nil, fmt.Errorf("dispatch: no handler for %s", op)
		}
	}

	return d, nil
}

// Handle processes one 10-byte window. ok=false means no reply is sent.
func (d *Dispatcher) Handle(f protocol.Frame) (reply protocol.Frame, ok bool) {
	defer func() { d.state = AwaitingFrame }()

	d.counters.Frames++
	d.state = Decoding

	p, err := protocol.Decode(f)
	if err != nil {
		var fe *protocol.FrameError
		if !errors.As(err, &fe) {
			panic(err)
		}
		d.counters.FrameErrors++
		log.Printf("dispatch: %v", err)
		return d.reply(fe.ExceptionOpcode(), protocol.Reply(protocol.StatusFailure))
	}

	d.state = Dispatching

	h, found := d.handlers[p.Opcode]
	if !found {
		d.counters.UnknownOpcodes++
		log.Printf("dispatch: unknown opcode 0x%02X", byte(p.Opcode))
		return d.reply(protocol.OpErrUnknownCmd, protocol.Reply(protocol.StatusFailure, byte(p.Opcode)))
	}

	op, payload, send := h(p)
	if !send {
		return protocol.Frame{}, false
	}
	return d.reply(op, payload)
}

func (d *Dispatcher) reply(op protocol.Opcode, payload []byte) (protocol.Frame, bool) {
	d.state = Replying
	d.counters.Replies++
	return protocol.Encode(op, payload), true
}

// State returns the current cycle state.
func (d *Dispatcher) State() State {
	return d.state
}

// Counters returns a copy of the frame counters.
func (d *Dispatcher) Counters() Counters {
	return d.counters
}

func (d *Dispatcher) readSensor(kind sensor.Kind) handler {
	return func(p protocol.Packet) (protocol.Opcode, []byte, bool) {
		v := d.deps.Sensors.Read(kind)
		if !sensor.Ready(v) {
			d.counters.NotReady++
			return protocol.OpNotReady, protocol.Reply(protocol.StatusFailure, byte(p.Opcode)), true
		}
		scaled := protocol.RoundHalfUp(v * kind.Scale())
		return p.Opcode, protocol.ReplyUint32(protocol.StatusSuccess, uint32(scaled)), true
	}
}

func (d *Dispatcher) switchSubsystem(id switchboard.Subsystem) handler {
	return func(p protocol.Packet) (protocol.Opcode, []byte, bool) {
		var enabled bool
		switch p.Payload[0] {
		case protocol.SystemEnabled:
			enabled = true
		case protocol.SystemDisabled:
			enabled = false
		default:
			log.Printf("dispatch: %s: invalid state byte 0x%02X", p.Opcode, p.Payload[0])
			return protocol.OpErrPackage, protocol.Reply(protocol.StatusFailure, byte(p.Opcode)), true
		}

		var err error
		if id == switchboard.AutoLight {
			err = d.deps.Actuators.SetUnguarded(id, enabled)
		} else {
			err = d.deps.Actuators.SetEnabled(id, enabled)
		}

		switch {
		case err == nil:
			return p.Opcode, protocol.Reply(protocol.StatusSuccess, protocol.StateByte(enabled)), true
		case errors.Is(err, switchboard.ErrUnknownSubsystem), errors.Is(err, switchboard.ErrGuarded):
			panic(err)
		case errors.Is(err, switchboard.ErrInterlockDisengaged):
			d.counters.InterlockRejections++
			log.Printf("dispatch: %s rejected: interlock disengaged", p.Opcode)
		default:
			log.Printf("dispatch: %s: %v", p.Opcode, err)
		}
		return p.Opcode, protocol.Reply(protocol.StatusFailure, protocol.StateByte(d.mustState(id))), true
	}
}

func (d *Dispatcher) statusSubsystem(id switchboard.Subsystem) handler {
	return func(p protocol.Packet) (protocol.Opcode, []byte, bool) {
		return p.Opcode, protocol.Reply(protocol.StatusSuccess, protocol.StateByte(d.mustState(id))), true
	}
}

// mustState reads a subsystem that the opcode table guarantees exists.
func (d *Dispatcher) mustState(id switchboard.Subsystem) bool {
	on, err := d.deps.Actuators.State(id)
	if err != nil {
		panic(err)
	}
	return on
}

func (d *Dispatcher) setLight(p protocol.Packet) (protocol.Opcode, []byte, bool) {
	level := p.Payload[0]
	if err := d.deps.Actuators.SetLightLevel(level); err != nil {
		log.Printf("dispatch: set light %d: %v", level, err)
		return p.Opcode, protocol.Reply(protocol.StatusFailure, d.deps.Actuators.LightLevel()), true
	}
	return p.Opcode, protocol.Reply(protocol.StatusSuccess, level), true
}

func (d *Dispatcher) getLight(p protocol.Packet) (protocol.Opcode, []byte, bool) {
	return p.Opcode, protocol.Reply(protocol.StatusSuccess, d.deps.Actuators.LightLevel()), true
}

func (d *Dispatcher) setTime(p protocol.Packet) (protocol.Opcode, []byte, bool) {
	v := protocol.Uint32(p.Payload[0:4])
	d.deps.Clock.Set(v)
	return p.Opcode, protocol.ReplyUint32(protocol.StatusSuccess, v), true
}

func (d *Dispatcher) getTime(p protocol.Packet) (protocol.Opcode, []byte, bool) {
	return p.Opcode, protocol.ReplyUint32(protocol.StatusSuccess, d.deps.Clock.Unix()), true
}

func (d *Dispatcher) setSchedule(set func(uint32) error) handler {
	return func(p protocol.Packet) (protocol.Opcode, []byte, bool) {
		v := protocol.Uint32(p.Payload[0:4])
		if v >= logic.SecondsPerDay {
			log.Printf("dispatch: %s: %d is not a time of day", p.Opcode, v)
			return protocol.OpErrPackage, protocol.Reply(protocol.StatusFailure, byte(p.Opcode)), true
		}
		if err := set(v); err != nil {
			log.Printf("dispatch: %s: %v", p.Opcode, err)
			return p.Opcode, protocol.Reply(protocol.StatusFailure), true
		}
		return p.Opcode, protocol.ReplyUint32(protocol.StatusSuccess, v), true
	}
}

func (d *Dispatcher) getSchedule(get func() (uint32, error)) handler {
	return func(p protocol.Packet) (protocol.Opcode, []byte, bool) {
		v, err := get()
		if err != nil {
			log.Printf("dispatch: %s: %v", p.Opcode, err)
			return p.Opcode, protocol.Reply(protocol.StatusFailure), true
		}
		return p.Opcode, protocol.ReplyUint32(protocol.StatusSuccess, v), true
	}
}

// rejectInbound answers opcodes only the station may send.
func rejectInbound(p protocol.Packet) (protocol.Opcode, []byte, bool) {
	log.Printf("dispatch: %s is station-originated, rejecting", p.Opcode)
	return protocol.OpErrPackage, protocol.Reply(protocol.StatusFailure, byte(p.Opcode)), true
}

// ignoreException logs an exception from the ground. Exceptions are never
// answered.
func ignoreException(p protocol.Packet) (protocol.Opcode, []byte, bool) {
	log.Printf("dispatch: ground reported %s payload=[% X]", p.Opcode, p.Payload[:])
	return 0, nil, false
}
