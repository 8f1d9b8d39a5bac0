// Package protocol implements the fixed 10-byte ground-link frame: the opcode
// table, frame encode/decode and the receive window assembler.
// This package has NO I/O. The caller owns the serial port.
package protocol

// Frame layout
const (
	FrameSize   = 10
	PayloadSize = 6

	StartMarker = 0xF4
	EndFirst    = 0x0A // byte 8
	EndSecond   = 0x0D // byte 9
)

// Opcode identifies the command or response carried in a frame.
type Opcode byte

// Lifecycle (station -> ground)
const (
	OpStartup      Opcode = 0x01
	OpInitComplete Opcode = 0x02
	OpNotReady     Opcode = 0x03
)

// Autonomous alerts (station -> ground, empty payload)
const (
	OpLowVoltage    Opcode = 0x0A // solar panels below threshold
	OpLowPressure   Opcode = 0x0B
	OpStationIsOpen Opcode = 0x0C // hatch open
)

// Sensor queries
const (
	OpReqCO2         Opcode = 0xA1 // ppm
	OpReqHumidity    Opcode = 0xA2 // %
	OpReqTemperature Opcode = 0xA3 // C
	OpReqPressure    Opcode = 0xA4 // mbar
	OpReqBatteryVolt Opcode = 0xA5 // mV
	OpReqEnergyUsage Opcode = 0xA6 // mA
	OpReqEnergyGen   Opcode = 0xA7 // mV
)

// Actuator switch/status pairs
const (
	OpSwitchPumpValve         Opcode = 0xB0
	OpStatusPumpValve         Opcode = 0xB1
	OpSwitchPresReliefValve   Opcode = 0xB2
	OpStatusPresReliefValve   Opcode = 0xB3
	OpSwitchProdCO2           Opcode = 0xB4
	OpStatusProdCO2           Opcode = 0xB5
	OpSwitchCO2Neutralization Opcode = 0xB6
	OpStatusCO2Neutralization Opcode = 0xB7
	OpSwitchHeatModule        Opcode = 0xB8
	OpStatusHeatModule        Opcode = 0xB9
	OpSwitchFan               Opcode = 0xBA
	OpStatusFan               Opcode = 0xBB
	OpSwitchCameras           Opcode = 0xBC
	OpStatusCameras           Opcode = 0xBD
	OpSwitchAutoLight         Opcode = 0xBE
	OpStatusAutoLight         Opcode = 0xBF
)

// Schedule / config
const (
	OpSetLight     Opcode = 0xC1
	OpGetLight     Opcode = 0xC2
	OpSetTime      Opcode = 0xD1
	OpSetDayTime   Opcode = 0xD2
	OpSetNightTime Opcode = 0xD3
	OpGetTime      Opcode = 0xD4
	OpGetDayTime   Opcode = 0xD5
	OpGetNightTime Opcode = 0xD6
)

// Protocol exceptions
const (
	OpErrPackage     Opcode = 0xE1
	OpErrCRC         Opcode = 0xE2 // never emitted: frames carry no checksum
	OpErrUnknownCmd  Opcode = 0xE3
	OpErrTerminator  Opcode = 0xDA
	OpErrStartMarker Opcode = 0xF4
)

// Status byte (payload[0] of every reply)
const (
	StatusSuccess byte = 0x00
	StatusFailure byte = 0xFF
)

// Subsystem state byte
const (
	SystemEnabled  byte = 0x00
	SystemDisabled byte = 0xFF
)

// Family groups opcodes by how the dispatcher treats them.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyLifecycle
	FamilyAlert
	FamilySensor
	FamilySwitch
	FamilyStatus
	FamilySchedule
	FamilyException
)

var familyNames = map[Family]string{
	FamilyUnknown:   "unknown",
	FamilyLifecycle: "lifecycle",
	FamilyAlert:     "alert",
	FamilySensor:    "sensor",
	FamilySwitch:    "switch",
	FamilyStatus:    "status",
	FamilySchedule:  "schedule",
	FamilyException: "exception",
}

func (f Family) String() string {
	if s, ok := familyNames[f]; ok {
		return s
	}
	return "unknown"
}

type opcodeInfo struct {
	name   string
	family Family
}

var opcodes = map[Opcode]opcodeInfo{
	OpStartup:      {"STARTUP", FamilyLifecycle},
	OpInitComplete: {"INIT_COMPLETE", FamilyLifecycle},
	OpNotReady:     {"NOT_READY", FamilyLifecycle},

	OpLowVoltage:    {"LOW_VOLTAGE", FamilyAlert},
	OpLowPressure:   {"LOW_PRESSURE", FamilyAlert},
	OpStationIsOpen: {"STATION_IS_OPEN", FamilyAlert},

	OpReqCO2:         {"REQ_CO2", FamilySensor},
	OpReqHumidity:    {"REQ_HUM", FamilySensor},
	OpReqTemperature: {"REQ_TEMP", FamilySensor},
	OpReqPressure:    {"REQ_PRES", FamilySensor},
	OpReqBatteryVolt: {"REQ_BAT_VOLTAGE", FamilySensor},
	OpReqEnergyUsage: {"REQ_ENERGY_USAGE", FamilySensor},
	OpReqEnergyGen:   {"REQ_ENERGY_GEN", FamilySensor},

	OpSwitchPumpValve:         {"SWITCH_PUMP_VALVE", FamilySwitch},
	OpStatusPumpValve:         {"STATUS_PUMP_VALVE", FamilyStatus},
	OpSwitchPresReliefValve:   {"SWITCH_PRES_RELIEF_VALVE", FamilySwitch},
	OpStatusPresReliefValve:   {"STATUS_PRES_RELIEF_VALVE", FamilyStatus},
	OpSwitchProdCO2:           {"SWITCH_PROD_CO2", FamilySwitch},
	OpStatusProdCO2:           {"STATUS_PROD_CO2", FamilyStatus},
	OpSwitchCO2Neutralization: {"SWITCH_CO2_NUTRALIZATION", FamilySwitch},
	OpStatusCO2Neutralization: {"STATUS_CO2_NUTRALIZATION", FamilyStatus},
	OpSwitchHeatModule:        {"SWITCH_HEAT_MODULE", FamilySwitch},
	OpStatusHeatModule:        {"STATUS_HEAT_MODULE", FamilyStatus},
	OpSwitchFan:               {"SWITCH_FAN", FamilySwitch},
	OpStatusFan:               {"STATUS_FAN", FamilyStatus},
	OpSwitchCameras:           {"SWITCH_CAMERAS", FamilySwitch},
	OpStatusCameras:           {"STATUS_CAMERAS", FamilyStatus},
	OpSwitchAutoLight:         {"SWITCH_AUTO_LIGHT", FamilySwitch},
	OpStatusAutoLight:         {"STATUS_AUTO_LIGHT", FamilyStatus},

	OpSetLight:     {"SET_LIGHT", FamilySchedule},
	OpGetLight:     {"GET_LIGHT", FamilySchedule},
	OpSetTime:      {"SET_TIME", FamilySchedule},
	OpGetTime:      {"GET_TIME", FamilySchedule},
	OpSetDayTime:   {"SET_DAY_TIME", FamilySchedule},
	OpGetDayTime:   {"GET_DAY_TIME", FamilySchedule},
	OpSetNightTime: {"SET_NIGHT_TIME", FamilySchedule},
	OpGetNightTime: {"GET_NIGHT_TIME", FamilySchedule},

	OpErrPackage:     {"PE_PACKAGE_ERR", FamilyException},
	OpErrCRC:         {"PE_PACKAGE_CRC", FamilyException},
	OpErrUnknownCmd:  {"PE_UNKNOWN_CMD", FamilyException},
	OpErrTerminator:  {"PE_PACKAGE_ERR_CRLF", FamilyException},
	OpErrStartMarker: {"PE_PACKAGE_ERR_MAGIC", FamilyException},
}

// String returns the protocol name of the opcode, or UNKNOWN(0xNN).
func (op Opcode) String() string {
	if info, ok := opcodes[op]; ok {
		return info.name
	}
	return "UNKNOWN(0x" + hexByte(byte(op)) + ")"
}

// Family reports which opcode family op belongs to.
func (op Opcode) Family() Family {
	return opcodes[op].family
}

// Known reports whether op is part of the opcode table.
func (op Opcode) Known() bool {
	_, ok := opcodes[op]
	return ok
}

// Opcodes returns every opcode in the table. Order is unspecified.
func Opcodes() []Opcode {
	out := make([]Opcode, 0, len(opcodes))
	for op := range opcodes {
		out = append(out, op)
	}
	return out
}

func hexByte(b byte) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{digits[b>>4], digits[b&0x0F]})
}
