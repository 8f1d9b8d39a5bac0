// Package sensor defines the analog sensor collaborator.
// Sampling and calibration happen elsewhere; this package only names the
// readings and the units they travel in.
package sensor

import "math"

// Kind identifies a reading.
type Kind int

const (
	CO2              Kind = iota // ppm
	Humidity                     // %
	Temperature                  // C
	Pressure                     // mbar
	BatteryVoltage               // V
	EnergyUsage                  // A
	EnergyGeneration             // V
	SolarLeft                    // V
	SolarRight                   // V
)

var kindNames = map[Kind]string{
	CO2:              "co2",
	Humidity:         "humidity",
	Temperature:      "temperature",
	Pressure:         "pressure",
	BatteryVoltage:   "battery_voltage",
	EnergyUsage:      "energy_usage",
	EnergyGeneration: "energy_generation",
	SolarLeft:        "solar_left",
	SolarRight:       "solar_right",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Kinds returns every reading kind in order.
func Kinds() []Kind {
	return []Kind{CO2, Humidity, Temperature, Pressure, BatteryVoltage, EnergyUsage, EnergyGeneration, SolarLeft, SolarRight}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Scale converts a reading in its natural unit to the integer unit sent on
// the ground link: volts go out as millivolts, amps as milliamps.
func (k Kind) Scale() float64 {
	switch k {
	case BatteryVoltage, EnergyGeneration, SolarLeft, SolarRight, EnergyUsage:
		return 1000
	default:
		return 1
	}
}

// NotReady is returned when a sensor has no valid reading.
var NotReady = math.NaN()

// Ready reports whether v is a real reading.
func Ready(v float64) bool {
	return !math.IsNaN(v)
}

// Reader returns the latest reading of a kind, or NotReady.
type Reader interface {
	Read(k Kind) float64
}
