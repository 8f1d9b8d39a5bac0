// Package logic contains the station's pure decision logic: threshold alerts
// and the day/night light schedule.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// AlertKind identifies a monitored condition.
type AlertKind string

const (
	AlertLowVoltage  AlertKind = "LOW_VOLTAGE"
	AlertLowPressure AlertKind = "LOW_PRESSURE"
	AlertStationOpen AlertKind = "STATION_OPEN"
)

// Alert is a condition edge. Raised alerts go to the ground link; cleared
// ones only to telemetry.
type Alert struct {
	Timestamp time.Time
	Kind      AlertKind
	Raised    bool
	Value     float64 // reading that caused the edge; 0 for the hatch
}

// Sample is one set of monitored readings. A NaN reading is not ready and
// leaves its condition unchanged.
type Sample struct {
	SolarLeft    float64 // V
	SolarRight   float64 // V
	Pressure     float64 // mbar
	HatchOpen    bool
	HatchUnknown bool // hatch switch could not be read
	Time         time.Time
}

// Thresholds configures the monitor.
type Thresholds struct {
	LowVoltage  float64 // V, below = low
	LowPressure float64 // mbar, below = low

	// Debounce is how long a condition must persist before it changes.
	// Zero means the first sample decides.
	Debounce time.Duration
}

// DefaultThresholds returns the stock limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowVoltage:  5.0,
		LowPressure: 950,
	}
}

// ConditionState tracks one condition's edge detection.
type ConditionState struct {
	// Current stable state
	Active bool
	// Whether a change is being debounced
	Pending bool
	// Time when the pending change was first observed
	PendingSince time.Time
}

// AlertCounts tracks raised alerts since startup.
type AlertCounts struct {
	LowVoltage  int
	LowPressure int
	StationOpen int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    AlertCounts
}
