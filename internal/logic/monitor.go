package logic

import (
	"math"
	"time"
)

// Monitor detects threshold crossings and emits one alert per rising edge.
type Monitor struct {
	thresholds    Thresholds
	voltage       ConditionState
	pressure      ConditionState
	hatch         ConditionState
	startTime     time.Time
	counts        AlertCounts
	lastHeartbeat time.Time
}

// NewMonitor creates a monitor with every condition clear.
// The startTime is used for calculating uptime in heartbeat events.
func NewMonitor(th Thresholds, startTime time.Time) *Monitor {
	return &Monitor{
		thresholds:    th,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process evaluates a sample and returns the edges it produced, in the
// order voltage, pressure, hatch.
func (m *Monitor) Process(s Sample) []Alert {
	var alerts []Alert

	solar := math.NaN()
	if !math.IsNaN(s.SolarLeft) || !math.IsNaN(s.SolarRight) {
		// math.Max propagates NaN, so pick the ready side explicitly.
		switch {
		case math.IsNaN(s.SolarLeft):
			solar = s.SolarRight
		case math.IsNaN(s.SolarRight):
			solar = s.SolarLeft
		default:
			solar = math.Max(s.SolarLeft, s.SolarRight)
		}
	}
	if !math.IsNaN(solar) {
		if a, ok := m.step(&m.voltage, AlertLowVoltage, solar < m.thresholds.LowVoltage, solar, s.Time); ok {
			alerts = append(alerts, a)
		}
	}

	if !math.IsNaN(s.Pressure) {
		if a, ok := m.step(&m.pressure, AlertLowPressure, s.Pressure < m.thresholds.LowPressure, s.Pressure, s.Time); ok {
			alerts = append(alerts, a)
		}
	}

	if !s.HatchUnknown {
		if a, ok := m.step(&m.hatch, AlertStationOpen, s.HatchOpen, 0, s.Time); ok {
			alerts = append(alerts, a)
		}
	}

	for _, a := range alerts {
		if !a.Raised {
			continue
		}
		switch a.Kind {
		case AlertLowVoltage:
			m.counts.LowVoltage++
		case AlertLowPressure:
			m.counts.LowPressure++
		case AlertStationOpen:
			m.counts.StationOpen++
		}
	}

	return alerts
}

// step applies one observation to a condition and reports an edge.
func (m *Monitor) step(c *ConditionState, kind AlertKind, active bool, value float64, now time.Time) (Alert, bool) {
	if active == c.Active {
		c.Pending = false
		return Alert{}, false
	}

	if !c.Pending {
		c.Pending = true
		c.PendingSince = now
	}
	if now.Sub(c.PendingSince) < m.thresholds.Debounce {
		return Alert{}, false
	}

	c.Active = active
	c.Pending = false
	return Alert{Timestamp: now, Kind: kind, Raised: active, Value: value}, true
}

// Active reports the current stable state of each condition.
func (m *Monitor) Active() (lowVoltage, lowPressure, stationOpen bool) {
	return m.voltage.Active, m.pressure.Active, m.hatch.Active
}

// Counts returns the number of raised alerts since startup.
func (m *Monitor) Counts() AlertCounts {
	return m.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.counts,
	}
}
