// Package status provides a thread-safe view of station state for the HTTP
// server and MQTT lifecycle events. The station loop writes; everyone else reads.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/station-controller/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	SerialPort  string
	Broker      string
	HTTPAddr    string
	SensorMs    int64
	ScheduleMs  int64
	HeartbeatMs int64
	LowVoltage  float64
	LowPressure float64
}

// Subsystem is one actuator's state. This is a local copy to avoid
// importing internal/switchboard from status.
type Subsystem struct {
	Name    string
	Line    int
	HasLine bool
	Enabled bool
	Sensed  bool
}

// Alerts holds the currently active conditions.
type Alerts struct {
	LowVoltage  bool
	LowPressure bool
	StationOpen bool
}

// LinkCounts tracks ground-link traffic.
type LinkCounts struct {
	Frames              int
	FrameErrors         int
	UnknownOpcodes      int
	InterlockRejections int
	NotReady            int
	Replies             int
	SendFailures        int
}

// Station is everything the control loop reports on each pass.
type Station struct {
	Subsystems  []Subsystem
	Interlock   bool
	LightLevel  uint8
	AutoLight   bool
	Day         bool
	DayTime     uint32 // seconds since midnight
	NightTime   uint32
	StationTime time.Time
	Alerts      Alerts
	AlertCounts logic.AlertCounts
	Link        LinkCounts
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type; safe to use after the lock is released.
type Snapshot struct {
	Station
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config

	// Ready is set by the first Update, once the station has booted.
	Ready bool
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update replaces the station state.
// Called from the station loop after every change.
func (t *Tracker) Update(st Station) {
	subs := make([]Subsystem, len(st.Subsystems))
	copy(subs, st.Subsystems)
	st.Subsystems = subs

	t.mu.Lock()
	t.snap.Station = st
	t.snap.Ready = true
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	subs := make([]Subsystem, len(s.Subsystems))
	copy(subs, s.Subsystems)
	t.mu.RUnlock()

	s.Subsystems = subs
	s.Now = t.now()
	return s
}
