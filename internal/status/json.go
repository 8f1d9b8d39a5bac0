package status

import (
	"encoding/json"
	"fmt"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string          `json:"event,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	Interlock     string          `json:"interlock"`
	Subsystems    []SubsystemJSON `json:"subsystems"`
	Light         LightJSON       `json:"light"`
	Alerts        AlertsJSON      `json:"alerts"`
	Link          LinkJSON        `json:"link"`
	StationTime   string          `json:"station_time"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	StartTime     string          `json:"start_time"`
	Timestamp     string          `json:"timestamp"`
	MQTT          MQTTStatus      `json:"mqtt"`
	Config        ConfigJSON      `json:"config"`
}

// SubsystemJSON is one actuator.
type SubsystemJSON struct {
	Name   string `json:"name"`
	State  string `json:"state"`
	Sensed string `json:"sensed,omitempty"`
	Line   *int   `json:"line,omitempty"`
}

// LightJSON reports lighting and the schedule.
type LightJSON struct {
	Level     uint8  `json:"level"`
	Auto      bool   `json:"auto"`
	Period    string `json:"period"`
	DayTime   string `json:"day_time"`
	NightTime string `json:"night_time"`
}

// AlertsJSON reports active conditions and raised counts.
type AlertsJSON struct {
	LowVoltage  bool       `json:"low_voltage"`
	LowPressure bool       `json:"low_pressure"`
	StationOpen bool       `json:"station_open"`
	Counts      CountsJSON `json:"counts"`
}

// CountsJSON is the JSON representation of alert counts.
type CountsJSON struct {
	LowVoltage  int `json:"low_voltage"`
	LowPressure int `json:"low_pressure"`
	StationOpen int `json:"station_open"`
}

// LinkJSON is the JSON representation of link counters.
type LinkJSON struct {
	Frames              int `json:"frames"`
	FrameErrors         int `json:"frame_errors"`
	UnknownOpcodes      int `json:"unknown_opcodes"`
	InterlockRejections int `json:"interlock_rejections"`
	NotReady            int `json:"not_ready"`
	Replies             int `json:"replies"`
	SendFailures        int `json:"send_failures"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	SerialPort  string  `json:"serial_port"`
	SensorMs    int64   `json:"sensor_ms"`
	ScheduleMs  int64   `json:"schedule_ms"`
	HeartbeatMs int64   `json:"heartbeat_ms"`
	LowVoltage  float64 `json:"low_voltage"`
	LowPressure float64 `json:"low_pressure"`
	Broker      string  `json:"broker"`
	HTTPAddr    string  `json:"http_addr"`
}

// StateName renders an enabled flag.
func StateName(enabled bool) string {
	if enabled {
		return "ON"
	}
	return "OFF"
}

// ClockTime renders seconds since midnight as HH:MM:SS.
func ClockTime(sec uint32) string {
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, sec/60%60, sec%60)
}

func buildInner(snap Snapshot) StatusInner {
	interlock := "DISENGAGED"
	if snap.Interlock {
		interlock = "ENGAGED"
	}
	period := "NIGHT"
	if snap.Day {
		period = "DAY"
	}

	subs := make([]SubsystemJSON, 0, len(snap.Subsystems))
	for _, s := range snap.Subsystems {
		sj := SubsystemJSON{Name: s.Name, State: StateName(s.Enabled)}
		if s.HasLine {
			line := s.Line
			sj.Line = &line
			sj.Sensed = StateName(s.Sensed)
		}
		subs = append(subs, sj)
	}

	stationTime := ""
	if !snap.StationTime.IsZero() {
		stationTime = snap.StationTime.Format(time.RFC3339)
	}

	return StatusInner{
		Interlock:  interlock,
		Subsystems: subs,
		Light: LightJSON{
			Level:     snap.LightLevel,
			Auto:      snap.AutoLight,
			Period:    period,
			DayTime:   ClockTime(snap.DayTime),
			NightTime: ClockTime(snap.NightTime),
		},
		Alerts: AlertsJSON{
			LowVoltage:  snap.Alerts.LowVoltage,
			LowPressure: snap.Alerts.LowPressure,
			StationOpen: snap.Alerts.StationOpen,
			Counts: CountsJSON{
				LowVoltage:  snap.AlertCounts.LowVoltage,
				LowPressure: snap.AlertCounts.LowPressure,
				StationOpen: snap.AlertCounts.StationOpen,
			},
		},
		Link: LinkJSON{
			Frames:              snap.Link.Frames,
			FrameErrors:         snap.Link.FrameErrors,
			UnknownOpcodes:      snap.Link.UnknownOpcodes,
			InterlockRejections: snap.Link.InterlockRejections,
			NotReady:            snap.Link.NotReady,
			Replies:             snap.Link.Replies,
			SendFailures:        snap.Link.SendFailures,
		},
		StationTime:   stationTime,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			SerialPort:  snap.Config.SerialPort,
			SensorMs:    snap.Config.SensorMs,
			ScheduleMs:  snap.Config.ScheduleMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			LowVoltage:  snap.Config.LowVoltage,
			LowPressure: snap.Config.LowPressure,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
}

// SubsystemsJSON is the actuator-only view.
type SubsystemsJSON struct {
	Interlock  string          `json:"interlock"`
	Subsystems []SubsystemJSON `json:"subsystems"`
}

// FormatSubsystemsJSON returns the interlock and actuator states.
func FormatSubsystemsJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	data, _ := json.MarshalIndent(SubsystemsJSON{
		Interlock:  inner.Interlock,
		Subsystems: inner.Subsystems,
	}, "", "  ")
	return data
}

// FormatSubsystemJSON returns one actuator by name. ok is false when no
// subsystem has that name.
func FormatSubsystemJSON(snap Snapshot, name string) (data []byte, ok bool) {
	for _, sj := range buildInner(snap).Subsystems {
		if sj.Name == name {
			data, _ = json.MarshalIndent(sj, "", "  ")
			return data, true
		}
	}
	return nil, false
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
