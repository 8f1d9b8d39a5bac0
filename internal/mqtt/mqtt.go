// Package mqtt provides MQTT telemetry with abstraction for testing: alert
// and lifecycle publishing out, sensor readings in.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/station-controller/internal/logic"
)

// DefaultPrefix is the topic root when none is configured.
const DefaultPrefix = "station"

// Topics are the topics used under one prefix.
type Topics struct {
	Alerts  string // <prefix>/alerts
	System  string // <prefix>/system
	Sensors string // <prefix>/sensors/+, one subtopic per sensor kind
}

// NewTopics derives the topic set for prefix.
func NewTopics(prefix string) Topics {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{
		Alerts:  prefix + "/alerts",
		System:  prefix + "/system",
		Sensors: prefix + "/sensors/+",
	}
}

// Publisher publishes station telemetry to MQTT.
type Publisher interface {
	// PublishAlert sends a threshold alert edge to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishAlert(alert logic.Alert) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// AlertPayload represents the MQTT message payload for an alert.
type AlertPayload struct {
	Alert AlertInner `json:"alert"`
}

// AlertInner contains the alert details.
type AlertInner struct {
	Timestamp string  `json:"timestamp"`
	Event     string  `json:"event"`
	State     string  `json:"state"` // RAISED or CLEARED
	Value     float64 `json:"value"`
}

// FormatAlertPayload creates the JSON payload for an alert edge.
func FormatAlertPayload(alert logic.Alert) ([]byte, error) {
	state := "CLEARED"
	if alert.Raised {
		state = "RAISED"
	}
	payload := AlertPayload{
		Alert: AlertInner{
			Timestamp: alert.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(alert.Kind),
			State:     state,
			Value:     alert.Value,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
