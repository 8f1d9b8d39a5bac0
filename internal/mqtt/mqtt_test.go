package mqtt

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sweeney/station-controller/internal/logic"
	"github.com/sweeney/station-controller/internal/sensor"
)

func TestNewTopics(t *testing.T) {
	tp := NewTopics("vostok27")
	if tp.Alerts != "vostok27/alerts" || tp.System != "vostok27/system" || tp.Sensors != "vostok27/sensors/+" {
		t.Errorf("unexpected topics: %+v", tp)
	}
	if NewTopics("").System != "station/system" {
		t.Errorf("default prefix not applied: %+v", NewTopics(""))
	}
}

func TestFormatAlertPayload(t *testing.T) {
	tests := []struct {
		raised    bool
		wantState string
	}{
		{true, "RAISED"},
		{false, "CLEARED"},
	}

	for _, tt := range tests {
		t.Run(tt.wantState, func(t *testing.T) {
			alert := logic.Alert{
				Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
				Kind:      logic.AlertLowPressure,
				Raised:    tt.raised,
				Value:     912.5,
			}

			payload, err := FormatAlertPayload(alert)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var parsed AlertPayload
			if err := json.Unmarshal(payload, &parsed); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if parsed.Alert.Timestamp != "2026-02-02T22:18:12Z" {
				t.Errorf("unexpected timestamp: %s", parsed.Alert.Timestamp)
			}
			if parsed.Alert.Event != "LOW_PRESSURE" {
				t.Errorf("unexpected event: %s", parsed.Alert.Event)
			}
			if parsed.Alert.State != tt.wantState {
				t.Errorf("state: got %s, want %s", parsed.Alert.State, tt.wantState)
			}
			if parsed.Alert.Value != 912.5 {
				t.Errorf("value: got %v", parsed.Alert.Value)
			}
		})
	}
}

func TestFormatAlertPayloadExactJSON(t *testing.T) {
	alert := logic.Alert{
		Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.FixedZone("MSK", 3*3600)),
		Kind:      logic.AlertStationOpen,
		Raised:    true,
	}

	payload, err := FormatAlertPayload(alert)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"alert":{"timestamp":"2026-02-10T05:30:00Z","event":"STATION_OPEN","state":"RAISED","value":0}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestWillPayloadFormat(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"MQTT_DISCONNECT"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC),
		Event:     "RECONNECTED",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	system := parsed["system"].(map[string]interface{})
	if _, exists := system["reason"]; exists {
		t.Error("RECONNECTED should not have reason field")
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload, got %s", payload)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	a := logic.Alert{Timestamp: time.Now(), Kind: logic.AlertLowVoltage, Raised: true, Value: 4.1}
	if err := f.PublishAlert(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "HEARTBEAT", Retained: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Alerts) != 1 || f.Alerts[0] != a {
		t.Errorf("alerts not recorded: %+v", f.Alerts)
	}
	if len(f.Payloads) != 1 {
		t.Errorf("expected 1 payload, got %d", len(f.Payloads))
	}
	if len(f.SystemEvents) != 1 || !f.SystemEvents[0].Retained {
		t.Errorf("system events not recorded: %+v", f.SystemEvents)
	}
	if names := f.EventNames(); len(names) != 1 || names[0] != "HEARTBEAT" {
		t.Errorf("EventNames: got %v", names)
	}
	if kinds := f.AlertKinds(); len(kinds) != 1 || kinds[0] != logic.AlertLowVoltage {
		t.Errorf("AlertKinds: got %v", kinds)
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")
	f.PublishSystemError = errors.New("broker down")

	if err := f.PublishAlert(logic.Alert{}); err == nil {
		t.Error("expected alert error")
	}
	if err := f.PublishSystem(SystemEvent{}); err == nil {
		t.Error("expected system error")
	}
	if len(f.Alerts) != 0 || len(f.SystemEvents) != 0 {
		t.Error("failed publishes should not be recorded")
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.PublishAlert(logic.Alert{Kind: logic.AlertLowPressure})
	f.PublishSystem(SystemEvent{Event: "STARTUP"})
	f.Close()
	f.Connected = true

	f.Reset()

	if f.Alerts != nil || f.Payloads != nil || f.SystemEvents != nil || f.SystemPayloads != nil {
		t.Error("Reset should clear recorded events")
	}
	if f.Closed || f.Connected {
		t.Error("Reset should clear flags")
	}
}

// fakeClock allows controlling time in tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func TestSensorFeedHandleMessage(t *testing.T) {
	clk := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	feed := NewSensorFeed(0, clk.Now)

	feed.HandleMessage("station/sensors/temperature", []byte("21.5"))
	feed.HandleMessage("station/sensors/pressure", []byte(" 1009.2\n"))

	if v := feed.Read(sensor.Temperature); v != 21.5 {
		t.Errorf("temperature: got %v", v)
	}
	if v := feed.Read(sensor.Pressure); v != 1009.2 {
		t.Errorf("pressure: got %v", v)
	}
	if sensor.Ready(feed.Read(sensor.CO2)) {
		t.Error("co2 should not be ready")
	}
}

func TestSensorFeedIgnoresGarbage(t *testing.T) {
	feed := NewSensorFeed(0, nil)

	feed.HandleMessage("station/sensors/flux", []byte("1"))
	feed.HandleMessage("station/sensors/humidity", []byte("wet"))

	if sensor.Ready(feed.Read(sensor.Humidity)) {
		t.Error("unparseable reading should not be stored")
	}
	if len(feed.values) != 0 {
		t.Errorf("expected no readings, got %d", len(feed.values))
	}
}

func TestSensorFeedStale(t *testing.T) {
	clk := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	feed := NewSensorFeed(30*time.Second, clk.Now)

	feed.HandleMessage("station/sensors/solar_left", []byte("12.1"))

	clk.t = clk.t.Add(30 * time.Second)
	if v := feed.Read(sensor.SolarLeft); v != 12.1 {
		t.Errorf("at max age: got %v", v)
	}

	clk.t = clk.t.Add(time.Second)
	if v := feed.Read(sensor.SolarLeft); !math.IsNaN(v) {
		t.Errorf("stale reading: got %v, want NotReady", v)
	}
}
